// Package snapshot decodes state snapshots and converts them into tree nodes.
//
// # Format
//
// A snapshot is a JSON or YAML object mapping entry names to values:
//
//	{
//	  "todoList": {"items": 3, "filter": "all"},
//	  "currentUser": "ada"
//	}
//
// # Conversion
//
// [ToNodes] is the reference converter used by the CLI and the server. Keys
// are visited in sorted order. A non-empty object becomes an internal node
// whose children are its own entries; every other value (scalars, arrays,
// empty objects) becomes a leaf carrying the value as {"value": v}. The
// example above becomes
//
//	currentUser  {"value": "ada"}
//	todoList
//	├── filter   {"value": "all"}
//	└── items    {"value": 3}
//
// Hosts with richer snapshots supply their own converter to the visualizer.
//
// # Import and export
//
// [Read] decodes from any reader in a given [Format]; [Import] opens a file
// and picks the format from its extension. [WriteTree] writes the converted
// tree back out as indented JSON.
package snapshot
