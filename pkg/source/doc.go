// Package source feeds snapshots into a render loop.
//
// A [Source] runs until its context is canceled and calls an [Emit]
// function for every snapshot it receives. Two sources are provided:
//
//   - [FileSource] reads a JSON or YAML file and re-reads it whenever it
//     changes on disk (fsnotify, debounced).
//   - [RedisSource] subscribes to a redis pub/sub channel whose messages
//     carry JSON snapshots, optionally seeding from a key first.
//
// Snapshots that fail to decode are logged and skipped; the source keeps
// running. An error returned by Emit stops the source.
package source
