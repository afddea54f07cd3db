// Package cache stores rendered artifacts keyed by snapshot content.
//
// Rendering the same snapshot with the same options always produces the same
// bytes, so the CLI keeps SVG, PNG and DOT output in a [FileCache] under the
// XDG cache directory and the HTTP server keeps its PNG encodings per canvas
// version. Keys come from a [Keyer]; [ScopedKeyer] namespaces them per
// surface.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key of a rendered artifact.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render settings that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Viewport string  `json:"viewport,omitempty"`
	Style    string  `json:"style,omitempty"`
	Layout   string  `json:"layout,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<format>:<hash>" where hash covers the
// content hash and every option.
func (DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, contentHash, opts)
}
