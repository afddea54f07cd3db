package cache

import (
	"context"
	"time"
)

// NullCache drops every artifact, so each render and PNG encoding is done
// afresh. It backs --no-cache and is the fallback of runners and servers
// built without a cache.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache returns a NullCache.
func NewNullCache() Cache { return NullCache{} }

// Get misses for every key.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set drops data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Close() error { return nil }
