// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package pcache provides a volatile, in-memory persistent-cache tier. It
// exists to back tests and tooling; durable tiers live behind the same
// interface elsewhere.
package pcache

import (
	"sync"

	"github.com/cockroachdb/swiss"

	"github.com/driftwood-db/driftwood/status"
)

// Options configures a Cache.
type Options struct {
	// Compressed marks the cache as storing raw pages (payload plus
	// trailer) rather than decoded payloads.
	Compressed bool

	// MaxBytes bounds the total size of cached values. Zero means
	// unbounded. Inserts that would exceed the bound evict arbitrary
	// entries until the new value fits.
	MaxBytes int64
}

// Cache is an in-memory PersistentCache implementation. It is safe for
// concurrent use.
type Cache struct {
	compressed bool
	maxBytes   int64

	mu struct {
		sync.Mutex
		m         swiss.Map[string, []byte]
		sizeBytes int64
	}
}

// New returns an empty Cache.
func New(opts Options) *Cache {
	c := &Cache{compressed: opts.Compressed, maxBytes: opts.MaxBytes}
	c.mu.m.Init(16)
	return c
}

// Insert stores a copy of data under key, evicting arbitrary entries if the
// size bound requires it. A value larger than the bound itself is dropped
// without error: the cache is advisory.
func (c *Cache) Insert(key []byte, data []byte) status.Status {
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return status.OK()
	}
	value := append([]byte(nil), data...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.mu.m.Get(string(key)); ok {
		c.mu.sizeBytes -= int64(len(old))
		c.mu.m.Delete(string(key))
	}
	if c.maxBytes > 0 {
		for c.mu.sizeBytes+int64(len(value)) > c.maxBytes {
			var victim string
			c.mu.m.All(func(k string, v []byte) bool {
				victim = k
				c.mu.sizeBytes -= int64(len(v))
				return false
			})
			c.mu.m.Delete(victim)
		}
	}
	c.mu.m.Put(string(key), value)
	c.mu.sizeBytes += int64(len(value))
	return status.OK()
}

// Lookup returns a copy of the value stored under key, or NotFound.
func (c *Cache) Lookup(key []byte) ([]byte, status.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.mu.m.Get(string(key))
	if !ok {
		return nil, status.NotFound()
	}
	return append([]byte(nil), v...), status.OK()
}

// IsCompressed reports whether the cache stores raw pages.
func (c *Cache) IsCompressed() bool { return c.compressed }

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.m.Len()
}

// SizeBytes returns the total size of cached values.
func (c *Cache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.sizeBytes
}
