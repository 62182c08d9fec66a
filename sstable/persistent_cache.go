// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sstable

import (
	"github.com/driftwood-db/driftwood/internal/coding"
	"github.com/driftwood-db/driftwood/metrics"
	"github.com/driftwood-db/driftwood/sstable/block"
	"github.com/driftwood-db/driftwood/status"
)

// PersistentCache is the out-of-process or on-disk block cache consulted by
// the read pipeline. A compressed cache stores raw pages (payload plus
// trailer); an uncompressed cache stores decoded payloads. NotFound is the
// only non-error miss; implementations must be safe for concurrent use.
type PersistentCache interface {
	Insert(key []byte, data []byte) status.Status
	Lookup(key []byte) ([]byte, status.Status)
	IsCompressed() bool
}

// persistentCacheKey derives the cache key for a block: the file's key
// prefix followed by the varint offset and length of the handle.
func persistentCacheKey(prefix string, h block.Handle) []byte {
	key := make([]byte, 0, len(prefix)+2*coding.MaxVarintLen64)
	key = append(key, prefix...)
	key = coding.AppendUvarint64(key, h.Offset)
	key = coding.AppendUvarint64(key, h.Length)
	return key
}

// insertRawPage stores the raw on-disk page (payload plus trailer) in a
// compressed cache. Insert failures are the cache's problem, not the
// read's.
func insertRawPage(opts PersistentCacheOptions, h block.Handle, page []byte) {
	_ = opts.Cache.Insert(persistentCacheKey(opts.KeyPrefix, h), page)
}

// insertUncompressedPage stores a decoded payload in an uncompressed cache.
func insertUncompressedPage(opts PersistentCacheOptions, h block.Handle, data []byte) {
	_ = opts.Cache.Insert(persistentCacheKey(opts.KeyPrefix, h), data)
}

// lookupRawPage retrieves the raw page for h from a compressed cache into a
// fresh heap buffer of exactly n bytes. A page of any other size is treated
// as a corrupt cache entry.
func lookupRawPage(
	opts PersistentCacheOptions, h block.Handle, n int,
) ([]byte, status.Status) {
	data, s := opts.Cache.Lookup(persistentCacheKey(opts.KeyPrefix, h))
	if !s.Ok() {
		metrics.RecordTick(opts.Stats, metrics.PersistentCacheMiss, 1)
		return nil, s
	}
	if len(data) != n {
		metrics.RecordTick(opts.Stats, metrics.PersistentCacheMiss, 1)
		return nil, status.Corruption("persistent cache page size mismatch")
	}
	buf := make([]byte, n)
	copy(buf, data)
	metrics.RecordTick(opts.Stats, metrics.PersistentCacheHit, 1)
	return buf, status.OK()
}

// lookupUncompressedPage retrieves the decoded payload for h from an
// uncompressed cache.
func lookupUncompressedPage(
	opts PersistentCacheOptions, h block.Handle,
) (block.Contents, status.Status) {
	data, s := opts.Cache.Lookup(persistentCacheKey(opts.KeyPrefix, h))
	if !s.Ok() {
		metrics.RecordTick(opts.Stats, metrics.PersistentCacheMiss, 1)
		return block.Contents{}, s
	}
	metrics.RecordTick(opts.Stats, metrics.PersistentCacheHit, 1)
	return block.Contents{
		Data:        data,
		Cachable:    true,
		Compression: block.NoCompressionIndicator,
	}, status.OK()
}
