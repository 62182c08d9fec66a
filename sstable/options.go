// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sstable

import (
	"github.com/driftwood-db/driftwood/base"
	"github.com/driftwood-db/driftwood/metrics"
)

// ImmutableOptions bundles the process-wide facilities a reader needs. The
// bundle must outlive every read issued against it.
type ImmutableOptions struct {
	Logger base.Logger
	Env    *base.Env
	Stats  metrics.Statistics
}

// EnsureDefaults fills in unset fields and returns the options.
func (o *ImmutableOptions) EnsureDefaults() *ImmutableOptions {
	if o.Logger == nil {
		o.Logger = base.DefaultLogger
	}
	return o
}

// ReadOptions carries the per-read knobs.
type ReadOptions struct {
	// VerifyChecksums causes the block trailer checksum to be checked
	// against the bytes read from disk.
	VerifyChecksums bool

	// FillCache causes blocks read from disk to be inserted into the
	// configured persistent cache.
	FillCache bool
}

// PersistentCacheOptions configures the persistent cache consulted by block
// reads. A zero value disables the cache.
type PersistentCacheOptions struct {
	Cache PersistentCache

	// KeyPrefix distinguishes this file's blocks from other files sharing
	// the cache. It is typically derived from the file number.
	KeyPrefix string

	Stats metrics.Statistics
}

// IsSet reports whether a cache is configured.
func (o PersistentCacheOptions) IsSet() bool { return o.Cache != nil }
