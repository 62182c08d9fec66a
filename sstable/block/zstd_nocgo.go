// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

//go:build !cgo

package block

import (
	"github.com/klauspost/compress/zstd"
)

// decompressZstd decodes a zstd frame using the pure-Go implementation.
// decompressedLen is the length announced by the block framing; a frame
// decoding to any other length is corrupt.
func decompressZstd(payload []byte, decompressedLen int, dict []byte) ([]byte, bool) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if len(dict) > 0 {
		opts = append(opts, zstd.WithDecoderDictRaw(0, dict))
	}
	d, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, false
	}
	defer d.Close()
	out, err := d.DecodeAll(payload, make([]byte, 0, decompressedLen))
	if err != nil || len(out) != decompressedLen {
		return nil, false
	}
	return out, true
}
