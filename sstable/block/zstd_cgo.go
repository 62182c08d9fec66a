// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

//go:build cgo

package block

import (
	"bytes"
	"io"

	"github.com/DataDog/zstd"
)

// decompressZstd decodes a zstd frame using the C implementation.
// decompressedLen is the length announced by the block framing; a frame
// decoding to any other length is corrupt.
func decompressZstd(payload []byte, decompressedLen int, dict []byte) ([]byte, bool) {
	out := make([]byte, decompressedLen)
	if len(dict) > 0 {
		r := zstd.NewReaderDict(bytes.NewReader(payload), dict)
		defer r.Close()
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, false
		}
		// The frame must end exactly at decompressedLen.
		if n, err := r.Read(make([]byte, 1)); n != 0 || err != io.EOF {
			return nil, false
		}
		return out, true
	}
	n, err := zstd.NewCtx().DecompressInto(out, payload)
	if err != nil || n != decompressedLen {
		return nil, false
	}
	return out, true
}
