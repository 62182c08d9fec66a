// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package block implements the on-disk block format shared by all sstable
// readers: handles, checksums, the compression trailer, and decompression.
package block

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/driftwood-db/driftwood/internal/coding"
)

// Handle is the file offset and length of a block. The length does not
// include the trailer.
type Handle struct {
	Offset uint64
	Length uint64
}

// MaxHandleEncodedLen is the maximum number of bytes EncodeVarints appends.
const MaxHandleEncodedLen = 2 * binary.MaxVarintLen64

// NullHandle is the zero handle. It is used where a handle slot must be
// filled but no block exists, such as the metaindex slot of footers written
// before two-level indexes.
var NullHandle = Handle{}

// InvalidHandle is a sentinel that cannot refer to a real block.
var InvalidHandle = Handle{Offset: math.MaxUint64, Length: math.MaxUint64}

// IsNull reports whether the handle is the null handle.
func (h Handle) IsNull() bool { return h == NullHandle }

// EncodeVarints appends the varint encoding of h to dst and returns the
// extended slice.
func (h Handle) EncodeVarints(dst []byte) []byte {
	dst = coding.AppendUvarint64(dst, h.Offset)
	dst = coding.AppendUvarint64(dst, h.Length)
	return dst
}

// DecodeHandle decodes a handle from the start of src. It returns the handle
// and the number of bytes consumed; n == 0 indicates that src does not hold
// a valid handle.
func DecodeHandle(src []byte) (h Handle, n int) {
	offset, m := coding.DecodeUvarint64(src)
	if m <= 0 {
		return Handle{}, 0
	}
	length, k := coding.DecodeUvarint64(src[m:])
	if k <= 0 {
		return Handle{}, 0
	}
	return Handle{Offset: offset, Length: length}, m + k
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("[%d,%d)", h.Offset, h.Offset+h.Length)
}
