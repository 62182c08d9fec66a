// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package coding implements the variable-length and fixed-width integer
// encodings used by the sstable format. Varints use the standard 7-bit
// continuation scheme; fixed-width integers are little-endian.
//
// Decoders report failure through their count result: n == 0 means the
// input ended mid-value, n < 0 means the value overflowed its type. It is
// up to callers to translate failures into corruption errors.
package coding

import "encoding/binary"

// MaxVarintLen64 is the maximum encoded length of a 64-bit varint.
const MaxVarintLen64 = binary.MaxVarintLen64

// MaxVarintLen32 is the maximum encoded length of a 32-bit varint.
const MaxVarintLen32 = binary.MaxVarintLen32

// AppendUvarint64 appends v to buf as a varint and returns the extended
// buffer.
func AppendUvarint64(buf []byte, v uint64) []byte {
	return binary.AppendUvarint(buf, v)
}

// AppendUvarint32 appends v to buf as a varint and returns the extended
// buffer.
func AppendUvarint32(buf []byte, v uint32) []byte {
	return binary.AppendUvarint(buf, uint64(v))
}

// PutUvarint64 encodes v into buf and returns the number of bytes written.
// buf must be at least MaxVarintLen64 bytes.
func PutUvarint64(buf []byte, v uint64) int {
	return binary.PutUvarint(buf, v)
}

// DecodeUvarint64 decodes a varint from the start of buf. It returns the
// value and the number of bytes consumed; n <= 0 indicates failure.
func DecodeUvarint64(buf []byte) (v uint64, n int) {
	return binary.Uvarint(buf)
}

// DecodeUvarint32 decodes a varint from the start of buf, failing when the
// decoded value does not fit in 32 bits.
func DecodeUvarint32(buf []byte) (v uint32, n int) {
	u, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, n
	}
	if u > 1<<32-1 {
		return 0, -n
	}
	return uint32(u), n
}

// AppendFixed32 appends v to buf in little-endian order and returns the
// extended buffer.
func AppendFixed32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

// PutFixed32 encodes v into the first four bytes of buf in little-endian
// order.
func PutFixed32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// DecodeFixed32 decodes a little-endian uint32 from the first four bytes of
// buf.
func DecodeFixed32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
