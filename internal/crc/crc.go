// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package crc implements the checksum algorithm used throughout the sstable
// format.
//
// The algorithm is CRC-32 with Castagnoli's polynomial, followed by a
// masking transform so that computing the CRC of a string that already
// contains an embedded CRC does not degenerate.
package crc

import "hash/crc32"

// maskDelta is the constant added by the masking transform.
const maskDelta = 0xa282ead8

// CRC is an accumulating crc32c checksum.
type CRC uint32

var table = crc32.MakeTable(crc32.Castagnoli)

// New returns the checksum of b.
func New(b []byte) CRC {
	return CRC(0).Update(b)
}

// Update returns the checksum of the concatenation of the bytes already
// summed and b.
func (c CRC) Update(b []byte) CRC {
	return CRC(crc32.Update(uint32(c), table, b))
}

// Value returns the masked form of the checksum, as stored on disk.
func (c CRC) Value() uint32 {
	return Mask(uint32(c))
}

// Raw returns the unmasked checksum.
func (c CRC) Raw() uint32 {
	return uint32(c)
}

// Mask rotates the crc right by 15 bits and adds a constant. The stored
// trailer checksum is always the masked form.
func Mask(crc uint32) uint32 {
	return (crc>>15 | crc<<17) + maskDelta
}

// Unmask reverses Mask.
func Unmask(masked uint32) uint32 {
	rot := masked - maskDelta
	return rot>>17 | rot<<15
}
