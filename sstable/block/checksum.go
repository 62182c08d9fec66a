// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	xxhash32 "github.com/OneOfOne/xxhash"
	"github.com/cespare/xxhash/v2"

	"github.com/driftwood-db/driftwood/internal/coding"
	"github.com/driftwood-db/driftwood/internal/crc"
	"github.com/driftwood-db/driftwood/status"
)

// ChecksumType identifies the algorithm protecting a block. The value is
// stored in the footer of format-aware sstables, so the constants are part
// of the file format.
type ChecksumType byte

// The available checksum types.
const (
	ChecksumTypeNone     ChecksumType = 0
	ChecksumTypeCRC32c   ChecksumType = 1
	ChecksumTypeXXHash   ChecksumType = 2
	ChecksumTypeXXHash64 ChecksumType = 3
)

// String implements fmt.Stringer.
func (t ChecksumType) String() string {
	switch t {
	case ChecksumTypeNone:
		return "none"
	case ChecksumTypeCRC32c:
		return "crc32c"
	case ChecksumTypeXXHash:
		return "xxhash"
	case ChecksumTypeXXHash64:
		return "xxhash64"
	default:
		return "unknown"
	}
}

// TrailerLen is the number of bytes appended to every block on disk: one
// compression indicator byte followed by a little-endian 32-bit checksum.
const TrailerLen = 5

// Trailer is the on-disk block trailer.
type Trailer = [TrailerLen]byte

// MakeTrailer builds a trailer from the compression indicator byte and the
// checksum.
func MakeTrailer(indicator byte, checksum uint32) (t Trailer) {
	t[0] = indicator
	coding.PutFixed32(t[1:], checksum)
	return t
}

// A Checksummer computes block checksums. The checksum covers the block
// payload and the compression indicator byte that follows it. A Checksummer
// is not safe for concurrent use.
type Checksummer struct {
	Type     ChecksumType
	xxHasher *xxhash.Digest
}

// Checksum computes the checksum of block plus the indicator byte.
func (c *Checksummer) Checksum(block []byte, indicator byte) uint32 {
	switch c.Type {
	case ChecksumTypeCRC32c:
		return crc.New(block).Update([]byte{indicator}).Value()
	case ChecksumTypeXXHash:
		h := xxhash32.NewS32(0)
		_, _ = h.Write(block)
		_, _ = h.Write([]byte{indicator})
		return h.Sum32()
	case ChecksumTypeXXHash64:
		if c.xxHasher == nil {
			c.xxHasher = xxhash.New()
		} else {
			c.xxHasher.Reset()
		}
		_, _ = c.xxHasher.Write(block)
		_, _ = c.xxHasher.Write([]byte{indicator})
		return uint32(c.xxHasher.Sum64())
	default:
		return 0
	}
}

// ValidChecksumType reports whether t names an algorithm this build can
// verify.
func ValidChecksumType(t ChecksumType) bool {
	switch t {
	case ChecksumTypeNone, ChecksumTypeCRC32c, ChecksumTypeXXHash, ChecksumTypeXXHash64:
		return true
	}
	return false
}

// VerifyChecksum checks the trailer checksum of b, which must hold a block
// payload followed by its TrailerLen-byte trailer. ChecksumTypeNone verifies
// nothing.
func VerifyChecksum(t ChecksumType, b []byte) status.Status {
	if t == ChecksumTypeNone {
		return status.OK()
	}
	if !ValidChecksumType(t) {
		return status.Corruption("unknown checksum type")
	}
	payload := b[:len(b)-TrailerLen]
	trailer := b[len(b)-TrailerLen:]
	var c Checksummer
	c.Type = t
	computed := c.Checksum(payload, trailer[0])
	stored := coding.DecodeFixed32(trailer[1:])
	if computed != stored {
		return status.Corruption("block checksum mismatch")
	}
	return status.OK()
}
