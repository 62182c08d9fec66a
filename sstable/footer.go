// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package sstable implements reading of sorted-string-table files: the
// footer that bootstraps a file and the checksum-verifying, decompressing
// block read pipeline in both synchronous and asynchronous form.
package sstable

import (
	"fmt"

	"github.com/driftwood-db/driftwood/internal/coding"
	"github.com/driftwood-db/driftwood/objstorage"
	"github.com/driftwood-db/driftwood/sstable/block"
	"github.com/driftwood-db/driftwood/status"
)

// The table magic numbers. The legacy values were written before footers
// carried a version; readers silently upconvert them.
const (
	LegacyBlockBasedTableMagicNumber = uint64(0xdb4775248b80fb57)
	BlockBasedTableMagicNumber       = uint64(0x88e241b785f4cff7)
	LegacyPlainTableMagicNumber      = uint64(0x4f3418eb7a8f13b8)
	PlainTableMagicNumber            = uint64(0x8242229663bf9564)
)

const (
	magicNumberLen = 8
	versionLen     = 4

	// Legacy footers hold two padded block handles followed by the magic.
	legacyFooterLen = 2*block.MaxHandleEncodedLen + magicNumberLen

	// Versioned footers prepend a checksum-type byte and carry the version
	// immediately before the magic.
	versionedFooterLen = 1 + 2*block.MaxHandleEncodedLen + versionLen + magicNumberLen

	// FooterMinLen is the shortest tail worth inspecting. Files shorter than
	// this are rejected, including files that would only hold a legacy
	// footer of legacyFooterLen bytes.
	FooterMinLen = versionedFooterLen

	// FooterMaxLen bounds the scratch a footer read needs.
	FooterMaxLen = versionedFooterLen
)

// Footer is the fixed-size tail of an sstable, locating the metaindex and
// index blocks. The zero value is uninitialized; Decode populates every
// field or none.
type Footer struct {
	TableMagicNumber uint64
	Version          uint32
	Checksum         block.ChecksumType
	MetaindexBH      block.Handle
	IndexBH          block.Handle
}

// IsLegacyMagicNumber reports whether magic identifies a pre-versioned
// footer layout.
func IsLegacyMagicNumber(magic uint64) bool {
	return magic == LegacyBlockBasedTableMagicNumber || magic == LegacyPlainTableMagicNumber
}

// upconvertLegacyMagicNumber maps a legacy magic to its current equivalent.
func upconvertLegacyMagicNumber(magic uint64) uint64 {
	switch magic {
	case LegacyBlockBasedTableMagicNumber:
		return BlockBasedTableMagicNumber
	case LegacyPlainTableMagicNumber:
		return PlainTableMagicNumber
	}
	return magic
}

func appendMagic(buf []byte, magic uint64) []byte {
	buf = coding.AppendFixed32(buf, uint32(magic&0xffffffff))
	buf = coding.AppendFixed32(buf, uint32(magic>>32))
	return buf
}

// Encode appends the on-disk form of the footer to buf and returns the
// extended slice. A footer carrying a legacy magic encodes in the legacy
// layout and must use the crc32c checksum.
func (f *Footer) Encode(buf []byte) []byte {
	if IsLegacyMagicNumber(f.TableMagicNumber) {
		if f.Checksum != block.ChecksumTypeCRC32c {
			panic("legacy footer requires crc32c")
		}
		start := len(buf)
		buf = f.MetaindexBH.EncodeVarints(buf)
		buf = f.IndexBH.EncodeVarints(buf)
		for len(buf)-start < 2*block.MaxHandleEncodedLen {
			buf = append(buf, 0)
		}
		return appendMagic(buf, f.TableMagicNumber)
	}
	start := len(buf)
	buf = append(buf, byte(f.Checksum))
	buf = f.MetaindexBH.EncodeVarints(buf)
	buf = f.IndexBH.EncodeVarints(buf)
	for len(buf)-start < 1+2*block.MaxHandleEncodedLen {
		buf = append(buf, 0)
	}
	buf = coding.AppendFixed32(buf, f.Version)
	return appendMagic(buf, f.TableMagicNumber)
}

// Decode parses the footer from tail, which must be the true end of the
// file and at least FooterMinLen bytes long. A legacy magic is upconverted:
// the decoded footer carries the current magic, version 0, and crc32c. On
// failure the footer is reset to its zero value.
func (f *Footer) Decode(tail []byte) status.Status {
	*f = Footer{}
	if len(tail) < FooterMinLen {
		return status.Corruption("input is too short to be an sstable")
	}
	magicOff := len(tail) - magicNumberLen
	magic := uint64(coding.DecodeFixed32(tail[magicOff:]))
	magic |= uint64(coding.DecodeFixed32(tail[magicOff+4:])) << 32

	var handles []byte
	if IsLegacyMagicNumber(magic) {
		f.TableMagicNumber = upconvertLegacyMagicNumber(magic)
		f.Version = 0
		f.Checksum = block.ChecksumTypeCRC32c
		footer := tail[len(tail)-legacyFooterLen:]
		handles = footer[:len(footer)-magicNumberLen]
	} else {
		f.TableMagicNumber = magic
		f.Version = coding.DecodeFixed32(tail[magicOff-versionLen:])
		footer := tail[len(tail)-versionedFooterLen:]
		// The checksum type is written as a single byte but read back as a
		// varint, which agrees for every value below 128.
		chksum, n := coding.DecodeUvarint32(footer)
		if n <= 0 {
			*f = Footer{}
			return status.Corruption("bad checksum type")
		}
		f.Checksum = block.ChecksumType(chksum)
		handles = footer[n : len(footer)-versionLen-magicNumberLen]
	}

	var n int
	f.MetaindexBH, n = block.DecodeHandle(handles)
	if n == 0 {
		*f = Footer{}
		return status.Corruption("bad block handle")
	}
	f.IndexBH, n = block.DecodeHandle(handles[n:])
	if n == 0 {
		*f = Footer{}
		return status.Corruption("bad block handle")
	}
	return status.OK()
}

// String implements fmt.Stringer.
func (f Footer) String() string {
	return fmt.Sprintf("checksum=%s metaindex=%s index=%s version=%d magic=%#016x",
		f.Checksum, f.MetaindexBH, f.IndexBH, f.Version, f.TableMagicNumber)
}

func finishFooterRead(tail []byte, enforceTableMagicNumber uint64) (Footer, status.Status) {
	if len(tail) < FooterMinLen {
		return Footer{}, status.Corruption("file is too short to be an sstable")
	}
	var f Footer
	if s := f.Decode(tail); !s.Ok() {
		return Footer{}, s
	}
	if enforceTableMagicNumber != 0 && f.TableMagicNumber != enforceTableMagicNumber {
		return Footer{}, status.Corruption("Bad table magic number")
	}
	return f, status.OK()
}

// ReadFooter reads and decodes the footer of file. When
// enforceTableMagicNumber is non-zero, a footer whose (upconverted) magic
// differs is rejected.
func ReadFooter(
	file objstorage.Readable, enforceTableMagicNumber uint64,
) (Footer, status.Status) {
	size := file.Size()
	if size < FooterMinLen {
		return Footer{}, status.Corruption("file is too short to be an sstable")
	}
	var scratch [FooterMaxLen]byte
	tail, s := file.ReadAt(scratch[:], size-FooterMinLen)
	if !s.Ok() {
		return Footer{}, s
	}
	return finishFooterRead(tail, enforceTableMagicNumber)
}

// FooterReadCompletion receives the result of an asynchronous footer read.
type FooterReadCompletion func(Footer, status.Status)

type footerReadContext struct {
	scratch [FooterMaxLen]byte
	enforce uint64
	cb      FooterReadCompletion
}

func (c *footerReadContext) complete(data []byte, s status.Status) {
	if !s.Ok() {
		c.cb(Footer{}, s.AsAsync())
		return
	}
	f, s := finishFooterRead(data, c.enforce)
	c.cb(f, s.AsAsync())
}

// RequestReadFooter is the asynchronous form of ReadFooter. When the read
// completes inline the footer and a non-IOPending status are returned
// directly and cb is never invoked. When the status is IOPending, cb is
// invoked exactly once with the result, carrying the async bit.
func RequestReadFooter(
	file objstorage.AsyncReadable, enforceTableMagicNumber uint64, cb FooterReadCompletion,
) (Footer, status.Status) {
	size := file.Size()
	if size < FooterMinLen {
		return Footer{}, status.Corruption("file is too short to be an sstable")
	}
	ctx := &footerReadContext{enforce: enforceTableMagicNumber, cb: cb}
	data, s := file.ReadAtAsync(ctx.scratch[:], size-FooterMinLen, ctx.complete)
	if s.IsIOPending() {
		return Footer{}, s
	}
	if !s.Ok() {
		return Footer{}, s
	}
	return finishFooterRead(data, enforceTableMagicNumber)
}
