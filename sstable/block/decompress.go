// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/pierrec/lz4/v4"

	"github.com/driftwood-db/driftwood/internal/coding"
	"github.com/driftwood-db/driftwood/status"
)

// CompressionIndicator identifies the codec a block was compressed with. It
// is the first byte of the block trailer and part of the file format.
type CompressionIndicator byte

// The available compression indicators.
const (
	NoCompressionIndicator     CompressionIndicator = 0
	SnappyCompressionIndicator CompressionIndicator = 1
	ZlibCompressionIndicator   CompressionIndicator = 2
	Bzip2CompressionIndicator  CompressionIndicator = 3
	LZ4CompressionIndicator    CompressionIndicator = 4
	LZ4HCCompressionIndicator  CompressionIndicator = 5
	XpressCompressionIndicator CompressionIndicator = 6
	ZstdCompressionIndicator   CompressionIndicator = 7

	// ZstdNotFinalCompressionIndicator was written by experimental builds
	// before the zstd format was finalized. It decodes identically to
	// ZstdCompressionIndicator.
	ZstdNotFinalCompressionIndicator CompressionIndicator = 0x40
)

// String implements fmt.Stringer. The names are the codec names used in
// corruption messages.
func (i CompressionIndicator) String() string {
	switch i {
	case NoCompressionIndicator:
		return "NoCompression"
	case SnappyCompressionIndicator:
		return "Snappy"
	case ZlibCompressionIndicator:
		return "Zlib"
	case Bzip2CompressionIndicator:
		return "Bzip2"
	case LZ4CompressionIndicator:
		return "LZ4"
	case LZ4HCCompressionIndicator:
		return "LZ4HC"
	case XpressCompressionIndicator:
		return "XPRESS"
	case ZstdCompressionIndicator, ZstdNotFinalCompressionIndicator:
		return "ZSTD"
	default:
		return "unknown"
	}
}

func (i CompressionIndicator) corruption() status.Status {
	name := i.String()
	return status.Corruption(name + " not supported or corrupted " + name +
		" compressed block contents")
}

// sizePrefixedFormat reports whether blocks compressed with i carry a varint
// decompressed-length prefix under the given sstable format version. Zstd
// blocks always carry the prefix; the older codecs gained it in format
// version 2.
func sizePrefixedFormat(i CompressionIndicator, formatVersion uint32) bool {
	switch i {
	case ZstdCompressionIndicator, ZstdNotFinalCompressionIndicator:
		return true
	default:
		return formatVersion >= 2
	}
}

// Decompress decodes b, a block payload compressed with indicator, into a
// fresh heap allocation. NoCompressionIndicator is the exception: b itself
// is returned, uncopied and not cachable. formatVersion selects the payload
// framing for the codecs whose framing changed across sstable format
// versions. dict is the optional compression dictionary; codecs without
// dictionary support ignore it.
func Decompress(
	indicator CompressionIndicator, b []byte, formatVersion uint32, dict []byte,
) (Contents, status.Status) {
	var out []byte
	var ok bool
	switch indicator {
	case NoCompressionIndicator:
		return Contents{Data: b}, status.OK()
	case SnappyCompressionIndicator:
		out, ok = decompressSnappy(b)
	case ZlibCompressionIndicator:
		out, ok = decompressZlib(b, sizePrefixedFormat(indicator, formatVersion), dict)
	case Bzip2CompressionIndicator:
		out, ok = decompressBzip2(b, sizePrefixedFormat(indicator, formatVersion))
	case LZ4CompressionIndicator, LZ4HCCompressionIndicator:
		out, ok = decompressLZ4(b, sizePrefixedFormat(indicator, formatVersion), dict)
	case XpressCompressionIndicator:
		// XPRESS decompression is not built in.
		ok = false
	case ZstdCompressionIndicator, ZstdNotFinalCompressionIndicator:
		out, ok = decompressZstdFramed(b, dict)
	default:
		return Contents{}, status.Corruption("bad block type")
	}
	if !ok {
		return Contents{}, indicator.corruption()
	}
	return Contents{Data: out, Cachable: true, Compression: NoCompressionIndicator}, status.OK()
}

func decompressSnappy(b []byte) ([]byte, bool) {
	out, err := snappy.Decode(nil, b)
	if err != nil {
		return nil, false
	}
	return out, true
}

// splitSizePrefix strips the varint decompressed-length prefix when present.
// The second result is the expected decompressed length, or -1 when the
// framing does not carry one.
func splitSizePrefix(b []byte, prefixed bool) (payload []byte, decompressedLen int, ok bool) {
	if !prefixed {
		return b, -1, true
	}
	n, m := coding.DecodeUvarint32(b)
	if m <= 0 {
		return nil, 0, false
	}
	return b[m:], int(n), true
}

// decompressZlib inflates a raw deflate stream (zlib with negative window
// bits, so no zlib wrapper and no stream checksum).
func decompressZlib(b []byte, prefixed bool, dict []byte) ([]byte, bool) {
	payload, decompressedLen, ok := splitSizePrefix(b, prefixed)
	if !ok {
		return nil, false
	}
	r := flate.NewReaderDict(bytes.NewReader(payload), dict)
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}
	if decompressedLen >= 0 && len(out) != decompressedLen {
		return nil, false
	}
	return out, true
}

func decompressBzip2(b []byte, prefixed bool) ([]byte, bool) {
	payload, decompressedLen, ok := splitSizePrefix(b, prefixed)
	if !ok {
		return nil, false
	}
	out, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return nil, false
	}
	if decompressedLen >= 0 && len(out) != decompressedLen {
		return nil, false
	}
	return out, true
}

// lz4LegacyHeaderLen is the framing used before the varint prefix: eight
// bytes, of which the first four hold the little-endian decompressed length.
const lz4LegacyHeaderLen = 8

func decompressLZ4(b []byte, prefixed bool, dict []byte) ([]byte, bool) {
	var payload []byte
	var decompressedLen int
	if prefixed {
		var ok bool
		payload, decompressedLen, ok = splitSizePrefix(b, true)
		if !ok {
			return nil, false
		}
	} else {
		if len(b) < lz4LegacyHeaderLen {
			return nil, false
		}
		decompressedLen = int(coding.DecodeFixed32(b))
		payload = b[lz4LegacyHeaderLen:]
	}
	out := make([]byte, decompressedLen)
	var n int
	var err error
	if len(dict) > 0 {
		n, err = lz4.UncompressBlockWithDict(payload, out, dict)
	} else {
		n, err = lz4.UncompressBlock(payload, out)
	}
	if err != nil || n != decompressedLen {
		return nil, false
	}
	return out, true
}

// decompressZstdFramed strips the mandatory varint prefix and hands the
// frame to the build-selected zstd implementation.
func decompressZstdFramed(b []byte, dict []byte) ([]byte, bool) {
	payload, decompressedLen, ok := splitSizePrefix(b, true)
	if !ok {
		return nil, false
	}
	return decompressZstd(payload, decompressedLen, dict)
}
