// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sstable

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/driftwood-db/driftwood/base"
	"github.com/driftwood-db/driftwood/objstorage"
	"github.com/driftwood-db/driftwood/sstable/block"
	"github.com/driftwood-db/driftwood/status"
)

var magicsByName = map[string]uint64{
	"block-based":        BlockBasedTableMagicNumber,
	"plain":              PlainTableMagicNumber,
	"legacy-block-based": LegacyBlockBasedTableMagicNumber,
	"legacy-plain":       LegacyPlainTableMagicNumber,
}

var checksumsByName = map[string]block.ChecksumType{
	"none":     block.ChecksumTypeNone,
	"crc32c":   block.ChecksumTypeCRC32c,
	"xxhash":   block.ChecksumTypeXXHash,
	"xxhash64": block.ChecksumTypeXXHash64,
}

func scanHandle(t *testing.T, td *datadriven.TestData, name string) block.Handle {
	t.Helper()
	var s string
	td.ScanArgs(t, name, &s)
	var h block.Handle
	_, err := fmt.Sscanf(s, "%d,%d", &h.Offset, &h.Length)
	require.NoError(t, err)
	return h
}

func TestFooterDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/footer", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "encode":
			var magicName, checksumName string
			td.ScanArgs(t, "magic", &magicName)
			td.ScanArgs(t, "checksum", &checksumName)
			f := Footer{
				TableMagicNumber: magicsByName[magicName],
				Checksum:         checksumsByName[checksumName],
				MetaindexBH:      scanHandle(t, td, "metaindex"),
				IndexBH:          scanHandle(t, td, "index"),
			}
			if td.HasArg("version") {
				td.ScanArgs(t, "version", &f.Version)
			}
			enc := f.Encode(nil)
			return fmt.Sprintf("%s\nlen=%d", hex.EncodeToString(enc), len(enc))

		case "decode":
			tail, err := hex.DecodeString(strings.TrimSpace(td.Input))
			require.NoError(t, err)
			var f Footer
			if s := f.Decode(tail); !s.Ok() {
				return s.String()
			}
			return f.String()

		case "read":
			file, err := hex.DecodeString(strings.TrimSpace(td.Input))
			require.NoError(t, err)
			var enforce uint64
			if td.HasArg("enforce") {
				var name string
				td.ScanArgs(t, "enforce", &name)
				enforce = magicsByName[name]
			}
			r := objstorage.NewReadable(bytes.NewReader(file), int64(len(file)))
			f, s := ReadFooter(r, enforce)
			if !s.Ok() {
				return s.String()
			}
			return f.String()

		default:
			return fmt.Sprintf("unrecognized command %q", td.Cmd)
		}
	})
}

func TestFooterRoundTripProp(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	properties := gopter.NewProperties(params)

	properties.Property("versioned footers round-trip in 53 bytes", prop.ForAll(
		func(version uint32, checksum uint8, mOff, mLen, iOff, iLen uint64) bool {
			f := Footer{
				TableMagicNumber: BlockBasedTableMagicNumber,
				Version:          version,
				Checksum:         block.ChecksumType(checksum),
				MetaindexBH:      block.Handle{Offset: mOff, Length: mLen},
				IndexBH:          block.Handle{Offset: iOff, Length: iLen},
			}
			enc := f.Encode(nil)
			if len(enc) != FooterMaxLen {
				return false
			}
			var got Footer
			return got.Decode(enc).Ok() && got == f
		},
		gen.UInt32Range(1, 1<<30), gen.UInt8Range(0, 127),
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.Property("legacy footers round-trip in 48 bytes and upconvert", prop.ForAll(
		func(mOff, mLen, iOff, iLen uint64) bool {
			f := Footer{
				TableMagicNumber: LegacyBlockBasedTableMagicNumber,
				Checksum:         block.ChecksumTypeCRC32c,
				MetaindexBH:      block.Handle{Offset: mOff, Length: mLen},
				IndexBH:          block.Handle{Offset: iOff, Length: iLen},
			}
			enc := f.Encode(nil)
			if len(enc) != legacyFooterLen {
				return false
			}
			// Decode requires the true file tail, at least FooterMinLen long.
			tail := append(make([]byte, FooterMinLen-len(enc)), enc...)
			var got Footer
			if !got.Decode(tail).Ok() {
				return false
			}
			return got.TableMagicNumber == BlockBasedTableMagicNumber &&
				got.Version == 0 &&
				got.Checksum == block.ChecksumTypeCRC32c &&
				got.MetaindexBH == f.MetaindexBH &&
				got.IndexBH == f.IndexBH
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestFooterDecodeTooShort(t *testing.T) {
	var f Footer
	s := f.Decode(make([]byte, FooterMinLen-1))
	require.True(t, s.IsCorruption())
	require.Equal(t, "input is too short to be an sstable", s.Message())
}

func TestFooterDecodeResetOnFailure(t *testing.T) {
	// A versioned footer whose handle area is unterminated varint bytes.
	tail := make([]byte, 0, FooterMaxLen)
	tail = append(tail, byte(block.ChecksumTypeCRC32c))
	for i := 0; i < 2*block.MaxHandleEncodedLen; i++ {
		tail = append(tail, 0x80)
	}
	tail = append(tail, 5, 0, 0, 0)
	tail = appendMagic(tail, BlockBasedTableMagicNumber)
	require.Len(t, tail, FooterMaxLen)

	f := Footer{Version: 99}
	s := f.Decode(tail)
	require.True(t, s.IsCorruption())
	require.Equal(t, "bad block handle", s.Message())
	require.Equal(t, Footer{}, f)
}

func TestFooterLegacyChecksumPanics(t *testing.T) {
	f := Footer{
		TableMagicNumber: LegacyBlockBasedTableMagicNumber,
		Checksum:         block.ChecksumTypeXXHash,
	}
	require.Panics(t, func() { f.Encode(nil) })
}

func TestReadFooterShortFile(t *testing.T) {
	for _, n := range []int{0, 1, legacyFooterLen, FooterMinLen - 1} {
		r := objstorage.NewReadable(bytes.NewReader(make([]byte, n)), int64(n))
		_, s := ReadFooter(r, 0)
		require.True(t, s.IsCorruption())
		require.Equal(t, "file is too short to be an sstable", s.Message())
	}
}

func TestReadFooterEnforceMagic(t *testing.T) {
	f := Footer{
		TableMagicNumber: PlainTableMagicNumber,
		Version:          1,
		Checksum:         block.ChecksumTypeCRC32c,
	}
	file := f.Encode(make([]byte, 100))

	r := objstorage.NewReadable(bytes.NewReader(file), int64(len(file)))
	_, s := ReadFooter(r, BlockBasedTableMagicNumber)
	require.True(t, s.IsCorruption())
	require.Equal(t, "Bad table magic number", s.Message())

	got, s := ReadFooter(r, PlainTableMagicNumber)
	require.True(t, s.Ok())
	require.Equal(t, f, got)
}

func TestReadFooterLegacyEnforcesUpconvertedMagic(t *testing.T) {
	f := Footer{
		TableMagicNumber: LegacyBlockBasedTableMagicNumber,
		Checksum:         block.ChecksumTypeCRC32c,
		MetaindexBH:      block.Handle{Offset: 10, Length: 20},
		IndexBH:          block.Handle{Offset: 30, Length: 40},
	}
	file := f.Encode(make([]byte, 64))
	r := objstorage.NewReadable(bytes.NewReader(file), int64(len(file)))
	got, s := ReadFooter(r, BlockBasedTableMagicNumber)
	require.True(t, s.Ok())
	require.Equal(t, BlockBasedTableMagicNumber, got.TableMagicNumber)
	require.Equal(t, f.MetaindexBH, got.MetaindexBH)
}

func TestRequestReadFooter(t *testing.T) {
	env := base.NewEnv(1)
	defer env.Close()

	f := Footer{
		TableMagicNumber: BlockBasedTableMagicNumber,
		Version:          4,
		Checksum:         block.ChecksumTypeXXHash64,
		MetaindexBH:      block.Handle{Offset: 100, Length: 200},
		IndexBH:          block.Handle{Offset: 300, Length: 400},
	}
	file := f.Encode(make([]byte, 500))
	r := objstorage.NewAsyncReadable(
		objstorage.NewReadable(bytes.NewReader(file), int64(len(file))), env)

	var wg sync.WaitGroup
	wg.Add(1)
	var got Footer
	var result status.Status
	_, s := RequestReadFooter(r, BlockBasedTableMagicNumber, func(f Footer, s status.Status) {
		got, result = f, s
		wg.Done()
	})
	require.True(t, s.IsIOPending())
	wg.Wait()
	require.True(t, result.Ok())
	require.True(t, result.Async())
	require.Equal(t, f, got)
}

func TestRequestReadFooterShortFileFailsInline(t *testing.T) {
	env := base.NewEnv(1)
	defer env.Close()
	r := objstorage.NewAsyncReadable(
		objstorage.NewReadable(bytes.NewReader(make([]byte, 10)), 10), env)
	_, s := RequestReadFooter(r, 0, func(Footer, status.Status) {
		t.Fatal("completion must not run")
	})
	require.True(t, s.IsCorruption())
	require.False(t, s.Async())
}

func TestRequestReadFooterShutdown(t *testing.T) {
	env := base.NewEnv(1)
	env.Close()
	file := Footer{
		TableMagicNumber: BlockBasedTableMagicNumber,
		Version:          1,
		Checksum:         block.ChecksumTypeCRC32c,
	}.Encode(make([]byte, 10))
	r := objstorage.NewAsyncReadable(
		objstorage.NewReadable(bytes.NewReader(file), int64(len(file))), env)
	_, s := RequestReadFooter(r, 0, func(Footer, status.Status) {
		t.Fatal("completion must not run after shutdown")
	})
	require.True(t, s.IsShutdownInProgress())
}
