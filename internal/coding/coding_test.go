// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package coding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestUvarint64RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 1 << 14, 1<<14 - 1, 1 << 21, 1 << 42, math.MaxUint64}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		cases = append(cases, rng.Uint64())
	}
	for _, v := range cases {
		buf := AppendUvarint64(nil, v)
		require.LessOrEqual(t, len(buf), MaxVarintLen64)
		got, n := DecodeUvarint64(buf)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestUvarint64MaxLength(t *testing.T) {
	buf := AppendUvarint64(nil, math.MaxUint64)
	require.Equal(t, 10, len(buf))
}

func TestDecodeUvarint64Truncated(t *testing.T) {
	buf := AppendUvarint64(nil, 1<<42)
	for i := 0; i < len(buf)-1; i++ {
		_, n := DecodeUvarint64(buf[:i])
		require.LessOrEqual(t, n, 0, "prefix of length %d must not decode", i)
	}
}

func TestDecodeUvarint64Overlong(t *testing.T) {
	// Eleven continuation bytes exceed the 10-byte maximum.
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	_, n := DecodeUvarint64(buf)
	require.Negative(t, n)
}

func TestUvarint32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 1 << 20, math.MaxUint32} {
		buf := AppendUvarint32(nil, v)
		got, n := DecodeUvarint32(buf)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestDecodeUvarint32Overflow(t *testing.T) {
	buf := AppendUvarint64(nil, math.MaxUint32+1)
	_, n := DecodeUvarint32(buf)
	require.Negative(t, n)
}

func TestFixed32(t *testing.T) {
	buf := AppendFixed32(nil, 0x04030201)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf)
	require.Equal(t, uint32(0x04030201), DecodeFixed32(buf))

	var b [4]byte
	PutFixed32(b[:], math.MaxUint32)
	require.Equal(t, uint32(math.MaxUint32), DecodeFixed32(b[:]))
}
