// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package block

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestHandleRoundTrip(t *testing.T) {
	cases := []Handle{
		{},
		{Offset: 1, Length: 1},
		{Offset: 1 << 20, Length: 4096},
		{Offset: math.MaxUint64, Length: math.MaxUint64},
	}
	for _, h := range cases {
		enc := h.EncodeVarints(nil)
		require.LessOrEqual(t, len(enc), MaxHandleEncodedLen)
		got, n := DecodeHandle(enc)
		require.Equal(t, len(enc), n)
		require.Equal(t, h, got)
	}
}

func TestHandleRoundTripProp(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(params)
	properties.Property("decode inverts encode", prop.ForAll(
		func(offset, length uint64) bool {
			h := Handle{Offset: offset, Length: length}
			got, n := DecodeHandle(h.EncodeVarints(nil))
			return n > 0 && got == h
		},
		gen.UInt64(), gen.UInt64(),
	))
	properties.TestingRun(t)
}

func TestDecodeHandleFailure(t *testing.T) {
	// Truncated mid-varint.
	_, n := DecodeHandle([]byte{0x80})
	require.Equal(t, 0, n)

	// Offset present, length missing.
	h := Handle{Offset: 1 << 30, Length: 1 << 30}
	enc := h.EncodeVarints(nil)
	_, n = DecodeHandle(enc[:len(enc)-1])
	require.Equal(t, 0, n)

	_, n = DecodeHandle(nil)
	require.Equal(t, 0, n)
}

func TestHandleDecodeIgnoresTrailingBytes(t *testing.T) {
	h := Handle{Offset: 7, Length: 11}
	enc := h.EncodeVarints(nil)
	withSuffix := append(enc, 0xff, 0xff)
	got, n := DecodeHandle(withSuffix)
	require.Equal(t, len(enc), n)
	require.Equal(t, h, got)
}

func TestHandleSentinels(t *testing.T) {
	require.True(t, NullHandle.IsNull())
	require.False(t, InvalidHandle.IsNull())
	require.False(t, Handle{Offset: 0, Length: 1}.IsNull())
}
