// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package crc

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestMaskUnmask(t *testing.T) {
	rng := rand.New(rand.NewSource(0xdead))
	for i := 0; i < 1000; i++ {
		v := rng.Uint32()
		require.Equal(t, v, Unmask(Mask(v)))
	}
	// Masking is not the identity and is not idempotent.
	c := New([]byte("foo")).Raw()
	require.NotEqual(t, c, Mask(c))
	require.NotEqual(t, Mask(c), Mask(Mask(c)))
}

func TestUpdateMatchesSingleShot(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	whole := New(payload)
	split := New(payload[:10]).Update(payload[10:])
	require.Equal(t, whole, split)
}

func TestCastagnoliPolynomial(t *testing.T) {
	b := []byte("123456789")
	require.Equal(t, crc32.Checksum(b, crc32.MakeTable(crc32.Castagnoli)), New(b).Raw())
	// Known check value for crc32c("123456789").
	require.Equal(t, uint32(0xe3069283), New(b).Raw())
}

func TestValueIsMasked(t *testing.T) {
	b := []byte("driftwood")
	require.Equal(t, Mask(New(b).Raw()), New(b).Value())
	require.Equal(t, New(b).Raw(), Unmask(New(b).Value()))
}
