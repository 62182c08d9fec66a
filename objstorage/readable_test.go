// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package objstorage

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftwood-db/driftwood/base"
	"github.com/driftwood-db/driftwood/status"
)

func TestReadableReadAt(t *testing.T) {
	data := []byte("0123456789")
	r := NewReadable(bytes.NewReader(data), int64(len(data)))
	require.Equal(t, int64(10), r.Size())

	buf := make([]byte, 4)
	got, s := r.ReadAt(buf, 3)
	require.True(t, s.Ok())
	require.Equal(t, []byte("3456"), got)

	// Reads past the end return a short slice, not an error.
	got, s = r.ReadAt(buf, 8)
	require.True(t, s.Ok())
	require.Equal(t, []byte("89"), got)

	got, s = r.ReadAt(buf, 100)
	require.True(t, s.Ok())
	require.Len(t, got, 0)

	require.True(t, r.Close().Ok())
}

type errReaderAt struct{ err error }

func (e errReaderAt) ReadAt([]byte, int64) (int, error) { return 0, e.err }

func TestReadableError(t *testing.T) {
	r := NewReadable(errReaderAt{err: errFault}, 10)
	_, s := r.ReadAt(make([]byte, 4), 0)
	require.True(t, s.IsIOError())
}

var errFault = bytes.ErrTooLarge

func TestAsyncReadableCompletes(t *testing.T) {
	env := base.NewEnv(2)
	defer env.Close()

	data := []byte("hello, async world")
	r := NewAsyncReadable(NewReadable(bytes.NewReader(data), int64(len(data))), env)

	var wg sync.WaitGroup
	wg.Add(1)
	var got []byte
	var result status.Status
	_, s := r.ReadAtAsync(make([]byte, 5), 7, func(data []byte, s status.Status) {
		got = append([]byte(nil), data...)
		result = s
		wg.Done()
	})
	require.True(t, s.IsIOPending())
	wg.Wait()
	require.True(t, result.Ok())
	require.Equal(t, []byte("async"), got)
}

func TestAsyncReadableShutdown(t *testing.T) {
	env := base.NewEnv(1)
	env.Close()

	r := NewAsyncReadable(NewReadable(bytes.NewReader(nil), 0), env)
	_, s := r.ReadAtAsync(make([]byte, 1), 0, func([]byte, status.Status) {
		t.Fatal("completion must not run after shutdown")
	})
	require.True(t, s.IsShutdownInProgress())
}

func TestAsyncReadableCanceled(t *testing.T) {
	env := base.NewEnv(1)

	block := make(chan struct{})
	started := make(chan struct{})
	require.True(t, env.Schedule(func(bool) {
		close(started)
		<-block
	}))
	<-started

	data := []byte("x")
	r := NewAsyncReadable(NewReadable(bytes.NewReader(data), 1), env)

	var wg sync.WaitGroup
	wg.Add(1)
	var result status.Status
	_, s := r.ReadAtAsync(make([]byte, 1), 0, func(_ []byte, s status.Status) {
		result = s
		wg.Done()
	})
	require.True(t, s.IsIOPending())

	done := make(chan struct{})
	go func() {
		env.Close()
		close(done)
	}()
	wg.Wait()
	close(block)
	<-done
	require.True(t, result.IsShutdownInProgress())
}
