// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package objstorage abstracts the byte source an sstable is read from. A
// Readable supports positional reads; an AsyncReadable additionally supports
// reads that complete on an executor.
package objstorage

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/driftwood-db/driftwood/base"
	"github.com/driftwood-db/driftwood/status"
)

// Readable is a positional-read view over an sstable file.
//
// ReadAt reads up to len(p) bytes starting at off. Implementations may
// return a zero-copy view of an internal buffer instead of filling p; the
// returned slice is valid until the next call on the Readable. A read past
// the end of the file is not an error: the returned slice is simply shorter
// than requested, and callers detect truncation themselves.
type Readable interface {
	ReadAt(p []byte, off int64) ([]byte, status.Status)
	Size() int64
	Close() status.Status
}

// CompletionFunc receives the result of an asynchronous read. data is valid
// only for the duration of the call.
type CompletionFunc func(data []byte, s status.Status)

// AsyncReadable is a Readable whose reads can also complete asynchronously.
//
// ReadAtAsync either completes inline, returning the terminal status without
// invoking fn, or returns IOPending, in which case fn is invoked exactly
// once from an executor goroutine with the read's result.
type AsyncReadable interface {
	Readable
	ReadAtAsync(p []byte, off int64, fn CompletionFunc) ([]byte, status.Status)
}

// readerAtReadable adapts an io.ReaderAt to Readable.
type readerAtReadable struct {
	r    io.ReaderAt
	size int64
}

var _ Readable = (*readerAtReadable)(nil)

// NewReadable returns a Readable over r. size must be the total size of the
// underlying file.
func NewReadable(r io.ReaderAt, size int64) Readable {
	return &readerAtReadable{r: r, size: size}
}

// ReadAt implements Readable.
func (r *readerAtReadable) ReadAt(p []byte, off int64) ([]byte, status.Status) {
	n, err := r.r.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return nil, status.FromErr(errors.Wrapf(err, "read %d bytes at offset %d", len(p), off))
	}
	return p[:n], status.OK()
}

// Size implements Readable.
func (r *readerAtReadable) Size() int64 { return r.size }

// Close implements Readable.
func (r *readerAtReadable) Close() status.Status {
	if c, ok := r.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return status.FromErr(err)
		}
	}
	r.r = nil
	return status.OK()
}

// envAsyncReadable runs asynchronous reads on an Env's executor.
type envAsyncReadable struct {
	Readable
	env *base.Env
}

var _ AsyncReadable = (*envAsyncReadable)(nil)

// NewAsyncReadable returns an AsyncReadable that services ReadAtAsync by
// scheduling the read on env's executor. Synchronous reads pass through to r.
func NewAsyncReadable(r Readable, env *base.Env) AsyncReadable {
	return &envAsyncReadable{Readable: r, env: env}
}

// ReadAtAsync implements AsyncReadable. The read always completes on the
// executor; the inline return is IOPending unless the executor has shut
// down, in which case fn is never invoked and the caller observes
// ShutdownInProgress directly.
func (r *envAsyncReadable) ReadAtAsync(p []byte, off int64, fn CompletionFunc) ([]byte, status.Status) {
	ok := r.env.Schedule(func(canceled bool) {
		if canceled {
			fn(nil, status.ShutdownInProgress("executor shut down"))
			return
		}
		fn(r.Readable.ReadAt(p, off))
	})
	if !ok {
		return nil, status.ShutdownInProgress("executor shut down")
	}
	return nil, status.IOPending()
}
