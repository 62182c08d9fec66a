// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sstable

import (
	"github.com/cockroachdb/crlib/crtime"

	"github.com/driftwood-db/driftwood/metrics"
	"github.com/driftwood-db/driftwood/objstorage"
	"github.com/driftwood-db/driftwood/sstable/block"
	"github.com/driftwood-db/driftwood/status"
)

// BlockReadCompletion receives the result of an asynchronous block read.
type BlockReadCompletion func(block.Contents, status.Status)

// RawBlockCompletion receives the result of an asynchronous raw block read:
// the verified page including its trailer.
type RawBlockCompletion func([]byte, status.Status)

// blockReadContext carries one block read through the pipeline stages:
// cache probe, disk read plus checksum, decompression plus cache fill. The
// same context drives both the synchronous and the asynchronous entry
// points; in the asynchronous case it is heap-allocated and owned by the
// pipeline until the terminal transition.
type blockReadContext struct {
	file       objstorage.Readable
	footer     *Footer
	opts       ReadOptions
	handle     block.Handle
	scratch    []byte
	iopts      *ImmutableOptions
	decompress bool
	dict       []byte
	cacheOpts  PersistentCacheOptions

	// raw is the page (payload plus trailer) once produced by the disk read
	// or a raw cache hit. heapBuf is set when raw is an owned heap
	// allocation rather than a view into scratch or the reader.
	raw     []byte
	heapBuf []byte

	readStart crtime.Mono
	cb        BlockReadCompletion
}

func (c *blockReadContext) pageLen() int {
	return int(c.handle.Length) + block.TrailerLen
}

// probeCache runs the cache probe stage. done reports that the pipeline
// terminated with (contents, s). Otherwise, a non-nil c.raw holds a raw
// cache hit and the disk read is skipped; the page came from the cache that
// wrote it after verification, so it is not re-verified.
func (c *blockReadContext) probeCache() (contents block.Contents, done bool, _ status.Status) {
	if !c.cacheOpts.IsSet() {
		return block.Contents{}, false, status.OK()
	}
	if !c.cacheOpts.Cache.IsCompressed() {
		contents, s := lookupUncompressedPage(c.cacheOpts, c.handle)
		if s.Ok() {
			return contents, true, s
		}
		c.logCacheMiss(s)
		return block.Contents{}, false, status.OK()
	}
	buf, s := lookupRawPage(c.cacheOpts, c.handle, c.pageLen())
	if s.Ok() {
		c.heapBuf = buf
		c.raw = buf
		return block.Contents{}, false, status.OK()
	}
	c.logCacheMiss(s)
	return block.Contents{}, false, status.OK()
}

// logCacheMiss records a cache lookup failure. Anything other than NotFound
// is unexpected but must not fail the read.
func (c *blockReadContext) logCacheMiss(s status.Status) {
	if !s.IsNotFound() {
		c.iopts.Logger.Infof("Error reading from persistent cache. %s", s)
	}
}

// diskRead runs the disk read stage synchronously.
func (c *blockReadContext) diskRead() status.Status {
	c.readStart = crtime.NowMono()
	data, s := c.file.ReadAt(c.scratch[:c.pageLen()], int64(c.handle.Offset))
	metrics.MeasureTime(c.iopts.Stats, metrics.BlockReadNanos, c.readStart.Elapsed())
	if !s.Ok() {
		return s
	}
	return c.finishRead(data)
}

// finishRead validates the page produced by a positional read: exact
// length, then the trailer checksum when requested.
func (c *blockReadContext) finishRead(data []byte) status.Status {
	metrics.RecordTick(c.iopts.Stats, metrics.BlockReadCount, 1)
	metrics.RecordTick(c.iopts.Stats, metrics.BlockReadByte, int64(len(data)))
	if len(data) != c.pageLen() {
		return status.Corruption("truncated block read")
	}
	if c.opts.VerifyChecksums {
		detailed := metrics.ShouldReportDetailedTime(c.iopts.Stats)
		var start crtime.Mono
		if detailed {
			start = crtime.NowMono()
		}
		s := block.VerifyChecksum(c.footer.Checksum, data)
		if detailed {
			metrics.MeasureTime(c.iopts.Stats, metrics.BlockChecksumNanos, start.Elapsed())
		}
		if !s.Ok() {
			return s
		}
	}
	c.raw = data
	return status.OK()
}

func sameBacking(a, b []byte) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}

// finish runs the decompression and cache fill stage and produces the final
// contents.
func (c *blockReadContext) finish() (block.Contents, status.Status) {
	n := int(c.handle.Length)
	tag := block.CompressionIndicator(c.raw[n])

	// The insert is unconditional on the page's origin: a page that just came
	// out of the cache is written back, refreshing its residency.
	if c.opts.FillCache && c.cacheOpts.IsSet() && c.cacheOpts.Cache.IsCompressed() {
		insertRawPage(c.cacheOpts, c.handle, c.raw[:c.pageLen()])
	}

	var contents block.Contents
	if c.decompress && tag != block.NoCompressionIndicator {
		decompressStart := crtime.NowMono()
		detailed := metrics.ShouldReportDetailedTime(c.iopts.Stats)
		var s status.Status
		contents, s = block.Decompress(tag, c.raw[:n], c.footer.Version, c.dict)
		elapsed := decompressStart.Elapsed()
		metrics.MeasureTime(c.iopts.Stats, metrics.BlockDecompressNanos, elapsed)
		if !s.Ok() {
			return block.Contents{}, s
		}
		if detailed {
			metrics.MeasureTime(c.iopts.Stats, metrics.DecompressionTimesNanos, elapsed)
			metrics.MeasureValue(c.iopts.Stats, metrics.BytesDecompressed, int64(len(contents.Data)))
			metrics.RecordTick(c.iopts.Stats, metrics.NumberBlockDecompressed, 1)
		}
	} else {
		switch {
		case c.heapBuf != nil:
			// A raw cache hit already owns its allocation.
			contents = block.Contents{Data: c.heapBuf[:n], Cachable: true, Compression: tag}
		case !sameBacking(c.raw, c.scratch):
			// The reader returned a view into its own storage; borrow it.
			contents = block.Contents{Data: c.raw[:n], Cachable: false, Compression: tag}
		default:
			owned := make([]byte, n)
			copy(owned, c.raw[:n])
			contents = block.Contents{Data: owned, Cachable: true, Compression: tag}
		}
	}

	if c.opts.FillCache && c.cacheOpts.IsSet() && !c.cacheOpts.Cache.IsCompressed() {
		insertUncompressedPage(c.cacheOpts, c.handle, contents.Data)
	}
	return contents, status.OK()
}

// ReadBlock reads the block at h and verifies its trailer checksum per
// opts, returning the page including the trailer. The returned slice may
// alias scratch. scratch must be at least h.Length + block.TrailerLen bytes.
func ReadBlock(
	file objstorage.Readable,
	footer *Footer,
	opts ReadOptions,
	h block.Handle,
	scratch []byte,
	iopts *ImmutableOptions,
) ([]byte, status.Status) {
	c := blockReadContext{
		file: file, footer: footer, opts: opts, handle: h, scratch: scratch, iopts: iopts,
	}
	if s := c.diskRead(); !s.Ok() {
		return nil, s
	}
	return c.raw, status.OK()
}

// ReadBlockContents reads the block at h through the full pipeline: cache
// probe, disk read plus checksum verification, decompression when requested,
// and cache fill. scratch must be at least h.Length + block.TrailerLen
// bytes; the returned contents either own their buffer (Cachable) or borrow
// from the reader's own storage. A page read into scratch is copied out.
func ReadBlockContents(
	file objstorage.Readable,
	footer *Footer,
	opts ReadOptions,
	h block.Handle,
	scratch []byte,
	iopts *ImmutableOptions,
	decompress bool,
	dict []byte,
	cacheOpts PersistentCacheOptions,
) (block.Contents, status.Status) {
	c := blockReadContext{
		file: file, footer: footer, opts: opts, handle: h, scratch: scratch,
		iopts: iopts, decompress: decompress, dict: dict, cacheOpts: cacheOpts,
	}
	if contents, done, s := c.probeCache(); done {
		return contents, s
	}
	if c.raw == nil {
		if s := c.diskRead(); !s.Ok() {
			return block.Contents{}, s
		}
	}
	return c.finish()
}

// RequestReadBlockContents is the asynchronous form of ReadBlockContents.
// When the pipeline completes inline (cache hit, inline read completion, or
// a failure before any I/O was scheduled) the result is returned directly
// and cb is never invoked. When the status is IOPending, cb is invoked
// exactly once from the reader's completion context, with the async bit set
// on the delivered status.
func RequestReadBlockContents(
	file objstorage.AsyncReadable,
	footer *Footer,
	opts ReadOptions,
	h block.Handle,
	scratch []byte,
	iopts *ImmutableOptions,
	decompress bool,
	dict []byte,
	cacheOpts PersistentCacheOptions,
	cb BlockReadCompletion,
) (block.Contents, status.Status) {
	c := &blockReadContext{
		file: file, footer: footer, opts: opts, handle: h, scratch: scratch,
		iopts: iopts, decompress: decompress, dict: dict, cacheOpts: cacheOpts,
		cb: cb,
	}
	if contents, done, s := c.probeCache(); done {
		return contents, s
	}
	if c.raw != nil {
		return c.finish()
	}
	c.readStart = crtime.NowMono()
	data, s := file.ReadAtAsync(c.scratch[:c.pageLen()], int64(c.handle.Offset), c.onRead)
	if s.IsIOPending() {
		return block.Contents{}, s
	}
	metrics.MeasureTime(c.iopts.Stats, metrics.BlockReadNanos, c.readStart.Elapsed())
	if !s.Ok() {
		return block.Contents{}, s
	}
	if s := c.finishRead(data); !s.Ok() {
		return block.Contents{}, s
	}
	return c.finish()
}

// onRead resumes the pipeline after an asynchronous disk read completes.
func (c *blockReadContext) onRead(data []byte, s status.Status) {
	metrics.MeasureTime(c.iopts.Stats, metrics.BlockReadNanos, c.readStart.Elapsed())
	if !s.Ok() {
		c.cb(block.Contents{}, s.AsAsync())
		return
	}
	if s := c.finishRead(data); !s.Ok() {
		c.cb(block.Contents{}, s.AsAsync())
		return
	}
	contents, s2 := c.finish()
	c.cb(contents, s2.AsAsync())
}

// RequestReadBlock is the asynchronous form of ReadBlock. The completion
// convention matches RequestReadBlockContents.
func RequestReadBlock(
	file objstorage.AsyncReadable,
	footer *Footer,
	opts ReadOptions,
	h block.Handle,
	scratch []byte,
	iopts *ImmutableOptions,
	cb RawBlockCompletion,
) ([]byte, status.Status) {
	c := &blockReadContext{
		file: file, footer: footer, opts: opts, handle: h, scratch: scratch, iopts: iopts,
	}
	c.cb = func(contents block.Contents, s status.Status) {
		if !s.Ok() {
			cb(nil, s)
			return
		}
		cb(c.raw, s)
	}
	c.readStart = crtime.NowMono()
	data, s := file.ReadAtAsync(c.scratch[:c.pageLen()], int64(c.handle.Offset), c.onRawRead)
	if s.IsIOPending() {
		return nil, s
	}
	metrics.MeasureTime(c.iopts.Stats, metrics.BlockReadNanos, c.readStart.Elapsed())
	if !s.Ok() {
		return nil, s
	}
	if s := c.finishRead(data); !s.Ok() {
		return nil, s
	}
	return c.raw, status.OK()
}

// onRawRead resumes RequestReadBlock after an asynchronous disk read.
func (c *blockReadContext) onRawRead(data []byte, s status.Status) {
	metrics.MeasureTime(c.iopts.Stats, metrics.BlockReadNanos, c.readStart.Elapsed())
	if !s.Ok() {
		c.cb(block.Contents{}, s.AsAsync())
		return
	}
	if s := c.finishRead(data); !s.Ok() {
		c.cb(block.Contents{}, s.AsAsync())
		return
	}
	c.cb(block.Contents{Data: c.raw}, status.OK().AsAsync())
}
