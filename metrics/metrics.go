// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package metrics defines the statistics surface consumed by the block I/O
// core and a default in-memory implementation.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Ticker identifies a monotonically increasing counter.
type Ticker int

// The available tickers.
const (
	BlockReadCount Ticker = iota
	BlockReadByte
	NumberBlockDecompressed
	PersistentCacheHit
	PersistentCacheMiss
	NumTickers
)

// String implements fmt.Stringer.
func (t Ticker) String() string {
	switch t {
	case BlockReadCount:
		return "block.read.count"
	case BlockReadByte:
		return "block.read.bytes"
	case NumberBlockDecompressed:
		return "block.decompressed.count"
	case PersistentCacheHit:
		return "persistent.cache.hit"
	case PersistentCacheMiss:
		return "persistent.cache.miss"
	default:
		return "unknown"
	}
}

// Histogram identifies a distribution of measurements.
type Histogram int

// The available histograms. Time histograms are recorded in nanoseconds.
const (
	BlockReadNanos Histogram = iota
	BlockChecksumNanos
	BlockDecompressNanos
	DecompressionTimesNanos
	BytesDecompressed
	NumHistograms
)

// String implements fmt.Stringer.
func (h Histogram) String() string {
	switch h {
	case BlockReadNanos:
		return "block.read.nanos"
	case BlockChecksumNanos:
		return "block.checksum.nanos"
	case BlockDecompressNanos:
		return "block.decompress.nanos"
	case DecompressionTimesNanos:
		return "decompression.times.nanos"
	case BytesDecompressed:
		return "bytes.decompressed"
	default:
		return "unknown"
	}
}

// StatsLevel controls how much work an implementation performs. Detailed
// timer histograms are only recorded above StatsExceptDetailedTimers.
type StatsLevel int32

// The available levels, cheapest first.
const (
	StatsExceptDetailedTimers StatsLevel = iota
	StatsExceptTimeForMutex
	StatsAll
)

// Statistics accumulates tickers and histograms. Implementations must be
// safe for concurrent use.
type Statistics interface {
	RecordTick(t Ticker, count int64)
	MeasureTime(h Histogram, d time.Duration)
	MeasureValue(h Histogram, v int64)
	Level() StatsLevel
}

// ShouldReportDetailedTime reports whether detailed timer histograms should
// be recorded against stats. A nil Statistics never reports.
func ShouldReportDetailedTime(stats Statistics) bool {
	return stats != nil && stats.Level() > StatsExceptDetailedTimers
}

// RecordTick is a nil-safe helper around Statistics.RecordTick.
func RecordTick(stats Statistics, t Ticker, count int64) {
	if stats != nil {
		stats.RecordTick(t, count)
	}
}

// MeasureTime is a nil-safe helper around Statistics.MeasureTime.
func MeasureTime(stats Statistics, h Histogram, d time.Duration) {
	if stats != nil {
		stats.MeasureTime(h, d)
	}
}

// MeasureValue is a nil-safe helper around Statistics.MeasureValue.
func MeasureValue(stats Statistics, h Histogram, v int64) {
	if stats != nil {
		stats.MeasureValue(h, v)
	}
}

// histogramMaxValue bounds the recordable range. One hour in nanoseconds
// comfortably covers any single block read or decompression.
const histogramMaxValue = int64(time.Hour)

// Stats is the default Statistics implementation: atomic counters for
// tickers and HdrHistograms for distributions.
type Stats struct {
	level   StatsLevel
	tickers [NumTickers]atomic.Int64
	hists   [NumHistograms]struct {
		mu sync.Mutex
		h  *hdrhistogram.Histogram
	}
}

var _ Statistics = (*Stats)(nil)

// NewStats returns a Stats recording at the given level.
func NewStats(level StatsLevel) *Stats {
	s := &Stats{level: level}
	for i := range s.hists {
		s.hists[i].h = hdrhistogram.New(1, histogramMaxValue, 2)
	}
	return s
}

// RecordTick implements Statistics.
func (s *Stats) RecordTick(t Ticker, count int64) {
	s.tickers[t].Add(count)
}

// MeasureTime implements Statistics.
func (s *Stats) MeasureTime(h Histogram, d time.Duration) {
	s.MeasureValue(h, d.Nanoseconds())
}

// MeasureValue implements Statistics.
func (s *Stats) MeasureValue(h Histogram, v int64) {
	if v < 1 {
		v = 1
	} else if v > histogramMaxValue {
		v = histogramMaxValue
	}
	hist := &s.hists[h]
	hist.mu.Lock()
	// The bounds above make RecordValue infallible.
	_ = hist.h.RecordValue(v)
	hist.mu.Unlock()
}

// Level implements Statistics.
func (s *Stats) Level() StatsLevel { return s.level }

// TickerCount returns the current value of a ticker.
func (s *Stats) TickerCount(t Ticker) int64 {
	return s.tickers[t].Load()
}

// HistogramSnapshot summarizes one histogram.
type HistogramSnapshot struct {
	Count int64
	Mean  float64
	Max   int64
	P50   int64
	P99   int64
}

// HistogramData returns a snapshot of the named histogram.
func (s *Stats) HistogramData(h Histogram) HistogramSnapshot {
	hist := &s.hists[h]
	hist.mu.Lock()
	defer hist.mu.Unlock()
	return HistogramSnapshot{
		Count: hist.h.TotalCount(),
		Mean:  hist.h.Mean(),
		Max:   hist.h.Max(),
		P50:   hist.h.ValueAtQuantile(50),
		P99:   hist.h.ValueAtQuantile(99),
	}
}
