// Copyright 2024 The Driftwood Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes a Stats through the prometheus registry. Tickers become
// counters; histograms become summaries with p50/p99 quantiles.
type Collector struct {
	stats        *Stats
	tickerDescs  [NumTickers]*prometheus.Desc
	histDescs    [NumHistograms]*prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector over stats. The namespace prefixes every
// exported metric name.
func NewCollector(namespace string, stats *Stats) *Collector {
	c := &Collector{stats: stats}
	for t := Ticker(0); t < NumTickers; t++ {
		c.tickerDescs[t] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", promName(t.String())+"_total"),
			t.String(), nil, nil)
	}
	for h := Histogram(0); h < NumHistograms; h++ {
		c.histDescs[h] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", promName(h.String())),
			h.String(), nil, nil)
	}
	return c
}

func promName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.tickerDescs {
		ch <- d
	}
	for _, d := range c.histDescs {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for t := Ticker(0); t < NumTickers; t++ {
		ch <- prometheus.MustNewConstMetric(
			c.tickerDescs[t], prometheus.CounterValue, float64(c.stats.TickerCount(t)))
	}
	for h := Histogram(0); h < NumHistograms; h++ {
		snap := c.stats.HistogramData(h)
		ch <- prometheus.MustNewConstSummary(
			c.histDescs[h], uint64(snap.Count), snap.Mean*float64(snap.Count),
			map[float64]float64{
				0.5:  float64(snap.P50),
				0.99: float64(snap.P99),
			})
	}
}
