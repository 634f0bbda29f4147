package metrics

/*
rxtld — fetch and tidy the IANA list of top-level domains
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Line stages used as the "stage" label of LinesTotal.
const (
	StageFetched  = "fetched"
	StageStripped = "stripped"
	StageEmitted  = "emitted"
)

// Metrics contains the Prometheus metrics for a single rxtld run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Fetch metrics
	FetchDuration *prometheus.HistogramVec
	FetchTotal    *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	FetchBytes    *prometheus.GaugeVec

	// Pipeline metrics
	LinesTotal   *prometheus.CounterVec
	LastSuccess  prometheus.Gauge
	DocumentHash *prometheus.GaugeVec
}

// New creates the metrics for one run on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	reg := promauto.With(registry)
	buckets := []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

	return &Metrics{
		registry: registry,

		FetchDuration: reg.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rxtld_fetch_duration_seconds",
				Help:    "Time spent fetching the TLD list",
				Buckets: buckets,
			},
			[]string{"source"},
		),
		FetchTotal: reg.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxtld_fetch_total",
				Help: "Total number of TLD list fetches",
			},
			[]string{"source", "status"},
		),
		FetchErrors: reg.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxtld_fetch_errors_total",
				Help: "Total number of failed TLD list fetches by failure kind",
			},
			[]string{"source", "kind"},
		),
		FetchBytes: reg.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rxtld_fetch_bytes",
				Help: "Size of the last fetched TLD list body in bytes",
			},
			[]string{"source"},
		),
		LinesTotal: reg.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxtld_lines_total",
				Help: "Lines seen per pipeline stage",
			},
			[]string{"stage"},
		),
		LastSuccess: reg.NewGauge(
			prometheus.GaugeOpts{
				Name: "rxtld_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run",
			},
		),
		DocumentHash: reg.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rxtld_document_info",
				Help: "Always 1; the xxh3 label identifies the fetched list content",
			},
			[]string{"xxh3"},
		),
	}
}

// MeasureFetch starts timing a fetch from source and returns the func that stops it.
func (m *Metrics) MeasureFetch(source string) func() {
	if m == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		m.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
}

// RecordFetchSuccess counts a successful fetch of size bytes with the given digest.
func (m *Metrics) RecordFetchSuccess(source string, size int, digest uint64) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, "ok").Inc()
	m.FetchBytes.WithLabelValues(source).Set(float64(size))
	m.DocumentHash.Reset()
	m.DocumentHash.WithLabelValues(fmt.Sprintf("%016x", digest)).Set(1)
}

// RecordFetchFailure counts a failed fetch of the given failure kind.
func (m *Metrics) RecordFetchFailure(source, kind string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, "error").Inc()
	m.FetchErrors.WithLabelValues(source, kind).Inc()
}

// RecordLines adds n lines to the counter of stage.
func (m *Metrics) RecordLines(stage string, n int) {
	if m == nil {
		return
	}
	m.LinesTotal.WithLabelValues(stage).Add(float64(n))
}

// MarkSuccess stamps the last-success gauge with now.
func (m *Metrics) MarkSuccess(now time.Time) {
	if m == nil {
		return
	}
	m.LastSuccess.Set(float64(now.Unix()))
}

// WriteTextfile writes the current metrics to path in the Prometheus text format,
// suitable for the node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
