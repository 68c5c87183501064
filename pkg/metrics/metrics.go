// Package metrics exposes Prometheus metrics for container encode and decode runs
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the codec
type Metrics struct {
	registry *prometheus.Registry

	// Operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec

	// Layer metrics
	layersTotal       *prometheus.CounterVec
	layerRegionBytes  *prometheus.HistogramVec
	anchorVotes       prometheus.Histogram
	correctedSymbols  prometheus.Counter
	codewordsRepaired prometheus.Counter

	// Locator metrics
	blocksLocated  *prometheus.CounterVec
	scannedBytes   prometheus.Counter
	failuresByKind *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith(reg)
	m.registry = reg
	return m
}

// NewMetricsWith creates all metrics and registers them on reg
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rrc_operations_total",
				Help: "Total number of codec operations",
			},
			[]string{"operation", "status"},
		),

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rrc_operation_duration_seconds",
				Help:    "Codec operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rrc_payload_bytes_total",
				Help: "Total payload bytes encoded or recovered",
			},
			[]string{"operation"},
		),

		layersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rrc_layers_total",
				Help: "Total number of layers written or decoded",
			},
			[]string{"operation"},
		),

		layerRegionBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rrc_layer_region_bytes",
				Help:    "Size of protected layer regions in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 8, 8),
			},
			[]string{"operation"},
		),

		anchorVotes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rrc_anchor_votes",
				Help:    "Intact anchor copies found for the winning root remnant",
				Buckets: prometheus.LinearBuckets(0, 4, 9),
			},
		),

		correctedSymbols: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rrc_corrected_symbols_total",
				Help: "Total number of symbols repaired by error correction",
			},
		),

		codewordsRepaired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rrc_codewords_repaired_total",
				Help: "Total number of codewords that needed correction",
			},
		),

		blocksLocated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rrc_blocks_total",
				Help: "Positioning blocks by how the decoder placed them",
			},
			[]string{"result"},
		),

		scannedBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rrc_locator_scanned_bytes_total",
				Help: "Total bytes scanned by the rolling hash locator",
			},
		),

		failuresByKind: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rrc_failures_total",
				Help: "Failed operations by error kind",
			},
			[]string{"kind"},
		),
	}
}

// Registry returns the registry created by NewMetrics, or nil when the
// metrics were registered on a caller supplied registerer
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOperation records a completed encode, decode, verify or strip run
func (m *Metrics) RecordOperation(operation string, success bool, payloadBytes int64, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if success {
		m.bytesTotal.WithLabelValues(operation).Add(float64(payloadBytes))
	}
}

// RecordLayer records one layer written or decoded
func (m *Metrics) RecordLayer(operation string, regionBytes int64) {
	m.layersTotal.WithLabelValues(operation).Inc()
	m.layerRegionBytes.WithLabelValues(operation).Observe(float64(regionBytes))
}

// RecordAnchor records the vote count of a recovered anchor
func (m *Metrics) RecordAnchor(votes int) {
	m.anchorVotes.Observe(float64(votes))
}

// RecordCorrection records the result of error correcting one layer
func (m *Metrics) RecordCorrection(symbols, codewords int) {
	m.correctedSymbols.Add(float64(symbols))
	m.codewordsRepaired.Add(float64(codewords))
}

// RecordBlocks records how a layer's blocks were placed
func (m *Metrics) RecordBlocks(located, verified, unlocated int, scanned int64) {
	m.blocksLocated.WithLabelValues("located").Add(float64(located))
	m.blocksLocated.WithLabelValues("verified").Add(float64(verified))
	m.blocksLocated.WithLabelValues("unlocated").Add(float64(unlocated))
	m.scannedBytes.Add(float64(scanned))
}

// RecordFailure records a failed operation by error kind
func (m *Metrics) RecordFailure(kind string) {
	m.failuresByKind.WithLabelValues(kind).Inc()
}

// WriteTextfile writes the registry in the node exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m.registry == nil {
		return fmt.Errorf("metrics were not created with their own registry")
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
