// metrics.go - Metrics collection for the mixer daemon
package main

import (
	"fmt"
	"sync"
	"time"
)

// MetricsCollector tracks counters, gauges and duration histograms for
// pool operations. Safe for concurrent use.
type MetricsCollector struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter increments a counter metric
func (mc *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[makeKey(name, labels)]++
}

// SetGauge sets a gauge metric value
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[name] = value
}

// RecordDuration records an operation duration in a histogram
func (mc *MetricsCollector) RecordDuration(name string, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	values := append(mc.histograms[name], d.Seconds())
	// Keep only last 1000 values for memory efficiency
	if len(values) > 1000 {
		values = values[len(values)-1000:]
	}
	mc.histograms[name] = values
}

// Summary returns a snapshot of all metrics for the /metrics endpoint
func (mc *MetricsCollector) Summary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	counters := make(map[string]int64, len(mc.counters))
	for k, v := range mc.counters {
		counters[k] = v
	}
	gauges := make(map[string]float64, len(mc.gauges))
	for k, v := range mc.gauges {
		gauges[k] = v
	}
	histograms := make(map[string]map[string]float64, len(mc.histograms))
	for k, values := range mc.histograms {
		if len(values) == 0 {
			continue
		}
		h := map[string]float64{
			"count": float64(len(values)),
			"min":   values[0],
			"max":   values[0],
			"sum":   0,
		}
		for _, v := range values {
			if v < h["min"] {
				h["min"] = v
			}
			if v > h["max"] {
				h["max"] = v
			}
			h["sum"] += v
		}
		h["avg"] = h["sum"] / h["count"]
		histograms[k] = h
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// makeKey creates a unique key for a metric name and labels
func makeKey(name string, labels map[string]string) string {
	key := name
	for k, v := range labels {
		key += fmt.Sprintf("_%s_%s", k, v)
	}
	return key
}

// Predefined metric names
const (
	MetricDepositCount     = "deposit_count"
	MetricWithdrawalCount  = "withdrawal_count"
	MetricRejectedCount    = "rejected_count"
	MetricRateLimitedCount = "rate_limited_count"
	MetricVerifyTime       = "proof_verify_time"
	MetricTreeLeafCount    = "tree_leaf_count"
)

// RecordDeposit records a successful deposit
func (mc *MetricsCollector) RecordDeposit(leafCount uint64) {
	mc.IncrementCounter(MetricDepositCount, nil)
	mc.SetGauge(MetricTreeLeafCount, float64(leafCount))
}

// RecordWithdrawal records a successful withdrawal
func (mc *MetricsCollector) RecordWithdrawal(verifyDuration time.Duration) {
	mc.IncrementCounter(MetricWithdrawalCount, nil)
	mc.RecordDuration(MetricVerifyTime, verifyDuration)
}

// RecordRejection records a rejected operation by error kind
func (mc *MetricsCollector) RecordRejection(kind string) {
	mc.IncrementCounter(MetricRejectedCount, map[string]string{"reason": kind})
}
