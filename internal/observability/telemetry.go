package observability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Metric is one counter sample bound for the external collector.
type Metric struct {
	Prefix string
	Tag    string
	Name   string
	Value  float64
}

// Sink receives flushed metrics. Push failures must be tolerated by
// callers; telemetry never fails a user-facing request.
type Sink interface {
	Push(ctx context.Context, metrics []Metric) error
}

// NopSink discards metrics.
type NopSink struct{}

// Push implements Sink.
func (NopSink) Push(context.Context, []Metric) error { return nil }

// Telemetry aggregates process-wide counters and pushes them to a sink
// on a fixed interval. Counters are reset on every flush, giving
// rate-over-interval semantics; the active-session gauge is reported
// as-is. It is injectable with an explicit Start/Flush/Stop lifecycle
// rather than living as a package singleton.
type Telemetry struct {
	mu        sync.Mutex
	requests  map[string]int64
	auth      map[bool]int64
	sessions  int64
	sold      int64
	failures  map[string]int64
	errors    map[string]int64
	revenue   float64
	latencies map[string]latencySample

	sink     Sink
	interval time.Duration
	logger   *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

type latencySample struct {
	total time.Duration
	count int64
}

// NewTelemetry builds an emitter flushing to the sink at the interval.
func NewTelemetry(sink Sink, interval time.Duration, logger *zap.Logger) *Telemetry {
	if sink == nil {
		sink = NopSink{}
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Telemetry{
		requests:  make(map[string]int64),
		auth:      make(map[bool]int64),
		failures:  make(map[string]int64),
		errors:    make(map[string]int64),
		latencies: make(map[string]latencySample),
		sink:      sink,
		interval:  interval,
		logger:    logger,
	}
}

// Start launches the periodic flush loop.
func (t *Telemetry) Start() {
	if t.stopCh != nil {
		return
	}
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		defer close(t.doneCh)
		for {
			select {
			case <-ticker.C:
				t.Flush(context.Background())
			case <-t.stopCh:
				return
			}
		}
	}()
}

// Stop halts the flush loop and performs a final flush.
func (t *Telemetry) Stop() {
	if t.stopCh == nil {
		return
	}
	close(t.stopCh)
	<-t.doneCh
	t.stopCh = nil
	t.Flush(context.Background())
}

// RecordRequest counts one request for the HTTP method.
func (t *Telemetry) RecordRequest(method string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.requests[method]++
	t.mu.Unlock()
}

// RecordAuth counts an authentication or authorization attempt.
func (t *Telemetry) RecordAuth(success bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.auth[success]++
	t.mu.Unlock()
}

// SessionOpened bumps the active-session gauge.
func (t *Telemetry) SessionOpened() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.sessions++
	t.mu.Unlock()
}

// SessionClosed drops the active-session gauge.
func (t *Telemetry) SessionClosed() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.sessions > 0 {
		t.sessions--
	}
	t.mu.Unlock()
}

// RecordSale counts one sold item and accumulates its revenue.
func (t *Telemetry) RecordSale(price float64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.sold++
	t.revenue += price
	t.mu.Unlock()
}

// RecordOrderFailure counts a fulfillment failure tagged by reason.
func (t *Telemetry) RecordOrderFailure(reason string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.failures[reason]++
	t.mu.Unlock()
}

// RecordError counts an error response by its taxonomy code.
func (t *Telemetry) RecordError(code string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.errors[code]++
	t.mu.Unlock()
}

// RecordLatency accumulates a latency sample for the named operation.
func (t *Telemetry) RecordLatency(operation string, d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	sample := t.latencies[operation]
	sample.total += d
	sample.count++
	t.latencies[operation] = sample
	t.mu.Unlock()
}

// Flush snapshots and resets the counters, then pushes them. Sink
// failures are swallowed and logged.
func (t *Telemetry) Flush(ctx context.Context) {
	if t == nil {
		return
	}
	metrics := t.drain()
	if len(metrics) == 0 {
		return
	}
	if err := t.sink.Push(ctx, metrics); err != nil && t.logger != nil {
		t.logger.Warn("telemetry push failed", zap.Error(err))
	}
}

func (t *Telemetry) drain() []Metric {
	t.mu.Lock()
	defer t.mu.Unlock()

	metrics := make([]Metric, 0, len(t.requests)+len(t.failures)+len(t.latencies)+8)

	for method, count := range t.requests {
		metrics = append(metrics, Metric{Prefix: "request", Tag: method, Name: "total", Value: float64(count)})
	}
	if count := t.auth[true]; count > 0 {
		metrics = append(metrics, Metric{Prefix: "auth", Tag: "success", Name: "total", Value: float64(count)})
	}
	if count := t.auth[false]; count > 0 {
		metrics = append(metrics, Metric{Prefix: "auth", Tag: "failure", Name: "total", Value: float64(count)})
	}
	metrics = append(metrics, Metric{Prefix: "session", Tag: "active", Name: "count", Value: float64(t.sessions)})
	if t.sold > 0 {
		metrics = append(metrics, Metric{Prefix: "pizza", Tag: "sold", Name: "total", Value: float64(t.sold)})
	}
	if t.revenue > 0 {
		metrics = append(metrics, Metric{Prefix: "pizza", Tag: "revenue", Name: "total", Value: t.revenue})
	}
	for reason, count := range t.failures {
		metrics = append(metrics, Metric{Prefix: "pizza", Tag: reason, Name: "failures", Value: float64(count)})
	}
	for code, count := range t.errors {
		metrics = append(metrics, Metric{Prefix: "error", Tag: code, Name: "total", Value: float64(count)})
	}
	for operation, sample := range t.latencies {
		if sample.count == 0 {
			continue
		}
		avg := float64(sample.total.Milliseconds()) / float64(sample.count)
		metrics = append(metrics, Metric{Prefix: "latency", Tag: operation, Name: "response_time", Value: avg})
	}

	t.requests = make(map[string]int64)
	t.auth = make(map[bool]int64)
	t.sold = 0
	t.revenue = 0
	t.failures = make(map[string]int64)
	t.errors = make(map[string]int64)
	t.latencies = make(map[string]latencySample)

	return metrics
}
