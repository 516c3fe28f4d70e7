// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package metrics provides observability for a SNZI tree without perturbing
// its hot path.
//
// Arrive, Depart and Query are lock-free and latency-sensitive; none of
// them may block on a mutex or a full channel to report what they did.
// Metrics collection therefore follows the same shape as the event
// recording used elsewhere in this codebase: callers push a MetricEvent
// onto a buffered channel with a non-blocking send, and a single
// background goroutine drains the channel and updates the bounded
// counters and ring buffers that GetStats reads back.
//
// # Key Features
//
//   - Non-blocking event recording from Arrive/Depart/Query call sites
//   - Latency ring buffers per operation, bounded regardless of call volume
//   - Contention counters: root CAS failures, tree-dispatch latches,
//     announce suppressions
//
// # Usage Examples
//
//	m := metrics.NewMetrics()
//	defer m.Close()
//
//	start := time.Now()
//	tree.Arrive(tid)
//	m.RecordArrive(time.Since(start))
//
//	stats := m.GetStats()
//	fmt.Printf("arrive p99: %s\n", stats.Latency.Arrive.P99)
//
// # Dangers and Warnings
//
//   - Close() must be called to stop the background goroutine; a Metrics
//     value left open leaks a goroutine for the life of the process.
//   - Under sustained event volume exceeding BufferSize, events are
//     dropped rather than blocking the caller.
package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// LatencyStats summarizes a ring buffer of recorded durations.
type LatencyStats struct {
	Count uint64        `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	P999  time.Duration `json:"p999"`
}

// OperationCounts tracks how many times each SNZI operation completed.
type OperationCounts struct {
	Arrive uint64 `json:"arrive"`
	Depart uint64 `json:"depart"`
	Query  uint64 `json:"query"`
}

// ContentionCounts tracks the frequency of the contention-handling events
// described in spec §4.4-§4.5: announce-bit suppressions, root CAS
// failures on the direct path, and the one-way latch to tree dispatch.
type ContentionCounts struct {
	AnnounceSuppressions uint64 `json:"announce_suppressions"`
	RootCASFailures      uint64 `json:"root_cas_failures"`
	TreeDispatchLatches  uint64 `json:"tree_dispatch_latches"`
}

// LatencyMetrics tracks latency data for all three SNZI operations.
type LatencyMetrics struct {
	Arrive LatencyStats `json:"arrive"`
	Depart LatencyStats `json:"depart"`
	Query  LatencyStats `json:"query"`
}

// MetricsSnapshot is a point-in-time copy of everything Metrics tracks.
type MetricsSnapshot struct {
	Operations    OperationCounts  `json:"operations"`
	Contention    ContentionCounts `json:"contention"`
	Latency       LatencyMetrics   `json:"latency"`
	Configuration MetricsConfig    `json:"config"`
}

// MetricEvent is a single recorded occurrence, queued for the background
// processor.
type MetricEvent struct {
	Type      string
	Duration  time.Duration
	Timestamp time.Time
}

// DurationRingBuffer is a thread-safe bounded ring buffer of time.Duration
// samples, used to keep latency history memory bounded regardless of how
// long a tree has been running.
type DurationRingBuffer struct {
	buffer []time.Duration
	head   int
	tail   int
	size   int
	count  int
	mu     sync.RWMutex
}

// NewDurationRingBuffer creates a ring buffer with the given capacity.
func NewDurationRingBuffer(capacity int) *DurationRingBuffer {
	return &DurationRingBuffer{
		buffer: make([]time.Duration, capacity),
		size:   capacity,
	}
}

// Push adds a sample to the ring buffer, overwriting the oldest sample
// once the buffer is full.
func (rb *DurationRingBuffer) Push(item time.Duration) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buffer[rb.tail] = item
	rb.tail = (rb.tail + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	} else {
		rb.head = (rb.head + 1) % rb.size
	}
}

// GetAverage returns the mean of the samples currently in the buffer.
func (rb *DurationRingBuffer) GetAverage() time.Duration {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.count == 0 {
		return 0
	}

	var total time.Duration
	for i := 0; i < rb.count; i++ {
		idx := (rb.head + i) % rb.size
		total += rb.buffer[idx]
	}

	return total / time.Duration(rb.count)
}

// GetStats computes min/max/mean and percentile statistics over the
// samples currently in the buffer.
func (rb *DurationRingBuffer) GetStats() LatencyStats {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.count == 0 {
		return LatencyStats{}
	}

	values := make([]time.Duration, rb.count)
	for i := 0; i < rb.count; i++ {
		idx := (rb.head + i) % rb.size
		values[i] = rb.buffer[idx]
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	stats := LatencyStats{
		Count: uint64(rb.count),
		Min:   values[0],
		Max:   values[rb.count-1],
	}

	var total time.Duration
	for _, v := range values {
		total += v
	}
	stats.Mean = total / time.Duration(rb.count)

	stats.P50 = rb.percentile(values, 0.50)
	stats.P95 = rb.percentile(values, 0.95)
	stats.P99 = rb.percentile(values, 0.99)
	stats.P999 = rb.percentile(values, 0.999)

	return stats
}

func (rb *DurationRingBuffer) percentile(values []time.Duration, p float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	index := int(float64(len(values)-1) * p)
	if index >= len(values) {
		index = len(values) - 1
	}
	return values[index]
}

// MetricsConfig configures event buffering and latency ring buffer sizes.
type MetricsConfig struct {
	BufferSize     int            // Size of event buffer
	LatencyBuffers map[string]int // Per-operation ring buffer sizes
}

// DefaultMetricsConfig returns a configuration sized for a moderately
// contended benchmark run.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		BufferSize: 10000,
		LatencyBuffers: map[string]int{
			"arrive": 1000,
			"depart": 1000,
			"query":  1000,
		},
	}
}

// Metrics collects SNZI operation counts, latencies and contention events
// using a buffered channel and a background processing goroutine, so that
// Arrive/Depart/Query never block on recording.
type Metrics struct {
	config MetricsConfig

	eventChan chan MetricEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.RWMutex

	ArriveCount uint64
	DepartCount uint64
	QueryCount  uint64

	ArriveLatency *DurationRingBuffer
	DepartLatency *DurationRingBuffer
	QueryLatency  *DurationRingBuffer

	AnnounceSuppressions uint64
	RootCASFailures      uint64
	TreeDispatchLatches  uint64
}

// NewMetrics creates a Metrics instance with the default configuration.
func NewMetrics() *Metrics {
	return NewMetricsWithConfig(DefaultMetricsConfig())
}

// NewBufferedMetrics creates a Metrics instance with a custom event buffer
// size and otherwise default latency buffer sizes.
func NewBufferedMetrics(bufferSize int) *Metrics {
	config := DefaultMetricsConfig()
	config.BufferSize = bufferSize
	return NewMetricsWithConfig(config)
}

// NewMetricsWithConfig creates a Metrics instance with a fully custom
// configuration and starts its background processing goroutine.
func NewMetricsWithConfig(config MetricsConfig) *Metrics {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Metrics{
		config:        config,
		eventChan:     make(chan MetricEvent, config.BufferSize),
		ctx:           ctx,
		cancel:        cancel,
		ArriveLatency: NewDurationRingBuffer(config.LatencyBuffers["arrive"]),
		DepartLatency: NewDurationRingBuffer(config.LatencyBuffers["depart"]),
		QueryLatency:  NewDurationRingBuffer(config.LatencyBuffers["query"]),
	}

	m.wg.Add(1)
	go m.processEvents()

	return m
}

func (m *Metrics) processEvents() {
	defer m.wg.Done()

	for {
		select {
		case event := <-m.eventChan:
			m.processEvent(event)
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Metrics) processEvent(event MetricEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event.Type {
	case "arrive":
		m.ArriveCount++
		m.ArriveLatency.Push(event.Duration)
	case "depart":
		m.DepartCount++
		m.DepartLatency.Push(event.Duration)
	case "query":
		m.QueryCount++
		m.QueryLatency.Push(event.Duration)
	case "announce_suppression":
		m.AnnounceSuppressions++
	case "root_cas_failure":
		m.RootCASFailures++
	case "tree_dispatch_latch":
		m.TreeDispatchLatches++
	}
}

// RecordArrive records a completed Arrive call and its duration.
func (m *Metrics) RecordArrive(duration time.Duration) {
	select {
	case m.eventChan <- MetricEvent{Type: "arrive", Duration: duration, Timestamp: time.Now()}:
	default:
	}
}

// RecordDepart records a completed Depart call and its duration.
func (m *Metrics) RecordDepart(duration time.Duration) {
	select {
	case m.eventChan <- MetricEvent{Type: "depart", Duration: duration, Timestamp: time.Now()}:
	default:
	}
}

// RecordQuery records a completed Query call and its duration.
func (m *Metrics) RecordQuery(duration time.Duration) {
	select {
	case m.eventChan <- MetricEvent{Type: "query", Duration: duration, Timestamp: time.Now()}:
	default:
	}
}

// RecordAnnounceSuppression records that a semi-contention arrive observed
// an in-flight escalation and suppressed its own parent Arrive (spec §4.4,
// §8 scenario 6).
func (m *Metrics) RecordAnnounceSuppression() {
	select {
	case m.eventChan <- MetricEvent{Type: "announce_suppression", Timestamp: time.Now()}:
	default:
	}
}

// RecordRootCASFailure records one failed CAS attempt on a full-contention
// tree's direct root path (spec §4.5).
func (m *Metrics) RecordRootCASFailure() {
	select {
	case m.eventChan <- MetricEvent{Type: "root_cas_failure", Timestamp: time.Now()}:
	default:
	}
}

// RecordTreeDispatchLatch records a caller's one-way latch from the direct
// root path onto tree-based dispatch (spec §4.5, §8 scenario 5).
func (m *Metrics) RecordTreeDispatchLatch() {
	select {
	case m.eventChan <- MetricEvent{Type: "tree_dispatch_latch", Timestamp: time.Now()}:
	default:
	}
}

// GetStats returns a consistent snapshot of all tracked metrics.
func (m *Metrics) GetStats() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		Operations: OperationCounts{
			Arrive: m.ArriveCount,
			Depart: m.DepartCount,
			Query:  m.QueryCount,
		},
		Contention: ContentionCounts{
			AnnounceSuppressions: m.AnnounceSuppressions,
			RootCASFailures:      m.RootCASFailures,
			TreeDispatchLatches:  m.TreeDispatchLatches,
		},
		Latency: LatencyMetrics{
			Arrive: m.ArriveLatency.GetStats(),
			Depart: m.DepartLatency.GetStats(),
			Query:  m.QueryLatency.GetStats(),
		},
		Configuration: m.config,
	}
}

// Close stops the background processing goroutine. Further Record* calls
// after Close are silently dropped: the event channel is left open, so a
// late send never panics, and nothing processes it any more.
func (m *Metrics) Close() {
	m.cancel()
	m.wg.Wait()
}
