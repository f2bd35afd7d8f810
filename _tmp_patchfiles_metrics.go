package tinyweb

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the request-latency histogram boundaries in
// nanoseconds, adapted from the teacher's LatencyBuckets (metrics.go),
// spaced for HTTP request/response turnaround rather than block I/O.
var LatencyBuckets = []uint64{
	100_000,        // 100us
	1_000_000,      // 1ms
	5_000_000,      // 5ms
	10_000_000,     // 10ms
	50_000_000,     // 50ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks connection and request statistics for one Server.
type Metrics struct {
	ConnectionsAccepted atomic.Uint64
	ConnectionsClosed   atomic.Uint64

	RequestsTotal  atomic.Uint64
	RequestErrors  atomic.Uint64
	BytesRead      atomic.Uint64
	BytesWritten   atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a Metrics instance stamped with the current time as
// its start time.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordAccept records a newly accepted connection.
func (m *Metrics) RecordAccept() {
	m.ConnectionsAccepted.Add(1)
}

// RecordClose records a connection closing.
func (m *Metrics) RecordClose() {
	m.ConnectionsClosed.Add(1)
}

// RecordRequest records one fully processed request: bytes read from the
// socket, bytes written back, how long processing took, and whether it
// completed successfully.
func (m *Metrics) RecordRequest(bytesRead, bytesWritten uint64, latencyNs uint64, success bool) {
	m.RequestsTotal.Add(1)
	m.BytesRead.Add(bytesRead)
	m.BytesWritten.Add(bytesWritten)
	if !success {
		m.RequestErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop stamps the metrics instance's stop time, fixing Snapshot's uptime
// calculation going forward.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived rates
// computed, adapted from the teacher's MetricsSnapshot.
type MetricsSnapshot struct {
	ConnectionsAccepted uint64
	ConnectionsClosed   uint64

	RequestsTotal uint64
	RequestErrors uint64
	BytesRead     uint64
	BytesWritten  uint64

	AvgLatencyNs uint64
	UptimeNs     uint64
	RequestsRPS  float64
	ErrorRate    float64

	LatencyHistogram [numLatencyBuckets]uint64
}

// Snapshot computes a MetricsSnapshot from the live counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ConnectionsAccepted: m.ConnectionsAccepted.Load(),
		ConnectionsClosed:   m.ConnectionsClosed.Load(),
		RequestsTotal:       m.RequestsTotal.Load(),
		RequestErrors:       m.RequestErrors.Load(),
		BytesRead:           m.BytesRead.Load(),
		BytesWritten:        m.BytesWritten.Load(),
	}

	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}

	start := m.StartTime.Load()
	stop := m.StopTime.Load()
	if stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	if snap.UptimeNs > 0 {
		seconds := float64(snap.UptimeNs) / 1e9
		snap.RequestsRPS = float64(snap.RequestsTotal) / seconds
	}
	if snap.RequestsTotal > 0 {
		snap.ErrorRate = float64(snap.RequestErrors) / float64(snap.RequestsTotal) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	return snap
}

// Observer receives server lifecycle and request events, adapted from the
// teacher's internal/interfaces.Observer so a caller can wire in a custom
// metrics backend instead of the built-in Metrics.
type Observer interface {
	ObserveAccept(fd int)
	ObserveClose(fd int)
	ObserveRequest(bytesRead, bytesWritten uint64, latencyNs uint64, success bool)
}

// NoOpObserver implements Observer by discarding every event.
type NoOpObserver struct{}

func (NoOpObserver) ObserveAccept(int)                                   {}
func (NoOpObserver) ObserveClose(int)                                    {}
func (NoOpObserver) ObserveRequest(uint64, uint64, uint64, bool) {}

// MetricsObserver adapts a *Metrics to the Observer interface.
type MetricsObserver struct {
	Metrics *Metrics
}

// NewMetricsObserver wraps m as an Observer.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{Metrics: m}
}

func (o *MetricsObserver) ObserveAccept(int) { o.Metrics.RecordAccept() }
func (o *MetricsObserver) ObserveClose(int)  { o.Metrics.RecordClose() }
func (o *MetricsObserver) ObserveRequest(bytesRead, bytesWritten uint64, latencyNs uint64, success bool) {
	o.Metrics.RecordRequest(bytesRead, bytesWritten, latencyNs, success)
}


