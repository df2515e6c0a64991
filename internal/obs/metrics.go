package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for one bar pipeline.
type Metrics struct {
	ticks            uint64
	invalidTicks     uint64
	bars             uint64
	emptyBars        uint64
	sinkFailures     uint64
	queueDrops       uint64
	clockAnomalies   uint64
	irregularWindows uint64

	boundaryLag LatencyStats
	sinkLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Ticks            uint64
	InvalidTicks     uint64
	Bars             uint64
	EmptyBars        uint64
	SinkFailures     uint64
	QueueDrops       uint64
	ClockAnomalies   uint64
	IrregularWindows uint64
	BoundaryLag      LatencySnapshot
	SinkLatency      LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncTick records a tick applied to an accumulator.
func (m *Metrics) IncTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticks, 1)
}

// IncInvalidTick records a tick rejected by a feed.
func (m *Metrics) IncInvalidTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.invalidTicks, 1)
}

// IncBar records an emitted bar.
func (m *Metrics) IncBar(empty bool) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.bars, 1)
	if empty {
		atomic.AddUint64(&m.emptyBars, 1)
	}
}

// IncSinkFailure records a bar the sink did not accept.
func (m *Metrics) IncSinkFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sinkFailures, 1)
}

// IncQueueDrop records a bar dropped by a full async queue.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncClockAnomaly records a boundary that fired while the wall clock was
// behind the open window.
func (m *Metrics) IncClockAnomaly() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.clockAnomalies, 1)
}

// IncIrregularWindow records a bar whose width differs from the interval.
func (m *Metrics) IncIrregularWindow() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.irregularWindows, 1)
}

// ObserveBoundaryLag measures how late a boundary fired after its wall clock mark.
func (m *Metrics) ObserveBoundaryLag(d time.Duration) {
	if m == nil {
		return
	}
	m.boundaryLag.Observe(d)
}

// ObserveSink measures one sink delivery.
func (m *Metrics) ObserveSink(d time.Duration) {
	if m == nil {
		return
	}
	m.sinkLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Ticks:            atomic.LoadUint64(&m.ticks),
		InvalidTicks:     atomic.LoadUint64(&m.invalidTicks),
		Bars:             atomic.LoadUint64(&m.bars),
		EmptyBars:        atomic.LoadUint64(&m.emptyBars),
		SinkFailures:     atomic.LoadUint64(&m.sinkFailures),
		QueueDrops:       atomic.LoadUint64(&m.queueDrops),
		ClockAnomalies:   atomic.LoadUint64(&m.clockAnomalies),
		IrregularWindows: atomic.LoadUint64(&m.irregularWindows),
		BoundaryLag:      m.boundaryLag.Snapshot(),
		SinkLatency:      m.sinkLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns a point-in-time view of the stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
