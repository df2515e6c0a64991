package bar

import (
	"context"
	"sync"
	"time"

	"tickbar/internal/model"
	"tickbar/internal/obs"
	"tickbar/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const defaultInterval = time.Minute

// Sink receives every finalized bar, synchronously, in window order.
type Sink interface {
	Emit(ctx context.Context, bar model.Bar) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, bar model.Bar) error

func (f SinkFunc) Emit(ctx context.Context, bar model.Bar) error {
	return f(ctx, bar)
}

// Status is the scheduler lifecycle state.
type Status uint8

const (
	StatusIdle Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Option configures a Scheduler.
type Option struct {
	Symbol   string
	Interval time.Duration
	Clock    Clock
	Metrics  *obs.Metrics

	// Trace logs the running VWAP on every tick.
	Trace bool
	// FlushOnStop emits the partial in-progress window on Stop, including
	// the stop triggered by the context passed to Start.
	FlushOnStop bool
}

func (opt Option) withDefaults() Option {
	if opt.Interval == 0 {
		opt.Interval = defaultInterval
	}
	if opt.Clock == nil {
		opt.Clock = SystemClock{}
	}
	return opt
}

// Scheduler feeds ticks into an Accumulator and closes a bar at every
// wall clock multiple of the interval.
//
// Ticks and timer callbacks arrive on different goroutines. mu guards the
// accumulator and the lifecycle so a boundary always lands strictly between
// two ticks. emitMu serializes deliveries so Stop can wait for the one in flight.
type Scheduler struct {
	opt  Option
	sink Sink

	emitMu sync.Mutex

	mu          sync.Mutex
	acc         *Accumulator
	status      Status
	timer       Timer
	target      time.Time
	windowStart time.Time
	seq         uint64
	anomalous   bool
	ctx         context.Context
	done        chan struct{}
}

// NewScheduler creates an idle scheduler delivering bars to sink.
func NewScheduler(sink Sink, opt Option) (*Scheduler, error) {
	if sink == nil {
		return nil, exception.ErrNilSink
	}
	opt = opt.withDefaults()
	if opt.Interval < 0 {
		return nil, errors.Wrapf(exception.ErrInvalidInterval, "interval: %s", opt.Interval)
	}
	return &Scheduler{
		opt:  opt,
		sink: sink,
		acc:  NewAccumulator(),
		ctx:  context.Background(),
		done: make(chan struct{}),
	}, nil
}

// Interval returns the bar width.
func (s *Scheduler) Interval() time.Duration {
	return s.opt.Interval
}

// Status returns the lifecycle state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start opens the first window at the current interval multiple and arms the
// first boundary. The scheduler stops on its own once ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case StatusRunning:
		s.mu.Unlock()
		return exception.ErrSchedulerStarted
	case StatusStopped:
		s.mu.Unlock()
		return exception.ErrSchedulerStopped
	}

	s.status = StatusRunning
	s.ctx = ctx
	now := s.opt.Clock.Now()
	s.windowStart = FloorBoundary(now, s.opt.Interval)
	s.armLocked(now)
	target := s.target
	s.mu.Unlock()

	logs.Infof("bar scheduler started, symbol: %s, interval: %s, first boundary: %s",
		s.opt.Symbol, s.opt.Interval, target.Format(time.RFC3339))

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	return nil
}

// OnTick applies one tick to the open window. Ticks outside the running
// state are ignored.
func (s *Scheduler) OnTick(tick model.Tick) {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	s.acc.Update(tick)
	var vwap string
	if s.opt.Trace {
		vwap = model.FormatNull(s.acc.VWAP())
	}
	s.mu.Unlock()

	s.opt.Metrics.IncTick()
	if s.opt.Trace {
		logs.Infof("tick %s price: %s, size: %s, VWAP: %s", s.opt.Symbol, tick.Price, tick.Size, vwap)
	}
}

// Current returns what the open window would look like if it closed now.
func (s *Scheduler) Current() model.Bar {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.acc.Peek(s.windowStart, s.opt.Clock.Now())
	b.Symbol = s.opt.Symbol
	return b
}

// State returns a copy of the open window counters and the carried price.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.State()
}

// Flush closes the open window early at the current instant and delivers it.
// The next window starts where the flushed one ended.
func (s *Scheduler) Flush() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}
	now := s.opt.Clock.Now()
	if !now.After(s.windowStart) {
		s.mu.Unlock()
		return
	}
	b := s.closeWindowLocked(now)
	ctx := s.ctx
	s.mu.Unlock()

	s.deliver(ctx, b)
}

// Stop cancels the armed boundary and waits for an in-flight delivery.
// With FlushOnStop the partial window is delivered before Stop returns.
// After Stop returns no bar is emitted and no tick is applied.
// It must not be called from inside a Sink.
func (s *Scheduler) Stop() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.status == StatusStopped {
		s.mu.Unlock()
		return
	}
	wasRunning := s.status == StatusRunning
	s.status = StatusStopped
	close(s.done)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	var (
		partial model.Bar
		flush   bool
	)
	if wasRunning && s.opt.FlushOnStop {
		if now := s.opt.Clock.Now(); now.After(s.windowStart) {
			partial = s.closeWindowLocked(now)
			flush = true
		}
	}
	ctx, seq := s.ctx, s.seq
	s.mu.Unlock()

	if flush {
		s.deliver(ctx, partial)
	}

	logs.Infof("bar scheduler stopped, symbol: %s, bars: %d", s.opt.Symbol, seq)
}

func (s *Scheduler) onBoundary() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return
	}

	now := s.opt.Clock.Now()
	end := FloorBoundary(now, s.opt.Interval)
	if !end.After(s.windowStart) {
		// one count and one warning per episode, however many firings it spans
		if !s.anomalous {
			s.anomalous = true
			s.opt.Metrics.IncClockAnomaly()
			logs.Warnf("%+v, symbol: %s, now: %s, window start: %s",
				exception.ErrClockAnomaly, s.opt.Symbol, now.Format(time.RFC3339Nano), s.windowStart.Format(time.RFC3339))
		}
		s.armLocked(now)
		s.mu.Unlock()
		return
	}
	if s.anomalous {
		s.anomalous = false
		logs.Infof("wall clock caught up with open window, symbol: %s, window start: %s",
			s.opt.Symbol, s.windowStart.Format(time.RFC3339))
	}

	s.opt.Metrics.ObserveBoundaryLag(now.Sub(s.target))
	b := s.closeWindowLocked(end)
	ctx := s.ctx
	s.mu.Unlock()

	s.deliver(ctx, b)

	s.mu.Lock()
	if s.status == StatusRunning {
		s.armLocked(s.opt.Clock.Now())
	}
	s.mu.Unlock()
}

func (s *Scheduler) closeWindowLocked(end time.Time) model.Bar {
	b := s.acc.SnapshotAndReset(s.windowStart, end)
	s.seq++
	b.Seq = s.seq
	b.Symbol = s.opt.Symbol
	s.windowStart = end
	return b
}

// armLocked schedules the next boundary from a fresh clock reading, never by
// adding the interval to the previous target, so late callbacks do not drift.
func (s *Scheduler) armLocked(now time.Time) {
	s.target = NextBoundary(now, s.opt.Interval)
	s.timer = s.opt.Clock.AfterFunc(s.target.Sub(now), s.onBoundary)
}

func (s *Scheduler) deliver(ctx context.Context, b model.Bar) {
	s.opt.Metrics.IncBar(b.Empty())
	if b.Irregular(s.opt.Interval) {
		s.opt.Metrics.IncIrregularWindow()
		logs.Warnf("irregular bar window, symbol: %s, seq: %d, width: %s, interval: %s",
			b.Symbol, b.Seq, b.Width(), s.opt.Interval)
	}

	began := time.Now()
	err := s.emit(ctx, b)
	s.opt.Metrics.ObserveSink(time.Since(began))
	if err != nil {
		s.opt.Metrics.IncSinkFailure()
		logs.Errorf("%+v", errors.Wrap(err, exception.ErrSinkDelivery.Error()).With("symbol", b.Symbol).With("seq", b.Seq))
	}
}

func (s *Scheduler) emit(ctx context.Context, b model.Bar) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("sink panic: %v", r)
		}
	}()

	return s.sink.Emit(ctx, b)
}
