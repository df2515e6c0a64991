package sink

import (
	"context"
	"sync"

	"tickbar/internal/bar"
	"tickbar/internal/model"
	"tickbar/internal/obs"
	"tickbar/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Async hands bars to a slower sink through a bounded, non-blocking queue,
// so network or disk latency never holds up a boundary. A full queue is a
// delivery failure for the bar that did not fit.
type Async struct {
	name    string
	next    bar.Sink
	metrics *obs.Metrics

	mu     sync.RWMutex
	ch     chan model.Bar
	closed bool

	wg sync.WaitGroup
}

// NewAsync allocates a queue with the given capacity in front of next.
func NewAsync(name string, next bar.Sink, capacity int, metrics *obs.Metrics) *Async {
	if capacity <= 0 {
		capacity = 1
	}
	return &Async{
		name:    name,
		next:    next,
		metrics: metrics,
		ch:      make(chan model.Bar, capacity),
	}
}

// Start runs the delivery loop in a new goroutine. Deliveries keep ctx values
// but outlive its cancellation so Close can drain the queue.
func (a *Async) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.run(ctx)
	}()
}

// Emit enqueues a bar without blocking.
func (a *Async) Emit(_ context.Context, b model.Bar) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return exception.ErrSinkClosed
	}
	select {
	case a.ch <- b:
		return nil
	default:
		a.metrics.IncQueueDrop()
		return errors.Wrap(exception.ErrQueueFull, a.name).With("seq", b.Seq)
	}
}

// Len returns the number of queued bars.
func (a *Async) Len() int {
	return len(a.ch)
}

// Close stops accepting bars, waits for the queue to drain and closes next.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()

	a.wg.Wait()
	if c, ok := a.next.(closer); ok {
		return c.Close()
	}
	return nil
}

func (a *Async) run(ctx context.Context) {
	for b := range a.ch {
		if err := a.next.Emit(ctx, b); err != nil {
			a.metrics.IncSinkFailure()
			logs.Errorf("%+v", errors.Wrap(err, exception.ErrSinkDelivery.Error()).With("sink", a.name).With("seq", b.Seq))
		}
	}
}
