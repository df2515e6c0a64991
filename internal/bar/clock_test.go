package bar

import (
	"sort"
	"sync"
	"time"
)

// manualClock separates elapsed time (which drives timers, like the runtime's
// monotonic clock) from a wall clock skew that tests can jump.
type manualClock struct {
	mu     sync.Mutex
	base   time.Time
	mono   time.Duration
	skew   time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	due     time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newManualClock(base time.Time) *manualClock {
	return &manualClock{base: base}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.mono + c.skew)
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t := &manualTimer{clock: c, due: c.mono + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves elapsed time forward by d, firing due timers in order on the
// calling goroutine.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.mono + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			if c.mono < target {
				c.mono = target
			}
			c.mu.Unlock()
			return
		}
		next.fired = true
		if c.mono < next.due {
			c.mono = next.due
		}
		c.mu.Unlock()
		next.f()
	}
}

// Sleep moves elapsed time forward without firing timers, as a slow callback would.
func (c *manualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mono += d
}

// Jump shifts the wall clock only, as an NTP or operator adjustment would.
func (c *manualClock) Jump(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skew += d
}

// Pending returns the wall clock instants at which active timers fire.
func (c *manualClock) Pending() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Time
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, c.base.Add(t.due+c.skew))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (c *manualClock) nextDueLocked(target time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range c.timers {
		if t.stopped || t.fired || t.due > target {
			continue
		}
		if next == nil || t.due < next.due {
			next = t
		}
	}
	return next
}
