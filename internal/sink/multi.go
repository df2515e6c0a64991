package sink

import (
	"context"

	"tickbar/internal/bar"
	"tickbar/internal/model"

	"github.com/yanun0323/errors"
)

type closer interface {
	Close() error
}

// Multi delivers every bar to each sink in order. One failing sink does not
// keep the others from receiving the bar.
type Multi struct {
	sinks []bar.Sink
}

func NewMulti(sinks ...bar.Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Emit(ctx context.Context, b model.Bar) error {
	var (
		first  error
		failed int
	)
	for _, s := range m.sinks {
		if err := s.Emit(ctx, b); err != nil {
			failed++
			if first == nil {
				first = err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return errors.Wrapf(first, "%d of %d sinks failed", failed, len(m.sinks))
}

// Close closes every sink and returns the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		c, ok := s.(closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}
