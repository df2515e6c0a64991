package exception

import "github.com/yanun0323/errors"

// Bar engine errors
var (
	ErrInvalidTick      = errors.New("bar: invalid tick")
	ErrInvalidInterval  = errors.New("bar: interval must be > 0")
	ErrNilSink          = errors.New("bar: nil sink")
	ErrSchedulerStarted = errors.New("bar: scheduler already started")
	ErrSchedulerStopped = errors.New("bar: scheduler stopped")
	ErrClockAnomaly     = errors.New("bar: wall clock behind open window")
)
