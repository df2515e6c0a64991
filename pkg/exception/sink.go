package exception

import "github.com/yanun0323/errors"

// Sink errors
var (
	ErrSinkDelivery = errors.New("sink: delivery failed")
	ErrSinkClosed   = errors.New("sink: closed")
	ErrQueueFull    = errors.New("sink: queue full")
	ErrUnknownSink  = errors.New("sink: unknown sink")
)

// Feed errors
var (
	ErrUnknownFeed   = errors.New("feed: unknown feed")
	ErrFeedSubscribe = errors.New("feed: subscribe rejected")
)
