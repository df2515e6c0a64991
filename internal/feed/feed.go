package feed

import (
	"context"

	"tickbar/internal/model"
	"tickbar/internal/model/enum"
	"tickbar/internal/obs"
	"tickbar/pkg/exception"

	"github.com/yanun0323/errors"
)

// Handler consumes validated ticks in arrival order.
type Handler interface {
	OnTick(tick model.Tick)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(tick model.Tick)

func (f HandlerFunc) OnTick(tick model.Tick) {
	f(tick)
}

// Source delivers ticks to a handler until ctx is done or the process shuts down.
type Source interface {
	Run(ctx context.Context, h Handler) error
}

// Option selects and configures a tick source.
type Option struct {
	Product string
	URL     string
	Sim     SimConfig
	Metrics *obs.Metrics
}

// New returns the source for kind.
func New(kind enum.Feed, opt Option) (Source, error) {
	switch kind {
	case enum.FeedCoinbase:
		return NewCoinbase(opt.URL, opt.Product, opt.Metrics), nil
	case enum.FeedSim:
		return NewSim(opt.Product, opt.Sim), nil
	default:
		return nil, errors.Wrapf(exception.ErrUnknownFeed, "kind: %s", kind)
	}
}
