package sink

import (
	"context"
	"sync"
	"time"

	"tickbar/internal/model"

	"github.com/shopspring/decimal"
)

type recordSink struct {
	mu     sync.Mutex
	bars   []model.Bar
	err    error
	closed bool
}

func (r *recordSink) Emit(_ context.Context, b model.Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bars = append(r.bars, b)
	return r.err
}

func (r *recordSink) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordSink) Bars() []model.Bar {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Bar(nil), r.bars...)
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func tradedBar(seq uint64) model.Bar {
	start := epoch.Add(time.Duration(seq-1) * time.Minute)
	return model.Bar{
		Symbol:    "BTC-USD",
		Seq:       seq,
		Start:     start,
		End:       start.Add(time.Minute),
		Open:      model.NullOf(decimal.RequireFromString("100")),
		High:      model.NullOf(decimal.RequireFromString("102")),
		Low:       model.NullOf(decimal.RequireFromString("100")),
		Close:     model.NullOf(decimal.RequireFromString("102")),
		Volume:    decimal.RequireFromString("3"),
		VWAP:      model.NullOf(decimal.RequireFromString("100.5")),
		TickCount: 2,
	}
}

func neverTradedBar(seq uint64) model.Bar {
	start := epoch.Add(time.Duration(seq-1) * time.Minute)
	return model.Bar{
		Symbol: "BTC-USD",
		Seq:    seq,
		Start:  start,
		End:    start.Add(time.Minute),
		Volume: decimal.Zero,
	}
}
