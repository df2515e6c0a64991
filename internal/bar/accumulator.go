package bar

import (
	"time"

	"tickbar/internal/model"

	"github.com/shopspring/decimal"
)

// State is a read-only copy of the accumulator counters.
type State struct {
	Volume    decimal.Decimal
	Notional  decimal.Decimal
	TickCount int64
	LastPrice decimal.NullDecimal
}

// Accumulator keeps running statistics for the in-progress window.
//
// lastPrice lives across windows: it is the close of every bar and seeds the
// open of the next one. Everything else is cleared by SnapshotAndReset.
// Accumulator is not safe for concurrent use; Scheduler serializes access.
type Accumulator struct {
	volume    decimal.Decimal
	notional  decimal.Decimal
	tickCount int64
	open      decimal.Decimal
	high      decimal.Decimal
	low       decimal.Decimal
	lastPrice decimal.NullDecimal
}

// NewAccumulator returns an empty accumulator that has never seen a trade.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Update applies one tick. The tick must already be valid.
func (a *Accumulator) Update(tick model.Tick) {
	price := tick.Price
	if a.tickCount == 0 {
		if a.lastPrice.Valid {
			a.open = a.lastPrice.Decimal
		} else {
			a.open = price
		}
		a.high = price
		a.low = price
	} else {
		if price.GreaterThan(a.high) {
			a.high = price
		}
		if price.LessThan(a.low) {
			a.low = price
		}
	}

	a.volume = a.volume.Add(tick.Size)
	a.notional = a.notional.Add(tick.Notional())
	a.tickCount++
	a.lastPrice = model.NullOf(price)
}

// VWAP returns notional / volume, or null when the window has no volume.
func (a *Accumulator) VWAP() decimal.NullDecimal {
	if !a.volume.IsPositive() {
		return decimal.NullDecimal{}
	}
	return model.NullOf(a.notional.Div(a.volume))
}

// Peek builds the bar the window would produce if it closed now.
func (a *Accumulator) Peek(start, end time.Time) model.Bar {
	b := model.Bar{
		Start:     start,
		End:       end,
		Close:     a.lastPrice,
		Volume:    a.volume,
		VWAP:      a.VWAP(),
		TickCount: a.tickCount,
	}
	if a.tickCount > 0 {
		b.Open = model.NullOf(a.open)
		b.High = model.NullOf(a.high)
		b.Low = model.NullOf(a.low)
		return b
	}

	b.Open = a.lastPrice
	b.High = a.lastPrice
	b.Low = a.lastPrice
	return b
}

// SnapshotAndReset closes the window: it returns the bar for [start, end) and
// clears every per-window field, keeping only the last trade price.
func (a *Accumulator) SnapshotAndReset(start, end time.Time) model.Bar {
	b := a.Peek(start, end)
	a.reset()
	return b
}

// State returns a copy of the counters.
func (a *Accumulator) State() State {
	return State{
		Volume:    a.volume,
		Notional:  a.notional,
		TickCount: a.tickCount,
		LastPrice: a.lastPrice,
	}
}

func (a *Accumulator) reset() {
	a.volume = decimal.Zero
	a.notional = decimal.Zero
	a.tickCount = 0
	a.open = decimal.Zero
	a.high = decimal.Zero
	a.low = decimal.Zero
}
