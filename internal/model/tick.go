package model

import (
	"time"

	"tickbar/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Tick is a single observed trade.
type Tick struct {
	Symbol  string
	TradeID int64
	Price   decimal.Decimal
	Size    decimal.Decimal
	Time    time.Time
}

// Notional returns price * size.
func (t Tick) Notional() decimal.Decimal {
	return t.Price.Mul(t.Size)
}

// Validate reports ErrInvalidTick for a non-positive price or a negative size.
// Feeds call it before handing ticks to a scheduler.
func (t Tick) Validate() error {
	if !t.Price.IsPositive() {
		return errors.Wrapf(exception.ErrInvalidTick, "price %s must be > 0", t.Price)
	}
	if t.Size.IsNegative() {
		return errors.Wrapf(exception.ErrInvalidTick, "size %s must be >= 0", t.Size)
	}
	return nil
}
