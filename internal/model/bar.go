package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is an OHLCV+VWAP summary of one window [Start, End).
//
// Price fields are null when no trade has ever been seen. VWAP is null when
// the window traded no volume.
type Bar struct {
	Symbol    string              `json:"symbol"`
	Seq       uint64              `json:"seq"`
	Start     time.Time           `json:"start"`
	End       time.Time           `json:"end"`
	Open      decimal.NullDecimal `json:"open"`
	High      decimal.NullDecimal `json:"high"`
	Low       decimal.NullDecimal `json:"low"`
	Close     decimal.NullDecimal `json:"close"`
	Volume    decimal.Decimal     `json:"volume"`
	VWAP      decimal.NullDecimal `json:"vwap"`
	TickCount int64               `json:"ticks"`
}

// Width returns End - Start.
func (b Bar) Width() time.Duration {
	return b.End.Sub(b.Start)
}

// Empty reports whether no tick landed in the window.
func (b Bar) Empty() bool {
	return b.TickCount == 0
}

// Irregular reports whether the window width differs from interval, which
// happens after a wall clock adjustment or a skipped boundary.
func (b Bar) Irregular(interval time.Duration) bool {
	return b.Width() != interval
}

func (b Bar) String() string {
	return fmt.Sprintf("%s #%d [%s, %s) o=%s h=%s l=%s c=%s v=%s vwap=%s n=%d",
		b.Symbol, b.Seq,
		b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339),
		FormatNull(b.Open), FormatNull(b.High), FormatNull(b.Low), FormatNull(b.Close),
		b.Volume, FormatNull(b.VWAP), b.TickCount,
	)
}

// NullOf wraps d as a valid nullable decimal.
func NullOf(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// FormatNull renders d, or "null" when it is absent.
func FormatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return "null"
	}
	return d.Decimal.String()
}
