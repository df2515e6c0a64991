package bar

import (
	"testing"
	"time"

	"tickbar/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.Add(time.Minute)
)

func tick(price, size string) model.Tick {
	return model.Tick{
		Price: decimal.RequireFromString(price),
		Size:  decimal.RequireFromString(size),
	}
}

func assertDec(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "want %s got null", want)
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "want %s got %s", want, got.Decimal)
}

func TestAccumulatorExampleWindow(t *testing.T) {
	acc := NewAccumulator()
	acc.Update(tick("100.0", "2"))
	acc.Update(tick("102.0", "1"))

	b := acc.SnapshotAndReset(windowStart, windowEnd)

	assertDec(t, "100", b.Open)
	assertDec(t, "102", b.High)
	assertDec(t, "100", b.Low)
	assertDec(t, "102", b.Close)
	assert.True(t, decimal.NewFromInt(3).Equal(b.Volume))
	require.True(t, b.VWAP.Valid)
	assert.InDelta(t, 100.6667, b.VWAP.Decimal.InexactFloat64(), 1e-4)
	assert.Equal(t, int64(2), b.TickCount)
	assert.True(t, b.Start.Equal(windowStart))
	assert.True(t, b.End.Equal(windowEnd))
}

func TestAccumulatorVWAP(t *testing.T) {
	ticks := []model.Tick{
		tick("27012.55", "0.013"),
		tick("27011.10", "1.5"),
		tick("27020.00", "0.25"),
		tick("26999.99", "3"),
		tick("27005.42", "0"),
	}

	acc := NewAccumulator()
	notional := decimal.Zero
	volume := decimal.Zero
	for _, tk := range ticks {
		acc.Update(tk)
		notional = notional.Add(tk.Price.Mul(tk.Size))
		volume = volume.Add(tk.Size)
	}

	b := acc.SnapshotAndReset(windowStart, windowEnd)
	require.True(t, b.VWAP.Valid)
	assert.True(t, notional.Div(volume).Equal(b.VWAP.Decimal))
	assert.True(t, volume.Equal(b.Volume))
	assert.Equal(t, int64(len(ticks)), b.TickCount)
	assertDec(t, "27020.00", b.High)
	assertDec(t, "26999.99", b.Low)
	assertDec(t, "27005.42", b.Close)
}

func TestAccumulatorNeverTraded(t *testing.T) {
	acc := NewAccumulator()
	b := acc.SnapshotAndReset(windowStart, windowEnd)

	assert.False(t, b.Open.Valid)
	assert.False(t, b.High.Valid)
	assert.False(t, b.Low.Valid)
	assert.False(t, b.Close.Valid)
	assert.False(t, b.VWAP.Valid)
	assert.True(t, b.Volume.IsZero())
	assert.True(t, b.Empty())
}

func TestAccumulatorEmptyWindowCarriesLastPrice(t *testing.T) {
	acc := NewAccumulator()
	acc.Update(tick("100", "1"))
	acc.Update(tick("101.5", "2"))
	_ = acc.SnapshotAndReset(windowStart, windowEnd)

	b := acc.SnapshotAndReset(windowEnd, windowEnd.Add(time.Minute))

	assertDec(t, "101.5", b.Open)
	assertDec(t, "101.5", b.High)
	assertDec(t, "101.5", b.Low)
	assertDec(t, "101.5", b.Close)
	assert.False(t, b.VWAP.Valid)
	assert.True(t, b.Volume.IsZero())
	assert.Equal(t, int64(0), b.TickCount)
}

func TestAccumulatorOpenUsesCarriedPrice(t *testing.T) {
	acc := NewAccumulator()
	acc.Update(tick("100", "1"))
	_ = acc.SnapshotAndReset(windowStart, windowEnd)

	acc.Update(tick("105", "1"))
	acc.Update(tick("104", "1"))
	b := acc.SnapshotAndReset(windowEnd, windowEnd.Add(time.Minute))

	assertDec(t, "100", b.Open)
	assertDec(t, "105", b.High)
	assertDec(t, "104", b.Low)
	assertDec(t, "104", b.Close)
}

func TestAccumulatorResetKeepsLastPrice(t *testing.T) {
	acc := NewAccumulator()
	acc.Update(tick("100", "2"))
	acc.Update(tick("99.5", "4"))
	_ = acc.SnapshotAndReset(windowStart, windowEnd)

	s := acc.State()
	assert.Equal(t, int64(0), s.TickCount)
	assert.True(t, s.Volume.IsZero())
	assert.True(t, s.Notional.IsZero())
	assertDec(t, "99.5", s.LastPrice)
}

func TestAccumulatorPeekDoesNotReset(t *testing.T) {
	acc := NewAccumulator()
	acc.Update(tick("10", "1"))

	peeked := acc.Peek(windowStart, windowEnd)
	s := acc.State()

	assert.Equal(t, int64(1), peeked.TickCount)
	assert.Equal(t, int64(1), s.TickCount)
	assert.True(t, decimal.NewFromInt(1).Equal(s.Volume))
	assert.True(t, decimal.NewFromInt(10).Equal(s.Notional))
}

func TestAccumulatorZeroSizeTick(t *testing.T) {
	acc := NewAccumulator()
	acc.Update(tick("50", "0"))

	b := acc.SnapshotAndReset(windowStart, windowEnd)
	assert.Equal(t, int64(1), b.TickCount)
	assert.True(t, b.Volume.IsZero())
	assert.False(t, b.VWAP.Valid)
	assertDec(t, "50", b.Open)
	assertDec(t, "50", b.Close)
}
