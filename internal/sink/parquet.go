package sink

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"tickbar/internal/model"
	"tickbar/pkg/exception"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// parquetRow is the on-disk layout of a bar. Times are Unix milliseconds,
// absent prices are null.
type parquetRow struct {
	Symbol string   `parquet:"symbol"`
	Seq    uint64   `parquet:"seq"`
	Start  int64    `parquet:"start"`
	End    int64    `parquet:"end"`
	Open   *float64 `parquet:"open,optional"`
	High   *float64 `parquet:"high,optional"`
	Low    *float64 `parquet:"low,optional"`
	Close  *float64 `parquet:"close,optional"`
	Volume float64  `parquet:"volume"`
	VWAP   *float64 `parquet:"vwap,optional"`
	Ticks  int64    `parquet:"ticks"`
}

func newParquetRow(b model.Bar) parquetRow {
	return parquetRow{
		Symbol: b.Symbol,
		Seq:    b.Seq,
		Start:  b.Start.UnixMilli(),
		End:    b.End.UnixMilli(),
		Open:   nullFloat(b.Open),
		High:   nullFloat(b.High),
		Low:    nullFloat(b.Low),
		Close:  nullFloat(b.Close),
		Volume: b.Volume.InexactFloat64(),
		VWAP:   nullFloat(b.VWAP),
		Ticks:  b.TickCount,
	}
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// Parquet appends bars to a Parquet file, one row group every flushEvery bars.
// The file footer is written on Close.
type Parquet struct {
	mu         sync.Mutex
	file       *os.File
	writer     *parquet.GenericWriter[parquetRow]
	flushEvery int
	pending    int
	closed     bool
}

// NewParquet creates (or truncates) the file at cfg.Path.
func NewParquet(cfg ParquetConfig) (*Parquet, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create parquet dir").With("path", cfg.Path)
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "create parquet file").With("path", cfg.Path)
	}
	flushEvery := cfg.FlushEvery
	if flushEvery <= 0 {
		flushEvery = defaultParquetFlushEvery
	}
	return &Parquet{
		file:       f,
		writer:     parquet.NewGenericWriter[parquetRow](f),
		flushEvery: flushEvery,
	}, nil
}

func (p *Parquet) Emit(_ context.Context, b model.Bar) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return exception.ErrSinkClosed
	}
	if _, err := p.writer.Write([]parquetRow{newParquetRow(b)}); err != nil {
		return errors.Wrap(err, "write parquet row").With("seq", b.Seq)
	}
	p.pending++
	if p.pending >= p.flushEvery {
		if err := p.writer.Flush(); err != nil {
			return errors.Wrap(err, "flush parquet row group")
		}
		p.pending = 0
	}
	return nil
}

// Close writes the footer and closes the file.
func (p *Parquet) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.writer.Close(); err != nil {
		_ = p.file.Close()
		return errors.Wrap(err, "close parquet writer")
	}
	return p.file.Close()
}
