package sink

import (
	"context"
	"time"

	"tickbar/internal/model"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BarRecord is the bars table row.
type BarRecord struct {
	ID          uint64              `gorm:"primaryKey;autoIncrement"`
	Symbol      string              `gorm:"size:32;not null;uniqueIndex:idx_bars_symbol_start"`
	WindowStart time.Time           `gorm:"not null;uniqueIndex:idx_bars_symbol_start"`
	WindowEnd   time.Time           `gorm:"not null"`
	Seq         uint64              `gorm:"not null"`
	Open        decimal.NullDecimal `gorm:"type:numeric"`
	High        decimal.NullDecimal `gorm:"type:numeric"`
	Low         decimal.NullDecimal `gorm:"type:numeric"`
	Close       decimal.NullDecimal `gorm:"type:numeric"`
	Volume      decimal.Decimal     `gorm:"type:numeric;not null"`
	VWAP        decimal.NullDecimal `gorm:"column:vwap;type:numeric"`
	TickCount   int64               `gorm:"not null"`
	CreatedAt   time.Time
}

func (BarRecord) TableName() string {
	return "bars"
}

func newBarRecord(b model.Bar) BarRecord {
	return BarRecord{
		Symbol:      b.Symbol,
		WindowStart: b.Start.UTC(),
		WindowEnd:   b.End.UTC(),
		Seq:         b.Seq,
		Open:        b.Open,
		High:        b.High,
		Low:         b.Low,
		Close:       b.Close,
		Volume:      b.Volume,
		VWAP:        b.VWAP,
		TickCount:   b.TickCount,
	}
}

// Postgres inserts each bar as a row. A second bar for the same symbol and
// window start replaces the first.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres wraps db, creating the bars table first when migrate is set.
func NewPostgres(db *gorm.DB, migrate bool) (*Postgres, error) {
	if migrate {
		if err := db.AutoMigrate(&BarRecord{}); err != nil {
			return nil, errors.Wrap(err, "migrate bars table")
		}
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Emit(ctx context.Context, b model.Bar) error {
	rec := newBarRecord(b)
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "window_start"}},
			UpdateAll: true,
		}).
		Create(&rec).Error
	if err != nil {
		return errors.Wrap(err, "insert bar").With("symbol", b.Symbol).With("seq", b.Seq)
	}
	return nil
}

func (p *Postgres) Close() error {
	return nil
}
