package feed

import (
	"context"
	"math/rand/v2"
	"time"

	"tickbar/internal/model"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const (
	defaultSimBasePrice = 100
	defaultSimStep      = 0.001
	defaultSimMaxSize   = 2
	defaultSimEvery     = 200 * time.Millisecond
)

// SimConfig shapes the synthetic random walk.
type SimConfig struct {
	Seed      uint64        `json:"seed" env:"SEED"`
	BasePrice float64       `json:"basePrice" env:"BASE_PRICE"`
	Step      float64       `json:"step" env:"STEP"`
	MaxSize   float64       `json:"maxSize" env:"MAX_SIZE"`
	Every     time.Duration `json:"-" env:"EVERY"`
}

func (cfg SimConfig) withDefaults() SimConfig {
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = defaultSimBasePrice
	}
	if cfg.Step <= 0 {
		cfg.Step = defaultSimStep
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultSimMaxSize
	}
	if cfg.Every <= 0 {
		cfg.Every = defaultSimEvery
	}
	return cfg
}

var minSimPrice = decimal.New(1, -2)

// Sim generates a deterministic random walk of trades. The same seed always
// yields the same prices and sizes.
type Sim struct {
	product string
	cfg     SimConfig
	rng     *rand.Rand
	price   decimal.Decimal
	tradeID int64
}

func NewSim(product string, cfg SimConfig) *Sim {
	cfg = cfg.withDefaults()
	return &Sim{
		product: product,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		price:   decimal.NewFromFloat(cfg.BasePrice).Round(2),
	}
}

// Next creates the next trade in sequence.
func (g *Sim) Next(now time.Time) model.Tick {
	move := g.price.Mul(decimal.NewFromFloat(g.cfg.Step * (g.rng.Float64()*2 - 1))).Round(2)
	g.price = g.price.Add(move)
	if g.price.LessThan(minSimPrice) {
		g.price = minSimPrice
	}
	g.tradeID++

	return model.Tick{
		Symbol:  g.product,
		TradeID: g.tradeID,
		Price:   g.price,
		Size:    decimal.NewFromFloat(g.rng.Float64() * g.cfg.MaxSize).Round(8),
		Time:    now,
	}
}

func (g *Sim) Run(ctx context.Context, h Handler) error {
	ticker := time.NewTicker(g.cfg.Every)
	defer ticker.Stop()

	logs.Infof("sim feed started, product: %s, every: %s", g.product, g.cfg.Every)
	for {
		select {
		case <-sys.Shutdown():
			return nil
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			h.OnTick(g.Next(now))
		}
	}
}
