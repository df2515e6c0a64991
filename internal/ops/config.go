package ops

import (
	"os"
	"strings"
	"time"

	"tickbar/internal/feed"
	"tickbar/internal/model/enum"
	"tickbar/internal/sink"
	"tickbar/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
)

const (
	EnvPrefix = "TICKBAR_"

	defaultProduct       = "BTC-USD"
	defaultInterval      = "1m"
	defaultFeed          = "coinbase"
	defaultSink          = "log"
	defaultStatsInterval = "1m"
)

// Config mirrors the JSON config layout. Every key can be overridden by an
// environment variable carrying EnvPrefix.
type Config struct {
	Product       string         `json:"product" env:"PRODUCT"`
	Interval      string         `json:"interval" env:"INTERVAL"`
	Feed          string         `json:"feed" env:"FEED"`
	FeedURL       string         `json:"feedUrl" env:"FEED_URL"`
	Sinks         []string       `json:"sinks" env:"SINKS" envSeparator:","`
	Debug         bool           `json:"debug" env:"DEBUG"`
	FlushOnStop   bool           `json:"flushOnStop" env:"FLUSH_ON_STOP"`
	Pyroscope     string         `json:"pyroscope" env:"PYROSCOPE"`
	StatsInterval string         `json:"statsInterval" env:"STATS_INTERVAL"`
	Sim           feed.SimConfig `json:"sim" envPrefix:"SIM_"`
	Sink          sink.Config    `json:"sink" envPrefix:"SINK_"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Product       string
	Interval      time.Duration
	Feed          enum.Feed
	FeedURL       string
	Sinks         []enum.Sink
	Debug         bool
	FlushOnStop   bool
	Pyroscope     string
	StatsInterval time.Duration
	Sim           feed.SimConfig
	Sink          sink.Config
}

// DefaultConfig returns a config that streams BTC-USD one minute bars to the log.
func DefaultConfig() Config {
	return Config{
		Product:       defaultProduct,
		Interval:      defaultInterval,
		Feed:          defaultFeed,
		Sinks:         []string{defaultSink},
		StatsInterval: defaultStatsInterval,
		Sink:          sink.DefaultConfig(),
	}
}

// LoadConfig layers the JSON file at path (optional), a .env file and the
// environment on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file").With("path", path)
		}
		if err := sonic.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode config file").With("path", path)
		}
	}

	_ = godotenv.Load()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}

	return cfg, nil
}

// Resolve validates the config and turns names and durations into values.
func (c Config) Resolve() (Loaded, error) {
	product := strings.TrimSpace(c.Product)
	if product == "" {
		return Loaded{}, errors.Wrap(exception.ErrInvalidArgument, "product is empty")
	}

	interval, err := parseDuration("interval", c.Interval, defaultInterval)
	if err != nil {
		return Loaded{}, err
	}
	if interval <= 0 {
		return Loaded{}, errors.Wrapf(exception.ErrInvalidInterval, "interval: %s", c.Interval)
	}

	stats, err := parseDuration("stats interval", c.StatsInterval, defaultStatsInterval)
	if err != nil {
		return Loaded{}, err
	}
	if stats < 0 {
		return Loaded{}, errors.Wrap(exception.ErrInvalidArgument, "stats interval must be >= 0")
	}

	kind := enum.ParseFeed(c.Feed)
	if !kind.IsAvailable() {
		return Loaded{}, errors.Wrapf(exception.ErrUnknownFeed, "feed: %q", c.Feed)
	}

	sinks, err := resolveSinks(c.Sinks)
	if err != nil {
		return Loaded{}, err
	}

	sinkCfg := c.Sink.WithDefaults()
	if err := sinkCfg.Validate(); err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Product:       product,
		Interval:      interval,
		Feed:          kind,
		FeedURL:       c.FeedURL,
		Sinks:         sinks,
		Debug:         c.Debug,
		FlushOnStop:   c.FlushOnStop,
		Pyroscope:     c.Pyroscope,
		StatsInterval: stats,
		Sim:           c.Sim,
		Sink:          sinkCfg,
	}, nil
}

func parseDuration(name, raw, fallback string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(exception.ErrInvalidArgument, "%s %q: %s", name, raw, err)
	}
	return d, nil
}

// resolveSinks parses sink names, dropping blanks and duplicates.
func resolveSinks(names []string) ([]enum.Sink, error) {
	sinks := make([]enum.Sink, 0, len(names))
	seen := make(map[enum.Sink]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		kind := enum.ParseSink(name)
		if !kind.IsAvailable() {
			return nil, errors.Wrapf(exception.ErrUnknownSink, "sink: %q", name)
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		sinks = append(sinks, kind)
	}
	if len(sinks) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "no sink configured")
	}
	return sinks, nil
}

// SplitList splits a comma separated flag value.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
