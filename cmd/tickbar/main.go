package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tickbar/internal/bar"
	"tickbar/internal/feed"
	"tickbar/internal/model"
	"tickbar/internal/obs"
	"tickbar/internal/ops"
	"tickbar/internal/sink"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("tickbar: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	product := flag.String("product", "BTC-USD", "Product to aggregate")
	interval := flag.String("interval", "1m", "Bar interval")
	debug := flag.Bool("debug", false, "Log the running VWAP on every tick")
	feedName := flag.String("feed", "coinbase", "Tick feed: coinbase|sim")
	feedURL := flag.String("feed-url", "", "Feed WebSocket URL (default: Coinbase Exchange)")
	sinks := flag.String("sinks", "log", "Comma separated bar sinks: log|parquet|postgres|kafka|redis")
	flushOnStop := flag.Bool("flush-on-stop", false, "Emit the partial bar on shutdown")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disable)")
	statsInterval := flag.String("stats-interval", "1m", "Metrics log interval (0=disable)")
	flag.Parse()

	cfg, err := ops.LoadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "product":
			cfg.Product = *product
		case "interval":
			cfg.Interval = *interval
		case "debug":
			cfg.Debug = *debug
		case "feed":
			cfg.Feed = *feedName
		case "feed-url":
			cfg.FeedURL = *feedURL
		case "sinks":
			cfg.Sinks = ops.SplitList(*sinks)
		case "flush-on-stop":
			cfg.FlushOnStop = *flushOnStop
		case "pyroscope":
			cfg.Pyroscope = *pyroscopeAddr
		case "stats-interval":
			cfg.StatsInterval = *statsInterval
		}
	})

	loaded, err := cfg.Resolve()
	if err != nil {
		return errors.Wrap(err, "resolve config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-sys.Shutdown():
			stop()
		case <-ctx.Done():
		}
	}()

	if loaded.Pyroscope != "" {
		profiler, err := startProfiler(loaded)
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()

	out, err := sink.Build(ctx, loaded.Sinks, loaded.Sink, metrics)
	if err != nil {
		return errors.Wrap(err, "build sinks")
	}
	defer func() {
		if err := out.Close(); err != nil {
			logs.Errorf("close sinks, err: %+v", err)
		}
	}()

	scheduler, err := bar.NewScheduler(out, bar.Option{
		Symbol:      loaded.Product,
		Interval:    loaded.Interval,
		Metrics:     metrics,
		Trace:       loaded.Debug,
		FlushOnStop: loaded.FlushOnStop,
	})
	if err != nil {
		return errors.Wrap(err, "new scheduler")
	}

	source, err := feed.New(loaded.Feed, feed.Option{
		Product: loaded.Product,
		URL:     loaded.FeedURL,
		Sim:     loaded.Sim,
		Metrics: metrics,
	})
	if err != nil {
		return errors.Wrap(err, "new feed")
	}

	logs.Infof("tickbar starting, product: %s, interval: %s, feed: %s, sinks: %v",
		loaded.Product, loaded.Interval, loaded.Feed, loaded.Sinks)

	if err := scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "start scheduler")
	}

	if loaded.StatsInterval > 0 {
		go reportStats(ctx, metrics, loaded.StatsInterval)
	}
	go flushOnSignal(ctx, scheduler)

	runErr := source.Run(ctx, scheduler)
	stop()
	scheduler.Stop()

	logStats("final", metrics.Snapshot())
	st := scheduler.State()
	logs.Infof("last price: %s, unflushed ticks: %d", model.FormatNull(st.LastPrice), st.TickCount)
	if runErr != nil {
		return errors.Wrap(runErr, "run feed")
	}
	return nil
}

// flushOnSignal cuts the open bar early on SIGUSR1.
func flushOnSignal(ctx context.Context, scheduler *bar.Scheduler) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			logs.Info("SIGUSR1 received, flushing open bar")
			scheduler.Flush()
		}
	}
}

func reportStats(ctx context.Context, metrics *obs.Metrics, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logStats("stats", metrics.Snapshot())
		}
	}
}

func logStats(label string, s obs.Snapshot) {
	logs.Infof("%s ticks=%d invalid=%d bars=%d empty=%d sink_failures=%d queue_drops=%d clock_anomalies=%d irregular=%d boundary_lag_avg=%s boundary_lag_max=%s sink_avg=%s sink_max=%s",
		label,
		s.Ticks,
		s.InvalidTicks,
		s.Bars,
		s.EmptyBars,
		s.SinkFailures,
		s.QueueDrops,
		s.ClockAnomalies,
		s.IrregularWindows,
		s.BoundaryLag.Avg,
		s.BoundaryLag.Max,
		s.SinkLatency.Avg,
		s.SinkLatency.Max,
	)
}

func startProfiler(loaded ops.Loaded) (*pyroscope.Profiler, error) {
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "tickbar",
		ServerAddress:   loaded.Pyroscope,
		Tags: map[string]string{
			"product": loaded.Product,
			"feed":    loaded.Feed.String(),
		},
		Logger: pyroscopeLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "start pyroscope")
	}
	return profiler, nil
}

type pyroscopeLogger struct{}

func (pyroscopeLogger) Infof(format string, args ...any) {
	logs.Infof("pyroscope: "+format, args...)
}

func (pyroscopeLogger) Debugf(string, ...any) {}

func (pyroscopeLogger) Errorf(format string, args ...any) {
	logs.Errorf("pyroscope: "+format, args...)
}
