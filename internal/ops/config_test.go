package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tickbar/internal/model/enum"
	"tickbar/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigResolves(t *testing.T) {
	loaded, err := DefaultConfig().Resolve()
	require.NoError(t, err)

	assert.Equal(t, "BTC-USD", loaded.Product)
	assert.Equal(t, time.Minute, loaded.Interval)
	assert.Equal(t, enum.FeedCoinbase, loaded.Feed)
	assert.Equal(t, []enum.Sink{enum.SinkLog}, loaded.Sinks)
	assert.Equal(t, time.Minute, loaded.StatsInterval)
	assert.False(t, loaded.Debug)
	assert.Equal(t, 1024, loaded.Sink.QueueSize)
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickbar.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"product": "ETH-USD",
		"interval": "5m",
		"feed": "sim",
		"sinks": ["log", "parquet"],
		"sink": {"parquet": {"path": "/tmp/eth.parquet"}, "kafka": {"topic": "eth-bars"}}
	}`), 0o644))

	t.Setenv("TICKBAR_INTERVAL", "30s")
	t.Setenv("TICKBAR_DEBUG", "true")
	t.Setenv("TICKBAR_SINK_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TICKBAR_SIM_SEED", "9")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	loaded, err := cfg.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "ETH-USD", loaded.Product)
	assert.Equal(t, 30*time.Second, loaded.Interval)
	assert.Equal(t, enum.FeedSim, loaded.Feed)
	assert.Equal(t, []enum.Sink{enum.SinkLog, enum.SinkParquet}, loaded.Sinks)
	assert.True(t, loaded.Debug)
	assert.Equal(t, "/tmp/eth.parquet", loaded.Sink.Parquet.Path)
	assert.Equal(t, "eth-bars", loaded.Sink.Kafka.Topic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, loaded.Sink.Kafka.Brokers)
	assert.Equal(t, uint64(9), loaded.Sim.Seed)
	assert.Equal(t, "bars:{symbol}", loaded.Sink.Redis.Channel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestResolveRejects(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(*Config)
		target error
	}{
		{desc: "empty product", mutate: func(c *Config) { c.Product = " " }, target: exception.ErrInvalidArgument},
		{desc: "bad interval", mutate: func(c *Config) { c.Interval = "one minute" }, target: exception.ErrInvalidArgument},
		{desc: "zero interval", mutate: func(c *Config) { c.Interval = "0s" }, target: exception.ErrInvalidInterval},
		{desc: "negative interval", mutate: func(c *Config) { c.Interval = "-1m" }, target: exception.ErrInvalidInterval},
		{desc: "negative stats interval", mutate: func(c *Config) { c.StatsInterval = "-1s" }, target: exception.ErrInvalidArgument},
		{desc: "unknown feed", mutate: func(c *Config) { c.Feed = "bloomberg" }, target: exception.ErrUnknownFeed},
		{desc: "unknown sink", mutate: func(c *Config) { c.Sinks = []string{"log", "fax"} }, target: exception.ErrUnknownSink},
		{desc: "no sink", mutate: func(c *Config) { c.Sinks = []string{" "} }, target: exception.ErrInvalidArgument},
		{desc: "bad queue size", mutate: func(c *Config) { c.Sink.QueueSize = -3 }, target: exception.ErrInvalidArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := cfg.Resolve()
			require.ErrorIs(t, err, tc.target)
		})
	}
}

func TestResolveDedupesSinks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sinks = []string{"log", "pg", "LOG", "postgres", "redis"}
	loaded, err := cfg.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []enum.Sink{enum.SinkLog, enum.SinkPostgres, enum.SinkRedis}, loaded.Sinks)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"log", "kafka"}, SplitList(" log, ,kafka,"))
	assert.Empty(t, SplitList(""))
}
