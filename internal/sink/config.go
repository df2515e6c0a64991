package sink

import (
	"tickbar/pkg/conn"
	"tickbar/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	defaultQueueSize         = 1024
	defaultParquetPath       = "data/bars.parquet"
	defaultParquetFlushEvery = 60
	defaultKafkaTopic        = "bars"
	defaultRedisAddr         = "localhost:6379"
	defaultRedisChannel      = "bars:{symbol}"
)

// Config holds the settings of every sink kind.
type Config struct {
	QueueSize int            `json:"queueSize" env:"QUEUE_SIZE"`
	Parquet   ParquetConfig  `json:"parquet" envPrefix:"PARQUET_"`
	Postgres  PostgresConfig `json:"postgres" envPrefix:"POSTGRES_"`
	Kafka     KafkaConfig    `json:"kafka" envPrefix:"KAFKA_"`
	Redis     RedisConfig    `json:"redis" envPrefix:"REDIS_"`
}

// ParquetConfig configures the Parquet file sink.
type ParquetConfig struct {
	Path       string `json:"path" env:"PATH"`
	FlushEvery int    `json:"flushEvery" env:"FLUSH_EVERY"`
}

// PostgresConfig configures the PostgreSQL sink.
type PostgresConfig struct {
	conn.Option
	AutoMigrate bool `json:"autoMigrate" env:"AUTO_MIGRATE"`
}

// KafkaConfig configures the Kafka sink.
type KafkaConfig struct {
	Brokers []string `json:"brokers" env:"BROKERS" envSeparator:","`
	Topic   string   `json:"topic" env:"TOPIC"`
}

// RedisConfig configures the Redis pub/sub sink. Channel may contain a
// {symbol} placeholder.
type RedisConfig struct {
	Addr     string `json:"addr" env:"ADDR"`
	Password string `json:"password" env:"PASSWORD"`
	DB       int    `json:"db" env:"DB"`
	Channel  string `json:"channel" env:"CHANNEL"`
}

// DefaultConfig returns a baseline configuration for every sink.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero values.
func (c Config) WithDefaults() Config {
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Parquet.Path == "" {
		c.Parquet.Path = defaultParquetPath
	}
	if c.Parquet.FlushEvery == 0 {
		c.Parquet.FlushEvery = defaultParquetFlushEvery
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaultKafkaTopic
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = defaultRedisChannel
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.QueueSize <= 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "sink queue size must be > 0")
	}
	if c.Parquet.FlushEvery <= 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "parquet flush every must be > 0")
	}
	if c.Postgres.Port < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "postgres port must be >= 0")
	}
	if c.Redis.DB < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "redis db must be >= 0")
	}
	return nil
}
