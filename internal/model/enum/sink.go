package enum

import "strings"

// Sink selects a bar destination.
type Sink uint8

const (
	_sink_beg Sink = iota
	SinkLog
	SinkParquet
	SinkPostgres
	SinkKafka
	SinkRedis
	_sink_end
)

func (s Sink) IsAvailable() bool {
	return s > _sink_beg && s < _sink_end
}

func (s Sink) String() string {
	switch s {
	case SinkLog:
		return "log"
	case SinkParquet:
		return "parquet"
	case SinkPostgres:
		return "postgres"
	case SinkKafka:
		return "kafka"
	case SinkRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// Slow reports whether deliveries do network or disk I/O and should go
// through an async queue.
func (s Sink) Slow() bool {
	return s == SinkPostgres || s == SinkKafka || s == SinkRedis
}

// ParseSink returns the sink for name, or an unavailable Sink.
func ParseSink(name string) Sink {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "log":
		return SinkLog
	case "parquet":
		return SinkParquet
	case "postgres", "pg":
		return SinkPostgres
	case "kafka":
		return SinkKafka
	case "redis":
		return SinkRedis
	default:
		return _sink_beg
	}
}
