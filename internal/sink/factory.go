package sink

import (
	"context"

	"tickbar/internal/bar"
	"tickbar/internal/model/enum"
	"tickbar/internal/obs"
	"tickbar/pkg/conn"
	"tickbar/pkg/exception"

	"github.com/yanun0323/errors"
)

// Build opens every requested sink and fans bars out to them. Slow sinks are
// put behind an Async queue. On error every sink opened so far is closed.
func Build(ctx context.Context, kinds []enum.Sink, cfg Config, metrics *obs.Metrics) (*Multi, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sinks := make([]bar.Sink, 0, len(kinds))
	fail := func(err error) (*Multi, error) {
		_ = NewMulti(sinks...).Close()
		return nil, err
	}

	for _, kind := range kinds {
		s, err := open(ctx, kind, cfg)
		if err != nil {
			return fail(errors.Wrapf(err, "open %s sink", kind))
		}
		if kind.Slow() {
			async := NewAsync(kind.String(), s, cfg.QueueSize, metrics)
			async.Start(ctx)
			s = async
		}
		sinks = append(sinks, s)
	}

	return NewMulti(sinks...), nil
}

func open(ctx context.Context, kind enum.Sink, cfg Config) (bar.Sink, error) {
	switch kind {
	case enum.SinkLog:
		return Log{}, nil
	case enum.SinkParquet:
		return NewParquet(cfg.Parquet)
	case enum.SinkPostgres:
		client, err := conn.New(ctx, cfg.Postgres.Option)
		if err != nil {
			return nil, err
		}
		pg, err := NewPostgres(client.DB(), cfg.Postgres.AutoMigrate)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &pgClientSink{Postgres: pg, client: client}, nil
	case enum.SinkKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, errors.Wrap(exception.ErrInvalidArgument, "kafka brokers are empty")
		}
		return NewKafka(cfg.Kafka), nil
	case enum.SinkRedis:
		return NewRedis(cfg.Redis), nil
	default:
		return nil, errors.Wrapf(exception.ErrUnknownSink, "kind: %d", kind)
	}
}

// pgClientSink owns the connection pool it writes through.
type pgClientSink struct {
	*Postgres
	client *conn.Client
}

func (s *pgClientSink) Close() error {
	return s.client.Close()
}
