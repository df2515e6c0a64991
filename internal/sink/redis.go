package sink

import (
	"context"
	"strings"

	"tickbar/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"
)

// Redis publishes bars as JSON on a pub/sub channel.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(cfg RedisConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		channel: cfg.Channel,
	}
}

func (r *Redis) Emit(ctx context.Context, b model.Bar) error {
	payload, err := Encode(b)
	if err != nil {
		return err
	}
	channel := channelFor(r.channel, b.Symbol)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.Wrap(err, "publish bar").With("channel", channel).With("seq", b.Seq)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func channelFor(pattern, symbol string) string {
	return strings.ReplaceAll(pattern, "{symbol}", symbol)
}
