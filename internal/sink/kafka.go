package sink

import (
	"context"
	"time"

	"tickbar/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/yanun0323/errors"
)

// Kafka publishes bars as JSON messages keyed by symbol, so one symbol
// always lands on one partition in window order.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(cfg KafkaConfig) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (k *Kafka) Emit(ctx context.Context, b model.Bar) error {
	msg, err := kafkaMessage(b)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write kafka message").With("topic", k.writer.Topic).With("seq", b.Seq)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func kafkaMessage(b model.Bar) (kafka.Message, error) {
	payload, err := Encode(b)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(b.Symbol),
		Value: payload,
		Time:  b.End,
	}, nil
}
