package export

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/kafka"
)

type eventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Ping(ctx context.Context) error
	Close() error
}

// KafkaSink writes one message per run, keyed by run id.
type KafkaSink struct {
	producer eventPublisher
}

func NewKafkaSink(producer eventPublisher) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Ping(ctx context.Context) error {
	return s.producer.Ping(ctx)
}

func (s *KafkaSink) Publish(ctx context.Context, env Envelope) error {
	return s.producer.Publish(ctx, kafka.Event{Key: env.RunID, Value: env})
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
