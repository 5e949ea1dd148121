package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/resilience"
)

type channelPublisher interface {
	Publish(ctx context.Context, channel string, message any) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// RedisSink publishes the envelope as JSON on a pub/sub channel. Nothing
// is stored; only live subscribers see it.
type RedisSink struct {
	client  channelPublisher
	channel string
	logger  *slog.Logger
}

func NewRedisSink(client channelPublisher, channel string) *RedisSink {
	return &RedisSink{
		client:  client,
		channel: channel,
		logger:  logger.WithComponent("redis-sink").With("channel", channel),
	}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisSink) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("marshaling envelope: %w", err))
	}
	receivers, err := s.client.Publish(ctx, s.channel, payload)
	if err != nil {
		return err
	}
	if receivers == 0 {
		s.logger.Info("report published with no subscribers", "run_id", env.RunID)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
