package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/letterscan/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/resilience"
)

// Exporter fans a finished report out to every configured sink.
type Exporter struct {
	sinks   []Sink
	retry   resilience.RetryConfig
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Exporter over sinks. m may be nil.
func New(sinks []Sink, cfg config.ExportConfig, m *metrics.Metrics) *Exporter {
	return &Exporter{
		sinks: sinks,
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.InitialDelay,
		},
		timeout: cfg.Timeout,
		metrics: m,
		logger:  logger.WithComponent("exporter"),
	}
}

// FromConfig builds the sinks enabled in cfg.
func FromConfig(cfg *config.Config, m *metrics.Metrics) (*Exporter, error) {
	var sinks []Sink
	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafkaSink(kafka.NewProducer(cfg.Kafka)))
	}
	if cfg.Redis.Enabled {
		sinks = append(sinks, NewRedisSink(redis.NewClient(cfg.Redis), cfg.Redis.Channel))
	}
	if cfg.Postgres.Enabled {
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			closeAll(sinks)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrExport, err)
		}
		sinks = append(sinks, NewPostgresSink(client))
	}
	return New(sinks, cfg.Export, m), nil
}

func (e *Exporter) Enabled() bool {
	return len(e.sinks) > 0
}

// Preflight pings every sink concurrently and fails if any is down, so a
// long scan is not wasted on an unreachable destination.
func (e *Exporter) Preflight(ctx context.Context) error {
	if !e.Enabled() {
		return nil
	}
	checker := health.NewChecker()
	for _, sink := range e.sinks {
		ping := sink.Ping
		checker.Register(sink.Name(), health.PingCheck(func(ctx context.Context) error {
			return resilience.WithTimeout(ctx, e.timeout, "ping", ping)
		}))
	}
	rep := checker.Run(ctx)
	if rep.Status == health.StatusDown {
		down := rep.Down()
		details := make([]string, 0, len(down))
		for _, name := range down {
			details = append(details, fmt.Sprintf("%s (%s)", name, rep.Components[name].Message))
		}
		return fmt.Errorf("%w: unreachable sinks: %s", apperrors.ErrExport, strings.Join(details, ", "))
	}
	e.logger.Debug("export sinks reachable", "sinks", len(e.sinks))
	return nil
}

// Publish delivers env to every sink. All sinks are attempted even when
// some fail; the returned error joins every failure.
func (e *Exporter) Publish(ctx context.Context, env Envelope) error {
	if !e.Enabled() {
		return nil
	}
	errs := make([]error, len(e.sinks))
	var g errgroup.Group
	for i, sink := range e.sinks {
		g.Go(func() error {
			err := resilience.Retry(ctx, sink.Name(), e.retry, func(ctx context.Context) error {
				return resilience.WithTimeout(ctx, e.timeout, sink.Name(), func(ctx context.Context) error {
					return sink.Publish(ctx, env)
				})
			})
			e.observe(sink.Name(), err)
			if err != nil {
				e.logger.Error("export failed", "sink", sink.Name(), "run_id", env.RunID, "error", err)
				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
				return nil
			}
			e.logger.Info("report exported", "sink", sink.Name(), "run_id", env.RunID)
			return nil
		})
	}
	_ = g.Wait()
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrExport, err)
	}
	return nil
}

func (e *Exporter) observe(sink string, err error) {
	if e.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.ExportsTotal.WithLabelValues(sink, status).Inc()
}

// Close closes every sink and joins the errors.
func (e *Exporter) Close() error {
	return closeAll(e.sinks)
}

func closeAll(sinks []Sink) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
