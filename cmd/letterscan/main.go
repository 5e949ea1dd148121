package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/export"
	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/input"
	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/report"
	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/scan"
	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/letterscan/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath string
	cfg        *config.Config
	args       []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("letterscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: letterscan [options] [file]\n\n")
		fmt.Fprintf(stderr, "Prints the words with the most distinct letters in file.\n")
		fmt.Fprintf(stderr, "Without file, the name is read from standard input; \"-\" scans standard input.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "path to a YAML or TOML config file")
	format := fs.String("format", "", "output format: text, json or table")
	maxLen := fs.Int("max-len", 0, "maximum word length")
	overflow := fs.String("overflow", "", "letters past max-len: split (start a new word) or drop")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	logFormat := fs.String("log-format", "", "log format: text or json")
	textfile := fs.String("metrics-textfile", "", "write run metrics to this Prometheus textfile")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, err.Error())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, err.Error())
	}

	// Flags given explicitly win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Output.Format = *format
		case "max-len":
			cfg.Scan.MaxWordLen = *maxLen
		case "overflow":
			cfg.Scan.Overflow = *overflow
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		case "metrics-textfile":
			cfg.Metrics.TextfilePath = *textfile
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitUsage, err.Error())
	}
	return &options{configPath: *configPath, cfg: cfg, args: fs.Args()}, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		return fail(stderr, err)
	}
	cfg := opts.cfg
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "main")
	ctx, root := tracing.StartSpan(ctx, "run", runID)
	defer func() {
		root.End()
		root.Log(log)
	}()

	m := metrics.New()
	exporter, err := export.FromConfig(cfg, m)
	if err != nil {
		return fail(stderr, err)
	}
	defer func() {
		if err := exporter.Close(); err != nil {
			log.Warn("closing export sinks", "error", err)
		}
	}()
	if err := tracing.Stage(ctx, "preflight", exporter.Preflight); err != nil {
		return fail(stderr, err)
	}

	name, err := input.ResolvePath(opts.args, stdin, stdout)
	if err != nil {
		return fail(stderr, err)
	}
	in, err := input.Open(name, stdin)
	if err != nil {
		return fail(stderr, err)
	}
	defer in.Close()

	overflow, _ := tokenizer.ParseOverflow(cfg.Scan.Overflow)
	format, _ := report.ParseFormat(cfg.Output.Format)
	scanner := scan.New(scan.Options{MaxWordLen: cfg.Scan.MaxWordLen, Overflow: overflow}, m)

	log.Debug("scanning", "source", name, "config", opts.configPath, "max_word_len", cfg.Scan.MaxWordLen, "overflow", overflow)
	rep, err := scanner.Run(ctx, in)
	if err != nil {
		return fail(stderr, err)
	}

	if err := tracing.Stage(ctx, "report", func(context.Context) error {
		return report.Write(stdout, rep, format)
	}); err != nil {
		return fail(stderr, err)
	}

	code := apperrors.ExitOK
	env := export.Envelope{
		RunID:      runID,
		Source:     name,
		MaxWordLen: cfg.Scan.MaxWordLen,
		Overflow:   overflow.String(),
		FinishedAt: time.Now().UTC(),
		Report:     rep,
	}
	if err := tracing.Stage(ctx, "export", func(ctx context.Context) error {
		return exporter.Publish(ctx, env)
	}); err != nil {
		code = fail(stderr, err)
	}

	deliverMetrics(ctx, cfg.Metrics, m, runID, log)
	return code
}

// deliverMetrics writes or pushes run metrics. Failures are logged only;
// the report has already been produced.
func deliverMetrics(ctx context.Context, cfg config.MetricsConfig, m *metrics.Metrics, runID string, log *slog.Logger) {
	if cfg.TextfilePath != "" {
		if err := m.WriteTextfile(cfg.TextfilePath); err != nil {
			log.Warn("metrics textfile not written", "error", err)
		}
	}
	if cfg.PushgatewayURL != "" {
		instance, _ := os.Hostname()
		if instance == "" {
			instance = runID
		}
		pushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := m.Push(pushCtx, cfg.PushgatewayURL, cfg.Job, instance); err != nil {
			log.Warn("metrics not pushed", "error", err)
		}
	}
}

// fail prints err to stderr and returns its exit status. File open errors
// print only their message.
func fail(stderr io.Writer, err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperrors.ErrFileOpen) {
		fmt.Fprintln(stderr, appErr.Message)
	} else {
		fmt.Fprintf(stderr, "letterscan: %v\n", err)
	}
	return apperrors.ExitCode(err)
}
