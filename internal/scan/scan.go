// Package scan runs one pass over an input stream, feeding each word into a
// MaxSet and recording run metrics.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/maxset"
	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/letterscan/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/tracing"
)

// cancelCheckInterval is how many words pass between context checks.
const cancelCheckInterval = 4096

type Options struct {
	MaxWordLen int
	Overflow   tokenizer.Overflow
}

// Scanner feeds tokenizer output into a MaxSet in a single pass.
type Scanner struct {
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Scanner. m may be nil.
func New(opts Options, m *metrics.Metrics) *Scanner {
	if opts.MaxWordLen < 1 {
		opts.MaxWordLen = tokenizer.DefaultMaxLen
	}
	return &Scanner{
		opts:    opts,
		metrics: m,
		logger:  logger.WithComponent("scanner"),
	}
}

// Run reads r to the end and returns the finalized report.
func (s *Scanner) Run(ctx context.Context, r io.Reader) (maxset.Report, error) {
	ctx, span := tracing.StartChildSpan(ctx, "scan")
	defer span.End()
	start := time.Now()

	tok := tokenizer.New(r,
		tokenizer.WithMaxLen(s.opts.MaxWordLen),
		tokenizer.WithOverflow(s.opts.Overflow),
	)
	set := maxset.New()

	var n int
	for word := range tok.All() {
		score, err := set.Ingest(word)
		if err != nil {
			return maxset.Report{}, fmt.Errorf("ingesting word %d: %w", n+1, err)
		}
		s.observeWord(score)
		n++
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return maxset.Report{}, fmt.Errorf("scan interrupted after %d words: %w", n, err)
			}
		}
	}
	if err := tok.Err(); err != nil {
		return maxset.Report{}, fmt.Errorf("%w: %w", apperrors.ErrRead, err)
	}

	rep := set.Finalize()
	elapsed := time.Since(start)
	span.SetAttr("max_len", tok.MaxLen())
	span.SetAttr("words", rep.TotalWords)
	span.SetAttr("bytes", tok.BytesRead())
	span.SetAttr("max_score", rep.MaxScore)
	s.observeRun(rep, tok.BytesRead(), elapsed)

	s.logger.Info("scan complete",
		"words", rep.TotalWords,
		"bytes", tok.BytesRead(),
		"max_score", rep.MaxScore,
		"max_words", rep.Distinct,
		"resets", rep.Resets,
		"elapsed", elapsed,
	)
	return rep, nil
}

func (s *Scanner) observeWord(score int) {
	if s.metrics == nil {
		return
	}
	s.metrics.WordScore.Observe(float64(score))
}

func (s *Scanner) observeRun(rep maxset.Report, bytesRead int64, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.WordsScannedTotal.Add(float64(rep.TotalWords))
	s.metrics.BytesReadTotal.Add(float64(bytesRead))
	s.metrics.MaxSetResetsTotal.Add(float64(rep.Resets))
	s.metrics.MaxScore.Set(float64(rep.MaxScore))
	s.metrics.MaxSetSize.Set(float64(rep.Distinct))
	s.metrics.ScanDuration.Observe(elapsed.Seconds())
}
