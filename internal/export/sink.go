// Package export ships finished reports to external systems. Every sink is
// write-only: nothing published here is ever read back by letterscan.
package export

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/letterscan/internal/maxset"
)

// Envelope is what every sink receives for one run.
type Envelope struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	MaxWordLen int           `json:"max_word_len"`
	Overflow   string        `json:"overflow"`
	FinishedAt time.Time     `json:"finished_at"`
	Report     maxset.Report `json:"report"`
}

// Sink delivers envelopes to one destination.
type Sink interface {
	Name() string
	Ping(ctx context.Context) error
	Publish(ctx context.Context, env Envelope) error
	Close() error
}
