package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS letterscan_runs (
	run_id       UUID PRIMARY KEY,
	source       TEXT        NOT NULL,
	max_word_len INTEGER     NOT NULL,
	overflow     TEXT        NOT NULL,
	max_score    INTEGER     NOT NULL,
	total_words  BIGINT      NOT NULL,
	distinct_max INTEGER     NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS letterscan_records (
	run_id UUID    NOT NULL REFERENCES letterscan_runs (run_id) ON DELETE CASCADE,
	word   TEXT    NOT NULL,
	count  INTEGER NOT NULL,
	PRIMARY KEY (run_id, word)
);`

// PostgresSink appends each run to an audit table.
type PostgresSink struct {
	client *postgres.Client
}

func NewPostgresSink(client *postgres.Client) *PostgresSink {
	return &PostgresSink{client: client}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *PostgresSink) Publish(ctx context.Context, env Envelope) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO letterscan_runs
				(run_id, source, max_word_len, overflow, max_score, total_words, distinct_max, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (run_id) DO NOTHING`,
			env.RunID, env.Source, env.MaxWordLen, env.Overflow,
			env.Report.MaxScore, env.Report.TotalWords, env.Report.Distinct, env.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO letterscan_records (run_id, word, count)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id, word) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing record insert: %w", err)
		}
		defer stmt.Close()
		for _, rec := range env.Report.Records {
			if _, err := stmt.ExecContext(ctx, env.RunID, rec.Word, rec.Count); err != nil {
				return fmt.Errorf("inserting record %q: %w", rec.Word, err)
			}
		}
		return nil
	})
}

func (s *PostgresSink) Close() error {
	return s.client.Close()
}
