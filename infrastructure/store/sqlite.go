// Package store persists evaluation runs to SQLite so result history
// survives across invocations. The schema keeps one row per run, one per
// named evaluation, and one per case result, with scores and traces
// hanging off each result.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.ResultStore = (*SQLiteStore)(nil)

// schema is applied idempotently on open.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY,
	created_at TEXT NOT NULL,
	metadata TEXT
);
CREATE TABLE IF NOT EXISTS evals (
	id INTEGER PRIMARY KEY,
	run_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	summary TEXT,
	FOREIGN KEY(run_id) REFERENCES runs(id)
);
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY,
	eval_id INTEGER NOT NULL,
	case_id TEXT,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	expected TEXT NOT NULL,
	error TEXT,
	FOREIGN KEY(eval_id) REFERENCES evals(id)
);
CREATE TABLE IF NOT EXISTS scores (
	id INTEGER PRIMARY KEY,
	result_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	passed BOOLEAN NOT NULL,
	details TEXT,
	FOREIGN KEY(result_id) REFERENCES results(id)
);
CREATE TABLE IF NOT EXISTS traces (
	id INTEGER PRIMARY KEY,
	result_id INTEGER NOT NULL,
	trace_id TEXT,
	model TEXT,
	duration_ms INTEGER,
	input TEXT,
	output TEXT,
	tokens_in INTEGER,
	tokens_out INTEGER,
	FOREIGN KEY(result_id) REFERENCES results(id)
);
`

// SQLiteStore implements ResultStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. Foreign keys are enabled on the connection.
func Open(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// CreateRun registers a new run and returns its row ID.
func (s *SQLiteStore) CreateRun(ctx context.Context, metadata any) (int64, error) {
	var meta sql.NullString
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return 0, fmt.Errorf("encoding run metadata: %w", err)
		}
		meta = sql.NullString{String: string(data), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(created_at, metadata) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339), meta)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// SaveResult persists a named evaluation result under a run. The whole
// write happens in one transaction so a run never holds a partial result.
func (s *SQLiteStore) SaveResult(ctx context.Context, runID int64, name string, result domain.EvalResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO evals(run_id, name, summary) VALUES (?, ?, ?)`,
		runID, name, string(summary))
	if err != nil {
		return fmt.Errorf("inserting eval: %w", err)
	}
	evalID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, cr := range result.Cases {
		if err := insertCaseResult(ctx, tx, evalID, cr); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// insertCaseResult writes one case result plus its scores and traces.
func insertCaseResult(ctx context.Context, tx *sql.Tx, evalID int64, cr domain.CaseResult) error {
	input, err := jsonText(cr.Case.Input)
	if err != nil {
		return err
	}
	output, err := jsonText(cr.Output)
	if err != nil {
		return err
	}
	expected, err := jsonText(cr.Case.Expected)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO results(eval_id, case_id, input, output, expected, error) VALUES (?, ?, ?, ?, ?, ?)`,
		evalID, nullable(cr.Case.ID), input, output, expected, nullable(cr.Error))
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	resultID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, score := range cr.Scores {
		details, err := jsonText(score.Details)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores(result_id, name, value, passed, details) VALUES (?, ?, ?, ?, ?)`,
			resultID, score.Name, score.Value, score.Passed, details); err != nil {
			return fmt.Errorf("inserting score: %w", err)
		}
	}

	for _, tr := range cr.Traces {
		input, err := jsonText(tr.Input)
		if err != nil {
			return err
		}
		output, err := jsonText(tr.Output)
		if err != nil {
			return err
		}
		tokensIn, tokensOut := 0, 0
		if tr.Usage != nil {
			tokensIn, tokensOut = tr.Usage.Input, tr.Usage.Output
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO traces(result_id, trace_id, model, duration_ms, input, output, tokens_in, tokens_out) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			resultID, nullable(tr.ID), nullable(tr.Model), tr.DurationMS, input, output, tokensIn, tokensOut); err != nil {
			return fmt.Errorf("inserting trace: %w", err)
		}
	}
	return nil
}

// jsonText renders a JSON-like value as its JSON text for storage.
func jsonText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}
	return string(data), nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
