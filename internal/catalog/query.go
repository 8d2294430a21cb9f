package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound reports that no run matches the requested ID.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguousID reports that an ID prefix matches several runs.
	ErrAmbiguousID = errors.New("run ID prefix is ambiguous")
)

const runColumns = `id, operation, command, wavefunction, artifact, exit_code, error, started_at, finished_at`

// List returns recorded runs, newest first. A non-empty operation
// restricts the listing; limit > 0 caps the row count.
//
// Returns an empty slice (not nil) when nothing matches.
func (c *Catalog) List(ctx context.Context, operation string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// Get retrieves one run by its full ID, falling back to a unique prefix
// match so truncated IDs from a listing still resolve.
func (c *Catalog) Get(ctx context.Context, id string) (*Run, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return &run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id LIKE ? || '%'
		ORDER BY id
		LIMIT 2
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		match, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	err := row.Scan(
		&run.ID,
		&run.Operation,
		&run.Command,
		&run.Wavefunction,
		&run.Artifact,
		&run.ExitCode,
		&run.Error,
		&started,
		&finished,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}
