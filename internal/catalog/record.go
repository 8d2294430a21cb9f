package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded invocation.
type Run struct {
	ID           string
	Operation    string
	Command      string
	Wavefunction string
	Artifact     string
	ExitCode     int
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// NewID mints a time-sortable UUIDv7 run identifier.
//
// Panics if UUID generation fails (should never happen in practice).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Record inserts one run and returns its ID, minting one when the caller
// left it empty. Duplicate IDs are silently ignored so retried
// recordings stay idempotent.
func (c *Catalog) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = NewID()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, operation, command, wavefunction, artifact, exit_code, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Operation,
		run.Command,
		run.Wavefunction,
		run.Artifact,
		run.ExitCode,
		run.Error,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.ID, nil
}
