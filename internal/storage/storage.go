// Package storage keeps the run history: one row per run, one per target
// and one per tool outcome, in a SQLite database inside the output
// directory.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// NewRunID generates a short unique run identifier.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// Run statuses.
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
)

// RunRecord is one invocation of arecon.
type RunRecord struct {
	ID         string
	Version    string
	Input      string // positional target argument
	ConfigJSON string
	Targets    int
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running

	OK               int
	Failed           int
	BestEffortFailed int
	Absent           int
	Excluded         int
}

// TargetRecord is one pipeline within a run.
type TargetRecord struct {
	RunID     string
	Target    string
	Dir       string
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// OutcomeRecord is one tool step for one target.
type OutcomeRecord struct {
	RunID      string
	Target     string
	Tool       string
	Binary     string
	Command    string
	Status     string
	ExitCode   int
	Duration   time.Duration
	BestEffort bool
	TimedOut   bool
	Error      string
	Artifact   string
}
