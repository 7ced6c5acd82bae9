package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/rootsploit/arecon/internal/runner"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// History stores runs in SQLite. Safe for concurrent use; writes are
// serialized over a single connection.
type History struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the history database at dbPath.
// dbPath may be ":memory:" for tests.
func Open(dbPath string) (*History, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	h := &History{db: db, dbPath: dbPath}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return h, nil
}

func (h *History) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		version TEXT,
		input TEXT,
		config_json TEXT,
		targets INTEGER DEFAULT 0,
		status TEXT DEFAULT 'running',
		started_at TEXT NOT NULL,
		finished_at TEXT,
		ok INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		best_effort_failed INTEGER DEFAULT 0,
		absent INTEGER DEFAULT 0,
		excluded INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS target_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		target TEXT NOT NULL,
		dir TEXT,
		error TEXT,
		started_at TEXT,
		duration_ms INTEGER,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_target_results_run ON target_results(run_id);

	CREATE TABLE IF NOT EXISTS tool_outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		target TEXT NOT NULL,
		tool TEXT NOT NULL,
		bin TEXT,
		command TEXT,
		status TEXT NOT NULL,
		exit_code INTEGER,
		duration_ms INTEGER,
		best_effort INTEGER DEFAULT 0,
		timed_out INTEGER DEFAULT 0,
		error TEXT,
		artifact TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_tool_outcomes_run ON tool_outcomes(run_id);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Path returns the database location.
func (h *History) Path() string { return h.dbPath }

// Close closes the database connection
func (h *History) Close() error {
	return h.db.Close()
}

// CreateRun inserts a run row in the running state. cfg is stored as JSON.
func (h *History) CreateRun(ctx context.Context, id, version, input string, targets int, cfg any) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO runs (id, version, input, config_json, targets, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, version, input, string(cfgJSON), targets, RunRunning, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// SaveTargetResult records one finished pipeline and its outcomes in a
// single transaction.
func (h *History) SaveTargetResult(ctx context.Context, runID string, r *runner.TargetResult) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO target_results (run_id, target, dir, error, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, r.Target, r.Dir, errText, formatTime(r.Started), r.Duration.Milliseconds()); err != nil {
		return fmt.Errorf("save target %s: %w", r.Target, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tool_outcomes (run_id, target, tool, bin, command, status, exit_code, duration_ms, best_effort, timed_out, error, artifact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range r.Outcomes {
		if _, err := stmt.ExecContext(ctx, runID, r.Target, o.Tool, o.Binary, o.Command, string(o.Status),
			o.ExitCode, o.Duration.Milliseconds(), boolInt(o.BestEffort), boolInt(o.TimedOut), o.Error, o.Artifact); err != nil {
			return fmt.Errorf("save outcome %s/%s: %w", r.Target, o.Tool, err)
		}
	}
	return tx.Commit()
}

// FinishRun stamps the run with its final status and totals.
func (h *History) FinishRun(ctx context.Context, id, status string, c runner.Counts) error {
	res, err := h.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, ok = ?, failed = ?, best_effort_failed = ?, absent = ?, excluded = ? WHERE id = ?`,
		status, formatTime(time.Now()), c.OK, c.Failed, c.BestEffortFailed, c.Absent, c.Excluded, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, version, input, config_json, targets, status, started_at, COALESCE(finished_at, ''),
	ok, failed, best_effort_failed, absent, excluded`

// ListRuns returns the most recent runs, newest first.
func (h *History) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id.
func (h *History) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// GetTargets returns the target rows of a run in insertion order.
func (h *History) GetTargets(ctx context.Context, runID string) ([]TargetRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_id, target, COALESCE(dir, ''), COALESCE(error, ''), COALESCE(started_at, ''), COALESCE(duration_ms, 0)
		 FROM target_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TargetRecord
	for rows.Next() {
		var t TargetRecord
		var started string
		var ms int64
		if err := rows.Scan(&t.RunID, &t.Target, &t.Dir, &t.Error, &started, &ms); err != nil {
			return nil, err
		}
		t.StartedAt = parseTime(started)
		t.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetOutcomes returns the tool outcomes of a run in insertion order.
func (h *History) GetOutcomes(ctx context.Context, runID string) ([]OutcomeRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_id, target, tool, COALESCE(bin, ''), COALESCE(command, ''), status, COALESCE(exit_code, 0),
			COALESCE(duration_ms, 0), best_effort, timed_out, COALESCE(error, ''), COALESCE(artifact, '')
		 FROM tool_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var ms int64
		var bestEffort, timedOut int
		if err := rows.Scan(&o.RunID, &o.Target, &o.Tool, &o.Binary, &o.Command, &o.Status, &o.ExitCode,
			&ms, &bestEffort, &timedOut, &o.Error, &o.Artifact); err != nil {
			return nil, err
		}
		o.Duration = time.Duration(ms) * time.Millisecond
		o.BestEffort = bestEffort != 0
		o.TimedOut = timedOut != 0
		out = append(out, o)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var r RunRecord
	var version, input, cfg sql.NullString
	var started, finished string
	err := s.Scan(&r.ID, &version, &input, &cfg, &r.Targets, &r.Status, &started, &finished,
		&r.OK, &r.Failed, &r.BestEffortFailed, &r.Absent, &r.Excluded)
	if err != nil {
		return r, err
	}
	r.Version = version.String
	r.Input = input.String
	r.ConfigJSON = cfg.String
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}

// timeLayout is fixed-width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
