package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/rootsploit/arecon/internal/command"
	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/debug"
	"github.com/rootsploit/arecon/internal/target"
	"github.com/rootsploit/arecon/internal/tools"
	"github.com/rootsploit/arecon/internal/version"
)

// History records runs. *storage.History satisfies it.
type History interface {
	CreateRun(ctx context.Context, id, version, input string, targets int, cfg any) error
	SaveTargetResult(ctx context.Context, runID string, r *TargetResult) error
	FinishRun(ctx context.Context, id, status string, c Counts) error
}

// Runner drives one arecon invocation: load targets, schedule pipelines,
// record history and print the summary.
type Runner struct {
	cfg      *config.Config
	resolver Resolver
	invoker  Invoker
	out      io.Writer
	log      logrus.FieldLogger
	history  History
	runID    string
}

// Option configures a Runner.
type Option func(*Runner)

// WithResolver replaces the PATH-based tool resolver.
func WithResolver(res Resolver) Option { return func(r *Runner) { r.resolver = res } }

// WithInvoker replaces the process-spawning tool runner.
func WithInvoker(inv Invoker) Option { return func(r *Runner) { r.invoker = inv } }

// WithOutput sets where progress lines go (default stdout).
func WithOutput(w io.Writer) Option { return func(r *Runner) { r.out = w } }

// WithLogger sets the structured run log.
func WithLogger(l logrus.FieldLogger) Option { return func(r *Runner) { r.log = l } }

// WithHistory records the run under runID.
func WithHistory(h History, runID string) Option {
	return func(r *Runner) {
		r.history = h
		r.runID = runID
	}
}

// New creates a Runner for a validated configuration.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, out: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		r.resolver = tools.NewChecker()
	}
	if r.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		r.log = l
	}
	return r
}

// Run processes every target and returns one result per target in input
// order. A cancelled ctx stops admissions and is returned as the error.
func (r *Runner) Run(ctx context.Context) ([]*TargetResult, error) {
	start := time.Now()
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	if r.cfg.Debug {
		debug.Enable(r.out)
	}

	targets, fromFile, err := target.Load(r.cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	if len(targets) == 0 {
		yellow.Fprintf(r.out, "⚠ No targets in %s\n", r.cfg.Target)
		return nil, nil
	}

	builder, err := command.NewBuilder(r.cfg)
	if err != nil {
		return nil, err
	}

	progress := NewProgress(r.out)
	invoker := r.invoker
	if invoker == nil {
		invoker = NewToolRunner(r.cfg, progress, r.log)
	}
	pipeline := NewPipeline(r.cfg, r.resolver, builder, invoker, progress, r.log)
	sched := NewScheduler(r.cfg.Concurrency, pipeline)

	history := r.history
	if r.cfg.DryRun {
		history = nil
	}
	// History writes must survive an interrupt so the run row is closed out.
	hctx := context.WithoutCancel(ctx)
	if history != nil {
		if err := history.CreateRun(hctx, r.runID, version.Short(), r.cfg.Target, len(targets), r.cfg); err != nil {
			r.log.WithError(err).Warn("history disabled")
			yellow.Fprintf(r.out, "⚠ Run history disabled: %v\n", err)
			history = nil
		} else {
			sched.OnComplete = func(res *TargetResult) {
				if err := history.SaveTargetResult(hctx, r.runID, res); err != nil {
					r.log.WithError(err).WithField("target", res.Target).Warn("save target history")
				}
			}
		}
	}

	r.log.WithFields(logrus.Fields{
		"run_id":      r.runID,
		"targets":     len(targets),
		"concurrency": r.cfg.Concurrency,
		"aggressive":  r.cfg.Aggressive,
		"fast":        r.cfg.Fast,
		"dry_run":     r.cfg.DryRun,
		"only":        r.cfg.Only,
	}).Info("run started")

	if r.cfg.DryRun {
		yellow.Fprintln(r.out, "[DRY RUN] Commands are printed, nothing is executed or written")
	}
	if wl := builder.Wordlist(); wl != r.cfg.Wordlist {
		gray.Fprintf(r.out, "[*] Wordlist %s not found, using %s\n", r.cfg.Wordlist, wl)
	}
	cyan.Fprintf(r.out, "[+] Starting active recon for %d target(s)", len(targets))
	if fromFile && r.cfg.Concurrency > 1 && len(targets) > 1 {
		cyan.Fprintf(r.out, " [%d parallel]", r.cfg.Concurrency)
	}
	cyan.Fprintln(r.out)

	var results []*TargetResult
	if fromFile {
		results = sched.Run(ctx, targets)
	} else {
		results = []*TargetResult{sched.RunOne(ctx, targets[0])}
	}

	status := "completed"
	if ctx.Err() != nil {
		status = "interrupted"
	}
	totals := Total(results)
	if history != nil {
		if err := history.FinishRun(hctx, r.runID, status, totals); err != nil {
			r.log.WithError(err).Warn("finish run history")
		}
	}
	r.log.WithFields(logrus.Fields{
		"run_id":             r.runID,
		"status":             status,
		"ok":                 totals.OK,
		"failed":             totals.Failed,
		"best_effort_failed": totals.BestEffortFailed,
		"absent":             totals.Absent,
		"excluded":           totals.Excluded,
		"duration_ms":        time.Since(start).Milliseconds(),
	}).Info("run finished")

	progress.Summary(results, time.Since(start))
	if r.runID != "" && history != nil {
		gray.Fprintf(r.out, "[*] Run %s recorded (arecon history --run %s)\n", r.runID, r.runID)
	}
	debug.Summary(r.out)

	return results, ctx.Err()
}
