package runner

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rootsploit/arecon/internal/command"
	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/exec"
)

// Invoker executes one built invocation and classifies the result.
type Invoker interface {
	Invoke(ctx context.Context, inv command.Invocation) ToolOutcome
}

// ExecFunc matches exec.Run.
type ExecFunc func(ctx context.Context, name string, args []string, opts *exec.Options) *exec.Result

// ToolRunner previews, echoes or executes invocations. It never retries.
type ToolRunner struct {
	dryRun       bool
	showCommands bool
	timeout      time.Duration
	progress     *Progress
	log          logrus.FieldLogger
	exec         ExecFunc
}

// NewToolRunner builds a runner for cfg's execution modes.
func NewToolRunner(cfg *config.Config, progress *Progress, log logrus.FieldLogger) *ToolRunner {
	if progress == nil {
		progress = NewProgress(nil)
	}
	return &ToolRunner{
		dryRun:       cfg.DryRun,
		showCommands: cfg.ShowCommands,
		timeout:      cfg.ToolTimeout,
		progress:     progress,
		log:          log,
		exec:         exec.Run,
	}
}

// Invoke runs inv. In dry-run mode nothing is spawned and no file is
// created; the command line is printed and the outcome is ok.
func (r *ToolRunner) Invoke(ctx context.Context, inv command.Invocation) ToolOutcome {
	out := ToolOutcome{
		Tool:       inv.Tool,
		Binary:     inv.Binary,
		Command:    inv.CommandLine(),
		Artifact:   inv.Artifact,
		BestEffort: inv.BestEffort,
	}

	if r.dryRun {
		r.progress.Command(inv.Target, out.Command)
		out.Status = StatusOK
		out.DryRun = true
		return out
	}

	r.progress.Running(inv.Target, inv.Tool, inv.Binary)
	if r.showCommands {
		r.progress.Command(inv.Target, out.Command)
	}

	res := r.exec(ctx, inv.Executable(), inv.Args, &exec.Options{
		Timeout:    r.timeout,
		StdoutFile: inv.Stdout,
		Target:     inv.Target,
	})
	out.ExitCode = res.ExitCode
	out.Duration = res.Duration
	out.TimedOut = res.TimedOut
	out.Status = StatusOK
	if res.Error != nil {
		out.Status = StatusFailed
		out.Error = errorText(res)
	}

	r.logOutcome(inv, out)
	r.progress.Outcome(inv.Target, out)
	return out
}

func (r *ToolRunner) logOutcome(inv command.Invocation, o ToolOutcome) {
	entry := r.log.WithFields(logrus.Fields{
		"target":      inv.Target,
		"tool":        o.Tool,
		"binary":      o.Binary,
		"status":      o.Status,
		"exit_code":   o.ExitCode,
		"duration_ms": o.Duration.Milliseconds(),
		"best_effort": o.BestEffort,
		"artifact":    o.Artifact,
	})
	switch {
	case o.Status == StatusOK:
		entry.Info("tool finished")
	case o.BestEffort:
		entry.WithField("error", o.Error).Warn("best-effort tool failed")
	default:
		entry.WithField("error", o.Error).Error("tool failed")
	}
	r.log.WithField("command", o.Command).Debug("tool command")
}

// errorText prefers the tail of the tool's stderr over the bare exit error.
func errorText(res *exec.Result) string {
	msg := res.Error.Error()
	if s := strings.TrimSpace(res.Stderr); s != "" {
		lines := strings.Split(s, "\n")
		msg += ": " + strings.TrimSpace(lines[len(lines)-1])
	}
	return msg
}
