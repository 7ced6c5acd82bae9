package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rootsploit/arecon/internal/command"
	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/target"
	"github.com/rootsploit/arecon/internal/tools"
)

// Resolver finds the binary that implements a tool. *tools.Checker
// satisfies it.
type Resolver interface {
	Resolve(t tools.Tool) (tools.Resolution, bool)
}

// Pipeline runs the fixed roster against one target at a time. It holds no
// per-target state, so one Pipeline serves every concurrent target.
type Pipeline struct {
	cfg      *config.Config
	resolver Resolver
	builder  *command.Builder
	invoker  Invoker
	progress *Progress
	log      logrus.FieldLogger
	roster   []tools.Tool
}

// NewPipeline wires the per-target sequencing.
func NewPipeline(cfg *config.Config, resolver Resolver, builder *command.Builder, invoker Invoker, progress *Progress, log logrus.FieldLogger) *Pipeline {
	if progress == nil {
		progress = NewProgress(nil)
	}
	return &Pipeline{
		cfg:      cfg,
		resolver: resolver,
		builder:  builder,
		invoker:  invoker,
		progress: progress,
		log:      log,
		roster:   tools.Roster(),
	}
}

// Dir returns the output directory for t.
func (p *Pipeline) Dir(t string) string {
	return filepath.Join(p.cfg.OutputDir, target.Sanitize(t))
}

// Run creates the target directory and attempts every roster tool in order.
// A tool that is excluded, absent or failing never stops the ones after it.
// Only an option-like target or a directory creation error aborts the target.
func (p *Pipeline) Run(ctx context.Context, t string) *TargetResult {
	res := &TargetResult{Target: t, Dir: p.Dir(t), Started: time.Now()}
	log := p.log.WithField("target", t)

	if err := command.CheckTarget(t); err != nil {
		return p.abort(res, log, err)
	}
	if !p.cfg.DryRun {
		if err := os.MkdirAll(res.Dir, 0o755); err != nil {
			return p.abort(res, log, fmt.Errorf("create output directory: %w", err))
		}
	}
	log.WithField("dir", res.Dir).Info("target started")

	for _, tool := range p.roster {
		if tool.AggressiveOnly && !p.cfg.Aggressive {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res.Outcomes = append(res.Outcomes, p.runTool(ctx, tool, t, res.Dir)...)
	}

	res.Duration = time.Since(res.Started)
	c := res.Counts()
	log.WithFields(logrus.Fields{
		"ok":                 c.OK,
		"failed":             c.Failed,
		"best_effort_failed": c.BestEffortFailed,
		"absent":             c.Absent,
		"excluded":           c.Excluded,
		"duration_ms":        res.Duration.Milliseconds(),
	}).Info("target finished")
	p.progress.Finished(t, res.Dir)
	return res
}

// abort ends a target before any tool runs.
func (p *Pipeline) abort(res *TargetResult, log logrus.FieldLogger, err error) *TargetResult {
	res.Err = err
	res.Duration = time.Since(res.Started)
	log.WithError(err).Error("target aborted")
	p.progress.TargetFailed(res.Target, err)
	return res
}

func (p *Pipeline) runTool(ctx context.Context, tool tools.Tool, t, dir string) []ToolOutcome {
	log := p.log.WithFields(logrus.Fields{"target": t, "tool": tool.Name})

	if !p.cfg.ToolAllowed(tool) {
		p.progress.Skipped(t, tool.Name, StatusExcluded)
		log.Debug("tool excluded by filter")
		return []ToolOutcome{{Tool: tool.Name, Status: StatusExcluded}}
	}

	resolution, ok := p.resolver.Resolve(tool)
	if !ok {
		p.progress.Skipped(t, tool.Name, StatusAbsent)
		log.WithField("binaries", tool.Binaries).Warn("tool not installed")
		absent := ToolOutcome{Tool: tool.Name, Binary: tool.Primary(), Status: StatusAbsent, BestEffort: tool.BestEffort}
		if p.cfg.DryRun {
			// Preview what would have run had the tool been installed.
			absent.DryRun = true
			if invs, err := p.builder.Build(tool, tools.Resolution{Binary: tool.Primary()}, t, dir); err == nil {
				for _, inv := range invs {
					p.progress.Command(t, inv.CommandLine())
				}
			}
		}
		return []ToolOutcome{absent}
	}

	invs, err := p.builder.Build(tool, resolution, t, dir)
	if err != nil {
		log.WithError(err).Error("build command")
		return []ToolOutcome{{Tool: tool.Name, Binary: resolution.Binary, Status: StatusFailed, BestEffort: tool.BestEffort, Error: err.Error()}}
	}

	outcomes := make([]ToolOutcome, 0, len(invs))
	for _, inv := range invs {
		outcomes = append(outcomes, p.invoker.Invoke(ctx, inv))
	}
	return outcomes
}
