package runner

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Progress prints human-readable per-tool lines. Thread-safe for concurrent
// pipelines; every line is prefixed with its target.
type Progress struct {
	mu     sync.Mutex
	w      io.Writer
	indent string
}

// NewProgress creates a reporter writing to w. A nil w discards output.
func NewProgress(w io.Writer) *Progress {
	if w == nil {
		w = io.Discard
	}
	return &Progress{w: w, indent: "  "}
}

func (p *Progress) line(c *color.Color, target, icon, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dim := color.New(color.Faint)
	dim.Fprintf(p.w, "%s[%s] ", p.indent, target)
	c.Fprintf(p.w, "%s %s\n", icon, fmt.Sprintf(format, args...))
}

// Running announces an invocation that is about to start.
func (p *Progress) Running(target, tool, binary string) {
	p.line(color.New(color.FgCyan), target, "◐", "running %s (%s)", tool, binary)
}

// Command echoes an expanded command line.
func (p *Progress) Command(target, line string) {
	p.line(color.New(color.FgHiBlack), target, "$", "%s", line)
}

// Skipped reports a tool that will not run and why.
func (p *Progress) Skipped(target, tool string, status Status) {
	switch status {
	case StatusExcluded:
		p.line(color.New(color.Faint), target, "○", "skipping %s (excluded by filter)", tool)
	default:
		p.line(color.New(color.FgYellow), target, "⏹", "skipping %s (not installed)", tool)
	}
}

// Outcome reports a finished invocation.
func (p *Progress) Outcome(target string, o ToolOutcome) {
	switch {
	case o.DryRun:
		return
	case o.Status == StatusOK:
		p.line(color.New(color.FgGreen), target, "✓", "%s done in %s", o.Tool, o.Duration.Round(time.Millisecond))
	case o.BestEffort:
		p.line(color.New(color.FgYellow), target, "✗", "%s exited %d (best-effort, ignored)", o.Tool, o.ExitCode)
	default:
		p.line(color.New(color.FgRed), target, "✗", "%s failed: %s", o.Tool, o.Error)
	}
}

// Finished is printed once per target.
func (p *Progress) Finished(target, dir string) {
	p.line(color.New(color.FgGreen, color.Bold), target, "✓", "finished: %s → %s", target, dir)
}

// TargetFailed reports a pipeline that could not start.
func (p *Progress) TargetFailed(target string, err error) {
	p.line(color.New(color.FgRed, color.Bold), target, "✗", "aborted: %v", err)
}

// Summary prints the end-of-run table and completion line.
func (p *Progress) Summary(results []*TargetResult, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	finished := 0
	for _, r := range results {
		if r != nil {
			finished++
		}
	}

	fmt.Fprintln(p.w)
	green.Fprintf(p.w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(p.w, "  %-28s %4s %6s %6s %6s %8s\n", "TARGET", "OK", "FAILED", "BEST*", "ABSENT", "EXCLUDED")
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Err != nil {
			red.Fprintf(p.w, "  %-28s aborted: %v\n", truncate(r.Target, 28), r.Err)
			continue
		}
		c := r.Counts()
		row := fmt.Sprintf("  %-28s %4d %6d %6d %6d %8d\n", truncate(r.Target, 28), c.OK, c.Failed, c.BestEffortFailed, c.Absent, c.Excluded)
		if c.Failed > 0 {
			red.Fprint(p.w, row)
		} else {
			fmt.Fprint(p.w, row)
		}
	}
	green.Fprintf(p.w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(p.w, "  * best-effort tools whose non-zero exit does not count as a failure\n")
	if finished < len(results) {
		red.Fprintf(p.w, "[!] %d of %d target(s) finished before interrupt\n", finished, len(results))
		return
	}
	green.Fprintf(p.w, "[+] all %d target(s) finished in %s\n", finished, elapsed.Round(time.Second))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
