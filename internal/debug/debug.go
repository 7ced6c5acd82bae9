package debug

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	enabled bool
	out     io.Writer = os.Stderr
	mu      sync.Mutex
	logs    []LogEntry
)

type LogEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	Target    string        `json:"target,omitempty"`
	Tool      string        `json:"tool"`
	Args      string        `json:"args"`
	Duration  time.Duration `json:"duration"`
	Status    string        `json:"status"`
}

// Enable turns on debug logging. Lines go to w, or stderr when w is nil.
func Enable(w io.Writer) {
	mu.Lock()
	enabled = true
	if w != nil {
		out = w
	}
	mu.Unlock()
}

// Reset disables debug logging and drops recorded entries.
func Reset() {
	mu.Lock()
	enabled = false
	out = os.Stderr
	logs = nil
	mu.Unlock()
}

// IsEnabled returns whether debug logging is enabled
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// LogStart logs the start of a tool execution
func LogStart(target, tool string, args []string) time.Time {
	start := time.Now()
	if !IsEnabled() {
		return start
	}
	mu.Lock()
	defer mu.Unlock()
	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    [DEBUG %s] START: [%s] %s %s\n", start.Format("15:04:05.000"), target, tool, strings.Join(args, " "))
	return start
}

// LogEnd logs the completion of a tool execution
func LogEnd(target, tool string, args []string, start time.Time, err error) {
	if !IsEnabled() {
		return
	}
	duration := time.Since(start)
	end := time.Now()

	status := "OK"
	statusColor := color.New(color.FgGreen)
	if err != nil {
		status = fmt.Sprintf("ERROR: %v", err)
		statusColor = color.New(color.FgRed)
	}

	mu.Lock()
	defer mu.Unlock()

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    [DEBUG %s] END:   [%s] %s ", end.Format("15:04:05.000"), target, tool)
	statusColor.Fprintf(out, "%s", status)
	gray.Fprintf(out, " (duration: %s)\n", duration.Round(time.Millisecond))

	logs = append(logs, LogEntry{
		Timestamp: end,
		Target:    target,
		Tool:      tool,
		Args:      strings.Join(args, " "),
		Duration:  duration,
		Status:    status,
	})
}

// Summary prints per-tool timing totals for the run.
func Summary(w io.Writer) {
	entries := GetLogs()
	if !IsEnabled() || len(entries) == 0 {
		return
	}

	type agg struct {
		runs   int
		failed int
		total  time.Duration
	}
	byTool := map[string]*agg{}
	var total time.Duration
	for _, l := range entries {
		a := byTool[l.Tool]
		if a == nil {
			a = &agg{}
			byTool[l.Tool] = a
		}
		a.runs++
		a.total += l.Duration
		if strings.HasPrefix(l.Status, "ERROR") {
			a.failed++
		}
		total += l.Duration
	}
	names := make([]string, 0, len(byTool))
	for n := range byTool {
		names = append(names, n)
	}
	sort.Strings(names)

	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "═══════════════════════════════════════════════════════")
	cyan.Fprintln(w, "                    DEBUG SUMMARY")
	cyan.Fprintln(w, "═══════════════════════════════════════════════════════")
	for _, n := range names {
		a := byTool[n]
		status := "✓"
		if a.failed > 0 {
			status = "✗"
		}
		fmt.Fprintf(w, "  %s %-20s %4d run(s) %10s\n", status, n, a.runs, a.total.Round(time.Millisecond))
	}
	fmt.Fprintln(w, "───────────────────────────────────────────────────────")
	fmt.Fprintf(w, "  Total tool execution time: %s\n", total.Round(time.Millisecond))
	fmt.Fprintf(w, "  Tools executed: %d\n", len(entries))
	cyan.Fprintln(w, "═══════════════════════════════════════════════════════")
}

// GetLogs returns all logged entries
func GetLogs() []LogEntry {
	mu.Lock()
	defer mu.Unlock()
	return append([]LogEntry{}, logs...)
}
