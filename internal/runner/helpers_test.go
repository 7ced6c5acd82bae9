package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rootsploit/arecon/internal/command"
	"github.com/rootsploit/arecon/internal/tools"
)

// fakeResolver treats the listed binaries as installed.
type fakeResolver struct {
	installed map[string]bool
}

func installed(bins ...string) *fakeResolver {
	r := &fakeResolver{installed: map[string]bool{}}
	for _, b := range bins {
		r.installed[b] = true
	}
	return r
}

func allInstalled() *fakeResolver {
	var bins []string
	for _, t := range tools.Roster() {
		bins = append(bins, t.Binaries...)
	}
	return installed(bins...)
}

func (r *fakeResolver) Resolve(t tools.Tool) (tools.Resolution, bool) {
	for _, b := range t.Binaries {
		if r.installed[b] {
			return tools.Resolution{Binary: b, Path: "/usr/bin/" + b}, true
		}
	}
	return tools.Resolution{}, false
}

// recordingInvoker pretends to run tools: it writes each artifact and
// tracks how many invocations overlap.
type recordingInvoker struct {
	mu     sync.Mutex
	calls  []command.Invocation
	fail   map[string]bool // tool name -> exit 1
	delay  time.Duration
	before func() // runs at the start of every Invoke
	active int32
	peak   int32
}

func (r *recordingInvoker) Invoke(ctx context.Context, inv command.Invocation) ToolOutcome {
	if r.before != nil {
		r.before()
	}
	n := atomic.AddInt32(&r.active, 1)
	defer atomic.AddInt32(&r.active, -1)
	for {
		p := atomic.LoadInt32(&r.peak)
		if n <= p || atomic.CompareAndSwapInt32(&r.peak, p, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	r.calls = append(r.calls, inv)
	fail := r.fail[inv.Tool]
	r.mu.Unlock()

	out := ToolOutcome{Tool: inv.Tool, Binary: inv.Binary, Command: inv.CommandLine(), Artifact: inv.Artifact, BestEffort: inv.BestEffort, Status: StatusOK}
	if fail {
		out.Status = StatusFailed
		out.ExitCode = 1
		out.Error = errors.New("exit status 1").Error()
		return out
	}
	if inv.Artifact != "" {
		_ = os.WriteFile(inv.Artifact, []byte(inv.Tool+"\n"), 0o644)
	}
	return out
}

func (r *recordingInvoker) binaries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		out = append(out, c.Binary)
	}
	return out
}

func listFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func writeTargets(dir, content string) string {
	path := filepath.Join(dir, "targets.txt")
	_ = os.WriteFile(path, []byte(content), 0o644)
	return path
}
