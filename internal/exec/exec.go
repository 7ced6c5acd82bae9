package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rootsploit/arecon/internal/debug"
)

// processManager tracks all running child processes for cleanup
var (
	runningProcesses = make(map[int]*exec.Cmd)
	processMu        sync.Mutex
)

// trackProcess adds a process to the tracking map
func trackProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		processMu.Lock()
		runningProcesses[cmd.Process.Pid] = cmd
		processMu.Unlock()
	}
}

// untrackProcess removes a process from the tracking map
func untrackProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		processMu.Lock()
		delete(runningProcesses, cmd.Process.Pid)
		processMu.Unlock()
	}
}

// Running returns how many child processes are currently tracked.
func Running() int {
	processMu.Lock()
	defer processMu.Unlock()
	return len(runningProcesses)
}

// KillAllProcesses terminates all tracked child processes and their process groups
func KillAllProcesses() {
	processMu.Lock()
	defer processMu.Unlock()

	for pid, cmd := range runningProcesses {
		if cmd.Process != nil {
			// Kill the entire process group (negative PID)
			syscall.Kill(-pid, syscall.SIGKILL)
			cmd.Process.Kill()
		}
	}
	runningProcesses = make(map[int]*exec.Cmd)
}

// stderrLimit caps how much stderr is kept for error reporting.
const stderrLimit = 4096

type Result struct {
	Stderr   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
	Error    error
}

type Options struct {
	// Timeout bounds the run; zero means no limit.
	Timeout time.Duration
	// StdoutFile receives standard output.
	StdoutFile string
	// Stdout receives standard output when StdoutFile is empty; with
	// neither set it is discarded.
	Stdout io.Writer
	// Target labels debug lines.
	Target string
}

// Run starts name in its own process group and waits for it. Cancelling ctx
// or hitting the timeout kills the whole group.
func Run(ctx context.Context, name string, args []string, opts *Options) *Result {
	if opts == nil {
		opts = &Options{}
	}

	start := debug.LogStart(opts.Target, name, args)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	// Create new process group so we can kill all child processes
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	r := &Result{ExitCode: -1}
	stderr := &tailBuffer{max: stderrLimit}
	cmd.Stderr = stderr

	if opts.StdoutFile != "" {
		f, err := os.Create(opts.StdoutFile)
		if err != nil {
			r.Error = fmt.Errorf("open stdout file: %w", err)
			r.Duration = time.Since(start)
			debug.LogEnd(opts.Target, name, args, start, r.Error)
			return r
		}
		defer f.Close()
		cmd.Stdout = f
	} else if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}

	err := cmd.Start()
	if err == nil {
		trackProcess(cmd)
		err = cmd.Wait()
		untrackProcess(cmd)
	}

	r.Stderr = stderr.String()
	r.Duration = time.Since(start)
	if cmd.ProcessState != nil {
		r.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		r.Error = err
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.TimedOut = true
			r.Error = fmt.Errorf("timed out after %s: %w", opts.Timeout, err)
		}
	}

	debug.LogEnd(opts.Target, name, args, start, r.Error)
	return r
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
