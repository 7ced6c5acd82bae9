package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rootsploit/arecon/internal/runner"
)

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "out", "arecon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func sampleResult() *runner.TargetResult {
	return &runner.TargetResult{
		Target:   "a.test",
		Dir:      "recon_output/a.test",
		Started:  time.Now(),
		Duration: 1500 * time.Millisecond,
		Outcomes: []runner.ToolOutcome{
			{Tool: "portscan", Binary: "nmap", Command: "nmap -Pn a.test", Status: runner.StatusOK, Duration: time.Second},
			{Tool: "webvuln", Binary: "nikto", Status: runner.StatusAbsent},
			{Tool: "dirdiscovery", Binary: "gobuster", Status: runner.StatusFailed, ExitCode: 1, BestEffort: true, Error: "exit status 1"},
		},
	}
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	h := openTemp(t)

	id := NewRunID()
	require.Len(t, id, 8)
	require.NoError(t, h.CreateRun(ctx, id, "0.3.0", "targets.txt", 1, map[string]int{"concurrency": 2}))

	run, err := h.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.Status)
	assert.True(t, run.FinishedAt.IsZero())
	assert.Contains(t, run.ConfigJSON, `"concurrency":2`)

	res := sampleResult()
	require.NoError(t, h.SaveTargetResult(ctx, id, res))
	require.NoError(t, h.FinishRun(ctx, id, RunCompleted, res.Counts()))

	run, err = h.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.False(t, run.FinishedAt.IsZero())
	assert.Equal(t, 1, run.OK)
	assert.Equal(t, 1, run.Absent)
	assert.Equal(t, 1, run.BestEffortFailed)
	assert.Equal(t, 0, run.Failed)

	targets, err := h.GetTargets(ctx, id)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "recon_output/a.test", targets[0].Dir)
	assert.Equal(t, 1500*time.Millisecond, targets[0].Duration)

	outcomes, err := h.GetOutcomes(ctx, id)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.Equal(t, "portscan", outcomes[0].Tool)
	assert.Equal(t, "nmap -Pn a.test", outcomes[0].Command)
	assert.Equal(t, "absent", outcomes[1].Status)
	assert.True(t, outcomes[2].BestEffort)
	assert.Equal(t, 1, outcomes[2].ExitCode)
}

func TestSaveTargetError(t *testing.T) {
	ctx := context.Background()
	h := openTemp(t)
	id := NewRunID()
	require.NoError(t, h.CreateRun(ctx, id, "dev", "x", 1, nil))

	require.NoError(t, h.SaveTargetResult(ctx, id, &runner.TargetResult{Target: "x", Err: errors.New("permission denied")}))
	targets, err := h.GetTargets(ctx, id)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "permission denied", targets[0].Error)
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := openTemp(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id := NewRunID()
		ids = append(ids, id)
		require.NoError(t, h.CreateRun(ctx, id, "dev", "t", 1, nil))
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := h.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestUnknownRun(t *testing.T) {
	ctx := context.Background()
	h := openTemp(t)

	_, err := h.GetRun(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, h.FinishRun(ctx, "deadbeef", RunCompleted, runner.Counts{}), ErrRunNotFound)
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arecon.db")

	h, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, h.CreateRun(ctx, "abcd1234", "dev", "t", 1, nil))
	require.NoError(t, h.Close())

	h, err = Open(path)
	require.NoError(t, err)
	defer h.Close()
	run, err := h.GetRun(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "t", run.Input)
}
