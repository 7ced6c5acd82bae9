package runner

import (
	"time"
)

// Status classifies one roster step for one target.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusAbsent   Status = "absent"
	StatusExcluded Status = "excluded"
)

// ToolOutcome records what happened to one invocation, or to a tool that
// never got as far as an invocation.
type ToolOutcome struct {
	Tool       string
	Binary     string
	Command    string // shell-quoted, for display only
	Artifact   string
	Status     Status
	ExitCode   int
	Duration   time.Duration
	BestEffort bool
	DryRun     bool
	TimedOut   bool
	Error      string
}

// CountsAsFailure reports whether the outcome belongs in the failure column
// of the summary. Best-effort failures are tallied separately.
func (o ToolOutcome) CountsAsFailure() bool {
	return o.Status == StatusFailed && !o.BestEffort
}

// TargetResult is the per-target status record returned by the scheduler.
type TargetResult struct {
	Target   string
	Dir      string
	Outcomes []ToolOutcome
	Started  time.Time
	Duration time.Duration
	// Err is set when the pipeline could not start, e.g. the output
	// directory could not be created. No tools run in that case.
	Err error
}

// Counts tallies outcomes by status.
type Counts struct {
	OK               int
	Failed           int
	BestEffortFailed int
	Absent           int
	Excluded         int
}

func (c *Counts) add(o ToolOutcome) {
	switch o.Status {
	case StatusOK:
		c.OK++
	case StatusFailed:
		if o.BestEffort {
			c.BestEffortFailed++
		} else {
			c.Failed++
		}
	case StatusAbsent:
		c.Absent++
	case StatusExcluded:
		c.Excluded++
	}
}

// Counts returns the status tally for r.
func (r *TargetResult) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		c.add(o)
	}
	return c
}

// Has reports whether any outcome for tool has the given status.
func (r *TargetResult) Has(tool string, status Status) bool {
	for _, o := range r.Outcomes {
		if o.Tool == tool && o.Status == status {
			return true
		}
	}
	return false
}

// Total sums the counts of every result.
func Total(results []*TargetResult) Counts {
	var c Counts
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, o := range r.Outcomes {
			c.add(o)
		}
	}
	return c
}
