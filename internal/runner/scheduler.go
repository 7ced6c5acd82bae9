package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// TargetRunner runs the whole roster for one target. *Pipeline satisfies it.
type TargetRunner interface {
	Run(ctx context.Context, target string) *TargetResult
}

// Scheduler admits targets into pipelines, never more than its limit at
// once. The semaphore belongs to the instance.
type Scheduler struct {
	sem    *semaphore.Weighted
	runner TargetRunner

	// OnComplete, when set, is called once per finished target. Calls may
	// arrive concurrently and in any order.
	OnComplete func(*TargetResult)
}

// NewScheduler creates a scheduler with the given concurrency ceiling.
// Limits below one are raised to one.
func NewScheduler(limit int, runner TargetRunner) *Scheduler {
	if limit < 1 {
		limit = 1
	}
	return &Scheduler{
		sem:    semaphore.NewWeighted(int64(limit)),
		runner: runner,
	}
}

// RunOne runs a single target synchronously on the calling goroutine.
func (s *Scheduler) RunOne(ctx context.Context, target string) *TargetResult {
	res := s.runner.Run(ctx, target)
	s.complete(res)
	return res
}

// Run launches one pipeline per target. Admission blocks while the ceiling
// is reached; after the last admission it waits for every pipeline. Results
// come back in input order. Targets never admitted because ctx was
// cancelled have a nil entry.
func (s *Scheduler) Run(ctx context.Context, targets []string) []*TargetResult {
	results := make([]*TargetResult, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			defer s.sem.Release(1)

			res := s.runner.Run(ctx, target)
			results[idx] = res
			s.complete(res)
		}(i, t)
	}

	wg.Wait()
	return results
}

func (s *Scheduler) complete(res *TargetResult) {
	if s.OnComplete != nil && res != nil {
		s.OnComplete(res)
	}
}
