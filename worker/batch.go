package worker

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Batch parses many formulas in parallel.
type Batch struct {
	parse   ParseFunc
	workers int
}

// NewBatch creates a Batch running at most workers parses at once.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewBatch(parse ParseFunc, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{parse: parse, workers: workers}
}

// Workers returns the concurrency limit.
func (b *Batch) Workers() int {
	return b.workers
}

// Run parses every formula. Failures are recorded per job and never stop
// the batch. When ctx is cancelled, jobs not yet started carry ctx.Err().
func (b *Batch) Run(ctx context.Context, formulas []string) *BatchResult {
	start := time.Now()
	br := &BatchResult{
		ID:        uuid.NewString(),
		Results:   make([]*JobResult, len(formulas)),
		TotalJobs: len(formulas),
	}
	if len(formulas) == 0 {
		return br
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, formula := range formulas {
		g.Go(func() error {
			br.Results[i] = b.runOne(gCtx, i, formula)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range br.Results {
		if r.Error != nil {
			br.FailedJobs++
		}
		if !r.Skipped {
			br.CompletedJobs++
		}
	}
	br.TotalDuration = time.Since(start)
	return br
}

func (b *Batch) runOne(ctx context.Context, index int, formula string) *JobResult {
	jr := &JobResult{
		ID:      uuid.NewString(),
		Index:   index,
		Formula: formula,
	}
	if err := ctx.Err(); err != nil {
		jr.Error = err
		jr.Skipped = true
		return jr
	}
	if b.parse == nil {
		jr.Error = ErrNoParser
		return jr
	}

	start := time.Now()
	jr.Result, jr.Error = b.parse(ctx, formula)
	jr.Duration = time.Since(start)
	return jr
}

// RunBatch parses formulas with one worker per CPU.
func RunBatch(ctx context.Context, parse ParseFunc, formulas []string) *BatchResult {
	return NewBatch(parse, runtime.NumCPU()).Run(ctx, formulas)
}
