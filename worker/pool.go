package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Pool keeps a fixed set of goroutines parsing formulas from a queue.
// It suits streams of unknown length; use Batch for a known slice.
type Pool struct {
	workers    int
	jobsChan   chan indexedJob
	resultChan chan *JobResult
	parse      ParseFunc
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool
	mu         sync.RWMutex

	next          atomic.Int64
	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	totalDuration atomic.Int64
}

type indexedJob struct {
	Job
	index int
}

// NewPool starts a pool with the given number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(ctx context.Context, parse ParseFunc, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan indexedJob, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		parse:      parse,
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit queues a job, blocking while the queue is full. It returns false
// once the pool is closed or its context is done.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}

	ij := p.prepare(job)
	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- ij:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// SubmitAsync queues a job without blocking. It returns false when the
// queue is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}

	ij := p.prepare(job)
	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- ij:
		p.jobsSubmitted.Add(1)
		return true
	default:
		return false
	}
}

func (p *Pool) prepare(job Job) indexedJob {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	return indexedJob{Job: job, index: int(p.next.Add(1) - 1)}
}

// Results returns the channel results are delivered on. It is closed by
// Close once every worker has stopped.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close stops accepting jobs, lets queued jobs finish and waits for the
// workers. The caller must keep draining Results until it is closed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.jobsChan)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.resultChan)
	p.cancel()
}

// Cancel aborts queued jobs and closes the pool. Results still buffered
// are discarded.
func (p *Pool) Cancel() {
	p.cancel()

	done := make(chan struct{})
	go func() {
		for range p.resultChan {
		}
		close(done)
	}()
	p.Close()
	<-done
}

// CloseAndWait closes the pool and collects every pending result.
func (p *Pool) CloseAndWait() *BatchResult {
	start := time.Now()
	results := make([]*JobResult, 0)

	done := make(chan struct{})
	go func() {
		for r := range p.resultChan {
			results = append(results, r)
		}
		close(done)
	}()
	p.Close()
	<-done

	return &BatchResult{
		ID:            uuid.NewString(),
		Results:       results,
		TotalJobs:     int(p.jobsSubmitted.Load()),
		CompletedJobs: int(p.jobsCompleted.Load()),
		FailedJobs:    int(p.jobsFailed.Load()),
		TotalDuration: time.Since(start),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	AvgDuration   time.Duration
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		JobsFailed:    p.jobsFailed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		result := p.process(job)
		p.jobsCompleted.Add(1)
		if result.Error != nil {
			p.jobsFailed.Add(1)
		}
		p.totalDuration.Add(int64(result.Duration))
		p.resultChan <- result
	}
}

func (p *Pool) process(job indexedJob) *JobResult {
	result := &JobResult{
		ID:      job.ID,
		Index:   job.index,
		Formula: job.Formula,
	}
	if err := p.ctx.Err(); err != nil {
		result.Error = err
		result.Skipped = true
		return result
	}
	if p.parse == nil {
		result.Error = ErrNoParser
		return result
	}

	start := time.Now()
	result.Result, result.Error = p.parse(p.ctx, job.Formula)
	result.Duration = time.Since(start)
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / int64(completed))
}

// ErrNoParser is returned when the pool or batch has no ParseFunc.
var ErrNoParser = poolError("no parse function configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
