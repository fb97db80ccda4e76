package worker

import (
	"context"
	"time"

	mp "github.com/chemform/molparse"
)

// ParseFunc parses a single formula.
type ParseFunc func(ctx context.Context, formula string) (*mp.Result, error)

// Job is one formula to parse.
type Job struct {
	// ID identifies the job in its JobResult. A random ID is assigned when
	// empty.
	ID string

	// Formula is the input text.
	Formula string
}

// JobResult is the outcome of one Job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string `json:"id"`

	// Index is the position of the formula in its batch, or the order of
	// submission for pool jobs.
	Index int `json:"index"`

	// Formula is the input text.
	Formula string `json:"formula"`

	// Result holds the composition when parsing succeeded.
	Result *mp.Result `json:"result,omitempty"`

	// Error is the validation or parse failure, if any.
	Error error `json:"-"`

	// Duration is the time spent on this job.
	Duration time.Duration `json:"duration"`

	// Skipped is set when the job never ran because its context was done.
	Skipped bool `json:"skipped,omitempty"`
}

// OK reports whether the job produced a result.
func (r *JobResult) OK() bool {
	return r.Error == nil && r.Result != nil
}

// BatchResult aggregates the results of a batch.
type BatchResult struct {
	// ID identifies the batch.
	ID string

	// Results are ordered like the input formulas.
	Results []*JobResult

	// TotalJobs is the number of formulas submitted.
	TotalJobs int

	// CompletedJobs counts jobs that ran, failed or not.
	CompletedJobs int

	// FailedJobs counts jobs that returned an error.
	FailedJobs int

	// TotalDuration is the wall time of the whole batch.
	TotalDuration time.Duration
}

// HasErrors reports whether any job failed or did not run.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r == nil || r.Error != nil {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of jobs that failed or did not run.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r == nil || r.Error != nil {
			count++
		}
	}
	return count
}

// Failures returns the failed job results in input order.
func (br *BatchResult) Failures() []*JobResult {
	var failed []*JobResult
	for _, r := range br.Results {
		if r != nil && r.Error != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
