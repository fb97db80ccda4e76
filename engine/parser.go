// Package engine ties validation, accumulation, caching and observability
// into a single Parser.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	mp "github.com/chemform/molparse"
	"github.com/chemform/molparse/cache"
	"github.com/chemform/molparse/parser"
	"github.com/chemform/molparse/pkg/logger"
	"github.com/chemform/molparse/validate"
	"github.com/chemform/molparse/worker"
)

// Outcome labels used in metrics and spans.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFault    = "fault"
	outcomeTooLong  = "too_long"
)

// Parser validates formulas and counts their atoms.
// It is safe for concurrent use once configured.
type Parser struct {
	options *mp.Options
	chain   *validate.Chain
	results *cache.Results
	metrics *mp.Metrics
	tracer  trace.Tracer
	log     *logger.Logger
}

// New creates a Parser with the default rule chain.
func New(opts ...mp.Option) (*Parser, error) {
	options := mp.Apply(opts...)
	if options.CacheSize <= 0 {
		return nil, fmt.Errorf("engine: cache size must be positive, got %d", options.CacheSize)
	}
	if options.WorkerCount <= 0 {
		return nil, fmt.Errorf("engine: worker count must be positive, got %d", options.WorkerCount)
	}

	p := &Parser{
		options: options,
		metrics: mp.NewMetrics(),
		tracer:  tracerFor(options.EnableTracing),
		log:     logger.Default().Named("engine"),
	}
	if options.EnableCache {
		p.results = cache.NewResults(options.CacheSize)
	}
	p.setChain(validate.DefaultChain())
	return p, nil
}

// setChain installs chain with an observer feeding per-rule metrics.
func (p *Parser) setChain(chain *validate.Chain) {
	if !p.options.CollectMetrics {
		p.chain = chain
		return
	}
	p.chain = chain.WithObserver(func(rule string, elapsed time.Duration, err error) {
		p.metrics.RecordRule(rule, elapsed, err != nil)
	})
}

// SetLogger replaces the logger. A nil logger discards output.
func (p *Parser) SetLogger(l *logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	p.log = l
}

// AddRule appends a validation rule after the built-in ones.
// It must not be called concurrently with Parse or Validate.
func (p *Parser) AddRule(rule validate.Rule) {
	if rule == nil {
		return
	}
	rules := append(p.chain.Rules(), rule)
	p.setChain(validate.NewChain(rules...))
	if p.results != nil {
		p.results.Purge()
	}
}

// Rules returns the active validation rules in order.
func (p *Parser) Rules() []validate.Rule {
	return p.chain.Rules()
}

// Validate checks formula against the rule chain. It returns nil when
// validation is disabled.
func (p *Parser) Validate(ctx context.Context, formula string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := startParseSpan(ctx, p.tracer, "Parser.Validate", formula)

	err := p.check(ctx, formula)
	endSpan(span, err, attribute.Bool("molparse.valid", err == nil))
	return err
}

func (p *Parser) check(ctx context.Context, formula string) error {
	if limit := p.options.MaxFormulaLength; limit > 0 && len(formula) > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", mp.ErrFormulaTooLong, len(formula), limit)
	}
	if !p.options.Validate {
		return nil
	}

	err := p.chain.Check(formula)
	if err != nil {
		if ve, ok := mp.IsValidationError(err); ok {
			if p.options.CollectMetrics {
				recordRuleInstrument(ctx, ve.Rule)
			}
			p.log.Debug("formula rejected", "formula", formula, "rule", ve.Rule, "reason", string(ve.Reason))
		}
	}
	return err
}

// Parse validates formula and returns its atom counts.
//
// Validation failures are returned as errors wrapping
// *molparse.ValidationError. In strict mode, input the accumulator cannot
// read yields a *molparse.StructuralError or molparse.ErrCountOverflow.
func (p *Parser) Parse(ctx context.Context, formula string) (*mp.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	ctx, span := startParseSpan(ctx, p.tracer, "Parser.Parse", formula)

	if err := p.check(ctx, formula); err != nil {
		outcome := outcomeRejected
		if errors.Is(err, mp.ErrFormulaTooLong) {
			outcome = outcomeTooLong
		}
		p.finish(ctx, span, start, outcome, nil, err)
		return nil, err
	}

	if p.results != nil {
		if res := p.results.Lookup(formula); res != nil {
			if p.options.CollectMetrics {
				p.metrics.RecordCacheHit()
			}
			p.finish(ctx, span, start, outcomeAccepted, res, nil)
			return res, nil
		}
		if p.options.CollectMetrics {
			p.metrics.RecordCacheMiss()
		}
	}

	acc := parser.New(formula, parser.WithStrict(p.options.StrictMode))
	if err := acc.Run(); err != nil {
		if errors.Is(err, mp.ErrStructure) && p.options.CollectMetrics {
			p.metrics.RecordStructuralFault()
		}
		p.log.Warn("accumulator fault", "formula", formula, "error", err)
		p.finish(ctx, span, start, outcomeFault, nil, err)
		return nil, err
	}

	if acc.Overflowed() {
		p.log.Warn("atom count saturated", "formula", formula, "limit", int64(math.MaxInt64))
	}

	res := &mp.Result{Formula: formula, Composition: acc.Result()}
	if p.results != nil {
		p.results.Store(formula, &res.Composition)
	}
	p.finish(ctx, span, start, outcomeAccepted, res, nil)
	return res, nil
}

// finish records metrics and ends the span for one Parse call.
func (p *Parser) finish(ctx context.Context, span trace.Span, start time.Time, outcome string, res *mp.Result, err error) {
	elapsed := time.Since(start)

	var atoms int64
	attrs := []attribute.KeyValue{attribute.String("molparse.outcome", outcome)}
	if res != nil {
		atoms = res.Composition.Total()
		attrs = append(attrs,
			attribute.Bool("molparse.cached", res.Cached),
			attribute.Int("molparse.distinct_atoms", res.Composition.Len()),
			attribute.Int64("molparse.atoms", atoms),
		)
	}

	if p.options.CollectMetrics {
		p.metrics.RecordParse(elapsed, err == nil)
		p.metrics.RecordAtoms(atoms)
		recordParseInstruments(ctx, elapsed, outcome, atoms)
	}
	endSpan(span, err, attrs...)
}

// ParseBatch parses formulas in parallel, using the configured worker
// count. Results are in input order.
func (p *Parser) ParseBatch(ctx context.Context, formulas []string) *worker.BatchResult {
	br := worker.NewBatch(p.Parse, p.options.WorkerCount).Run(ctx, formulas)
	p.log.Debug("batch finished", "batch", br.ID, "jobs", br.TotalJobs, "failed", br.FailedJobs,
		"duration", br.TotalDuration)
	return br
}

// ErrRead is wrapped by the failed result ParseLines emits when the input
// cannot be read to the end.
var ErrRead = errors.New("engine: read formulas")

// ParseLines parses each non-blank line of r on a worker pool. Results
// arrive in completion order; JobResult.Index is the line's position among
// the non-blank lines. Lines have no length limit.
//
// If reading stops early, one more failed result wrapping ErrRead (or the
// context error) is sent with the index of the first line not parsed. The
// channel is closed once every line has a result.
func (p *Parser) ParseLines(ctx context.Context, r io.Reader) <-chan *worker.JobResult {
	pool := worker.NewPool(ctx, p.Parse, p.options.WorkerCount)
	out := make(chan *worker.JobResult, p.options.WorkerCount)

	var stopped *worker.JobResult
	go func() {
		defer pool.Close()
		stopped = p.feed(ctx, pool, r)
	}()

	go func() {
		defer close(out)
		for res := range pool.Results() {
			out <- res
		}
		// pool.Close ran after feed returned, so stopped is settled.
		if stopped != nil {
			p.log.Error("reading formulas stopped", "line", stopped.Index, "error", stopped.Error)
			out <- stopped
		}
	}()

	return out
}

// feed submits every non-blank line of r to pool. It returns nil when r
// was read to the end, or a failed result for the first line it could not
// read or submit.
func (p *Parser) feed(ctx context.Context, pool *worker.Pool, r io.Reader) *worker.JobResult {
	br := bufio.NewReader(r)
	index := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return &worker.JobResult{
				ID:    uuid.NewString(),
				Index: index,
				Error: fmt.Errorf("%w: %w", ErrRead, err),
			}
		}

		if formula := strings.TrimSpace(line); formula != "" {
			if !pool.Submit(worker.Job{Formula: formula}) {
				cause := ctx.Err()
				if cause == nil {
					cause = context.Canceled
				}
				return &worker.JobResult{
					ID:      uuid.NewString(),
					Index:   index,
					Formula: formula,
					Error:   cause,
					Skipped: true,
				}
			}
			index++
		}

		if err != nil {
			return nil
		}
	}
}

// Metrics returns the parser's metrics.
func (p *Parser) Metrics() *mp.Metrics {
	return p.metrics
}

// Collector returns a Prometheus collector over the parser's metrics.
func (p *Parser) Collector(namespace string) *mp.Collector {
	return mp.NewCollector(p.metrics, namespace)
}

// CacheStats returns result cache statistics. It is the zero value when
// the cache is disabled.
func (p *Parser) CacheStats() cache.Stats {
	if p.results == nil {
		return cache.Stats{}
	}
	return p.results.Stats()
}

// PurgeCache drops every cached result.
func (p *Parser) PurgeCache() {
	if p.results != nil {
		p.results.Purge()
	}
}

// Options returns the parser's options.
func (p *Parser) Options() *mp.Options {
	return p.options
}
