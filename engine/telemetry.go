package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/chemform/molparse/engine"

// Package-level meter for parse operations. Instruments are created on
// first use so a MeterProvider installed at startup is picked up.
var meter = otel.Meter(instrumentationName)

var (
	parseLatency   metric.Float64Histogram
	parseTotal     metric.Int64Counter
	atomsTotal     metric.Int64Counter
	ruleRejections metric.Int64Counter

	instrumentsOnce sync.Once
	instrumentsErr  error
)

// initInstruments creates the instruments. Safe to call multiple times.
func initInstruments() error {
	instrumentsOnce.Do(func() {
		var err error

		parseLatency, err = meter.Float64Histogram(
			"molparse_parse_duration_seconds",
			metric.WithDescription("Duration of formula parses"),
			metric.WithUnit("s"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}

		parseTotal, err = meter.Int64Counter(
			"molparse_parse_total",
			metric.WithDescription("Formulas parsed, by outcome"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}

		atomsTotal, err = meter.Int64Counter(
			"molparse_atoms_total",
			metric.WithDescription("Atoms counted over accepted formulas"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}

		ruleRejections, err = meter.Int64Counter(
			"molparse_rule_rejections_total",
			metric.WithDescription("Formulas rejected, by validation rule"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}
	})
	return instrumentsErr
}

// tracerFor returns the global tracer, or a no-op tracer when tracing is
// disabled.
func tracerFor(enabled bool) trace.Tracer {
	if !enabled {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return otel.Tracer(instrumentationName)
}

func startParseSpan(ctx context.Context, tracer trace.Tracer, name, formula string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("molparse.formula", formula),
			attribute.Int("molparse.formula_length", len(formula)),
		),
	)
}

// endSpan records the outcome on span and ends it.
func endSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func recordParseInstruments(ctx context.Context, d time.Duration, outcome string, atoms int64) {
	if err := initInstruments(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	parseLatency.Record(ctx, d.Seconds(), attrs)
	parseTotal.Add(ctx, 1, attrs)
	if atoms > 0 {
		atomsTotal.Add(ctx, atoms)
	}
}

func recordRuleInstrument(ctx context.Context, rule string) {
	if err := initInstruments(); err != nil {
		return
	}
	ruleRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
}
