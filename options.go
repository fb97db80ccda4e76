package molparse

import (
	"runtime"
)

// Option configures a Parser.
type Option func(*Options)

// Options holds all configuration for a Parser.
type Options struct {
	// Validation flags
	Validate   bool
	StrictMode bool

	// MaxFormulaLength rejects longer inputs before any work (0 = unlimited).
	MaxFormulaLength int

	// Performance
	WorkerCount int
	EnableCache bool
	CacheSize   int

	// Observability
	CollectMetrics bool
	EnableTracing  bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Validate:   true,
		StrictMode: false,

		MaxFormulaLength: 0, // unlimited

		WorkerCount: runtime.NumCPU(),
		EnableCache: true,
		CacheSize:   1024,

		CollectMetrics: true,
		EnableTracing:  true,
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// --- Validation Options ---

// WithValidation enables or disables the validator chain. Disabling it is
// the same as running with an empty rule set: every formula is accepted.
func WithValidation(enable bool) Option {
	return func(o *Options) {
		o.Validate = enable
	}
}

// WithStrictMode makes the accumulator report structural faults and
// count overflows instead of stopping silently.
func WithStrictMode(enable bool) Option {
	return func(o *Options) {
		o.StrictMode = enable
	}
}

// WithMaxFormulaLength limits the accepted input length in bytes.
// Use 0 for unlimited.
func WithMaxFormulaLength(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxFormulaLength = n
		}
	}
}

// --- Performance Options ---

// WithWorkerCount sets the number of workers for batch parsing.
// Defaults to runtime.NumCPU().
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// WithCache enables or disables the result cache.
func WithCache(enable bool) Option {
	return func(o *Options) {
		o.EnableCache = enable
	}
}

// WithCacheSize sets the result cache capacity.
func WithCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.CacheSize = size
		}
	}
}

// --- Observability Options ---

// WithMetrics enables in-process metric collection.
func WithMetrics(enable bool) Option {
	return func(o *Options) {
		o.CollectMetrics = enable
	}
}

// WithTracing enables OpenTelemetry spans around parse and validate calls.
func WithTracing(enable bool) Option {
	return func(o *Options) {
		o.EnableTracing = enable
	}
}

// --- Presets ---

// StrictOptions returns options that surface every fault.
func StrictOptions() []Option {
	return []Option{
		WithValidation(true),
		WithStrictMode(true),
	}
}

// FastOptions returns options for trusted, pre-validated input.
func FastOptions() []Option {
	return []Option{
		WithValidation(false),
		WithTracing(false),
		WithCacheSize(8192),
	}
}
