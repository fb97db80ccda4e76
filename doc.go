// Package molparse parses chemical molecular formulas and counts the atoms
// they represent.
//
// A formula is a flat string of atom symbols with optional counts, grouped
// by (), [] or {} brackets with optional trailing multipliers:
//
//	H2O            -> {H: 2, O: 1}
//	Mg(OH)2        -> {Mg: 1, O: 2, H: 2}
//	K4[ON(SO3)2]2  -> {K: 4, O: 14, N: 2, S: 4}
//
// # Quick Start
//
//	import (
//	    mp "github.com/chemform/molparse"
//	    "github.com/chemform/molparse/engine"
//	)
//
//	p, err := engine.New(mp.WithStrictMode(false))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := p.Parse(ctx, "Mg(OH)2")
//	if ve, ok := mp.IsValidationError(err); ok {
//	    fmt.Println("rejected:", ve.Reason)
//	}
//	fmt.Println(result) // Mg(OH)2 -> {Mg: 1, O: 2, H: 2}
//
// # Two Stages
//
// Parsing runs in two stages:
//
//   - validate: an ordered chain of stateless rules (non-empty, starts with
//     a letter or '(', only alphanumerics and brackets with balanced,
//     type-matched nesting). The first failing rule wins.
//   - parser: an Accumulator scans left to right with a stack of contexts,
//     pushing on opening brackets and folding scaled counts into the
//     parent on closing brackets.
//
// The lower-level packages can be used directly:
//
//	ok, err := validate.Validate("K4[ON(SO3)2]2", true)
//	acc := parser.New("K4[ON(SO3)2]2")
//	_ = acc.Run()
//	comp := acc.Result()
//
// # Functional Options
//
//	p, err := engine.New(
//	    mp.WithStrictMode(true),
//	    mp.WithCacheSize(4096),
//	    mp.WithWorkerCount(runtime.NumCPU()),
//	)
//
// # Observability
//
// Metrics are kept in lock-free counters (Metrics) and can be exported with
// a Prometheus Collector. The engine emits OpenTelemetry spans through the
// global tracer provider.
package molparse
