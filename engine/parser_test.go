package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mp "github.com/chemform/molparse"
	"github.com/chemform/molparse/pkg/logger"
	"github.com/chemform/molparse/validate"
	"github.com/chemform/molparse/worker"
)

var samples = []string{
	"H2O",
	"Mg(OH)2",
	"CH3(CH2)6CH3",
	"(GFe)2{SO4(DC4)8}4",
	"K4[ON(SO3)2]2",
}

func newParser(t *testing.T, opts ...mp.Option) *Parser {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	p.SetLogger(logger.Nop())
	return p
}

func TestNew_Defaults(t *testing.T) {
	p := newParser(t)

	opts := p.Options()
	assert.True(t, opts.Validate)
	assert.False(t, opts.StrictMode)
	assert.True(t, opts.EnableCache)
	assert.NotNil(t, p.Metrics())
	assert.Len(t, p.Rules(), 3)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(func(o *mp.Options) { o.CacheSize = 0 })
	assert.Error(t, err)

	_, err = New(func(o *mp.Options) { o.WorkerCount = -1 })
	assert.Error(t, err)
}

func TestParse_Samples(t *testing.T) {
	p := newParser(t)
	ctx := context.Background()

	want := []string{
		"H2O -> {H: 2, O: 1}",
		"Mg(OH)2 -> {Mg: 1, O: 2, H: 2}",
		"CH3(CH2)6CH3 -> {C: 8, H: 18}",
		"(GFe)2{SO4(DC4)8}4 -> {G: 2, Fe: 2, S: 4, O: 16, D: 32, C: 128}",
		"K4[ON(SO3)2]2 -> {K: 4, O: 14, N: 2, S: 4}",
	}

	for i, formula := range samples {
		res, err := p.Parse(ctx, formula)
		require.NoError(t, err, formula)
		assert.Equal(t, want[i], res.String())
		assert.False(t, res.Cached)
	}

	assert.EqualValues(t, 5, p.Metrics().ParsesAccepted())
	assert.EqualValues(t, 0, p.Metrics().ParsesRejected())
}

func TestParse_Rejections(t *testing.T) {
	p := newParser(t)
	ctx := context.Background()

	tests := []struct {
		formula  string
		sentinel error
	}{
		{"", mp.ErrEmptyFormula},
		{"3H", mp.ErrBadStart},
		{"H2O+", mp.ErrIllegalCharacter},
		{"Mg(OH)2]", mp.ErrUnbalancedBrackets},
	}

	for _, tt := range tests {
		res, err := p.Parse(ctx, tt.formula)
		assert.Nil(t, res, tt.formula)
		assert.ErrorIs(t, err, tt.sentinel, tt.formula)
		assert.ErrorIs(t, err, mp.ErrValidation, tt.formula)
		assert.True(t, strings.HasPrefix(err.Error(), "molecule formula: "))
	}

	m := p.Metrics()
	assert.EqualValues(t, 4, m.ParsesRejected())

	brackets, ok := m.RuleStats("brackets")
	require.True(t, ok)
	assert.EqualValues(t, 2, brackets.Rejections)
	assert.EqualValues(t, 2, brackets.Checks)
}

func TestParse_Cache(t *testing.T) {
	p := newParser(t, mp.WithCacheSize(2))
	ctx := context.Background()

	first, err := p.Parse(ctx, "Mg(OH)2")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.Parse(ctx, "Mg(OH)2")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, first.Composition.Equal(&second.Composition))

	// results handed out are independent copies
	second.Composition.Add("Mg", 10)
	third, err := p.Parse(ctx, "Mg(OH)2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, third.Count("Mg"))

	stats := p.CacheStats()
	assert.Equal(t, 1, stats.Size)
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 2, p.Metrics().CacheHits())

	p.PurgeCache()
	assert.Equal(t, 0, p.CacheStats().Size)
}

func TestParse_CacheDisabled(t *testing.T) {
	p := newParser(t, mp.WithCache(false))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := p.Parse(ctx, "H2O")
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}
	assert.Equal(t, 0, p.CacheStats().Capacity)
	assert.EqualValues(t, 0, p.Metrics().CacheMisses())
}

func TestParse_ValidationDisabled(t *testing.T) {
	p := newParser(t, mp.WithValidation(false))
	ctx := context.Background()

	// lenient accumulator stops at the '+'
	res, err := p.Parse(ctx, "H2O+Na")
	require.NoError(t, err)
	assert.Equal(t, "H2O+Na -> {H: 2, O: 1}", res.String())

	assert.NoError(t, p.Validate(ctx, "%%%"))
}

func TestParse_StrictMode(t *testing.T) {
	p := newParser(t, append(mp.StrictOptions(), mp.WithValidation(false))...)
	ctx := context.Background()

	_, err := p.Parse(ctx, "H2O+Na")
	require.Error(t, err)
	assert.ErrorIs(t, err, mp.ErrStructure)

	var se *mp.StructuralError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, mp.FaultUnexpectedByte, se.Fault)
	assert.Equal(t, 3, se.Position)

	_, err = p.Parse(ctx, "H"+strings.Repeat("9", 30))
	assert.ErrorIs(t, err, mp.ErrCountOverflow)

	assert.EqualValues(t, 1, p.Metrics().StructuralFaults())
	assert.EqualValues(t, 2, p.Metrics().ParsesRejected())
}

func TestParse_SaturationWarns(t *testing.T) {
	p := newParser(t)
	var buf bytes.Buffer
	p.SetLogger(logger.New(&buf, logger.LevelWarn))

	res, err := p.Parse(context.Background(), "H99999999999999999999")
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), res.Count("H"))
	assert.Contains(t, buf.String(), "[WARN] atom count saturated formula=H99999999999999999999")

	buf.Reset()
	_, err = p.Parse(context.Background(), "H2O")
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestParse_MaxLength(t *testing.T) {
	p := newParser(t, mp.WithMaxFormulaLength(4))
	ctx := context.Background()

	_, err := p.Parse(ctx, "H2O")
	require.NoError(t, err)

	_, err = p.Parse(ctx, "Mg(OH)2")
	assert.ErrorIs(t, err, mp.ErrFormulaTooLong)

	assert.ErrorIs(t, p.Validate(ctx, "Mg(OH)2"), mp.ErrFormulaTooLong)
}

func TestParse_CancelledContext(t *testing.T) {
	p := newParser(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, "H2O")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, p.Validate(ctx, "H2O"), context.Canceled)
	assert.EqualValues(t, 0, p.Metrics().ParsesTotal())
}

func TestValidate(t *testing.T) {
	p := newParser(t)
	ctx := context.Background()

	for _, formula := range samples {
		assert.NoError(t, p.Validate(ctx, formula), formula)
	}
	ve, ok := mp.IsValidationError(p.Validate(ctx, "(something][FE}"))
	require.True(t, ok)
	assert.Equal(t, mp.ReasonUnbalanced, ve.Reason)
	assert.Equal(t, 0, ve.Position)
}

func TestAddRule(t *testing.T) {
	p := newParser(t)
	ctx := context.Background()

	_, err := p.Parse(ctx, "H2O")
	require.NoError(t, err)

	noWater := errors.New("water is not allowed")
	p.AddRule(validate.NewRuleFunc("no-water", func(formula string) error {
		if formula == "H2O" {
			return noWater
		}
		return nil
	}))
	p.AddRule(nil)
	require.Len(t, p.Rules(), 4)

	// the earlier cached result must not bypass the new rule
	_, err = p.Parse(ctx, "H2O")
	assert.ErrorIs(t, err, noWater)

	_, err = p.Parse(ctx, "NaCl")
	assert.NoError(t, err)

	stats, ok := p.Metrics().RuleStats("no-water")
	require.True(t, ok)
	assert.EqualValues(t, 1, stats.Rejections)
}

func TestParse_LogsRejections(t *testing.T) {
	var buf bytes.Buffer
	p := newParser(t)
	p.SetLogger(logger.New(&buf, logger.LevelDebug))

	_, err := p.Parse(context.Background(), "3H")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "formula rejected formula=3H rule=starts-with")
}

func TestParseBatch(t *testing.T) {
	p := newParser(t, mp.WithWorkerCount(3))
	formulas := append([]string{"Mg(OH)2]"}, samples...)

	br := p.ParseBatch(context.Background(), formulas)
	require.Len(t, br.Results, len(formulas))
	assert.Equal(t, 1, br.FailedJobs)
	assert.Equal(t, len(formulas), br.CompletedJobs)

	assert.ErrorIs(t, br.Results[0].Error, mp.ErrUnbalancedBrackets)
	for i, r := range br.Results[1:] {
		require.True(t, r.OK(), r.Formula)
		assert.Equal(t, samples[i], r.Result.Formula)
	}
}

func TestParseLines(t *testing.T) {
	p := newParser(t, mp.WithWorkerCount(2))
	input := "H2O\n\n  Mg(OH)2  \n3H\nK4[ON(SO3)2]2\n"

	got := map[int]string{}
	failed := 0
	for r := range p.ParseLines(context.Background(), strings.NewReader(input)) {
		if r.Error != nil {
			failed++
			continue
		}
		got[r.Index] = r.Result.String()
	}

	assert.Equal(t, 1, failed)
	assert.Equal(t, map[int]string{
		0: "H2O -> {H: 2, O: 1}",
		1: "Mg(OH)2 -> {Mg: 1, O: 2, H: 2}",
		3: "K4[ON(SO3)2]2 -> {K: 4, O: 14, N: 2, S: 4}",
	}, got)
}

func TestParseLines_LongLine(t *testing.T) {
	p := newParser(t, mp.WithWorkerCount(2))
	long := strings.Repeat("H", 70000)
	input := "H2O\n" + long + "\nMg(OH)2\n"

	got := map[int]string{}
	for r := range p.ParseLines(context.Background(), strings.NewReader(input)) {
		require.NoError(t, r.Error)
		got[r.Index] = r.Result.Composition.String()
	}

	assert.Equal(t, map[int]string{
		0: "{H: 2, O: 1}",
		1: "{H: 70000}",
		2: "{Mg: 1, O: 2, H: 2}",
	}, got)
}

func TestParseLines_NoTrailingNewline(t *testing.T) {
	p := newParser(t)

	var results []string
	for r := range p.ParseLines(context.Background(), strings.NewReader("NaCl")) {
		require.NoError(t, r.Error)
		results = append(results, r.Result.String())
	}
	assert.Equal(t, []string{"NaCl -> {Na: 1, Cl: 1}"}, results)
}

func TestParseLines_ReadError(t *testing.T) {
	p := newParser(t, mp.WithWorkerCount(1))
	diskErr := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("H2O\nNaCl\n"), iotest.ErrReader(diskErr))

	var failures []*worker.JobResult
	parsed := 0
	for res := range p.ParseLines(context.Background(), r) {
		if res.Error != nil {
			failures = append(failures, res)
			continue
		}
		parsed++
	}

	assert.Equal(t, 2, parsed)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Error, ErrRead)
	assert.ErrorIs(t, failures[0].Error, diskErr)
	assert.Equal(t, 2, failures[0].Index)
}

func TestCollector(t *testing.T) {
	p := newParser(t)
	ctx := context.Background()

	_, _ = p.Parse(ctx, "H2O")
	_, _ = p.Parse(ctx, "H2O")
	_, _ = p.Parse(ctx, "3H")

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(p.Collector("")))

	expected := `
# HELP molparse_parses_total Formulas parsed, by outcome.
# TYPE molparse_parses_total counter
molparse_parses_total{outcome="accepted"} 2
molparse_parses_total{outcome="rejected"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "molparse_parses_total")
	assert.NoError(t, err)
}

func TestMetricsDisabled(t *testing.T) {
	p := newParser(t, mp.WithMetrics(false), mp.WithTracing(false))
	ctx := context.Background()

	_, err := p.Parse(ctx, "H2O")
	require.NoError(t, err)
	_, err = p.Parse(ctx, "3H")
	require.Error(t, err)

	assert.EqualValues(t, 0, p.Metrics().ParsesTotal())
	assert.Empty(t, p.Metrics().AllRuleStats())
}

func ExampleParser_Parse() {
	p, err := New()
	if err != nil {
		panic(err)
	}
	p.SetLogger(logger.Nop())

	for _, formula := range []string{"Mg(OH)2", "Mg(OH)2]"} {
		res, err := p.Parse(context.Background(), formula)
		if err != nil {
			fmt.Println("Invalid formula!", err)
			continue
		}
		fmt.Println(res)
	}
	// Output:
	// Mg(OH)2 -> {Mg: 1, O: 2, H: 2}
	// Invalid formula! molecule formula: formula should have a matching set of opening and closing brackets (offset 7)
}

func BenchmarkParse(b *testing.B) {
	p, err := New(mp.WithCache(false), mp.WithTracing(false))
	if err != nil {
		b.Fatal(err)
	}
	p.SetLogger(logger.Nop())
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(ctx, samples[i%len(samples)]); err != nil {
			b.Fatal(err)
		}
	}
}
