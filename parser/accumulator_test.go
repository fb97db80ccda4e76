package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mp "github.com/chemform/molparse"
)

func TestAccumulator_Samples(t *testing.T) {
	tests := []struct {
		formula string
		want    mp.Composition
		order   []string
	}{
		{
			formula: "H2O",
			want:    mp.CompositionOf("H", 2, "O", 1),
			order:   []string{"H", "O"},
		},
		{
			formula: "Mg(OH)2",
			want:    mp.CompositionOf("Mg", 1, "O", 2, "H", 2),
			order:   []string{"Mg", "O", "H"},
		},
		{
			formula: "CH3(CH2)6CH3",
			want:    mp.CompositionOf("C", 8, "H", 18),
			order:   []string{"C", "H"},
		},
		{
			formula: "(GFe)2{SO4(DC4)8}4",
			want:    mp.CompositionOf("G", 2, "Fe", 2, "S", 4, "O", 16, "D", 32, "C", 128),
			order:   []string{"G", "Fe", "S", "O", "D", "C"},
		},
		{
			formula: "K4[ON(SO3)2]2",
			want:    mp.CompositionOf("K", 4, "O", 14, "N", 2, "S", 4),
			order:   []string{"K", "O", "N", "S"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			acc := New(tt.formula)
			require.NoError(t, acc.Run())

			got := acc.Result()
			assert.True(t, tt.want.Equal(&got), "got %s", got.String())
			assert.Equal(t, tt.order, got.Atoms())
			assert.Equal(t, 1, acc.Depth())
		})
	}
}

func TestAccumulator_String(t *testing.T) {
	acc := New("K4[ON(SO3)2]2")
	require.NoError(t, acc.Run())
	assert.Equal(t, "K4[ON(SO3)2]2 -> {K: 4, O: 14, N: 2, S: 4}", acc.String())
	assert.Equal(t, "Parser for formula: K4[ON(SO3)2]2", acc.Describe())
	assert.Equal(t, "K4[ON(SO3)2]2", acc.Formula())
}

func TestAccumulator_ResultBeforeRun(t *testing.T) {
	acc := New("H2O")
	got := acc.Result()
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 0, acc.Runs())
}

func TestAccumulator_ResultIsCopy(t *testing.T) {
	acc := New("H2O")
	require.NoError(t, acc.Run())

	got := acc.Result()
	got.Add("H", 10)

	again := acc.Result()
	assert.EqualValues(t, 2, again.Count("H"))
}

func TestAccumulator_RunTwiceDoubles(t *testing.T) {
	acc := New("Mg(OH)2")
	require.NoError(t, acc.Run())
	require.NoError(t, acc.Run())

	got := acc.Result()
	want := mp.CompositionOf("Mg", 2, "O", 4, "H", 4)
	assert.True(t, want.Equal(&got), "got %s", got.String())
	assert.Equal(t, 2, acc.Runs())

	acc.Reset()
	require.NoError(t, acc.Run())
	got = acc.Result()
	want = mp.CompositionOf("Mg", 1, "O", 2, "H", 2)
	assert.True(t, want.Equal(&got), "got %s", got.String())
}

func TestAccumulator_CountsAndMultipliers(t *testing.T) {
	tests := []struct {
		formula string
		want    mp.Composition
	}{
		{"H", mp.CompositionOf("H", 1)},
		{"Fe2", mp.CompositionOf("Fe", 2)},
		{"H0", mp.CompositionOf("H", 0)},
		{"(H2)0", mp.CompositionOf("H", 0)},
		{"HH", mp.CompositionOf("H", 2)},
		{"H10", mp.CompositionOf("H", 10)},
		{"(H)", mp.CompositionOf("H", 1)},
		{"()", mp.Composition{}},
		{"((H)2)3", mp.CompositionOf("H", 6)},
		{"H2(H)3", mp.CompositionOf("H", 5)},
		{"Uuo", mp.CompositionOf("Uu", 1)},
	}

	for _, tt := range tests {
		got, err := Parse(tt.formula)
		require.NoError(t, err, tt.formula)
		assert.True(t, tt.want.Equal(&got), "%s: got %s", tt.formula, got.String())
	}

	zero, err := Parse("H0")
	require.NoError(t, err)
	assert.True(t, zero.Has("H"), "a zero count still creates the entry")
}

func TestAccumulator_LenientStopsQuietly(t *testing.T) {
	tests := []struct {
		formula string
		want    mp.Composition
		depth   int
	}{
		// lowercase start matches nothing
		{"xyz", mp.Composition{}, 1},
		{"H2O+Na", mp.CompositionOf("H", 2, "O", 1), 1},
		{"H2)O", mp.CompositionOf("H", 2), 1},
		// the open group never closes and is left out of the result
		{"Na(OH", mp.CompositionOf("Na", 1), 2},
		{"", mp.Composition{}, 1},
	}

	for _, tt := range tests {
		acc := New(tt.formula)
		require.NoError(t, acc.Run(), tt.formula)
		got := acc.Result()
		assert.True(t, tt.want.Equal(&got), "%s: got %s", tt.formula, got.String())
		assert.Equal(t, tt.depth, acc.Depth(), tt.formula)
	}
}

func TestAccumulator_StrictFaults(t *testing.T) {
	tests := []struct {
		formula  string
		fault    mp.Fault
		position int
		depth    int
	}{
		{"xyz", mp.FaultUnexpectedByte, 0, 1},
		{"H2O+Na", mp.FaultUnexpectedByte, 3, 1},
		{"H2)O", mp.FaultUnmatchedClose, 2, 1},
		{"Na(OH", mp.FaultUnclosedGroup, 5, 2},
		{"((H)", mp.FaultUnclosedGroup, 4, 2},
	}

	for _, tt := range tests {
		acc := New(tt.formula, WithStrict(true))
		assert.True(t, acc.Strict())

		err := acc.Run()
		require.Error(t, err, tt.formula)
		assert.ErrorIs(t, err, mp.ErrStructure)

		var se *mp.StructuralError
		require.True(t, errors.As(err, &se), tt.formula)
		assert.Equal(t, tt.fault, se.Fault, tt.formula)
		assert.Equal(t, tt.position, se.Position, tt.formula)
		assert.Equal(t, tt.depth, se.Depth, tt.formula)
		assert.Equal(t, tt.formula, se.Formula)
	}
}

func TestAccumulator_StrictAcceptsWellFormed(t *testing.T) {
	for _, formula := range []string{"H2O", "Mg(OH)2", "K4[ON(SO3)2]2", "(GFe)2{SO4(DC4)8}4"} {
		_, err := Parse(formula, WithStrict(true))
		assert.NoError(t, err, formula)
	}
}

func TestAccumulator_Overflow(t *testing.T) {
	huge := "H" + strings.Repeat("9", 25)

	got, err := Parse(huge)
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), got.Count("H"))

	_, err = Parse(huge, WithStrict(true))
	assert.ErrorIs(t, err, mp.ErrCountOverflow)

	// fits per token, overflows once multiplied
	nested := "(H" + strconv.FormatInt(math.MaxInt64/2+1, 10) + ")2"
	got, err = Parse(nested)
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), got.Count("H"))

	_, err = Parse(nested, WithStrict(true))
	assert.ErrorIs(t, err, mp.ErrCountOverflow)

	// fits exactly
	exact := "H" + strconv.FormatInt(math.MaxInt64, 10)
	got, err = Parse(exact, WithStrict(true))
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), got.Count("H"))
}

func TestAccumulator_Overflowed(t *testing.T) {
	acc := New("H" + strings.Repeat("9", 20))
	assert.False(t, acc.Overflowed())

	require.NoError(t, acc.Run())
	assert.True(t, acc.Overflowed(), "lenient run must still flag saturation")
	res := acc.Result()
	assert.EqualValues(t, int64(math.MaxInt64), res.Count("H"))

	acc.Reset()
	assert.False(t, acc.Overflowed())

	// saturation before a lenient stop is still flagged
	acc = New("H" + strings.Repeat("9", 20) + "+O")
	require.NoError(t, acc.Run())
	assert.True(t, acc.Overflowed())

	acc = New("K4[ON(SO3)2]2")
	require.NoError(t, acc.Run())
	assert.False(t, acc.Overflowed())
}

func TestAccumulator_DeepNesting(t *testing.T) {
	depth := 5000
	formula := strings.Repeat("(", depth) + "H" + strings.Repeat(")", depth)

	acc := New(formula, WithStrict(true))
	require.NoError(t, acc.Run())
	got := acc.Result()
	assert.EqualValues(t, 1, got.Count("H"))
	assert.Equal(t, depth+1, acc.MaxDepth())
	assert.Equal(t, 1, acc.Depth())
}

func TestAccumulator_NilOption(t *testing.T) {
	acc := New("H2O", nil)
	require.NoError(t, acc.Run())
	assert.False(t, acc.Strict())
}

func ExampleAccumulator() {
	acc := New("K4[ON(SO3)2]2")
	if err := acc.Run(); err != nil {
		panic(err)
	}
	fmt.Println(acc)
	// Output: K4[ON(SO3)2]2 -> {K: 4, O: 14, N: 2, S: 4}
}

func BenchmarkAccumulator(b *testing.B) {
	formulas := []string{"H2O", "Mg(OH)2", "CH3(CH2)6CH3", "(GFe)2{SO4(DC4)8}4", "K4[ON(SO3)2]2"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		acc := New(formulas[i%len(formulas)])
		if err := acc.Run(); err != nil {
			b.Fatal(err)
		}
		_ = acc.Result()
	}
}
