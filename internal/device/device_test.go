package device

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValid(t *testing.T, def *Definition, lo, hi float64) {
	t.Helper()
	require.NotNil(t, def)
	require.GreaterOrEqual(t, len(def.Labels), 2)
	require.Len(t, def.Probabilities, len(def.Labels))
	require.Len(t, def.CDF, len(def.Labels))

	assert.InDelta(t, 1.0, sum(def.Probabilities), 1e-6)
	for i, p := range def.Probabilities {
		assert.GreaterOrEqual(t, p, lo-1e-12, "probability %d", i)
		assert.LessOrEqual(t, p, hi+1e-12, "probability %d", i)
	}
	for i := 1; i < len(def.CDF); i++ {
		assert.GreaterOrEqual(t, def.CDF[i], def.CDF[i-1])
	}
	assert.InDelta(t, 1.0, def.CDF[len(def.CDF)-1], 1e-12)

	seen := map[string]bool{}
	for _, l := range def.Labels {
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"coin", "die", "spinner", "custom"} {
		kind, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, kind.String())
	}

	kind, err := ParseKind("  DIE ")
	require.NoError(t, err)
	assert.Equal(t, Die, kind)

	_, err = ParseKind("dice")
	assert.Error(t, err)
}

func TestBuildCoin(t *testing.T) {
	t.Run("defaults to fair", func(t *testing.T) {
		def := Build(Config{Kind: Coin})
		requireValid(t, def, coinMin, coinMax)
		assert.Equal(t, []string{"Heads", "Tails"}, def.Labels)
		assert.InDelta(t, 0.5, def.Probabilities[0], 1e-12)
		assert.Equal(t, "Coin", def.Name)
	})

	t.Run("keeps valid vector", func(t *testing.T) {
		def := Build(Config{Kind: Coin, CoinProbabilities: []float64{0.7, 0.3}})
		requireValid(t, def, coinMin, coinMax)
		assert.InDelta(t, 0.7, def.Probabilities[0], 1e-10)
		assert.InDelta(t, 0.3, def.Probabilities[1], 1e-10)
	})

	t.Run("normalizes keeping ratios", func(t *testing.T) {
		def := Build(Config{Kind: Coin, CoinProbabilities: []float64{0.8, 0.4}})
		requireValid(t, def, coinMin, coinMax)
		assert.InDelta(t, 2.0, def.Probabilities[0]/def.Probabilities[1], 1e-10)
	})

	t.Run("clamps extremes", func(t *testing.T) {
		def := Build(Config{Kind: Coin, CoinProbabilities: []float64{0.001, 0.999}})
		requireValid(t, def, coinMin, coinMax)
		assert.InDelta(t, 0.01, def.Probabilities[0], 1e-10)
		assert.InDelta(t, 0.99, def.Probabilities[1], 1e-10)
	})

	t.Run("certain outcome is pulled inside bounds", func(t *testing.T) {
		def := Build(Config{Kind: Coin, CoinProbabilities: []float64{1, 0}})
		requireValid(t, def, coinMin, coinMax)
	})

	t.Run("degenerate inputs fall back to fair", func(t *testing.T) {
		inputs := [][]float64{
			{0, 0},
			{-1, -2},
			{0.3},
			{0.2, 0.3, 0.5},
			{math.NaN(), math.NaN()},
		}
		for _, in := range inputs {
			def := Build(Config{Kind: Coin, CoinProbabilities: in})
			requireValid(t, def, coinMin, coinMax)
			assert.InDelta(t, 0.5, def.Probabilities[0], 1e-12, "input %v", in)
		}
	})

	t.Run("negative entries count as zero", func(t *testing.T) {
		def := Build(Config{Kind: Coin, CoinProbabilities: []float64{-0.5, 1}})
		requireValid(t, def, coinMin, coinMax)
		assert.InDelta(t, 0.01, def.Probabilities[0], 1e-10)
	})
}

func TestBuildDie(t *testing.T) {
	t.Run("defaults to fair", func(t *testing.T) {
		def := Build(Config{Kind: Die})
		requireValid(t, def, dieMin, dieMax)
		assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, def.Labels)
		for _, p := range def.Probabilities {
			assert.InDelta(t, 1.0/6, p, 1e-12)
		}
	})

	t.Run("normalizes", func(t *testing.T) {
		def := Build(Config{Kind: Die, DieProbabilities: []float64{0.2, 0.2, 0.2, 0.2, 0.2, 0.3}})
		requireValid(t, def, dieMin, dieMax)
	})

	t.Run("clamps and redistributes shortfall", func(t *testing.T) {
		def := Build(Config{Kind: Die, DieProbabilities: []float64{0.001, 0.001, 0.001, 0.001, 0.001, 0.995}})
		requireValid(t, def, dieMin, dieMax)
		assert.InDelta(t, 0.8, def.Probabilities[5], 1e-10)
	})

	t.Run("single certain face", func(t *testing.T) {
		def := Build(Config{Kind: Die, DieProbabilities: []float64{1, 0, 0, 0, 0, 0}})
		requireValid(t, def, dieMin, dieMax)
		assert.InDelta(t, 0.8, def.Probabilities[0], 1e-10)
		for _, p := range def.Probabilities[1:] {
			assert.InDelta(t, 0.04, p, 1e-10)
		}
	})

	t.Run("single pass leaves bounded residual", func(t *testing.T) {
		// Two heavy faces push four floors up at once; one corrective pass
		// cannot absorb all of it.
		def := Build(Config{Kind: Die, DieProbabilities: []float64{1, 1, 0, 0, 0, 0}})
		total := sum(def.Probabilities)
		assert.InDelta(t, 1.0015384615, total, 1e-9)
		assert.LessOrEqual(t, math.Abs(total-1), 4*dieMin)
		for _, p := range def.Probabilities {
			assert.GreaterOrEqual(t, p, dieMin)
			assert.LessOrEqual(t, p, dieMax)
		}
		assert.InDelta(t, 1.0, def.CDF[len(def.CDF)-1], 1e-12)
	})
}

func TestBuildSpinner(t *testing.T) {
	t.Run("uniform without skew", func(t *testing.T) {
		def := Build(Config{Kind: Spinner, SpinnerSectors: 4})
		requireValid(t, def, 0, 1)
		assert.Equal(t, []string{"1", "2", "3", "4"}, def.Labels)
		for _, p := range def.Probabilities {
			assert.InDelta(t, 0.25, p, 1e-12)
		}
	})

	t.Run("default sector count", func(t *testing.T) {
		def := Build(Config{Kind: Spinner})
		assert.Len(t, def.Labels, DefaultSpinnerSectors)
	})

	t.Run("positive skew favours high sectors", func(t *testing.T) {
		def := Build(Config{Kind: Spinner, SpinnerSectors: 5, SpinnerSkew: 0.5})
		requireValid(t, def, 0, 1)
		for i := 1; i < len(def.Probabilities); i++ {
			assert.Greater(t, def.Probabilities[i], def.Probabilities[i-1])
		}
		assert.InDelta(t, math.Exp(0.5), def.Probabilities[3]/def.Probabilities[2], 1e-10)
	})

	t.Run("negative skew mirrors", func(t *testing.T) {
		pos := Build(Config{Kind: Spinner, SpinnerSectors: 6, SpinnerSkew: 0.7})
		neg := Build(Config{Kind: Spinner, SpinnerSectors: 6, SpinnerSkew: -0.7})
		for i := range pos.Probabilities {
			assert.InDelta(t, pos.Probabilities[i], neg.Probabilities[5-i], 1e-12)
		}
	})

	t.Run("clamps parameters", func(t *testing.T) {
		def := Build(Config{Kind: Spinner, SpinnerSectors: 40, SpinnerSkew: 9})
		assert.Equal(t, MaxSpinnerSectors, def.Sectors)
		assert.Equal(t, 1.0, def.Skew)
		requireValid(t, def, 0, 1)

		def = Build(Config{Kind: Spinner, SpinnerSectors: 1, SpinnerSkew: -3})
		assert.Equal(t, MinSpinnerSectors, def.Sectors)
		assert.Equal(t, -1.0, def.Skew)
		requireValid(t, def, 0, 1)
	})
}

func TestBuildCustom(t *testing.T) {
	t.Run("dedups and drops blanks", func(t *testing.T) {
		def := Build(Config{Kind: Custom, Custom: CustomSettings{
			Name:     "  Weather ",
			Outcomes: []string{"Sun", " ", "Rain", "Sun", " Snow "},
		}})
		requireValid(t, def, 0, 1)
		assert.Equal(t, []string{"Sun", "Rain", "Snow"}, def.Labels)
		assert.Equal(t, "Weather", def.Name)
	})

	t.Run("probabilities follow their labels", func(t *testing.T) {
		def := Build(Config{Kind: Custom, Custom: CustomSettings{
			Outcomes:      []string{"A", "A", "B", ""},
			Probabilities: []float64{3, 100, 1, 100},
		}})
		requireValid(t, def, 0, 1)
		assert.Equal(t, []string{"A", "B"}, def.Labels)
		assert.InDelta(t, 0.75, def.Probabilities[0], 1e-12)
		assert.InDelta(t, 0.25, def.Probabilities[1], 1e-12)
		assert.Equal(t, DefaultCustomName, def.Name)
	})

	t.Run("fallback when fewer than two outcomes", func(t *testing.T) {
		for _, outcomes := range [][]string{nil, {"only"}, {" ", ""}, {"x", "x"}} {
			def := Build(Config{Kind: Custom, Custom: CustomSettings{Outcomes: outcomes, Probabilities: []float64{1}}})
			requireValid(t, def, 0, 1)
			assert.Equal(t, []string{"Outcome 1", "Outcome 2"}, def.Labels)
			assert.InDelta(t, 0.5, def.Probabilities[0], 1e-12)
		}
	})

	t.Run("truncates to max outcomes", func(t *testing.T) {
		outcomes := make([]string, 60)
		for i := range outcomes {
			outcomes[i] = fmt.Sprintf("o%d", i)
		}
		def := Build(Config{Kind: Custom, Custom: CustomSettings{Outcomes: outcomes}})
		requireValid(t, def, 0, 1)
		assert.Len(t, def.Labels, MaxCustomOutcomes)
		assert.Equal(t, "o49", def.Labels[49])
	})

	t.Run("invalid probabilities become uniform", func(t *testing.T) {
		outcomes := []string{"a", "b", "c"}
		cases := map[string][]float64{
			"length mismatch": {0.5, 0.5},
			"negative":        {0.5, -0.1, 0.6},
			"nan":             {0.5, math.NaN(), 0.5},
			"inf":             {math.Inf(1), 1, 1},
			"zero sum":        {0, 0, 0},
		}
		for name, probs := range cases {
			def := Build(Config{Kind: Custom, Custom: CustomSettings{Outcomes: outcomes, Probabilities: probs}})
			requireValid(t, def, 0, 1)
			for _, p := range def.Probabilities {
				assert.InDelta(t, 1.0/3, p, 1e-12, name)
			}
		}
	})

	t.Run("definition lookups", func(t *testing.T) {
		def := Build(Config{Kind: Custom, Custom: CustomSettings{Outcomes: []string{"x", "y"}}})
		assert.Equal(t, 1, def.Index("y"))
		assert.Equal(t, -1, def.Index("z"))
		assert.Equal(t, "x", def.Label(0))
		assert.Equal(t, "", def.Label(5))
		assert.Equal(t, 2, def.Len())
	})
}
