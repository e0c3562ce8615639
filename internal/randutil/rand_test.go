package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draws(src Source, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = src.Float64()
	}
	return out
}

func TestHashString(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, HashString("test"), HashString("test"))
	})

	t.Run("distinct inputs", func(t *testing.T) {
		assert.NotEqual(t, HashString("test"), HashString("test2"))
		assert.NotEqual(t, HashString("hello world"), HashString("hello@world#123"))
	})

	t.Run("known vectors", func(t *testing.T) {
		assert.Equal(t, uint32(0x811c9dc5), HashString(""))
		assert.Equal(t, uint32(0xe40c292c), HashString("a"))
	})
}

func TestMulberry32(t *testing.T) {
	t.Run("same seed same sequence", func(t *testing.T) {
		assert.Equal(t, draws(NewMulberry32(12345), 10), draws(NewMulberry32(12345), 10))
	})

	t.Run("different seeds diverge", func(t *testing.T) {
		assert.NotEqual(t, draws(NewMulberry32(12345), 10), draws(NewMulberry32(67890), 10))
	})

	t.Run("range", func(t *testing.T) {
		rng := NewMulberry32(12345)
		for i := 0; i < 10000; i++ {
			v := rng.Float64()
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	})

	t.Run("state advances by fixed increment", func(t *testing.T) {
		rng := NewMulberry32(7)
		rng.Float64()
		rng.Float64()
		assert.Equal(t, uint32(7)+2*mulberryIncrement, rng.State())
	})

	t.Run("zero seed is usable", func(t *testing.T) {
		seq := draws(NewMulberry32(0), 5)
		assert.NotEqual(t, seq[0], seq[1])
	})
}

func TestFromSeed(t *testing.T) {
	t.Run("blank seeds share the default sequence", func(t *testing.T) {
		want := draws(NewMulberry32(DefaultSeed), 5)
		for _, seed := range []string{"", "   ", "\t\n"} {
			assert.Equal(t, want, draws(FromSeed(seed), 5), "seed %q", seed)
		}
	})

	t.Run("same seed reproduces first 1000 draws", func(t *testing.T) {
		assert.Equal(t, draws(FromSeed("x"), 1000), draws(FromSeed("x"), 1000))
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		assert.Equal(t, draws(FromSeed("test-seed"), 20), draws(FromSeed("  test-seed\n"), 20))
	})

	t.Run("different seeds differ early", func(t *testing.T) {
		assert.NotEqual(t, draws(FromSeed("x"), 10), draws(FromSeed("y"), 10))
		assert.NotEqual(t, draws(FromSeed("seed1"), 10), draws(FromSeed("seed2"), 10))
	})
}

func TestFromEntropy(t *testing.T) {
	rng := FromEntropy()
	for i := 0; i < 100; i++ {
		v := rng.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestFunc(t *testing.T) {
	var src Source = Func(func() float64 { return 0.25 })
	assert.Equal(t, 0.25, src.Float64())
}
