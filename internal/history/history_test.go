package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexHistory(t *testing.T) {
	h := NewIndexHistory()
	for i := 0; i < 9000; i++ {
		h.Push(uint16(i % 7))
	}
	require.Equal(t, 9000, h.Len())

	for _, i := range []int{0, 8191, 8192, 8999} {
		v, ok := h.Get(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, uint16(i%7), v, "index %d", i)
	}

	for _, i := range []int{-1, 9000, 1 << 40} {
		v, ok := h.Get(i)
		assert.False(t, ok, "index %d", i)
		assert.Zero(t, v)
	}
}

func TestIndexHistoryChunksAllocatedLazily(t *testing.T) {
	h := NewIndexHistory()
	assert.Empty(t, h.store.chunks)

	h.Push(1)
	assert.Len(t, h.store.chunks, 1)

	for h.Len() < ChunkSize {
		h.Push(2)
	}
	assert.Len(t, h.store.chunks, 1, "a full chunk does not allocate the next one")

	h.Push(3)
	assert.Len(t, h.store.chunks, 2)
}

func TestIndexHistoryFullRange(t *testing.T) {
	h := NewIndexHistory()
	h.Push(65535)
	v, ok := h.Get(0)
	require.True(t, ok)
	assert.Equal(t, uint16(65535), v)
}

func TestIndexHistoryClear(t *testing.T) {
	h := NewIndexHistory()
	for i := 0; i < 10000; i++ {
		h.Push(1)
	}
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.store.chunks)
	_, ok := h.Get(0)
	assert.False(t, ok)

	h.Push(4)
	v, ok := h.Get(0)
	require.True(t, ok)
	assert.Equal(t, uint16(4), v)
}

func TestIndexHistoryWindow(t *testing.T) {
	h := NewIndexHistory()
	for i := 0; i < 20000; i++ {
		h.Push(uint16(i % 1000))
	}

	t.Run("spans chunk boundary", func(t *testing.T) {
		w := h.Window(8190, 5)
		assert.Equal(t, []uint16{190, 191, 192, 193, 194}, w)
	})

	t.Run("clipped at end", func(t *testing.T) {
		w := h.Window(19998, 10)
		assert.Equal(t, []uint16{998, 999}, w)
	})

	t.Run("negative start clipped", func(t *testing.T) {
		w := h.Window(-3, 5)
		assert.Equal(t, []uint16{0, 1}, w)
	})

	t.Run("empty requests", func(t *testing.T) {
		assert.Nil(t, h.Window(20000, 5))
		assert.Nil(t, h.Window(10, 0))
		assert.Nil(t, h.Window(10, -4))
	})

	t.Run("several chunks", func(t *testing.T) {
		w := h.Window(0, 20000)
		require.Len(t, w, 20000)
		for i, v := range w {
			if v != uint16(i%1000) {
				t.Fatalf("window[%d] = %d, want %d", i, v, i%1000)
			}
		}
	})
}

func TestPack(t *testing.T) {
	assert.Equal(t, uint32(0x00030005), Pack(3, 5))
	assert.Equal(t, uint32(0xffff0000), Pack(0xffff, 0))
	assert.Equal(t, Pair{A: 0xffff, B: 0xfffe}, Unpack(Pack(0xffff, 0xfffe)))
}

func TestPackedPairHistory(t *testing.T) {
	h := NewPackedPairHistory()
	for i := 0; i < 9000; i++ {
		h.PushPair(uint16(i%5), uint16(i%11))
	}
	require.Equal(t, 9000, h.Len())

	for _, i := range []int{0, 8191, 8192, 8999} {
		p, ok := h.GetPair(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, Pair{A: uint16(i % 5), B: uint16(i % 11)}, p, "index %d", i)

		packed, ok := h.GetPacked(i)
		require.True(t, ok)
		assert.Equal(t, Pack(uint16(i%5), uint16(i%11)), packed)
	}

	for _, i := range []int{-1, 9000} {
		_, ok := h.GetPair(i)
		assert.False(t, ok, "index %d", i)
		_, ok = h.GetPacked(i)
		assert.False(t, ok, "index %d", i)
	}

	w := h.Window(8191, 2)
	assert.Equal(t, []Pair{{A: 8191 % 5, B: 8191 % 11}, {A: 8192 % 5, B: 8192 % 11}}, w)

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Window(0, 10))
}
