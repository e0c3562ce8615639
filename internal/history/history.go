// Package history stores every trial outcome in append-only chunked arrays.
//
// Entries live in fixed 8192-slot chunks addressed by shift and mask, so
// appends never copy earlier outcomes and lookups are O(1) however many
// millions of trials have run.
package history

const (
	ChunkSize  = 8192
	chunkShift = 13
	chunkMask  = ChunkSize - 1
)

type chunkStore[T uint16 | uint32] struct {
	length int
	chunks []*[ChunkSize]T
}

func (s *chunkStore[T]) push(v T) {
	ci := s.length >> chunkShift
	if ci == len(s.chunks) {
		s.chunks = append(s.chunks, new([ChunkSize]T))
	}
	s.chunks[ci][s.length&chunkMask] = v
	s.length++
}

func (s *chunkStore[T]) get(i int) (T, bool) {
	if i < 0 || i >= s.length {
		var zero T
		return zero, false
	}
	return s.chunks[i>>chunkShift][i&chunkMask], true
}

func (s *chunkStore[T]) window(start, n int) []T {
	if start >= s.length {
		return nil
	}
	end := min(start+min(max(n, 0), s.length), s.length)
	start = max(start, 0)
	if start >= end {
		return nil
	}
	out := make([]T, 0, end-start)
	for i := start; i < end; {
		chunk := s.chunks[i>>chunkShift]
		off := i & chunkMask
		take := min(ChunkSize-off, end-i)
		out = append(out, chunk[off:off+take]...)
		i += take
	}
	return out
}

func (s *chunkStore[T]) clear() {
	s.length = 0
	s.chunks = nil
}

// IndexHistory records one outcome index per trial. Indices are stored in 16
// bits, which covers up to 65536 distinct outcomes.
type IndexHistory struct {
	store chunkStore[uint16]
}

// NewIndexHistory returns an empty history
func NewIndexHistory() *IndexHistory {
	return &IndexHistory{}
}

// Len returns the number of recorded trials
func (h *IndexHistory) Len() int { return h.store.length }

// Push appends the outcome of the next trial
func (h *IndexHistory) Push(index uint16) { h.store.push(index) }

// Get returns the outcome of trial i. ok is false when i is negative or not
// yet recorded.
func (h *IndexHistory) Get(i int) (index uint16, ok bool) { return h.store.get(i) }

// Window copies up to n outcomes starting at trial start. Out of range parts
// of the request are dropped.
func (h *IndexHistory) Window(start, n int) []uint16 { return h.store.window(start, n) }

// Clear forgets every trial and releases the chunks
func (h *IndexHistory) Clear() { h.store.clear() }

// Pair is one two-event trial outcome
type Pair struct {
	A, B uint16
}

// Pack stores a in the upper and b in the lower 16 bits
func Pack(a, b uint16) uint32 {
	return uint32(a)<<16 | uint32(b)
}

// Unpack reverses Pack
func Unpack(packed uint32) Pair {
	return Pair{A: uint16(packed >> 16), B: uint16(packed)}
}

// PackedPairHistory records one (A, B) outcome pair per trial as a packed
// 32-bit word
type PackedPairHistory struct {
	store chunkStore[uint32]
}

// NewPackedPairHistory returns an empty pair history
func NewPackedPairHistory() *PackedPairHistory {
	return &PackedPairHistory{}
}

// Len returns the number of recorded trials
func (h *PackedPairHistory) Len() int { return h.store.length }

// PushPair appends the outcome pair of the next trial
func (h *PackedPairHistory) PushPair(a, b uint16) { h.store.push(Pack(a, b)) }

// GetPacked returns the raw packed word of trial i
func (h *PackedPairHistory) GetPacked(i int) (uint32, bool) { return h.store.get(i) }

// GetPair returns the outcome pair of trial i. ok is false when i is out of
// range.
func (h *PackedPairHistory) GetPair(i int) (Pair, bool) {
	packed, ok := h.store.get(i)
	if !ok {
		return Pair{}, false
	}
	return Unpack(packed), true
}

// Window copies up to n pairs starting at trial start
func (h *PackedPairHistory) Window(start, n int) []Pair {
	raw := h.store.window(start, n)
	if raw == nil {
		return nil
	}
	out := make([]Pair, len(raw))
	for i, packed := range raw {
		out[i] = Unpack(packed)
	}
	return out
}

// Clear forgets every trial and releases the chunks
func (h *PackedPairHistory) Clear() { h.store.clear() }
