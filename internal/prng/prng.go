// Package prng implements the deterministic xoshiro128** generator every
// random decision in the simulation routes through. The four-word state is
// fully serializable so checkpoints can capture and restore it verbatim.
package prng

// State holds the four 32-bit words of a xoshiro128** generator. The zero
// value is not a valid generator; construct one with New or SetWords.
type State struct {
	s [4]uint32
}

const splitmix64Gamma = 0x9E3779B97F4A7C15

// New seeds a generator from a 64-bit seed using SplitMix64 expansion. The
// expansion never yields the all-zero state, which would lock xoshiro at
// zero forever.
func New(seed uint64) *State {
	st := &State{}
	st.Seed(seed)
	return st
}

// Seed re-expands the generator state from the provided seed.
func (st *State) Seed(seed uint64) {
	sm := seed
	lo := splitmix64(&sm)
	hi := splitmix64(&sm)
	st.s[0] = uint32(lo)
	st.s[1] = uint32(lo >> 32)
	st.s[2] = uint32(hi)
	st.s[3] = uint32(hi >> 32)
	if st.s[0] == 0 && st.s[1] == 0 && st.s[2] == 0 && st.s[3] == 0 {
		st.s[0] = 1
	}
}

func splitmix64(x *uint64) uint64 {
	*x += splitmix64Gamma
	z := *x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func rotl(x uint32, k uint) uint32 {
	return x<<k | x>>(32-k)
}

// Next advances the generator and returns the next 32-bit value.
func (st *State) Next() uint32 {
	result := rotl(st.s[1]*5, 7) * 9
	t := st.s[1] << 9

	st.s[2] ^= st.s[0]
	st.s[3] ^= st.s[1]
	st.s[1] ^= st.s[2]
	st.s[0] ^= st.s[3]
	st.s[2] ^= t
	st.s[3] = rotl(st.s[3], 11)

	return result
}

// Range returns an unbiased value in [0, max) via rejection sampling.
// A max of zero returns zero without consuming a draw.
func (st *State) Range(max uint32) uint32 {
	if max == 0 {
		return 0
	}
	threshold := -max % max
	for {
		v := st.Next()
		if v >= threshold {
			return v % max
		}
	}
}

// RangeInt returns an unbiased value in [min, max). Degenerate ranges
// return min without consuming a draw.
func (st *State) RangeInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + int(st.Range(uint32(max-min)))
}

// Float returns a value in [0, 1) using the top 24 bits of one draw.
func (st *State) Float() float64 {
	return float64(st.Next()>>8) / (1 << 24)
}

// FloatRange returns a value in [min, max).
func (st *State) FloatRange(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + st.Float()*(max-min)
}

// PickColor picks uniformly among the set bits of an 8-bit allowed-color
// mask and returns the chosen bit index, or -1 if the mask is empty. The
// bit-consumption order here is part of the determinism contract: exactly
// one Range draw per non-empty mask.
func (st *State) PickColor(mask uint8) int {
	count := 0
	for m := mask; m != 0; m >>= 1 {
		if m&1 != 0 {
			count++
		}
	}
	if count == 0 {
		return -1
	}
	pick := int(st.Range(uint32(count)))
	for i := 0; i < 8; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		if pick == 0 {
			return i
		}
		pick--
	}
	return -1
}

// Shuffle performs an in-place Fisher-Yates shuffle, consuming one Range
// draw per swap.
func (st *State) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(st.Range(uint32(i + 1)))
		swap(i, j)
	}
}

// Words returns a copy of the four state words in index order.
func (st *State) Words() [4]uint32 {
	return st.s
}

// SetWords restores the generator from four serialized state words. An
// all-zero snapshot is coerced to the minimal valid state rather than
// producing a stuck generator.
func (st *State) SetWords(words [4]uint32) {
	st.s = words
	if st.s[0] == 0 && st.s[1] == 0 && st.s[2] == 0 && st.s[3] == 0 {
		st.s[0] = 1
	}
}
