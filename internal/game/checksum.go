package game

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"popblast/replay/internal/checksum"
)

// BubbleChecksum hashes the five bubble bytes in declaration order.
func BubbleChecksum(b Bubble) uint32 {
	var f checksum.Feeder
	f.Byte(b.Kind)
	f.Byte(b.Color)
	f.Byte(b.Flags)
	f.Byte(b.Special)
	f.Byte(b.PayloadTimer)
	return f.Sum()
}

// BoardChecksum hashes every live cell in row-major order with FNV-1a,
// folded with the board dimensions. FNV here is deliberate: the board is
// rehashed every frame and FNV-1a is markedly cheaper than CRC-32 at this
// size. Replay files and golden fixtures depend on these exact values, so
// the hash choice is part of the format.
func (st *State) BoardChecksum() uint32 {
	h := fnv.New32a()
	var cell [7]byte
	for r := range st.cells {
		for c := range st.cells[r] {
			b := st.cells[r][c]
			if !b.Occupied() {
				continue
			}
			cell[0] = byte(r)
			cell[1] = byte(c)
			cell[2] = b.Kind
			cell[3] = b.Color
			cell[4] = b.Flags
			cell[5] = b.Special
			cell[6] = b.PayloadTimer
			h.Write(cell[:])
		}
	}
	var dims [16]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(st.cfg.Rows))
	binary.LittleEndian.PutUint32(dims[4:], uint32(st.cfg.ColsEven))
	binary.LittleEndian.PutUint32(dims[8:], uint32(st.cfg.ColsOdd))
	binary.LittleEndian.PutUint32(dims[12:], uint32(st.cfg.CeilingRow))
	h.Write(dims[:])
	return h.Sum32()
}

// RNGChecksum hashes the four generator words in index order.
func (st *State) RNGChecksum() uint32 {
	return checksum.RNGChecksum(st.rng.Words())
}

// Checksum folds the full semantic state: phase, frame, board and RNG
// checksums, counters, cannon angle and the loaded bubbles, plus the shot
// fields only while one is in flight.
func (st *State) Checksum() uint32 {
	var f checksum.Feeder
	f.Byte(uint8(st.phase))
	f.Uint32(st.frame)
	f.Uint32(st.BoardChecksum())
	f.Uint32(st.RNGChecksum())
	f.Uint32(st.score)
	f.Uint32(st.shotsFired)
	f.Uint32(st.shotsUntilRow)
	f.Uint32(st.comboMultiplier)
	f.Uint64(math.Float64bits(st.cannonAngle))
	f.Uint32(BubbleChecksum(st.current))
	f.Uint32(BubbleChecksum(st.preview))
	if st.phase == PhaseShotInFlight {
		f.Byte(st.shot.Phase)
		f.Uint64(math.Float64bits(st.shot.X))
		f.Uint64(math.Float64bits(st.shot.Y))
		f.Uint64(math.Float64bits(st.shot.VX))
		f.Uint64(math.Float64bits(st.shot.VY))
		f.Byte(st.shot.Bounces)
	}
	return f.Sum()
}

// FrameChecksum is the light per-frame fingerprint logged into the ring
// buffer: frame, board XOR rng, score.
func (st *State) FrameChecksum() uint32 {
	var f checksum.Feeder
	f.Uint32(st.frame)
	f.Uint32(st.BoardChecksum() ^ st.RNGChecksum())
	f.Uint32(st.score)
	return f.Sum()
}

// Digest collects the component checksums for desync localization.
func (st *State) Digest() checksum.Digest {
	return checksum.Digest{
		Frame: st.frame,
		Phase: uint32(st.phase),
		Score: st.score,
		Board: st.BoardChecksum(),
		RNG:   st.RNGChecksum(),
		State: st.Checksum(),
	}
}
