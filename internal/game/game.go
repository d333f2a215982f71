// Package game implements the compact deterministic bubble-shooter core
// the replay subsystem records and verifies. Every random draw routes
// through one xoshiro128** state so identical inputs always reproduce
// identical derived state, bit for bit.
package game

import (
	"math"

	"popblast/replay/internal/prng"
)

// Phase is the coarse state-machine position fed into the full-state
// checksum.
type Phase uint8

const (
	PhaseAiming Phase = iota
	PhaseShotInFlight
	PhaseWon
	PhaseLost
)

// Bubble kinds. KindEmpty marks an unoccupied cell.
const (
	KindEmpty uint8 = iota
	KindNormal
	KindSpecial
)

// Bubble is one board cell occupant. The five byte fields are exactly the
// bytes its checksum covers.
type Bubble struct {
	Kind         uint8
	Color        uint8
	Flags        uint8
	Special      uint8
	PayloadTimer uint8
}

// Occupied reports whether the cell holds a bubble.
func (b Bubble) Occupied() bool {
	return b.Kind != KindEmpty
}

// Shot tracks a bubble in flight. Positions and velocities are in cell
// units; x grows rightward, y grows downward from the ceiling.
type Shot struct {
	Phase   uint8
	X, Y    float64
	VX, VY  float64
	Bounces uint8
}

// Config tunes the board and ruleset.
type Config struct {
	Rows        int
	ColsEven    int
	ColsOdd     int
	CeilingRow  int
	Colors      int
	InitialRows int
	ShotsPerRow int
	RulesetID   string
}

// DefaultConfig returns the standard ruleset.
func DefaultConfig() Config {
	return Config{
		Rows:        14,
		ColsEven:    8,
		ColsOdd:     7,
		CeilingRow:  0,
		Colors:      6,
		InitialRows: 5,
		ShotsPerRow: 8,
		RulesetID:   "standard",
	}
}

func (c Config) normalized() Config {
	normalized := c
	if normalized.Rows < 4 {
		normalized.Rows = 4
	}
	if normalized.ColsEven < 2 {
		normalized.ColsEven = 2
	}
	if normalized.ColsOdd < 1 {
		normalized.ColsOdd = normalized.ColsEven - 1
	}
	if normalized.Colors < 1 {
		normalized.Colors = 1
	}
	if normalized.Colors > 8 {
		normalized.Colors = 8
	}
	if normalized.InitialRows < 0 {
		normalized.InitialRows = 0
	}
	if normalized.InitialRows > normalized.Rows/2 {
		normalized.InitialRows = normalized.Rows / 2
	}
	if normalized.ShotsPerRow < 1 {
		normalized.ShotsPerRow = 1
	}
	if normalized.RulesetID == "" {
		normalized.RulesetID = "standard"
	}
	return normalized
}

const (
	rowHeight   = 0.8660254037844386 // sqrt(3)/2 in cell units
	shotSpeed   = 0.5
	minAngle    = 0.15
	maxAngle    = math.Pi - 0.15
	popScore    = 10
	dropScore   = 20
	minMatchRun = 3
)

// State is the full simulation state. It is single-owner: nothing in the
// replay layer shares one State between goroutines.
type State struct {
	cfg Config
	rng prng.State

	phase  Phase
	paused bool
	frame  uint32

	score           uint32
	shotsFired      uint32
	shotsUntilRow   uint32
	comboMultiplier uint32

	cannonAngle float64
	current     Bubble
	preview     Bubble
	shot        Shot

	cells [][]Bubble
}

// NewState builds a fresh simulation for the given ruleset and seed.
func NewState(cfg Config, seed uint64) *State {
	st := &State{cfg: cfg.normalized()}
	st.Reset(seed)
	return st
}

// Config returns the normalized ruleset in effect.
func (st *State) Config() Config {
	return st.cfg
}

// Reset reinitializes the simulation from the seed: board refill, cannon
// recenter, counters cleared. The RNG is reseeded, so a Reset followed by
// the same inputs replays the same game.
func (st *State) Reset(seed uint64) {
	st.rng.Seed(seed)
	st.phase = PhaseAiming
	st.paused = false
	st.frame = 0
	st.score = 0
	st.shotsFired = 0
	st.shotsUntilRow = uint32(st.cfg.ShotsPerRow)
	st.comboMultiplier = 1
	st.cannonAngle = math.Pi / 2
	st.shot = Shot{}

	st.cells = make([][]Bubble, st.cfg.Rows)
	for r := range st.cells {
		st.cells[r] = make([]Bubble, st.rowWidth(r))
	}
	fullMask := st.fullColorMask()
	for r := 0; r < st.cfg.InitialRows; r++ {
		for c := range st.cells[r] {
			st.cells[r][c] = st.newBubble(fullMask)
		}
	}
	st.current = st.newBubble(st.colorMask())
	st.preview = st.newBubble(st.colorMask())
}

func (st *State) newBubble(mask uint8) Bubble {
	color := st.rng.PickColor(mask)
	if color < 0 {
		color = 0
	}
	return Bubble{Kind: KindNormal, Color: uint8(color)}
}

func (st *State) fullColorMask() uint8 {
	return uint8(1<<st.cfg.Colors) - 1
}

// colorMask returns the set of colors still present on the board so the
// cannon never loads a color the player cannot match. An empty board
// falls back to the full ruleset mask.
func (st *State) colorMask() uint8 {
	var mask uint8
	for r := range st.cells {
		for c := range st.cells[r] {
			if st.cells[r][c].Occupied() && st.cells[r][c].Color < 8 {
				mask |= 1 << st.cells[r][c].Color
			}
		}
	}
	if mask == 0 {
		mask = st.fullColorMask()
	}
	return mask
}

// Frame reports the current frame counter.
func (st *State) Frame() uint32 {
	return st.frame
}

// SetFrame overrides the frame counter. Used by checkpoint restore, which
// re-derives everything else by re-simulation.
func (st *State) SetFrame(frame uint32) {
	st.frame = frame
}

// Phase reports the current state-machine position.
func (st *State) Phase() Phase {
	return st.phase
}

// Score reports the accumulated score.
func (st *State) Score() uint32 {
	return st.score
}

// ShotsFired reports the number of shots taken.
func (st *State) ShotsFired() uint32 {
	return st.shotsFired
}

// IsOver reports whether the match has ended either way.
func (st *State) IsOver() bool {
	return st.phase == PhaseWon || st.phase == PhaseLost
}

// IsWon reports whether the board was cleared.
func (st *State) IsWon() bool {
	return st.phase == PhaseWon
}

// IsLost reports whether the stack reached the floor.
func (st *State) IsLost() bool {
	return st.phase == PhaseLost
}

// Paused reports whether ticking is suspended.
func (st *State) Paused() bool {
	return st.paused
}

// SetPaused suspends or resumes gameplay. The frame counter keeps
// advancing while paused so event scheduling stays aligned.
func (st *State) SetPaused(paused bool) {
	st.paused = paused
}

// CannonAngle reports the aim angle in radians.
func (st *State) CannonAngle() float64 {
	return st.cannonAngle
}

// SetAngle aims the cannon, clamped away from the horizontals.
func (st *State) SetAngle(angle float64) {
	if angle < minAngle {
		angle = minAngle
	}
	if angle > maxAngle {
		angle = maxAngle
	}
	st.cannonAngle = angle
}

// Rotate nudges the cannon by delta radians.
func (st *State) Rotate(delta float64) {
	st.SetAngle(st.cannonAngle + delta)
}

// Swap exchanges the loaded and preview bubbles.
func (st *State) Swap() {
	if st.IsOver() {
		return
	}
	st.current, st.preview = st.preview, st.current
}

// Fire launches the loaded bubble at the current angle. It reports false
// when a shot is already in flight or the match is over; no state changes
// and no RNG draw happens on a refused fire. The cannon reloads when the
// shot lands, so the RNG draw for the next preview is anchored to the
// landing, not the trigger pull.
func (st *State) Fire() bool {
	if st.phase != PhaseAiming || st.paused {
		return false
	}
	st.shot = Shot{
		Phase: 1,
		X:     st.boardWidth() / 2,
		Y:     float64(st.cfg.Rows) * rowHeight,
		VX:    math.Cos(st.cannonAngle) * shotSpeed,
		VY:    -math.Sin(st.cannonAngle) * shotSpeed,
	}
	st.phase = PhaseShotInFlight
	st.shotsFired++
	return true
}

// RNGWords snapshots the four generator words for checkpointing.
func (st *State) RNGWords() [4]uint32 {
	return st.rng.Words()
}

// SetRNGWords restores the generator from a checkpoint snapshot.
func (st *State) SetRNGWords(words [4]uint32) {
	st.rng.SetWords(words)
}
