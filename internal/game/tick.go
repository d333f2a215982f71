package game

import "math"

// TickEvent is a derived event produced by one tick. These are never
// recorded; replays regenerate them by re-simulation.
type TickEvent uint8

const (
	TickEventPop TickEvent = iota
	TickEventDrop
	TickEventRowInsert
	TickEventGameOver
)

const shotRadius = 0.5

// Tick advances the simulation one frame and returns the number of
// derived events the frame produced. While paused or after game over the
// frame counter still advances but no gameplay runs.
func (st *State) Tick() int {
	st.frame++
	if st.paused || st.IsOver() {
		return 0
	}
	if st.phase != PhaseShotInFlight {
		return 0
	}
	return st.advanceShot()
}

func (st *State) advanceShot() int {
	st.shot.X += st.shot.VX
	st.shot.Y += st.shot.VY

	// Wall bounce.
	if st.shot.X < shotRadius {
		st.shot.X = 2*shotRadius - st.shot.X
		st.shot.VX = -st.shot.VX
		st.shot.Bounces++
	} else if st.shot.X > st.boardWidth()-shotRadius {
		st.shot.X = 2*(st.boardWidth()-shotRadius) - st.shot.X
		st.shot.VX = -st.shot.VX
		st.shot.Bounces++
	}

	ceilingY := float64(st.cfg.CeilingRow)*rowHeight + 0.5
	if st.shot.Y <= ceilingY || st.touchesStack() {
		return st.landShot()
	}
	return 0
}

// touchesStack reports whether the shot overlaps any settled bubble.
func (st *State) touchesStack() bool {
	const contact = 2 * shotRadius * 0.9
	for r := range st.cells {
		for c := range st.cells[r] {
			if !st.cells[r][c].Occupied() {
				continue
			}
			x, y := st.cellCenter(r, c)
			dx := st.shot.X - x
			dy := st.shot.Y - y
			if dx*dx+dy*dy < contact*contact {
				return true
			}
		}
	}
	return false
}

// landShot snaps the shot to the nearest free cell, places the loaded
// bubble, reloads the cannon and resolves matches, orphans and the
// periodic ceiling row.
func (st *State) landShot() int {
	target, ok := st.nearestFreeCell()
	if !ok {
		// Stack is solid down to the floor; the landing itself loses.
		st.phase = PhaseLost
		st.shot = Shot{}
		return 1
	}
	st.cells[target.row][target.col] = st.current
	st.shot = Shot{}
	st.phase = PhaseAiming
	st.current = st.preview
	st.preview = st.newBubble(st.colorMask())

	events := st.resolve(target)

	if st.boardEmpty() {
		st.phase = PhaseWon
		return events + 1
	}

	st.shotsUntilRow--
	if st.shotsUntilRow == 0 {
		st.insertCeilingRow()
		st.shotsUntilRow = uint32(st.cfg.ShotsPerRow)
		events++
	}
	if st.floorReached() {
		st.phase = PhaseLost
		events++
	}
	return events
}

func (st *State) nearestFreeCell() (cellRef, bool) {
	best := cellRef{-1, -1}
	bestDist := math.MaxFloat64
	for r := range st.cells {
		for c := range st.cells[r] {
			if st.cells[r][c].Occupied() {
				continue
			}
			if r > st.cfg.CeilingRow && !st.hasOccupiedNeighbor(r, c) {
				continue
			}
			x, y := st.cellCenter(r, c)
			dx := st.shot.X - x
			dy := st.shot.Y - y
			dist := dx*dx + dy*dy
			if dist < bestDist {
				bestDist = dist
				best = cellRef{r, c}
			}
		}
	}
	if best.row < 0 {
		return cellRef{}, false
	}
	return best, true
}

func (st *State) hasOccupiedNeighbor(row, col int) bool {
	var scratch [6]cellRef
	for _, ref := range st.neighbors(row, col, scratch[:0]) {
		if st.occupied(ref.row, ref.col) {
			return true
		}
	}
	return false
}

// resolve pops the match run at the landing cell when it reaches three,
// then drops every orphaned bubble. Pops feed the combo multiplier;
// a landing without a pop resets it.
func (st *State) resolve(landing cellRef) int {
	events := 0
	run := st.matchRun(landing)
	if len(run) >= minMatchRun {
		for _, ref := range run {
			st.cells[ref.row][ref.col] = Bubble{}
		}
		st.score += uint32(len(run)) * popScore * st.comboMultiplier
		st.comboMultiplier++
		events++

		loose := st.orphans()
		for _, ref := range loose {
			st.cells[ref.row][ref.col] = Bubble{}
		}
		if len(loose) > 0 {
			st.score += uint32(len(loose)) * dropScore
			events++
		}
	} else {
		st.comboMultiplier = 1
	}
	return events
}
