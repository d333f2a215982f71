package game

type cellRef struct {
	row, col int
}

// rowWidth reports the column count for a row: even rows are wide, odd
// rows sit shifted half a cell right and hold one fewer bubble.
func (st *State) rowWidth(row int) int {
	if row%2 == 0 {
		return st.cfg.ColsEven
	}
	return st.cfg.ColsOdd
}

func (st *State) boardWidth() float64 {
	return float64(st.cfg.ColsEven)
}

// cellCenter returns the center of a cell in cell units.
func (st *State) cellCenter(row, col int) (float64, float64) {
	x := float64(col) + 0.5
	if row%2 != 0 {
		x += 0.5
	}
	return x, float64(row)*rowHeight + 0.5
}

func (st *State) inBounds(row, col int) bool {
	return row >= 0 && row < st.cfg.Rows && col >= 0 && col < st.rowWidth(row)
}

func (st *State) occupied(row, col int) bool {
	return st.inBounds(row, col) && st.cells[row][col].Occupied()
}

// neighbors appends the in-bounds hex neighbors of a cell. Even rows are
// the wide rows, so their diagonal neighbors sit at col-1 and col; odd
// rows mirror that at col and col+1.
func (st *State) neighbors(row, col int, out []cellRef) []cellRef {
	candidates := [6]cellRef{
		{row, col - 1},
		{row, col + 1},
	}
	if row%2 == 0 {
		candidates[2] = cellRef{row - 1, col - 1}
		candidates[3] = cellRef{row - 1, col}
		candidates[4] = cellRef{row + 1, col - 1}
		candidates[5] = cellRef{row + 1, col}
	} else {
		candidates[2] = cellRef{row - 1, col}
		candidates[3] = cellRef{row - 1, col + 1}
		candidates[4] = cellRef{row + 1, col}
		candidates[5] = cellRef{row + 1, col + 1}
	}
	for _, ref := range candidates {
		if st.inBounds(ref.row, ref.col) {
			out = append(out, ref)
		}
	}
	return out
}

// matchRun flood-fills same-colored bubbles starting from origin.
func (st *State) matchRun(origin cellRef) []cellRef {
	color := st.cells[origin.row][origin.col].Color
	visited := map[cellRef]bool{origin: true}
	run := []cellRef{origin}
	queue := []cellRef{origin}
	var scratch []cellRef
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		scratch = st.neighbors(cur.row, cur.col, scratch[:0])
		for _, ref := range scratch {
			if visited[ref] || !st.occupied(ref.row, ref.col) {
				continue
			}
			if st.cells[ref.row][ref.col].Color != color {
				continue
			}
			visited[ref] = true
			run = append(run, ref)
			queue = append(queue, ref)
		}
	}
	return run
}

// orphans returns every occupied cell not connected to the ceiling row
// through the occupancy graph.
func (st *State) orphans() []cellRef {
	anchored := make(map[cellRef]bool)
	var queue []cellRef
	ceiling := st.cfg.CeilingRow
	for c := 0; c < st.rowWidth(ceiling); c++ {
		if st.occupied(ceiling, c) {
			ref := cellRef{ceiling, c}
			anchored[ref] = true
			queue = append(queue, ref)
		}
	}
	var scratch []cellRef
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		scratch = st.neighbors(cur.row, cur.col, scratch[:0])
		for _, ref := range scratch {
			if anchored[ref] || !st.occupied(ref.row, ref.col) {
				continue
			}
			anchored[ref] = true
			queue = append(queue, ref)
		}
	}
	var loose []cellRef
	for r := range st.cells {
		for c := range st.cells[r] {
			ref := cellRef{r, c}
			if st.occupied(r, c) && !anchored[ref] {
				loose = append(loose, ref)
			}
		}
	}
	return loose
}

// boardEmpty reports whether no bubbles remain.
func (st *State) boardEmpty() bool {
	for r := range st.cells {
		for c := range st.cells[r] {
			if st.cells[r][c].Occupied() {
				return false
			}
		}
	}
	return true
}

// insertCeilingRow shifts every row one step toward the floor and fills
// the ceiling row with fresh bubbles. A wide row shifting into a narrow
// one drops its rightmost bubble.
func (st *State) insertCeilingRow() {
	for r := st.cfg.Rows - 1; r > 0; r-- {
		width := st.rowWidth(r)
		src := st.cells[r-1]
		row := make([]Bubble, width)
		copy(row, src)
		st.cells[r] = row
	}
	fresh := make([]Bubble, st.rowWidth(0))
	mask := st.fullColorMask()
	for c := range fresh {
		fresh[c] = st.newBubble(mask)
	}
	st.cells[0] = fresh
}

// floorReached reports whether any bubble sits on the bottom row.
func (st *State) floorReached() bool {
	bottom := st.cfg.Rows - 1
	for c := 0; c < st.rowWidth(bottom); c++ {
		if st.occupied(bottom, c) {
			return true
		}
	}
	return false
}

// Cell returns a copy of the bubble at the given position; the second
// return is false out of bounds.
func (st *State) Cell(row, col int) (Bubble, bool) {
	if !st.inBounds(row, col) {
		return Bubble{}, false
	}
	return st.cells[row][col], true
}

// SetCell overwrites a board cell. Exposed for scenario setup in tests
// and tooling; gameplay mutations go through Tick.
func (st *State) SetCell(row, col int, b Bubble) bool {
	if !st.inBounds(row, col) {
		return false
	}
	st.cells[row][col] = b
	return true
}
