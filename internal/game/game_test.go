package game

import (
	"math"
	"testing"
)

func fireAndLand(t *testing.T, st *State, angle float64) {
	t.Helper()
	st.SetAngle(angle)
	if !st.Fire() {
		t.Fatal("fire refused")
	}
	for i := 0; i < 500 && st.Phase() == PhaseShotInFlight; i++ {
		st.Tick()
	}
	if st.Phase() == PhaseShotInFlight {
		t.Fatal("shot never landed")
	}
}

func TestDeterministicReplay(t *testing.T) {
	angles := []float64{1.57, 1.2, 1.9, 1.57, 1.0}
	a := NewState(DefaultConfig(), 12345)
	b := NewState(DefaultConfig(), 12345)
	if a.Checksum() != b.Checksum() {
		t.Fatal("fresh states from the same seed differ")
	}
	for i, angle := range angles {
		fireAndLand(t, a, angle)
		fireAndLand(t, b, angle)
		if a.Checksum() != b.Checksum() {
			t.Fatalf("checksums diverged after shot %d: %#08x vs %#08x", i, a.Checksum(), b.Checksum())
		}
		if a.Frame() != b.Frame() {
			t.Fatalf("frames diverged after shot %d: %d vs %d", i, a.Frame(), b.Frame())
		}
	}
}

func TestDifferentSeedsDifferentBoards(t *testing.T) {
	a := NewState(DefaultConfig(), 1)
	b := NewState(DefaultConfig(), 2)
	if a.BoardChecksum() == b.BoardChecksum() {
		t.Fatal("seeds 1 and 2 filled identical boards")
	}
}

func TestResetReproducesInitialState(t *testing.T) {
	st := NewState(DefaultConfig(), 99)
	fresh := st.Checksum()
	fireAndLand(t, st, 1.3)
	fireAndLand(t, st, 1.8)
	st.Reset(99)
	if st.Checksum() != fresh {
		t.Fatalf("reset checksum %#08x, fresh %#08x", st.Checksum(), fresh)
	}
}

func TestBoardChecksumSensitivity(t *testing.T) {
	st := NewState(DefaultConfig(), 5)
	before := st.BoardChecksum()
	cell, ok := st.Cell(0, 0)
	if !ok || !cell.Occupied() {
		t.Fatal("expected an occupied ceiling cell")
	}
	cell.Color = (cell.Color + 1) % 6
	st.SetCell(0, 0, cell)
	if st.BoardChecksum() == before {
		t.Fatal("recoloring a cell did not change the board checksum")
	}
}

func TestChecksumCoversCannonAngle(t *testing.T) {
	st := NewState(DefaultConfig(), 5)
	before := st.Checksum()
	st.SetAngle(1.0)
	if st.Checksum() == before {
		t.Fatal("aiming did not change the full-state checksum")
	}
	if st.BoardChecksum() != NewState(DefaultConfig(), 5).BoardChecksum() {
		t.Fatal("aiming changed the board checksum")
	}
}

func TestFireRefusedWhileInFlight(t *testing.T) {
	st := NewState(DefaultConfig(), 3)
	if !st.Fire() {
		t.Fatal("first fire refused")
	}
	if st.Fire() {
		t.Fatal("second fire accepted with a shot in flight")
	}
	if st.ShotsFired() != 1 {
		t.Fatalf("shotsFired = %d, want 1", st.ShotsFired())
	}
}

func TestFireRefusedWhilePaused(t *testing.T) {
	st := NewState(DefaultConfig(), 3)
	st.SetPaused(true)
	if st.Fire() {
		t.Fatal("fire accepted while paused")
	}
	if st.ShotsFired() != 0 {
		t.Fatalf("shotsFired = %d, want 0", st.ShotsFired())
	}
}

func TestFrameAdvancesWhilePaused(t *testing.T) {
	st := NewState(DefaultConfig(), 3)
	st.SetPaused(true)
	board := st.BoardChecksum()
	for i := 0; i < 10; i++ {
		st.Tick()
	}
	if st.Frame() != 10 {
		t.Fatalf("frame = %d, want 10", st.Frame())
	}
	if st.BoardChecksum() != board {
		t.Fatal("board changed while paused")
	}
}

func TestSetAngleClamped(t *testing.T) {
	st := NewState(DefaultConfig(), 3)
	st.SetAngle(-1)
	low := st.CannonAngle()
	st.SetAngle(10)
	high := st.CannonAngle()
	if low <= 0 || high >= math.Pi {
		t.Fatalf("clamped angles %v and %v escape (0, pi)", low, high)
	}
	st.SetAngle(1.4)
	st.Rotate(0.05)
	if math.Abs(st.CannonAngle()-1.45) > 1e-12 {
		t.Fatalf("rotate landed at %v, want 1.45", st.CannonAngle())
	}
}

func TestSwapTwiceRestoresState(t *testing.T) {
	st := NewState(DefaultConfig(), 21)
	before := st.Checksum()
	st.Swap()
	st.Swap()
	if st.Checksum() != before {
		t.Fatal("double swap changed state")
	}
}

func TestLandingChangesOccupancy(t *testing.T) {
	st := NewState(DefaultConfig(), 8)
	count := func() int {
		n := 0
		for r := 0; r < st.Config().Rows; r++ {
			for c := 0; ; c++ {
				cell, ok := st.Cell(r, c)
				if !ok {
					break
				}
				if cell.Occupied() {
					n++
				}
			}
		}
		return n
	}
	before := count()
	fireAndLand(t, st, 1.57)
	if count() == before {
		t.Fatal("landing left the occupancy count unchanged")
	}
}

func TestSingleColorBoardClears(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Colors = 1
	cfg.InitialRows = 1
	st := NewState(cfg, 42)
	fireAndLand(t, st, math.Pi/2)
	if !st.IsWon() {
		t.Fatalf("single-color board not cleared: phase %v", st.Phase())
	}
	// Eight ceiling bubbles plus the landed shot, popped at combo 1.
	if st.Score() != 9*10 {
		t.Fatalf("score = %d, want 90", st.Score())
	}
}

func TestShortRunDoesNotPop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Colors = 1
	cfg.InitialRows = 0
	st := NewState(cfg, 42)
	st.SetCell(0, 0, Bubble{Kind: KindNormal, Color: 0})
	fireAndLand(t, st, math.Pi/2)
	if st.Score() != 0 {
		t.Fatalf("isolated landing scored %d", st.Score())
	}
	if st.IsOver() {
		t.Fatalf("game ended: phase %v", st.Phase())
	}
}

func TestCeilingRowInsertion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialRows = 0
	cfg.ShotsPerRow = 1
	st := NewState(cfg, 11)
	fireAndLand(t, st, math.Pi/2)
	if st.IsOver() {
		t.Fatalf("game ended early: phase %v", st.Phase())
	}
	for c := 0; c < cfg.ColsEven; c++ {
		cell, ok := st.Cell(0, c)
		if !ok || !cell.Occupied() {
			t.Fatalf("ceiling cell %d empty after row insertion", c)
		}
	}
}

func TestBubbleChecksumCoversEveryField(t *testing.T) {
	base := Bubble{Kind: KindNormal, Color: 2, Flags: 1, Special: 3, PayloadTimer: 4}
	want := BubbleChecksum(base)
	mutations := []func(*Bubble){
		func(b *Bubble) { b.Kind++ },
		func(b *Bubble) { b.Color++ },
		func(b *Bubble) { b.Flags++ },
		func(b *Bubble) { b.Special++ },
		func(b *Bubble) { b.PayloadTimer++ },
	}
	for i, mutate := range mutations {
		b := base
		mutate(&b)
		if BubbleChecksum(b) == want {
			t.Errorf("mutation %d did not change the bubble checksum", i)
		}
	}
}
