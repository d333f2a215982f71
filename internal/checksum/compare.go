package checksum

// Component names reported by Compare, in check-priority order.
const (
	ComponentRNG   = "rng"
	ComponentBoard = "board"
	ComponentScore = "score"
	ComponentPhase = "phase"
	ComponentFrame = "frame"
	ComponentState = "state"
)

// Digest collects the component checksums of one simulation state so two
// states can be compared component by component.
type Digest struct {
	Frame uint32
	Phase uint32
	Score uint32
	Board uint32
	RNG   uint32
	State uint32
}

// DesyncInfo localizes a detected divergence to a frame and a named
// component. It is a diagnostic value only and is never persisted.
type DesyncInfo struct {
	Detected  bool
	Frame     uint32
	Expected  uint32
	Actual    uint32
	Component string
}

// Compare checks the two digests in fixed priority order (rng, board,
// score, phase, frame, then the full-state fold) and reports the first
// mismatching component. The ordering makes desync reports reproducible:
// an RNG drift is always blamed on the rng, never on a checksum it
// corrupted downstream.
func Compare(expected, actual Digest) DesyncInfo {
	checks := []struct {
		component string
		expected  uint32
		actual    uint32
	}{
		{ComponentRNG, expected.RNG, actual.RNG},
		{ComponentBoard, expected.Board, actual.Board},
		{ComponentScore, expected.Score, actual.Score},
		{ComponentPhase, expected.Phase, actual.Phase},
		{ComponentFrame, expected.Frame, actual.Frame},
		{ComponentState, expected.State, actual.State},
	}
	for _, check := range checks {
		if check.expected != check.actual {
			return DesyncInfo{
				Detected:  true,
				Frame:     actual.Frame,
				Expected:  check.expected,
				Actual:    check.actual,
				Component: check.component,
			}
		}
	}
	return DesyncInfo{}
}
