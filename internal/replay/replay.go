package replay

import "fmt"

// Format constants. The magic is the ASCII bytes "PBRP" read as a
// little-endian u32.
const (
	Magic   uint32 = 0x50524250
	Version uint8  = 1

	// FlagFixedPoint selects Q16.16 fire-angle payloads for the whole
	// replay. FlagCompressed is reserved and never set by this version.
	FlagFixedPoint uint8 = 1 << 0
	FlagCompressed uint8 = 1 << 1

	// MaxEvents and MaxCheckpoints are hard caps on the grow-by-doubling
	// arrays. Exceeding either is an error, never a silent drop.
	MaxEvents      = 65536
	MaxCheckpoints = 256

	idFieldLen = 64
)

// Outcome records how the recorded match ended.
type Outcome uint8

const (
	OutcomeIncomplete Outcome = iota
	OutcomeWon
	OutcomeLost
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIncomplete:
		return "incomplete"
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Header carries the replay-wide metadata serialized into the fixed
// 164-byte prefix.
type Header struct {
	Version        uint8
	Flags          uint8
	Seed           uint64
	LevelID        string
	RulesetID      string
	DurationFrames uint32
	FinalScore     uint32
	Outcome        Outcome
}

// FixedPoint reports whether fire angles are stored as Q16.16.
func (h Header) FixedPoint() bool {
	return h.Flags&FlagFixedPoint != 0
}

// Checkpoint is a periodic full-state snapshot stored alongside the event
// stream: enough to verify a frame and to seed a seek.
type Checkpoint struct {
	Frame         uint32
	EventIndex    uint32
	StateChecksum uint32
	BoardChecksum uint32
	RNGState      [4]uint32
	Score         uint32
	ShotsFired    uint32
}

// Replay is the in-memory container for one recorded match: header,
// append-only input events, append-only checkpoints. Storage grows by
// doubling up to the hard caps.
type Replay struct {
	Header      Header
	events      []Event
	checkpoints []Checkpoint
	finalized   bool
}

// New returns an empty replay for the given seed and identifiers.
func New(seed uint64, levelID, rulesetID string) (*Replay, error) {
	if len(levelID) > idFieldLen || len(rulesetID) > idFieldLen {
		return nil, fmt.Errorf("%w: id longer than %d bytes", ErrInvalidArgument, idFieldLen)
	}
	return &Replay{
		Header: Header{
			Version:   Version,
			Seed:      seed,
			LevelID:   levelID,
			RulesetID: rulesetID,
		},
	}, nil
}

// Events returns the recorded input events. The slice is owned by the
// replay; callers must not mutate it.
func (r *Replay) Events() []Event {
	return r.events
}

// Checkpoints returns the recorded checkpoints. The slice is owned by the
// replay; callers must not mutate it.
func (r *Replay) Checkpoints() []Checkpoint {
	return r.checkpoints
}

// EventCount reports the number of recorded input events.
func (r *Replay) EventCount() int {
	return len(r.events)
}

// CheckpointCount reports the number of recorded checkpoints.
func (r *Replay) CheckpointCount() int {
	return len(r.checkpoints)
}

// Finalized reports whether Finalize has frozen the replay.
func (r *Replay) Finalized() bool {
	return r.finalized
}

// RecordEvent appends an input event. Derived event types are silently
// ignored: pops, drops, garbage and game-over are regenerated
// byte-identically by re-simulation and have no place in the log. Frames
// must be non-decreasing.
func (r *Replay) RecordEvent(e Event) error {
	if !e.Type.IsInput() {
		return nil
	}
	if r.finalized {
		return ErrFinalized
	}
	if n := len(r.events); n > 0 && e.Frame < r.events[n-1].Frame {
		return fmt.Errorf("%w: frame %d precedes last recorded frame %d", ErrInvalidArgument, e.Frame, r.events[n-1].Frame)
	}
	if len(r.events) >= MaxEvents {
		return fmt.Errorf("%w: %d events", ErrCapacity, MaxEvents)
	}
	r.events = appendDoubling(r.events, e)
	return nil
}

// Record appends an event built from its parts, applying the same
// input-only filter as RecordEvent.
func (r *Replay) Record(t EventType, frame uint32, angle float64) error {
	return r.RecordEvent(Event{Type: t, Frame: frame, Angle: angle})
}

// AddCheckpoint appends a checkpoint snapshot.
func (r *Replay) AddCheckpoint(cp Checkpoint) error {
	if r.finalized {
		return ErrFinalized
	}
	if len(r.checkpoints) >= MaxCheckpoints {
		return fmt.Errorf("%w: %d checkpoints", ErrCapacity, MaxCheckpoints)
	}
	r.checkpoints = appendDoubling(r.checkpoints, cp)
	return nil
}

// Finalize freezes the replay with its outcome metadata. Further recording
// fails with ErrFinalized.
func (r *Replay) Finalize(durationFrames, finalScore uint32, outcome Outcome) {
	r.Header.DurationFrames = durationFrames
	r.Header.FinalScore = finalScore
	r.Header.Outcome = outcome
	r.finalized = true
}

// Clone returns an independent deep copy. Twin simulation hands each twin
// its own copy so neither run can observe the other.
func (r *Replay) Clone() *Replay {
	clone := &Replay{Header: r.Header, finalized: r.finalized}
	if len(r.events) > 0 {
		clone.events = make([]Event, len(r.events))
		copy(clone.events, r.events)
	}
	if len(r.checkpoints) > 0 {
		clone.checkpoints = make([]Checkpoint, len(r.checkpoints))
		copy(clone.checkpoints, r.checkpoints)
	}
	return clone
}

// appendDoubling grows the backing array by doubling instead of the
// runtime's growth curve so allocation behavior stays predictable under
// the hard caps.
func appendDoubling[T any](s []T, v T) []T {
	if len(s) == cap(s) {
		capacity := cap(s) * 2
		if capacity == 0 {
			capacity = 16
		}
		grown := make([]T, len(s), capacity)
		copy(grown, s)
		s = grown
	}
	return append(s, v)
}
