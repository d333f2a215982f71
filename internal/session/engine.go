// Package session orchestrates one of live play, recording, playback or
// verification around simulation ticks. It composes over the simulation
// through the Engine interface and never inspects simulation internals
// beyond it.
package session

import "popblast/replay/internal/checksum"

// Engine is the surface the session layer requires from the deterministic
// simulation. Implementations must be fully deterministic: identical
// seeds and input sequences produce identical checksums.
type Engine interface {
	// Reset reinitializes the simulation from a seed.
	Reset(seed uint64)
	// SetFrame overrides the frame counter after a checkpoint restore.
	SetFrame(frame uint32)

	SetAngle(angle float64)
	Rotate(delta float64)
	Fire() bool
	Swap()
	SetPaused(paused bool)

	// Tick advances one frame and returns the number of derived events.
	Tick() int

	Frame() uint32
	IsOver() bool
	IsWon() bool
	IsLost() bool
	Score() uint32
	ShotsFired() uint32

	Checksum() uint32
	BoardChecksum() uint32
	FrameChecksum() uint32
	RNGWords() [4]uint32
	SetRNGWords(words [4]uint32)
	Digest() checksum.Digest
}

// EngineFactory constructs a fresh engine for a ruleset and seed. Twin
// simulation uses it to build two fully independent simulations.
type EngineFactory func(rulesetID string, seed uint64) Engine
