package session

import (
	"fmt"

	"popblast/replay/internal/checksum"
	"popblast/replay/internal/replay"
)

// TwinComponent names the synthetic component reported when two twin runs
// disagree on their final state checksum.
const TwinComponent = "twin_simulation"

// twinFrameSlack bounds a twin run past the recorded duration so a replay
// with a corrupt duration cannot spin forever.
const twinFrameSlack = 128

// TwinSimulate runs the identical replay through two independently
// constructed verification sessions and compares only the final
// full-state checksums. Each twin gets its own deep copy of the replay
// and its own engine; the runs share nothing, so they execute
// sequentially without any locking. This is the primary determinism test
// for the whole subsystem.
func TwinSimulate(rec *replay.Replay, factory EngineFactory, cfg Config) (checksum.DesyncInfo, error) {
	if rec == nil || factory == nil {
		return checksum.DesyncInfo{}, fmt.Errorf("%w: nil replay or factory", replay.ErrInvalidArgument)
	}
	cfg.Mode = ModeVerification
	cfg.VerifyChecksums = true

	var finals [2]uint32
	var frames [2]uint32
	for twin := 0; twin < 2; twin++ {
		engine := factory(rec.Header.RulesetID, rec.Header.Seed)
		s, err := NewPlayback(engine, rec.Clone(), cfg)
		if err != nil {
			return checksum.DesyncInfo{}, err
		}
		if _, err := s.Run(int(rec.Header.DurationFrames) + twinFrameSlack); err != nil {
			return checksum.DesyncInfo{}, err
		}
		if s.HasDesync() {
			return s.Desync(), nil
		}
		finals[twin] = engine.Checksum()
		frames[twin] = engine.Frame()
	}

	if finals[0] != finals[1] {
		return checksum.DesyncInfo{
			Detected:  true,
			Frame:     frames[1],
			Expected:  finals[0],
			Actual:    finals[1],
			Component: TwinComponent,
		}, nil
	}
	return checksum.DesyncInfo{}, nil
}

// CreateGoldenChecksums replays the recording once and samples the full
// state checksum every interval frames into out, for use as regression
// fixtures. It returns the number of samples written.
func CreateGoldenChecksums(rec *replay.Replay, factory EngineFactory, interval uint32, out []uint32) (int, error) {
	if rec == nil || factory == nil || interval == 0 || len(out) == 0 {
		return 0, fmt.Errorf("%w: bad golden sampling arguments", replay.ErrInvalidArgument)
	}
	engine := factory(rec.Header.RulesetID, rec.Header.Seed)
	cfg := DefaultConfig(ModePlayback)
	cfg.RulesetID = rec.Header.RulesetID
	s, err := NewPlayback(engine, rec.Clone(), cfg)
	if err != nil {
		return 0, err
	}

	written := 0
	for !s.Finished() && written < len(out) {
		if err := s.Tick(); err != nil {
			return written, err
		}
		frame := engine.Frame()
		if frame%interval == 0 {
			out[written] = engine.Checksum()
			written++
		}
	}
	return written, nil
}
