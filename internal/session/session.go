package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"popblast/replay/internal/checksum"
	"popblast/replay/internal/playback"
	"popblast/replay/internal/replay"
	"popblast/replay/internal/telemetry"
	"popblast/replay/logging"
)

// Mode selects the session state machine.
type Mode uint8

const (
	ModeLive Mode = iota
	ModeRecording
	ModePlayback
	ModeVerification
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeRecording:
		return "recording"
	case ModePlayback:
		return "playback"
	case ModeVerification:
		return "verification"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ErrInvalidState is returned when an operation does not apply to the
// session's mode, such as extracting a replay from a playback session.
var ErrInvalidState = errors.New("session: invalid state for operation")

// RotateNudge is the fixed aim adjustment applied when replaying a
// recorded rotation. The format stores only the rotation direction, not
// the magnitude, so replayed rotation is a lossy approximation; fire
// events carry the exact angle and re-aim the cannon precisely.
const RotateNudge = 0.05

const (
	metricInputsRecorded  = "replay_inputs_recorded_total"
	metricCheckpoints     = "replay_checkpoints_total"
	metricDesyncs         = "replay_desyncs_total"
	metricFramesVerified  = "replay_frames_verified_total"
	metricInputsRejected  = "replay_inputs_rejected_total"
	metricPlaybackApplied = "replay_playback_inputs_total"
)

// Config tunes one session.
type Config struct {
	Mode               Mode
	LevelID            string
	RulesetID          string
	AutoCheckpoint     bool
	CheckpointInterval uint32
	PlaybackSpeed      int
	VerifyChecksums    bool

	// OnDesync and OnCheckpoint are invoked synchronously inside Tick.
	OnDesync     func(checksum.DesyncInfo)
	OnCheckpoint func(replay.Checkpoint)

	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

// DefaultConfig returns the standard tuning for a mode: checkpoints every
// 60 frames while recording, checksum verification in verification mode.
func DefaultConfig(mode Mode) Config {
	return Config{
		Mode:               mode,
		RulesetID:          "standard",
		AutoCheckpoint:     mode == ModeRecording,
		CheckpointInterval: 60,
		PlaybackSpeed:      playback.DefaultSpeed,
		VerifyChecksums:    mode == ModeVerification,
	}
}

func (c Config) normalized() Config {
	normalized := c
	if normalized.CheckpointInterval == 0 {
		normalized.CheckpointInterval = 60
	}
	if normalized.PlaybackSpeed < 0 {
		normalized.PlaybackSpeed = 0
	}
	if normalized.Publisher == nil {
		normalized.Publisher = logging.NopPublisher()
	}
	return normalized
}

var sessionSeq atomic.Uint64

// Session drives one simulation through live play, recording, playback or
// verification. It is single-owner: one goroutine per session, nothing
// shared.
type Session struct {
	cfg    Config
	mode   Mode
	id     string
	engine Engine
	seed   uint64

	rec        *replay.Replay
	ownsReplay bool
	cursor     *playback.Cursor

	ring     checksum.Ring
	finished bool
	desync   checksum.DesyncInfo
	paused   bool
}

// New creates a live or recording session over a freshly seeded engine.
func New(engine Engine, seed uint64, cfg Config) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", replay.ErrInvalidArgument)
	}
	if cfg.Mode != ModeLive && cfg.Mode != ModeRecording {
		return nil, fmt.Errorf("%w: mode %v requires NewPlayback", ErrInvalidState, cfg.Mode)
	}
	cfg = cfg.normalized()
	s := &Session{
		cfg:    cfg,
		mode:   cfg.Mode,
		id:     fmt.Sprintf("session-%d", sessionSeq.Add(1)),
		engine: engine,
		seed:   seed,
	}
	if cfg.Mode == ModeRecording {
		rec, err := replay.New(seed, cfg.LevelID, cfg.RulesetID)
		if err != nil {
			return nil, err
		}
		s.rec = rec
		s.ownsReplay = true
	}
	s.publishCreated()
	return s, nil
}

// NewPlayback creates a playback or verification session over a recorded
// replay. The session borrows the replay; it never frees storage it did
// not allocate. The engine is reset from the replay's seed.
func NewPlayback(engine Engine, rec *replay.Replay, cfg Config) (*Session, error) {
	if engine == nil || rec == nil {
		return nil, fmt.Errorf("%w: nil engine or replay", replay.ErrInvalidArgument)
	}
	if cfg.Mode != ModePlayback && cfg.Mode != ModeVerification {
		return nil, fmt.Errorf("%w: mode %v requires New", ErrInvalidState, cfg.Mode)
	}
	cfg = cfg.normalized()
	engine.Reset(rec.Header.Seed)
	s := &Session{
		cfg:    cfg,
		mode:   cfg.Mode,
		id:     fmt.Sprintf("session-%d", sessionSeq.Add(1)),
		engine: engine,
		seed:   rec.Header.Seed,
		rec:    rec,
		cursor: playback.New(rec),
	}
	s.cursor.SetSpeed(cfg.PlaybackSpeed)
	s.publishCreated()
	return s, nil
}

// Mode reports the session mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// ID returns the session identifier used in published events.
func (s *Session) ID() string {
	return s.id
}

// Frame reports the current simulation frame.
func (s *Session) Frame() uint32 {
	return s.engine.Frame()
}

// Finished reports whether the session has run to completion, hit game
// over, or (verification) stopped on a desync.
func (s *Session) Finished() bool {
	return s.finished
}

// HasDesync reports whether verification detected a divergence.
func (s *Session) HasDesync() bool {
	return s.desync.Detected
}

// Desync returns the first detected divergence.
func (s *Session) Desync() checksum.DesyncInfo {
	return s.desync
}

// Ring exposes the per-frame checksum log for diagnostics.
func (s *Session) Ring() *checksum.Ring {
	return &s.ring
}

// Fire aims and fires the cannon, recording the fire event with its
// angle. While recording, the angle is quantized to wire precision before
// it touches the simulation so a later replay of the serialized file
// simulates the identical shot. Manual input is rejected in playback
// modes.
func (s *Session) Fire(angle float64) error {
	if err := s.requireInputMode(); err != nil {
		return err
	}
	if s.mode == ModeRecording {
		angle = replay.QuantizeAngle(angle, s.rec.Header.FixedPoint())
	}
	s.engine.SetAngle(angle)
	if !s.engine.Fire() {
		return nil
	}
	return s.recordInput(replay.EventFire, angle)
}

// Rotate nudges the cannon and records the rotation direction. The sign
// of delta picks rotate-left or rotate-right; a zero delta records
// nothing.
func (s *Session) Rotate(delta float64) error {
	if err := s.requireInputMode(); err != nil {
		return err
	}
	s.engine.Rotate(delta)
	if delta == 0 {
		return nil
	}
	eventType := replay.EventRotateRight
	if delta < 0 {
		eventType = replay.EventRotateLeft
	}
	return s.recordInput(eventType, 0)
}

// Swap exchanges the loaded and preview bubbles.
func (s *Session) Swap() error {
	if err := s.requireInputMode(); err != nil {
		return err
	}
	s.engine.Swap()
	return s.recordInput(replay.EventSwitch, 0)
}

// SetPaused suspends or resumes the simulation.
func (s *Session) SetPaused(paused bool) error {
	if err := s.requireInputMode(); err != nil {
		return err
	}
	if paused == s.paused {
		return nil
	}
	s.paused = paused
	s.engine.SetPaused(paused)
	eventType := replay.EventPause
	if !paused {
		eventType = replay.EventUnpause
	}
	return s.recordInput(eventType, 0)
}

// SetAngle aims the cannon without recording anything; the angle that
// matters is captured by the fire event.
func (s *Session) SetAngle(angle float64) error {
	if err := s.requireInputMode(); err != nil {
		return err
	}
	s.engine.SetAngle(angle)
	return nil
}

func (s *Session) requireInputMode() error {
	if s.mode == ModePlayback || s.mode == ModeVerification {
		s.addMetric(metricInputsRejected, 1)
		return fmt.Errorf("%w: manual input in %v mode", ErrInvalidState, s.mode)
	}
	return nil
}

func (s *Session) recordInput(t replay.EventType, angle float64) error {
	if s.mode != ModeRecording {
		return nil
	}
	if err := s.rec.Record(t, s.engine.Frame(), angle); err != nil {
		return err
	}
	s.addMetric(metricInputsRecorded, 1)
	s.publish(logging.Event{
		Type:     logging.EventInputRecorded,
		Frame:    s.engine.Frame(),
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRecording,
		Payload:  t.String(),
	})
	return nil
}

// Tick advances the session one frame: drain due recorded inputs in
// playback modes, tick the simulation, log the light frame checksum,
// auto-checkpoint while recording, verify against checkpoints in
// verification mode.
func (s *Session) Tick() error {
	if s.finished {
		return nil
	}

	if s.cursor != nil {
		s.applyDueEvents()
	}

	s.engine.Tick()
	if s.cursor != nil {
		s.cursor.Advance()
	}
	frame := s.engine.Frame()
	s.ring.Record(frame, s.engine.FrameChecksum())

	if s.mode == ModeRecording && s.cfg.AutoCheckpoint && frame%s.cfg.CheckpointInterval == 0 {
		if err := s.snapshotCheckpoint(); err != nil {
			return err
		}
	}

	if s.mode == ModeVerification && s.cfg.VerifyChecksums {
		s.verifyFrame(frame)
		if s.finished {
			return nil
		}
	}

	if s.engine.IsOver() {
		s.finished = true
	}
	if s.cursor != nil && frame >= s.rec.Header.DurationFrames {
		s.finished = true
		s.cursor.Finish()
	}
	return nil
}

// applyDueEvents drains every event scheduled at or before the current
// playback frame and translates it into simulation calls. Fire re-aims
// with the recorded angle and is exact; rotation replays only the
// recorded direction as a fixed nudge.
func (s *Session) applyDueEvents() {
	for {
		event, ok := s.cursor.NextEvent()
		if !ok {
			return
		}
		s.addMetric(metricPlaybackApplied, 1)
		switch event.Type {
		case replay.EventFire:
			s.engine.SetAngle(event.Angle)
			s.engine.Fire()
		case replay.EventRotateLeft:
			s.engine.Rotate(-RotateNudge)
		case replay.EventRotateRight:
			s.engine.Rotate(RotateNudge)
		case replay.EventSwitch:
			s.engine.Swap()
		case replay.EventPause:
			s.engine.SetPaused(true)
		case replay.EventUnpause:
			s.engine.SetPaused(false)
		}
	}
}

func (s *Session) snapshotCheckpoint() error {
	cp := replay.Checkpoint{
		Frame:         s.engine.Frame(),
		EventIndex:    uint32(s.rec.EventCount()),
		StateChecksum: s.engine.Checksum(),
		BoardChecksum: s.engine.BoardChecksum(),
		RNGState:      s.engine.RNGWords(),
		Score:         s.engine.Score(),
		ShotsFired:    s.engine.ShotsFired(),
	}
	if err := s.rec.AddCheckpoint(cp); err != nil {
		return err
	}
	s.addMetric(metricCheckpoints, 1)
	s.publish(logging.Event{
		Type:     logging.EventCheckpointRecorded,
		Frame:    cp.Frame,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRecording,
	})
	if s.cfg.OnCheckpoint != nil {
		s.cfg.OnCheckpoint(cp)
	}
	return nil
}

// verifyFrame compares freshly computed checksums against the checkpoint
// recorded for exactly this frame, if any. The first mismatch finishes
// the session; later frames would only report noise derived from the
// first divergence.
func (s *Session) verifyFrame(frame uint32) {
	cp, ok := s.cursor.CheckpointAt(frame)
	if !ok {
		return
	}
	s.addMetric(metricFramesVerified, 1)
	actual := s.engine.Digest()
	expected := checksum.Digest{
		Frame: cp.Frame,
		Phase: actual.Phase,
		Score: cp.Score,
		Board: cp.BoardChecksum,
		RNG:   checksum.RNGChecksum(cp.RNGState),
		State: cp.StateChecksum,
	}
	info := checksum.Compare(expected, actual)
	if !info.Detected {
		return
	}
	s.desync = info
	s.finished = true
	s.cursor.Finish()
	s.addMetric(metricDesyncs, 1)
	s.publish(logging.Event{
		Type:      logging.EventDesyncDetected,
		Frame:     info.Frame,
		Severity:  logging.SeverityError,
		Category:  logging.CategoryVerification,
		Component: info.Component,
		Payload: map[string]any{
			"expected": info.Expected,
			"actual":   info.Actual,
		},
	})
	if s.cfg.OnDesync != nil {
		s.cfg.OnDesync(info)
	}
}

// Run ticks the session to completion or the frame cap, whichever comes
// first, and returns the number of frames executed.
func (s *Session) Run(maxFrames int) (int, error) {
	frames := 0
	for !s.finished && frames < maxFrames {
		if err := s.Tick(); err != nil {
			return frames, err
		}
		frames++
	}
	return frames, nil
}

// Seek repositions a playback session near the target frame: the cursor
// jumps to the nearest earlier checkpoint, the simulation is reset and
// given the checkpoint's RNG words and frame position, then ticked
// forward to the target. Board contents are re-derived by re-simulation
// rather than restored from the checkpoint. Returns the frame reached.
func (s *Session) Seek(target uint32) (uint32, error) {
	if s.cursor == nil {
		return 0, fmt.Errorf("%w: seek outside playback", ErrInvalidState)
	}
	reached, cp, ok := s.cursor.Seek(target)
	s.engine.Reset(s.seed)
	s.finished = false
	s.desync = checksum.DesyncInfo{}
	s.ring.Reset()
	if ok {
		s.engine.SetRNGWords(cp.RNGState)
		s.engine.SetFrame(cp.Frame)
	}
	for s.engine.Frame() < target && !s.finished {
		if err := s.Tick(); err != nil {
			return s.engine.Frame(), err
		}
	}
	s.publish(logging.Event{
		Type:     logging.EventPlaybackSeek,
		Frame:    s.engine.Frame(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPlayback,
		Payload:  map[string]any{"target": target, "checkpoint": reached},
	})
	return s.engine.Frame(), nil
}

// SetSpeed adjusts the cosmetic playback pacing.
func (s *Session) SetSpeed(percent int) {
	if s.cursor != nil {
		s.cursor.SetSpeed(percent)
	}
}

// Progress reports completion in [0, 1] for playback sessions.
func (s *Session) Progress() float64 {
	if s.cursor == nil {
		return 0
	}
	return s.cursor.Progress()
}

// Finalize freezes the recorded replay with its duration, final score and
// outcome. Only recording sessions can finalize.
func (s *Session) Finalize() error {
	if s.mode != ModeRecording || s.rec == nil {
		return fmt.Errorf("%w: finalize in %v mode", ErrInvalidState, s.mode)
	}
	outcome := replay.OutcomeAbandoned
	switch {
	case s.engine.IsWon():
		outcome = replay.OutcomeWon
	case s.engine.IsLost():
		outcome = replay.OutcomeLost
	case !s.finished:
		outcome = replay.OutcomeIncomplete
	}
	s.rec.Finalize(s.engine.Frame(), s.engine.Score(), outcome)
	s.publish(logging.Event{
		Type:     logging.EventReplayFinalized,
		Frame:    s.engine.Frame(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRecording,
		Payload:  outcome.String(),
	})
	return nil
}

// Replay returns the session's replay without transferring ownership.
func (s *Session) Replay() *replay.Replay {
	return s.rec
}

// ExtractReplay transfers ownership of the recorded replay to the caller.
// The session drops its reference, so there is exactly one owner at any
// time; extracting twice or from a non-recording session fails.
func (s *Session) ExtractReplay() (*replay.Replay, error) {
	if !s.ownsReplay || s.rec == nil {
		return nil, fmt.Errorf("%w: session does not own a replay", ErrInvalidState)
	}
	rec := s.rec
	s.rec = nil
	s.ownsReplay = false
	return rec, nil
}

func (s *Session) publishCreated() {
	s.publish(logging.Event{
		Type:     logging.EventSessionCreated,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  s.mode.String(),
	})
}

func (s *Session) publish(event logging.Event) {
	event.Session = s.id
	s.cfg.Publisher.Publish(context.Background(), event)
}

func (s *Session) addMetric(key string, delta uint64) {
	if s.cfg.Metrics == nil {
		return
	}
	s.cfg.Metrics.Add(key, delta)
}

// AngleEqual reports whether two fire angles agree within the precision
// lost by a float32 or Q16.16 round trip.
func AngleEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}
