// Package playback provides a cursor over a loaded replay: it hands out
// events as their frames come due and jumps to frames via the nearest
// checkpoint. The cursor holds no simulation state; after a seek the
// caller restores the simulation from the checkpoint it is handed.
package playback

import "popblast/replay/internal/replay"

// DefaultSpeed is the 1x pacing multiplier. Speed is cosmetic pacing for
// hosts that want slow motion or fast forward; it never affects which
// events are due on which frame.
const DefaultSpeed = 100

// Cursor tracks playback position inside one replay.
type Cursor struct {
	source           *replay.Replay
	frame            uint32
	eventCursor      int
	checkpointCursor int
	finished         bool
	paused           bool
	speed            int
}

// New returns a cursor positioned at the start of the replay.
func New(source *replay.Replay) *Cursor {
	return &Cursor{source: source, speed: DefaultSpeed}
}

// Frame reports the current playback frame.
func (c *Cursor) Frame() uint32 {
	return c.frame
}

// Finished reports whether the cursor has been marked complete.
func (c *Cursor) Finished() bool {
	return c.finished
}

// Finish marks playback complete; NextEvent stops returning events.
func (c *Cursor) Finish() {
	c.finished = true
}

// Paused reports whether playback is paused.
func (c *Cursor) Paused() bool {
	return c.paused
}

// SetPaused pauses or resumes playback. While paused, Advance does not
// move the frame and NextEvent returns nothing.
func (c *Cursor) SetPaused(paused bool) {
	c.paused = paused
}

// Speed reports the pacing multiplier in percent (100 = 1x, 0 = paused).
func (c *Cursor) Speed() int {
	return c.speed
}

// SetSpeed sets the pacing multiplier. Negative values are clamped to
// zero.
func (c *Cursor) SetSpeed(percent int) {
	if percent < 0 {
		percent = 0
	}
	c.speed = percent
}

// NextEvent returns the next unconsumed event whose frame is due, one per
// call, advancing past it. Callers drain due events in a loop before
// ticking the simulation: several events can share one frame.
func (c *Cursor) NextEvent() (replay.Event, bool) {
	if c.finished || c.paused {
		return replay.Event{}, false
	}
	events := c.source.Events()
	if c.eventCursor >= len(events) {
		return replay.Event{}, false
	}
	next := events[c.eventCursor]
	if next.Frame > c.frame {
		return replay.Event{}, false
	}
	c.eventCursor++
	return next, true
}

// Advance moves playback forward one frame and rolls the checkpoint
// cursor past every checkpoint that frame has reached. The checkpoint
// cursor is monotonic; only Seek rewinds it. Advance is a no-op while
// paused.
func (c *Cursor) Advance() {
	if c.paused {
		return
	}
	c.frame++
	checkpoints := c.source.Checkpoints()
	for c.checkpointCursor < len(checkpoints) && checkpoints[c.checkpointCursor].Frame <= c.frame {
		c.checkpointCursor++
	}
}

// CheckpointAt returns the checkpoint recorded for exactly the current
// frame, if any.
func (c *Cursor) CheckpointAt(frame uint32) (replay.Checkpoint, bool) {
	for _, cp := range c.source.Checkpoints() {
		if cp.Frame == frame {
			return cp, true
		}
	}
	return replay.Checkpoint{}, false
}

// Seek positions the cursor at the last checkpoint at or before target and
// returns the frame actually reached along with that checkpoint. On a
// miss (no checkpoint at or before target) the cursor resets to the start
// and the second return is false. The caller owns restoring simulation
// state from the returned checkpoint; the cursor only moves its own three
// cursors.
func (c *Cursor) Seek(target uint32) (uint32, replay.Checkpoint, bool) {
	checkpoints := c.source.Checkpoints()
	best := -1
	for i, cp := range checkpoints {
		if cp.Frame <= target {
			best = i
		} else {
			break
		}
	}
	c.finished = false
	if best < 0 {
		c.frame = 0
		c.eventCursor = 0
		c.checkpointCursor = 0
		return 0, replay.Checkpoint{}, false
	}
	cp := checkpoints[best]
	c.frame = cp.Frame
	c.eventCursor = int(cp.EventIndex)
	c.checkpointCursor = best + 1
	return cp.Frame, cp, true
}

// Progress reports playback completion in [0, 1] against the recorded
// duration.
func (c *Cursor) Progress() float64 {
	duration := c.source.Header.DurationFrames
	if duration == 0 {
		return 0
	}
	if c.frame >= duration {
		return 1
	}
	return float64(c.frame) / float64(duration)
}
