package replay

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed-layout sizes. Every multi-byte field is little-endian.
const (
	// HeaderSize is the fixed prefix: magic(4) version(1) flags(1)
	// reserved(2) seed(8) level_id(64) ruleset_id(64) event_count(4)
	// checkpoint_count(4) duration(4) final_score(4) outcome(1)
	// reserved(3).
	HeaderSize = 164
	// CheckpointSize covers frame, event_index, state and board
	// checksums, the four RNG words, score and shots_fired.
	CheckpointSize = 40
	// eventSizeEstimate is the flat per-event figure SerializedSize
	// uses: worst-case header byte + varint + payload.
	eventSizeEstimate = 10
)

// SerializedSize returns a conservative upper bound on the encoded size.
// The event stream is variable-width, so callers must still check
// Serialize's return instead of trusting this estimate exactly.
func (r *Replay) SerializedSize() int {
	return HeaderSize + len(r.checkpoints)*CheckpointSize + len(r.events)*eventSizeEstimate
}

// Serialize encodes the replay into dst and returns the number of bytes
// written. It fails without touching later bytes if dst is too small.
func (r *Replay) Serialize(dst []byte) (int, error) {
	encoded, err := r.MarshalBinary()
	if err != nil {
		return 0, err
	}
	if len(dst) < len(encoded) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrInvalidArgument, len(encoded), len(dst))
	}
	copy(dst, encoded)
	return len(encoded), nil
}

// MarshalBinary encodes the replay into the flat container layout:
// header, checkpoint array, packed event stream.
func (r *Replay) MarshalBinary() ([]byte, error) {
	if len(r.Header.LevelID) > idFieldLen || len(r.Header.RulesetID) > idFieldLen {
		return nil, fmt.Errorf("%w: id longer than %d bytes", ErrInvalidArgument, idFieldLen)
	}
	buf := make([]byte, HeaderSize, r.SerializedSize())

	binary.LittleEndian.PutUint32(buf[0:], Magic)
	buf[4] = Version
	buf[5] = r.Header.Flags
	binary.LittleEndian.PutUint64(buf[8:], r.Header.Seed)
	copy(buf[16:16+idFieldLen], r.Header.LevelID)
	copy(buf[80:80+idFieldLen], r.Header.RulesetID)
	binary.LittleEndian.PutUint32(buf[144:], uint32(len(r.events)))
	binary.LittleEndian.PutUint32(buf[148:], uint32(len(r.checkpoints)))
	binary.LittleEndian.PutUint32(buf[152:], r.Header.DurationFrames)
	binary.LittleEndian.PutUint32(buf[156:], r.Header.FinalScore)
	buf[160] = byte(r.Header.Outcome)

	var scratch [CheckpointSize]byte
	for _, cp := range r.checkpoints {
		binary.LittleEndian.PutUint32(scratch[0:], cp.Frame)
		binary.LittleEndian.PutUint32(scratch[4:], cp.EventIndex)
		binary.LittleEndian.PutUint32(scratch[8:], cp.StateChecksum)
		binary.LittleEndian.PutUint32(scratch[12:], cp.BoardChecksum)
		for i, word := range cp.RNGState {
			binary.LittleEndian.PutUint32(scratch[16+4*i:], word)
		}
		binary.LittleEndian.PutUint32(scratch[32:], cp.Score)
		binary.LittleEndian.PutUint32(scratch[36:], cp.ShotsFired)
		buf = append(buf, scratch[:]...)
	}

	prevFrame := uint32(0)
	fixedPoint := r.Header.FixedPoint()
	for _, e := range r.events {
		var err error
		buf, err = AppendPacked(buf, e, prevFrame, fixedPoint)
		if err != nil {
			return nil, err
		}
		prevFrame = e.Frame
	}
	return buf, nil
}

// Deserialize decodes a flat buffer into a fresh replay. Any decode
// failure (bad magic, unsupported version, truncated checkpoint, varint or
// payload) fails the whole load; no partially-built replay escapes.
func Deserialize(data []byte) (*Replay, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header", ErrInvalidArgument, len(data), HeaderSize)
	}
	if binary.LittleEndian.Uint32(data[0:]) != Magic {
		return nil, ErrBadMagic
	}
	if data[4] > Version {
		return nil, fmt.Errorf("%w: version %d, supported up to %d", ErrVersion, data[4], Version)
	}

	r := &Replay{
		Header: Header{
			Version:        data[4],
			Flags:          data[5],
			Seed:           binary.LittleEndian.Uint64(data[8:]),
			LevelID:        trimID(data[16 : 16+idFieldLen]),
			RulesetID:      trimID(data[80 : 80+idFieldLen]),
			DurationFrames: binary.LittleEndian.Uint32(data[152:]),
			FinalScore:     binary.LittleEndian.Uint32(data[156:]),
			Outcome:        Outcome(data[160]),
		},
		finalized: true,
	}

	eventCount := binary.LittleEndian.Uint32(data[144:])
	checkpointCount := binary.LittleEndian.Uint32(data[148:])
	if eventCount > MaxEvents {
		return nil, fmt.Errorf("%w: %d events exceeds cap %d", ErrInvalidArgument, eventCount, MaxEvents)
	}
	if checkpointCount > MaxCheckpoints {
		return nil, fmt.Errorf("%w: %d checkpoints exceeds cap %d", ErrInvalidArgument, checkpointCount, MaxCheckpoints)
	}

	offset := HeaderSize
	if len(data) < offset+int(checkpointCount)*CheckpointSize {
		return nil, fmt.Errorf("%w: checkpoint array", ErrTruncated)
	}
	if checkpointCount > 0 {
		r.checkpoints = make([]Checkpoint, 0, checkpointCount)
	}
	for i := uint32(0); i < checkpointCount; i++ {
		field := data[offset:]
		cp := Checkpoint{
			Frame:         binary.LittleEndian.Uint32(field[0:]),
			EventIndex:    binary.LittleEndian.Uint32(field[4:]),
			StateChecksum: binary.LittleEndian.Uint32(field[8:]),
			BoardChecksum: binary.LittleEndian.Uint32(field[12:]),
			Score:         binary.LittleEndian.Uint32(field[32:]),
			ShotsFired:    binary.LittleEndian.Uint32(field[36:]),
		}
		for w := range cp.RNGState {
			cp.RNGState[w] = binary.LittleEndian.Uint32(field[16+4*w:])
		}
		r.checkpoints = append(r.checkpoints, cp)
		offset += CheckpointSize
	}

	if eventCount > 0 {
		r.events = make([]Event, 0, eventCount)
	}
	prevFrame := uint32(0)
	fixedPoint := r.Header.FixedPoint()
	for i := uint32(0); i < eventCount; i++ {
		event, n, err := DecodePacked(data[offset:], prevFrame, fixedPoint)
		if err != nil {
			return nil, fmt.Errorf("event %d at offset %d: %w", i, offset, err)
		}
		r.events = append(r.events, event)
		prevFrame = event.Frame
		offset += n
	}
	return r, nil
}

func trimID(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
