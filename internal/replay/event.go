package replay

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EventType identifies a simulation event. Only the six input types are
// ever persisted; the derived types exist so gameplay code can hand every
// event to Record and let the filter decide.
type EventType uint8

const (
	EventRotateLeft EventType = iota
	EventRotateRight
	EventFire
	EventSwitch
	EventPause
	EventUnpause

	// Derived events. They are regenerated by re-simulation and never
	// written to a replay.
	EventPop
	EventDrop
	EventGarbage
	EventGameOver
)

const inputEventTypes = 6

// IsInput reports whether the type is one of the six persisted inputs.
func (t EventType) IsInput() bool {
	return t < inputEventTypes
}

func (t EventType) String() string {
	switch t {
	case EventRotateLeft:
		return "rotate_left"
	case EventRotateRight:
		return "rotate_right"
	case EventFire:
		return "fire"
	case EventSwitch:
		return "switch"
	case EventPause:
		return "pause"
	case EventUnpause:
		return "unpause"
	case EventPop:
		return "pop"
	case EventDrop:
		return "drop"
	case EventGarbage:
		return "garbage"
	case EventGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("event(%d)", uint8(t))
	}
}

// Event is one recorded input: an absolute frame, a type, and for fire
// events the shot angle in radians. Events are immutable once recorded and
// frames never decrease across a replay's event list.
type Event struct {
	Type  EventType
	Frame uint32
	Angle float64
}

// QuantizeAngle rounds an angle to the precision the wire payload can
// carry. Recording quantizes before applying the angle to the simulation,
// so the angle a verification run reads back from disk is bit-identical
// to the one the recording run actually simulated with.
func QuantizeAngle(angle float64, fixedPoint bool) float64 {
	if fixedPoint {
		return float64(int32(math.Round(angle*65536))) / 65536
	}
	return float64(float32(angle))
}

// Packed event header byte: type in the high nibble, payload-size code in
// the low two bits (0 = none, 2 = four bytes; 1 and 3 reserved), the
// remaining two bits reserved.
const (
	payloadNone   = 0
	payloadWord   = 2
	maxPackedSize = 1 + maxVarintLen + 4
)

// AppendPacked appends the wire form of e relative to the previous event's
// absolute frame: header byte, LEB128 frame delta, and for fire events a
// four-byte angle payload. The payload representation (Q16.16 fixed point
// or IEEE float32) is selected by the replay-level fixedPoint flag, not
// per event.
func AppendPacked(dst []byte, e Event, prevFrame uint32, fixedPoint bool) ([]byte, error) {
	if !e.Type.IsInput() {
		return dst, fmt.Errorf("%w: cannot pack derived event %v", ErrInvalidArgument, e.Type)
	}
	if e.Frame < prevFrame {
		return dst, fmt.Errorf("%w: event frame %d precedes previous frame %d", ErrInvalidArgument, e.Frame, prevFrame)
	}
	sizeCode := byte(payloadNone)
	if e.Type == EventFire {
		sizeCode = payloadWord
	}
	dst = append(dst, byte(e.Type)<<4|sizeCode)
	dst = AppendVarint(dst, e.Frame-prevFrame)
	if e.Type == EventFire {
		var word [4]byte
		if fixedPoint {
			binary.LittleEndian.PutUint32(word[:], uint32(int32(math.Round(e.Angle*65536))))
		} else {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(float32(e.Angle)))
		}
		dst = append(dst, word[:]...)
	}
	return dst, nil
}

// DecodePacked reads one packed event from src, resolving the frame delta
// against the previous event's absolute frame. It returns the event and
// the number of bytes consumed.
func DecodePacked(src []byte, prevFrame uint32, fixedPoint bool) (Event, int, error) {
	if len(src) == 0 {
		return Event{}, 0, fmt.Errorf("%w: empty event", ErrTruncated)
	}
	header := src[0]
	eventType := EventType(header >> 4)
	sizeCode := header & 0x03
	if !eventType.IsInput() {
		return Event{}, 0, fmt.Errorf("%w: unknown event type %d", ErrInvalidArgument, header>>4)
	}
	switch sizeCode {
	case payloadNone, payloadWord:
	default:
		return Event{}, 0, fmt.Errorf("%w: reserved payload size code %d", ErrInvalidArgument, sizeCode)
	}

	delta, n, err := DecodeVarint(src[1:])
	if err != nil {
		return Event{}, 0, err
	}
	consumed := 1 + n

	event := Event{Type: eventType, Frame: prevFrame + delta}
	if sizeCode == payloadWord {
		if len(src) < consumed+4 {
			return Event{}, 0, fmt.Errorf("%w: event payload", ErrTruncated)
		}
		word := binary.LittleEndian.Uint32(src[consumed:])
		if fixedPoint {
			event.Angle = float64(int32(word)) / 65536
		} else {
			event.Angle = float64(math.Float32frombits(word))
		}
		consumed += 4
	}
	return event, consumed, nil
}
