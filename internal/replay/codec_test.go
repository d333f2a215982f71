package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
)

func buildReplay(t *testing.T, flags uint8) *Replay {
	t.Helper()
	rec, err := New(0xDEADBEEFCAFE, "level-7", "standard")
	if err != nil {
		t.Fatal(err)
	}
	rec.Header.Flags = flags
	fixedPoint := rec.Header.FixedPoint()

	events := []Event{
		{Type: EventRotateRight, Frame: 0},
		{Type: EventFire, Frame: 0, Angle: QuantizeAngle(1.57, fixedPoint)},
		{Type: EventSwitch, Frame: 40},
		{Type: EventFire, Frame: 41, Angle: QuantizeAngle(1.2, fixedPoint)},
		{Type: EventPause, Frame: 200},
		{Type: EventUnpause, Frame: 260},
		{Type: EventFire, Frame: 300, Angle: QuantizeAngle(2.0, fixedPoint)},
	}
	for _, e := range events {
		if err := rec.RecordEvent(e); err != nil {
			t.Fatalf("record %+v: %v", e, err)
		}
	}
	checkpoints := []Checkpoint{
		{Frame: 60, EventIndex: 2, StateChecksum: 0x11111111, BoardChecksum: 0x22222222, RNGState: [4]uint32{1, 2, 3, 4}, Score: 30, ShotsFired: 1},
		{Frame: 120, EventIndex: 4, StateChecksum: 0x33333333, BoardChecksum: 0x44444444, RNGState: [4]uint32{5, 6, 7, 8}, Score: 90, ShotsFired: 2},
		{Frame: 300, EventIndex: 6, StateChecksum: 0x55555555, BoardChecksum: 0x66666666, RNGState: [4]uint32{9, 10, 11, 12}, Score: 150, ShotsFired: 2},
	}
	for _, cp := range checkpoints {
		if err := rec.AddCheckpoint(cp); err != nil {
			t.Fatalf("checkpoint %+v: %v", cp, err)
		}
	}
	rec.Finalize(360, 150, OutcomeWon)
	return rec
}

func TestMarshalLayout(t *testing.T) {
	rec := buildReplay(t, 0)
	data, err := rec.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[0:4], []byte("PBRP")) {
		t.Fatalf("magic bytes = %q", data[0:4])
	}
	if data[4] != Version {
		t.Fatalf("version byte = %d", data[4])
	}
	if got := binary.LittleEndian.Uint64(data[8:]); got != rec.Header.Seed {
		t.Fatalf("seed field = %#x", got)
	}
	if got := binary.LittleEndian.Uint32(data[144:]); got != uint32(rec.EventCount()) {
		t.Fatalf("event count field = %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[148:]); got != uint32(rec.CheckpointCount()) {
		t.Fatalf("checkpoint count field = %d", got)
	}
	if data[160] != byte(OutcomeWon) {
		t.Fatalf("outcome byte = %d", data[160])
	}
	if len(data) > rec.SerializedSize() {
		t.Fatalf("encoded %d bytes exceeds estimate %d", len(data), rec.SerializedSize())
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	for _, flags := range []uint8{0, FlagFixedPoint} {
		rec := buildReplay(t, flags)
		buf := make([]byte, rec.SerializedSize())
		n, err := rec.Serialize(buf)
		if err != nil {
			t.Fatal(err)
		}

		decoded, err := Deserialize(buf[:n])
		if err != nil {
			t.Fatal(err)
		}
		if decoded.Header != rec.Header {
			t.Fatalf("header round trip:\n got %+v\nwant %+v", decoded.Header, rec.Header)
		}
		if !decoded.Finalized() {
			t.Fatal("deserialized replay not finalized")
		}
		if decoded.EventCount() != rec.EventCount() {
			t.Fatalf("event count %d, want %d", decoded.EventCount(), rec.EventCount())
		}
		for i, e := range decoded.Events() {
			if e != rec.Events()[i] {
				t.Fatalf("event %d = %+v, want %+v", i, e, rec.Events()[i])
			}
		}
		if decoded.CheckpointCount() != rec.CheckpointCount() {
			t.Fatalf("checkpoint count %d, want %d", decoded.CheckpointCount(), rec.CheckpointCount())
		}
		for i, cp := range decoded.Checkpoints() {
			if cp != rec.Checkpoints()[i] {
				t.Fatalf("checkpoint %d = %+v, want %+v", i, cp, rec.Checkpoints()[i])
			}
		}
	}
}

func TestSerializeTooSmall(t *testing.T) {
	rec := buildReplay(t, 0)
	if _, err := rec.Serialize(make([]byte, 32)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestDeserializeShortBuffer(t *testing.T) {
	if _, err := Deserialize(make([]byte, HeaderSize-1)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestDeserializeBadMagic(t *testing.T) {
	data, err := buildReplay(t, 0).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	data[0] ^= 0xFF
	if _, err := Deserialize(data); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestDeserializeNewerVersion(t *testing.T) {
	data, err := buildReplay(t, 0).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	data[4] = Version + 1
	if _, err := Deserialize(data); !errors.Is(err, ErrVersion) {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
}

func TestDeserializeCountCaps(t *testing.T) {
	data, err := buildReplay(t, 0).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(data[144:], MaxEvents+1)
	if _, err := Deserialize(data); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("event cap err = %v, want ErrInvalidArgument", err)
	}

	data, err = buildReplay(t, 0).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(data[148:], MaxCheckpoints+1)
	if _, err := Deserialize(data); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("checkpoint cap err = %v, want ErrInvalidArgument", err)
	}
}

func TestDeserializeTruncatedTail(t *testing.T) {
	data, err := buildReplay(t, 0).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	// Cuts into the final fire event's payload.
	if _, err := Deserialize(data[:len(data)-2]); err == nil {
		t.Fatal("truncated event stream decoded without error")
	}
	// Cuts into the checkpoint array.
	if _, err := Deserialize(data[:HeaderSize+CheckpointSize-4]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("truncated checkpoints err = %v, want ErrTruncated", err)
	}
}

func TestRecordEventRules(t *testing.T) {
	rec, err := New(1, "", "standard")
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Record(EventFire, 10, 1.5); err != nil {
		t.Fatal(err)
	}
	if err := rec.Record(EventFire, 10, 1.6); err != nil {
		t.Fatalf("same-frame event rejected: %v", err)
	}
	if err := rec.Record(EventFire, 9, 1.5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("frame regression err = %v, want ErrInvalidArgument", err)
	}
	if err := rec.Record(EventPop, 11, 0); err != nil {
		t.Fatalf("derived event returned error: %v", err)
	}
	if rec.EventCount() != 2 {
		t.Fatalf("derived event was recorded: count = %d", rec.EventCount())
	}
	rec.Finalize(20, 0, OutcomeAbandoned)
	if err := rec.Record(EventFire, 12, 1.5); !errors.Is(err, ErrFinalized) {
		t.Fatalf("post-finalize err = %v, want ErrFinalized", err)
	}
	if err := rec.AddCheckpoint(Checkpoint{Frame: 15}); !errors.Is(err, ErrFinalized) {
		t.Fatalf("post-finalize checkpoint err = %v, want ErrFinalized", err)
	}
}

func TestNewRejectsLongIDs(t *testing.T) {
	long := string(make([]byte, idFieldLen+1))
	if _, err := New(1, long, "standard"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if _, err := New(1, "", long); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rec := buildReplay(t, 0)
	clone := rec.Clone()
	rec.Checkpoints()[0].Score = 9999
	if clone.Checkpoints()[0].Score == 9999 {
		t.Fatal("clone shares checkpoint storage with the original")
	}
	rec.Events()[0].Frame = 7777
	if clone.Events()[0].Frame == 7777 {
		t.Fatal("clone shares event storage with the original")
	}
}

func TestSaveLoad(t *testing.T) {
	rec := buildReplay(t, FlagFixedPoint)
	path := filepath.Join(t.TempDir(), "match.pbrp")
	if err := rec.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Header != rec.Header {
		t.Fatalf("header = %+v, want %+v", loaded.Header, rec.Header)
	}
	if loaded.EventCount() != rec.EventCount() || loaded.CheckpointCount() != rec.CheckpointCount() {
		t.Fatalf("counts = %d/%d, want %d/%d",
			loaded.EventCount(), loaded.CheckpointCount(), rec.EventCount(), rec.CheckpointCount())
	}
}
