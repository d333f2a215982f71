package checksum

import (
	"encoding/binary"
	"testing"
)

func TestCRC32KnownVector(t *testing.T) {
	if got := CRC32([]byte("123456789")); got != 0xCBF43926 {
		t.Fatalf("CRC32(\"123456789\") = %#08x, want 0xcbf43926", got)
	}
}

func TestCRC32Empty(t *testing.T) {
	if got := CRC32(nil); got != 0 {
		t.Fatalf("CRC32(nil) = %#08x, want 0", got)
	}
	if got := CRC32([]byte{}); got != 0 {
		t.Fatalf("CRC32(empty) = %#08x, want 0", got)
	}
}

func TestUpdateChainsLikeOneShot(t *testing.T) {
	data := []byte("123456789")
	want := CRC32(data)
	for split := 0; split <= len(data); split++ {
		sum := Update(0, data[:split])
		sum = Update(sum, data[split:])
		if sum = Finalize(sum); sum != want {
			t.Fatalf("split at %d: chained sum %#08x, one-shot %#08x", split, sum, want)
		}
	}
}

func TestFeederMatchesRawBytes(t *testing.T) {
	var f Feeder
	f.Byte(0xAB)
	f.Uint32(0x01020304)
	f.Uint64(0x1122334455667788)

	raw := []byte{0xAB}
	raw = binary.LittleEndian.AppendUint32(raw, 0x01020304)
	raw = binary.LittleEndian.AppendUint64(raw, 0x1122334455667788)

	if got, want := f.Sum(), CRC32(raw); got != want {
		t.Fatalf("feeder sum %#08x, raw CRC %#08x", got, want)
	}
}

func TestFeederOrderMatters(t *testing.T) {
	var a, b Feeder
	a.Uint32(1)
	a.Uint32(2)
	b.Uint32(2)
	b.Uint32(1)
	if a.Sum() == b.Sum() {
		t.Fatal("swapped field order produced identical checksums")
	}
}

func TestRNGChecksumSensitivity(t *testing.T) {
	base := RNGChecksum([4]uint32{1, 2, 3, 4})
	for i := 0; i < 4; i++ {
		words := [4]uint32{1, 2, 3, 4}
		words[i]++
		if RNGChecksum(words) == base {
			t.Errorf("flipping word %d did not change the checksum", i)
		}
	}
	if RNGChecksum([4]uint32{1, 2, 3, 4}) != base {
		t.Fatal("checksum not stable across calls")
	}
}
