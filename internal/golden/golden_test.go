package golden

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSamplesRoundTrip(t *testing.T) {
	samples := []uint32{0, 1, 0xDEADBEEF, 0xFFFFFFFF}
	doc := FromSamples(42, "level-1", "standard", 60, samples)
	decoded, err := doc.Samples()
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d = %#08x, want %#08x", i, decoded[i], samples[i])
		}
	}
}

func TestSamplesRejectsGarbage(t *testing.T) {
	doc := Document{Checksums: []string{"zzzz"}}
	if _, err := doc.Samples(); err == nil {
		t.Fatal("garbage checksum decoded without error")
	}
}

func TestMarshalKeyOrderStable(t *testing.T) {
	doc := FromSamples(7, "level-2", "standard", 30, []uint32{0xAB})
	data, err := doc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	order := []string{`"seed"`, `"level_id"`, `"ruleset_id"`, `"interval"`, `"checksums"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx < 0 {
			t.Fatalf("key %s missing from fixture:\n%s", key, text)
		}
		if idx < last {
			t.Fatalf("key %s out of order:\n%s", key, text)
		}
		last = idx
	}
	if !strings.Contains(text, `"000000ab"`) {
		t.Fatalf("checksum not hex encoded:\n%s", text)
	}
}

func TestMarshalOmitsEmptyLevelID(t *testing.T) {
	doc := FromSamples(7, "", "standard", 30, []uint32{1})
	data, err := doc.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "level_id") {
		t.Fatalf("empty level_id serialized:\n%s", data)
	}
}

func TestWriteReadFile(t *testing.T) {
	doc := FromSamples(99, "level-9", "standard", 120, []uint32{1, 2, 3})
	path := filepath.Join(t.TempDir(), "golden.json")
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Seed != doc.Seed || loaded.RulesetID != doc.RulesetID || loaded.Interval != doc.Interval {
		t.Fatalf("loaded %+v, want %+v", loaded, doc)
	}
	if len(loaded.Checksums) != 3 {
		t.Fatalf("loaded %d checksums", len(loaded.Checksums))
	}
}
