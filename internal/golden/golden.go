// Package golden reads and writes golden-checksum fixture documents:
// state checksums sampled at fixed intervals from a known-good replay
// run, stored as JSON for use in regression tests.
package golden

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iancoleman/orderedmap"
)

// Document is one golden-checksum fixture. Checksums are hex-encoded so
// fixture diffs read the same way desync reports do.
type Document struct {
	Seed      uint64   `json:"seed" jsonschema:"required,description=Seed the fixture run was recorded with."`
	LevelID   string   `json:"level_id,omitempty" jsonschema:"description=Level identifier from the replay header."`
	RulesetID string   `json:"ruleset_id" jsonschema:"required,description=Ruleset identifier from the replay header."`
	Interval  uint32   `json:"interval" jsonschema:"required,description=Frames between consecutive samples."`
	Checksums []string `json:"checksums" jsonschema:"required,description=Hex-encoded full-state checksums in sample order."`
}

// FromSamples builds a document from raw checksum samples.
func FromSamples(seed uint64, levelID, rulesetID string, interval uint32, samples []uint32) Document {
	doc := Document{
		Seed:      seed,
		LevelID:   levelID,
		RulesetID: rulesetID,
		Interval:  interval,
		Checksums: make([]string, len(samples)),
	}
	for i, sum := range samples {
		doc.Checksums[i] = fmt.Sprintf("%08x", sum)
	}
	return doc
}

// Samples decodes the hex checksums back into raw values.
func (d Document) Samples() ([]uint32, error) {
	samples := make([]uint32, len(d.Checksums))
	for i, encoded := range d.Checksums {
		var sum uint32
		if _, err := fmt.Sscanf(encoded, "%x", &sum); err != nil {
			return nil, fmt.Errorf("golden: bad checksum %q at index %d: %w", encoded, i, err)
		}
		samples[i] = sum
	}
	return samples, nil
}

// Marshal encodes the document with a fixed key order so fixtures diff
// byte-stably across regenerations.
func (d Document) Marshal() ([]byte, error) {
	ordered := orderedmap.New()
	ordered.Set("seed", d.Seed)
	if d.LevelID != "" {
		ordered.Set("level_id", d.LevelID)
	}
	ordered.Set("ruleset_id", d.RulesetID)
	ordered.Set("interval", d.Interval)
	ordered.Set("checksums", d.Checksums)
	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("golden: encode fixture: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile writes the fixture document to path.
func (d Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("golden: write fixture %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a fixture document from path.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("golden: read fixture %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("golden: decode fixture %s: %w", path, err)
	}
	return doc, nil
}
