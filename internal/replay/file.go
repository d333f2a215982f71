package replay

import (
	"fmt"
	"os"
)

// Save writes the serialized replay to path. I/O is synchronous; the file
// is fully written or the error reports why not.
func (r *Replay) Save(path string) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode replay: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write replay %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes a replay file, rejecting mismatched magic and
// unsupported versions.
func Load(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay %s: %w", path, err)
	}
	r, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", path, err)
	}
	return r, nil
}
