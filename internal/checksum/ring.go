package checksum

// RingSize is the fixed capacity of the per-frame checksum log. Entries
// older than the most recent RingSize frames are silently evicted.
const RingSize = 64

type ringEntry struct {
	frame uint32
	sum   uint32
}

// Ring is a fixed 64-slot circular frame→checksum log. The zero value is
// ready to use.
type Ring struct {
	entries [RingSize]ringEntry
	next    int
	count   int
}

// Record stores a frame checksum, overwriting the oldest slot once the
// ring is full.
func (r *Ring) Record(frame, sum uint32) {
	r.entries[r.next] = ringEntry{frame: frame, sum: sum}
	r.next = (r.next + 1) % RingSize
	if r.count < RingSize {
		r.count++
	}
}

// Find scans backward from the most recent entry and returns the checksum
// recorded for frame. It fails if the frame was never recorded or has been
// evicted.
func (r *Ring) Find(frame uint32) (uint32, bool) {
	for i := 0; i < r.count; i++ {
		idx := (r.next - 1 - i + RingSize) % RingSize
		if r.entries[idx].frame == frame {
			return r.entries[idx].sum, true
		}
	}
	return 0, false
}

// Verify reports whether frame is still in the ring and recorded the
// expected checksum.
func (r *Ring) Verify(frame, expected uint32) bool {
	sum, ok := r.Find(frame)
	return ok && sum == expected
}

// Len reports the number of live entries.
func (r *Ring) Len() int {
	return r.count
}

// Reset drops all entries.
func (r *Ring) Reset() {
	r.next = 0
	r.count = 0
}
