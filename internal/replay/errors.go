package replay

import "errors"

// Failure classes for replay recording and decoding. Decode errors are
// wrapped with positional context; match them with errors.Is.
var (
	// ErrInvalidArgument flags nil or malformed caller input.
	ErrInvalidArgument = errors.New("replay: invalid argument")
	// ErrCapacity is returned when an append would exceed the hard event
	// or checkpoint cap.
	ErrCapacity = errors.New("replay: capacity exceeded")
	// ErrTruncated flags a buffer that ends inside a header, checkpoint,
	// varint or payload.
	ErrTruncated = errors.New("replay: truncated input")
	// ErrBadMagic flags a buffer that does not start with the replay magic.
	ErrBadMagic = errors.New("replay: bad magic")
	// ErrVersion flags a replay written by a newer format version.
	ErrVersion = errors.New("replay: unsupported version")
	// ErrFinalized is returned when recording into a finalized replay.
	ErrFinalized = errors.New("replay: already finalized")
)
