package replay

import "fmt"

// maxVarintLen is the longest LEB128 encoding of a 32-bit value.
const maxVarintLen = 5

// VarintSize reports the encoded length of v in bytes.
func VarintSize(v uint32) int {
	size := 1
	for v >= 0x80 {
		v >>= 7
		size++
	}
	return size
}

// AppendVarint appends the LEB128 encoding of v: seven data bits per byte,
// low bits first, continuation bit 0x80 on every byte but the last.
func AppendVarint(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// DecodeVarint reads one LEB128-encoded value from src and returns it with
// the number of bytes consumed. It fails on a buffer that ends mid-varint
// and on encodings longer than five bytes.
func DecodeVarint(src []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < len(src); i++ {
		if i == maxVarintLen {
			return 0, 0, fmt.Errorf("%w: varint exceeds %d bytes", ErrInvalidArgument, maxVarintLen)
		}
		b := src[i]
		v |= uint32(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: varint continues past end of buffer", ErrTruncated)
}
