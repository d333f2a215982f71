// Package checksum provides the bit-level primitives the verification
// pipeline is built on: table-driven CRC-32 over little-endian field
// feeds, a fixed-size frame checksum ring, and component-ordered state
// comparison for desync localization.
package checksum

import (
	"encoding/binary"
	"hash/crc32"
	"sync"
)

// Polynomial is the reversed ISO-HDLC polynomial used for every CRC-32 in
// the replay format.
const Polynomial = 0xEDB88320

var (
	tableOnce sync.Once
	table     *crc32.Table
)

func crcTable() *crc32.Table {
	tableOnce.Do(func() {
		table = crc32.MakeTable(Polynomial)
	})
	return table
}

// CRC32 returns the CRC-32 of data. The empty input hashes to zero.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable())
}

// Update feeds data into a running CRC-32. The running value is
// complemented on entry and exit of every call, so partial sums chain
// correctly through successive Update calls and the final value equals a
// one-shot CRC32 over the concatenated input.
func Update(running uint32, data []byte) uint32 {
	return crc32.Update(running, crcTable(), data)
}

// Finalize is the identity. It exists so call sites can mark the end of an
// incremental feed without adjusting the value.
func Finalize(sum uint32) uint32 {
	return sum
}

// Feeder accumulates little-endian field bytes into a running CRC-32.
// Semantic checksums use it so field order and width are explicit at every
// call site, never inherited from struct memory layout.
type Feeder struct {
	sum uint32
	buf [8]byte
}

// Sum returns the accumulated checksum.
func (f *Feeder) Sum() uint32 {
	return f.sum
}

// Byte feeds a single byte.
func (f *Feeder) Byte(v uint8) {
	f.buf[0] = v
	f.sum = Update(f.sum, f.buf[:1])
}

// Uint32 feeds a 32-bit value in little-endian order.
func (f *Feeder) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(f.buf[:4], v)
	f.sum = Update(f.sum, f.buf[:4])
}

// Uint64 feeds a 64-bit value in little-endian order.
func (f *Feeder) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(f.buf[:8], v)
	f.sum = Update(f.sum, f.buf[:8])
}

// RNGChecksum hashes the four generator words in index order.
func RNGChecksum(words [4]uint32) uint32 {
	var f Feeder
	for _, w := range words {
		f.Uint32(w)
	}
	return f.Sum()
}
