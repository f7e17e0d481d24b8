package huffman

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MaxCodeLength is the longest code a Codec supports.
const MaxCodeLength = 64

// A Code is the bit pattern of one symbol. Its Len bits start at bit 0 of
// Bytes and are laid out in the bit order of the Codec that produced it.
type Code struct {
	Bytes [8]byte
	Len   int
}

// checkLengths verifies that lengths describe a prefix code.
func checkLengths(lengths []int) error {
	var count [MaxCodeLength + 1]int64
	remaining := int64(0)
	for sym, l := range lengths {
		if l < 0 || l > MaxCodeLength {
			return errors.Wrapf(ErrCodeTooLong, "symbol %d has length %d", sym, l)
		}
		if l > 0 {
			count[l]++
			remaining++
		}
	}

	// left is the number of unused codes of the current length. It is
	// clamped to the number of codes still to place so it cannot overflow.
	left := int64(1)
	for l := 1; l <= MaxCodeLength && remaining > 0; l++ {
		left = left<<1 - count[l]
		remaining -= count[l]
		if left < 0 {
			return errors.Wrapf(ErrOversubscribed, "at length %d", l)
		}
		if left > remaining {
			left = remaining
		}
	}
	return nil
}

// canonicalCodes assigns canonical code values: shorter codes first, then by
// symbol order within a length. lengths must pass checkLengths.
func canonicalCodes(lengths []int) []uint64 {
	var count [MaxCodeLength + 1]uint64
	for _, l := range lengths {
		if l > 0 {
			count[l]++
		}
	}
	var next [MaxCodeLength + 1]uint64
	code := uint64(0)
	for l := 1; l <= MaxCodeLength; l++ {
		code = (code + count[l-1]) << 1
		next[l] = code
	}
	codes := make([]uint64, len(lengths))
	for sym, l := range lengths {
		if l > 0 {
			codes[sym] = next[l]
			next[l]++
		}
	}
	return codes
}

// makeCode lays out the l-bit value v MSB-first from bit 0.
func makeCode(v uint64, l int) Code {
	c := Code{Len: l}
	if l > 0 {
		binary.BigEndian.PutUint64(c.Bytes[:], v<<uint(64-l))
	}
	return c
}
