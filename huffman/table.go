package huffman

import (
	"github.com/pkg/errors"

	"github.com/Reiex/Diskon-sub000/stream"
)

type entryKind uint8

const (
	entryEmpty entryKind = iota
	entryTerminal
	entryChained
)

// An entry is one slot of a decode table. A terminal entry resolves to
// symbol index ref after consuming bits (1 to 8) of the probed byte. A
// chained entry consumes the whole byte and continues in table ref.
type entry struct {
	kind entryKind
	bits uint8
	ref  int32
}

// decodeTables is an arena of 256-entry tables indexed by the next input
// byte. Table 0 is the root.
type decodeTables [][256]entry

// insert adds the l-bit code v (MSB-first) for symbol index sym.
func (t *decodeTables) insert(v uint64, l int, sym int) error {
	tab := 0
	for l > 8 {
		top := byte(v >> uint(l-8))
		e := &(*t)[tab][top]
		switch e.kind {
		case entryEmpty:
			*t = append(*t, [256]entry{})
			e = &(*t)[tab][top]
			e.kind, e.ref = entryChained, int32(len(*t)-1)
		case entryTerminal:
			return errors.Wrapf(ErrOversubscribed, "code of symbol %d extends a shorter code", sym)
		}
		tab = int(e.ref)
		l -= 8
		v &= 1<<uint(l) - 1
	}

	base := int(v) << uint(8-l)
	span := 1 << uint(8-l)
	slots := (*t)[tab][base : base+span]
	for i := range slots {
		if slots[i].kind != entryEmpty {
			return errors.Wrapf(ErrOversubscribed, "code of symbol %d collides", sym)
		}
		slots[i] = entry{kind: entryTerminal, bits: uint8(l), ref: int32(sym)}
	}
	return nil
}

// reverse re-indexes every table for LSB-first input, where the first code
// bit is the least significant bit of the probed byte.
func (t decodeTables) reverse() {
	for k := range t {
		var r [256]entry
		for i, e := range t[k] {
			r[stream.ReverseBits(byte(i))] = e
		}
		t[k] = r
	}
}

// peek returns the 8 bits of src starting at bit p in the given order,
// zero-padded past the end of src, and how many of them are real.
func peek(src []byte, p int, order stream.Endianness) (byte, int) {
	i, s := p>>3, uint(p&7)
	if i >= len(src) {
		return 0, 0
	}
	avail := (len(src)-i)*8 - int(s)
	if avail > 8 {
		avail = 8
	}
	var next byte
	if i+1 < len(src) {
		next = src[i+1]
	}
	if order == stream.LittleEndian {
		return byte((uint16(src[i]) | uint16(next)<<8) >> s), avail
	}
	return byte((uint16(src[i])<<8 | uint16(next)) >> (8 - s)), avail
}
