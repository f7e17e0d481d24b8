// Package huffman implements canonical Huffman codes over arbitrary symbol
// types, with byte-indexed decode tables chained for codes longer than 8 bits.
package huffman

import (
	"github.com/pkg/errors"

	"github.com/Reiex/Diskon-sub000/stream"
)

// A Codec encodes and decodes the symbols of one canonical Huffman code.
// It is immutable once built and safe for concurrent use.
type Codec[S comparable] struct {
	symbols []S
	codes   []Code
	index   map[S]int
	tables  decodeTables
	order   stream.Endianness
	maxLen  int
}

// NewCodec builds the canonical code giving symbols[i] a code of lengths[i]
// bits, laid out in the given bit order. Symbols with length 0 get no code.
// The lengths may leave codes unused, but not describe more codes than fit.
func NewCodec[S comparable](symbols []S, lengths []int, order stream.Endianness) (*Codec[S], error) {
	if len(symbols) != len(lengths) {
		panic("huffman: symbols and lengths differ in size")
	}
	if err := checkLengths(lengths); err != nil {
		return nil, err
	}

	c := &Codec[S]{
		symbols: append([]S(nil), symbols...),
		codes:   make([]Code, len(symbols)),
		index:   make(map[S]int, len(symbols)),
		tables:  make(decodeTables, 1),
		order:   order,
	}

	values := canonicalCodes(lengths)
	for i, l := range lengths {
		if l == 0 {
			continue
		}
		if _, dup := c.index[symbols[i]]; dup {
			return nil, errors.Errorf("huffman: symbol %v listed twice", symbols[i])
		}
		c.index[symbols[i]] = i
		if err := c.tables.insert(values[i], l, i); err != nil {
			return nil, err
		}
		c.codes[i] = makeCode(values[i], l)
		if l > c.maxLen {
			c.maxLen = l
		}
	}

	if order == stream.LittleEndian {
		for i := range c.codes {
			for j := range c.codes[i].Bytes {
				c.codes[i].Bytes[j] = stream.ReverseBits(c.codes[i].Bytes[j])
			}
		}
		c.tables.reverse()
	}
	return c, nil
}

// MaxLength returns the length of the longest code.
func (c *Codec[S]) MaxLength() int { return c.maxLen }

// Order returns the bit order of the codec.
func (c *Codec[S]) Order() stream.Endianness { return c.order }

// Code returns the code of sym, if it has one.
func (c *Codec[S]) Code(sym S) (Code, bool) {
	i, ok := c.index[sym]
	if !ok {
		return Code{}, false
	}
	return c.codes[i], true
}

// ReadSymbol decodes the symbol whose code starts at bit bitOffset of src and
// returns it with the number of bits it used.
func (c *Codec[S]) ReadSymbol(src []byte, bitOffset int) (S, int, error) {
	var zero S
	tab, used := 0, 0
	for {
		b, avail := peek(src, bitOffset+used, c.order)
		if avail == 0 {
			return zero, 0, ErrTruncated
		}
		e := c.tables[tab][b]
		switch e.kind {
		case entryTerminal:
			if int(e.bits) > avail {
				return zero, 0, ErrTruncated
			}
			return c.symbols[e.ref], used + int(e.bits), nil
		case entryChained:
			if avail < 8 {
				return zero, 0, ErrTruncated
			}
			tab = int(e.ref)
			used += 8
		default:
			return zero, 0, ErrInvalidCode
		}
	}
}

// WriteSymbol writes the code of sym into dst starting at bit bitOffset and
// returns its length. Bits of dst around the code are preserved.
func (c *Codec[S]) WriteSymbol(dst []byte, bitOffset int, sym S) (int, error) {
	i, ok := c.index[sym]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownSymbol, "%v", sym)
	}
	code := &c.codes[i]
	if bitOffset+code.Len > len(dst)*8 {
		return 0, ErrShortBuffer
	}
	stream.BitCopy(dst, bitOffset, code.Bytes[:], 0, code.Len, c.order)
	return code.Len, nil
}
