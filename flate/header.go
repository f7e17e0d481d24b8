package flate

import (
	"fmt"

	"github.com/pkg/errors"

	diskon "github.com/Reiex/Diskon-sub000"
	"github.com/Reiex/Diskon-sub000/huffman"
	"github.com/Reiex/Diskon-sub000/stream"
)

// BlockType is the BTYPE field of a block header.
type BlockType uint8

const (
	Stored BlockType = iota
	FixedHuffman
	DynamicHuffman
	reservedBlockType
)

func (t BlockType) String() string {
	switch t {
	case Stored:
		return "stored"
	case FixedHuffman:
		return "fixed"
	case DynamicHuffman:
		return "dynamic"
	}
	return fmt.Sprintf("BlockType(%d)", uint8(t))
}

// ParseBlockType maps the names printed by BlockType.String back to types.
func ParseBlockType(s string) (BlockType, error) {
	for _, t := range []BlockType{Stored, FixedHuffman, DynamicHuffman} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.Errorf("flate: unknown block type %q", s)
}

// A BlockHeader describes one DEFLATE block. The code lengths are only
// meaningful for dynamic blocks.
type BlockHeader struct {
	Final           bool
	Type            BlockType
	LiteralLengths  [numLiteralCodes]int
	DistanceLengths [numDistanceCodes]int
}

// ErrReservedBlockType is returned for blocks with BTYPE 3.
var ErrReservedBlockType = fmt.Errorf("flate: reserved block type: %w", diskon.ErrFormat)

// readBlockHeader reads BFINAL, BTYPE and, for dynamic blocks, the code
// lengths.
func readBlockHeader(in *stream.InputStream, h *BlockHeader) error {
	v, err := in.ReadBits(3)
	if err != nil {
		return err
	}
	h.Final = v&1 == 1
	h.Type = BlockType(v >> 1)
	switch h.Type {
	case Stored, FixedHuffman:
		return nil
	case DynamicHuffman:
		return readDynamicLengths(in, h)
	}
	return ErrReservedBlockType
}

// readDynamicLengths reads the code length tables of a dynamic block.
func readDynamicLengths(in *stream.InputStream, h *BlockHeader) error {
	v, err := in.ReadBits(14)
	if err != nil {
		return err
	}
	nlit := int(v&0x1f) + 257
	ndist := int(v>>5&0x1f) + 1
	nclen := int(v>>10) + 4
	if nlit > numLiteralCodes {
		return errors.Wrapf(diskon.ErrFormat, "flate: %d literal/length codes", nlit)
	}

	var clen [codegenCodeCount]int
	for i := 0; i < nclen; i++ {
		l, err := in.ReadBits(3)
		if err != nil {
			return err
		}
		clen[codegenOrder[i]] = int(l)
	}
	cg, err := huffman.NewCodec(codegenSymbols[:], clen[:], stream.LittleEndian)
	if err != nil {
		return errors.Wrap(err, "flate: code length code")
	}

	// Literal and distance lengths form a single sequence; a run may cross
	// from one table into the other.
	var lengths [numLiteralCodes + numDistanceCodes]int
	n := nlit + ndist
	for i := 0; i < n; {
		sym, err := readSymbol(in, cg)
		if err != nil {
			return err
		}
		if sym < 16 {
			lengths[i] = int(sym)
			i++
			continue
		}

		var rep, nb, val int
		switch sym {
		case 16:
			if i == 0 {
				return errors.Wrap(diskon.ErrFormat, "flate: repeat code with no previous length")
			}
			rep, nb, val = 3, 2, lengths[i-1]
		case 17:
			rep, nb = 3, 3
		default:
			rep, nb = 11, 7
		}
		extra, err := in.ReadBits(nb)
		if err != nil {
			return err
		}
		rep += int(extra)
		if i+rep > n {
			return errors.Wrapf(diskon.ErrFormat, "flate: code length run of %d overflows %d codes", rep, n)
		}
		for ; rep > 0; rep-- {
			lengths[i] = val
			i++
		}
	}

	h.LiteralLengths = [numLiteralCodes]int{}
	h.DistanceLengths = [numDistanceCodes]int{}
	copy(h.LiteralLengths[:], lengths[:nlit])
	copy(h.DistanceLengths[:], lengths[nlit:n])
	if h.LiteralLengths[endBlockMarker] == 0 {
		return errors.Wrap(diskon.ErrFormat, "flate: no code for end of block")
	}
	return nil
}

// readSymbol decodes one symbol at the current bit position. It peeks as
// many bits as the longest code, then gives back those the symbol did not
// use.
func readSymbol(in *stream.InputStream, c *huffman.Codec[uint16]) (uint16, error) {
	var buf [3]byte
	off := in.BitOffset()
	got, err := in.BitReadUpTo(buf[:], c.MaxLength(), off)
	if err != nil {
		return 0, err
	}
	sym, used, err := c.ReadSymbol(buf[:], off)
	if err != nil {
		if got < c.MaxLength() && errors.Is(err, huffman.ErrInvalidCode) {
			err = huffman.ErrTruncated
		}
		return 0, errors.Wrapf(err, "flate: at byte %d", in.Offset())
	}
	if used > got {
		return 0, errors.Wrapf(huffman.ErrTruncated, "flate: at byte %d", in.Offset())
	}
	if err := in.UnreadBits(got - used); err != nil {
		return 0, err
	}
	return sym, nil
}

// writeSymbol writes the code of sym at the current bit position.
func writeSymbol(out *stream.OutputStream, c *huffman.Codec[uint16], sym uint16) error {
	var buf [3]byte
	off := out.BitOffset()
	n, err := c.WriteSymbol(buf[:], off, sym)
	if err != nil {
		return err
	}
	return out.BitWrite(buf[:], n, off)
}

// writeDynamicHeader writes the block header of a dynamic block whose
// literal/length and distance codes have the given lengths.
//
//	nlit   The number of literal/length lengths sent, at least 257
//	ndist  The number of distance lengths sent, at least 1
func writeDynamicHeader(out *stream.OutputStream, litLengths, distLengths []int, final bool) error {
	nlit, ndist := len(litLengths), len(distLengths)
	all := make([]int, 0, nlit+ndist)
	all = append(all, litLengths...)
	all = append(all, distLengths...)

	tokens, freq := generateCodegen(all)
	clen := codegenLengths(freq)
	cg, err := huffman.NewCodec(codegenSymbols[:], clen[:], stream.LittleEndian)
	if err != nil {
		return err
	}

	nclen := codegenCodeCount
	for nclen > 4 && clen[codegenOrder[nclen-1]] == 0 {
		nclen--
	}

	var first uint64 = DynamicHuffman.bits()
	if final {
		first |= 1
	}
	bits := first |
		uint64(nlit-257)<<3 |
		uint64(ndist-1)<<8 |
		uint64(nclen-4)<<13
	if err := out.WriteBits(bits, 17); err != nil {
		return err
	}
	for i := 0; i < nclen; i++ {
		if err := out.WriteBits(uint64(clen[codegenOrder[i]]), 3); err != nil {
			return err
		}
	}
	for _, tok := range tokens {
		if err := writeSymbol(out, cg, uint16(tok.code)); err != nil {
			return err
		}
		switch tok.code {
		case 16:
			err = out.WriteBits(uint64(tok.extra), 2)
		case 17:
			err = out.WriteBits(uint64(tok.extra), 3)
		case 18:
			err = out.WriteBits(uint64(tok.extra), 7)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// bits returns the BTYPE field positioned after BFINAL.
func (t BlockType) bits() uint64 { return uint64(t) << 1 }

type codegenToken struct {
	code  uint8
	extra uint8
}

// generateCodegen run-length encodes a sequence of code lengths with the
// code length alphabet, returning the tokens and their frequencies.
func generateCodegen(lengths []int) ([]codegenToken, [codegenCodeCount]uint64) {
	var freq [codegenCodeCount]uint64
	tokens := make([]codegenToken, 0, len(lengths))
	emit := func(code, extra uint8) {
		tokens = append(tokens, codegenToken{code, extra})
		freq[code]++
	}

	for i := 0; i < len(lengths); {
		size := lengths[i]
		count := 1
		for i+count < len(lengths) && lengths[i+count] == size {
			count++
		}
		i += count

		// We need to generate codegen indicating "count" of size.
		if size != 0 {
			emit(uint8(size), 0)
			count--
			for count >= 3 {
				n := 6
				if n > count {
					n = count
				}
				emit(16, uint8(n-3))
				count -= n
			}
		} else {
			for count >= 11 {
				n := 138
				if n > count {
					n = count
				}
				emit(18, uint8(n-11))
				count -= n
			}
			if count >= 3 {
				// count >= 3 && count <= 10
				emit(17, uint8(count-3))
				count = 0
			}
		}
		for ; count > 0; count-- {
			emit(uint8(size), 0)
		}
	}
	return tokens, freq
}

// codegenLengths derives code length code lengths from token frequencies.
// At least two codes are kept so the code is complete.
func codegenLengths(freq [codegenCodeCount]uint64) [codegenCodeCount]int {
	ensureTwoCodes(freq[:])
	var clen [codegenCodeCount]int
	copy(clen[:], huffman.LimitCodeLengths(freq[:], maxCodegenLength))
	return clen
}

// ensureTwoCodes gives frequency 1 to unused symbols until two are in use.
func ensureTwoCodes(freq []uint64) {
	used := 0
	for _, f := range freq {
		if f > 0 {
			used++
		}
	}
	for i := 0; used < 2 && i < len(freq); i++ {
		if freq[i] == 0 {
			freq[i] = 1
			used++
		}
	}
}
