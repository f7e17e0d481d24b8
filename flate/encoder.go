package flate

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Reiex/Diskon-sub000/huffman"
	"github.com/Reiex/Diskon-sub000/stream"
)

// An Encoder writes DEFLATE blocks to an OutputStream.
//
// Compressed blocks only ever hold literals: no back-reference search is
// performed, so fixed and dynamic blocks differ from stored ones only by
// their entropy coding.
type Encoder struct {
	out *stream.OutputStream
	err error
}

// NewEncoder returns an Encoder writing to out. It switches out to
// little-endian byte and bit order.
func NewEncoder(out *stream.OutputStream) *Encoder {
	e := new(Encoder)
	e.Reset(out)
	return e
}

// Reset makes e write to out and clears its error.
func (e *Encoder) Reset(out *stream.OutputStream) {
	out.SetByteEndianness(stream.LittleEndian)
	out.SetBitEndianness(stream.LittleEndian)
	e.out = out
	e.err = nil
}

// Err returns the error that stopped the Encoder, if any.
func (e *Encoder) Err() error { return e.err }

// WriteBlock encodes data as a block of type t. Stored data longer than a
// single stored block can hold is split; only the last piece carries the
// final flag. The output is left unaligned: after the final block, call
// Close or finish the byte on the OutputStream.
func (e *Encoder) WriteBlock(data []byte, t BlockType, final bool) error {
	if e.err != nil {
		return e.err
	}
	var err error
	switch t {
	case Stored:
		err = e.writeStored(data, final)
	case FixedHuffman:
		lit, _ := fixedCodecs()
		if err = e.out.WriteBits(FixedHuffman.bits()|boolBit(final), 3); err == nil {
			err = e.writeLiterals(lit, data)
		}
	case DynamicHuffman:
		err = e.writeDynamic(data, final)
	default:
		panic("flate: invalid block type " + t.String())
	}
	if err != nil {
		e.err = errors.Wrapf(err, "flate: writing %v block", t)
		return e.err
	}
	log.WithFields(logrus.Fields{
		"final": final,
		"type":  t,
		"size":  len(data),
	}).Debug("block written")
	return nil
}

// Close pads the last byte with zero bits and flushes the OutputStream.
func (e *Encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	if err := e.out.FinishByte(0); err != nil {
		e.err = err
		return err
	}
	if err := e.out.Flush(); err != nil {
		e.err = err
		return err
	}
	return nil
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (e *Encoder) writeStored(data []byte, final bool) error {
	for {
		chunk := data
		if len(chunk) > maxStoreBlockSize {
			chunk = chunk[:maxStoreBlockSize]
		}
		data = data[len(chunk):]
		last := final && len(data) == 0

		if err := e.out.WriteBits(Stored.bits()|boolBit(last), 3); err != nil {
			return err
		}
		if err := e.out.FinishByte(0); err != nil {
			return err
		}
		if err := e.out.WriteUint16(uint16(len(chunk))); err != nil {
			return err
		}
		if err := e.out.WriteUint16(^uint16(len(chunk))); err != nil {
			return err
		}
		if _, err := e.out.Write(chunk); err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
	}
}

func (e *Encoder) writeLiterals(lit *huffman.Codec[uint16], data []byte) error {
	for _, b := range data {
		if err := writeSymbol(e.out, lit, uint16(b)); err != nil {
			return err
		}
	}
	return writeSymbol(e.out, lit, endBlockMarker)
}

// writeDynamic writes data with a literal code built from its byte
// frequencies. The distance code is never used; it is sent as two one-bit
// codes so that every decoder accepts it.
func (e *Encoder) writeDynamic(data []byte, final bool) error {
	var freq [maxNumLit]uint64
	for _, b := range data {
		freq[b]++
	}
	freq[endBlockMarker] = 1
	ensureTwoCodes(freq[:])

	litLengths := huffman.LimitCodeLengths(freq[:], maxLiteralCodeLength)
	nlit := len(litLengths)
	for nlit > lengthCodesStart && litLengths[nlit-1] == 0 {
		nlit--
	}
	distLengths := []int{1, 1}

	if err := writeDynamicHeader(e.out, litLengths[:nlit], distLengths, final); err != nil {
		return err
	}
	lit, err := huffman.NewCodec(literalSymbols[:nlit], litLengths[:nlit], stream.LittleEndian)
	if err != nil {
		return err
	}
	return e.writeLiterals(lit, data)
}
