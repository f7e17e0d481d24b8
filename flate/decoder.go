// Package flate implements the DEFLATE compressed data format, described in
// RFC 1951, on top of the stream and huffman packages.
package flate

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	diskon "github.com/Reiex/Diskon-sub000"
	"github.com/Reiex/Diskon-sub000/huffman"
	"github.com/Reiex/Diskon-sub000/stream"
)

type decoderState uint8

const (
	stateIdle decoderState = iota
	stateHeaderRead
	stateStreaming
	stateBlockEnd
)

// ErrDistanceTooFar is returned for a back-reference reaching before the
// start of the stream.
var ErrDistanceTooFar = fmt.Errorf("flate: distance exceeds produced bytes: %w", diskon.ErrDecode)

// A Decoder reads a DEFLATE stream block by block. It implements io.Reader;
// Read returns io.EOF once the final block has been decoded. The window is
// cleared at that point and the input realigned to a byte boundary, so the
// InputStream can be used to read whatever follows.
//
// Errors are sticky.
type Decoder struct {
	in     *stream.InputStream
	state  decoderState
	header BlockHeader
	done   bool

	lit, dist  *huffman.Codec[uint16]
	storedLeft int

	// pending back-reference
	copyLen  int
	copyDist int

	win window
	err error
}

// NewDecoder returns a Decoder reading from in. It switches in to
// little-endian byte and bit order.
func NewDecoder(in *stream.InputStream) *Decoder {
	d := new(Decoder)
	d.Reset(in)
	return d
}

// NewReader returns a Decoder reading a DEFLATE stream from r.
func NewReader(r io.Reader) *Decoder {
	return NewDecoder(stream.NewReader(r, nil))
}

// Reset discards the Decoder's state and makes it equivalent to a new
// Decoder reading from in.
func (d *Decoder) Reset(in *stream.InputStream) {
	in.SetByteEndianness(stream.LittleEndian)
	in.SetBitEndianness(stream.LittleEndian)
	d.in = in
	d.state = stateIdle
	d.done = false
	d.lit, d.dist = nil, nil
	d.storedLeft, d.copyLen, d.copyDist = 0, 0, 0
	d.win.reset()
	d.err = nil
}

// Header returns the header of the block being decoded.
func (d *Decoder) Header() *BlockHeader { return &d.header }

// Err returns the error that stopped the Decoder, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) error {
	if d.err == nil {
		d.err = err
	}
	return d.err
}

// Read implements io.Reader.
func (d *Decoder) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if d.err != nil {
			return n, d.err
		}
		switch d.state {
		case stateIdle:
			if d.done {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			if err := readBlockHeader(d.in, &d.header); err != nil {
				d.fail(errors.Wrap(err, "flate: reading block header"))
				continue
			}
			log.WithFields(logrus.Fields{
				"final":  d.header.Final,
				"type":   d.header.Type,
				"offset": d.in.Offset(),
			}).Debug("block header")
			d.state = stateHeaderRead

		case stateHeaderRead:
			if err := d.startBlock(); err != nil {
				d.fail(err)
				continue
			}
			d.state = stateStreaming

		case stateStreaming:
			m, err := d.stream(p[n:])
			n += m
			if err != nil {
				d.fail(err)
			}

		case stateBlockEnd:
			if d.header.Final {
				log.WithField("produced", d.win.produced).Debug("final block done")
				d.win.reset()
				d.in.FinishByte()
				d.done = true
			}
			d.state = stateIdle
		}
	}
	return n, nil
}

// startBlock prepares the codecs or stored length of the current block.
func (d *Decoder) startBlock() error {
	switch d.header.Type {
	case Stored:
		d.in.FinishByte()
		length, err := d.in.ReadUint16()
		if err != nil {
			return err
		}
		nlength, err := d.in.ReadUint16()
		if err != nil {
			return err
		}
		if length != ^nlength {
			return errors.Wrapf(diskon.ErrFormat, "flate: stored block LEN %#04x does not match NLEN %#04x", length, nlength)
		}
		d.storedLeft = int(length)

	case FixedHuffman:
		d.lit, d.dist = fixedCodecs()

	case DynamicHuffman:
		var err error
		d.lit, err = huffman.NewCodec(literalSymbols[:], d.header.LiteralLengths[:], stream.LittleEndian)
		if err != nil {
			return errors.Wrap(err, "flate: literal/length code")
		}
		d.dist, err = huffman.NewCodec(distanceSymbols[:], d.header.DistanceLengths[:], stream.LittleEndian)
		if err != nil {
			return errors.Wrap(err, "flate: distance code")
		}
	}
	return nil
}

// stream decodes data of the current block into p until p is full or the
// block ends.
func (d *Decoder) stream(p []byte) (int, error) {
	if d.header.Type == Stored {
		n := len(p)
		if n > d.storedLeft {
			n = d.storedLeft
		}
		if err := d.in.ReadFull(p[:n]); err != nil {
			return 0, err
		}
		d.win.write(p[:n])
		d.storedLeft -= n
		if d.storedLeft == 0 {
			d.state = stateBlockEnd
		}
		return n, nil
	}

	n := 0
	for n < len(p) {
		if d.copyLen > 0 {
			m := d.copyLen
			if m > len(p)-n {
				m = len(p) - n
			}
			d.win.writeCopy(p[n:n+m], d.copyDist)
			d.copyLen -= m
			n += m
			continue
		}

		sym, err := readSymbol(d.in, d.lit)
		if err != nil {
			return n, err
		}
		switch {
		case sym < endBlockMarker:
			p[n] = byte(sym)
			d.win.write(p[n : n+1])
			n++
		case sym == endBlockMarker:
			d.state = stateBlockEnd
			return n, nil
		case sym < lengthCodesStart+29:
			if err := d.readBackReference(int(sym - lengthCodesStart)); err != nil {
				return n, err
			}
		default:
			return n, errors.Wrapf(diskon.ErrFormat, "flate: invalid literal/length symbol %d", sym)
		}
	}
	return n, nil
}

// readBackReference reads the extra length bits, distance code and extra
// distance bits following length code lc, and records the pending copy.
func (d *Decoder) readBackReference(lc int) error {
	length := int(lengthBase[lc]) + baseMatchLength
	if nb := int(lengthExtraBits[lc]); nb > 0 {
		extra, err := d.in.ReadBits(nb)
		if err != nil {
			return err
		}
		length += int(extra)
	}

	dc, err := readSymbol(d.in, d.dist)
	if err != nil {
		return err
	}
	if dc >= maxNumDist {
		return errors.Wrapf(diskon.ErrFormat, "flate: invalid distance symbol %d", dc)
	}
	dist := int(offsetBase[dc]) + baseMatchOffset
	if nb := int(offsetExtraBits[dc]); nb > 0 {
		extra, err := d.in.ReadBits(nb)
		if err != nil {
			return err
		}
		dist += int(extra)
	}
	if int64(dist) > d.win.produced {
		return errors.Wrapf(ErrDistanceTooFar, "distance %d, %d bytes produced", dist, d.win.produced)
	}
	d.copyLen, d.copyDist = length, dist
	return nil
}
