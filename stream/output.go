package stream

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	diskon "github.com/Reiex/Diskon-sub000"
)

// An OutputStream writes bytes and bits to a Sink through a buffer.
//
// A partially written byte stays in the buffer until it is completed or
// padded with FinishByte; Flush never emits it. Failures are sticky.
type OutputStream struct {
	dst  Sink
	opts Options

	buf  []byte
	pos  int // current byte, possibly partial when bit != 0
	bit  int // bits already written into buf[pos]
	base int64

	byteOrder Endianness
	bitOrder  Endianness
	err       error
}

// NewOutputStream returns a stream writing to dst. A nil opts selects
// DefaultOptions. Byte and bit order both start as LittleEndian.
func NewOutputStream(dst Sink, opts *Options) *OutputStream {
	s := &OutputStream{opts: opts.normalize()}
	s.buf = make([]byte, s.opts.BufferSize)
	s.Reset(dst)
	return s
}

// NewWriter is shorthand for NewOutputStream(NewWriterSink(w), opts).
func NewWriter(w io.Writer, opts *Options) *OutputStream {
	return NewOutputStream(NewWriterSink(w), opts)
}

// Reset discards buffered data and status and starts writing to dst.
// Endianness settings are kept.
func (s *OutputStream) Reset(dst Sink) {
	s.dst = dst
	s.pos, s.bit = 0, 0
	s.base = 0
	s.err = nil
	for i := range s.buf {
		s.buf[i] = 0
	}
}

// Err returns the stream's status: nil, or the error that stopped it.
func (s *OutputStream) Err() error { return s.err }

// SetByteEndianness sets the byte order of multi-byte values.
func (s *OutputStream) SetByteEndianness(e Endianness) { s.byteOrder = e }

// SetBitEndianness sets the order bits are filled inside each byte.
func (s *OutputStream) SetBitEndianness(e Endianness) { s.bitOrder = e }

// ByteEndianness returns the byte order of multi-byte values.
func (s *OutputStream) ByteEndianness() Endianness { return s.byteOrder }

// BitEndianness returns the order bits are filled inside each byte.
func (s *OutputStream) BitEndianness() Endianness { return s.bitOrder }

// BitOffset returns the number of bits already written into the current
// byte.
func (s *OutputStream) BitOffset() int { return s.bit }

// Options returns the buffer configuration in use.
func (s *OutputStream) Options() Options { return s.opts }

// Offset returns the number of whole bytes written so far, flushed or not.
func (s *OutputStream) Offset() int64 { return s.base + int64(s.pos) }

func (s *OutputStream) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return s.err
}

// emit hands buf[:n] to the sink and shifts whatever follows to the front.
func (s *OutputStream) emit(n int) error {
	if n == 0 {
		return nil
	}
	w := s.dst.Write(s.buf[:n])
	if w != n {
		return s.fail(errors.Wrapf(diskon.ErrIO, "stream: short write of %d/%d bytes (handle error: %v)",
			w, n, handleErr(s.dst)))
	}
	s.base += int64(n)
	if s.bit != 0 {
		s.buf[0] = s.buf[n]
	} else {
		s.buf[0] = 0
	}
	for i := 1; i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	s.pos -= n
	return nil
}

// Write implements io.Writer. It requires byte alignment.
func (s *OutputStream) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.bit != 0 {
		panic("stream: Write with unfinished bits")
	}
	total := len(p)
	for len(p) > 0 {
		if s.pos == len(s.buf) {
			if err := s.emit(s.pos); err != nil {
				return total - len(p), err
			}
		}
		n := copy(s.buf[s.pos:], p)
		s.pos += n
		p = p[n:]
	}
	if s.pos == len(s.buf) {
		if err := s.emit(s.pos); err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteByte implements io.ByteWriter.
func (s *OutputStream) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// BitWrite writes n bits taken from src starting at bit srcOff, in the
// stream's bit order.
func (s *OutputStream) BitWrite(src []byte, n int, srcOff int) error {
	if s.err != nil {
		return s.err
	}
	done := 0
	for done < n {
		room := (len(s.buf)-s.pos)*8 - s.bit
		k := n - done
		if k > room {
			k = room
		}
		BitCopy(s.buf, s.pos*8+s.bit, src, srcOff+done, k, s.bitOrder)
		abs := s.bit + k
		s.pos += abs >> 3
		s.bit = abs & 7
		done += k
		if s.pos == len(s.buf) {
			if err := s.emit(s.pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteBits writes the low n bits of v, n <= 64. With LittleEndian bit order
// the least significant bit goes first; with BigEndian bit order the most
// significant of the n bits goes first.
func (s *OutputStream) WriteBits(v uint64, n int) error {
	if n < 0 || n > 64 {
		panic("stream: WriteBits count out of range")
	}
	if n == 0 {
		return nil
	}
	var tmp [8]byte
	if s.bitOrder == LittleEndian {
		binary.LittleEndian.PutUint64(tmp[:], v)
	} else {
		binary.BigEndian.PutUint64(tmp[:], v<<uint(64-n))
	}
	return s.BitWrite(tmp[:], n, 0)
}

// FinishByte completes a partially written byte, filling the remaining bits
// with the matching bits of pad.
func (s *OutputStream) FinishByte(pad byte) error {
	if s.bit == 0 {
		return s.err
	}
	src := [1]byte{pad}
	return s.BitWrite(src[:], 8-s.bit, s.bit)
}

// Flush hands every complete buffered byte to the sink.
func (s *OutputStream) Flush() error {
	if s.err != nil {
		return s.err
	}
	return s.emit(s.pos)
}

// WriteUint8 writes one byte.
func (s *OutputStream) WriteUint8(v uint8) error { return s.WriteByte(v) }

// WriteUint16 writes a 16-bit value in the stream's byte order.
func (s *OutputStream) WriteUint16(v uint16) error {
	var b [2]byte
	s.byteOrder.ByteOrder().PutUint16(b[:], v)
	_, err := s.Write(b[:])
	return err
}

// WriteUint32 writes a 32-bit value in the stream's byte order.
func (s *OutputStream) WriteUint32(v uint32) error {
	var b [4]byte
	s.byteOrder.ByteOrder().PutUint32(b[:], v)
	_, err := s.Write(b[:])
	return err
}

// WriteUint64 writes a 64-bit value in the stream's byte order.
func (s *OutputStream) WriteUint64(v uint64) error {
	var b [8]byte
	s.byteOrder.ByteOrder().PutUint64(b[:], v)
	_, err := s.Write(b[:])
	return err
}

// WriteValue encodes fixed-size data, as accepted by encoding/binary, in the
// stream's byte order.
func (s *OutputStream) WriteValue(data interface{}) error {
	if err := binary.Write(s, s.byteOrder.ByteOrder(), data); err != nil {
		if s.err != nil {
			return s.err
		}
		return errors.Wrap(err, "stream: encoding value")
	}
	return nil
}
