package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	diskon "github.com/Reiex/Diskon-sub000"
)

// ErrUnreadOutOfRange is returned when Unread or UnreadBits would move the
// cursor back past the history the stream still holds.
var ErrUnreadOutOfRange = fmt.Errorf("stream: unread beyond kept history: %w", diskon.ErrIO)

// An InputStream reads bytes and bits from a Source through a buffer.
//
// The buffer is a keep region of Options.KeepSize bytes followed by a working
// region of Options.BufferSize bytes. Each refill copies the newest bytes
// into the keep region before pulling fresh data, so that Unread can step
// back across a refill.
//
// Any failure is sticky: the stream keeps returning the first error until
// Reset is called.
type InputStream struct {
	src  Source
	opts Options

	buf  []byte
	hist int   // oldest byte Unread may return to
	pos  int   // next byte to consume
	end  int   // end of valid data
	bit  int   // bits already consumed from buf[pos], always in [0,8)
	base int64 // stream offset of buf[KeepSize]

	byteOrder Endianness
	bitOrder  Endianness
	err       error
}

// NewInputStream returns a stream reading from src. A nil opts selects
// DefaultOptions. Byte and bit order both start as LittleEndian.
func NewInputStream(src Source, opts *Options) *InputStream {
	s := &InputStream{opts: opts.normalize()}
	s.buf = make([]byte, s.opts.KeepSize+s.opts.BufferSize)
	s.Reset(src)
	return s
}

// NewReader is shorthand for NewInputStream(NewReaderSource(r), opts).
func NewReader(r io.Reader, opts *Options) *InputStream {
	return NewInputStream(NewReaderSource(r), opts)
}

// Reset discards buffered data and status and starts reading from src.
// Endianness settings are kept.
func (s *InputStream) Reset(src Source) {
	k := s.opts.KeepSize
	s.src = src
	s.hist, s.pos, s.end, s.bit = k, k, k, 0
	s.base = 0
	s.err = nil
}

// Err returns the stream's status: nil, or the error that stopped it.
func (s *InputStream) Err() error { return s.err }

// SetByteEndianness sets the byte order of multi-byte values.
func (s *InputStream) SetByteEndianness(e Endianness) { s.byteOrder = e }

// SetBitEndianness sets the order bits are consumed inside each byte.
func (s *InputStream) SetBitEndianness(e Endianness) { s.bitOrder = e }

// ByteEndianness returns the byte order of multi-byte values.
func (s *InputStream) ByteEndianness() Endianness { return s.byteOrder }

// BitEndianness returns the order bits are consumed inside each byte.
func (s *InputStream) BitEndianness() Endianness { return s.bitOrder }

// BitOffset returns the number of bits already consumed from the current
// byte.
func (s *InputStream) BitOffset() int { return s.bit }

// Options returns the buffer configuration in use.
func (s *InputStream) Options() Options { return s.opts }

// Offset returns the number of whole bytes consumed from the handle.
func (s *InputStream) Offset() int64 {
	return s.base + int64(s.pos-s.opts.KeepSize)
}

func (s *InputStream) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return s.err
}

func (s *InputStream) requireAligned(op string) {
	if s.bit != 0 {
		panic("stream: " + op + " with unfinished bits")
	}
}

// refill pulls the next working region from the handle. It must only be
// called once the buffer is fully consumed. A short read is accepted when the
// handle reports EOF and at least need bytes arrived.
func (s *InputStream) refill(need int) error {
	k := s.opts.KeepSize
	tail := s.end - s.hist
	if tail > k {
		tail = k
	}
	copy(s.buf[k-tail:k], s.buf[s.end-tail:s.end])
	s.base += int64(s.end - k)
	s.hist = k - tail

	n := s.src.Read(s.buf[k:])
	s.pos, s.end = k, k+n

	if n < s.opts.BufferSize && !s.src.EOF() {
		return s.fail(errors.Wrapf(diskon.ErrIO, "stream: short read of %d/%d bytes without EOF (handle error: %v)",
			n, s.opts.BufferSize, handleErr(s.src)))
	}
	if n < need {
		return s.fail(errors.Wrapf(diskon.ErrIO, "stream: unexpected EOF at offset %d: %d bytes missing",
			s.Offset()+int64(n), need-n))
	}
	return nil
}

// ensure makes at least one unconsumed byte available, returning io.EOF when
// the handle has none left.
func (s *InputStream) ensure() error {
	if s.pos < s.end {
		return nil
	}
	if s.src.EOF() {
		return io.EOF
	}
	if err := s.refill(0); err != nil {
		return err
	}
	if s.pos == s.end {
		return io.EOF
	}
	return nil
}

// Read implements io.Reader: it reads up to len(p) bytes and returns io.EOF
// once the handle and buffer are both drained. It requires byte alignment.
func (s *InputStream) Read(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.requireAligned("Read")
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.ensure(); err != nil {
		return 0, err
	}
	n := copy(p, s.buf[s.pos:s.end])
	s.pos += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (s *InputStream) ReadByte() (byte, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.requireAligned("ReadByte")
	if err := s.ensure(); err != nil {
		return 0, err
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

// ReadFull reads exactly len(p) raw bytes. Running out of input is an ErrIO
// failure.
func (s *InputStream) ReadFull(p []byte) error {
	return s.consume(p, len(p))
}

// Skip moves the cursor forward by size bytes.
func (s *InputStream) Skip(size int) error {
	return s.consume(nil, size)
}

// consume moves size bytes past the cursor, copying them to p if non-nil.
func (s *InputStream) consume(p []byte, size int) error {
	if s.err != nil {
		return s.err
	}
	s.requireAligned("read")
	for size > 0 {
		if s.pos == s.end {
			need := size
			if need > s.opts.BufferSize {
				need = s.opts.BufferSize
			}
			if err := s.refill(need); err != nil {
				return err
			}
		}
		n := s.end - s.pos
		if n > size {
			n = size
		}
		if p != nil {
			p = p[copy(p, s.buf[s.pos:s.pos+n]):]
		}
		s.pos += n
		size -= n
	}
	return nil
}

// Unread moves the cursor back by size bytes. It requires byte alignment and
// fails with ErrUnreadOutOfRange when the bytes are no longer buffered.
func (s *InputStream) Unread(size int) error {
	s.requireAligned("Unread")
	return s.UnreadBits(size * 8)
}

// UnreadBits moves the cursor back by n bits.
func (s *InputStream) UnreadBits(n int) error {
	if n < 0 {
		panic("stream: negative unread")
	}
	if s.err != nil {
		return s.err
	}
	abs := s.pos*8 + s.bit - n
	if abs < s.hist*8 {
		return s.fail(errors.Wrapf(ErrUnreadOutOfRange, "%d bits requested, %d available", n, s.pos*8+s.bit-s.hist*8))
	}
	s.pos, s.bit = abs>>3, abs&7
	return nil
}

// FinishByte discards the unread bits of a partially consumed byte.
func (s *InputStream) FinishByte() {
	if s.bit != 0 {
		s.bit = 0
		s.pos++
	}
}

// EOF reports whether the handle is exhausted and every buffered byte has
// been consumed. When the buffer is drained it may call the handle to find
// out.
func (s *InputStream) EOF() bool {
	if s.err != nil {
		return false
	}
	if s.pos < s.end {
		return false
	}
	if !s.src.EOF() && s.bit == 0 {
		if err := s.refill(0); err != nil {
			return false
		}
		return s.pos == s.end
	}
	return s.src.EOF()
}

// BitRead reads exactly n bits into dst, starting at bit dstOff of dst, in
// the stream's bit order.
func (s *InputStream) BitRead(dst []byte, n int, dstOff int) error {
	_, err := s.bitRead(dst, n, dstOff, true)
	return err
}

// BitReadUpTo reads up to n bits into dst like BitRead, but stops early
// without error at end of input. It returns the number of bits read.
func (s *InputStream) BitReadUpTo(dst []byte, n int, dstOff int) (int, error) {
	return s.bitRead(dst, n, dstOff, false)
}

// SkipBits moves the cursor forward by n bits.
func (s *InputStream) SkipBits(n int) error {
	_, err := s.bitRead(nil, n, 0, true)
	return err
}

func (s *InputStream) bitRead(dst []byte, n int, dstOff int, exact bool) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	done := 0
	for done < n {
		avail := (s.end-s.pos)*8 - s.bit
		if avail == 0 {
			need := 0
			if exact {
				need = (n - done + 7) / 8
				if need > s.opts.BufferSize {
					need = s.opts.BufferSize
				}
			} else if s.src.EOF() {
				return done, nil
			}
			if err := s.refill(need); err != nil {
				return done, err
			}
			avail = (s.end - s.pos) * 8
			if avail == 0 {
				return done, nil
			}
		}
		k := n - done
		if k > avail {
			k = avail
		}
		if dst != nil {
			BitCopy(dst, dstOff+done, s.buf, s.pos*8+s.bit, k, s.bitOrder)
		}
		abs := s.bit + k
		s.pos += abs >> 3
		s.bit = abs & 7
		done += k
	}
	return done, nil
}

// ReadBits reads an n-bit unsigned value, n <= 64. With LittleEndian bit
// order the first bit read is the least significant bit of the value; with
// BigEndian bit order it is the most significant.
func (s *InputStream) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		panic("stream: ReadBits count out of range")
	}
	if n == 0 {
		return 0, nil
	}
	var tmp [8]byte
	if err := s.BitRead(tmp[:], n, 0); err != nil {
		return 0, err
	}
	if s.bitOrder == LittleEndian {
		return binary.LittleEndian.Uint64(tmp[:]), nil
	}
	return binary.BigEndian.Uint64(tmp[:]) >> uint(64-n), nil
}

// ReadUint8 reads one byte.
func (s *InputStream) ReadUint8() (uint8, error) {
	var b [1]byte
	err := s.ReadFull(b[:])
	return b[0], err
}

// ReadUint16 reads a 16-bit value in the stream's byte order.
func (s *InputStream) ReadUint16() (uint16, error) {
	var b [2]byte
	if err := s.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return s.byteOrder.ByteOrder().Uint16(b[:]), nil
}

// ReadUint32 reads a 32-bit value in the stream's byte order.
func (s *InputStream) ReadUint32() (uint32, error) {
	var b [4]byte
	if err := s.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return s.byteOrder.ByteOrder().Uint32(b[:]), nil
}

// ReadUint64 reads a 64-bit value in the stream's byte order.
func (s *InputStream) ReadUint64() (uint64, error) {
	var b [8]byte
	if err := s.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return s.byteOrder.ByteOrder().Uint64(b[:]), nil
}

// ReadValue decodes fixed-size data (numbers, arrays, slices or structs of
// them, as accepted by encoding/binary) in the stream's byte order.
func (s *InputStream) ReadValue(data interface{}) error {
	if err := binary.Read(exactReader{s}, s.byteOrder.ByteOrder(), data); err != nil {
		if s.err != nil {
			return s.err
		}
		return errors.Wrap(err, "stream: decoding value")
	}
	return nil
}

// exactReader turns short reads into stream failures, so binary.Read never
// sees a partial value.
type exactReader struct{ s *InputStream }

func (r exactReader) Read(p []byte) (int, error) {
	if err := r.s.ReadFull(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
