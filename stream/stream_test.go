package stream

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diskon "github.com/Reiex/Diskon-sub000"
)

func smallOptions() *Options {
	return &Options{BufferSize: 7, KeepSize: 4}
}

func TestReadFullAcrossRefills(t *testing.T) {
	data := make([]byte, 1000)
	rand.New(rand.NewSource(2)).Read(data)

	s := NewReader(bytes.NewReader(data), smallOptions())
	var got []byte
	for _, n := range []int{1, 5, 13, 0, 7, 200, 774} {
		p := make([]byte, n)
		require.NoError(t, s.ReadFull(p))
		got = append(got, p...)
	}
	assert.Equal(t, data, got)
	assert.True(t, s.EOF())
	assert.Equal(t, int64(len(data)), s.Offset())
}

func TestExactReadAtEOF(t *testing.T) {
	s := NewReader(bytes.NewReader([]byte{1, 2, 3, 4}), nil)
	p := make([]byte, 4)
	require.NoError(t, s.ReadFull(p))
	assert.Equal(t, []byte{1, 2, 3, 4}, p)
	assert.True(t, s.EOF())

	err := s.ReadFull(p[:1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, diskon.ErrIO))

	// Sticky.
	assert.Equal(t, err, s.ReadFull(p[:0]))
	assert.Equal(t, err, s.Err())
}

func TestShortReadWithoutEOF(t *testing.T) {
	calls := 0
	src := SourceFuncs{
		ReadFunc: func(p []byte) int {
			calls++
			return copy(p, "ab")
		},
		EOFFunc: func() bool { return false },
	}
	s := NewInputStream(src, nil)
	_, err := s.ReadUint8()
	require.Error(t, err)
	assert.True(t, errors.Is(err, diskon.ErrIO))
	assert.Equal(t, 1, calls)
}

func TestReaderSourceError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("xy"), errReader{boom})
	s := NewReader(r, nil)
	_, err := s.ReadUint8()
	require.Error(t, err)
	assert.True(t, errors.Is(err, diskon.ErrIO))
	assert.Contains(t, err.Error(), "boom")
}

type errReader struct{ err error }

func (r errReader) Read(p []byte) (int, error) { return 0, r.err }

func TestUnreadWithinKeep(t *testing.T) {
	data := []byte("0123456789abcdefghij")
	s := NewReader(bytes.NewReader(data), smallOptions())

	p := make([]byte, 9)
	require.NoError(t, s.ReadFull(p))
	// The refill after byte 7 kept the tail of the first buffer.
	require.NoError(t, s.Unread(4))
	q := make([]byte, 6)
	require.NoError(t, s.ReadFull(q))
	assert.Equal(t, "56789a", string(q))
	assert.Equal(t, int64(11), s.Offset())
}

func TestUnreadBeyondKeep(t *testing.T) {
	data := []byte("0123456789abcdefghij")
	s := NewReader(bytes.NewReader(data), smallOptions())

	p := make([]byte, 15)
	require.NoError(t, s.ReadFull(p))
	err := s.Unread(14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadOutOfRange))
}

func TestUnreadAtStart(t *testing.T) {
	s := NewReader(strings.NewReader("abc"), nil)
	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)
	require.NoError(t, s.Unread(1))
	b, err = s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)
	require.Error(t, s.Unread(2))
}

func TestNegativeUnreadPanics(t *testing.T) {
	s := NewReader(strings.NewReader("abc"), nil)
	_, err := s.ReadBits(4)
	require.NoError(t, err)
	assert.Panics(t, func() { s.UnreadBits(-1) })
	assert.Equal(t, 4, s.BitOffset())
	assert.Equal(t, int64(0), s.Offset())
}

func TestByteOpRequiresAlignment(t *testing.T) {
	s := NewReader(strings.NewReader("abc"), nil)
	_, err := s.ReadBits(3)
	require.NoError(t, err)
	assert.Panics(t, func() { s.ReadFull(make([]byte, 1)) })
	s.FinishByte()
	b, err := s.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, byte('b'), b)

	out := NewOutputStream(&BufferSink{}, nil)
	require.NoError(t, out.WriteBits(1, 1))
	assert.Panics(t, func() { out.Write([]byte{0}) })
}

func TestTypedValues(t *testing.T) {
	for _, order := range []Endianness{LittleEndian, BigEndian} {
		sink := &BufferSink{}
		w := NewOutputStream(sink, smallOptions())
		w.SetByteEndianness(order)
		require.NoError(t, w.WriteUint16(0x1234))
		require.NoError(t, w.WriteUint32(0xdeadbeef))
		require.NoError(t, w.WriteUint64(0x0102030405060708))
		require.NoError(t, w.WriteValue([3]int16{-1, 2, -3}))
		require.NoError(t, w.Flush())

		if order == BigEndian {
			assert.Equal(t, []byte{0x12, 0x34}, sink.Buf[:2])
		} else {
			assert.Equal(t, []byte{0x34, 0x12}, sink.Buf[:2])
		}

		r := NewInputStream(&sliceSource{data: sink.Buf}, smallOptions())
		r.SetByteEndianness(order)
		v16, err := r.ReadUint16()
		require.NoError(t, err)
		assert.Equal(t, uint16(0x1234), v16)
		v32, err := r.ReadUint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(0xdeadbeef), v32)
		v64, err := r.ReadUint64()
		require.NoError(t, err)
		assert.Equal(t, uint64(0x0102030405060708), v64)
		var arr [3]int16
		require.NoError(t, r.ReadValue(&arr))
		assert.Equal(t, [3]int16{-1, 2, -3}, arr)
		assert.True(t, r.EOF())
	}
}

// sliceSource serves data in chunks no larger than the caller asks for.
type sliceSource struct {
	data []byte
}

func (s *sliceSource) Read(p []byte) int {
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n
}

func (s *sliceSource) EOF() bool { return len(s.data) == 0 }

func TestBitRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	type field struct {
		v uint64
		n int
	}
	var fields []field
	for i := 0; i < 500; i++ {
		n := rng.Intn(65)
		v := rng.Uint64()
		if n < 64 {
			v &= 1<<uint(n) - 1
		}
		fields = append(fields, field{v, n})
	}

	for _, order := range []Endianness{LittleEndian, BigEndian} {
		sink := &BufferSink{}
		w := NewOutputStream(sink, smallOptions())
		w.SetBitEndianness(order)
		for _, f := range fields {
			require.NoError(t, w.WriteBits(f.v, f.n))
		}
		require.NoError(t, w.FinishByte(0))
		require.NoError(t, w.Flush())

		r := NewInputStream(&sliceSource{data: sink.Buf}, smallOptions())
		r.SetBitEndianness(order)
		for i, f := range fields {
			v, err := r.ReadBits(f.n)
			require.NoError(t, err)
			require.Equal(t, f.v, v, "%v field %d (%d bits)", order, i, f.n)
		}
		r.FinishByte()
		assert.True(t, r.EOF())
	}
}

func TestLSBFirstLayout(t *testing.T) {
	sink := &BufferSink{}
	w := NewOutputStream(sink, nil)
	require.NoError(t, w.WriteBits(1, 1)) // BFINAL
	require.NoError(t, w.WriteBits(1, 2)) // BTYPE=01
	require.NoError(t, w.WriteBits(0x3f, 6))
	require.NoError(t, w.FinishByte(0))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0xfb, 0x01}, sink.Buf)
}

func TestFinishBytePadding(t *testing.T) {
	for _, tt := range []struct {
		order Endianness
		want  byte
	}{
		{LittleEndian, 0xa9},
		{BigEndian, 0x6a},
	} {
		sink := &BufferSink{}
		w := NewOutputStream(sink, nil)
		w.SetBitEndianness(tt.order)
		require.NoError(t, w.WriteBits(1, 2))
		require.NoError(t, w.FinishByte(0xaa))
		require.NoError(t, w.Flush())
		assert.Equal(t, []byte{tt.want}, sink.Buf, "%v", tt.order)
	}
}

func TestFlushKeepsPartialByte(t *testing.T) {
	sink := &BufferSink{}
	w := NewOutputStream(sink, nil)
	require.NoError(t, w.WriteBits(0x1ff, 9))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0xff}, sink.Buf)
	require.NoError(t, w.WriteBits(0, 7))
	require.NoError(t, w.Flush())
	assert.Equal(t, []byte{0xff, 0x01}, sink.Buf)
	assert.Equal(t, int64(2), w.Offset())
}

func TestShortWrite(t *testing.T) {
	w := NewOutputStream(SinkFunc(func(p []byte) int { return len(p) / 2 }), nil)
	_, err := w.Write([]byte("abcd"))
	require.NoError(t, err)
	err = w.Flush()
	require.Error(t, err)
	assert.True(t, errors.Is(err, diskon.ErrIO))
	_, err2 := w.Write([]byte("x"))
	assert.Equal(t, err, err2)
}

func TestBitReadUpTo(t *testing.T) {
	s := NewReader(bytes.NewReader([]byte{0xff, 0x0f}), nil)
	_, err := s.ReadBits(5)
	require.NoError(t, err)

	var buf [3]byte
	n, err := s.BitReadUpTo(buf[:], 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, []byte{0x7f, 0x00, 0x00}, buf[:])

	require.NoError(t, s.UnreadBits(4))
	v, err := s.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.True(t, s.EOF())
}

// TestMSBFirstMatchesBitio checks the big-endian bit order against an
// independent MSB-first implementation.
func TestMSBFirstMatchesBitio(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	var ref bytes.Buffer
	bw := bitio.NewWriter(&ref)

	sink := &BufferSink{}
	w := NewOutputStream(sink, smallOptions())
	w.SetBitEndianness(BigEndian)

	var vals []uint64
	var lens []int
	for i := 0; i < 300; i++ {
		n := 1 + rng.Intn(64)
		v := rng.Uint64()
		if n < 64 {
			v &= 1<<uint(n) - 1
		}
		vals = append(vals, v)
		lens = append(lens, n)
		require.NoError(t, bw.WriteBits(v, uint8(n)))
		require.NoError(t, w.WriteBits(v, n))
	}
	require.NoError(t, bw.Close())
	require.NoError(t, w.FinishByte(0))
	require.NoError(t, w.Flush())
	require.Equal(t, ref.Bytes(), sink.Buf)

	br := bitio.NewReader(bytes.NewReader(sink.Buf))
	for i := range vals {
		v, err := br.ReadBits(uint8(lens[i]))
		require.NoError(t, err)
		require.Equal(t, vals[i], v)
	}
}

func TestASCIINumbers(t *testing.T) {
	s := NewReader(strings.NewReader("  42 -7\n\t+3.5e2 .25x"), nil)
	i, err := s.ReadASCIIInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), i)
	i, err = s.ReadASCIIInt()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)
	f, err := s.ReadASCIIFloat()
	require.NoError(t, err)
	assert.Equal(t, 350.0, f)
	f, err = s.ReadASCIIFloat()
	require.NoError(t, err)
	assert.Equal(t, 0.25, f)
	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('x'), b)

	s = NewReader(strings.NewReader(" abc"), nil)
	_, err = s.ReadASCIIInt()
	require.Error(t, err)
	assert.True(t, errors.Is(err, diskon.ErrFormat))
}

func TestIOReaderInterface(t *testing.T) {
	data := strings.Repeat("diskon", 2000)
	s := NewReader(strings.NewReader(data), smallOptions())
	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
}

func TestReset(t *testing.T) {
	s := NewReader(strings.NewReader(""), nil)
	require.Error(t, s.ReadFull(make([]byte, 1)))
	s.Reset(NewReaderSource(strings.NewReader("z")))
	require.NoError(t, s.Err())
	b, err := s.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, byte('z'), b)
	assert.Equal(t, int64(1), s.Offset())
}
