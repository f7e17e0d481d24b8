package huffman

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diskon "github.com/Reiex/Diskon-sub000"
	"github.com/Reiex/Diskon-sub000/stream"
)

var orders = []stream.Endianness{stream.LittleEndian, stream.BigEndian}

func randomOccurrences(rng *rand.Rand, n int) []uint64 {
	occ := make([]uint64, n)
	for i := range occ {
		if rng.Intn(4) > 0 {
			occ[i] = uint64(rng.Intn(1000) + 1)
		}
	}
	return occ
}

// skewedOccurrences produces a Fibonacci distribution, whose Huffman tree
// is as deep as possible.
func skewedOccurrences(n int) []uint64 {
	occ := make([]uint64, n)
	a, b := uint64(1), uint64(1)
	for i := range occ {
		occ[i] = a
		a, b = b, a+b
	}
	return occ
}

func intSymbols(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func checkPrefixCode(t *testing.T, lengths []int) {
	t.Helper()
	maxLen := maxLength(lengths)
	require.Less(t, maxLen, 64)

	var kraft uint64
	for _, l := range lengths {
		if l > 0 {
			kraft += 1 << uint(maxLen-l)
		}
	}
	assert.Equal(t, uint64(1)<<uint(maxLen), kraft, "Kraft sum")

	codes := canonicalCodes(lengths)
	for i, li := range lengths {
		for j, lj := range lengths {
			if i == j || li == 0 || lj == 0 || li > lj {
				continue
			}
			if codes[j]>>uint(lj-li) == codes[i] {
				t.Fatalf("code of %d (%0*b) is a prefix of code of %d (%0*b)", i, li, codes[i], j, lj, codes[j])
			}
		}
	}
}

func TestCodeLengthsPrefixProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		occ := randomOccurrences(rng, 2+rng.Intn(300))
		occ[0], occ[1] = 1, 1
		lengths := CodeLengths(occ)
		for i, c := range occ {
			assert.Equal(t, c == 0, lengths[i] == 0)
		}
		checkPrefixCode(t, lengths)
	}
	checkPrefixCode(t, CodeLengths(skewedOccurrences(40)))
}

func TestCodeLengthsDegenerate(t *testing.T) {
	assert.Equal(t, []int{0, 0, 0}, CodeLengths([]uint64{0, 0, 0}))
	assert.Equal(t, []int{0, 1, 0}, CodeLengths([]uint64{0, 7, 0}))
	assert.Equal(t, []int{1, 1}, CodeLengths([]uint64{3, 9}))
}

func TestLimitCodeLengths(t *testing.T) {
	occ := skewedOccurrences(40)
	require.Greater(t, maxLength(CodeLengths(occ)), 15)
	for _, maxLen := range []int{6, 7, 9, 15} {
		lengths := LimitCodeLengths(occ, maxLen)
		assert.LessOrEqual(t, maxLength(lengths), maxLen)
		checkPrefixCode(t, lengths)
	}
	assert.Panics(t, func() { LimitCodeLengths(occ, 5) })
}

func TestScenarioAABACD(t *testing.T) {
	symbols := []rune{'A', 'B', 'C', 'D'}
	lengths := CodeLengths([]uint64{10, 5, 1, 1})
	assert.Equal(t, []int{1, 2, 3, 3}, lengths)

	for _, order := range orders {
		c, err := NewCodec(symbols, lengths, order)
		require.NoError(t, err)

		buf := make([]byte, 4)
		off := 0
		for _, r := range "AABACD" {
			n, err := c.WriteSymbol(buf, off, r)
			require.NoError(t, err)
			off += n
		}
		assert.Equal(t, 1+1+2+1+3+3, off)

		var got []rune
		for pos := 0; pos < off; {
			r, n, err := c.ReadSymbol(buf, pos)
			require.NoError(t, err)
			got = append(got, r)
			pos += n
		}
		assert.Equal(t, "AABACD", string(got))
	}
}

func TestCanonicalAssignment(t *testing.T) {
	// RFC 1951 section 3.2.2 example.
	lengths := []int{3, 3, 3, 3, 3, 2, 4, 4}
	want := []uint64{0x2, 0x3, 0x4, 0x5, 0x6, 0x0, 0xe, 0xf}
	assert.Equal(t, want, canonicalCodes(lengths))

	c, err := NewCodec([]byte("ABCDEFGH"), lengths, stream.BigEndian)
	require.NoError(t, err)
	code, ok := c.Code('G')
	require.True(t, ok)
	assert.Equal(t, 4, code.Len)
	assert.Equal(t, byte(0xe0), code.Bytes[0])

	c, err = NewCodec([]byte("ABCDEFGH"), lengths, stream.LittleEndian)
	require.NoError(t, err)
	code, _ = c.Code('G')
	assert.Equal(t, byte(0x07), code.Bytes[0])
}

func roundTrip(t *testing.T, occ []uint64, order stream.Endianness, rng *rand.Rand) {
	t.Helper()
	symbols := intSymbols(len(occ))
	lengths := CodeLengths(occ)
	c, err := NewCodec(symbols, lengths, order)
	require.NoError(t, err)

	var msg []int
	for len(msg) < 2000 {
		s := rng.Intn(len(occ))
		if lengths[s] > 0 {
			msg = append(msg, s)
		}
	}

	buf := make([]byte, 2000*MaxCodeLength/8+8)
	off := rng.Intn(8)
	start := off
	for _, s := range msg {
		n, err := c.WriteSymbol(buf, off, s)
		require.NoError(t, err)
		off += n
	}

	pos := start
	for i, want := range msg {
		s, n, err := c.ReadSymbol(buf, pos)
		require.NoError(t, err)
		require.Equal(t, want, s, "symbol %d", i)
		require.Equal(t, lengths[want], n)
		pos += n
	}
	assert.Equal(t, off, pos)
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, order := range orders {
		// Short codes only.
		roundTrip(t, []uint64{5, 9, 3, 3, 7, 1, 1, 2}, order, rng)
		// Codes longer than 8 bits, some spanning several chained tables.
		roundTrip(t, skewedOccurrences(30), order, rng)
		roundTrip(t, randomOccurrences(rng, 288), order, rng)
	}
}

func TestBitOffsetInvariance(t *testing.T) {
	occ := skewedOccurrences(24)
	lengths := CodeLengths(occ)
	for _, order := range orders {
		c, err := NewCodec(intSymbols(len(occ)), lengths, order)
		require.NoError(t, err)
		for sym := range occ {
			ref := make([]byte, 5)
			n0, err := c.WriteSymbol(ref, 0, sym)
			require.NoError(t, err)

			for off := 0; off < 8; off++ {
				buf := make([]byte, 5)
				n, err := c.WriteSymbol(buf, off, sym)
				require.NoError(t, err)
				require.Equal(t, n0, n)

				realigned := make([]byte, 5)
				stream.BitCopy(realigned, 0, buf, off, n, order)
				require.Equal(t, ref, realigned, "%v symbol %d offset %d", order, sym, off)

				got, used, err := c.ReadSymbol(buf, off)
				require.NoError(t, err)
				assert.Equal(t, sym, got)
				assert.Equal(t, n0, used)
			}
		}
	}
}

func TestWritePreservesSurroundingBits(t *testing.T) {
	c, err := NewCodec([]int{0, 1}, []int{1, 1}, stream.LittleEndian)
	require.NoError(t, err)
	buf := []byte{0xff}
	n, err := c.WriteSymbol(buf, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0xf7), buf[0])
}

func TestIncompleteCode(t *testing.T) {
	// One distance code, as DEFLATE allows.
	c, err := NewCodec([]int{0, 1}, []int{1, 0}, stream.LittleEndian)
	require.NoError(t, err)
	s, n, err := c.ReadSymbol([]byte{0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, s)
	assert.Equal(t, 1, n)

	_, _, err = c.ReadSymbol([]byte{0x01}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCode))
	assert.True(t, errors.Is(err, diskon.ErrDecode))

	_, err = c.WriteSymbol(make([]byte, 1), 0, 1)
	assert.True(t, errors.Is(err, ErrUnknownSymbol))
}

func TestTruncatedInput(t *testing.T) {
	occ := skewedOccurrences(20)
	c, err := NewCodec(intSymbols(20), CodeLengths(occ), stream.BigEndian)
	require.NoError(t, err)
	code, _ := c.Code(0)
	require.Greater(t, code.Len, 16)

	buf := make([]byte, 3)
	_, err = c.WriteSymbol(buf, 0, 0)
	require.NoError(t, err)
	_, _, err = c.ReadSymbol(buf[:2], 0)
	assert.True(t, errors.Is(err, ErrTruncated))

	_, err = c.WriteSymbol(buf[:1], 0, 0)
	assert.True(t, errors.Is(err, ErrShortBuffer))
}

func TestInvalidLengths(t *testing.T) {
	_, err := NewCodec([]int{0, 1, 2}, []int{1, 1, 1}, stream.BigEndian)
	assert.True(t, errors.Is(err, ErrOversubscribed))
	assert.True(t, errors.Is(err, diskon.ErrFormat))

	_, err = NewCodec([]int{0, 1}, []int{1, MaxCodeLength + 1}, stream.BigEndian)
	assert.True(t, errors.Is(err, ErrCodeTooLong))

	_, err = NewCodec([]int{7, 7}, []int{1, 1}, stream.BigEndian)
	assert.Error(t, err)
}

func BenchmarkReadSymbol(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	occ := randomOccurrences(rng, 288)
	lengths := CodeLengths(occ)
	c, err := NewCodec(intSymbols(len(occ)), lengths, stream.LittleEndian)
	if err != nil {
		b.Fatal(err)
	}
	buf := make([]byte, 1<<16)
	off := 0
	for sym := 0; off < len(buf)*8-MaxCodeLength; sym = (sym + 1) % len(occ) {
		if lengths[sym] > 0 {
			n, _ := c.WriteSymbol(buf, off, sym)
			off += n
		}
	}
	b.SetBytes(int64(off / 8))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for pos := 0; pos < off; {
			_, n, err := c.ReadSymbol(buf, pos)
			if err != nil {
				b.Fatal(err)
			}
			pos += n
		}
	}
}
