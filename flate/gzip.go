package flate

import (
	"hash/crc32"
	"io"
	"time"

	"github.com/pkg/errors"

	diskon "github.com/Reiex/Diskon-sub000"
	"github.com/Reiex/Diskon-sub000/stream"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// NewGZIPEncoder returns a diskon.Encoder producing a gzip member whose
// DEFLATE blocks are of type t.
func NewGZIPEncoder(t BlockType, so *stream.Options) diskon.Encoder {
	return &gzipEncoder{
		f: NewBlockEncoder(t, so),
	}
}

type gzipEncoder struct {
	f      diskon.Encoder
	length uint32
	crc    uint32
}

func (g *gzipEncoder) Reset() {
	g.f.Reset()
	g.length = 0
	g.crc = 0
}

func (*gzipEncoder) Header(dst []byte) []byte {
	dst = append(dst,
		gzipID1, gzipID2, // magic number
		gzipDeflate, // CM = flate
		0,           // FLG
	)
	dst = appendUint32(dst, uint32(time.Now().Unix()))
	dst = append(dst,
		0,   // XFL
		255, // OS (unspecified)
	)
	return dst
}

func appendUint32(dst []byte, n uint32) []byte {
	return append(dst,
		byte(n),
		byte(n>>8),
		byte(n>>16),
		byte(n>>24),
	)
}

func (g *gzipEncoder) Encode(dst []byte, src []byte, lastBlock bool) ([]byte, error) {
	dst, err := g.f.Encode(dst, src, lastBlock)
	if err != nil {
		return dst, err
	}

	g.length += uint32(len(src))
	g.crc = crc32.Update(g.crc, crc32.IEEETable, src)

	if lastBlock {
		dst = appendUint32(dst, g.crc)
		dst = appendUint32(dst, g.length)
	}

	return dst, nil
}

// A GZIPHeader holds the optional fields of a gzip member header.
type GZIPHeader struct {
	ModTime time.Time
	Name    string
	Comment string
	Extra   []byte
	OS      byte
}

// A GZIPReader decompresses a single gzip member and checks its trailer.
type GZIPReader struct {
	Header GZIPHeader

	in     *stream.InputStream
	d      *Decoder
	crc    uint32
	length uint32
	err    error
}

// NewGZIPReader reads the gzip header from r and returns a reader for the
// member's data. A nil opts selects stream.DefaultOptions.
func NewGZIPReader(r io.Reader, opts *stream.Options) (*GZIPReader, error) {
	z := &GZIPReader{in: stream.NewReader(r, opts)}
	z.in.SetByteEndianness(stream.LittleEndian)
	if err := z.readHeader(); err != nil {
		return nil, errors.Wrap(err, "flate: reading gzip header")
	}
	z.d = NewDecoder(z.in)
	return z, nil
}

func (z *GZIPReader) readHeader() error {
	var hdr [10]byte
	if err := z.in.ReadFull(hdr[:]); err != nil {
		return err
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 {
		return errors.Wrapf(diskon.ErrFormat, "bad magic %#02x %#02x", hdr[0], hdr[1])
	}
	if hdr[2] != gzipDeflate {
		return errors.Wrapf(diskon.ErrFormat, "unsupported compression method %d", hdr[2])
	}
	flg := hdr[3]
	if t := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24; t > 0 {
		z.Header.ModTime = time.Unix(int64(t), 0)
	}
	z.Header.OS = hdr[9]
	hcrc := crc32.Update(0, crc32.IEEETable, hdr[:])

	if flg&flagExtra != 0 {
		n, err := z.in.ReadUint16()
		if err != nil {
			return err
		}
		z.Header.Extra = make([]byte, n)
		if err := z.in.ReadFull(z.Header.Extra); err != nil {
			return err
		}
		hcrc = crc32.Update(hcrc, crc32.IEEETable, []byte{byte(n), byte(n >> 8)})
		hcrc = crc32.Update(hcrc, crc32.IEEETable, z.Header.Extra)
	}
	if flg&flagName != 0 {
		s, err := z.readString()
		if err != nil {
			return err
		}
		z.Header.Name = string(s[:len(s)-1])
		hcrc = crc32.Update(hcrc, crc32.IEEETable, s)
	}
	if flg&flagComment != 0 {
		s, err := z.readString()
		if err != nil {
			return err
		}
		z.Header.Comment = string(s[:len(s)-1])
		hcrc = crc32.Update(hcrc, crc32.IEEETable, s)
	}
	if flg&flagHdrCrc != 0 {
		want, err := z.in.ReadUint16()
		if err != nil {
			return err
		}
		if uint16(hcrc) != want {
			return errors.Wrapf(diskon.ErrFormat, "header checksum %#04x, want %#04x", uint16(hcrc), want)
		}
	}
	return nil
}

// readString reads a zero-terminated string, returning it with its
// terminator.
func (z *GZIPReader) readString() ([]byte, error) {
	var s []byte
	for {
		b, err := z.in.ReadUint8()
		if err != nil {
			return nil, err
		}
		s = append(s, b)
		if b == 0 {
			return s, nil
		}
	}
}

// Read implements io.Reader. At the end of the member it verifies the CRC-32
// and size recorded in the trailer.
func (z *GZIPReader) Read(p []byte) (int, error) {
	if z.err != nil {
		return 0, z.err
	}
	n, err := z.d.Read(p)
	z.crc = crc32.Update(z.crc, crc32.IEEETable, p[:n])
	z.length += uint32(n)
	if err == io.EOF {
		err = z.readTrailer()
	}
	z.err = err
	return n, err
}

func (z *GZIPReader) readTrailer() error {
	crc, err := z.in.ReadUint32()
	if err != nil {
		return errors.Wrap(err, "flate: reading gzip trailer")
	}
	length, err := z.in.ReadUint32()
	if err != nil {
		return errors.Wrap(err, "flate: reading gzip trailer")
	}
	if crc != z.crc {
		return errors.Wrapf(diskon.ErrFormat, "flate: gzip checksum %#08x, want %#08x", z.crc, crc)
	}
	if length != z.length {
		return errors.Wrapf(diskon.ErrFormat, "flate: gzip size %d, want %d", z.length, length)
	}
	return io.EOF
}
