package flate

import (
	"io"

	"github.com/pkg/errors"

	diskon "github.com/Reiex/Diskon-sub000"
	"github.com/Reiex/Diskon-sub000/stream"
)

// WriterOptions configures NewWriter and NewGZIPWriter.
type WriterOptions struct {
	// BlockType selects how blocks are encoded.
	BlockType BlockType
	// BlockSize is the number of input bytes per block.
	BlockSize int
	// Stream configures the buffering of the output stream. Nil selects
	// stream.DefaultOptions.
	Stream *stream.Options
}

// DefaultWriterOptions returns dynamic Huffman blocks of 64 KiB.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{
		BlockType: DynamicHuffman,
		BlockSize: diskon.DefaultBlockSize,
	}
}

// NewWriter returns a new diskon.Writer that compresses data in flate
// encoding. A nil opts selects DefaultWriterOptions.
func NewWriter(w io.Writer, opts *WriterOptions) *diskon.Writer {
	if opts == nil {
		opts = DefaultWriterOptions()
	}
	return newWriter(w, opts, NewBlockEncoder(opts.BlockType, opts.Stream))
}

// NewGZIPWriter returns a new diskon.Writer that compresses data in gzip
// encoding. A nil opts selects DefaultWriterOptions.
func NewGZIPWriter(w io.Writer, opts *WriterOptions) *diskon.Writer {
	if opts == nil {
		opts = DefaultWriterOptions()
	}
	return newWriter(w, opts, NewGZIPEncoder(opts.BlockType, opts.Stream))
}

func newWriter(w io.Writer, opts *WriterOptions, e diskon.Encoder) *diskon.Writer {
	return &diskon.Writer{
		Dest:      w,
		Encoder:   e,
		BlockSize: opts.BlockSize,
	}
}

// NewBlockEncoder returns a diskon.Encoder producing a raw DEFLATE stream
// made of blocks of type t, buffered as so describes.
func NewBlockEncoder(t BlockType, so *stream.Options) diskon.Encoder {
	b := &blockEncoder{blockType: t}
	b.out = stream.NewOutputStream(&b.sink, so)
	b.enc = NewEncoder(b.out)
	return b
}

// blockEncoder adapts Encoder to the slice-in, slice-out diskon.Encoder
// interface. Bits of an unfinished byte stay in out between blocks.
type blockEncoder struct {
	blockType BlockType
	sink      stream.BufferSink
	out       *stream.OutputStream
	enc       *Encoder
}

func (b *blockEncoder) Reset() {
	b.sink.Buf = b.sink.Buf[:0]
	b.out.Reset(&b.sink)
	b.enc.Reset(b.out)
}

func (*blockEncoder) Header(dst []byte) []byte { return dst }

func (b *blockEncoder) Encode(dst []byte, src []byte, lastBlock bool) ([]byte, error) {
	if err := b.enc.WriteBlock(src, b.blockType, lastBlock); err != nil {
		return dst, err
	}
	var err error
	if lastBlock {
		err = b.enc.Close()
	} else {
		err = b.out.Flush()
	}
	if err != nil {
		return dst, errors.Wrap(err, "flate: flushing block")
	}
	dst = append(dst, b.sink.Buf...)
	b.sink.Buf = b.sink.Buf[:0]
	return dst, nil
}
