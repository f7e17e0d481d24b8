package stream

import "fmt"

// Buffer sizing defaults and limits.
const (
	DefaultBufferSize = 4096
	DefaultKeepSize   = 16

	// MinKeepSize is the least history a stream keeps, enough for the
	// look-ahead a Huffman decoder unreads after each symbol.
	MinKeepSize = 4
)

// Options configures the buffering of a stream.
type Options struct {
	// BufferSize is the number of bytes moved per handle call.
	BufferSize int
	// KeepSize is the number of already consumed bytes kept across refills,
	// which bounds how far Unread can go back. Output streams ignore it.
	KeepSize int
}

// DefaultOptions returns the default buffer configuration.
func DefaultOptions() *Options {
	return &Options{
		BufferSize: DefaultBufferSize,
		KeepSize:   DefaultKeepSize,
	}
}

// normalize fills in defaults. Sizes given explicitly out of range are
// programming errors.
func (o *Options) normalize() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.BufferSize == 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.KeepSize == 0 {
		opts.KeepSize = DefaultKeepSize
	}
	if opts.BufferSize < 1 {
		panic(fmt.Sprintf("stream: invalid buffer size %d", opts.BufferSize))
	}
	if opts.KeepSize < MinKeepSize {
		panic(fmt.Sprintf("stream: keep size %d below minimum %d", opts.KeepSize, MinKeepSize))
	}
	return opts
}
