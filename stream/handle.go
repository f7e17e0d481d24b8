package stream

import "io"

// A Source is the input handle behind an InputStream.
type Source interface {
	// Read fills p as far as it can and returns the number of bytes read.
	// Returning fewer than len(p) bytes is only legitimate at end of input.
	Read(p []byte) int

	// EOF reports whether the handle is exhausted.
	EOF() bool
}

// A Sink is the output handle behind an OutputStream.
type Sink interface {
	// Write writes p and returns the number of bytes written.
	Write(p []byte) int
}

// SourceFuncs adapts a pair of callbacks to the Source interface.
type SourceFuncs struct {
	ReadFunc func(p []byte) int
	EOFFunc  func() bool
}

func (f SourceFuncs) Read(p []byte) int { return f.ReadFunc(p) }
func (f SourceFuncs) EOF() bool         { return f.EOFFunc() }

// SinkFunc adapts a write callback to the Sink interface.
type SinkFunc func(p []byte) int

func (f SinkFunc) Write(p []byte) int { return f(p) }

type readerSource struct {
	r   io.Reader
	eof bool
	err error
}

// NewReaderSource returns a Source reading from r. It reports EOF once r
// returns io.EOF; any other error stops the source and is kept for Err.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

func (rs *readerSource) Read(p []byte) int {
	if rs.eof || rs.err != nil || len(p) == 0 {
		return 0
	}
	n, err := io.ReadFull(rs.r, p)
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		rs.eof = true
	default:
		rs.err = err
	}
	return n
}

func (rs *readerSource) EOF() bool  { return rs.eof }
func (rs *readerSource) Err() error { return rs.err }

type writerSink struct {
	w   io.Writer
	err error
}

// NewWriterSink returns a Sink writing to w. The first error returned by w
// stops the sink and is kept for Err.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (ws *writerSink) Write(p []byte) int {
	if ws.err != nil {
		return 0
	}
	n, err := ws.w.Write(p)
	ws.err = err
	return n
}

func (ws *writerSink) Err() error { return ws.err }

// A BufferSink is a Sink that appends everything written to it to Buf.
type BufferSink struct {
	Buf []byte
}

func (b *BufferSink) Write(p []byte) int {
	b.Buf = append(b.Buf, p...)
	return len(p)
}

// handleErr returns the error kept by a source or sink, if it keeps one.
func handleErr(h interface{}) error {
	if e, ok := h.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}
