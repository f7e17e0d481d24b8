package diskon

import (
	"errors"
	"io"
)

// DefaultBlockSize is the block size a Writer uses when BlockSize is zero.
const DefaultBlockSize = 1 << 16

var errWriterClosed = errors.New("diskon: Writer is closed")

// A Writer buffers data written to it, hands it to Encoder in blocks of
// BlockSize bytes, and writes the result to Dest.
type Writer struct {
	Dest      io.Writer
	Encoder   Encoder
	BlockSize int

	inBuf       []byte
	outBuf      []byte
	wroteHeader bool
	closed      bool
	err         error
}

func (w *Writer) blockSize() int {
	if w.BlockSize <= 0 {
		return DefaultBlockSize
	}
	return w.BlockSize
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	w.outBuf = w.Encoder.Header(w.outBuf[:0])
	return w.output()
}

func (w *Writer) output() error {
	if len(w.outBuf) == 0 {
		return nil
	}
	_, err := w.Dest.Write(w.outBuf)
	w.outBuf = w.outBuf[:0]
	return err
}

func (w *Writer) encode(src []byte, lastBlock bool) error {
	out, err := w.Encoder.Encode(w.outBuf[:0], src, lastBlock)
	w.outBuf = out
	if err != nil {
		return err
	}
	return w.output()
}

// Write implements io.Writer. A block is only encoded once more data follows
// it, so the final block is always the one emitted by Close.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		return 0, errWriterClosed
	}
	if err := w.writeHeader(); err != nil {
		w.err = err
		return 0, err
	}

	blockSize := w.blockSize()
	w.inBuf = append(w.inBuf, p...)
	for len(w.inBuf) > blockSize {
		if err := w.encode(w.inBuf[:blockSize], false); err != nil {
			w.err = err
			return len(p), err
		}
		w.inBuf = w.inBuf[:copy(w.inBuf, w.inBuf[blockSize:])]
	}
	return len(p), nil
}

// Close encodes the buffered data as the last block. It does not close Dest.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writeHeader(); err != nil {
		w.err = err
		return err
	}
	err := w.encode(w.inBuf, true)
	w.inBuf = w.inBuf[:0]
	if err != nil {
		w.err = err
	}
	return err
}

// Reset discards the Writer's state and makes it equivalent to a new Writer
// writing to newDest, with the same Encoder and BlockSize.
func (w *Writer) Reset(newDest io.Writer) {
	w.Dest = newDest
	w.Encoder.Reset()
	w.inBuf = w.inBuf[:0]
	w.outBuf = w.outBuf[:0]
	w.wroteHeader = false
	w.closed = false
	w.err = nil
}
