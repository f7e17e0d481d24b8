// Package diskon is a toolkit for reading and writing binary formats.
//
// It is built from three layers:
//   - stream: a buffered, endianness-aware, bit-addressable stream over an
//     opaque byte handle, with bounded unread/lookahead
//   - huffman: canonical Huffman codes with byte-indexed, chained decode tables
//   - flate: a DEFLATE (RFC 1951) block codec built on the two above
//
// This package holds what the layers share: the error taxonomy, and the
// Encoder/Writer pair that turns a block encoder into an io.WriteCloser.
package diskon

// An Encoder encodes data in its final format, one block at a time.
type Encoder interface {
	// Header appends the appropriate stream header to dst.
	Header(dst []byte) []byte

	// Encode appends the encoded format of src to dst. lastBlock marks the
	// end of the logical stream, so any trailer is appended as well.
	Encode(dst []byte, src []byte, lastBlock bool) ([]byte, error)

	// Reset clears any internal state, preparing the Encoder to be used with
	// a new stream.
	Reset()
}
