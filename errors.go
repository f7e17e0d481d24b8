package diskon

import "errors"

// Error classes. Errors returned by the stream, huffman and flate packages
// wrap one of these, so callers can test for them with errors.Is.
var (
	// ErrIO reports a failure at the handle boundary: a read or write that
	// moved fewer bytes than requested without the handle being at EOF, or
	// a request for more data than the handle holds.
	ErrIO = errors.New("diskon: i/o error")

	// ErrFormat reports a protocol violation in the encoded data.
	ErrFormat = errors.New("diskon: format violation")

	// ErrDecode reports data that is well-framed but cannot be decoded.
	ErrDecode = errors.New("diskon: decode failure")
)
