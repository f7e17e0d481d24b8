package huffman

import (
	"fmt"

	diskon "github.com/Reiex/Diskon-sub000"
)

var (
	// ErrInvalidCode means the input bits match no code of the table.
	ErrInvalidCode = fmt.Errorf("huffman: no code matches input: %w", diskon.ErrDecode)
	// ErrTruncated means the input ends inside a code.
	ErrTruncated = fmt.Errorf("huffman: input ends inside a code: %w", diskon.ErrDecode)
	// ErrUnknownSymbol means a symbol without a code was written.
	ErrUnknownSymbol = fmt.Errorf("huffman: symbol has no code: %w", diskon.ErrFormat)
	// ErrOversubscribed means the code lengths describe more codes than fit.
	ErrOversubscribed = fmt.Errorf("huffman: code lengths oversubscribed: %w", diskon.ErrFormat)
	// ErrCodeTooLong means a code length exceeds MaxCodeLength.
	ErrCodeTooLong = fmt.Errorf("huffman: code too long: %w", diskon.ErrFormat)
	// ErrShortBuffer means a destination buffer cannot hold the code.
	ErrShortBuffer = fmt.Errorf("huffman: short destination buffer: %w", diskon.ErrIO)
)
