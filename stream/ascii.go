package stream

import (
	"io"
	"strconv"

	"github.com/pkg/errors"

	diskon "github.com/Reiex/Diskon-sub000"
)

const maxASCIINumber = 64

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// readASCIIToken skips leading ASCII whitespace and collects the bytes
// accepted by valid. The first rejected byte is unread.
func (s *InputStream) readASCIIToken(valid func(tok []byte, c byte) bool) ([]byte, error) {
	c, err := s.ReadByte()
	for err == nil && isSpace(c) {
		c, err = s.ReadByte()
	}
	var tok []byte
	for err == nil && valid(tok, c) {
		if len(tok) == maxASCIINumber {
			return nil, s.fail(errors.Wrapf(diskon.ErrFormat, "stream: ASCII number longer than %d bytes", maxASCIINumber))
		}
		tok = append(tok, c)
		c, err = s.ReadByte()
	}
	switch {
	case err == nil:
		if err := s.Unread(1); err != nil {
			return nil, err
		}
	case err != io.EOF:
		return nil, err
	}
	if len(tok) == 0 {
		return nil, s.fail(errors.Wrapf(diskon.ErrFormat, "stream: no ASCII number at offset %d", s.Offset()))
	}
	return tok, nil
}

// ReadASCIIInt skips ASCII whitespace and parses a decimal integer with an
// optional sign. The byte ending the number is left unread.
func (s *InputStream) ReadASCIIInt() (int64, error) {
	tok, err := s.readASCIIToken(func(tok []byte, c byte) bool {
		if c == '-' || c == '+' {
			return len(tok) == 0
		}
		return c >= '0' && c <= '9'
	})
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(tok), 10, 64)
	if err != nil {
		return 0, s.fail(errors.Wrapf(diskon.ErrFormat, "stream: parsing %q: %v", tok, err))
	}
	return v, nil
}

// ReadASCIIFloat skips ASCII whitespace and parses a decimal floating point
// number, optionally signed and with an exponent. The byte ending the number
// is left unread.
func (s *InputStream) ReadASCIIFloat() (float64, error) {
	tok, err := s.readASCIIToken(func(tok []byte, c byte) bool {
		switch {
		case c >= '0' && c <= '9', c == '.':
			return true
		case c == 'e' || c == 'E':
			return len(tok) > 0
		case c == '-' || c == '+':
			return len(tok) == 0 || tok[len(tok)-1] == 'e' || tok[len(tok)-1] == 'E'
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(tok), 64)
	if err != nil {
		return 0, s.fail(errors.Wrapf(diskon.ErrFormat, "stream: parsing %q: %v", tok, err))
	}
	return v, nil
}
