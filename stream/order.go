package stream

import (
	"encoding/binary"
	"unsafe"
)

// Endianness selects an ordering, either of the bytes of a multi-byte value
// or of the bits inside one byte. Streams keep one setting for each.
//
// As a bit order, LittleEndian means the least significant bit of a byte is
// read or written first (DEFLATE's order), and BigEndian the most significant.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// NativeEndian is the byte order of the machine running the program.
var NativeEndian = nativeEndianness()

func nativeEndianness() Endianness {
	x := uint16(1)
	if *(*byte)(unsafe.Pointer(&x)) == 1 {
		return LittleEndian
	}
	return BigEndian
}

func (e Endianness) String() string {
	if e == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// ByteOrder returns the encoding/binary order matching e. Decoding through it
// is equivalent to copying the raw bytes and swapping them whenever e differs
// from NativeEndian.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// reverseByte[b] is b with its bit order reversed.
var reverseByte = func() (t [256]byte) {
	for i := range t {
		b := byte(i)
		b = b>>4 | b<<4
		b = (b&0xcc)>>2 | (b&0x33)<<2
		b = (b&0xaa)>>1 | (b&0x55)<<1
		t[i] = b
	}
	return t
}()

// ReverseBits returns b with its bit order reversed.
func ReverseBits(b byte) byte {
	return reverseByte[b]
}
