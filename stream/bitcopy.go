package stream

// BitCopy copies n bits from src, starting at bit srcOff, into dst starting
// at bit dstOff. Bit k of a buffer lives in byte k/8; inside that byte, order
// LittleEndian counts from the least significant bit and BigEndian from the
// most significant one. Bits of dst outside the copied range are left as they
// were.
//
// When both offsets share the same position inside a byte, whole bytes are
// moved with copy; otherwise bits move at most one destination byte at a time.
func BitCopy(dst []byte, dstOff int, src []byte, srcOff int, n int, order Endianness) {
	if n <= 0 {
		return
	}

	if srcOff&7 == dstOff&7 {
		if head := (8 - dstOff&7) & 7; head > 0 {
			if head > n {
				head = n
			}
			putBits(dst, dstOff, getBits(src, srcOff, head, order), head, order)
			srcOff += head
			dstOff += head
			n -= head
		}
		if whole := n >> 3; whole > 0 {
			copy(dst[dstOff>>3:dstOff>>3+whole], src[srcOff>>3:srcOff>>3+whole])
			srcOff += whole << 3
			dstOff += whole << 3
			n -= whole << 3
		}
	}

	for n > 0 {
		k := 8 - dstOff&7
		if k > n {
			k = n
		}
		putBits(dst, dstOff, getBits(src, srcOff, k, order), k, order)
		srcOff += k
		dstOff += k
		n -= k
	}
}

func lowMask(k int) byte {
	return byte(uint16(1)<<uint(k) - 1)
}

// getBits returns k <= 8 bits of src starting at bit off. With LittleEndian
// order the first bit is bit 0 of the result; with BigEndian order it is
// bit k-1.
func getBits(src []byte, off, k int, order Endianness) byte {
	i, s := off>>3, off&7
	if order == LittleEndian {
		w := uint16(src[i])
		if s+k > 8 {
			w |= uint16(src[i+1]) << 8
		}
		return byte(w>>uint(s)) & lowMask(k)
	}
	w := uint16(src[i]) << 8
	if s+k > 8 {
		w |= uint16(src[i+1])
	}
	return byte(w>>uint(16-s-k)) & lowMask(k)
}

// putBits stores k bits of v, laid out as getBits returns them, at bit off of
// dst. The k bits must not cross a byte boundary.
func putBits(dst []byte, off int, v byte, k int, order Endianness) {
	i, s := off>>3, off&7
	shift := uint(s)
	if order == BigEndian {
		shift = uint(8 - s - k)
	}
	m := lowMask(k) << shift
	dst[i] = dst[i]&^m | v<<shift&m
}
