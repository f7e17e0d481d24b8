package flate

const (
	// windowSize is the reach of a back-reference.
	windowSize = 1 << 15

	// The special code used to mark the end of a block.
	endBlockMarker = 256

	// The first length code.
	lengthCodesStart = 257

	// Alphabet sizes, including the codes reserved by RFC 1951.
	numLiteralCodes  = 288
	numDistanceCodes = 32

	// The largest usable literal/length and distance alphabets.
	maxNumLit  = 286
	maxNumDist = 30

	// The number of codegen codes.
	codegenCodeCount = 19

	maxLiteralCodeLength = 15
	maxCodegenLength     = 7

	maxStoreBlockSize = 65535
	baseMatchLength   = 3 // The smallest match length per the RFC section 3.2.5
	baseMatchOffset   = 1 // The smallest match offset
)

// The number of extra bits needed by length code X - lengthCodesStart.
var lengthExtraBits = [29]uint8{
	/* 257 */ 0, 0, 0,
	/* 260 */ 0, 0, 0, 0, 0, 1, 1, 1, 1, 2,
	/* 270 */ 2, 2, 2, 3, 3, 3, 3, 4, 4, 4,
	/* 280 */ 4, 5, 5, 5, 5, 0,
}

// The length indicated by length code X - lengthCodesStart, less
// baseMatchLength.
var lengthBase = [29]uint16{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
	12, 14, 16, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 255,
}

// offset code word extra bits.
var offsetExtraBits = [maxNumDist]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// The distance indicated by offset code X, less baseMatchOffset.
var offsetBase = [maxNumDist]uint16{
	0x000000, 0x000001, 0x000002, 0x000003, 0x000004,
	0x000006, 0x000008, 0x00000c, 0x000010, 0x000018,
	0x000020, 0x000030, 0x000040, 0x000060, 0x000080,
	0x0000c0, 0x000100, 0x000180, 0x000200, 0x000300,
	0x000400, 0x000600, 0x000800, 0x000c00, 0x001000,
	0x001800, 0x002000, 0x003000, 0x004000, 0x006000,
}

// The odd order in which the codegen code sizes are written.
var codegenOrder = [codegenCodeCount]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
