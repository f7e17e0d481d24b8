package flate

import (
	"sync"

	"github.com/Reiex/Diskon-sub000/huffman"
	"github.com/Reiex/Diskon-sub000/stream"
)

var (
	literalSymbols  [numLiteralCodes]uint16
	distanceSymbols [numDistanceCodes]uint16
	codegenSymbols  [codegenCodeCount]uint16
)

func init() {
	for i := range literalSymbols {
		literalSymbols[i] = uint16(i)
	}
	for i := range distanceSymbols {
		distanceSymbols[i] = uint16(i)
	}
	for i := range codegenSymbols {
		codegenSymbols[i] = uint16(i)
	}
}

var (
	fixedOnce          sync.Once
	fixedLiteralCodec  *huffman.Codec[uint16]
	fixedDistanceCodec *huffman.Codec[uint16]
)

// fixedLiteralLengths returns the code lengths of RFC 1951 section 3.2.6.
func fixedLiteralLengths() [numLiteralCodes]int {
	var l [numLiteralCodes]int
	for i := range l {
		switch {
		case i < 144:
			l[i] = 8
		case i < 256:
			l[i] = 9
		case i < 280:
			l[i] = 7
		default:
			l[i] = 8
		}
	}
	return l
}

// fixedCodecs returns the shared codecs of fixed Huffman blocks.
func fixedCodecs() (lit, dist *huffman.Codec[uint16]) {
	fixedOnce.Do(func() {
		ll := fixedLiteralLengths()
		var dl [numDistanceCodes]int
		for i := range dl {
			dl[i] = 5
		}
		var err error
		fixedLiteralCodec, err = huffman.NewCodec(literalSymbols[:], ll[:], stream.LittleEndian)
		if err != nil {
			panic(err)
		}
		fixedDistanceCodec, err = huffman.NewCodec(distanceSymbols[:], dl[:], stream.LittleEndian)
		if err != nil {
			panic(err)
		}
	})
	return fixedLiteralCodec, fixedDistanceCodec
}
