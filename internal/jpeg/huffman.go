package jpeg

import "github.com/pkg/errors"

// huffCode is one entry of a canonical Huffman encoding table.
type huffCode struct {
	Code uint16
	Len  uint8
}

// huffEncodeTable maps a symbol byte to its canonical code.
type huffEncodeTable map[byte]huffCode

// huffDecodeTable maps (length, code) to the original symbol, indexed
// by length first since a decoder reads one bit at a time and must
// check only the codes of the length seen so far.
type huffDecodeTable [17]map[uint16]byte

// buildHuffman constructs the canonical encode/decode tables for a
// DHT-style (counts, values) specification (ITU-T T.81 Annex C).
func buildHuffman(spec huffSpec) (huffEncodeTable, huffDecodeTable) {
	enc := make(huffEncodeTable)
	var dec huffDecodeTable
	code := 0
	k := 0
	for length := 1; length <= 16; length++ {
		for i := 0; i < spec.counts[length-1]; i++ {
			sym := spec.values[k]
			enc[sym] = huffCode{Code: uint16(code), Len: uint8(length)}
			if dec[length] == nil {
				dec[length] = make(map[uint16]byte)
			}
			dec[length][uint16(code)] = sym
			code++
			k++
		}
		code <<= 1
	}
	return enc, dec
}

// decodeHuffSymbol reads one Huffman-coded symbol bit by bit.
func decodeHuffSymbol(readBit func() (int, error), dec huffDecodeTable) (byte, error) {
	var code uint16
	for length := 1; length <= 16; length++ {
		bit, err := readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | uint16(bit)
		if m := dec[length]; m != nil {
			if sym, ok := m[code]; ok {
				return sym, nil
			}
		}
	}
	return 0, errors.New("jpeg: invalid Huffman code")
}

// magnitudeCategory returns the number of bits needed to represent |v|,
// the JPEG "SSSS" category used for both DC and AC coefficient coding.
func magnitudeCategory(v int) int {
	a := v
	if a < 0 {
		a = -a
	}
	n := 0
	for a > 0 {
		a >>= 1
		n++
	}
	return n
}

// extendBits computes the size-bit additional-bits pattern for v (the
// EXTEND procedure of ITU-T T.81 Annex F.2.2.1, run in reverse here
// since v is already known rather than being decoded).
func extendBits(v, size int) uint32 {
	if size == 0 {
		return 0
	}
	if v < 0 {
		v += (1 << uint(size)) - 1
	}
	return uint32(v) & uint32((1<<uint(size))-1)
}

// extend reverses extendBits: given the size-bit pattern read from the
// stream, recovers the signed coefficient value.
func extend(bits uint32, size int) int {
	if size == 0 {
		return 0
	}
	if bits < uint32(1)<<uint(size-1) {
		return int(bits) - (1 << uint(size)) + 1
	}
	return int(bits)
}
