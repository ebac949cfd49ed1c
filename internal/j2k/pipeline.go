package j2k

import (
	"encoding/binary"

	"github.com/go-codecs/stillcodec/internal/j2k/entropy"
	"github.com/pkg/errors"
)

// defaultCodeBlockDim is the code-block edge length used when Options
// does not specify one (2^6 = 64, matching Annex B's common default).
const defaultCodeBlockDim = 64

// blockBounds is a code-block's footprint in plane coordinates.
type blockBounds struct {
	x0, y0, x1, y1 int
}

// planeBlocks partitions a width x height component plane into
// cbWidth x cbHeight code-blocks in raster order.
//
// The reference multi-level wavelet transform this codec builds on
// (internal/j2k/dwt) does not expose the coefficients of level-1-and-up
// subbands at the addresses a standard embedded LL/HL/LH/HH layout
// would predict once more than one decomposition level runs - each
// level reinterprets the front of the coefficient buffer at its own,
// shrinking stride rather than the image's stride. Tier-1 coding below
// therefore treats the post-transform plane as one opaque coefficient
// grid and tiles it directly, rather than partitioning per-subband.
// This keeps entropy coding correct at the cost of not exploiting
// per-subband context modeling.
func planeBlocks(width, height, cbWidth, cbHeight int) []blockBounds {
	var blocks []blockBounds
	for y := 0; y < height; y += cbHeight {
		for x := 0; x < width; x += cbWidth {
			x1 := x + cbWidth
			if x1 > width {
				x1 = width
			}
			y1 := y + cbHeight
			if y1 > height {
				y1 = height
			}
			blocks = append(blocks, blockBounds{x0: x, y0: y, x1: x1, y1: y1})
		}
	}
	return blocks
}

func extractBlock(plane []int32, planeWidth int, b blockBounds) []int32 {
	w := b.x1 - b.x0
	h := b.y1 - b.y0
	out := make([]int32, w*h)
	for y := 0; y < h; y++ {
		srcRow := (b.y0+y)*planeWidth + b.x0
		copy(out[y*w:(y+1)*w], plane[srcRow:srcRow+w])
	}
	return out
}

func storeBlock(plane []int32, planeWidth int, b blockBounds, data []int32) {
	w := b.x1 - b.x0
	for y := 0; y < b.y1-b.y0; y++ {
		dstRow := (b.y0+y)*planeWidth + b.x0
		copy(plane[dstRow:dstRow+w], data[y*w:(y+1)*w])
	}
}

// encodeComponentBlocks runs Tier-1 EBCOT over every code-block of one
// component's wavelet-transformed plane and serializes the results as
// a sequence of length-prefixed segments. This plays the role a real
// Tier-2 packet stream would, minus layer/precinct/subband
// progression; see the design notes on the degraded entropy path.
func encodeComponentBlocks(plane []int32, width, height, cbWidth, cbHeight int) []byte {
	var out []byte
	t1 := entropy.GetT1(cbWidth, cbHeight)
	defer entropy.PutT1(t1)

	for _, b := range planeBlocks(width, height, cbWidth, cbHeight) {
		bw, bh := b.x1-b.x0, b.y1-b.y0
		data := extractBlock(plane, width, b)
		t1.Resize(bw, bh)
		numBPS, encoded := encodeBlockBits(data, t1)

		hdr := make([]byte, 5)
		hdr[0] = byte(numBPS)
		binary.BigEndian.PutUint32(hdr[1:], uint32(len(encoded)))
		out = append(out, hdr...)
		out = append(out, encoded...)
	}
	return out
}

// encodeBlockBits finds the bit-depth needed for a block and runs T1
// over it, reporting an empty segment for all-zero blocks so the
// decoder can skip straight to zero-filled output.
func encodeBlockBits(data []int32, t1 *entropy.T1) (int, []byte) {
	maxVal := int32(0)
	for _, v := range data {
		a := v
		if a < 0 {
			a = -a
		}
		if a > maxVal {
			maxVal = a
		}
	}
	if maxVal == 0 {
		return 0, nil
	}
	t1.SetData(data)
	encoded := t1.Encode(entropy.BandLL)
	return bitDepth(maxVal), encoded
}

func bitDepth(maxVal int32) int {
	n := 0
	for (int32(1) << n) <= maxVal {
		n++
	}
	return n
}

// decodeComponentBlocks reverses encodeComponentBlocks, filling plane
// with the reconstructed wavelet coefficients for one component.
func decodeComponentBlocks(segment []byte, plane []int32, width, height, cbWidth, cbHeight int) error {
	t1 := entropy.GetT1(cbWidth, cbHeight)
	defer entropy.PutT1(t1)

	pos := 0
	for _, b := range planeBlocks(width, height, cbWidth, cbHeight) {
		if pos+5 > len(segment) {
			return errors.New("j2k: truncated code-block segment")
		}
		numBPS := int(segment[pos])
		length := int(binary.BigEndian.Uint32(segment[pos+1 : pos+5]))
		pos += 5
		if pos+length > len(segment) {
			return errors.New("j2k: truncated code-block data")
		}
		bw, bh := b.x1-b.x0, b.y1-b.y0
		if length == 0 {
			storeBlock(plane, width, b, make([]int32, bw*bh))
			pos += length
			continue
		}
		t1.Resize(bw, bh)
		decoded := t1.Decode(segment[pos:pos+length], numBPS, entropy.BandLL)
		storeBlock(plane, width, b, decoded)
		pos += length
	}
	return nil
}
