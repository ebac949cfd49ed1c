// Package jpeg implements baseline sequential JPEG (ITU-T T.81 Annex
// F): 8x8 block DCT, uniform quantization, and Huffman entropy coding,
// with an optional restart-interval extension for error resilience.
package jpeg

import (
	"bytes"
	"encoding/binary"

	"github.com/go-codecs/stillcodec/internal/bitio"
	"github.com/go-codecs/stillcodec/pixelbuf"
	"github.com/pkg/errors"
)

// Options configures baseline JPEG encoding.
type Options struct {
	// Quality is 1-100; higher is less lossy. Zero selects 75.
	Quality int
	// RestartInterval, if non-zero, emits a DRI segment and a restart
	// marker (and resets DC predictors) every N MCUs.
	RestartInterval int
}

const blockDim = 8

// Encode compresses img (grayscale or RGB, 8-bit) into a baseline
// JPEG stream. RGB input is converted to YCbCr 4:4:4 internally, as
// JFIF baseline streams always carry luma/chroma planes rather than
// raw RGB samples.
func Encode(img *pixelbuf.Image, opts Options) ([]byte, error) {
	if err := img.Validate(true); err != nil {
		return nil, errors.Wrap(err, "jpeg: invalid image")
	}
	if img.Bits != 8 {
		return nil, errors.Errorf("jpeg: baseline JPEG requires 8-bit samples, got %d", img.Bits)
	}
	if img.Components != 1 && img.Components != 3 {
		return nil, errors.Errorf("jpeg: unsupported component count %d", img.Components)
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 75
	}

	lumaQuant := scaleQuantTable(stdLuminanceQuant, quality)
	chromaQuant := scaleQuantTable(stdChrominanceQuant, quality)
	dcLumaEnc, _ := buildHuffman(stdDCLuminance)
	acLumaEnc, _ := buildHuffman(stdACLuminance)
	dcChromaEnc, _ := buildHuffman(stdDCChrominance)
	acChromaEnc, _ := buildHuffman(stdACChrominance)

	planes := planesFromImage(img)

	var out bytes.Buffer
	out.Write(uint16Bytes(markerSOI))
	out.Write(writeAPP0())
	out.Write(writeDQT(0, lumaQuant))
	if img.Components == 3 {
		out.Write(writeDQT(1, chromaQuant))
	}

	comps := make([]frameComponent, img.Components)
	for c := range comps {
		qid := byte(0)
		if c > 0 {
			qid = 1
		}
		comps[c] = frameComponent{ID: byte(c + 1), HSamp: 1, VSamp: 1, QuantID: qid}
	}
	out.Write(writeSOF0(img.Width, img.Height, comps))

	out.Write(writeDHT(0, 0, stdDCLuminance))
	out.Write(writeDHT(1, 0, stdACLuminance))
	if img.Components == 3 {
		out.Write(writeDHT(0, 1, stdDCChrominance))
		out.Write(writeDHT(1, 1, stdACChrominance))
	}
	if opts.RestartInterval > 0 {
		out.Write(writeDRI(opts.RestartInterval))
	}

	scanComps := make([]scanComponent, img.Components)
	for c := range scanComps {
		dt, at := byte(0), byte(0)
		if c > 0 {
			dt, at = 1, 1
		}
		scanComps[c] = scanComponent{ID: byte(c + 1), DCTable: dt, ACTable: at}
	}
	out.Write(writeSOS(scanComps))

	bw := bitio.NewWriter(&out, bitio.StuffingJPEG)
	bbw := &bitWriter{w: bw}

	mbWidth := (img.Width + blockDim - 1) / blockDim
	mbHeight := (img.Height + blockDim - 1) / blockDim
	prevDC := make([]int, img.Components)
	mcuCount := 0

	for by := 0; by < mbHeight; by++ {
		for bx := 0; bx < mbWidth; bx++ {
			for c := 0; c < img.Components; c++ {
				quant := lumaQuant
				dcEnc, acEnc := dcLumaEnc, acLumaEnc
				if c > 0 {
					quant = chromaQuant
					dcEnc, acEnc = dcChromaEnc, acChromaEnc
				}
				b := extractBlock(planes[c], img.Width, img.Height, bx*blockDim, by*blockDim)
				for i := range b {
					b[i] -= 128
				}
				forwardDCT(&b)
				coeffs := quantize(&b, quant)
				if err := encodeBlock(bbw, coeffs, &prevDC[c], dcEnc, acEnc); err != nil {
					return nil, errors.Wrap(err, "jpeg: encoding block")
				}
			}
			mcuCount++
			if opts.RestartInterval > 0 && mcuCount%opts.RestartInterval == 0 &&
				!(bx == mbWidth-1 && by == mbHeight-1) {
				if err := bbw.flushToMarker(); err != nil {
					return nil, err
				}
				restartIndex := (mcuCount/opts.RestartInterval - 1) % 8
				out.Write(uint16Bytes(0xFFD0 + uint16(restartIndex)))
				for i := range prevDC {
					prevDC[i] = 0
				}
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	out.Write(uint16Bytes(markerEOI))
	return out.Bytes(), nil
}

// bitWriter wraps bitio.Writer to support the restart-marker byte
// alignment baseline JPEG requires between scan segments.
type bitWriter struct {
	w *bitio.Writer
}

func (bw *bitWriter) writeBit(bit int) error { return bw.w.WriteBit(bit) }
func (bw *bitWriter) writeBits(v uint32, n uint) error {
	if n == 0 {
		return nil
	}
	return bw.w.WriteBits(v, n)
}

// flushToMarker pads out to a byte boundary before a restart marker.
// The padding bits are zero rather than the conventional all-ones
// convention, so the pad byte is never 0xFF, and FlushRaw writes it
// without byte-stuffing. The decoder discards the pad bits (and the
// stuff byte after a final data 0xFF) via AlignToByte before it reads
// the marker.
func (bw *bitWriter) flushToMarker() error { return bw.w.FlushRaw() }

func uint16Bytes(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func encodeBlock(bw *bitWriter, coeffs [64]int, prevDC *int, dcTable, acTable huffEncodeTable) error {
	diff := coeffs[0] - *prevDC
	*prevDC = coeffs[0]
	size := magnitudeCategory(diff)
	code, ok := dcTable[byte(size)]
	if !ok {
		return errors.Errorf("jpeg: no DC Huffman code for size %d", size)
	}
	if err := writeHuffCode(bw, code); err != nil {
		return err
	}
	if err := bw.writeBits(extendBits(diff, size), uint(size)); err != nil {
		return err
	}

	run := 0
	for k := 1; k < 64; k++ {
		c := coeffs[k]
		if c == 0 {
			run++
			continue
		}
		for run > 15 {
			zrl, ok := acTable[0xF0]
			if !ok {
				return errors.New("jpeg: no ZRL Huffman code")
			}
			if err := writeHuffCode(bw, zrl); err != nil {
				return err
			}
			run -= 16
		}
		asize := magnitudeCategory(c)
		sym := byte(run<<4 | asize)
		acCode, ok := acTable[sym]
		if !ok {
			return errors.Errorf("jpeg: no AC Huffman code for symbol %#x", sym)
		}
		if err := writeHuffCode(bw, acCode); err != nil {
			return err
		}
		if err := bw.writeBits(extendBits(c, asize), uint(asize)); err != nil {
			return err
		}
		run = 0
	}
	if run > 0 {
		eob, ok := acTable[0x00]
		if !ok {
			return errors.New("jpeg: no EOB Huffman code")
		}
		if err := writeHuffCode(bw, eob); err != nil {
			return err
		}
	}
	return nil
}

func writeHuffCode(bw *bitWriter, c huffCode) error {
	for i := int(c.Len) - 1; i >= 0; i-- {
		if err := bw.writeBit(int((c.Code >> uint(i)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

// Header carries the geometry a caller needs before committing to a
// full decode, without requiring the entropy-coded scan data to be
// well-formed.
type Header struct {
	Width, Height int
	Components    int
	Bits          int
}

// ReadHeader scans segments up to and including SOF0 and returns the
// frame geometry, stopping before SOS so a corrupt or truncated scan
// never prevents a caller from learning the image's dimensions.
func ReadHeader(data []byte) (Header, error) {
	r := bytes.NewReader(data)
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil || binary.BigEndian.Uint16(b[:]) != markerSOI {
		return Header{}, errors.New("jpeg: missing SOI marker")
	}

	for {
		if _, err := r.Read(b[:]); err != nil {
			return Header{}, errors.Wrap(err, "jpeg: reading marker")
		}
		code := binary.BigEndian.Uint16(b[:])
		if code == markerSOS {
			return Header{}, errors.New("jpeg: missing SOF0")
		}
		var lb [2]byte
		if _, err := r.Read(lb[:]); err != nil {
			return Header{}, err
		}
		length := int(binary.BigEndian.Uint16(lb[:]))
		body := make([]byte, length-2)
		if _, err := r.Read(body); err != nil {
			return Header{}, err
		}
		switch code {
		case markerSOF0:
			width, height, frameComps, err := readSOF0(body)
			if err != nil {
				return Header{}, err
			}
			return Header{Width: width, Height: height, Components: len(frameComps), Bits: 8}, nil
		case markerSOF2:
			return Header{}, errors.New("jpeg: progressive JPEG is unsupported")
		default:
			// APPn, DQT, DHT, COM, and other metadata segments: irrelevant
			// to geometry, already consumed via the length prefix.
		}
	}
}

// Decode reconstructs a pixelbuf.Image from a baseline JPEG stream.
func Decode(data []byte) (*pixelbuf.Image, error) {
	r := bytes.NewReader(data)
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil || binary.BigEndian.Uint16(b[:]) != markerSOI {
		return nil, errors.New("jpeg: missing SOI marker")
	}

	quantTables := map[byte][64]int{}
	dcTables := map[byte]huffDecodeTable{}
	acTables := map[byte]huffDecodeTable{}
	var width, height int
	var frameComps []frameComponent
	restartInterval := 0

	for {
		if _, err := r.Read(b[:]); err != nil {
			return nil, errors.Wrap(err, "jpeg: reading marker")
		}
		code := binary.BigEndian.Uint16(b[:])
		if code == markerSOS {
			break
		}
		var lb [2]byte
		if _, err := r.Read(lb[:]); err != nil {
			return nil, err
		}
		length := int(binary.BigEndian.Uint16(lb[:]))
		body := make([]byte, length-2)
		if _, err := r.Read(body); err != nil {
			return nil, err
		}
		switch code {
		case markerDQT:
			if err := readDQT(body, quantTables); err != nil {
				return nil, err
			}
		case markerSOF0:
			var err error
			width, height, frameComps, err = readSOF0(body)
			if err != nil {
				return nil, err
			}
		case markerSOF2:
			return nil, errors.New("jpeg: progressive JPEG is unsupported")
		case markerDHT:
			if err := readDHTSplit(body, dcTables, acTables); err != nil {
				return nil, err
			}
		case markerDRI:
			var err error
			restartInterval, err = readDRI(body)
			if err != nil {
				return nil, err
			}
		default:
			// APPn, COM, and other metadata segments: already consumed.
		}
	}
	if width == 0 || frameComps == nil {
		return nil, errors.New("jpeg: missing SOF0")
	}

	var lb [2]byte
	if _, err := r.Read(lb[:]); err != nil {
		return nil, err
	}
	sosLen := int(binary.BigEndian.Uint16(lb[:]))
	sosBody := make([]byte, sosLen-2)
	if _, err := r.Read(sosBody); err != nil {
		return nil, err
	}
	scanComps, err := readSOS(sosBody)
	if err != nil {
		return nil, err
	}

	rest := make([]byte, r.Len())
	if _, err := r.Read(rest); err != nil {
		return nil, err
	}

	components := len(frameComps)
	planes := make([][]int, components)
	for c := range planes {
		planes[c] = make([]int, width*height)
	}

	br := bitio.NewReader(bytes.NewReader(rest), bitio.StuffingJPEG)
	prevDC := make([]int, components)
	mbWidth := (width + blockDim - 1) / blockDim
	mbHeight := (height + blockDim - 1) / blockDim
	mcuCount := 0

	readBit := func() (int, error) {
		v, err := br.ReadBit()
		return int(v), err
	}

	for by := 0; by < mbHeight; by++ {
		for bx := 0; bx < mbWidth; bx++ {
			for c := 0; c < components; c++ {
				// Component index c is assumed to line up across frameComps
				// and scanComps, true for every stream this encoder emits.
				quant := quantTables[frameComps[c].QuantID]
				dt := dcTables[scanComps[c].DCTable]
				at := acTables[scanComps[c].ACTable]
				coeffs, err := decodeBlockCoeffs(readBit, br, &prevDC[c], dt, at)
				if err != nil {
					return nil, errors.Wrap(err, "jpeg: decoding block")
				}
				blk := dequantize(coeffs, quant)
				inverseDCT(&blk)
				storeBlock(planes[c], width, height, bx*blockDim, by*blockDim, &blk)
			}
			mcuCount++
			if restartInterval > 0 && mcuCount%restartInterval == 0 &&
				!(bx == mbWidth-1 && by == mbHeight-1) {
				br.AlignToByte()
				if err := skipRestartMarker(br); err != nil {
					return nil, err
				}
				for i := range prevDC {
					prevDC[i] = 0
				}
			}
		}
	}

	img := pixelbuf.NewImage(width, height, components, 8, pixelbuf.Interleaved)
	imageFromPlanes(img, planes)
	return img, nil
}

func readDHTSplit(body []byte, dcTables, acTables map[byte]huffDecodeTable) error {
	for len(body) > 0 {
		if len(body) < 17 {
			return errors.New("jpeg: truncated DHT")
		}
		class := body[0] >> 4
		id := body[0] & 0x0F
		var counts [16]int
		total := 0
		for i := 0; i < 16; i++ {
			counts[i] = int(body[1+i])
			total += counts[i]
		}
		if len(body) < 17+total {
			return errors.New("jpeg: truncated DHT value list")
		}
		values := append([]byte(nil), body[17:17+total]...)
		_, dec := buildHuffman(huffSpec{counts: counts, values: values})
		if class == 0 {
			dcTables[id] = dec
		} else {
			acTables[id] = dec
		}
		body = body[17+total:]
	}
	return nil
}

func decodeBlockCoeffs(readBit func() (int, error), br *bitio.Reader, prevDC *int, dcTable, acTable huffDecodeTable) ([64]int, error) {
	var coeffs [64]int
	size, err := decodeHuffSymbol(readBit, dcTable)
	if err != nil {
		return coeffs, err
	}
	bits, err := br.ReadBits(uint(size))
	if err != nil {
		return coeffs, err
	}
	diff := extend(bits, int(size))
	*prevDC += diff
	coeffs[0] = *prevDC

	k := 1
	for k < 64 {
		sym, err := decodeHuffSymbol(readBit, acTable)
		if err != nil {
			return coeffs, err
		}
		run := int(sym >> 4)
		size := int(sym & 0x0F)
		if size == 0 {
			if run == 15 {
				k += 16
				continue
			}
			break // EOB
		}
		k += run
		if k >= 64 {
			return coeffs, errors.New("jpeg: AC run exceeds block")
		}
		bits, err := br.ReadBits(uint(size))
		if err != nil {
			return coeffs, err
		}
		coeffs[k] = extend(bits, size)
		k++
	}
	return coeffs, nil
}

func skipRestartMarker(br *bitio.Reader) error {
	hi, err := br.ReadRawByte()
	if err != nil {
		return err
	}
	lo, err := br.ReadRawByte()
	if err != nil {
		return err
	}
	marker := uint16(hi)<<8 | uint16(lo)
	if marker < 0xFFD0 || marker > 0xFFD7 {
		return errors.Errorf("jpeg: expected restart marker, got %#04x", marker)
	}
	return nil
}

func extractBlock(plane []int, width, height, x0, y0 int) block {
	var b block
	for dy := 0; dy < blockDim; dy++ {
		y := y0 + dy
		if y >= height {
			y = height - 1
		}
		for dx := 0; dx < blockDim; dx++ {
			x := x0 + dx
			if x >= width {
				x = width - 1
			}
			b[dy*blockDim+dx] = float64(plane[y*width+x])
		}
	}
	return b
}

func storeBlock(plane []int, width, height, x0, y0 int, b *block) {
	for dy := 0; dy < blockDim; dy++ {
		y := y0 + dy
		if y >= height {
			continue
		}
		for dx := 0; dx < blockDim; dx++ {
			x := x0 + dx
			if x >= width {
				continue
			}
			v := b[dy*blockDim+dx] + 128
			plane[y*width+x] = clampSample(roundHalfAwayFromZero(v))
		}
	}
}

func clampSample(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
