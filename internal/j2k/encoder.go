package j2k

import (
	"encoding/binary"
	"image"

	"github.com/go-codecs/stillcodec/internal/j2k/codestream"
	"github.com/go-codecs/stillcodec/internal/j2k/dwt"
	"github.com/go-codecs/stillcodec/internal/j2k/mct"
	"github.com/pkg/errors"
)

// encoder handles JPEG 2000 encoding.
type encoder struct {
	w       writerFlusher
	img     image.Image
	options *Options

	width         int
	height        int
	numComponents int
	precision     int
	signed        bool

	componentData [][]int32
}

// writerFlusher is satisfied by io.Writer; named separately so tests
// can substitute a bytes.Buffer without extra wrapping.
type writerFlusher interface {
	Write(p []byte) (int, error)
}

// newEncoder creates a new encoder.
func newEncoder(w writerFlusher, img image.Image, options *Options) *encoder {
	bounds := img.Bounds()
	return &encoder{
		w:       w,
		img:     img,
		options: options,
		width:   bounds.Dx(),
		height:  bounds.Dy(),
	}
}

func (e *encoder) levels() int {
	n := e.options.NumResolutions
	if n <= 0 {
		n = 6
	}
	return n - 1
}

// codeBlockDims converts the log2 code-block exponents in Options into
// actual pixel dimensions (e.g. exponent 6 -> 64x64).
func (e *encoder) codeBlockDims() (int, int) {
	cbw, cbh := defaultCodeBlockDim, defaultCodeBlockDim
	if e.options.CodeBlockSize.X > 0 {
		cbw = 1 << e.options.CodeBlockSize.X
	}
	if e.options.CodeBlockSize.Y > 0 {
		cbh = 1 << e.options.CodeBlockSize.Y
	}
	return cbw, cbh
}

// encode encodes the image.
func (e *encoder) encode() error {
	if err := e.extractImageData(); err != nil {
		return errors.Wrap(err, "j2k: extracting image data")
	}

	if err := e.preprocess(); err != nil {
		return errors.Wrap(err, "j2k: preprocessing")
	}

	stream, err := e.generateCodestream()
	if err != nil {
		return errors.Wrap(err, "j2k: generating codestream")
	}

	_, err = e.w.Write(stream)
	return err
}

// extractImageData extracts pixel data from the source image.
func (e *encoder) extractImageData() error {
	bounds := e.img.Bounds()

	switch img := e.img.(type) {
	case *image.Gray:
		e.numComponents = 1
		e.precision = 8
		e.componentData = [][]int32{make([]int32, e.width*e.height)}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				e.componentData[0][idx] = int32(img.GrayAt(x, y).Y)
			}
		}

	case *image.Gray16:
		e.numComponents = 1
		e.precision = 16
		e.componentData = [][]int32{make([]int32, e.width*e.height)}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				e.componentData[0][idx] = int32(img.Gray16At(x, y).Y)
			}
		}

	case *image.RGBA:
		e.numComponents = 3
		e.precision = 8
		e.componentData = make([][]int32, 3)
		for c := range e.componentData {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.RGBAAt(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
			}
		}

	case *image.RGBA64:
		e.numComponents = 3
		e.precision = 16
		e.componentData = make([][]int32, 3)
		for c := range e.componentData {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.RGBA64At(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
			}
		}

	case *image.NRGBA:
		e.numComponents = 4
		e.precision = 8
		e.componentData = make([][]int32, 4)
		for c := range e.componentData {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				c := img.NRGBAAt(x, y)
				e.componentData[0][idx] = int32(c.R)
				e.componentData[1][idx] = int32(c.G)
				e.componentData[2][idx] = int32(c.B)
				e.componentData[3][idx] = int32(c.A)
			}
		}

	default:
		e.numComponents = 3
		e.precision = 8
		e.componentData = make([][]int32, 3)
		for c := range e.componentData {
			e.componentData[c] = make([]int32, e.width*e.height)
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				idx := (y-bounds.Min.Y)*e.width + (x - bounds.Min.X)
				r, g, b, _ := e.img.At(x, y).RGBA()
				e.componentData[0][idx] = int32(r >> 8)
				e.componentData[1][idx] = int32(g >> 8)
				e.componentData[2][idx] = int32(b >> 8)
			}
		}
	}

	if e.options.Precision > 0 && e.options.Precision <= 16 && e.options.Precision != e.precision {
		target := e.options.Precision
		srcMax := int32((1 << e.precision) - 1)
		dstMax := int32((1 << target) - 1)
		for c := 0; c < e.numComponents; c++ {
			for i := range e.componentData[c] {
				e.componentData[c][i] = e.componentData[c][i] * dstMax / srcMax
			}
		}
		e.precision = target
	}

	return nil
}

// quantStep returns the 9-7 quantization step size derived from Quality.
func (e *encoder) quantStep() float64 {
	quality := e.options.Quality
	if quality <= 0 {
		quality = 75
	}
	if quality > 100 {
		quality = 100
	}
	// Higher quality means a smaller step. At quality=100 this is near
	// lossless; at quality=1 coefficients are quantized heavily.
	return 101.0 - float64(quality)
}

// preprocess applies the component transform and wavelet decomposition.
func (e *encoder) preprocess() error {
	for c := 0; c < e.numComponents; c++ {
		mct.DCLevelShiftForward(e.componentData[c], e.precision)
	}

	if e.numComponents >= 3 {
		if e.options.Lossless {
			mct.ForwardRCT(e.componentData[0], e.componentData[1], e.componentData[2])
		} else {
			compFloat := make([][]float64, 3)
			for c := 0; c < 3; c++ {
				compFloat[c] = make([]float64, len(e.componentData[c]))
				for i, v := range e.componentData[c] {
					compFloat[c][i] = float64(v)
				}
			}
			mct.ForwardICT(compFloat[0], compFloat[1], compFloat[2])
			for c := 0; c < 3; c++ {
				mct.ConvertFloat64ToInt32(compFloat[c], e.componentData[c])
			}
		}
	}

	levels := e.levels()
	for c := 0; c < e.numComponents; c++ {
		if e.options.Lossless {
			dwt.DecomposeMultiLevel53(e.componentData[c], e.width, e.height, levels)
		} else {
			dataFloat := make([]float64, len(e.componentData[c]))
			for i, v := range e.componentData[c] {
				dataFloat[i] = float64(v)
			}
			dwt.DecomposeMultiLevel97(dataFloat, e.width, e.height, levels)
			quantized := dwt.Quantize(dataFloat, e.quantStep())
			copy(e.componentData[c], quantized)
		}
	}

	return nil
}

// generateCodestream generates the JPEG 2000 codestream.
func (e *encoder) generateCodestream() ([]byte, error) {
	var buf []byte

	buf = append(buf, 0xFF, 0x4F) // SOC

	buf = append(buf, e.generateSIZ()...)
	buf = append(buf, e.generateCOD()...)
	buf = append(buf, e.generateQCD()...)
	if e.options.Comment != "" {
		buf = append(buf, e.generateCOM()...)
	}

	tileData, err := e.encodeTile()
	if err != nil {
		return nil, err
	}
	buf = append(buf, tileData...)

	buf = append(buf, 0xFF, 0xD9) // EOC

	return buf, nil
}

func (e *encoder) generateSIZ() []byte {
	numComp := e.numComponents
	length := 38 + 3*numComp

	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.SIZ))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))

	binary.BigEndian.PutUint16(buf[4:6], 0) // Rsiz: no profile restriction
	binary.BigEndian.PutUint32(buf[6:10], uint32(e.width))
	binary.BigEndian.PutUint32(buf[10:14], uint32(e.height))
	binary.BigEndian.PutUint32(buf[14:18], 0)
	binary.BigEndian.PutUint32(buf[18:22], 0)
	binary.BigEndian.PutUint32(buf[22:26], uint32(e.width)) // single tile
	binary.BigEndian.PutUint32(buf[26:30], uint32(e.height))
	binary.BigEndian.PutUint32(buf[30:34], 0)
	binary.BigEndian.PutUint32(buf[34:38], 0)
	binary.BigEndian.PutUint16(buf[38:40], uint16(numComp))

	for c := 0; c < numComp; c++ {
		offset := 40 + c*3
		ssiz := uint8(e.precision - 1)
		if e.signed {
			ssiz |= 0x80
		}
		buf[offset] = ssiz
		buf[offset+1] = 1
		buf[offset+2] = 1
	}

	return buf
}

func (e *encoder) generateCOD() []byte {
	length := 12
	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.COD))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))

	buf[4] = 0 // Scod: no SOP/EPH
	buf[5] = uint8(e.options.ProgressionOrder)
	binary.BigEndian.PutUint16(buf[6:8], 1) // one quality layer
	if e.numComponents >= 3 {
		buf[8] = 1 // MCT enabled
	}
	buf[9] = uint8(e.levels())

	cbw, cbh := e.codeBlockDims()
	buf[10] = uint8(log2(cbw) - 2)
	buf[11] = uint8(log2(cbh) - 2)
	buf[12] = 0 // code-block style: no bypass/reset/termination flags
	if e.options.Lossless {
		buf[13] = 1 // 5-3 reversible wavelet
	} else {
		buf[13] = 0 // 9-7 irreversible wavelet
	}

	return buf
}

func log2(v int) int {
	n := 0
	for (1 << n) < v {
		n++
	}
	return n
}

func (e *encoder) generateQCD() []byte {
	length := 5
	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.QCD))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))

	if e.options.Lossless {
		buf[4] = codestream.QuantizationNone
		binary.BigEndian.PutUint16(buf[5:7], 0)
		return buf[:7]
	}

	buf[4] = codestream.QuantizationScalarDerived | (1 << 5)
	step := e.quantStep()
	binary.BigEndian.PutUint16(buf[5:7], uint16(step*256))
	return buf
}

func (e *encoder) generateCOM() []byte {
	comment := []byte(e.options.Comment)
	length := 4 + len(comment)
	buf := make([]byte, 2+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(codestream.COM))
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))
	binary.BigEndian.PutUint16(buf[4:6], codestream.CommentLatin1)
	copy(buf[6:], comment)
	return buf
}

// encodeTile entropy-codes every component of the single image tile
// and wraps the result in an SOT/SOD tile-part.
func (e *encoder) encodeTile() ([]byte, error) {
	cbw, cbh := e.codeBlockDims()

	var tileData []byte
	for c := 0; c < e.numComponents; c++ {
		segment := encodeComponentBlocks(e.componentData[c], e.width, e.height, cbw, cbh)
		lengthPrefix := make([]byte, 4)
		binary.BigEndian.PutUint32(lengthPrefix, uint32(len(segment)))
		tileData = append(tileData, lengthPrefix...)
		tileData = append(tileData, segment...)
	}

	return e.createTilePart(tileData), nil
}

func (e *encoder) createTilePart(tileData []byte) []byte {
	sotLength := 10
	tilePartLength := uint32(2 + sotLength + 2 + len(tileData))

	header := make([]byte, 14)
	binary.BigEndian.PutUint16(header[0:2], uint16(codestream.SOT))
	binary.BigEndian.PutUint16(header[2:4], uint16(sotLength))
	binary.BigEndian.PutUint16(header[4:6], 0) // tile index
	binary.BigEndian.PutUint32(header[6:10], tilePartLength)
	header[10] = 0 // tile-part index
	header[11] = 1 // number of tile-parts
	binary.BigEndian.PutUint16(header[12:14], uint16(codestream.SOD))

	return append(header, tileData...)
}
