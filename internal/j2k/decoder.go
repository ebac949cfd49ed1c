package j2k

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/go-codecs/stillcodec/internal/j2k/codestream"
	"github.com/go-codecs/stillcodec/internal/j2k/dwt"
	"github.com/go-codecs/stillcodec/internal/j2k/mct"
	"github.com/pkg/errors"
)

// header captures the fields this codec needs out of a codestream's
// SIZ/COD/QCD marker segments.
type header struct {
	width, height int
	numComponents int
	precision     int
	signed        bool
	lossless      bool
	levels        int
	cbWidth       int
	cbHeight      int
	mctEnabled    bool
	quantStep     float64
	comment       string
}

// decoder handles JPEG 2000 decoding.
type decoder struct {
	r      *bufio.Reader
	header *header
	tile   []byte // tile-part payload (component segments)
}

// newDecoder creates a new decoder.
func newDecoder(r io.Reader) *decoder {
	return &decoder{r: bufio.NewReader(r)}
}

// decode decodes the image.
func (d *decoder) decode(cfg *Config) (image.Image, error) {
	if err := d.parseMarkers(); err != nil {
		return nil, errors.Wrap(err, "j2k: parsing markers")
	}
	return d.decodeTile(cfg)
}

// readMetadata reads only the metadata without decoding.
func (d *decoder) readMetadata() (*Metadata, error) {
	if err := d.parseHeaderOnly(); err != nil {
		return nil, err
	}
	h := d.header
	return &Metadata{
		Width:            h.width,
		Height:           h.height,
		NumComponents:    h.numComponents,
		BitsPerComponent: repeat(h.precision, h.numComponents),
		Signed:           repeatBool(h.signed, h.numComponents),
		ColorSpace:       ColorSpaceUnspecified,
		NumResolutions:   h.levels + 1,
		Lossless:         h.lossless,
	}, nil
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func repeatBool(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// parseHeaderOnly reads the SOC/SIZ/COD/QCD markers but not tile data.
func (d *decoder) parseHeaderOnly() error {
	magic, err := d.r.Peek(2)
	if err != nil {
		return err
	}
	if magic[0] != 0xFF || magic[1] != 0x4F {
		return errors.New("j2k: not a raw codestream (missing SOC marker)")
	}

	if _, err := d.r.Discard(2); err != nil { // consume SOC
		return err
	}

	h := &header{mctEnabled: false, quantStep: 1}
	for {
		marker, err := d.peekMarker()
		if err != nil {
			return err
		}
		if marker == codestream.SOT {
			d.header = h
			return nil
		}
		if _, err := d.r.Discard(2); err != nil {
			return err
		}
		switch marker {
		case codestream.SIZ:
			err = d.readSIZ(h)
		case codestream.COD:
			err = d.readCOD(h)
		case codestream.QCD:
			err = d.readQCD(h)
		case codestream.COM:
			err = d.readCOM(h)
		default:
			err = d.skipSegment()
		}
		if err != nil {
			return err
		}
	}
}

// peekMarker looks at the next marker code without consuming it.
func (d *decoder) peekMarker() (codestream.Marker, error) {
	b, err := d.r.Peek(2)
	if err != nil {
		return 0, err
	}
	return codestream.Marker(binary.BigEndian.Uint16(b)), nil
}

// parseMarkers reads the full header and the single tile-part's payload.
func (d *decoder) parseMarkers() error {
	if err := d.parseHeaderOnly(); err != nil {
		return err
	}

	code, err := readMarkerCode(d.r)
	if err != nil {
		return err
	}
	if codestream.Marker(code) != codestream.SOT {
		return errors.New("j2k: expected SOT marker")
	}
	sotLen, err := readUint16(d.r)
	if err != nil {
		return err
	}
	sotBody := make([]byte, sotLen-2)
	if _, err := io.ReadFull(d.r, sotBody); err != nil {
		return err
	}

	code, err = readMarkerCode(d.r)
	if err != nil {
		return err
	}
	if codestream.Marker(code) != codestream.SOD {
		return errors.New("j2k: expected SOD marker")
	}

	rest, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	// Strip the trailing EOC marker.
	if len(rest) >= 2 && rest[len(rest)-2] == 0xFF && rest[len(rest)-1] == 0xD9 {
		rest = rest[:len(rest)-2]
	}
	d.tile = rest
	return nil
}

func readMarkerCode(r *bufio.Reader) (uint16, error) {
	return readUint16(r)
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// skipSegment consumes a marker segment's length-prefixed body
// without interpreting it.
func (d *decoder) skipSegment() error {
	length, err := readUint16(d.r)
	if err != nil {
		return err
	}
	_, err = d.r.Discard(int(length) - 2)
	return err
}

func (d *decoder) readSIZ(h *header) error {
	length, err := readUint16(d.r)
	if err != nil {
		return err
	}
	body := make([]byte, length-2)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return err
	}
	if len(body) < 36 {
		return errors.New("j2k: SIZ segment too short")
	}
	xSiz := binary.BigEndian.Uint32(body[2:6])
	ySiz := binary.BigEndian.Uint32(body[6:10])
	xOSiz := binary.BigEndian.Uint32(body[10:14])
	yOSiz := binary.BigEndian.Uint32(body[14:18])
	h.width = int(xSiz - xOSiz)
	h.height = int(ySiz - yOSiz)
	numComp := binary.BigEndian.Uint16(body[34:36])
	h.numComponents = int(numComp)
	if len(body) < 36+3*h.numComponents {
		return errors.New("j2k: SIZ segment truncated component table")
	}
	ssiz := body[36]
	h.precision = int(ssiz&0x7f) + 1
	h.signed = ssiz&0x80 != 0
	return nil
}

func (d *decoder) readCOD(h *header) error {
	length, err := readUint16(d.r)
	if err != nil {
		return err
	}
	body := make([]byte, length-2)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return err
	}
	if len(body) < 10 {
		return errors.New("j2k: COD segment too short")
	}
	h.mctEnabled = body[4] != 0
	h.levels = int(body[5])
	h.cbWidth = 1 << (int(body[6]) + 2)
	h.cbHeight = 1 << (int(body[7]) + 2)
	h.lossless = body[9] == 1
	return nil
}

func (d *decoder) readQCD(h *header) error {
	length, err := readUint16(d.r)
	if err != nil {
		return err
	}
	body := make([]byte, length-2)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return err
	}
	if len(body) < 3 {
		return errors.New("j2k: QCD segment too short")
	}
	step := binary.BigEndian.Uint16(body[1:3])
	if step == 0 {
		h.quantStep = 1
	} else {
		h.quantStep = float64(step) / 256
	}
	return nil
}

func (d *decoder) readCOM(h *header) error {
	length, err := readUint16(d.r)
	if err != nil {
		return err
	}
	body := make([]byte, length-2)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return err
	}
	if len(body) > 2 {
		h.comment = string(body[2:])
	}
	return nil
}

// decodeTile reconstructs the image from the parsed tile payload.
func (d *decoder) decodeTile(cfg *Config) (image.Image, error) {
	h := d.header
	if h == nil || h.numComponents == 0 {
		return nil, errors.New("j2k: invalid header")
	}

	componentData := make([][]int32, h.numComponents)
	pos := 0
	for c := 0; c < h.numComponents; c++ {
		if pos+4 > len(d.tile) {
			return nil, errors.New("j2k: truncated tile data")
		}
		segLen := int(binary.BigEndian.Uint32(d.tile[pos : pos+4]))
		pos += 4
		if pos+segLen > len(d.tile) {
			return nil, errors.New("j2k: truncated component segment")
		}
		plane := make([]int32, h.width*h.height)
		if err := decodeComponentBlocks(d.tile[pos:pos+segLen], plane, h.width, h.height, h.cbWidth, h.cbHeight); err != nil {
			return nil, errors.Wrapf(err, "j2k: decoding component %d", c)
		}
		pos += segLen

		if h.lossless {
			dwt.ReconstructMultiLevel53(plane, h.width, h.height, h.levels)
		} else {
			dataFloat := dwt.Dequantize(plane, h.quantStep)
			dwt.ReconstructMultiLevel97(dataFloat, h.width, h.height, h.levels)
			mct.ConvertFloat64ToInt32(dataFloat, plane)
		}
		componentData[c] = plane
	}

	if h.mctEnabled && h.numComponents >= 3 {
		if h.lossless {
			mct.InverseRCT(componentData[0], componentData[1], componentData[2])
		} else {
			compFloat := make([][]float64, 3)
			for c := 0; c < 3; c++ {
				compFloat[c] = make([]float64, len(componentData[c]))
				mct.ConvertInt32ToFloat64(componentData[c], compFloat[c])
			}
			mct.InverseICT(compFloat[0], compFloat[1], compFloat[2])
			for c := 0; c < 3; c++ {
				mct.ConvertFloat64ToInt32(compFloat[c], componentData[c])
			}
		}
	}

	for c := 0; c < h.numComponents; c++ {
		if !h.signed {
			mct.DCLevelShiftInverse(componentData[c], h.precision)
		}
	}

	return d.createImage(componentData, h.width, h.height, h.numComponents, h.precision)
}

func (d *decoder) createImage(componentData [][]int32, width, height, numComp, precision int) (image.Image, error) {
	maxVal := int32((1 << precision) - 1)

	switch numComp {
	case 1:
		if precision <= 8 {
			img := image.NewGray(image.Rect(0, 0, width, height))
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					v := clampInt32(componentData[0][y*width+x], 0, maxVal)
					if precision != 8 {
						v = v * 255 / maxVal
					}
					img.SetGray(x, y, color.Gray{Y: uint8(v)})
				}
			}
			return img, nil
		}
		img := image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v := clampInt32(componentData[0][y*width+x], 0, maxVal)
				v = v * 65535 / maxVal
				img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
			}
		}
		return img, nil

	case 3:
		if precision <= 8 {
			img := image.NewRGBA(image.Rect(0, 0, width, height))
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					idx := y*width + x
					r := clampInt32(componentData[0][idx], 0, maxVal)
					g := clampInt32(componentData[1][idx], 0, maxVal)
					b := clampInt32(componentData[2][idx], 0, maxVal)
					if precision != 8 {
						r, g, b = r*255/maxVal, g*255/maxVal, b*255/maxVal
					}
					img.SetRGBA(x, y, color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255})
				}
			}
			return img, nil
		}
		img := image.NewRGBA64(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				r := clampInt32(componentData[0][idx], 0, maxVal) * 65535 / maxVal
				g := clampInt32(componentData[1][idx], 0, maxVal) * 65535 / maxVal
				b := clampInt32(componentData[2][idx], 0, maxVal) * 65535 / maxVal
				img.SetRGBA64(x, y, color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 65535})
			}
		}
		return img, nil

	case 4:
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := y*width + x
				r := clampInt32(componentData[0][idx], 0, maxVal)
				g := clampInt32(componentData[1][idx], 0, maxVal)
				b := clampInt32(componentData[2][idx], 0, maxVal)
				a := clampInt32(componentData[3][idx], 0, maxVal)
				if precision != 8 {
					r, g, b, a = r*255/maxVal, g*255/maxVal, b*255/maxVal, a*255/maxVal
				}
				img.SetNRGBA(x, y, color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)})
			}
		}
		return img, nil

	default:
		return nil, errors.Errorf("j2k: unsupported number of components: %d", numComp)
	}
}

func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
