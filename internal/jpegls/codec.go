package jpegls

import (
	"bytes"

	"github.com/go-codecs/stillcodec/internal/bitio"
	"github.com/go-codecs/stillcodec/pixelbuf"
	"github.com/pkg/errors"
)

// Options configures JPEG-LS encoding.
type Options struct {
	Near       int
	Interleave Interleave
}

// Encode compresses img into a JPEG-LS bitstream.
func Encode(img *pixelbuf.Image, opts Options) ([]byte, error) {
	if err := img.Validate(true); err != nil {
		return nil, errors.Wrap(err, "jpegls: invalid image")
	}
	if img.Components != 1 && img.Components != 3 {
		return nil, errors.Errorf("jpegls: unsupported component count %d", img.Components)
	}

	p := NewParams(img.Bits, opts.Near)
	h := &FrameHeader{
		Width: img.Width, Height: img.Height,
		Components: img.Components, Bits: img.Bits,
		Interleave: opts.Interleave,
	}

	var buf bytes.Buffer
	buf.Write(writeMarker(nil, markerSOI))
	buf.Write(writeSOF55(h))
	if p.MaxVal != (1<<uint(img.Bits))-1 || p.T1 != 3 || p.T2 != 7 || p.T3 != 21 || p.Reset != 64 {
		buf.Write(writeLSE(p))
	}
	buf.Write(writeSOS(img.Components, opts.Interleave, opts.Near))

	var bits bytes.Buffer
	w := bitio.NewWriter(&bits, bitio.StuffingJPEGLS)

	recon := pixelbuf.NewImage(img.Width, img.Height, img.Components, img.Bits, pixelbuf.Interleaved)
	sets := newContextSets(img.Components, opts.Interleave, p)

	if err := scan(img.Width, img.Height, img.Components, opts.Interleave, func(x, y, c int) error {
		return encodeSample(w, img, recon, sets[contextSetIndex(c, opts.Interleave)], p, x, y, c, img.Width)
	}, func(x, y, c, maxRun int) (int, error) {
		return encodeRunRow(w, img, recon, sets[contextSetIndex(c, opts.Interleave)], p, x, y, c, maxRun)
	}); err != nil {
		return nil, errors.Wrap(err, "jpegls: encoding")
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	buf.Write(bits.Bytes())
	buf.Write(writeMarker(nil, markerEOI))
	return buf.Bytes(), nil
}

// Header carries the geometry a caller needs before committing to a
// full decode.
type Header struct {
	Width, Height int
	Components    int
	Bits          int
}

// ReadHeader scans segments up to and including SOF55 (plus LSE, if
// present) and returns the frame geometry, stopping before SOS so a
// corrupt or truncated entropy-coded scan never prevents a caller from
// learning the image's dimensions.
func ReadHeader(data []byte) (Header, error) {
	r := bytes.NewReader(data)
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil || uint16(b[0])<<8|uint16(b[1]) != markerSOI {
		return Header{}, errors.New("jpegls: missing SOI marker")
	}

	for {
		if _, err := r.Read(b[:]); err != nil {
			return Header{}, errors.Wrap(err, "jpegls: reading marker")
		}
		code := uint16(b[0])<<8 | uint16(b[1])
		if code == markerSOS {
			return Header{}, errors.New("jpegls: missing SOF55")
		}
		var lb [2]byte
		if _, err := r.Read(lb[:]); err != nil {
			return Header{}, err
		}
		length := int(uint16(lb[0])<<8 | uint16(lb[1]))
		body := make([]byte, length-2)
		if _, err := r.Read(body); err != nil {
			return Header{}, err
		}
		if code == markerSOF55 {
			h, err := readSOF55(body)
			if err != nil {
				return Header{}, err
			}
			return Header{Width: h.Width, Height: h.Height, Components: h.Components, Bits: h.Bits}, nil
		}
		// LSE, APPn, COM, and other metadata segments: irrelevant to
		// geometry, already consumed via the length prefix.
	}
}

// Decode reconstructs a pixelbuf.Image from a JPEG-LS bitstream.
func Decode(data []byte) (*pixelbuf.Image, error) {
	r := bytes.NewReader(data)
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil || uint16(b[0])<<8|uint16(b[1]) != markerSOI {
		return nil, errors.New("jpegls: missing SOI marker")
	}

	var h *FrameHeader
	var lseBody []byte
	near := 0
	interleave := InterleaveLine

	for {
		if _, err := r.Read(b[:]); err != nil {
			return nil, errors.Wrap(err, "jpegls: reading marker")
		}
		code := uint16(b[0])<<8 | uint16(b[1])
		if code == markerSOS {
			var lb [2]byte
			if _, err := r.Read(lb[:]); err != nil {
				return nil, err
			}
			length := int(uint16(lb[0])<<8 | uint16(lb[1]))
			body := make([]byte, length-2)
			if _, err := r.Read(body); err != nil {
				return nil, err
			}
			var err error
			near, interleave, err = readSOS(body)
			if err != nil {
				return nil, err
			}
			break
		}
		var lb [2]byte
		if _, err := r.Read(lb[:]); err != nil {
			return nil, err
		}
		length := int(uint16(lb[0])<<8 | uint16(lb[1]))
		body := make([]byte, length-2)
		if _, err := r.Read(body); err != nil {
			return nil, err
		}
		switch code {
		case markerSOF55:
			var err error
			h, err = readSOF55(body)
			if err != nil {
				return nil, err
			}
		case markerLSE:
			if h == nil {
				return nil, errors.New("jpegls: LSE before SOF55")
			}
			lseBody = body
		default:
			// Unrecognized segment: already consumed via length prefix.
		}
	}
	if h == nil {
		return nil, errors.New("jpegls: missing SOF55")
	}

	// Preset parameters (RANGE, Ti, RESET) depend on NEAR, which SOS only
	// reveals after SOF55/LSE have already been parsed, so the full
	// derivation is deferred to here rather than done inline above.
	p := NewParams(h.Bits, near)
	if lseBody != nil {
		if err := readLSE(lseBody, p); err != nil {
			return nil, err
		}
		p.Near = near
	}

	rest := make([]byte, r.Len())
	if _, err := r.Read(rest); err != nil {
		return nil, err
	}
	if len(rest) >= 2 && rest[len(rest)-2] == 0xFF && rest[len(rest)-1] == 0xD9 {
		rest = rest[:len(rest)-2]
	}

	br := bitio.NewReader(bytes.NewReader(rest), bitio.StuffingJPEGLS)
	out := pixelbuf.NewImage(h.Width, h.Height, h.Components, h.Bits, pixelbuf.Interleaved)
	sets := newContextSets(h.Components, interleave, p)

	err := scan(h.Width, h.Height, h.Components, interleave, func(x, y, c int) error {
		return decodeSample(br, out, sets[contextSetIndex(c, interleave)], p, x, y, c, h.Width)
	}, func(x, y, c, maxRun int) (int, error) {
		return decodeRunRow(br, out, sets[contextSetIndex(c, interleave)], p, x, y, c, maxRun)
	})
	if err != nil {
		return nil, errors.Wrap(err, "jpegls: decoding")
	}
	return out, nil
}

func newContextSets(components int, interleave Interleave, p *Params) []*contextSet {
	if interleave == InterleavePixel {
		sets := make([]*contextSet, components)
		for c := range sets {
			sets[c] = newContextSet(p)
		}
		return sets
	}
	return []*contextSet{newContextSet(p)}
}

func contextSetIndex(c int, interleave Interleave) int {
	if interleave == InterleavePixel {
		return c
	}
	return 0
}

// scan drives the raster traversal in the requested interleave order,
// dispatching each sample to sampleFn unless it falls inside a run
// that runFn consumes in one call (runFn is tried at every x, including
// the first column, and returns the number of samples it consumed, or 0
// when no run starts there).
func scan(width, height, components int, interleave Interleave,
	sampleFn func(x, y, c int) error,
	runFn func(x, y, c, maxRun int) (int, error)) error {

	// Run mode only applies to InterleaveLine, where each (row, component)
	// is an independent 1-D scan and a run's pixel count cannot desync
	// across components. Sample/pixel interleave advance every component
	// of a pixel together, so a run detected on one component's context
	// would not line up with another's; those modes always use regular
	// mode, which still codes a flat region compactly via the adaptive
	// context even without the specialized run-length trick.
	if interleave == InterleaveLine {
		for y := 0; y < height; y++ {
			for c := 0; c < components; c++ {
				x := 0
				for x < width {
					consumed, err := runFn(x, y, c, width-x)
					if err != nil {
						return err
					}
					if consumed > 0 {
						x += consumed
						continue
					}
					if err := sampleFn(x, y, c); err != nil {
						return err
					}
					x++
				}
			}
		}
		return nil
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < components; c++ {
				if err := sampleFn(x, y, c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
