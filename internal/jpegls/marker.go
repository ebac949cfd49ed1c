package jpegls

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Marker codes used by the JPEG-LS bitstream (spec §4.2).
const (
	markerSOI  = 0xFFD8
	markerSOF55 = 0xFFF7
	markerLSE  = 0xFFF8
	markerSOS  = 0xFFDA
	markerEOI  = 0xFFD9
)

// FrameHeader carries the geometry and per-component table carried by
// SOF55, plus any LSE preset-parameter override.
type FrameHeader struct {
	Width, Height int
	Components    int
	Bits          int
	MaxValOverride int // 0 when no LSE override was present
	T1, T2, T3     int // 0 when no LSE override was present
	Reset          int
	Interleave     Interleave
}

// Interleave selects how component samples are ordered in the scan.
type Interleave int

const (
	InterleaveLine Interleave = iota
	InterleaveSample
	InterleavePixel
)

func writeMarker(buf []byte, code uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], code)
	return append(buf, b[:]...)
}

// writeSOF55 emits the frame header segment.
func writeSOF55(h *FrameHeader) []byte {
	length := 8 + 3*h.Components
	buf := make([]byte, 0, 2+length)
	buf = writeMarker(buf, markerSOF55)
	lb := make([]byte, 2)
	binary.BigEndian.PutUint16(lb, uint16(length))
	buf = append(buf, lb...)
	buf = append(buf, byte(h.Bits))
	hb := make([]byte, 2)
	binary.BigEndian.PutUint16(hb, uint16(h.Height))
	buf = append(buf, hb...)
	wb := make([]byte, 2)
	binary.BigEndian.PutUint16(wb, uint16(h.Width))
	buf = append(buf, wb...)
	buf = append(buf, byte(h.Components))
	for c := 0; c < h.Components; c++ {
		buf = append(buf, byte(c+1), 0x11, 0)
	}
	return buf
}

func readSOF55(body []byte) (*FrameHeader, error) {
	if len(body) < 6 {
		return nil, errors.New("jpegls: SOF55 segment too short")
	}
	h := &FrameHeader{
		Bits:       int(body[0]),
		Height:     int(binary.BigEndian.Uint16(body[1:3])),
		Width:      int(binary.BigEndian.Uint16(body[3:5])),
		Components: int(body[5]),
	}
	if h.Components <= 0 || len(body) < 6+3*h.Components {
		return nil, errors.New("jpegls: SOF55 component table truncated")
	}
	return h, nil
}

// writeLSE emits an optional preset-parameters segment when any value
// differs from the bit-depth-derived default.
func writeLSE(p *Params) []byte {
	length := 13
	buf := make([]byte, 0, 2+length)
	buf = writeMarker(buf, markerLSE)
	lb := make([]byte, 2)
	binary.BigEndian.PutUint16(lb, uint16(length))
	buf = append(buf, lb...)
	buf = append(buf, 1) // ID = 1: preset coding parameters
	put16 := func(v int) {
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		buf = append(buf, b...)
	}
	put16(p.MaxVal)
	put16(p.T1)
	put16(p.T2)
	put16(p.T3)
	put16(p.Reset)
	return buf
}

func readLSE(body []byte, p *Params) error {
	if len(body) < 11 || body[0] != 1 {
		return errors.New("jpegls: unsupported LSE segment")
	}
	p.MaxVal = int(binary.BigEndian.Uint16(body[1:3]))
	p.T1 = int(binary.BigEndian.Uint16(body[3:5]))
	p.T2 = int(binary.BigEndian.Uint16(body[5:7]))
	p.T3 = int(binary.BigEndian.Uint16(body[7:9]))
	p.Reset = int(binary.BigEndian.Uint16(body[9:11]))
	// MaxVal just changed; Range/Qbpp/Bpp/Limit were seeded from the
	// bit-depth default and must be re-derived from the overridden
	// value, or a non-default MAXVAL from a third-party encoder would
	// decode against stale limits.
	p.deriveRange()
	return nil
}

func writeSOS(components int, interleave Interleave, near int) []byte {
	length := 6 + 2*components
	buf := make([]byte, 0, 2+length)
	buf = writeMarker(buf, markerSOS)
	lb := make([]byte, 2)
	binary.BigEndian.PutUint16(lb, uint16(length))
	buf = append(buf, lb...)
	buf = append(buf, byte(components))
	for c := 0; c < components; c++ {
		buf = append(buf, byte(c+1), 0)
	}
	buf = append(buf, byte(near), byte(interleave), 0)
	return buf
}

func readSOS(body []byte) (near int, interleave Interleave, err error) {
	if len(body) < 4 {
		return 0, 0, errors.New("jpegls: SOS segment too short")
	}
	nc := int(body[0])
	if len(body) < 1+2*nc+3 {
		return 0, 0, errors.New("jpegls: SOS segment truncated")
	}
	near = int(body[1+2*nc])
	interleave = Interleave(body[1+2*nc+1])
	return near, interleave, nil
}
