package jpeg

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	markerSOI  = 0xFFD8
	markerEOI  = 0xFFD9
	markerSOF0 = 0xFFC0
	markerSOF2 = 0xFFC2
	markerDHT  = 0xFFC4
	markerDQT  = 0xFFDB
	markerDRI  = 0xFFDD
	markerSOS  = 0xFFDA
	markerAPP0 = 0xFFE0
)

func appendMarker(buf []byte, code uint16) []byte {
	return append(buf, byte(code>>8), byte(code))
}

func appendSegment(buf []byte, code uint16, payload []byte) []byte {
	buf = appendMarker(buf, code)
	var lb [2]byte
	binary.BigEndian.PutUint16(lb[:], uint16(len(payload)+2))
	buf = append(buf, lb[:]...)
	return append(buf, payload...)
}

// writeAPP0 emits a minimal JFIF APP0 segment so the stream is
// recognizable by generic JPEG readers even though only this package
// consumes it back.
func writeAPP0() []byte {
	payload := []byte{
		'J', 'F', 'I', 'F', 0,
		1, 1, // version 1.1
		0,          // aspect ratio units: none
		0, 1, 0, 1, // X density, Y density
		0, 0, // thumbnail dimensions
	}
	return appendSegment(nil, markerAPP0, payload)
}

// writeDQT emits table (natural row-major order) reordered into the
// zigzag order the DQT wire format uses.
func writeDQT(id byte, table [64]int) []byte {
	payload := make([]byte, 0, 65)
	payload = append(payload, id) // precision 0 (8-bit) in high nibble
	for pos := 0; pos < 64; pos++ {
		payload = append(payload, byte(table[zigzag[pos]]))
	}
	return appendSegment(nil, markerDQT, payload)
}

// readDQT parses one or more DQT tables, storing each back in natural
// row-major order to match tables.go's Annex K tables.
func readDQT(body []byte, tables map[byte][64]int) error {
	for len(body) > 0 {
		id := body[0]
		precision := id >> 4
		id &= 0x0F
		body = body[1:]
		if precision != 0 {
			return errors.New("jpeg: 16-bit quantization tables unsupported")
		}
		if len(body) < 64 {
			return errors.New("jpeg: truncated DQT")
		}
		var t [64]int
		for pos := 0; pos < 64; pos++ {
			t[zigzag[pos]] = int(body[pos])
		}
		tables[id] = t
		body = body[64:]
	}
	return nil
}

type frameComponent struct {
	ID, HSamp, VSamp, QuantID byte
}

func writeSOF0(width, height int, comps []frameComponent) []byte {
	payload := make([]byte, 0, 6+3*len(comps))
	payload = append(payload, 8) // 8-bit precision
	payload = append(payload, byte(height>>8), byte(height))
	payload = append(payload, byte(width>>8), byte(width))
	payload = append(payload, byte(len(comps)))
	for _, c := range comps {
		payload = append(payload, c.ID, c.HSamp<<4|c.VSamp, c.QuantID)
	}
	return appendSegment(nil, markerSOF0, payload)
}

func readSOF0(body []byte) (width, height int, comps []frameComponent, err error) {
	if len(body) < 6 {
		return 0, 0, nil, errors.New("jpeg: truncated SOF0")
	}
	height = int(binary.BigEndian.Uint16(body[1:3]))
	width = int(binary.BigEndian.Uint16(body[3:5]))
	nc := int(body[5])
	if len(body) < 6+3*nc {
		return 0, 0, nil, errors.New("jpeg: truncated SOF0 component table")
	}
	comps = make([]frameComponent, nc)
	for i := 0; i < nc; i++ {
		b := body[6+3*i:]
		comps[i] = frameComponent{ID: b[0], HSamp: b[1] >> 4, VSamp: b[1] & 0x0F, QuantID: b[2]}
	}
	return width, height, comps, nil
}

func writeDHT(class, id byte, spec huffSpec) []byte {
	payload := make([]byte, 0, 17+len(spec.values))
	payload = append(payload, class<<4|id)
	for _, n := range spec.counts {
		payload = append(payload, byte(n))
	}
	payload = append(payload, spec.values...)
	return appendSegment(nil, markerDHT, payload)
}

func readDHT(body []byte, decTables map[byte]huffDecodeTable) error {
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
		decTables[class<<4|id] = dec
		body = body[17+total:]
	}
	return nil
}

func writeDRI(interval int) []byte {
	payload := []byte{byte(interval >> 8), byte(interval)}
	return appendSegment(nil, markerDRI, payload)
}

func readDRI(body []byte) (int, error) {
	if len(body) < 2 {
		return 0, errors.New("jpeg: truncated DRI")
	}
	return int(binary.BigEndian.Uint16(body)), nil
}

type scanComponent struct {
	ID, DCTable, ACTable byte
}

func writeSOS(comps []scanComponent) []byte {
	payload := make([]byte, 0, 4+2*len(comps))
	payload = append(payload, byte(len(comps)))
	for _, c := range comps {
		payload = append(payload, c.ID, c.DCTable<<4|c.ACTable)
	}
	payload = append(payload, 0, 63, 0) // spectral selection / approximation: full baseline scan
	return appendSegment(nil, markerSOS, payload)
}

func readSOS(body []byte) ([]scanComponent, error) {
	if len(body) < 1 {
		return nil, errors.New("jpeg: truncated SOS")
	}
	nc := int(body[0])
	if len(body) < 1+2*nc+3 {
		return nil, errors.New("jpeg: truncated SOS component table")
	}
	comps := make([]scanComponent, nc)
	for i := 0; i < nc; i++ {
		b := body[1+2*i:]
		comps[i] = scanComponent{ID: b[0], DCTable: b[1] >> 4, ACTable: b[1] & 0x0F}
	}
	return comps, nil
}
