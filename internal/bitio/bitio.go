// Package bitio provides bit-level readers and writers shared by the
// JPEG and JPEG-LS codecs. Both formats pack entropy-coded data as a
// stream of bits with a byte-stuffing rule applied at encode time so a
// marker code can never appear by accident inside compressed data; the
// two formats just disagree on what the rule is, so one register-based
// core is parameterized by a Stuffing mode rather than duplicated.
package bitio

import (
	"io"

	"github.com/pkg/errors"
)

// Stuffing selects the byte-stuffing discipline applied at the 0xFF
// boundary.
type Stuffing int

const (
	// StuffingNone applies no special handling of 0xFF bytes.
	StuffingNone Stuffing = iota
	// StuffingJPEG inserts/expects a 0x00 byte after every 0xFF data byte.
	StuffingJPEG
	// StuffingJPEGLS limits the byte following an 0xFF to 7 bits (the
	// MSB is forced low), per ISO/IEC 14495-1 Annex A.
	StuffingJPEGLS
)

// ErrUnexpectedEOF is returned when a read runs past the end of input.
var ErrUnexpectedEOF = errors.New("bitio: unexpected end of stream")

// ErrInvalidStuffing is returned when a stuffed byte does not carry
// the value the discipline requires (e.g. a JPEG stuff byte that is
// not 0x00).
var ErrInvalidStuffing = errors.New("bitio: invalid stuffed byte")

// Reader reads individual bits from a byte stream, destuffing as it
// goes according to the configured discipline.
type Reader struct {
	r        io.Reader
	stuffing Stuffing
	buf      byte
	cnt      uint8 // valid bits remaining in buf, MSB-first
	lastFF   bool
}

// NewReader creates a bit reader applying the given stuffing discipline.
func NewReader(r io.Reader, s Stuffing) *Reader {
	return &Reader{r: r, stuffing: s}
}

func (r *Reader) fill() error {
	var b [1]byte
	if r.stuffing == StuffingJPEG && r.lastFF {
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			return errors.Wrap(err, ErrUnexpectedEOF.Error())
		}
		if b[0] != 0x00 {
			return ErrInvalidStuffing
		}
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			return errors.Wrap(err, ErrUnexpectedEOF.Error())
		}
		r.cnt = 8
		r.lastFF = b[0] == 0xFF
		r.buf = b[0]
		return nil
	}

	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return errors.Wrap(err, ErrUnexpectedEOF.Error())
	}

	switch r.stuffing {
	case StuffingJPEGLS:
		if r.lastFF {
			r.cnt = 7
		} else {
			r.cnt = 8
		}
	default:
		r.cnt = 8
	}
	r.lastFF = b[0] == 0xFF
	r.buf = b[0]
	return nil
}

// ReadBit reads a single bit (0 or 1).
func (r *Reader) ReadBit() (int, error) {
	if r.cnt == 0 {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	r.cnt--
	return int((r.buf >> r.cnt) & 1), nil
}

// ReadBits reads n bits (0-32) and returns them as an unsigned value,
// most-significant bit first.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	var v uint32
	for i := uint(0); i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | uint32(bit)
	}
	return v, nil
}

// ReadRawByte reads one byte directly from the underlying stream,
// bypassing the stuffing discipline entirely. It is for literal marker
// bytes (e.g. a JPEG restart marker) that sit between entropy-coded
// segments: unlike data bytes, a marker's own 0xFF is never followed by
// a stuff byte, so running it through fill()'s destuffing logic would
// misread the marker. Callers must call AlignToByte first to discard
// any bits buffered from the segment that just ended.
func (r *Reader) ReadRawByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, errors.Wrap(err, ErrUnexpectedEOF.Error())
	}
	r.lastFF = false
	return b[0], nil
}

// AlignToByte discards any partially consumed byte and clears the
// pending-destuff state. Callers use this immediately before reading a
// literal marker (e.g. a JPEG restart marker) that sits outside the
// entropy-coded bitstream. In StuffingJPEG mode, when the byte just
// consumed was a data 0xFF, the stuffed 0x00 after it is still unread;
// AlignToByte reads and discards it so the next ReadRawByte returns the
// marker's first byte.
func (r *Reader) AlignToByte() {
	if r.stuffing == StuffingJPEG && r.lastFF {
		var b [1]byte
		_, _ = io.ReadFull(r.r, b[:])
	}
	r.cnt = 0
	r.lastFF = false
}

// Writer writes individual bits to a byte stream, stuffing as required
// by the configured discipline.
type Writer struct {
	w        io.Writer
	stuffing Stuffing
	buf      byte
	cnt      uint8
	lastFF   bool
}

// NewWriter creates a bit writer applying the given stuffing discipline.
func NewWriter(w io.Writer, s Stuffing) *Writer {
	return &Writer{w: w, stuffing: s}
}

func (w *Writer) maxBits() uint8 {
	if w.stuffing == StuffingJPEGLS && w.lastFF {
		return 7
	}
	return 8
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit int) error {
	max := w.maxBits()
	w.buf = (w.buf << 1) | byte(bit&1)
	w.cnt++
	if w.cnt == max {
		return w.flushByte()
	}
	return nil
}

// WriteBits writes the low n bits of v, most-significant bit first.
func (w *Writer) WriteBits(v uint32, n uint) error {
	for i := n; i > 0; i-- {
		if err := w.WriteBit(int((v >> (i - 1)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) flushByte() error {
	if _, err := w.w.Write([]byte{w.buf}); err != nil {
		return err
	}
	if w.stuffing == StuffingJPEG && w.buf == 0xFF {
		if _, err := w.w.Write([]byte{0x00}); err != nil {
			return err
		}
	}
	w.lastFF = w.buf == 0xFF
	w.buf = 0
	w.cnt = 0
	return nil
}

// Flush pads the current byte with zero bits and writes it out, if any
// bits are pending. JPEG conventionally pads with one bits; this writer
// does not.
func (w *Writer) Flush() error {
	if w.cnt == 0 {
		return nil
	}
	max := w.maxBits()
	w.buf <<= max - w.cnt
	w.cnt = max
	return w.flushByte()
}

// FlushRaw is like Flush but writes the padded byte without applying the
// stuffing discipline to it, and clears the writer's 0xFF state. Use it
// immediately before writing a literal marker (e.g. a JPEG restart
// marker). Bytes that WriteBit already completed have been written and
// stuffed before FlushRaw runs. The pad bits are zero, so the padded
// byte is never 0xFF and FlushRaw writes the same byte Flush would.
func (w *Writer) FlushRaw() error {
	if w.cnt == 0 {
		return nil
	}
	max := w.maxBits()
	w.buf <<= max - w.cnt
	w.cnt = max
	if _, err := w.w.Write([]byte{w.buf}); err != nil {
		return err
	}
	w.lastFF = false
	w.buf = 0
	w.cnt = 0
	return nil
}
