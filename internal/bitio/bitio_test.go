package bitio

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundtrip(t *testing.T) {
	cases := []struct {
		name     string
		stuffing Stuffing
		bits     []struct {
			v uint32
			n uint
		}
	}{
		{
			name:     "none",
			stuffing: StuffingNone,
			bits: []struct {
				v uint32
				n uint
			}{{0x1, 1}, {0x2A, 6}, {0xFFFF, 16}},
		},
		{
			name:     "jpeg stuffing around 0xFF byte",
			stuffing: StuffingJPEG,
			bits: []struct {
				v uint32
				n uint
			}{{0xFF, 8}, {0x00, 8}, {0xAB, 8}},
		},
		{
			name:     "jpeg-ls 7-bit-after-0xFF",
			stuffing: StuffingJPEGLS,
			bits: []struct {
				v uint32
				n uint
			}{{0xFF, 8}, {0x7F, 7}, {0x55, 8}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, tc.stuffing)
			for _, b := range tc.bits {
				if err := w.WriteBits(b.v, b.n); err != nil {
					t.Fatalf("WriteBits: %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			r := NewReader(bytes.NewReader(buf.Bytes()), tc.stuffing)
			for _, b := range tc.bits {
				got, err := r.ReadBits(b.n)
				if err != nil {
					t.Fatalf("ReadBits: %v", err)
				}
				want := b.v & ((1 << b.n) - 1)
				if got != want {
					t.Errorf("ReadBits(%d) = %#x, want %#x", b.n, got, want)
				}
			}
		})
	}
}

func TestReaderRejectsBadJPEGStuffing(t *testing.T) {
	data := []byte{0xFF, 0x01}
	r := NewReader(bytes.NewReader(data), StuffingJPEG)
	if _, err := r.ReadBits(16); err == nil {
		t.Fatal("ReadBits succeeded on invalid stuff byte, want error")
	}
}

func TestAlignToByte(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, StuffingNone)
	_ = w.WriteBits(0x5, 3)
	_ = w.Flush()

	r := NewReader(bytes.NewReader(buf.Bytes()), StuffingNone)
	_, _ = r.ReadBits(3)
	r.AlignToByte()
	if r.cnt != 0 {
		t.Errorf("cnt after AlignToByte = %d, want 0", r.cnt)
	}
}

func TestAlignToByteClearsLastFF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, StuffingJPEG)
	_ = w.WriteBits(0xFF, 8)
	_ = w.Flush()
	buf.Write([]byte{0xD0}) // stand in for a literal marker byte

	r := NewReader(bytes.NewReader(buf.Bytes()), StuffingJPEG)
	_, _ = r.ReadBits(8)
	r.AlignToByte()
	if r.lastFF {
		t.Error("lastFF still set after AlignToByte")
	}
	b, err := r.ReadRawByte()
	if err != nil {
		t.Fatalf("ReadRawByte: %v", err)
	}
	if b != 0xD0 {
		t.Errorf("ReadRawByte = %#x, want 0xd0", b)
	}
}

func TestFlushRawSkipsStuffing(t *testing.T) {
	var withFlush bytes.Buffer
	w1 := NewWriter(&withFlush, StuffingJPEG)
	_ = w1.WriteBits(0xFF, 8)
	_ = w1.Flush()
	if got := withFlush.Bytes(); len(got) != 2 || got[0] != 0xFF || got[1] != 0x00 {
		t.Fatalf("Flush wrote %v, want [0xff 0x00] (stuffed)", got)
	}

	var withFlushRaw bytes.Buffer
	w2 := NewWriter(&withFlushRaw, StuffingJPEG)
	_ = w2.WriteBits(0xFF, 8)
	_ = w2.FlushRaw()
	if got := withFlushRaw.Bytes(); len(got) != 1 || got[0] != 0xFF {
		t.Fatalf("FlushRaw wrote %v, want [0xff] (unstuffed)", got)
	}
}
