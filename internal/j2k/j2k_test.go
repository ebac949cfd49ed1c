package j2k

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func makeGrayRamp(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	return img
}

func makeRGBARamp(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestEncodeDecodeLosslessGray(t *testing.T) {
	src := makeGrayRamp(64, 48)

	opts := DefaultOptions()
	opts.Lossless = true
	opts.NumResolutions = 3

	var buf bytes.Buffer
	if err := Encode(&buf, src, opts); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	gray, ok := got.(*image.Gray)
	if !ok {
		t.Fatalf("decoded image type = %T, want *image.Gray", got)
	}
	if gray.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", gray.Bounds(), src.Bounds())
	}
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			want := src.GrayAt(x, y).Y
			gotY := gray.GrayAt(x, y).Y
			if want != gotY {
				t.Errorf("pixel (%d,%d) = %d, want %d (lossless roundtrip must be exact)", x, y, gotY, want)
			}
		}
	}
}

func TestEncodeDecodeLosslessRGB(t *testing.T) {
	src := makeRGBARamp(32, 32)

	opts := DefaultOptions()
	opts.Lossless = true
	opts.NumResolutions = 2

	var buf bytes.Buffer
	if err := Encode(&buf, src, opts); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	rgba, ok := got.(*image.RGBA)
	if !ok {
		t.Fatalf("decoded image type = %T, want *image.RGBA", got)
	}
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			want := src.RGBAAt(x, y)
			gotC := rgba.RGBAAt(x, y)
			if want.R != gotC.R || want.G != gotC.G || want.B != gotC.B {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, gotC, want)
			}
		}
	}
}

func TestEncodeDecodeLossyApproximatesSource(t *testing.T) {
	src := makeGrayRamp(64, 64)

	opts := DefaultOptions()
	opts.Lossless = false
	opts.Quality = 90
	opts.NumResolutions = 3

	var buf bytes.Buffer
	if err := Encode(&buf, src, opts); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	gray, ok := got.(*image.Gray)
	if !ok {
		t.Fatalf("decoded image type = %T, want *image.Gray", got)
	}

	var maxDiff int
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			diff := int(src.GrayAt(x, y).Y) - int(gray.GrayAt(x, y).Y)
			if diff < 0 {
				diff = -diff
			}
			if diff > maxDiff {
				maxDiff = diff
			}
		}
	}
	if maxDiff > 40 {
		t.Errorf("lossy roundtrip max pixel difference = %d, want <= 40 at quality 90", maxDiff)
	}
}

func TestDecodeMetadata(t *testing.T) {
	src := makeGrayRamp(16, 16)
	opts := DefaultOptions()
	opts.Lossless = true
	opts.NumResolutions = 2

	var buf bytes.Buffer
	if err := Encode(&buf, src, opts); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	m, err := DecodeMetadata(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if m.Width != 16 || m.Height != 16 {
		t.Errorf("dimensions = %dx%d, want 16x16", m.Width, m.Height)
	}
	if m.NumComponents != 1 {
		t.Errorf("NumComponents = %d, want 1", m.NumComponents)
	}
	if !m.Lossless {
		t.Errorf("Lossless = false, want true")
	}
}

func TestDecodeRejectsMissingSOC(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}))
	if err == nil {
		t.Fatal("Decode of non-codestream data succeeded, want error")
	}
}

func TestProgressionOrderString(t *testing.T) {
	cases := map[ProgressionOrder]string{
		LRCP: "LRCP",
		RLCP: "RLCP",
		RPCL: "RPCL",
		PCRL: "PCRL",
		CPRL: "CPRL",
	}
	for order, want := range cases {
		if got := order.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", order, got, want)
		}
	}
}
