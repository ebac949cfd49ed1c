package jpegls

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/go-codecs/stillcodec/pixelbuf"
)

func grayImage(w, h, bits int, fill func(x, y int) int) *pixelbuf.Image {
	img := pixelbuf.NewImage(w, h, 1, bits, pixelbuf.Interleaved)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetSampleAt(x, y, 0, uint16(fill(x, y)))
		}
	}
	return img
}

func roundtrip(t *testing.T, img *pixelbuf.Image, opts Options) *pixelbuf.Image {
	t.Helper()
	encoded, err := Encode(img, opts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return decoded
}

func requireLosslessEqual(t *testing.T, want, got *pixelbuf.Image) {
	t.Helper()
	if want.Width != got.Width || want.Height != got.Height || want.Components != got.Components {
		t.Fatalf("geometry mismatch: want %dx%dx%d got %dx%dx%d",
			want.Width, want.Height, want.Components, got.Width, got.Height, got.Components)
	}
	if !bytes.Equal(want.Pix, got.Pix) {
		t.Fatalf("pixel mismatch after lossless roundtrip")
	}
}

func TestLosslessRoundtripCheckerPattern(t *testing.T) {
	img := grayImage(16, 16, 8, func(x, y int) int {
		if (x+y)%2 == 0 {
			return 10
		}
		return 240
	})
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripRandom8Bit(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := grayImage(33, 29, 8, func(x, y int) int { return rng.Intn(256) })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtrip16Bit(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	img := grayImage(20, 17, 16, func(x, y int) int { return rng.Intn(65536) })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripFlatImage(t *testing.T) {
	img := grayImage(40, 40, 8, func(x, y int) int { return 128 })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripAllZero(t *testing.T) {
	img := grayImage(12, 12, 8, func(x, y int) int { return 0 })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripSaturated(t *testing.T) {
	img := grayImage(12, 12, 8, func(x, y int) int { return 255 })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripSingleRow(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	img := grayImage(50, 1, 8, func(x, y int) int { return rng.Intn(256) })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripSingleColumn(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	img := grayImage(1, 50, 8, func(x, y int) int { return rng.Intn(256) })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripSinglePixel(t *testing.T) {
	img := grayImage(1, 1, 8, func(x, y int) int { return 42 })
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripRGBPixelInterleaved(t *testing.T) {
	w, h := 18, 14
	img := pixelbuf.NewImage(w, h, 3, 8, pixelbuf.Interleaved)
	rng := rand.New(rand.NewSource(5))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				img.SetSampleAt(x, y, c, uint16(rng.Intn(256)))
			}
		}
	}
	got := roundtrip(t, img, Options{Interleave: InterleavePixel})
	requireLosslessEqual(t, img, got)
}

func TestLosslessRoundtripRGBLineInterleaved(t *testing.T) {
	w, h := 18, 14
	img := pixelbuf.NewImage(w, h, 3, 8, pixelbuf.Interleaved)
	rng := rand.New(rand.NewSource(6))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				img.SetSampleAt(x, y, c, uint16(rng.Intn(256)))
			}
		}
	}
	got := roundtrip(t, img, Options{Interleave: InterleaveLine})
	requireLosslessEqual(t, img, got)
}

func TestNearLosslessStaysWithinTolerance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := grayImage(24, 24, 8, func(x, y int) int { return rng.Intn(256) })
	const near = 3
	got := roundtrip(t, img, Options{Interleave: InterleaveLine, Near: near})
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			want := int(img.SampleAt(x, y, 0))
			have := int(got.SampleAt(x, y, 0))
			diff := want - have
			if diff < 0 {
				diff = -diff
			}
			if diff > near {
				t.Fatalf("pixel (%d,%d): |%d-%d|=%d exceeds NEAR=%d", x, y, want, have, diff, near)
			}
		}
	}
}
