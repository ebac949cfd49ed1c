package jpeg

import (
	"math/rand"
	"testing"

	"github.com/go-codecs/stillcodec/pixelbuf"
)

func grayImage(w, h int, fill func(x, y int) int) *pixelbuf.Image {
	img := pixelbuf.NewImage(w, h, 1, 8, pixelbuf.Interleaved)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetSampleAt(x, y, 0, uint16(fill(x, y)))
		}
	}
	return img
}

func rgbImage(w, h int, fill func(x, y, c int) int) *pixelbuf.Image {
	img := pixelbuf.NewImage(w, h, 3, 8, pixelbuf.Interleaved)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				img.SetSampleAt(x, y, c, uint16(fill(x, y, c)))
			}
		}
	}
	return img
}

// meanAbsDiff reports the mean per-sample absolute difference, the
// metric used to sanity-check lossy roundtrips rather than demanding
// byte-exact output.
func meanAbsDiff(a, b *pixelbuf.Image) float64 {
	sum := 0.0
	n := 0
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			for c := 0; c < a.Components; c++ {
				d := int(a.SampleAt(x, y, c)) - int(b.SampleAt(x, y, c))
				if d < 0 {
					d = -d
				}
				sum += float64(d)
				n++
			}
		}
	}
	return sum / float64(n)
}

func TestGrayscaleRoundtripQuality(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := grayImage(37, 23, func(x, y int) int { return rng.Intn(256) })
	data, err := Encode(img, Options{Quality: 90})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Width != img.Width || got.Height != img.Height {
		t.Fatalf("geometry mismatch: got %dx%d want %dx%d", got.Width, got.Height, img.Width, img.Height)
	}
	if d := meanAbsDiff(img, got); d > 15 {
		t.Fatalf("mean abs diff too high at quality 90: %f", d)
	}
}

func TestRGBRoundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	img := rgbImage(40, 32, func(x, y, c int) int { return rng.Intn(256) })
	data, err := Encode(img, Options{Quality: 85})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Components != 3 {
		t.Fatalf("expected 3 components, got %d", got.Components)
	}
	if d := meanAbsDiff(img, got); d > 20 {
		t.Fatalf("mean abs diff too high: %f", d)
	}
}

func TestFlatImageCompressesNearLossless(t *testing.T) {
	img := grayImage(32, 32, func(x, y int) int { return 100 })
	data, err := Encode(img, Options{Quality: 90})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d := meanAbsDiff(img, got); d > 2 {
		t.Fatalf("flat image should reconstruct almost exactly, got mean diff %f", d)
	}
}

func TestNonMultipleOf8Dimensions(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	img := grayImage(10, 5, func(x, y int) int { return rng.Intn(256) })
	data, err := Encode(img, Options{Quality: 80})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Width != 10 || got.Height != 5 {
		t.Fatalf("dimensions not preserved: got %dx%d", got.Width, got.Height)
	}
}

func TestRestartIntervals(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	img := grayImage(64, 64, func(x, y int) int { return rng.Intn(256) })
	data, err := Encode(img, Options{Quality: 85, RestartInterval: 4})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode with restart markers: %v", err)
	}
	if d := meanAbsDiff(img, got); d > 15 {
		t.Fatalf("mean abs diff too high with restarts: %f", d)
	}
}

func TestSinglePixelImage(t *testing.T) {
	img := grayImage(1, 1, func(x, y int) int { return 200 })
	data, err := Encode(img, Options{Quality: 90})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(data); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestQuantTableScaling(t *testing.T) {
	low := scaleQuantTable(stdLuminanceQuant, 10)
	high := scaleQuantTable(stdLuminanceQuant, 95)
	for i := range low {
		if high[i] > low[i] {
			t.Fatalf("expected higher quality to produce smaller-or-equal quant steps at %d: low=%d high=%d", i, low[i], high[i])
		}
	}
}

func TestHuffmanRoundtrip(t *testing.T) {
	enc, dec := buildHuffman(stdACLuminance)
	for sym, code := range enc {
		bits := make([]int, 0, code.Len)
		for i := int(code.Len) - 1; i >= 0; i-- {
			bits = append(bits, int((code.Code>>uint(i))&1))
		}
		idx := 0
		readBit := func() (int, error) {
			b := bits[idx]
			idx++
			return b, nil
		}
		got, err := decodeHuffSymbol(readBit, dec)
		if err != nil {
			t.Fatalf("decode symbol %#x: %v", sym, err)
		}
		if got != sym {
			t.Fatalf("symbol mismatch: want %#x got %#x", sym, got)
		}
	}
}
