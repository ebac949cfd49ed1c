package pixelbuf

import "testing"

func TestSampleRoundtrip8Bit(t *testing.T) {
	img := NewImage(4, 3, 3, 8, Interleaved)
	img.SetSampleAt(1, 2, 0, 200)
	img.SetSampleAt(1, 2, 1, 10)
	if got := img.SampleAt(1, 2, 0); got != 200 {
		t.Errorf("SampleAt = %d, want 200", got)
	}
	if got := img.SampleAt(1, 2, 1); got != 10 {
		t.Errorf("SampleAt = %d, want 10", got)
	}
	if err := img.Validate(true); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSampleRoundtrip16Bit(t *testing.T) {
	img := NewImage(2, 2, 1, 16, Planar)
	img.SetSampleAt(1, 1, 0, 4095)
	if got := img.SampleAt(1, 1, 0); got != 4095 {
		t.Errorf("SampleAt = %d, want 4095", got)
	}
}

func TestValidateRejectsWrongLength(t *testing.T) {
	img := &Image{Width: 4, Height: 4, Components: 1, Bits: 8, Pix: make([]byte, 3)}
	if err := img.Validate(false); err == nil {
		t.Fatal("Validate succeeded on wrong-sized Pix, want error")
	}
}

func TestValidateRejectsOutOfRange16Bit(t *testing.T) {
	img := NewImage(1, 1, 1, 12, Interleaved)
	img.Pix[0] = 0xFF
	img.Pix[1] = 0xFF // 0xFFFF > 4095
	if err := img.Validate(true); err == nil {
		t.Fatal("Validate succeeded on out-of-range 16-bit sample, want error")
	}
	if err := img.Validate(false); err != nil {
		t.Errorf("Validate(false) = %v, want nil (range check skipped)", err)
	}
}

func TestToPlanarToInterleavedRoundtrip(t *testing.T) {
	src := NewImage(3, 2, 3, 8, Interleaved)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			for c := 0; c < 3; c++ {
				src.SetSampleAt(x, y, c, uint16(x+y+c))
			}
		}
	}

	planar := src.ToPlanar()
	back := planar.ToInterleaved()

	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			for c := 0; c < 3; c++ {
				want := src.SampleAt(x, y, c)
				if got := planar.SampleAt(x, y, c); got != want {
					t.Errorf("planar SampleAt(%d,%d,%d) = %d, want %d", x, y, c, got, want)
				}
				if got := back.SampleAt(x, y, c); got != want {
					t.Errorf("roundtrip SampleAt(%d,%d,%d) = %d, want %d", x, y, c, got, want)
				}
			}
		}
	}
}
