package mct

import (
	"math"
	"testing"
)

func TestForwardRCT_InverseRCT_Roundtrip(t *testing.T) {
	r := []int32{100, 150, 200, 50}
	g := []int32{110, 140, 190, 60}
	b := []int32{120, 130, 180, 70}

	// Make copies
	origR := make([]int32, len(r))
	origG := make([]int32, len(g))
	origB := make([]int32, len(b))
	copy(origR, r)
	copy(origG, g)
	copy(origB, b)

	// Forward transform
	ForwardRCT(r, g, b)

	// Inverse transform
	InverseRCT(r, g, b)

	// Check roundtrip
	for i := range origR {
		if r[i] != origR[i] {
			t.Errorf("R[%d]: got %d, want %d", i, r[i], origR[i])
		}
		if g[i] != origG[i] {
			t.Errorf("G[%d]: got %d, want %d", i, g[i], origG[i])
		}
		if b[i] != origB[i] {
			t.Errorf("B[%d]: got %d, want %d", i, b[i], origB[i])
		}
	}
}

func TestForwardICT_InverseICT_Roundtrip(t *testing.T) {
	r := []float64{100.0, 150.0, 200.0, 50.0}
	g := []float64{110.0, 140.0, 190.0, 60.0}
	b := []float64{120.0, 130.0, 180.0, 70.0}

	origR := make([]float64, len(r))
	origG := make([]float64, len(g))
	origB := make([]float64, len(b))
	copy(origR, r)
	copy(origG, g)
	copy(origB, b)

	ForwardICT(r, g, b)
	InverseICT(r, g, b)

	// ICT uses floating-point coefficients, so allow for some numerical error
	const tolerance = 1e-2
	for i := range origR {
		if math.Abs(r[i]-origR[i]) > tolerance {
			t.Errorf("R[%d]: got %v, want %v", i, r[i], origR[i])
		}
		if math.Abs(g[i]-origG[i]) > tolerance {
			t.Errorf("G[%d]: got %v, want %v", i, g[i], origG[i])
		}
		if math.Abs(b[i]-origB[i]) > tolerance {
			t.Errorf("B[%d]: got %v, want %v", i, b[i], origB[i])
		}
	}
}

func TestDCLevelShiftForward_Inverse_Roundtrip(t *testing.T) {
	data := []int32{0, 64, 128, 192, 255}
	original := make([]int32, len(data))
	copy(original, data)

	DCLevelShiftForward(data, 8)
	DCLevelShiftInverse(data, 8)

	for i := range original {
		if data[i] != original[i] {
			t.Errorf("position %d: got %d, want %d", i, data[i], original[i])
		}
	}
}

func TestConvertFloat64ToInt32(t *testing.T) {
	src := []float64{0.4, 0.5, 0.6, -0.4, -0.5, -0.6}
	dst := make([]int32, len(src))

	ConvertFloat64ToInt32(src, dst)

	expected := []int32{0, 1, 1, 0, -1, -1}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("position %d: got %d, want %d", i, dst[i], expected[i])
		}
	}
}

func TestConvertInt32ToFloat64(t *testing.T) {
	src := []int32{0, 1, -1, 100, -100}
	dst := make([]float64, len(src))

	ConvertInt32ToFloat64(src, dst)

	for i := range src {
		if dst[i] != float64(src[i]) {
			t.Errorf("position %d: got %v, want %v", i, dst[i], float64(src[i]))
		}
	}
}

func BenchmarkForwardRCT(b *testing.B) {
	size := 1024
	r := make([]int32, size)
	g := make([]int32, size)
	bl := make([]int32, size)
	for i := 0; i < size; i++ {
		r[i] = int32(i % 256)
		g[i] = int32((i + 85) % 256)
		bl[i] = int32((i + 170) % 256)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ForwardRCT(r, g, bl)
	}
}

func BenchmarkForwardICT(b *testing.B) {
	size := 1024
	r := make([]float64, size)
	g := make([]float64, size)
	bl := make([]float64, size)
	for i := 0; i < size; i++ {
		r[i] = float64(i % 256)
		g[i] = float64((i + 85) % 256)
		bl[i] = float64((i + 170) % 256)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ForwardICT(r, g, bl)
	}
}

func TestForwardRCT_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		r    []int32
		g    []int32
		b    []int32
	}{
		{
			name: "zero values",
			r:    []int32{0, 0, 0},
			g:    []int32{0, 0, 0},
			b:    []int32{0, 0, 0},
		},
		{
			name: "max 8-bit values",
			r:    []int32{255, 255, 255},
			g:    []int32{255, 255, 255},
			b:    []int32{255, 255, 255},
		},
		{
			name: "negative values",
			r:    []int32{-128, -64, 0},
			g:    []int32{-128, -64, 0},
			b:    []int32{-128, -64, 0},
		},
		{
			name: "mixed positive negative",
			r:    []int32{-100, 0, 100},
			g:    []int32{50, -50, 150},
			b:    []int32{-50, 100, -100},
		},
		{
			name: "single element",
			r:    []int32{128},
			g:    []int32{128},
			b:    []int32{128},
		},
		{
			name: "empty slices",
			r:    []int32{},
			g:    []int32{},
			b:    []int32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origR := make([]int32, len(tt.r))
			origG := make([]int32, len(tt.g))
			origB := make([]int32, len(tt.b))
			copy(origR, tt.r)
			copy(origG, tt.g)
			copy(origB, tt.b)

			ForwardRCT(tt.r, tt.g, tt.b)
			InverseRCT(tt.r, tt.g, tt.b)

			for i := range origR {
				if tt.r[i] != origR[i] || tt.g[i] != origG[i] || tt.b[i] != origB[i] {
					t.Errorf("roundtrip failed at %d: got (%d,%d,%d), want (%d,%d,%d)",
						i, tt.r[i], tt.g[i], tt.b[i], origR[i], origG[i], origB[i])
				}
			}
		})
	}
}

func TestForwardICT_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		r    []float64
		g    []float64
		b    []float64
	}{
		{
			name: "zero values",
			r:    []float64{0, 0, 0},
			g:    []float64{0, 0, 0},
			b:    []float64{0, 0, 0},
		},
		{
			name: "max 8-bit values",
			r:    []float64{255, 255, 255},
			g:    []float64{255, 255, 255},
			b:    []float64{255, 255, 255},
		},
		{
			name: "negative values",
			r:    []float64{-128, -64, 0},
			g:    []float64{-128, -64, 0},
			b:    []float64{-128, -64, 0},
		},
		{
			name: "single element",
			r:    []float64{128.5},
			g:    []float64{128.5},
			b:    []float64{128.5},
		},
		{
			name: "empty slices",
			r:    []float64{},
			g:    []float64{},
			b:    []float64{},
		},
		{
			name: "very small values",
			r:    []float64{0.001, 0.002, 0.003},
			g:    []float64{0.001, 0.002, 0.003},
			b:    []float64{0.001, 0.002, 0.003},
		},
		{
			name: "very large values",
			r:    []float64{1e6, 1e7, 1e8},
			g:    []float64{1e6, 1e7, 1e8},
			b:    []float64{1e6, 1e7, 1e8},
		},
	}

	const tolerance = 1e-2
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origR := make([]float64, len(tt.r))
			origG := make([]float64, len(tt.g))
			origB := make([]float64, len(tt.b))
			copy(origR, tt.r)
			copy(origG, tt.g)
			copy(origB, tt.b)

			ForwardICT(tt.r, tt.g, tt.b)
			InverseICT(tt.r, tt.g, tt.b)

			for i := range origR {
				// Use relative tolerance for large values
				relTol := tolerance
				if math.Abs(origR[i]) > 1000 {
					relTol = tolerance * math.Abs(origR[i]) / 100
				}
				if math.Abs(tt.r[i]-origR[i]) > relTol ||
					math.Abs(tt.g[i]-origG[i]) > relTol ||
					math.Abs(tt.b[i]-origB[i]) > relTol {
					t.Errorf("roundtrip failed at %d: got (%v,%v,%v), want (%v,%v,%v)",
						i, tt.r[i], tt.g[i], tt.b[i], origR[i], origG[i], origB[i])
				}
			}
		})
	}
}

func TestDCLevelShift_DifferentPrecisions(t *testing.T) {
	precisions := []int{1, 4, 8, 10, 12, 16}

	for _, prec := range precisions {
		t.Run("int32_precision_"+string(rune('0'+prec%10)), func(t *testing.T) {
			maxVal := int32((1 << prec) - 1)
			data := []int32{0, maxVal / 2, maxVal}
			original := make([]int32, len(data))
			copy(original, data)

			DCLevelShiftForward(data, prec)
			DCLevelShiftInverse(data, prec)

			for i := range original {
				if data[i] != original[i] {
					t.Errorf("precision %d, pos %d: got %d, want %d", prec, i, data[i], original[i])
				}
			}
		})
	}
}

func TestConvertFloat64ToInt32_EdgeCases(t *testing.T) {
	tests := []struct {
		src      []float64
		expected []int32
	}{
		{[]float64{}, []int32{}},
		{[]float64{0.0}, []int32{0}},
		{[]float64{0.49999}, []int32{0}},
		{[]float64{0.50001}, []int32{1}},
		{[]float64{-0.49999}, []int32{0}},
		{[]float64{-0.50001}, []int32{-1}},
		{[]float64{100.5, -100.5}, []int32{101, -101}},
	}

	for _, tt := range tests {
		dst := make([]int32, len(tt.src))
		ConvertFloat64ToInt32(tt.src, dst)
		for i := range tt.expected {
			if dst[i] != tt.expected[i] {
				t.Errorf("ConvertFloat64ToInt32 pos %d: got %d, want %d", i, dst[i], tt.expected[i])
			}
		}
	}
}

func TestConvertInt32ToFloat64_EdgeCases(t *testing.T) {
	tests := []struct {
		src      []int32
		expected []float64
	}{
		{[]int32{}, []float64{}},
		{[]int32{0}, []float64{0.0}},
		{[]int32{math.MaxInt32}, []float64{float64(math.MaxInt32)}},
		{[]int32{math.MinInt32}, []float64{float64(math.MinInt32)}},
	}

	for _, tt := range tests {
		dst := make([]float64, len(tt.src))
		ConvertInt32ToFloat64(tt.src, dst)
		for i := range tt.expected {
			if dst[i] != tt.expected[i] {
				t.Errorf("ConvertInt32ToFloat64 pos %d: got %v, want %v", i, dst[i], tt.expected[i])
			}
		}
	}
}
