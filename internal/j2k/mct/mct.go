// Package mct converts between a code-stream's coded component planes
// and the RGB (or arbitrary) planes a caller hands in for encoding or
// expects back from decoding.
//
// Two component transforms are supported: the irreversible color
// transform (ICT), a lossy RGB/YCbCr matrix used with the 9/7 wavelet,
// and the reversible color transform (RCT), an integer lifting form of
// the same idea used with the 5/3 wavelet so decoding is exact. Both
// matrices and the DC level shift that brackets them are fixed by
// Annex G of the standard; this package does not generalize to other
// matrices since nothing in this codec needs more than RGB/YCbCr.
package mct

// ForwardICT converts RGB planes to YCbCr in place (Annex G.2),
// overwriting r, g, b with Y, Cb, Cr respectively. Used ahead of the
// irreversible (9/7) wavelet path.
func ForwardICT(r, g, b []float64) {
	for i := range r {
		y := 0.299*r[i] + 0.587*g[i] + 0.114*b[i]
		cb := -0.16875*r[i] - 0.33126*g[i] + 0.5*b[i]
		cr := 0.5*r[i] - 0.41869*g[i] - 0.08131*b[i]

		r[i] = y
		g[i] = cb
		b[i] = cr
	}
}

// ForwardRCT converts RGB planes to an integer YUV-like triple in
// place (Annex G.1), exactly invertible with InverseRCT. Used ahead of
// the reversible (5/3) wavelet path.
func ForwardRCT(r, g, b []int32) {
	for i := range r {
		y := (r[i] + 2*g[i] + b[i]) >> 2
		u := b[i] - g[i]
		v := r[i] - g[i]

		r[i] = y
		g[i] = u
		b[i] = v
	}
}

// InverseICT reverses ForwardICT, overwriting y, cb, cr with R, G, B.
func InverseICT(y, cb, cr []float64) {
	for i := range y {
		r := y[i] + 1.402*cr[i]
		g := y[i] - 0.34413*cb[i] - 0.71414*cr[i]
		b := y[i] + 1.772*cb[i]

		y[i] = r
		cb[i] = g
		cr[i] = b
	}
}

// InverseRCT reverses ForwardRCT exactly.
func InverseRCT(y, u, v []int32) {
	for i := range y {
		g := y[i] - ((u[i] + v[i]) >> 2)
		r := v[i] + g
		b := u[i] + g

		y[i] = r
		u[i] = g
		v[i] = b
	}
}

// DCLevelShiftForward subtracts the midpoint of an unsigned sample's
// range so downstream wavelet and entropy coding see a signed,
// zero-centered value, per Annex G.1/G.2's DC level shift step.
func DCLevelShiftForward(data []int32, precision int) {
	shift := int32(1) << (precision - 1)
	for i := range data {
		data[i] -= shift
	}
}

// DCLevelShiftInverse reverses DCLevelShiftForward after decoding.
func DCLevelShiftInverse(data []int32, precision int) {
	shift := int32(1) << (precision - 1)
	for i := range data {
		data[i] += shift
	}
}

// ConvertFloat64ToInt32 rounds src to the nearest integer (ties away
// from zero) into dst, bridging the irreversible path's floating-point
// samples back to the integer planes the rest of the pipeline shares.
func ConvertFloat64ToInt32(src []float64, dst []int32) {
	for i, v := range src {
		if v >= 0 {
			dst[i] = int32(v + 0.5)
		} else {
			dst[i] = int32(v - 0.5)
		}
	}
}

// ConvertInt32ToFloat64 widens src into dst without rounding.
func ConvertInt32ToFloat64(src []int32, dst []float64) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}
