// Package pixelbuf defines the raw pixel buffer shared by stillcodec's
// encoders and decoders: a fixed-layout byte slice plus the geometry
// needed to address it, independent of any particular bitstream format.
package pixelbuf

import "github.com/pkg/errors"

// Layout describes how component samples are arranged in Pix.
type Layout int

const (
	// Interleaved stores samples as (c0,c1,c2,...) per pixel, left to
	// right, top to bottom.
	Interleaved Layout = iota
	// Planar stores one component's full plane at a time.
	Planar
)

// Image is a decoded or to-be-encoded raster image.
type Image struct {
	Width      int
	Height     int
	Components int
	Bits       int // bit depth per sample: 8 or 16
	Layout     Layout
	Pix        []byte
}

// bytesPerSample returns how many bytes one sample occupies.
func bytesPerSample(bits int) int {
	return (bits + 7) / 8
}

// NewImage allocates an Image with a freshly zeroed Pix buffer sized
// for the given geometry.
func NewImage(width, height, components, bits int, layout Layout) *Image {
	n := width * height * components * bytesPerSample(bits)
	return &Image{
		Width:      width,
		Height:     height,
		Components: components,
		Bits:       bits,
		Layout:     layout,
		Pix:        make([]byte, n),
	}
}

// Validate checks that Pix is sized correctly for the declared
// geometry and, when checkRange is true, that every 16-bit sample fits
// within Bits. 8-bit range checking is unconditional since every
// possible byte value is already in range for Bits in [1,8]; the O(N)
// 16-bit scan only runs when a caller asks for it, typically once from
// an encoder before it trusts the input.
func (img *Image) Validate(checkRange bool) error {
	if img.Width <= 0 || img.Height <= 0 || img.Components <= 0 {
		return errors.New("pixelbuf: invalid dimensions")
	}
	if img.Bits != 8 && img.Bits != 16 {
		return errors.Errorf("pixelbuf: unsupported bit depth %d", img.Bits)
	}
	want := img.Width * img.Height * img.Components * bytesPerSample(img.Bits)
	if len(img.Pix) != want {
		return errors.Errorf("pixelbuf: Pix length %d, want %d", len(img.Pix), want)
	}
	if checkRange && img.Bits == 16 {
		maxVal := uint16(1)<<uint(img.Bits) - 1
		n := img.Width * img.Height * img.Components
		for i := 0; i < n; i++ {
			if v := uint16(img.Pix[2*i]) | uint16(img.Pix[2*i+1])<<8; v > maxVal {
				return errors.Errorf("pixelbuf: sample %d = %d exceeds %d-bit range", i, v, img.Bits)
			}
		}
	}
	return nil
}

// index returns the byte offset of sample (x, y, c) in the current layout.
func (img *Image) index(x, y, c int) int {
	bps := bytesPerSample(img.Bits)
	if img.Layout == Planar {
		plane := img.Width * img.Height
		return (c*plane + y*img.Width + x) * bps
	}
	return ((y*img.Width+x)*img.Components + c) * bps
}

// SampleAt returns the value of component c at pixel (x, y).
func (img *Image) SampleAt(x, y, c int) uint16 {
	off := img.index(x, y, c)
	if img.Bits == 8 {
		return uint16(img.Pix[off])
	}
	return uint16(img.Pix[off]) | uint16(img.Pix[off+1])<<8
}

// SetSampleAt sets the value of component c at pixel (x, y).
func (img *Image) SetSampleAt(x, y, c int, v uint16) {
	off := img.index(x, y, c)
	if img.Bits == 8 {
		img.Pix[off] = byte(v)
		return
	}
	img.Pix[off] = byte(v)
	img.Pix[off+1] = byte(v >> 8)
}

// ToPlanar returns a copy of img with Layout == Planar.
func (img *Image) ToPlanar() *Image {
	if img.Layout == Planar {
		out := *img
		out.Pix = append([]byte(nil), img.Pix...)
		return &out
	}
	out := NewImage(img.Width, img.Height, img.Components, img.Bits, Planar)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for c := 0; c < img.Components; c++ {
				out.SetSampleAt(x, y, c, img.SampleAt(x, y, c))
			}
		}
	}
	return out
}

// ToInterleaved returns a copy of img with Layout == Interleaved.
func (img *Image) ToInterleaved() *Image {
	if img.Layout == Interleaved {
		out := *img
		out.Pix = append([]byte(nil), img.Pix...)
		return &out
	}
	out := NewImage(img.Width, img.Height, img.Components, img.Bits, Interleaved)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for c := 0; c < img.Components; c++ {
				out.SetSampleAt(x, y, c, img.SampleAt(x, y, c))
			}
		}
	}
	return out
}
