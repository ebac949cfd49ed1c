// Package j2k provides a pure Go implementation of the JPEG 2000 Part 1
// (ISO/IEC 15444-1) codestream: DC level shift, the reversible and
// irreversible component transforms, the 5/3 and 9/7 wavelet filters,
// EBCOT Tier-1 coding, and SOC/SIZ/COD/QCD/SOT/SOD/EOC marker framing.
//
// Only the raw codestream format is produced or consumed; wrapping it
// in a JP2 box container is out of scope (see stillcodec's handling of
// UnsupportedFeature at the package boundary).
//
// Basic usage for decoding:
//
//	img, err := j2k.Decode(r)
//
// Basic usage for encoding:
//
//	err := j2k.Encode(w, img, nil)
package j2k

import (
	"image"
	"io"
)

// ProgressionOrder defines the order in which packets are encoded/decoded.
// This codec always emits a single quality layer, so the progression
// order only changes the progression-order byte written in the COD
// marker, not the packet data.
type ProgressionOrder int

const (
	// LRCP is Layer-Resolution-Component-Position order.
	LRCP ProgressionOrder = iota
	// RLCP is Resolution-Layer-Component-Position order.
	RLCP
	// RPCL is Resolution-Position-Component-Layer order.
	RPCL
	// PCRL is Position-Component-Resolution-Layer order.
	PCRL
	// CPRL is Component-Position-Resolution-Layer order.
	CPRL
)

// String returns the string representation of the progression order.
func (p ProgressionOrder) String() string {
	switch p {
	case LRCP:
		return "LRCP"
	case RLCP:
		return "RLCP"
	case RPCL:
		return "RPCL"
	case PCRL:
		return "PCRL"
	case CPRL:
		return "CPRL"
	default:
		return "Unknown"
	}
}

// ColorSpace identifies the color space declared for a codestream.
// This codec does not perform colorspace management beyond identity
// component ordering.
type ColorSpace int

const (
	// ColorSpaceUnknown indicates an unrecognized colorspace.
	ColorSpaceUnknown ColorSpace = iota - 1
	// ColorSpaceUnspecified indicates no colorspace was declared.
	ColorSpaceUnspecified
	// ColorSpaceSRGB is standard RGB.
	ColorSpaceSRGB
	// ColorSpaceGray is grayscale.
	ColorSpaceGray
	// ColorSpaceSYCC is sRGB-based YCbCr.
	ColorSpaceSYCC
	// ColorSpaceCMYK is CMYK.
	ColorSpaceCMYK
	// ColorSpaceCIELab is CIE L*a*b*.
	ColorSpaceCIELab
	// ColorSpaceROMMRGB is ROMM-RGB/ProPhoto RGB.
	ColorSpaceROMMRGB
)

// Config holds the decoding configuration.
type Config struct {
	// ReduceResolution is the number of resolution levels a caller asks
	// to skip (0 full, 1 half, etc.). The decoder does not read it:
	// images always decode at full resolution.
	ReduceResolution int
}

// Options holds the encoding options.
type Options struct {
	// Lossless specifies whether to use lossless compression.
	// If true, the 5-3 reversible wavelet transform is used.
	// If false, the 9-7 irreversible wavelet transform is used.
	Lossless bool

	// Quality specifies the compression quality (1-100).
	// Only used when Lossless is false.
	Quality int

	// NumResolutions specifies the number of resolution levels.
	// Default is 6 (5 decomposition levels + 1).
	NumResolutions int

	// CodeBlockSize specifies the code block dimensions (log2).
	// Default is (6, 6) for 64x64 code blocks.
	CodeBlockSize image.Point

	// ProgressionOrder specifies the packet ordering reported in the
	// COD marker. This codec always emits one quality layer.
	ProgressionOrder ProgressionOrder

	// ColorSpace names the color space of the input. The encoder does not
	// write it to the codestream; DecodeMetadata always reports
	// ColorSpaceUnspecified.
	ColorSpace ColorSpace

	// Comment specifies an optional comment string.
	Comment string

	// Precision overrides the bit depth for encoding.
	// If 0, uses the natural precision of the input image (8 or 16).
	Precision int
}

// DefaultOptions returns the default encoding options.
func DefaultOptions() *Options {
	return &Options{
		Lossless:         false,
		Quality:          75,
		NumResolutions:   6,
		CodeBlockSize:    image.Point{X: 6, Y: 6}, // 64x64
		ProgressionOrder: LRCP,
	}
}

// Decode reads a JPEG 2000 raw codestream from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	return DecodeConfig(r, nil)
}

// DecodeConfig decodes a JPEG 2000 image with the specified configuration.
func DecodeConfig(r io.Reader, cfg *Config) (image.Image, error) {
	d := newDecoder(r)
	return d.decode(cfg)
}

// Encode writes the image m to w in JPEG 2000 raw codestream format with the given options.
func Encode(w io.Writer, m image.Image, o *Options) error {
	if o == nil {
		o = DefaultOptions()
	}
	e := newEncoder(w, m, o)
	return e.encode()
}

// DecodeMetadata reads only the header information without decoding the image.
func DecodeMetadata(r io.Reader) (*Metadata, error) {
	d := newDecoder(r)
	return d.readMetadata()
}

// Metadata contains image metadata extracted from a JPEG 2000 codestream.
type Metadata struct {
	Width            int
	Height           int
	NumComponents    int
	BitsPerComponent []int
	Signed           []bool
	ColorSpace       ColorSpace
	NumResolutions   int
	Lossless         bool
}

func init() {
	image.RegisterFormat("j2k",
		"\xff\x4f\xff\x51",
		func(r io.Reader) (image.Image, error) {
			return Decode(r)
		},
		func(r io.Reader) (image.Config, error) {
			m, err := DecodeMetadata(r)
			if err != nil {
				return image.Config{}, err
			}
			return image.Config{
				Width:  m.Width,
				Height: m.Height,
			}, nil
		})
}
