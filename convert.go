package stillcodec

import (
	"image"
	"image/color"

	"github.com/go-codecs/stillcodec/pixelbuf"
	"github.com/pkg/errors"
)

// pixelbufToImage adapts pix to the image.Image the j2k package's
// encoder switches on (Gray/Gray16 for grayscale, RGBA/RGBA64 for
// three-component), since that package was written against the
// standard library's image types rather than pixelbuf.
func pixelbufToImage(pix *pixelbuf.Image) (image.Image, error) {
	if err := pix.Validate(true); err != nil {
		return nil, errors.Wrap(err, "stillcodec: invalid image")
	}
	rect := image.Rect(0, 0, pix.Width, pix.Height)
	switch {
	case pix.Components == 1 && pix.Bits == 8:
		img := image.NewGray(rect)
		for y := 0; y < pix.Height; y++ {
			for x := 0; x < pix.Width; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(pix.SampleAt(x, y, 0))})
			}
		}
		return img, nil
	case pix.Components == 1 && pix.Bits == 16:
		img := image.NewGray16(rect)
		for y := 0; y < pix.Height; y++ {
			for x := 0; x < pix.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: pix.SampleAt(x, y, 0)})
			}
		}
		return img, nil
	case pix.Components == 3 && pix.Bits == 8:
		img := image.NewRGBA(rect)
		for y := 0; y < pix.Height; y++ {
			for x := 0; x < pix.Width; x++ {
				img.SetRGBA(x, y, color.RGBA{
					R: uint8(pix.SampleAt(x, y, 0)),
					G: uint8(pix.SampleAt(x, y, 1)),
					B: uint8(pix.SampleAt(x, y, 2)),
					A: 255,
				})
			}
		}
		return img, nil
	case pix.Components == 3 && pix.Bits == 16:
		img := image.NewRGBA64(rect)
		for y := 0; y < pix.Height; y++ {
			for x := 0; x < pix.Width; x++ {
				img.SetRGBA64(x, y, color.RGBA64{
					R: pix.SampleAt(x, y, 0),
					G: pix.SampleAt(x, y, 1),
					B: pix.SampleAt(x, y, 2),
					A: 65535,
				})
			}
		}
		return img, nil
	default:
		return nil, errors.Errorf("stillcodec: JPEG 2000 path supports 1 or 3 components at 8 or 16 bits, got %d components at %d bits", pix.Components, pix.Bits)
	}
}

// imageToPixelbuf reverses pixelbufToImage against the four concrete
// types internal/j2k's decoder produces.
func imageToPixelbuf(m image.Image) (*pixelbuf.Image, error) {
	switch src := m.(type) {
	case *image.Gray:
		b := src.Bounds()
		img := pixelbuf.NewImage(b.Dx(), b.Dy(), 1, 8, pixelbuf.Interleaved)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				img.SetSampleAt(x, y, 0, uint16(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		return img, nil
	case *image.Gray16:
		b := src.Bounds()
		img := pixelbuf.NewImage(b.Dx(), b.Dy(), 1, 16, pixelbuf.Interleaved)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				img.SetSampleAt(x, y, 0, src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return img, nil
	case *image.RGBA:
		b := src.Bounds()
		img := pixelbuf.NewImage(b.Dx(), b.Dy(), 3, 8, pixelbuf.Interleaved)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
				img.SetSampleAt(x, y, 0, uint16(c.R))
				img.SetSampleAt(x, y, 1, uint16(c.G))
				img.SetSampleAt(x, y, 2, uint16(c.B))
			}
		}
		return img, nil
	case *image.RGBA64:
		b := src.Bounds()
		img := pixelbuf.NewImage(b.Dx(), b.Dy(), 3, 16, pixelbuf.Interleaved)
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := src.RGBA64At(b.Min.X+x, b.Min.Y+y)
				img.SetSampleAt(x, y, 0, c.R)
				img.SetSampleAt(x, y, 1, c.G)
				img.SetSampleAt(x, y, 2, c.B)
			}
		}
		return img, nil
	default:
		return nil, errors.Errorf("stillcodec: unexpected JPEG 2000 decode image type %T", m)
	}
}
