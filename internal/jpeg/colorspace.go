package jpeg

import "github.com/go-codecs/stillcodec/pixelbuf"

// planesFromImage extracts one []int plane per component. Three-component
// images are assumed to carry RGB samples and are converted to YCbCr
// 4:4:4, the colorspace baseline JPEG streams; single-component images
// are carried through unchanged as grayscale.
func planesFromImage(img *pixelbuf.Image) [][]int {
	n := img.Width * img.Height
	planes := make([][]int, img.Components)
	for c := range planes {
		planes[c] = make([]int, n)
	}
	if img.Components == 1 {
		i := 0
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				planes[0][i] = int(img.SampleAt(x, y, 0))
				i++
			}
		}
		return planes
	}
	i := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r := float64(img.SampleAt(x, y, 0))
			g := float64(img.SampleAt(x, y, 1))
			b := float64(img.SampleAt(x, y, 2))
			yv, cb, cr := rgbToYCbCr(r, g, b)
			planes[0][i] = clampSample(roundHalfAwayFromZero(yv))
			planes[1][i] = clampSample(roundHalfAwayFromZero(cb))
			planes[2][i] = clampSample(roundHalfAwayFromZero(cr))
			i++
		}
	}
	return planes
}

// imageFromPlanes reverses planesFromImage into img's Pix buffer.
func imageFromPlanes(img *pixelbuf.Image, planes [][]int) {
	if len(planes) == 1 {
		i := 0
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.SetSampleAt(x, y, 0, uint16(planes[0][i]))
				i++
			}
		}
		return
	}
	i := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			yv := float64(planes[0][i])
			cb := float64(planes[1][i])
			cr := float64(planes[2][i])
			r, g, b := yCbCrToRGB(yv, cb, cr)
			img.SetSampleAt(x, y, 0, uint16(clampSample(roundHalfAwayFromZero(r))))
			img.SetSampleAt(x, y, 1, uint16(clampSample(roundHalfAwayFromZero(g))))
			img.SetSampleAt(x, y, 2, uint16(clampSample(roundHalfAwayFromZero(b))))
			i++
		}
	}
}

// rgbToYCbCr and yCbCrToRGB implement the JFIF (ITU-R BT.601, full
// range) conversion used by baseline JPEG.
func rgbToYCbCr(r, g, b float64) (y, cb, cr float64) {
	y = 0.299*r + 0.587*g + 0.114*b
	cb = -0.168736*r - 0.331264*g + 0.5*b + 128
	cr = 0.5*r - 0.418688*g - 0.081312*b + 128
	return
}

func yCbCrToRGB(y, cb, cr float64) (r, g, b float64) {
	r = y + 1.402*(cr-128)
	g = y - 0.344136*(cb-128) - 0.714136*(cr-128)
	b = y + 1.772*(cb-128)
	return
}
