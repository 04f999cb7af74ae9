package vision

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// uniformImage fills a w x h bitmap with one color.
func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// checkerboard alternates two colors per pixel, giving maximal local contrast.
func checkerboard(w, h int, a, b color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, a)
			} else {
				img.SetNRGBA(x, y, b)
			}
		}
	}
	return img
}

// leafGreen sits inside the green hue band (35-85 degrees) with saturation
// well above the 0.3 cutoff.
var leafGreen = color.NRGBA{R: 120, G: 160, B: 40, A: 255}

// leafLikeImage is a green image with mild texture so the gradient and shape
// metrics land in leaf-plausible ranges.
func leafLikeImage(w, h int) *image.NRGBA {
	img := uniformImage(w, h, leafGreen)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Deterministic ripple of +/- 15 around the base color.
			delta := uint8(15 * ((x*7 + y*13) % 3))
			img.SetNRGBA(x, y, color.NRGBA{
				R: leafGreen.R - delta/2,
				G: leafGreen.G - delta,
				B: leafGreen.B,
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(img *image.NRGBA) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
