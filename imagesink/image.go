/*
NAME
  image.go

DESCRIPTION
  image.go turns accumulated raw rows back into images: a greyscale
  strip per channel, and the corrected visible RGB composite built from
  three channel strips cropped to their common height.

LICENSE
  Provided as-is for the meteorcore project.
*/

package imagesink

import (
	"fmt"
	"image"
)

// Gray wraps a raw buffer of concatenated width-wide 8-bit rows as a
// greyscale image. The buffer is used directly, not copied.
func Gray(raw []byte, width int) (*image.Gray, error) {
	if width <= 0 {
		return nil, fmt.Errorf("imagesink: invalid strip width %d", width)
	}
	if len(raw)%width != 0 {
		return nil, fmt.Errorf("imagesink: %d bytes is not a whole number of %d-wide rows", len(raw), width)
	}
	return &image.Gray{
		Pix:    raw,
		Stride: width,
		Rect:   image.Rect(0, 0, width, len(raw)/width),
	}, nil
}

// Composite merges three greyscale channel strips into one RGB image,
// cropped to the narrowest and shortest of the three.
func Composite(r, g, b *image.Gray) *image.RGBA {
	w := r.Rect.Dx()
	if g.Rect.Dx() < w {
		w = g.Rect.Dx()
	}
	if b.Rect.Dx() < w {
		w = b.Rect.Dx()
	}
	h := r.Rect.Dy()
	if g.Rect.Dy() < h {
		h = g.Rect.Dy()
	}
	if b.Rect.Dy() < h {
		h = b.Rect.Dy()
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y)
			out.Pix[i] = r.GrayAt(x, y).Y
			out.Pix[i+1] = g.GrayAt(x, y).Y
			out.Pix[i+2] = b.GrayAt(x, y).Y
			out.Pix[i+3] = 0xff
		}
	}
	return out
}
