package classifier

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// maxDimension bounds the working resolution; larger uploads are scaled down
// before analysis, keeping aspect ratio.
const maxDimension = 640

// Decode reads, EXIF-orients and bounds an uploaded image. This is the only
// step of the scan pipeline that can fail on user input.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	return Bound(img), nil
}

// Bound scales an image down so its longest side is at most maxDimension
func Bound(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Linear)
}

// autocontrast stretches each channel's histogram, ignoring cutoffPercent of
// the darkest and brightest pixels, the same gentle normalization the
// heuristic stats are computed on.
func autocontrast(img *image.NRGBA, cutoffPercent float64) *image.NRGBA {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return img
	}
	cut := int(float64(total) * cutoffPercent / 100.0)

	out := imaging.Clone(img)
	for ch := 0; ch < 3; ch++ {
		var hist [256]int
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[(y-b.Min.Y)*img.Stride:]
			for x := 0; x < b.Dx(); x++ {
				hist[row[x*4+ch]]++
			}
		}

		lo, hi := 0, 255
		for n := 0; lo < 255; lo++ {
			n += hist[lo]
			if n > cut {
				break
			}
		}
		for n := 0; hi > 0; hi-- {
			n += hist[hi]
			if n > cut {
				break
			}
		}
		if hi <= lo {
			continue
		}

		scale := 255.0 / float64(hi-lo)
		var lut [256]uint8
		for v := 0; v < 256; v++ {
			s := (float64(v) - float64(lo)) * scale
			if s < 0 {
				s = 0
			} else if s > 255 {
				s = 255
			}
			lut[v] = uint8(s + 0.5)
		}
		for y := 0; y < b.Dy(); y++ {
			row := out.Pix[y*out.Stride:]
			for x := 0; x < b.Dx(); x++ {
				row[x*4+ch] = lut[row[x*4+ch]]
			}
		}
	}
	return out
}
