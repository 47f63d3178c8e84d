package classifier

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Labels produced by the heuristic engine
const (
	LabelFresh   = "fresh"
	LabelStale   = "stale"
	LabelSpoiled = "spoiled"
)

// Heuristic scores freshness from color statistics: saturated, bright,
// contrasty food photographs well when fresh; dull and dark frames score low.
// It has no failure mode and backs every other engine.
type Heuristic struct{}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Classify(img image.Image) (Result, error) {
	nrgba := autocontrast(imaging.Clone(Bound(img)), 1)

	brightness, saturation, contrast := colorStats(nrgba)
	contrastN := math.Min(1.0, contrast/8000.0)

	score := 0.4*saturation + 0.35*brightness + 0.25*contrastN

	label := LabelSpoiled
	switch {
	case score >= 0.60:
		label = LabelFresh
	case score >= 0.35:
		label = LabelStale
	}

	metrics := map[string]float64{
		"brightness":    round3(brightness),
		"saturation":    round3(saturation),
		"contrast":      round3(contrastN),
		"blur_variance": round3(blurVariance(nrgba)),
	}
	return Result{
		Label:      label,
		Confidence: round3(score),
		Metrics:    metrics,
		Engine:     h.Name(),
	}, nil
}

// colorStats returns normalized mean brightness, mean saturation and mean
// per-channel variance of an image.
func colorStats(img *image.NRGBA) (brightness, saturation, variance float64) {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0, 0
	}

	var sum, sumSq [3]float64
	var satSum float64
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r := float64(row[x*4])
			g := float64(row[x*4+1])
			bl := float64(row[x*4+2])
			sum[0] += r
			sum[1] += g
			sum[2] += bl
			sumSq[0] += r * r
			sumSq[1] += g * g
			sumSq[2] += bl * bl

			max := math.Max(r, math.Max(g, bl))
			min := math.Min(r, math.Min(g, bl))
			if max > 0 {
				satSum += (max - min) / max
			}
		}
	}

	var meanSum, varSum float64
	for ch := 0; ch < 3; ch++ {
		mean := sum[ch] / n
		meanSum += mean
		varSum += sumSq[ch]/n - mean*mean
	}
	brightness = meanSum / 3.0 / 255.0
	saturation = satSum / n
	variance = varSum / 3.0
	return brightness, saturation, variance
}

// blurVariance is an edge-magnitude variance proxy: sharp images have high
// gradient variance, blurry ones do not.
func blurVariance(img *image.NRGBA) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			gray[y*w+x] = 0.299*float64(row[x*4]) + 0.587*float64(row[x*4+1]) + 0.114*float64(row[x*4+2])
		}
	}

	var sum, sumSq float64
	count := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			dx := gray[y*w+x+1] - gray[y*w+x-1]
			dy := gray[(y+1)*w+x] - gray[(y-1)*w+x]
			mag := math.Abs(dx) + math.Abs(dy)
			sum += mag
			sumSq += mag * mag
			count++
		}
	}
	mean := sum / float64(count)
	return sumSq/float64(count) - mean*mean
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
