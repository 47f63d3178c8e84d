package classifier

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestHeuristicBrightSaturatedIsFresh(t *testing.T) {
	h := &Heuristic{}
	res, err := h.Classify(uniformImage(64, 64, color.NRGBA{R: 255, G: 220, B: 0, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, LabelFresh, res.Label)
	assert.Equal(t, "heuristic", res.Engine)
	assert.Greater(t, res.Confidence, 0.5)
	assert.InDelta(t, 1.0, res.Metrics["saturation"], 0.01)
	assert.Greater(t, res.Metrics["brightness"], 0.5)
}

func TestHeuristicDarkDullIsSpoiled(t *testing.T) {
	h := &Heuristic{}
	res, err := h.Classify(uniformImage(64, 64, color.NRGBA{R: 40, G: 40, B: 45, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, LabelSpoiled, res.Label)
	assert.Less(t, res.Confidence, 0.35)
}

func TestHeuristicMidToneIsStale(t *testing.T) {
	h := &Heuristic{}
	// Moderate brightness, moderate saturation, no texture
	res, err := h.Classify(uniformImage(64, 64, color.NRGBA{R: 200, G: 150, B: 90, A: 255}))
	require.NoError(t, err)

	assert.Equal(t, LabelStale, res.Label)
}

func TestHeuristicConfidenceBounds(t *testing.T) {
	h := &Heuristic{}
	for _, c := range []color.NRGBA{
		{R: 0, G: 0, B: 0, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
		{R: 255, G: 0, B: 0, A: 255},
	} {
		res, err := h.Classify(uniformImage(16, 16, c))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
}

func TestBoundDownscalesLargeImages(t *testing.T) {
	big := uniformImage(1600, 900, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	bounded := Bound(big)
	b := bounded.Bounds()
	assert.LessOrEqual(t, b.Dx(), maxDimension)
	assert.LessOrEqual(t, b.Dy(), maxDimension)

	small := uniformImage(100, 80, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	assert.Equal(t, small.Bounds(), Bound(small).Bounds())
}

func TestFixedEngineAlwaysAnswers(t *testing.T) {
	f := &Fixed{Label: "good"}
	res, err := f.Classify(uniformImage(8, 8, color.NRGBA{A: 255}))
	require.NoError(t, err)
	assert.Equal(t, "good", res.Label)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, "fixed", res.Engine)
}

type failingEngine struct{}

func (failingEngine) Name() string { return "failing" }
func (failingEngine) Classify(image.Image) (Result, error) {
	return Result{}, assert.AnError
}

func TestClassifierFallsBackToHeuristic(t *testing.T) {
	c := New(failingEngine{})
	res := c.Classify(uniformImage(64, 64, color.NRGBA{R: 255, G: 220, B: 0, A: 255}))
	assert.Equal(t, "heuristic", res.Engine)
	assert.Equal(t, LabelFresh, res.Label)
}

func TestClassifierUsesPrimaryWhenHealthy(t *testing.T) {
	c := New(&Fixed{Label: "good"})
	res := c.Classify(uniformImage(8, 8, color.NRGBA{A: 255}))
	assert.Equal(t, "fixed", res.Engine)
	assert.Equal(t, "good", res.Label)
	assert.Equal(t, "fixed", c.EngineName())

	assert.Equal(t, "heuristic", New(nil).EngineName())
}

func TestNewFromEnvOverride(t *testing.T) {
	t.Setenv("FOOD_QUALITY_OVERRIDE", "good")
	c := NewFromEnv()
	assert.Equal(t, "fixed", c.EngineName())
}

func TestNewFromEnvMissingModelFallsBack(t *testing.T) {
	t.Setenv("FOOD_QUALITY_OVERRIDE", "")
	t.Setenv("FOOD_QUALITY_MODEL", "/nonexistent/model.onnx")
	c := NewFromEnv()
	assert.Equal(t, "heuristic", c.EngineName())
}
