package classifier

import "image"

// Fixed always answers with a preconfigured label. Useful for demos and for
// environments where classification is decided elsewhere.
type Fixed struct {
	Label string
}

func (f *Fixed) Name() string { return "fixed" }

func (f *Fixed) Classify(_ image.Image) (Result, error) {
	return Result{
		Label:      f.Label,
		Confidence: 1.0,
		Metrics:    map[string]float64{},
		Engine:     f.Name(),
	}, nil
}
