// Package classifier estimates food freshness from an image. Three engines
// exist behind one contract: a statistical heuristic that never fails, an
// optional ONNX model, and a fixed override stub. The engine is chosen once
// at startup from the environment and injected into the scan handler.
package classifier

import (
	"image"
	"log"
	"os"
	"strings"
)

// Result is the fixed scan output shape
type Result struct {
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Metrics    map[string]float64 `json:"metrics"`
	Engine     string             `json:"engine"`
}

// Engine is one classification strategy
type Engine interface {
	Name() string
	Classify(img image.Image) (Result, error)
}

// Classifier runs the configured primary engine and falls back to the
// heuristic when the primary errors. The heuristic itself cannot fail, so
// Classify never does.
type Classifier struct {
	primary   Engine
	heuristic *Heuristic
}

func New(primary Engine) *Classifier {
	return &Classifier{primary: primary, heuristic: &Heuristic{}}
}

// NewFromEnv selects the engine from configuration:
//   - FOOD_QUALITY_OVERRIDE=<label>  → fixed stub
//   - FOOD_QUALITY_MODEL=<path>      → ONNX model (heuristic if init fails)
//   - otherwise                      → heuristic only
func NewFromEnv() *Classifier {
	if label := strings.TrimSpace(os.Getenv("FOOD_QUALITY_OVERRIDE")); label != "" {
		log.Printf("classifier: using fixed override engine (label=%s)", label)
		return New(&Fixed{Label: label})
	}
	if modelPath := strings.TrimSpace(os.Getenv("FOOD_QUALITY_MODEL")); modelPath != "" {
		engine, err := newONNXEngine(modelPath)
		if err != nil {
			log.Printf("classifier: ONNX engine unavailable (%v), falling back to heuristic", err)
			return New(nil)
		}
		log.Printf("classifier: using ONNX engine (model=%s)", modelPath)
		return New(engine)
	}
	return New(nil)
}

// Classify runs the selected engine against a prepared image
func (c *Classifier) Classify(img image.Image) Result {
	if c.primary != nil {
		res, err := c.primary.Classify(img)
		if err == nil {
			return res
		}
		log.Printf("classifier: %s engine failed (%v), using heuristic", c.primary.Name(), err)
	}
	res, _ := c.heuristic.Classify(img)
	return res
}

// EngineName reports which engine answers first
func (c *Classifier) EngineName() string {
	if c.primary != nil {
		return c.primary.Name()
	}
	return c.heuristic.Name()
}
