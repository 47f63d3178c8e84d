package classifier

import (
	"errors"
	"image"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// The onnxruntime environment is process-wide; initialize it exactly once.
// If that first attempt fails, the engine stays unavailable for the process
// lifetime and every scan uses the heuristic.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime() error {
	ortInitOnce.Do(func() {
		if lib := strings.TrimSpace(os.Getenv("FOOD_QUALITY_ORT_LIB")); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// onnxEngine scores an image with a learned model. Construction validates the
// model and builds the session; Classify calls serialize on the session.
type onnxEngine struct {
	session     *ort.DynamicAdvancedSession
	target      int
	channelsFst bool
	labels      []string
	temperature float64
	mu          sync.Mutex
}

func newONNXEngine(modelPath string) (*onnxEngine, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, err
	}
	if err := initRuntime(); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("model declares no inputs or outputs")
	}

	target, channelsFst := inputLayout(inputs[0].Dimensions)

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, err
	}

	temperature := 1.0
	if v, err := strconv.ParseFloat(os.Getenv("FOOD_QUALITY_TEMPERATURE"), 64); err == nil && v > 0 {
		temperature = v
	}

	labelsEnv := os.Getenv("FOOD_QUALITY_LABELS")
	if labelsEnv == "" {
		labelsEnv = "fresh,stale,spoiled"
	}
	var labels []string
	for _, l := range strings.Split(labelsEnv, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}

	return &onnxEngine{
		session:     session,
		target:      target,
		channelsFst: channelsFst,
		labels:      labels,
		temperature: temperature,
	}, nil
}

// inputLayout derives the square input resolution and channel ordering from
// the model's declared shape, defaulting to 224 NCHW.
func inputLayout(dims ort.Shape) (int, bool) {
	target := 224
	channelsFst := true
	var fixed []int64
	for _, d := range dims {
		if d > 0 {
			fixed = append(fixed, d)
		}
	}
	if len(fixed) >= 3 {
		last := int(fixed[len(fixed)-1])
		secondLast := int(fixed[len(fixed)-2])
		if last == secondLast {
			target = last
		} else if last < secondLast {
			target = last
		} else {
			target = secondLast
		}
		if target <= 0 {
			target = 224
		}
	}
	if len(dims) == 4 && dims[3] == 3 && dims[1] != 3 {
		channelsFst = false
	}
	return target, channelsFst
}

var imagenetMean = [3]float32{0.485, 0.456, 0.406}
var imagenetStd = [3]float32{0.229, 0.224, 0.225}

func (e *onnxEngine) Name() string { return "onnx" }

func (e *onnxEngine) Classify(img image.Image) (Result, error) {
	data := e.preprocess(img)

	var shape ort.Shape
	if e.channelsFst {
		shape = ort.NewShape(1, 3, int64(e.target), int64(e.target))
	} else {
		shape = ort.NewShape(1, int64(e.target), int64(e.target), 3)
	}
	input, err := ort.NewTensor(shape, data)
	if err != nil {
		return Result{}, err
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	e.mu.Lock()
	err = e.session.Run([]ort.Value{input}, outputs)
	e.mu.Unlock()
	if err != nil {
		return Result{}, err
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return Result{}, errors.New("unexpected model output type")
	}
	defer out.Destroy()

	logits := out.GetData()
	if len(logits) == 0 {
		return Result{}, errors.New("empty model output")
	}

	probs := softmax(logits, e.temperature)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	label := strconv.Itoa(best)
	if best < len(e.labels) {
		label = e.labels[best]
	}
	metrics := map[string]float64{}
	for i, p := range probs {
		if i < len(e.labels) {
			metrics[e.labels[i]] = round3(p)
		}
	}
	return Result{
		Label:      label,
		Confidence: round3(probs[best]),
		Metrics:    metrics,
		Engine:     e.Name(),
	}, nil
}

func (e *onnxEngine) preprocess(img image.Image) []float32 {
	resized := imaging.Fill(img, e.target, e.target, imaging.Center, imaging.Linear)
	data := make([]float32, 3*e.target*e.target)
	plane := e.target * e.target
	for y := 0; y < e.target; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < e.target; x++ {
			for ch := 0; ch < 3; ch++ {
				v := (float32(row[x*4+ch])/255.0 - imagenetMean[ch]) / imagenetStd[ch]
				if e.channelsFst {
					data[ch*plane+y*e.target+x] = v
				} else {
					data[(y*e.target+x)*3+ch] = v
				}
			}
		}
	}
	return data
}

func softmax(logits []float32, temperature float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v-maxLogit) / math.Max(1e-6, temperature))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
