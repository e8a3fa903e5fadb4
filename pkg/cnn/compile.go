package cnn

import (
	"errors"
	"fmt"
	"math"
)

// Adam holds the optimizer settings a future training loop would use
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
}

// DefaultAdam returns the usual Adam defaults
func DefaultAdam() Adam {
	return Adam{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

func (a Adam) String() string {
	return fmt.Sprintf("adam(lr=%g)", a.LearningRate)
}

func (a Adam) validate() error {
	if a.LearningRate <= 0 {
		return fmt.Errorf("adam: learning rate must be positive")
	}
	if a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("adam: betas must be in [0, 1)")
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("adam: epsilon must be positive")
	}
	return nil
}

// Loss and metric names accepted by Compile
const (
	LossBinaryCrossEntropy = "binary_crossentropy"
	LossMeanSquaredError   = "mean_squared_error"
	MetricAccuracy         = "accuracy"
)

// LossFunc scores predictions against targets, lower is better
type LossFunc func(yTrue, yPred []float64) (float64, error)

// MetricFunc scores predictions against targets, higher is better
type MetricFunc func(yTrue, yPred []float64) (float64, error)

var lossFuncs = map[string]LossFunc{
	LossBinaryCrossEntropy: BinaryCrossEntropy,
	LossMeanSquaredError:   MeanSquaredError,
}

var metricFuncs = map[string]MetricFunc{
	MetricAccuracy: BinaryAccuracy,
}

// CompileConfig is the optimizer, loss and metric choice attached to a model
type CompileConfig struct {
	Optimizer Adam
	Loss      string
	Metrics   []string
}

// DefaultCompileConfig returns adam + binary cross-entropy + accuracy
func DefaultCompileConfig() CompileConfig {
	return CompileConfig{
		Optimizer: DefaultAdam(),
		Loss:      LossBinaryCrossEntropy,
		Metrics:   []string{MetricAccuracy},
	}
}

// Compile validates and attaches a training configuration
func (m *Sequential) Compile(cfg CompileConfig) error {
	if err := cfg.Optimizer.validate(); err != nil {
		return err
	}
	if _, ok := lossFuncs[cfg.Loss]; !ok {
		return fmt.Errorf("unknown loss %q", cfg.Loss)
	}
	for _, name := range cfg.Metrics {
		if _, ok := metricFuncs[name]; !ok {
			return fmt.Errorf("unknown metric %q", name)
		}
	}
	cfg.Metrics = append([]string(nil), cfg.Metrics...)
	m.config = &cfg
	return nil
}

// Compiled returns the attached configuration, if any
func (m *Sequential) Compiled() (CompileConfig, bool) {
	if m.config == nil {
		return CompileConfig{}, false
	}
	return *m.config, true
}

// Loss returns the compiled loss function
func (m *Sequential) Loss() (LossFunc, error) {
	if m.config == nil {
		return nil, errors.New("model is not compiled")
	}
	return lossFuncs[m.config.Loss], nil
}

// Metrics returns the compiled metric functions by name
func (m *Sequential) Metrics() (map[string]MetricFunc, error) {
	if m.config == nil {
		return nil, errors.New("model is not compiled")
	}
	out := make(map[string]MetricFunc, len(m.config.Metrics))
	for _, name := range m.config.Metrics {
		out[name] = metricFuncs[name]
	}
	return out, nil
}

func checkPair(yTrue, yPred []float64) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%d targets vs %d predictions: %w", len(yTrue), len(yPred), ErrShapeMismatch)
	}
	if len(yTrue) == 0 {
		return fmt.Errorf("no samples: %w", ErrShapeMismatch)
	}
	return nil
}

// BinaryCrossEntropy is the mean log loss, predictions clipped to [1e-7, 1-1e-7]
func BinaryCrossEntropy(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	const eps = 1e-7
	var sum float64
	for i, y := range yTrue {
		p := math.Min(math.Max(yPred[i], eps), 1-eps)
		sum += -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	return sum / float64(len(yTrue)), nil
}

// MeanSquaredError is the mean of squared residuals
func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i, y := range yTrue {
		d := yPred[i] - y
		sum += d * d
	}
	return sum / float64(len(yTrue)), nil
}

// BinaryAccuracy is the share of predictions on the right side of 0.5
func BinaryAccuracy(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i, y := range yTrue {
		predicted := 0.0
		if yPred[i] > 0.5 {
			predicted = 1
		}
		if predicted == y {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}
