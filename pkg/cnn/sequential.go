package cnn

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sequential is a linear stack of layers with a fixed input shape
type Sequential struct {
	Name string

	input   Shape
	layers  []Layer
	names   []string
	outputs []Shape
	config  *CompileConfig
}

// NewSequential builds every layer in order against the previous output shape
func NewSequential(input Shape, src rand.Source, layers ...Layer) (*Sequential, error) {
	if input.Size() <= 0 {
		return nil, fmt.Errorf("invalid input shape %v", input)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("sequential model needs at least one layer")
	}

	m := &Sequential{
		Name:  "sequential",
		input: append(Shape(nil), input...),
	}

	seen := make(map[string]int)
	shape := m.input
	for i, l := range layers {
		out, err := l.Build(shape, src)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}

		name := l.Name()
		if n := seen[l.Name()]; n > 0 {
			name = fmt.Sprintf("%s_%d", l.Name(), n)
		}
		seen[l.Name()]++

		m.layers = append(m.layers, l)
		m.names = append(m.names, name)
		m.outputs = append(m.outputs, out)
		shape = out
	}

	return m, nil
}

// newSource returns a PCG stream for seed, or a clock-seeded one when seed is zero
func newSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)
}

// InputShape returns the shape of one input sample
func (m *Sequential) InputShape() Shape {
	return m.input
}

// OutputShape returns the shape of one output sample
func (m *Sequential) OutputShape() Shape {
	return m.outputs[len(m.outputs)-1]
}

// Layers returns the layers in execution order
func (m *Sequential) Layers() []Layer {
	return m.layers
}

// ParamCount returns the trainable and non-trainable parameter totals
func (m *Sequential) ParamCount() (trainable, frozen int) {
	for _, l := range m.layers {
		t, f := l.Params()
		trainable += t
		frozen += f
	}
	return trainable, frozen
}

// Forward runs a batch through every layer
func (m *Sequential) Forward(batch *Tensor) (*Tensor, error) {
	if batch == nil || batch.Batch() == 0 {
		return nil, fmt.Errorf("empty batch: %w", ErrShapeMismatch)
	}
	x := batch
	for i, l := range m.layers {
		y, err := l.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.names[i], err)
		}
		x = y
	}
	return x, nil
}

// Predict returns one scalar per batch item. The model must end in a single unit.
func (m *Sequential) Predict(batch *Tensor) ([]float64, error) {
	if out := m.OutputShape(); !out.Equal(Shape{1}) {
		return nil, fmt.Errorf("predict needs a single output unit, model has %v: %w", out, ErrShapeMismatch)
	}
	y, err := m.Forward(batch)
	if err != nil {
		return nil, err
	}
	return y.Data, nil
}

// Summary prints the layer table in the familiar Keras layout
func (m *Sequential) Summary(w io.Writer) error {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("_", 65)
	double := strings.Repeat("=", 65)

	var b strings.Builder
	fmt.Fprintf(&b, "Model: %q\n", m.Name)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, " %-27s %-25s %s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(&b, double)
	for i, l := range m.layers {
		t, f := l.Params()
		fmt.Fprintf(&b, " %-27s %-25s %s\n", fmt.Sprintf("%s (%s)", m.names[i], l.Kind()), m.outputs[i], p.Sprintf("%d", t+f))
		if i < len(m.layers)-1 {
			fmt.Fprintln(&b)
		}
	}
	fmt.Fprintln(&b, double)

	trainable, frozen := m.ParamCount()
	b.WriteString(p.Sprintf("Total params: %d\n", trainable+frozen))
	b.WriteString(p.Sprintf("Trainable params: %d\n", trainable))
	b.WriteString(p.Sprintf("Non-trainable params: %d\n", frozen))
	fmt.Fprintln(&b, rule)

	if m.config != nil {
		fmt.Fprintf(&b, "Optimizer: %s, Loss: %s, Metrics: %s\n", m.config.Optimizer, m.config.Loss, strings.Join(m.config.Metrics, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
