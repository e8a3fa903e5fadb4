package cnn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
layers.go holds the building blocks of the classifier. Each layer is built once
against the output shape of its predecessor, which allocates and randomly
initialises its parameters, and afterwards only runs inference.
Image tensors are laid out as (batch, height, width, channels).
*/

// Layer is one stage of a Sequential model
type Layer interface {
	// Kind is the layer type, e.g. "Conv2D"
	Kind() string

	// Name is the snake_case base name used in summaries, e.g. "conv2d"
	Name() string

	// Build fixes the input shape, allocates parameters and returns the output shape
	Build(input Shape, src rand.Source) (Shape, error)

	// Forward runs inference on a batch
	Forward(x *Tensor) (*Tensor, error)

	// Params returns the number of trainable and non-trainable parameters
	Params() (trainable, frozen int)
}

// glorotUniform fills w from U(-limit, limit) with limit = sqrt(6 / (fanIn + fanOut))
func glorotUniform(w []float64, fanIn, fanOut int, src rand.Source) {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	for i := range w {
		w[i] = dist.Rand()
	}
}

// Conv2D is a stride-1 convolution with valid padding
type Conv2D struct {
	Filters    int
	KernelSize int
	Activation Activation

	in, out Shape
	kernel  []float64 // (ky, kx, c, f)
	bias    []float64
}

func NewConv2D(filters, kernelSize int, activation Activation) *Conv2D {
	return &Conv2D{Filters: filters, KernelSize: kernelSize, Activation: activation}
}

func (l *Conv2D) Kind() string { return "Conv2D" }
func (l *Conv2D) Name() string { return "conv2d" }

func (l *Conv2D) Build(input Shape, src rand.Source) (Shape, error) {
	if len(input) != 3 {
		return nil, fmt.Errorf("conv2d: expected (height, width, channels), got %v", input)
	}
	if l.Filters <= 0 || l.KernelSize <= 0 {
		return nil, fmt.Errorf("conv2d: filters and kernel size must be positive")
	}
	if err := l.Activation.validate(); err != nil {
		return nil, fmt.Errorf("conv2d: %w", err)
	}

	h, w, c := input[0], input[1], input[2]
	oh, ow := h-l.KernelSize+1, w-l.KernelSize+1
	if oh <= 0 || ow <= 0 {
		return nil, fmt.Errorf("conv2d: input %v is smaller than the %dx%d kernel", input, l.KernelSize, l.KernelSize)
	}

	k := l.KernelSize
	l.kernel = make([]float64, k*k*c*l.Filters)
	glorotUniform(l.kernel, k*k*c, k*k*l.Filters, src)
	l.bias = make([]float64, l.Filters)

	l.in = append(Shape(nil), input...)
	l.out = Shape{oh, ow, l.Filters}
	return l.out, nil
}

func (l *Conv2D) Forward(x *Tensor) (*Tensor, error) {
	if err := checkInput("conv2d", l.in, x); err != nil {
		return nil, err
	}

	h, w, c := l.in[0], l.in[1], l.in[2]
	oh, ow, f := l.out[0], l.out[1], l.out[2]
	k := l.KernelSize
	n := x.Batch()

	y := NewTensor(n, oh, ow, f)
	for b := 0; b < n; b++ {
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				o := ((b*oh+oy)*ow + ox) * f
				acc := y.Data[o : o+f]
				copy(acc, l.bias)

				for ky := 0; ky < k; ky++ {
					for kx := 0; kx < k; kx++ {
						base := ((b*h+oy+ky)*w + ox + kx) * c
						wb := (ky*k + kx) * c * f
						for ch := 0; ch < c; ch++ {
							floats.AddScaled(acc, x.Data[base+ch], l.kernel[wb+ch*f:wb+(ch+1)*f])
						}
					}
				}
				l.Activation.apply(acc)
			}
		}
	}
	return y, nil
}

func (l *Conv2D) Params() (int, int) {
	return len(l.kernel) + len(l.bias), 0
}

// MaxPooling2D takes the maximum over non-overlapping Pool x Pool windows.
// Trailing rows and columns that do not fill a window are dropped.
type MaxPooling2D struct {
	Pool int

	in, out Shape
}

func NewMaxPooling2D(pool int) *MaxPooling2D {
	return &MaxPooling2D{Pool: pool}
}

func (l *MaxPooling2D) Kind() string { return "MaxPooling2D" }
func (l *MaxPooling2D) Name() string { return "max_pooling2d" }

func (l *MaxPooling2D) Build(input Shape, _ rand.Source) (Shape, error) {
	if len(input) != 3 {
		return nil, fmt.Errorf("max_pooling2d: expected (height, width, channels), got %v", input)
	}
	if l.Pool <= 0 {
		return nil, fmt.Errorf("max_pooling2d: pool size must be positive")
	}
	oh, ow := input[0]/l.Pool, input[1]/l.Pool
	if oh == 0 || ow == 0 {
		return nil, fmt.Errorf("max_pooling2d: input %v is smaller than the %dx%d window", input, l.Pool, l.Pool)
	}
	l.in = append(Shape(nil), input...)
	l.out = Shape{oh, ow, input[2]}
	return l.out, nil
}

func (l *MaxPooling2D) Forward(x *Tensor) (*Tensor, error) {
	if err := checkInput("max_pooling2d", l.in, x); err != nil {
		return nil, err
	}

	h, w, c := l.in[0], l.in[1], l.in[2]
	oh, ow := l.out[0], l.out[1]
	p := l.Pool
	n := x.Batch()

	y := NewTensor(n, oh, ow, c)
	for b := 0; b < n; b++ {
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				o := ((b*oh+oy)*ow + ox) * c
				for ch := 0; ch < c; ch++ {
					best := math.Inf(-1)
					for py := 0; py < p; py++ {
						for px := 0; px < p; px++ {
							v := x.Data[((b*h+oy*p+py)*w+ox*p+px)*c+ch]
							if v > best {
								best = v
							}
						}
					}
					y.Data[o+ch] = best
				}
			}
		}
	}
	return y, nil
}

func (l *MaxPooling2D) Params() (int, int) { return 0, 0 }

// BatchNormalization normalises the last axis with its moving statistics.
// Freshly built it holds gamma=1, beta=0, moving mean 0 and moving variance 1.
type BatchNormalization struct {
	Epsilon float64

	in                    Shape
	gamma, beta           []float64
	movingMean, movingVar []float64
}

func NewBatchNormalization() *BatchNormalization {
	return &BatchNormalization{Epsilon: 1e-3}
}

func (l *BatchNormalization) Kind() string { return "BatchNormalization" }
func (l *BatchNormalization) Name() string { return "batch_normalization" }

func (l *BatchNormalization) Build(input Shape, _ rand.Source) (Shape, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("batch_normalization: empty input shape")
	}
	c := input[len(input)-1]
	l.gamma = make([]float64, c)
	l.beta = make([]float64, c)
	l.movingMean = make([]float64, c)
	l.movingVar = make([]float64, c)
	for i := 0; i < c; i++ {
		l.gamma[i] = 1
		l.movingVar[i] = 1
	}
	l.in = append(Shape(nil), input...)
	return l.in, nil
}

func (l *BatchNormalization) Forward(x *Tensor) (*Tensor, error) {
	if err := checkInput("batch_normalization", l.in, x); err != nil {
		return nil, err
	}

	c := len(l.gamma)
	scale := make([]float64, c)
	shift := make([]float64, c)
	for i := 0; i < c; i++ {
		scale[i] = l.gamma[i] / math.Sqrt(l.movingVar[i]+l.Epsilon)
		shift[i] = l.beta[i] - l.movingMean[i]*scale[i]
	}

	y := NewTensor(x.Shape...)
	for i, v := range x.Data {
		ch := i % c
		y.Data[i] = v*scale[ch] + shift[ch]
	}
	return y, nil
}

func (l *BatchNormalization) Params() (int, int) {
	return len(l.gamma) + len(l.beta), len(l.movingMean) + len(l.movingVar)
}

// Dropout zeroes a fraction of activations during training. At inference it is the identity.
type Dropout struct {
	Rate float64

	in Shape
}

func NewDropout(rate float64) *Dropout {
	return &Dropout{Rate: rate}
}

func (l *Dropout) Kind() string { return "Dropout" }
func (l *Dropout) Name() string { return "dropout" }

func (l *Dropout) Build(input Shape, _ rand.Source) (Shape, error) {
	if l.Rate < 0 || l.Rate >= 1 {
		return nil, fmt.Errorf("dropout: rate %v outside [0, 1)", l.Rate)
	}
	l.in = append(Shape(nil), input...)
	return l.in, nil
}

func (l *Dropout) Forward(x *Tensor) (*Tensor, error) {
	if err := checkInput("dropout", l.in, x); err != nil {
		return nil, err
	}
	return x, nil
}

func (l *Dropout) Params() (int, int) { return 0, 0 }

// Flatten collapses every non-batch dimension into one
type Flatten struct {
	in Shape
}

func NewFlatten() *Flatten {
	return &Flatten{}
}

func (l *Flatten) Kind() string { return "Flatten" }
func (l *Flatten) Name() string { return "flatten" }

func (l *Flatten) Build(input Shape, _ rand.Source) (Shape, error) {
	if input.Size() == 0 {
		return nil, fmt.Errorf("flatten: empty input shape")
	}
	l.in = append(Shape(nil), input...)
	return Shape{input.Size()}, nil
}

func (l *Flatten) Forward(x *Tensor) (*Tensor, error) {
	if err := checkInput("flatten", l.in, x); err != nil {
		return nil, err
	}
	return &Tensor{Shape: []int{x.Batch(), l.in.Size()}, Data: x.Data}, nil
}

func (l *Flatten) Params() (int, int) { return 0, 0 }

// Dense is a fully connected layer
type Dense struct {
	Units      int
	Activation Activation

	in      Shape
	weights *mat.Dense // (inputs, units)
	bias    []float64
}

func NewDense(units int, activation Activation) *Dense {
	return &Dense{Units: units, Activation: activation}
}

func (l *Dense) Kind() string { return "Dense" }
func (l *Dense) Name() string { return "dense" }

func (l *Dense) Build(input Shape, src rand.Source) (Shape, error) {
	if len(input) != 1 {
		return nil, fmt.Errorf("dense: expected a flat input, got %v", input)
	}
	if l.Units <= 0 {
		return nil, fmt.Errorf("dense: units must be positive")
	}
	if err := l.Activation.validate(); err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}

	data := make([]float64, input[0]*l.Units)
	glorotUniform(data, input[0], l.Units, src)
	l.weights = mat.NewDense(input[0], l.Units, data)
	l.bias = make([]float64, l.Units)

	l.in = append(Shape(nil), input...)
	return Shape{l.Units}, nil
}

func (l *Dense) Forward(x *Tensor) (*Tensor, error) {
	if err := checkInput("dense", l.in, x); err != nil {
		return nil, err
	}

	n := x.Batch()
	y := NewTensor(n, l.Units)
	out := mat.NewDense(n, l.Units, y.Data)
	out.Mul(mat.NewDense(n, l.in[0], x.Data), l.weights)

	for b := 0; b < n; b++ {
		row := y.Data[b*l.Units : (b+1)*l.Units]
		floats.Add(row, l.bias)
		l.Activation.apply(row)
	}
	return y, nil
}

func (l *Dense) Params() (int, int) {
	if l.weights == nil {
		return 0, 0
	}
	r, c := l.weights.Dims()
	return r*c + len(l.bias), 0
}
