package cnn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrShapeMismatch is returned when a tensor does not fit the layer it is fed to
var ErrShapeMismatch = errors.New("shape mismatch")

// Shape is a tensor shape without the batch dimension
type Shape []int

// Size returns the number of elements in one sample of this shape
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether both shapes have the same dimensions
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// String renders the shape with a leading batch placeholder, e.g. (None, 126, 126, 32)
func (s Shape) String() string {
	parts := make([]string, 0, len(s)+1)
	parts = append(parts, "None")
	for _, d := range s {
		parts = append(parts, strconv.Itoa(d))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseShape parses a HxWxC triple such as "128x128x3"
func ParseShape(s string) (Shape, error) {
	fields := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(fields) != 3 {
		return nil, fmt.Errorf("invalid input shape %q: want HxWxC", s)
	}
	shape := make(Shape, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid input shape %q: %w", s, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid input shape %q: dimensions must be positive", s)
		}
		shape[i] = n
	}
	return shape, nil
}

// Tensor is a dense row-major float64 array. The first dimension is the batch.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor allocates a zeroed tensor
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
	}
}

// Batch returns the size of the leading dimension
func (t *Tensor) Batch() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// Sample returns the shape of one batch item
func (t *Tensor) Sample() Shape {
	if len(t.Shape) == 0 {
		return nil
	}
	return Shape(t.Shape[1:])
}

func checkInput(layer string, want Shape, x *Tensor) error {
	if x == nil {
		return fmt.Errorf("%s: nil input: %w", layer, ErrShapeMismatch)
	}
	if !x.Sample().Equal(want) {
		return fmt.Errorf("%s: got %v, want %v: %w", layer, x.Sample(), want, ErrShapeMismatch)
	}
	if len(x.Data) != x.Batch()*want.Size() {
		return fmt.Errorf("%s: data length %d does not match shape %v: %w", layer, len(x.Data), x.Shape, ErrShapeMismatch)
	}
	return nil
}
