package cnn

import (
	"fmt"
	"math"
)

// Activation names an element-wise nonlinearity
type Activation string

const (
	Linear  Activation = "linear"
	ReLU    Activation = "relu"
	Sigmoid Activation = "sigmoid"
)

func (a Activation) validate() error {
	switch a {
	case "", Linear, ReLU, Sigmoid:
		return nil
	}
	return fmt.Errorf("unknown activation %q", a)
}

func (a Activation) apply(v []float64) {
	switch a {
	case ReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case Sigmoid:
		for i, x := range v {
			v[i] = 1.0 / (1.0 + math.Exp(-x))
		}
	}
}
