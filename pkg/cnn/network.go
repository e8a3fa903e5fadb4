package cnn

// DefaultInputShape is the (height, width, channels) the classifier expects
var DefaultInputShape = Shape{128, 128, 3}

// NewSteganalysisNetwork builds the binary stego/clean classifier:
//
//	conv 32@3x3 relu -> maxpool 2 -> batchnorm
//	conv 64@3x3 relu -> maxpool 2 -> dropout 0.25
//	conv 128@3x3 relu -> flatten -> dense 64 relu -> dense 1 sigmoid
//
// The early convolutions pick up the high-frequency noise that embedding leaves
// behind. Weights are randomly initialised from seed (zero seeds from the clock)
// and the model comes back compiled with DefaultCompileConfig.
func NewSteganalysisNetwork(input Shape, seed uint64) (*Sequential, error) {
	m, err := NewSequential(input, newSource(seed),
		NewConv2D(32, 3, ReLU),
		NewMaxPooling2D(2),
		NewBatchNormalization(),

		NewConv2D(64, 3, ReLU),
		NewMaxPooling2D(2),
		NewDropout(0.25),

		NewConv2D(128, 3, ReLU),
		NewFlatten(),

		NewDense(64, ReLU),
		NewDense(1, Sigmoid),
	)
	if err != nil {
		return nil, err
	}

	if err := m.Compile(DefaultCompileConfig()); err != nil {
		return nil, err
	}
	return m, nil
}
