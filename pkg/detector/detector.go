package detector

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"StegoLab/pkg/analyzer"
	"StegoLab/pkg/cnn"
	"StegoLab/pkg/console"
	"StegoLab/pkg/filehandler"
	"StegoLab/pkg/models"
)

// ErrPreprocess is returned by Analyze when the image could not be loaded
var ErrPreprocess = errors.New("image preprocessing failed")

// Detector classifies single images as clean or stego with the CNN.
// The network is untrained, so its scores carry no meaning until weights
// are learned elsewhere.
type Detector struct {
	analyzer.BaseAnalyzer
	model   *cnn.Sequential
	input   cnn.Shape
	printer *console.Printer
}

// New builds a detector for (height, width, channels) input with 1 or 3 channels
func New(input cnn.Shape, seed uint64, printer *console.Printer) (*Detector, error) {
	if len(input) != 3 {
		return nil, fmt.Errorf("input shape must be (height, width, channels), got %v", input)
	}
	if c := input[2]; c != 1 && c != 3 {
		return nil, fmt.Errorf("input must have 1 or 3 channels, got %d", c)
	}

	model, err := cnn.NewSteganalysisNetwork(input, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}
	if printer == nil {
		printer = console.Stdout()
	}

	return &Detector{
		BaseAnalyzer: analyzer.NewBaseAnalyzer(
			"CNN",
			"Convolutional network scoring high-frequency embedding noise",
			filehandler.SupportedFormats(),
		),
		model:   model,
		input:   append(cnn.Shape(nil), input...),
		printer: printer,
	}, nil
}

// Model returns the underlying network
func (d *Detector) Model() *cnn.Sequential {
	return d.model
}

// Preprocess loads the image at path as a normalised batch of one.
// Failures are logged and reported as nil rather than returned.
func (d *Detector) Preprocess(path string) *cnn.Tensor {
	img, _, err := filehandler.LoadImage(path)
	if err != nil {
		d.printer.Error("Error processing image: %v", err)
		return nil
	}

	batch, err := d.ImageTensor(img)
	if err != nil {
		d.printer.Error("Error processing image: %v", err)
		return nil
	}
	return batch
}

// ImageTensor resizes img to the network input and scales pixels to [0,1]
func (d *Detector) ImageTensor(img image.Image) (*cnn.Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	h, w, c := d.input[0], d.input[1], d.input[2]
	src := opaque(img)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	batch := cnn.NewTensor(1, h, w, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := dst.PixOffset(x, y)
			r, g, b := float64(dst.Pix[i]), float64(dst.Pix[i+1]), float64(dst.Pix[i+2])
			o := (y*w + x) * c
			if c == 1 {
				batch.Data[o] = (0.299*r + 0.587*g + 0.114*b) / 255.0
				continue
			}
			batch.Data[o] = r / 255.0
			batch.Data[o+1] = g / 255.0
			batch.Data[o+2] = b / 255.0
		}
	}
	return batch, nil
}

// opaque copies img with every alpha set to 0xff, keeping the straight
// (non-premultiplied) color of transparent pixels.
func opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	if src, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(out.Pix[out.PixOffset(b.Min.X, y):out.PixOffset(b.Max.X, y)], src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)])
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
			}
		}
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// Score runs the network on a preprocessed batch of one
func (d *Detector) Score(batch *cnn.Tensor) (float64, error) {
	out, err := d.model.Predict(batch)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("expected one score, got %d", len(out))
	}
	return out[0], nil
}

// Predict returns VerdictStego, VerdictClean, or VerdictError when the image
// could not be loaded.
func (d *Detector) Predict(path string) string {
	batch := d.Preprocess(path)
	if batch == nil {
		return models.VerdictError
	}
	p, err := d.Score(batch)
	if err != nil {
		d.printer.Error("Error scoring image: %v", err)
		return models.VerdictError
	}
	return verdict(p)
}

// Analyze implements analyzer.FileAnalyzer
func (d *Detector) Analyze(filePath string, options analyzer.AnalysisOptions) (*models.AnalysisResult, error) {
	start := time.Now()
	batch := d.Preprocess(filePath)
	if batch == nil {
		return nil, fmt.Errorf("%s: %w", filePath, ErrPreprocess)
	}
	result, err := d.analyzeBatch(batch, options)
	if err != nil {
		return nil, err
	}
	result.Filename = filePath
	result.AnalysisTime = start
	result.AnalysisDuration = time.Since(start)
	return result, nil
}

// AnalyzeImage implements analyzer.ImageAnalyzer
func (d *Detector) AnalyzeImage(img image.Image, options analyzer.AnalysisOptions) (*models.AnalysisResult, error) {
	start := time.Now()
	batch, err := d.ImageTensor(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}
	result, err := d.analyzeBatch(batch, options)
	if err != nil {
		return nil, err
	}
	result.AnalysisTime = start
	result.AnalysisDuration = time.Since(start)
	return result, nil
}

func (d *Detector) analyzeBatch(batch *cnn.Tensor, options analyzer.AnalysisOptions) (*models.AnalysisResult, error) {
	p, err := d.Score(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to score image: %w", err)
	}

	result := &models.AnalysisResult{
		ID:             uuid.NewString(),
		FileType:       options.Format,
		DetectionScore: p,
		Confidence:     math.Abs(p-models.DecisionThreshold) * 2,
		Verdict:        verdict(p),
	}
	result.AddFinding(
		fmt.Sprintf("Network output %.4f against threshold %.2f", p, models.DecisionThreshold),
		result.Confidence,
		fmt.Sprintf("input %v, weights untrained", d.input),
	)
	return result, nil
}

func verdict(p float64) string {
	if p > models.DecisionThreshold {
		return models.VerdictStego
	}
	return models.VerdictClean
}
