package detector

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"StegoLab/pkg/analyzer"
	"StegoLab/pkg/cnn"
	"StegoLab/pkg/console"
	"StegoLab/pkg/models"
)

var smallInput = cnn.Shape{20, 20, 3}

func newTestDetector(t *testing.T, input cnn.Shape) (*Detector, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	d, err := New(input, 11, console.New(&buf))
	require.NoError(t, err)
	return d, &buf
}

func writeImage(t *testing.T, path string, w, h int, fill color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	if filepath.Ext(path) == ".jpg" {
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
		return
	}
	require.NoError(t, png.Encode(f, img))
}

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(cnn.Shape{20, 20}, 1, console.New(&bytes.Buffer{}))
	require.Error(t, err)
	_, err = New(cnn.Shape{20, 20, 4}, 1, console.New(&bytes.Buffer{}))
	require.Error(t, err)
	_, err = New(cnn.Shape{8, 8, 3}, 1, console.New(&bytes.Buffer{}))
	require.Error(t, err)
}

func TestPreprocessMissingFile(t *testing.T) {
	d, buf := newTestDetector(t, smallInput)

	batch := d.Preprocess(filepath.Join(t.TempDir(), "nope.png"))
	require.Nil(t, batch)
	require.Contains(t, buf.String(), "[-] Error processing image:")

	require.Equal(t, models.VerdictError, d.Predict(filepath.Join(t.TempDir(), "nope.png")))
}

func TestPreprocessUndecodableFile(t *testing.T) {
	d, buf := newTestDetector(t, smallInput)
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a png"), 0o644))

	require.Nil(t, d.Preprocess(path))
	require.Contains(t, buf.String(), "Error processing image")
}

func TestPreprocessResizesAndNormalizes(t *testing.T) {
	d, _ := newTestDetector(t, smallInput)
	path := filepath.Join(t.TempDir(), "white.png")
	writeImage(t, path, 57, 31, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	batch := d.Preprocess(path)
	require.NotNil(t, batch)
	require.Equal(t, []int{1, 20, 20, 3}, batch.Shape)
	require.Len(t, batch.Data, 20*20*3)
	for _, v := range batch.Data {
		require.InDelta(t, 1.0, v, 1.0/255)
	}
}

func TestPreprocessGrayscaleInput(t *testing.T) {
	d, _ := newTestDetector(t, cnn.Shape{24, 28, 1})
	path := filepath.Join(t.TempDir(), "red.jpg")
	writeImage(t, path, 40, 40, color.RGBA{R: 200, A: 255})

	batch := d.Preprocess(path)
	require.NotNil(t, batch)
	require.Equal(t, []int{1, 24, 28, 1}, batch.Shape)
	for _, v := range batch.Data {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestPredictReturnsVerdict(t *testing.T) {
	d, _ := newTestDetector(t, smallInput)
	path := filepath.Join(t.TempDir(), "img.png")
	writeImage(t, path, 32, 32, color.RGBA{R: 12, G: 200, B: 90, A: 255})

	got := d.Predict(path)
	require.Contains(t, []string{models.VerdictStego, models.VerdictClean}, got)

	p, err := d.Score(d.Preprocess(path))
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, 0.0)
	require.LessOrEqual(t, p, 1.0)
	require.Equal(t, verdict(p), got)
}

func TestAnalyzeThroughRegistry(t *testing.T) {
	d, _ := newTestDetector(t, smallInput)
	registry := analyzer.NewRegistry()
	registry.Register(d)

	path := filepath.Join(t.TempDir(), "img.png")
	writeImage(t, path, 25, 25, color.Gray{Y: 90})

	analyzers := registry.GetAnalyzersForFormat("png")
	require.Len(t, analyzers, 1)

	result, err := analyzers[0].Analyze(path, analyzer.AnalysisOptions{Format: "png"})
	require.NoError(t, err)
	require.Equal(t, path, result.Filename)
	require.Equal(t, "png", result.FileType)
	require.NotEmpty(t, result.ID)
	require.Len(t, result.Findings, 1)
	require.Equal(t, verdict(result.DetectionScore), result.Verdict)
	require.InDelta(t, 0.5, result.Confidence/2+min(result.DetectionScore, 1-result.DetectionScore), 1e-9)

	_, err = d.Analyze(filepath.Join(t.TempDir(), "gone.png"), analyzer.AnalysisOptions{})
	require.True(t, errors.Is(err, ErrPreprocess))
}

func TestAnalyzeImageEmpty(t *testing.T) {
	d, _ := newTestDetector(t, smallInput)
	_, err := d.AnalyzeImage(image.NewRGBA(image.Rectangle{}), analyzer.AnalysisOptions{})
	require.True(t, errors.Is(err, ErrPreprocess))

	var _ analyzer.ImageAnalyzer = d
}

func TestVerdictThreshold(t *testing.T) {
	require.Equal(t, models.VerdictClean, verdict(0.5))
	require.Equal(t, models.VerdictStego, verdict(0.5000001))
	require.Equal(t, models.VerdictClean, verdict(0))
}

func fillNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestImageTensorDropsAlphaKeepingColor(t *testing.T) {
	d, _ := newTestDetector(t, smallInput)

	for _, alpha := range []uint8{0, 64, 255} {
		batch, err := d.ImageTensor(fillNRGBA(18, 18, color.NRGBA{R: 255, G: 128, B: 0, A: alpha}))
		require.NoError(t, err)
		require.InDelta(t, 1.0, batch.Data[0], 1.0/255, "alpha %d", alpha)
		require.InDelta(t, 128.0/255, batch.Data[1], 1.0/255, "alpha %d", alpha)
		require.InDelta(t, 0.0, batch.Data[2], 1.0/255, "alpha %d", alpha)
	}
}

func TestPreprocessTransparentPNG(t *testing.T) {
	d, _ := newTestDetector(t, smallInput)
	path := filepath.Join(t.TempDir(), "alpha.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, fillNRGBA(30, 30, color.NRGBA{R: 40, G: 200, B: 90, A: 10})))
	require.NoError(t, f.Close())

	batch := d.Preprocess(path)
	require.NotNil(t, batch)
	last := len(batch.Data) - 3
	require.InDelta(t, 40.0/255, batch.Data[last], 1.0/255)
	require.InDelta(t, 200.0/255, batch.Data[last+1], 1.0/255)
	require.InDelta(t, 90.0/255, batch.Data[last+2], 1.0/255)
}
