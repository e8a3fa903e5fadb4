package features

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"StegoLab/pkg/models"
)

/*
generator.go fabricates the structured feature table that a real extractor would
produce from a folder of images: one row per image with mean pixel intensity,
standard deviation (contrast) and file size. Two defects are planted on purpose
so the cleaning pass has something to fix: row 0 loses its mean intensity and
row 1 gets an impossible intensity of 300.
*/

// Values planted by Generate
const (
	OutlierIntensity = 300.0
	missingRow       = 0
	outlierRow       = 1
)

// GeneratorConfig controls the size and randomness of a synthetic table
type GeneratorConfig struct {
	Samples int
	// Seed fixes the random stream; zero seeds from the clock
	Seed uint64
}

// DefaultGeneratorConfig returns the standard 1000-sample configuration
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Samples: 1000,
	}
}

// Generate produces cfg.Samples records with both defects injected
func Generate(cfg GeneratorConfig) []models.FeatureRecord {
	n := cfg.Samples
	if n <= 0 {
		return []models.FeatureRecord{}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)

	labels := make([]string, n)
	for i := range labels {
		if rng.IntN(2) == 0 {
			labels[i] = models.LabelClean
		} else {
			labels[i] = models.LabelStego
		}
	}

	intensity := sample(distuv.Normal{Mu: 120, Sigma: 15, Src: src}, n)
	contrast := sample(distuv.Normal{Mu: 45, Sigma: 5, Src: src}, n)
	size := sample(distuv.Normal{Mu: 25, Sigma: 2, Src: src}, n)

	records := make([]models.FeatureRecord, n)
	for i := range records {
		records[i] = models.FeatureRecord{
			ImageID:       fmt.Sprintf("img_%04d", i),
			Label:         labels[i],
			MeanIntensity: intensity[i],
			StdDeviation:  contrast[i],
			FileSizeKB:    size[i],
		}
	}

	records[missingRow].MeanIntensity = math.NaN()
	if n > outlierRow {
		records[outlierRow].MeanIntensity = OutlierIntensity
	}

	return records
}

func sample(dist distuv.Normal, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}
