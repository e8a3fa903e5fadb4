package features

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"StegoLab/pkg/models"
)

// PixelIntensityCeiling is the largest valid 8-bit pixel intensity.
// Mean intensities above it cannot come from a real image.
const PixelIntensityCeiling = 255.0

// MissingCounts returns the number of missing values in every column
func MissingCounts(records []models.FeatureRecord) map[string]int {
	counts := make(map[string]int, len(models.Columns))
	for _, column := range models.Columns {
		counts[column] = 0
	}
	for _, r := range records {
		for _, column := range models.Columns {
			if r.IsMissing(column) {
				counts[column]++
			}
		}
	}
	return counts
}

// Clean fills missing mean intensities with the column mean and then drops
// every record whose mean intensity is strictly above bound. The mean is taken
// over the observed values only, before anything is filled in. The input slice
// is left untouched.
func Clean(records []models.FeatureRecord, bound float64) ([]models.FeatureRecord, models.QualityReport, error) {
	report := models.QualityReport{
		MissingCounts: MissingCounts(records),
		ImputedColumn: models.ColumnMeanIntensity,
		Bound:         bound,
		RowsBefore:    len(records),
	}

	observed := make([]float64, 0, len(records))
	for _, r := range records {
		if !r.IsMissing(models.ColumnMeanIntensity) {
			observed = append(observed, r.MeanIntensity)
		}
	}

	missing := report.MissingCounts[models.ColumnMeanIntensity]
	if len(observed) > 0 {
		mean, err := stats.Mean(observed)
		if err != nil {
			return nil, report, fmt.Errorf("failed to compute %s mean: %w", models.ColumnMeanIntensity, err)
		}
		report.ImputedValue = mean
	} else if missing > 0 {
		return nil, report, fmt.Errorf("cannot impute %s: no observed values", models.ColumnMeanIntensity)
	}

	cleaned := make([]models.FeatureRecord, 0, len(records))
	for _, r := range records {
		if r.IsMissing(models.ColumnMeanIntensity) {
			r.MeanIntensity = report.ImputedValue
			report.ImputedCount++
		}
		if r.MeanIntensity > bound {
			report.OutlierCount++
			continue
		}
		cleaned = append(cleaned, r)
	}

	report.RowsAfter = len(cleaned)
	return cleaned, report, nil
}

// Aggregate groups records by label, SQL style:
//
//	SELECT label, AVG(mean_intensity), AVG(std_deviation), COUNT(*) FROM features GROUP BY label
//
// Rows come back sorted by label. Records without a label belong to no group.
func Aggregate(records []models.FeatureRecord) []models.GroupSummary {
	intensity := make(map[string][]float64)
	contrast := make(map[string][]float64)
	for _, r := range records {
		if strings.TrimSpace(r.Label) == "" {
			continue
		}
		intensity[r.Label] = append(intensity[r.Label], r.MeanIntensity)
		contrast[r.Label] = append(contrast[r.Label], r.StdDeviation)
	}

	labels := make([]string, 0, len(intensity))
	for label := range intensity {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	summaries := make([]models.GroupSummary, 0, len(labels))
	for _, label := range labels {
		summaries = append(summaries, models.GroupSummary{
			Label:         label,
			MeanIntensity: meanSkipNaN(intensity[label]),
			StdDeviation:  meanSkipNaN(contrast[label]),
			ImageCount:    len(intensity[label]),
		})
	}
	return summaries
}

// meanSkipNaN averages the observed values, NaN when there are none
func meanSkipNaN(values []float64) float64 {
	observed := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return math.NaN()
	}
	return stat.Mean(observed, nil)
}
