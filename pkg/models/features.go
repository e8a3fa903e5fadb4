package models

import "math"

// Class labels carried by feature records
const (
	LabelClean = "clean"
	LabelStego = "stego"
)

// Verdicts returned by the single-image classifier
const (
	VerdictStego = "Stego (Hidden Data Detected)"
	VerdictClean = "Clean Image"
	VerdictError = "Error"

	// DecisionThreshold splits the sigmoid output into the two verdicts
	DecisionThreshold = 0.5
)

// Column names, in export order
const (
	ColumnImageID       = "image_id"
	ColumnLabel         = "label"
	ColumnMeanIntensity = "mean_intensity"
	ColumnStdDeviation  = "std_deviation"
	ColumnFileSizeKB    = "file_size_kb"
)

// Columns lists every feature column in export order
var Columns = []string{
	ColumnImageID,
	ColumnLabel,
	ColumnMeanIntensity,
	ColumnStdDeviation,
	ColumnFileSizeKB,
}

// FeatureRecord is one row of the structured feature table.
// Missing numeric measurements are stored as NaN.
type FeatureRecord struct {
	ImageID       string  `json:"image_id"`
	Label         string  `json:"label"`
	MeanIntensity float64 `json:"mean_intensity"`
	StdDeviation  float64 `json:"std_deviation"`
	FileSizeKB    float64 `json:"file_size_kb"`
}

// IsMissing reports whether the named column holds no value
func (r FeatureRecord) IsMissing(column string) bool {
	switch column {
	case ColumnImageID:
		return r.ImageID == ""
	case ColumnLabel:
		return r.Label == ""
	case ColumnMeanIntensity:
		return math.IsNaN(r.MeanIntensity)
	case ColumnStdDeviation:
		return math.IsNaN(r.StdDeviation)
	case ColumnFileSizeKB:
		return math.IsNaN(r.FileSizeKB)
	}
	return false
}

// QualityReport summarises what the cleaning pass found and changed
type QualityReport struct {
	MissingCounts map[string]int `json:"missingCounts"`
	ImputedColumn string         `json:"imputedColumn"`
	ImputedValue  float64        `json:"imputedValue"`
	ImputedCount  int            `json:"imputedCount"`
	Bound         float64        `json:"bound"`
	OutlierCount  int            `json:"outlierCount"`
	RowsBefore    int            `json:"rowsBefore"`
	RowsAfter     int            `json:"rowsAfter"`
}

// GroupSummary holds per-label aggregates of the cleaned table
type GroupSummary struct {
	Label         string  `json:"label"`
	MeanIntensity float64 `json:"mean_intensity"`
	StdDeviation  float64 `json:"std_deviation"`
	ImageCount    int     `json:"image_count"`
}
