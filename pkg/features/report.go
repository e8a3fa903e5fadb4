package features

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"StegoLab/pkg/console"
	"StegoLab/pkg/models"
)

// Analysis is the outcome of one quality-check and aggregation pass
type Analysis struct {
	RunID     string
	Cleaned   []models.FeatureRecord
	Report    models.QualityReport
	Summaries []models.GroupSummary
}

// Analyze cleans the records and aggregates them by label, printing the
// quality report and the aggregate table as it goes.
func Analyze(records []models.FeatureRecord, p *console.Printer) (*Analysis, error) {
	p.Println("\n--- 1. DATA QUALITY CHECKS ---")

	cleaned, report, err := Clean(records, PixelIntensityCeiling)
	if err != nil {
		return nil, err
	}

	printMissing(p, report.MissingCounts)
	p.Info("Filled %d missing %s value(s) with mean %.4f", report.ImputedCount, report.ImputedColumn, report.ImputedValue)
	if report.OutlierCount > 0 {
		p.Warning("Outliers Detected (Pixel > %g): %d", report.Bound, report.OutlierCount)
	} else {
		p.Info("Outliers Detected (Pixel > %g): 0", report.Bound)
	}
	p.Info("Removed outliers, %d of %d rows kept", report.RowsAfter, report.RowsBefore)

	p.Println("\n--- 2. FEATURE-LEVEL INSIGHTS ---")
	summaries := Aggregate(cleaned)
	p.Println("Aggregated Statistics by Class:")
	if err := WriteSummaryTable(p, summaries); err != nil {
		return nil, err
	}

	return &Analysis{
		RunID:     uuid.NewString(),
		Cleaned:   cleaned,
		Report:    report,
		Summaries: summaries,
	}, nil
}

func printMissing(p *console.Printer, counts map[string]int) {
	p.Println("Missing Values:")
	found := false
	for _, column := range models.Columns {
		if n := counts[column]; n > 0 {
			p.Printf("  %-16s %d\n", column, n)
			found = true
		}
	}
	if !found {
		p.Println("  none")
	}
}

// WriteSummaryTable prints the per-label aggregates as an aligned table
func WriteSummaryTable(p *console.Printer, summaries []models.GroupSummary) error {
	tw := tabwriter.NewWriter(p.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", models.ColumnLabel, models.ColumnMeanIntensity, models.ColumnStdDeviation, "image_count")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%d\n", s.Label, s.MeanIntensity, s.StdDeviation, s.ImageCount)
	}
	return tw.Flush()
}
