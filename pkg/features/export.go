package features

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"StegoLab/pkg/models"
)

// DefaultCSVPath is where the cleaned table is written unless told otherwise
const DefaultCSVPath = "image_features_structured.csv"

// WriteCSV writes records with a header row, replacing any existing file
func WriteCSV(path string, records []models.FeatureRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.ImageID, err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV loads a table written by WriteCSV. Empty numeric cells become NaN.
func ReadCSV(path string) ([]models.FeatureRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(models.Columns)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	for i, column := range models.Columns {
		if rows[0][i] != column {
			return nil, fmt.Errorf("%s: column %d is %q, want %q", path, i, rows[0][i], column)
		}
	}

	records := make([]models.FeatureRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		var values [3]float64
		for i, cell := range row[2:] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%s line %d, %s: %w", path, line+2, models.Columns[i+2], err)
			}
			values[i] = v
		}
		records = append(records, models.FeatureRecord{
			ImageID:       row[0],
			Label:         row[1],
			MeanIntensity: values[0],
			StdDeviation:  values[1],
			FileSizeKB:    values[2],
		})
	}
	return records, nil
}

// WriteXLSX saves the cleaned records and the per-label aggregates as a workbook
// with "features", "aggregates" and "run" sheets.
func WriteXLSX(path string, analysis *Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "features"); err != nil {
		return err
	}
	rows := make([][]interface{}, 0, len(analysis.Cleaned))
	for _, r := range analysis.Cleaned {
		rows = append(rows, []interface{}{r.ImageID, r.Label, r.MeanIntensity, r.StdDeviation, r.FileSizeKB})
	}
	if err := writeSheet(f, "features", models.Columns, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet("aggregates"); err != nil {
		return err
	}
	rows = rows[:0]
	for _, s := range analysis.Summaries {
		rows = append(rows, []interface{}{s.Label, s.MeanIntensity, s.StdDeviation, s.ImageCount})
	}
	header := []string{models.ColumnLabel, models.ColumnMeanIntensity, models.ColumnStdDeviation, "image_count"}
	if err := writeSheet(f, "aggregates", header, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet("run"); err != nil {
		return err
	}
	rows = [][]interface{}{
		{"run_id", analysis.RunID},
		{"generated_at", time.Now().UTC().Format(time.RFC3339)},
		{"rows_before", analysis.Report.RowsBefore},
		{"rows_after", analysis.Report.RowsAfter},
		{"imputed_value", analysis.Report.ImputedValue},
		{"outliers_removed", analysis.Report.OutlierCount},
	}
	if err := writeSheet(f, "run", []string{"key", "value"}, rows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func recordRow(r models.FeatureRecord) []string {
	return []string{
		r.ImageID,
		r.Label,
		formatCell(r.MeanIntensity),
		formatCell(r.StdDeviation),
		formatCell(r.FileSizeKB),
	}
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseCell(cell string) (float64, error) {
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
