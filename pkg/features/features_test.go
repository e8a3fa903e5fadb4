package features

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"StegoLab/pkg/console"
	"StegoLab/pkg/models"
)

func TestGenerateRowCount(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10, 1000} {
		records := Generate(GeneratorConfig{Samples: n, Seed: 42})
		require.Len(t, records, n)
	}
}

func TestGenerateInjectsDefects(t *testing.T) {
	records := Generate(GeneratorConfig{Samples: 50, Seed: 1})

	require.True(t, math.IsNaN(records[0].MeanIntensity))
	require.Equal(t, OutlierIntensity, records[1].MeanIntensity)
	require.Equal(t, "img_0000", records[0].ImageID)
	require.Equal(t, "img_0049", records[49].ImageID)

	for _, r := range records {
		require.Contains(t, []string{models.LabelClean, models.LabelStego}, r.Label)
		require.False(t, math.IsNaN(r.StdDeviation))
		require.False(t, math.IsNaN(r.FileSizeKB))
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	a := Generate(GeneratorConfig{Samples: 20, Seed: 99})
	b := Generate(GeneratorConfig{Samples: 20, Seed: 99})
	for i := 2; i < 20; i++ {
		require.Equal(t, a[i], b[i])
	}
}

func TestMissingCounts(t *testing.T) {
	records := Generate(GeneratorConfig{Samples: 100, Seed: 3})
	counts := MissingCounts(records)

	require.Len(t, counts, len(models.Columns))
	require.Equal(t, 1, counts[models.ColumnMeanIntensity])
	require.Equal(t, 0, counts[models.ColumnStdDeviation])
	require.Equal(t, 0, counts[models.ColumnImageID])
}

func TestCleanThousandSamples(t *testing.T) {
	records := Generate(DefaultGeneratorConfig())
	require.Len(t, records, 1000)

	var sum float64
	var observed int
	for _, r := range records {
		if !math.IsNaN(r.MeanIntensity) {
			sum += r.MeanIntensity
			observed++
		}
	}
	require.Equal(t, 999, observed)
	wantMean := sum / float64(observed)

	cleaned, report, err := Clean(records, PixelIntensityCeiling)
	require.NoError(t, err)

	require.Len(t, cleaned, 999)
	require.Equal(t, 1, report.ImputedCount)
	require.Equal(t, 1, report.OutlierCount)
	require.Equal(t, 1000, report.RowsBefore)
	require.Equal(t, 999, report.RowsAfter)
	require.InDelta(t, wantMean, report.ImputedValue, 1e-9)

	require.Equal(t, "img_0000", cleaned[0].ImageID)
	require.InDelta(t, wantMean, cleaned[0].MeanIntensity, 1e-9)
	for _, r := range cleaned {
		require.NotEqual(t, "img_0001", r.ImageID)
		require.False(t, math.IsNaN(r.MeanIntensity))
		require.LessOrEqual(t, r.MeanIntensity, PixelIntensityCeiling)
	}

	// input is not modified
	require.True(t, math.IsNaN(records[0].MeanIntensity))
}

func TestCleanKeepsValuesAtBound(t *testing.T) {
	records := []models.FeatureRecord{
		{ImageID: "a", Label: models.LabelClean, MeanIntensity: 255},
		{ImageID: "b", Label: models.LabelStego, MeanIntensity: 255.0001},
		{ImageID: "c", Label: models.LabelStego, MeanIntensity: 10},
	}

	cleaned, report, err := Clean(records, PixelIntensityCeiling)
	require.NoError(t, err)
	require.Len(t, cleaned, 2)
	require.Equal(t, "a", cleaned[0].ImageID)
	require.Equal(t, "c", cleaned[1].ImageID)
	require.Equal(t, 1, report.OutlierCount)
	require.Equal(t, 0, report.ImputedCount)
}

func TestCleanImputedValueCanBeAnOutlier(t *testing.T) {
	records := []models.FeatureRecord{
		{ImageID: "a", Label: models.LabelClean, MeanIntensity: math.NaN()},
		{ImageID: "b", Label: models.LabelClean, MeanIntensity: 300},
		{ImageID: "c", Label: models.LabelClean, MeanIntensity: 400},
	}

	cleaned, report, err := Clean(records, PixelIntensityCeiling)
	require.NoError(t, err)
	require.Empty(t, cleaned)
	require.Equal(t, 350.0, report.ImputedValue)
	require.Equal(t, 3, report.OutlierCount)
}

func TestCleanAllMissing(t *testing.T) {
	records := []models.FeatureRecord{
		{ImageID: "a", Label: models.LabelClean, MeanIntensity: math.NaN()},
	}
	_, _, err := Clean(records, PixelIntensityCeiling)
	require.Error(t, err)

	cleaned, report, err := Clean(nil, PixelIntensityCeiling)
	require.NoError(t, err)
	require.Empty(t, cleaned)
	require.Equal(t, 0, report.RowsAfter)
}

func TestAggregate(t *testing.T) {
	records := []models.FeatureRecord{
		{ImageID: "a", Label: models.LabelStego, MeanIntensity: 100, StdDeviation: 40},
		{ImageID: "b", Label: models.LabelClean, MeanIntensity: 110, StdDeviation: 50},
		{ImageID: "c", Label: models.LabelStego, MeanIntensity: 120, StdDeviation: 44},
		{ImageID: "d", Label: models.LabelClean, MeanIntensity: 130, StdDeviation: 46},
		{ImageID: "e", Label: models.LabelStego, MeanIntensity: 140, StdDeviation: 42},
	}

	summaries := Aggregate(records)
	require.Equal(t, []models.GroupSummary{
		{Label: models.LabelClean, MeanIntensity: 120, StdDeviation: 48, ImageCount: 2},
		{Label: models.LabelStego, MeanIntensity: 120, StdDeviation: 42, ImageCount: 3},
	}, summaries)

	require.Empty(t, Aggregate(nil))
}

func TestAggregateSkipsMissingLabels(t *testing.T) {
	records := []models.FeatureRecord{
		{ImageID: "a", Label: models.LabelClean, MeanIntensity: 100, StdDeviation: 40},
		{ImageID: "b", Label: "", MeanIntensity: 250, StdDeviation: 90},
		{ImageID: "c", Label: "  ", MeanIntensity: 10, StdDeviation: 1},
	}

	require.Equal(t, []models.GroupSummary{
		{Label: models.LabelClean, MeanIntensity: 100, StdDeviation: 40, ImageCount: 1},
	}, Aggregate(records))
}

func TestAggregateCountsMatchCleanedRows(t *testing.T) {
	cleaned, _, err := Clean(Generate(GeneratorConfig{Samples: 500, Seed: 11}), PixelIntensityCeiling)
	require.NoError(t, err)

	want := map[string]int{}
	for _, r := range cleaned {
		want[r.Label]++
	}

	summaries := Aggregate(cleaned)
	require.Len(t, summaries, len(want))
	total := 0
	for _, s := range summaries {
		require.Equal(t, want[s.Label], s.ImageCount)
		total += s.ImageCount
	}
	require.Equal(t, len(cleaned), total)
}

func TestAnalyzePrintsReport(t *testing.T) {
	var buf bytes.Buffer
	analysis, err := Analyze(Generate(GeneratorConfig{Samples: 200, Seed: 5}), console.New(&buf))
	require.NoError(t, err)

	require.Len(t, analysis.Cleaned, 199)
	require.NotEmpty(t, analysis.RunID)

	out := buf.String()
	require.Contains(t, out, "DATA QUALITY CHECKS")
	require.Contains(t, out, "mean_intensity   1")
	require.Contains(t, out, "Outliers Detected (Pixel > 255): 1")
	require.Contains(t, out, "image_count")
	require.NotContains(t, out, "std_deviation    0")
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultCSVPath)
	records := Generate(GeneratorConfig{Samples: 30, Seed: 8})

	require.NoError(t, WriteCSV(path, records))
	// second write overwrites
	require.NoError(t, WriteCSV(path, records[:10]))

	loaded, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, loaded, 10)
	require.True(t, math.IsNaN(loaded[0].MeanIntensity))
	for i := 1; i < 10; i++ {
		require.Equal(t, records[i], loaded[i])
	}
}

func TestReadCSVRejectsWrongHeader(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("id,label,a,b,c\nimg_0000,clean,1,2,3\n"), 0o644))
	_, err := ReadCSV(bad)
	require.Error(t, err)

	_, err = ReadCSV(filepath.Join(dir, "absent.csv"))
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, WriteCSV(empty, nil))
	loaded, err := ReadCSV(empty)
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestWriteXLSX(t *testing.T) {
	analysis, err := Analyze(Generate(GeneratorConfig{Samples: 40, Seed: 2}), console.New(&bytes.Buffer{}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "features.xlsx")
	require.NoError(t, WriteXLSX(path, analysis))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"features", "aggregates", "run"}, f.GetSheetList())

	header, err := f.GetCellValue("features", "A1")
	require.NoError(t, err)
	require.Equal(t, models.ColumnImageID, header)

	rows, err := f.GetRows("features")
	require.NoError(t, err)
	require.Len(t, rows, len(analysis.Cleaned)+1)

	runID, err := f.GetCellValue("run", "B2")
	require.NoError(t, err)
	require.Equal(t, analysis.RunID, runID)
}
