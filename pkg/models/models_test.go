package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureRecordIsMissing(t *testing.T) {
	r := FeatureRecord{ImageID: "img_0000", Label: LabelClean, MeanIntensity: math.NaN(), StdDeviation: 44.1, FileSizeKB: 25}

	require.True(t, r.IsMissing(ColumnMeanIntensity))
	require.False(t, r.IsMissing(ColumnStdDeviation))
	require.False(t, r.IsMissing(ColumnFileSizeKB))
	require.False(t, r.IsMissing(ColumnImageID))
	require.False(t, r.IsMissing("unknown"))

	r.Label = ""
	require.True(t, r.IsMissing(ColumnLabel))
}

func TestAnalysisResultFindings(t *testing.T) {
	r := &AnalysisResult{DetectionScore: 0.73}
	r.AddFinding("network score above threshold", 0.46, "p=0.73")

	require.Len(t, r.Findings, 1)
	require.Equal(t, "network score above threshold", r.Findings[0].Description)
	require.True(t, r.IsStego())

	r.DetectionScore = DecisionThreshold
	require.False(t, r.IsStego())
}
