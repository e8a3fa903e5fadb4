package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"STEGOLAB_SAMPLES", "STEGOLAB_SEED", "STEGOLAB_OUTPUT", "STEGOLAB_XLSX", "STEGOLAB_INPUT_SHAPE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 1000, cfg.Samples)
	require.Equal(t, "image_features_structured.csv", cfg.OutputPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STEGOLAB_SAMPLES", "250")
	t.Setenv("STEGOLAB_SEED", "7")
	t.Setenv("STEGOLAB_OUTPUT", "out.csv")
	t.Setenv("STEGOLAB_XLSX", "out.xlsx")
	t.Setenv("STEGOLAB_INPUT_SHAPE", "64x64x1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 250, cfg.Samples)
	require.Equal(t, uint64(7), cfg.Seed)
	require.Equal(t, "out.csv", cfg.OutputPath)
	require.Equal(t, "out.xlsx", cfg.XLSXPath)
	require.Equal(t, "64x64x1", cfg.InputShape)
}

func TestLoadRejectsBadSamples(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STEGOLAB_SAMPLES", "many")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STEGOLAB_SAMPLES", "-3")
	_, err = Load()
	require.Error(t, err)
}
