package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"StegoLab/pkg/cnn"
	"StegoLab/pkg/config"
	"StegoLab/pkg/console"
	"StegoLab/pkg/features"
	"StegoLab/pkg/models"
)

func main() {
	p := console.Stdout()
	if err := newRootCmd(p).Execute(); err != nil {
		p.Error("%v", err)
		os.Exit(1)
	}
}

func newRootCmd(p *console.Printer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stegolab",
		Short:         "Steganalysis feature pipeline and CNN detector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(p.Writer())

	rootCmd.AddCommand(
		newFeaturesCmd(p),
		newModelCmd(p),
		newPredictCmd(p),
	)
	return rootCmd
}

func newFeaturesCmd(p *console.Printer) *cobra.Command {
	var (
		samples  int
		seed     uint64
		outPath  string
		xlsxPath string
		inPath   string
	)

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Generate, clean and aggregate the synthetic feature table",
		Long: `Generate a synthetic clean/stego feature table, run the quality checks
(mean imputation of mean_intensity, removal of pixel values above 255),
print per-class aggregates and export the cleaned table as CSV.

Defaults come from STEGOLAB_SAMPLES, STEGOLAB_SEED, STEGOLAB_OUTPUT and
STEGOLAB_XLSX (optionally via a .env file); flags take precedence.

Example: stegolab features --samples 1000 --seed 42 --xlsx report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("samples") {
				cfg.Samples = samples
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			if flags.Changed("out") {
				cfg.OutputPath = outPath
			}
			if flags.Changed("xlsx") {
				cfg.XLSXPath = xlsxPath
			}
			return runFeatures(p, cfg, inPath)
		},
	}

	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "Number of synthetic images to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed, 0 seeds from the clock")
	cmd.Flags().StringVar(&outPath, "out", config.DefaultOutputPath, "Path of the cleaned CSV")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Optional path of an XLSX workbook with features, aggregates and run info")
	cmd.Flags().StringVar(&inPath, "in", "", "Analyze an existing feature CSV instead of generating one")

	return cmd
}

func runFeatures(p *console.Printer, cfg *config.Config, inPath string) error {
	var records []models.FeatureRecord
	if inPath != "" {
		p.Info("Reading features from %s", inPath)
		var err error
		records, err = features.ReadCSV(inPath)
		if err != nil {
			return err
		}
	} else {
		if cfg.Samples <= 0 {
			return fmt.Errorf("samples must be positive, got %d", cfg.Samples)
		}
		p.Info("Generating %d synthetic samples", cfg.Samples)
		records = features.Generate(features.GeneratorConfig{
			Samples: cfg.Samples,
			Seed:    cfg.Seed,
		})
	}

	analysis, err := features.Analyze(records, p)
	if err != nil {
		return fmt.Errorf("feature analysis failed: %w", err)
	}

	if err := features.WriteCSV(cfg.OutputPath, analysis.Cleaned); err != nil {
		return err
	}
	p.Success("[SUCCESS] Structured data exported to '%s'", cfg.OutputPath)

	if cfg.XLSXPath != "" {
		if err := features.WriteXLSX(cfg.XLSXPath, analysis); err != nil {
			return err
		}
		p.Success("Workbook for run %s written to '%s'", analysis.RunID, cfg.XLSXPath)
	}
	return nil
}

func newModelCmd(p *console.Printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect the steganalysis network",
	}

	var (
		input string
		seed  uint64
	)
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Build the network and print its layer summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := inputShape(cmd, input)
			if err != nil {
				return err
			}
			model, err := cnn.NewSteganalysisNetwork(shape, seed)
			if err != nil {
				return err
			}
			return model.Summary(p.Writer())
		},
	}
	summaryCmd.Flags().StringVar(&input, "input", config.DefaultInputShape, "Input shape as HxWxC")
	summaryCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the weight initialisation, 0 seeds from the clock")

	cmd.AddCommand(summaryCmd)
	return cmd
}

// inputShape resolves the --input flag, falling back to STEGOLAB_INPUT_SHAPE
func inputShape(cmd *cobra.Command, flagValue string) (cnn.Shape, error) {
	value := flagValue
	if !cmd.Flags().Changed("input") {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		value = cfg.InputShape
	}
	return cnn.ParseShape(value)
}
