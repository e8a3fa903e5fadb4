package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"StegoLab/pkg/analyzer"
	"StegoLab/pkg/config"
	"StegoLab/pkg/console"
	"StegoLab/pkg/detector"
	"StegoLab/pkg/filehandler"
	"StegoLab/pkg/models"
)

func newPredictCmd(p *console.Printer) *cobra.Command {
	var (
		filePath  string
		dirPath   string
		input     string
		seed      uint64
		verbose   bool
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify images as clean or stego with the CNN",
		Long: `Run the steganalysis network on a single image or every image in a directory.

The network weights are freshly initialised, so verdicts only become
meaningful once trained weights are available.

Example: stegolab predict --file suspect.png
         stegolab predict --dir ./images --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" && dirPath == "" {
				return errors.New("one of --file or --dir is required")
			}
			shape, err := inputShape(cmd, input)
			if err != nil {
				return err
			}
			det, err := detector.New(shape, seed, p)
			if err != nil {
				return err
			}

			registry := analyzer.NewRegistry()
			registry.Register(det)

			if filePath != "" {
				p.Info("Analyzing file: %s", filePath)
				p.Println(predictFile(p, det, filePath, registry, verbose))
			}

			if dirPath != "" {
				p.Info("Analyzing directory: %s", dirPath)
				files, err := imagesInDirectory(dirPath, recursive)
				if err != nil {
					return err
				}
				p.Info("Found %d images to analyze", len(files))

				var results []models.AnalysisResult
				failed := 0
				for _, file := range files {
					result := analyzeFile(p, file, registry, verbose)
					if result == nil {
						failed++
						continue
					}
					results = append(results, *result)
				}
				printSummary(p, results, failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path to a single image")
	cmd.Flags().StringVar(&dirPath, "dir", "", "Directory of images")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "Descend into subdirectories of --dir")
	cmd.Flags().StringVar(&input, "input", config.DefaultInputShape, "Network input shape as HxWxC")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the weight initialisation, 0 seeds from the clock")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show finding details")

	return cmd
}

// predictFile returns the verdict for one image. Paths whose format cannot be
// detected still go through the detector so the load failure is reported.
func predictFile(p *console.Printer, det *detector.Detector, filePath string, registry *analyzer.Registry, verbose bool) string {
	if _, err := filehandler.DetectFileFormat(filePath); err != nil {
		return det.Predict(filePath)
	}
	if result := analyzeFile(p, filePath, registry, verbose); result != nil {
		return result.Verdict
	}
	return models.VerdictError
}

func imagesInDirectory(dirPath string, recursive bool) ([]string, error) {
	if recursive {
		return filehandler.FilesInDirectory(dirPath, filehandler.ImageExtensions())
	}
	files, err := filehandler.GatherFiles(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	images := files[:0]
	for _, f := range files {
		if filehandler.IsImageFile(f) {
			images = append(images, f)
		}
	}
	return images, nil
}

func analyzeFile(p *console.Printer, filePath string, registry *analyzer.Registry, verbose bool) *models.AnalysisResult {
	format, err := filehandler.DetectFileFormat(filePath)
	if err != nil {
		p.Error("Failed to detect file format: %v", err)
		return nil
	}

	analyzers := registry.GetAnalyzersForFormat(format)
	if len(analyzers) == 0 {
		p.Warning("No analyzers available for format: %s", format)
		return nil
	}

	startTime := time.Now()
	var finalResult *models.AnalysisResult
	for _, a := range analyzers {
		result, err := a.Analyze(filePath, analyzer.AnalysisOptions{Verbose: verbose, Format: format})
		if err != nil {
			p.Error("Analysis with %s failed: %v", a.Name(), err)
			continue
		}
		displayAnalysisResult(p, result, verbose)

		// keep the most suspicious score
		if finalResult == nil || result.DetectionScore > finalResult.DetectionScore {
			finalResult = result
		}
	}
	if verbose {
		p.Info("Analysis completed in %v", time.Since(startTime))
	}
	return finalResult
}

func displayAnalysisResult(p *console.Printer, result *models.AnalysisResult, verbose bool) {
	p.Println("\n--- Analysis Results ---")
	p.Printf("File: %s\n", result.Filename)
	p.Printf("Format: %s\n", result.FileType)

	switch {
	case result.DetectionScore > 0.8:
		p.Alert("%s (%.2f)", result.Verdict, result.DetectionScore)
	case result.IsStego():
		p.Warning("%s (%.2f)", result.Verdict, result.DetectionScore)
	default:
		p.Success("%s (%.2f)", result.Verdict, result.DetectionScore)
	}
	p.Printf("Detection confidence: %.2f\n", result.Confidence)

	if verbose && len(result.Findings) > 0 {
		p.Println("\nFindings:")
		for i, finding := range result.Findings {
			p.Printf("%d. %s (Confidence: %.2f)\n", i+1, finding.Description, finding.Confidence)
			if finding.Details != "" {
				p.Printf("   Details: %s\n", finding.Details)
			}
		}
	}
	p.Println("-------------------------")
}

func printSummary(p *console.Printer, results []models.AnalysisResult, failed int) {
	var clean, stego int
	for _, result := range results {
		if result.IsStego() {
			stego++
		} else {
			clean++
		}
	}

	p.Println("\n=== Analysis Summary ===")
	p.Printf("Total files analyzed: %d\n", len(results))
	p.Printf("%s %s: %d\n", p.Tag(0), models.VerdictClean, clean)
	if stego > 0 {
		p.Printf("%s %s: %d\n", p.Tag(1), models.VerdictStego, stego)
		p.Println("\nFiles flagged as stego:")
		for _, result := range results {
			if result.IsStego() {
				p.Printf("- %s (Score: %.2f)\n", result.Filename, result.DetectionScore)
			}
		}
	}
	if failed > 0 {
		p.Error("%s: %d", models.VerdictError, failed)
	}
}
