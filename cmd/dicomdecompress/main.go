package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	internaldicom "github.com/Jingxiang-Zhang/dicom-decompression-tool/internal/dicom"
)

// version is set at build time via -ldflags
var version = "dev"

// newLogger returns a debug-level console logger when verbose is set,
// the info-level production logger otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	inputDir := pflag.StringP("input_dir", "i", "", "Path of the DICOM folder (required)")
	outputDir := pflag.StringP("output_dir", "o", "", "Path to the output folder. If not provided, the output will overwrite the original file.")
	verbose := pflag.BoolP("verbose", "v", false, "Enable verbose output for debugging")
	showVersion := pflag.Bool("version", false, "Show version")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("dicomdecompress %s\n", version)
		os.Exit(0)
	}

	if *inputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --input_dir is required")
		pflag.Usage()
		os.Exit(1)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			log.Fatalw("create output directory", "path", *outputDir, "error", err)
		}
	}

	classifier := internaldicom.NewClassifier(log)
	converter := internaldicom.NewConverter(log)
	walker := internaldicom.NewWalker(classifier, converter, log)

	stats, err := walker.Run(*inputDir, *outputDir)
	if err != nil {
		log.Fatalw("walk input directory", "path", *inputDir, "error", err)
	}

	log.Infow("done",
		"scanned", stats.Scanned,
		"converted", stats.Converted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
}
