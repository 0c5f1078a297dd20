package dicom

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Jingxiang-Zhang/dicom-decompression-tool/internal/util"
)

// Stats summarizes one directory walk.
type Stats struct {
	Scanned   int // .dcm files examined
	Converted int // files rewritten uncompressed
	Skipped   int // files already uncompressed or unreadable
	Failed    int // conversion failures
}

// Walker scans a directory tree for compressed DICOM files and
// rewrites them through the converter, one file at a time.
type Walker struct {
	classifier *Classifier
	converter  *Converter
	log        *zap.SugaredLogger
}

// NewWalker wires a classifier and converter into a walker.
func NewWalker(classifier *Classifier, converter *Converter, log *zap.SugaredLogger) *Walker {
	return &Walker{classifier: classifier, converter: converter, log: log}
}

// Run walks inputRoot and converts every compressed file whose name
// ends in .dcm (case-insensitive). When outputRoot is non-empty,
// converted files mirror the input's relative layout under it;
// otherwise files are rewritten in place. Enumeration order is
// whatever the filesystem yields.
//
// Individual file failures are logged and counted, never fatal. Only a
// failure to enumerate inputRoot itself aborts the walk.
func (w *Walker) Run(inputRoot, outputRoot string) (Stats, error) {
	var stats Stats

	err := filepath.WalkDir(inputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == inputRoot {
				return err
			}
			w.log.Errorw("walk", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".dcm") {
			return nil
		}

		stats.Scanned++

		if !w.classifier.IsCompressed(path) {
			w.log.Debugw("file is already uncompressed", "path", path)
			stats.Skipped++
			return nil
		}
		w.log.Debugw("compressed file found", "path", path)

		outputPath, err := util.MirrorPath(inputRoot, outputRoot, path)
		if err != nil {
			w.log.Errorw("map output path", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		if outputPath != path {
			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				w.log.Errorw("create output directory", "path", filepath.Dir(outputPath), "error", err)
				stats.Failed++
				return nil
			}
		}

		// Each file is converted without a reference: handing the
		// first file's series identity to every later file in the
		// walk would merge unrelated series.
		if _, err := w.converter.Decompress(path, outputPath, nil); err != nil {
			w.log.Errorw("failed to decompress file", "path", path, "error", err)
			stats.Failed++
			return nil
		}

		stats.Converted++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", inputRoot, err)
	}

	return stats, nil
}
