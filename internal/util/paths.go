package util

import (
	"fmt"
	"path/filepath"
)

// MirrorPath maps path, which must live under inputRoot, to the same
// relative location under outputRoot. An empty outputRoot means the
// file is rewritten in place, so path is returned unchanged.
func MirrorPath(inputRoot, outputRoot, path string) (string, error) {
	if outputRoot == "" {
		return path, nil
	}
	rel, err := filepath.Rel(inputRoot, path)
	if err != nil {
		return "", fmt.Errorf("relativize %s against %s: %w", path, inputRoot, err)
	}
	return filepath.Join(outputRoot, rel), nil
}
