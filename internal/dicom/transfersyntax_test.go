package dicom

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Jingxiang-Zhang/dicom-decompression-tool/internal/dicomtest"
)

func TestNewClassifier_CompressedSet(t *testing.T) {
	c := NewClassifier(zap.NewNop().Sugar())

	if len(c.compressed) != len(compressedTransferSyntaxes) {
		t.Fatalf("classifier set has %d entries, want %d", len(c.compressed), len(compressedTransferSyntaxes))
	}
	for _, uid := range compressedTransferSyntaxes {
		if _, ok := c.compressed[uid]; !ok {
			t.Errorf("compressed set missing %s", uid)
		}
	}

	uncompressed := []string{
		ExplicitVRLittleEndian,
		"1.2.840.10008.1.2",   // Implicit VR Little Endian
		"1.2.840.10008.1.2.2", // Explicit VR Big Endian
		"",
	}
	for _, uid := range uncompressed {
		if _, ok := c.compressed[uid]; ok {
			t.Errorf("compressed set should not contain %q", uid)
		}
	}
}

func TestIsCompressed_CompressedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.dcm")
	if err := dicomtest.WriteJPEGBaseline(path, dicomtest.Spec{}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := NewClassifier(zap.NewNop().Sugar())
	if !c.IsCompressed(path) {
		t.Errorf("IsCompressed(%s) = false, want true for JPEG baseline", path)
	}
}

func TestIsCompressed_UncompressedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.dcm")
	if err := dicomtest.WriteNative(path, dicomtest.Spec{}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := NewClassifier(zap.NewNop().Sugar())
	if c.IsCompressed(path) {
		t.Errorf("IsCompressed(%s) = true, want false for explicit VR little endian", path)
	}
}

func TestIsCompressed_UnreadableFiles(t *testing.T) {
	tmpDir := t.TempDir()

	corrupted := filepath.Join(tmpDir, "corrupted.dcm")
	if err := os.WriteFile(corrupted, []byte("this is not a DICOM file"), 0644); err != nil {
		t.Fatalf("write corrupted file: %v", err)
	}

	empty := filepath.Join(tmpDir, "empty.dcm")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"corrupted header", corrupted},
		{"empty file", empty},
		{"missing file", filepath.Join(tmpDir, "does-not-exist.dcm")},
	}

	c := NewClassifier(zap.NewNop().Sugar())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if c.IsCompressed(tc.path) {
				t.Errorf("IsCompressed(%s) = true, want false", tc.path)
			}
		})
	}
}
