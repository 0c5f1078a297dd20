package tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"

	internaldicom "github.com/Jingxiang-Zhang/dicom-decompression-tool/internal/dicom"
	"github.com/Jingxiang-Zhang/dicom-decompression-tool/internal/dicomtest"
)

func newWalker() *internaldicom.Walker {
	log := zap.NewNop().Sugar()
	return internaldicom.NewWalker(
		internaldicom.NewClassifier(log),
		internaldicom.NewConverter(log),
		log,
	)
}

func transferSyntax(t *testing.T, path string) string {
	t.Helper()
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	elem, err := ds.FindElementByTag(tag.TransferSyntaxUID)
	if err != nil {
		t.Fatalf("find TransferSyntaxUID in %s: %v", path, err)
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		t.Fatalf("TransferSyntaxUID in %s holds %T", path, elem.Value.GetValue())
	}
	return values[0]
}

// TestWalk_MixedTree runs the walker over a tree containing compressed,
// uncompressed, corrupted and non-DICOM files and checks every outcome.
func TestWalk_MixedTree(t *testing.T) {
	inputRoot := t.TempDir()

	seriesDir := filepath.Join(inputRoot, "study1", "series1")
	if err := os.MkdirAll(seriesDir, 0755); err != nil {
		t.Fatalf("create input tree: %v", err)
	}

	compressed := []string{
		filepath.Join(seriesDir, "img1.dcm"),
		filepath.Join(seriesDir, "img2.dcm"),
	}
	for i, path := range compressed {
		spec := dicomtest.Spec{InstanceNumber: []string{"1", "2"}[i]}
		if err := dicomtest.WriteJPEGBaseline(path, spec); err != nil {
			t.Fatalf("write compressed fixture: %v", err)
		}
	}

	plain := filepath.Join(seriesDir, "plain.dcm")
	if err := dicomtest.WriteNative(plain, dicomtest.Spec{}); err != nil {
		t.Fatalf("write uncompressed fixture: %v", err)
	}

	if err := os.WriteFile(filepath.Join(seriesDir, "broken.dcm"), []byte("garbage"), 0644); err != nil {
		t.Fatalf("write corrupted fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inputRoot, "README.txt"), []byte("notes"), 0644); err != nil {
		t.Fatalf("write text file: %v", err)
	}

	t.Logf("Walking mixed tree in: %s", inputRoot)

	stats, err := newWalker().Run(inputRoot, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// broken.dcm reads as not compressed and is skipped alongside plain.dcm.
	if stats.Scanned != 4 {
		t.Errorf("Scanned = %d, want 4", stats.Scanned)
	}
	if stats.Converted != 2 {
		t.Errorf("Converted = %d, want 2", stats.Converted)
	}
	if stats.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", stats.Skipped)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stats.Failed)
	}

	for _, path := range compressed {
		if got := transferSyntax(t, path); got != internaldicom.ExplicitVRLittleEndian {
			t.Errorf("%s transfer syntax = %q, want %q", path, got, internaldicom.ExplicitVRLittleEndian)
		}
	}

	t.Logf("✓ Mixed tree walk converted %d files", stats.Converted)
}

// TestWalk_MirroredOutputIsIdempotent converts into an output root and
// then re-walks the output, which must find nothing left to convert.
func TestWalk_MirroredOutputIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	inputRoot := filepath.Join(tmpDir, "in")
	outputRoot := filepath.Join(tmpDir, "out")

	if err := os.MkdirAll(filepath.Join(inputRoot, "series1"), 0755); err != nil {
		t.Fatalf("create input tree: %v", err)
	}
	input := filepath.Join(inputRoot, "series1", "img1.dcm")
	if err := dicomtest.WriteJPEGBaseline(input, dicomtest.Spec{}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	w := newWalker()
	stats, err := w.Run(inputRoot, outputRoot)
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if stats.Converted != 1 {
		t.Fatalf("first run stats = %+v, want 1 converted", stats)
	}

	output := filepath.Join(outputRoot, "series1", "img1.dcm")
	if got := transferSyntax(t, output); got != internaldicom.ExplicitVRLittleEndian {
		t.Errorf("output transfer syntax = %q, want %q", got, internaldicom.ExplicitVRLittleEndian)
	}

	// The input tree must be untouched by a mirrored run.
	if got := transferSyntax(t, input); got != dicomtest.JPEGBaseline {
		t.Errorf("input transfer syntax = %q, want %q", got, dicomtest.JPEGBaseline)
	}

	stats, err = w.Run(outputRoot, "")
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if stats.Scanned != 1 || stats.Skipped != 1 || stats.Converted != 0 {
		t.Errorf("second run stats = %+v, want everything skipped", stats)
	}

	t.Logf("✓ Mirrored output is already uncompressed")
}

// TestConvert_SeriesConsistency threads a reference through two files
// of the same series and checks the outputs agree on series identity.
func TestConvert_SeriesConsistency(t *testing.T) {
	tmpDir := t.TempDir()

	spec := dicomtest.Spec{
		StudyInstanceUID:  "1.2.826.0.1.3680043.8.498.501",
		SeriesInstanceUID: "1.2.826.0.1.3680043.8.498.502",
		SeriesNumber:      "3",
	}
	inputs := []string{
		filepath.Join(tmpDir, "img1.dcm"),
		filepath.Join(tmpDir, "img2.dcm"),
	}
	for i, path := range inputs {
		spec.InstanceNumber = []string{"1", "2"}[i]
		if err := dicomtest.WriteJPEGBaseline(path, spec); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	conv := internaldicom.NewConverter(zap.NewNop().Sugar())

	var ref *internaldicom.SeriesReference
	outputs := make([]string, len(inputs))
	for i, input := range inputs {
		outputs[i] = filepath.Join(tmpDir, filepath.Base(input)+".out")
		var err error
		ref, err = conv.Decompress(input, outputs[i], ref)
		if err != nil {
			t.Fatalf("Decompress %s: %v", input, err)
		}
	}

	for _, check := range []struct {
		name string
		tag  tag.Tag
		want string
	}{
		{"StudyInstanceUID", tag.StudyInstanceUID, spec.StudyInstanceUID},
		{"SeriesInstanceUID", tag.SeriesInstanceUID, spec.SeriesInstanceUID},
		{"SeriesNumber", tag.SeriesNumber, spec.SeriesNumber},
	} {
		for _, path := range outputs {
			ds, err := dicom.ParseFile(path, nil)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}
			elem, err := ds.FindElementByTag(check.tag)
			if err != nil {
				t.Fatalf("find %s in %s: %v", check.name, path, err)
			}
			values := elem.Value.GetValue().([]string)
			if len(values) != 1 || values[0] != check.want {
				t.Errorf("%s %s = %v, want [%s]", path, check.name, values, check.want)
			}
		}
	}

	t.Logf("✓ Series identity consistent across %d outputs", len(outputs))
}
