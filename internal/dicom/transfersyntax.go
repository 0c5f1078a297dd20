package dicom

import (
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"
)

// ExplicitVRLittleEndian is the uncompressed transfer syntax every
// converted file is rewritten to.
const ExplicitVRLittleEndian = "1.2.840.10008.1.2.1"

// compressedTransferSyntaxes lists every transfer syntax UID treated as
// compressed. Reference: https://www.dicomlibrary.com/dicom/transfer-syntax/
var compressedTransferSyntaxes = []string{
	// JPEG
	"1.2.840.10008.1.2.4.50", // JPEG Baseline (Process 1)
	"1.2.840.10008.1.2.4.51", // JPEG Baseline (Processes 2 & 4)
	"1.2.840.10008.1.2.4.52", // JPEG Extended (Processes 3 & 5) (Retired)
	"1.2.840.10008.1.2.4.53", // JPEG Spectral Selection, Nonhierarchical (Processes 6 & 8) (Retired)
	"1.2.840.10008.1.2.4.54", // JPEG Spectral Selection, Nonhierarchical (Processes 7 & 9) (Retired)
	"1.2.840.10008.1.2.4.55", // JPEG Full Progression, Nonhierarchical (Processes 10 & 12) (Retired)
	"1.2.840.10008.1.2.4.56", // JPEG Full Progression, Nonhierarchical (Processes 11 & 13) (Retired)
	"1.2.840.10008.1.2.4.57", // JPEG Lossless, Nonhierarchical (Process 14)
	"1.2.840.10008.1.2.4.58", // JPEG Lossless, Nonhierarchical (Process 15) (Retired)
	"1.2.840.10008.1.2.4.59", // JPEG Extended, Hierarchical (Processes 16 & 18) (Retired)
	"1.2.840.10008.1.2.4.60", // JPEG Extended, Hierarchical (Processes 17 & 19) (Retired)
	"1.2.840.10008.1.2.4.61", // JPEG Spectral Selection, Hierarchical (Processes 20 & 22) (Retired)
	"1.2.840.10008.1.2.4.62", // JPEG Spectral Selection, Hierarchical (Processes 21 & 23) (Retired)
	"1.2.840.10008.1.2.4.63", // JPEG Full Progression, Hierarchical (Processes 24 & 26) (Retired)
	"1.2.840.10008.1.2.4.64", // JPEG Full Progression, Hierarchical (Processes 25 & 27) (Retired)
	"1.2.840.10008.1.2.4.65", // JPEG Lossless, Nonhierarchical (Process 28) (Retired)
	"1.2.840.10008.1.2.4.66", // JPEG Lossless, Nonhierarchical (Process 29) (Retired)
	"1.2.840.10008.1.2.4.70", // JPEG Lossless, Nonhierarchical, First-Order Prediction

	// JPEG-LS
	"1.2.840.10008.1.2.4.80", // JPEG-LS Lossless Image Compression
	"1.2.840.10008.1.2.4.81", // JPEG-LS Lossy (Near-Lossless) Image Compression

	// JPEG 2000
	"1.2.840.10008.1.2.4.90", // JPEG 2000 Image Compression (Lossless Only)
	"1.2.840.10008.1.2.4.91", // JPEG 2000 Image Compression
	"1.2.840.10008.1.2.4.92", // JPEG 2000 Part 2 Multicomponent Image Compression (Lossless Only)
	"1.2.840.10008.1.2.4.93", // JPEG 2000 Part 2 Multicomponent Image Compression

	// JPIP
	"1.2.840.10008.1.2.4.94", // JPIP Referenced
	"1.2.840.10008.1.2.4.95", // JPIP Referenced Deflate

	// RLE
	"1.2.840.10008.1.2.5", // RLE Lossless

	// MPEG
	"1.2.840.10008.1.2.4.100", // MPEG2 Main Profile Main Level
	"1.2.840.10008.1.2.4.102", // MPEG-4 AVC/H.264 High Profile / Level 4.1
	"1.2.840.10008.1.2.4.103", // MPEG-4 AVC/H.264 BD-compatible High Profile / Level 4.1

	// High-Throughput JPEG 2000
	"1.2.840.10008.1.2.4.201", // High-Throughput JPEG 2000 Image Compression (Lossless Only)
	"1.2.840.10008.1.2.4.202", // High-Throughput JPEG 2000 with RPCL Options Image Compression (Lossless Only)
	"1.2.840.10008.1.2.4.203", // High-Throughput JPEG 2000 Image Compression
}

// Classifier reports whether a DICOM file stores its pixel data in a
// compressed transfer syntax. The compressed set is built once at
// construction and never mutated.
type Classifier struct {
	compressed map[string]struct{}
	log        *zap.SugaredLogger
}

// NewClassifier builds a classifier over the known compressed transfer
// syntaxes.
func NewClassifier(log *zap.SugaredLogger) *Classifier {
	set := make(map[string]struct{}, len(compressedTransferSyntaxes))
	for _, uid := range compressedTransferSyntaxes {
		set[uid] = struct{}{}
	}
	return &Classifier{compressed: set, log: log}
}

// IsCompressed reads only the file meta group of path and reports
// whether its transfer syntax is in the compressed set. Files that
// cannot be read are logged and reported as not compressed, so the
// walker leaves them alone.
func (c *Classifier) IsCompressed(path string) bool {
	ts, err := readTransferSyntax(path)
	if err != nil {
		c.log.Errorw("error reading file", "path", path, "error", err)
		return false
	}
	_, ok := c.compressed[ts]
	return ok
}

// readTransferSyntax extracts TransferSyntaxUID from the file meta
// information without loading the pixel payload.
func readTransferSyntax(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	p, err := dicom.NewParser(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return "", err
	}

	meta := p.GetMetadata()
	elem, err := meta.FindElementByTag(tag.TransferSyntaxUID)
	if err != nil {
		return "", err
	}
	return firstString(elem), nil
}
