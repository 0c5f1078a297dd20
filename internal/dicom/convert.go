package dicom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"

	"github.com/Jingxiang-Zhang/dicom-decompression-tool/internal/imaging"
)

// SeriesReference is a snapshot of the fields that must agree across
// every slice of one series. Values are kept exactly as parsed so
// stamping writes back what the reference file carried.
type SeriesReference struct {
	SeriesInstanceUID       []string
	StudyInstanceUID        []string
	SeriesNumber            []string
	ImageOrientationPatient []string
	ImagePositionPatient    []string
}

// captureReference snapshots the series-level fields of ds. Fields the
// dataset does not carry stay nil.
func captureReference(ds *dicom.Dataset) *SeriesReference {
	return &SeriesReference{
		SeriesInstanceUID:       stringValues(ds, tag.SeriesInstanceUID),
		StudyInstanceUID:        stringValues(ds, tag.StudyInstanceUID),
		SeriesNumber:            stringValues(ds, tag.SeriesNumber),
		ImageOrientationPatient: stringValues(ds, tag.ImageOrientationPatient),
		ImagePositionPatient:    stringValues(ds, tag.ImagePositionPatient),
	}
}

// stamp overwrites the series-level fields of ds with the reference
// values. Fields the reference does not carry are left untouched.
func (r *SeriesReference) stamp(ds *dicom.Dataset) {
	if r.SeriesInstanceUID != nil {
		setElement(ds, mustNewElement(tag.SeriesInstanceUID, r.SeriesInstanceUID))
	}
	if r.StudyInstanceUID != nil {
		setElement(ds, mustNewElement(tag.StudyInstanceUID, r.StudyInstanceUID))
	}
	if r.SeriesNumber != nil {
		setElement(ds, mustNewElement(tag.SeriesNumber, r.SeriesNumber))
	}
	if r.ImageOrientationPatient != nil {
		setElement(ds, mustNewElement(tag.ImageOrientationPatient, r.ImageOrientationPatient))
	}
	if r.ImagePositionPatient != nil {
		setElement(ds, mustNewElement(tag.ImagePositionPatient, r.ImagePositionPatient))
	}
}

// Converter rewrites compressed DICOM files as Explicit VR Little
// Endian files with native pixel data.
type Converter struct {
	log *zap.SugaredLogger
}

// NewConverter returns a converter logging through log.
func NewConverter(log *zap.SugaredLogger) *Converter {
	return &Converter{log: log}
}

// Decompress reads inputPath, decodes its pixel data, enforces series
// consistency metadata and writes the uncompressed result to
// outputPath.
//
// When ref is nil the converted file's own metadata becomes the
// reference returned for use on subsequent slices of the same series;
// otherwise ref is stamped onto the file and returned unchanged. Any
// failure returns a nil reference and the cause; nothing is written in
// that case beyond a possibly truncated outputPath.
func (c *Converter) Decompress(inputPath, outputPath string, ref *SeriesReference) (*SeriesReference, error) {
	ds, err := dicom.ParseFile(inputPath, nil)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	pixelElem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("find pixel data: %w", err)
	}
	info, ok := pixelElem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("pixel data element holds %T, not pixel data", pixelElem.Value.GetValue())
	}

	frames, bitsPerSample, err := imaging.DecodeFrames(&ds, info)
	if err != nil {
		return nil, fmt.Errorf("decode pixel data: %w", err)
	}

	newPixel := mustNewElement(tag.PixelData, dicom.PixelDataInfo{Frames: frames})
	// 16-bit samples, signed or unsigned, are written as Other Word;
	// every other width as Other Byte.
	if bitsPerSample == 16 {
		newPixel.RawValueRepresentation = "OW"
	} else {
		newPixel.RawValueRepresentation = "OB"
	}
	setElement(&ds, newPixel)

	if ref != nil {
		ref.stamp(&ds)
	} else {
		ref = captureReference(&ds)
	}

	if err := normalizeInstanceNumber(&ds); err != nil {
		return nil, fmt.Errorf("instance number: %w", err)
	}

	setElement(&ds, mustNewElement(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndian}))
	sortElements(&ds)

	if err := writeDatasetToFile(outputPath, ds); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	c.log.Debugw("decompressed and saved file", "path", outputPath)
	return ref, nil
}

// normalizeInstanceNumber coerces InstanceNumber to an integral value,
// defaulting to 1 when the tag is absent or empty.
func normalizeInstanceNumber(ds *dicom.Dataset) error {
	n := 1
	if vals := stringValues(ds, tag.InstanceNumber); len(vals) > 0 {
		raw := strings.TrimSpace(vals[0])
		if raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("non-integral value %q", vals[0])
			}
			n = parsed
		}
	}
	setElement(ds, mustNewElement(tag.InstanceNumber, []string{strconv.Itoa(n)}))
	return nil
}
