// Package dicomtest synthesizes small DICOM files for tests. Fixtures
// carry a flat (single-valued) frame so pixel assertions are exact
// even through a lossy JPEG encode.
package dicomtest

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"sort"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// JPEGBaseline is the transfer syntax written by WriteJPEGBaseline.
const JPEGBaseline = "1.2.840.10008.1.2.4.50"

// explicitVRLittleEndian is the transfer syntax written by WriteNative.
const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

// Spec controls fixture contents. Zero-value fields are filled with
// defaults: 16x16 frame, pixel value 128, deterministic UIDs, axial
// orientation at the origin. An empty InstanceNumber omits the tag.
type Spec struct {
	Width      int
	Height     int
	PixelValue uint8

	InstanceNumber    string
	StudyInstanceUID  string
	SeriesInstanceUID string
	SeriesNumber      string
	Orientation       []string // ImageOrientationPatient, 6 values
	Position          []string // ImagePositionPatient, 3 values
}

func (s Spec) withDefaults() Spec {
	if s.Width == 0 {
		s.Width = 16
	}
	if s.Height == 0 {
		s.Height = 16
	}
	if s.PixelValue == 0 {
		// 128 survives a JPEG round trip exactly: a flat frame at the
		// level-shift midpoint quantizes to all-zero coefficients.
		s.PixelValue = 128
	}
	if s.StudyInstanceUID == "" {
		s.StudyInstanceUID = "1.2.826.0.1.3680043.8.498.101"
	}
	if s.SeriesInstanceUID == "" {
		s.SeriesInstanceUID = "1.2.826.0.1.3680043.8.498.102"
	}
	if s.SeriesNumber == "" {
		s.SeriesNumber = "1"
	}
	if s.Orientation == nil {
		s.Orientation = []string{"1", "0", "0", "0", "1", "0"}
	}
	if s.Position == nil {
		s.Position = []string{"0", "0", "0"}
	}
	return s
}

// WriteJPEGBaseline writes a JPEG Baseline (Process 1) file with a
// flat 8-bit encapsulated frame to path.
func WriteJPEGBaseline(path string, spec Spec) error {
	spec = spec.withDefaults()

	img := image.NewGray(image.Rect(0, 0, spec.Width, spec.Height))
	for i := range img.Pix {
		img.Pix[i] = spec.PixelValue
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		return fmt.Errorf("encode jpeg payload: %w", err)
	}

	pixelData := dicom.PixelDataInfo{
		IsEncapsulated: true,
		Frames: []*frame.Frame{
			{
				Encapsulated:     true,
				EncapsulatedData: frame.EncapsulatedFrame{Data: buf.Bytes()},
			},
		},
	}

	elements := baseElements(spec, JPEGBaseline, 8)
	elements = append(elements, encapsulatedPixelDataElement(pixelData))
	return writeFile(path, elements)
}

// WriteUndecodable writes an RLE Lossless file whose encapsulated
// payload no registered image codec can decode. The file parses and
// classifies as compressed but cannot be converted.
func WriteUndecodable(path string) error {
	spec := Spec{}.withDefaults()

	pixelData := dicom.PixelDataInfo{
		IsEncapsulated: true,
		Frames: []*frame.Frame{
			{
				Encapsulated:     true,
				EncapsulatedData: frame.EncapsulatedFrame{Data: []byte{0x00, 0x01, 0x02, 0x03}},
			},
		},
	}

	elements := baseElements(spec, "1.2.840.10008.1.2.5", 8)
	elements = append(elements, encapsulatedPixelDataElement(pixelData))
	return writeFile(path, elements)
}

// WriteNative writes an uncompressed Explicit VR Little Endian file
// with a flat 16-bit native frame to path.
func WriteNative(path string, spec Spec) error {
	spec = spec.withDefaults()

	nativeFrame := frame.NewNativeFrame[uint16](16, spec.Height, spec.Width, spec.Width*spec.Height, 1)
	for i := range nativeFrame.RawData {
		nativeFrame.RawData[i] = uint16(spec.PixelValue)
	}
	pixelData := dicom.PixelDataInfo{
		Frames: []*frame.Frame{{NativeData: nativeFrame}},
	}

	elements := baseElements(spec, explicitVRLittleEndian, 16)
	elements = append(elements, mustNewElement(tag.PixelData, pixelData))
	return writeFile(path, elements)
}

// baseElements builds the element set shared by every fixture.
func baseElements(spec Spec, transferSyntax string, bitsAllocated int) []*dicom.Element {
	elements := []*dicom.Element{
		mustNewElement(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{"1.2.826.0.1.3680043.8.498.103"}),
		mustNewElement(tag.TransferSyntaxUID, []string{transferSyntax}),
		mustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.SOPInstanceUID, []string{"1.2.826.0.1.3680043.8.498.103"}),
		mustNewElement(tag.Modality, []string{"MR"}),
		mustNewElement(tag.StudyInstanceUID, []string{spec.StudyInstanceUID}),
		mustNewElement(tag.SeriesInstanceUID, []string{spec.SeriesInstanceUID}),
		mustNewElement(tag.SeriesNumber, []string{spec.SeriesNumber}),
		mustNewElement(tag.ImagePositionPatient, spec.Position),
		mustNewElement(tag.ImageOrientationPatient, spec.Orientation),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
		mustNewElement(tag.Rows, []int{spec.Height}),
		mustNewElement(tag.Columns, []int{spec.Width}),
		mustNewElement(tag.BitsAllocated, []int{bitsAllocated}),
		mustNewElement(tag.BitsStored, []int{bitsAllocated}),
		mustNewElement(tag.HighBit, []int{bitsAllocated - 1}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
	}
	if spec.InstanceNumber != "" {
		elements = append(elements, mustNewElement(tag.InstanceNumber, []string{spec.InstanceNumber}))
	}
	return elements
}

// writeFile sorts elements into tag order and writes them to path.
func writeFile(path string, elements []*dicom.Element) error {
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Tag.Group != elements[j].Tag.Group {
			return elements[i].Tag.Group < elements[j].Tag.Group
		}
		return elements[i].Tag.Element < elements[j].Tag.Element
	})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, dicom.Dataset{Elements: elements})
}

// encapsulatedPixelDataElement builds a PixelData element with the
// undefined value length the writer requires for encapsulated frames.
func encapsulatedPixelDataElement(pixelData dicom.PixelDataInfo) *dicom.Element {
	elem := mustNewElement(tag.PixelData, pixelData)
	elem.ValueLength = tag.VLUndefinedLength
	return elem
}

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}
