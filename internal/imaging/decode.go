// Package imaging turns DICOM pixel data frames into raw native
// samples. Compressed frame payloads are decoded by the image codecs
// registered with the standard image package; this package only
// handles the raster-to-sample conversion around them.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	// Codecs for encapsulated frame payloads.
	_ "image/jpeg"
	_ "image/png"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/image/draw"
)

// DecodeFrames converts every frame of info into a native,
// non-encapsulated frame. Frames that are already native pass through
// unchanged. Returns the frames and the sample width in bits.
//
// Only single-sample (monochrome) 8- and 16-bit layouts are supported;
// anything else, including payloads no registered codec can decode,
// returns an error so the caller can skip the file.
func DecodeFrames(ds *dicom.Dataset, info dicom.PixelDataInfo) ([]*frame.Frame, int, error) {
	bits := intValue(ds, tag.BitsAllocated, 16)
	if bits != 8 && bits != 16 {
		return nil, 0, fmt.Errorf("unsupported bits allocated %d", bits)
	}
	if samples := intValue(ds, tag.SamplesPerPixel, 1); samples != 1 {
		return nil, 0, fmt.Errorf("unsupported samples per pixel %d", samples)
	}
	if len(info.Frames) == 0 {
		return nil, 0, fmt.Errorf("pixel data has no frames")
	}

	frames := make([]*frame.Frame, 0, len(info.Frames))
	for i, fr := range info.Frames {
		if !fr.Encapsulated {
			frames = append(frames, fr)
			continue
		}
		native, err := decodeEncapsulated(fr, bits)
		if err != nil {
			return nil, 0, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, native)
	}
	return frames, bits, nil
}

// decodeEncapsulated decodes one encapsulated frame payload and
// re-rasters it onto a grayscale canvas of the requested sample width.
func decodeEncapsulated(fr *frame.Frame, bits int) (*frame.Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(fr.EncapsulatedData.Data))
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("decoded image has empty bounds %v", b)
	}

	if bits == 8 {
		canvas := image.NewGray(image.Rect(0, 0, width, height))
		draw.Copy(canvas, image.Point{}, img, b, draw.Src, nil)

		native := frame.NewNativeFrame[uint8](8, height, width, width*height, 1)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				native.RawData[y*width+x] = canvas.GrayAt(x, y).Y
			}
		}
		return &frame.Frame{NativeData: native}, nil
	}

	canvas := image.NewGray16(image.Rect(0, 0, width, height))
	draw.Copy(canvas, image.Point{}, img, b, draw.Src, nil)

	native := frame.NewNativeFrame[uint16](16, height, width, width*height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			native.RawData[y*width+x] = canvas.Gray16At(x, y).Y
		}
	}
	return &frame.Frame{NativeData: native}, nil
}

// intValue reads a single integer-valued tag, falling back to def when
// the tag is absent or not integer-valued.
func intValue(ds *dicom.Dataset, t tag.Tag, def int) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return def
	}
	vals, ok := elem.Value.GetValue().([]int)
	if !ok || len(vals) == 0 {
		return def
	}
	return vals[0]
}
