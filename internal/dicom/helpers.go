package dicom

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// mustNewElement creates a DICOM element and panics on failure. Only
// used with value types known to match the tag's VR.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// writeDatasetToFile writes a DICOM dataset to a file
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}

// setElement replaces the element carrying the same tag in ds,
// appending the element when the tag is absent.
func setElement(ds *dicom.Dataset, elem *dicom.Element) {
	for i, e := range ds.Elements {
		if e.Tag == elem.Tag {
			ds.Elements[i] = elem
			return
		}
	}
	ds.Elements = append(ds.Elements, elem)
}

// sortElements orders ds.Elements by (group, element) so appended tags
// end up where a sequential reader expects them.
func sortElements(ds *dicom.Dataset) {
	sort.Slice(ds.Elements, func(i, j int) bool {
		if ds.Elements[i].Tag.Group != ds.Elements[j].Tag.Group {
			return ds.Elements[i].Tag.Group < ds.Elements[j].Tag.Group
		}
		return ds.Elements[i].Tag.Element < ds.Elements[j].Tag.Element
	})
}

// stringValues returns the raw string list stored under t, or nil when
// the tag is absent or not string-valued.
func stringValues(ds *dicom.Dataset, t tag.Tag) []string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return nil
	}
	vals, ok := elem.Value.GetValue().([]string)
	if !ok {
		return nil
	}
	return vals
}

// firstString returns the first string of a string-valued element,
// trimmed of padding.
func firstString(elem *dicom.Element) string {
	vals, ok := elem.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
