package font

import (
	"fmt"

	"github.com/tsawler/pdfcore/core"
)

// CIDFont is the descendant of a Type0 font.
type CIDFont struct {
	BaseFont      string
	Subtype       string // CIDFontType0 or CIDFontType2
	CIDSystemInfo CIDSystemInfo
	Descriptor    *Descriptor

	DW float64      // default width
	W  []WidthRange // /W entries in file order
}

// CIDSystemInfo identifies a character collection
type CIDSystemInfo struct {
	Registry   string // e.g., "Adobe"
	Ordering   string // e.g., "Japan1", "GB1", "CNS1", "Korea1"
	Supplement int
}

// WidthRange is one entry of a /W array: either a run of individual
// widths starting at StartCID, or a single width for StartCID..EndCID.
type WidthRange struct {
	StartCID uint32
	EndCID   uint32
	Width    float64
	Widths   []float64
}

func loadCIDFont(d *core.Dict) (*CIDFont, error) {
	subtype := d.GetName("Subtype")
	if subtype != "CIDFontType0" && subtype != "CIDFontType2" {
		return nil, fmt.Errorf("descendant font subtype %q is not a CIDFont", subtype)
	}
	cid := &CIDFont{
		BaseFont: d.GetName("BaseFont"),
		Subtype:  subtype,
		DW:       1000,
	}
	if info := d.GetDict("CIDSystemInfo"); info != nil {
		cid.CIDSystemInfo = CIDSystemInfo{
			Registry:   info.GetString("Registry"),
			Ordering:   info.GetString("Ordering"),
			Supplement: info.GetInteger("Supplement"),
		}
	}
	if d.Has("DW") {
		cid.DW = d.GetNumber("DW")
	}
	cid.Descriptor = loadDescriptor(d.GetDict("FontDescriptor"))
	cid.W = parseWidthArray(d.GetArray("W"))
	return cid, nil
}

// parseWidthArray parses a /W array. Its entries have the forms
// c [w1 w2 ... wn] and cfirst clast w; a truncated trailing entry is
// dropped.
func parseWidthArray(w *core.Array) []WidthRange {
	var out []WidthRange
	for i := 0; i < w.Len(); {
		start := uint32(w.GetInteger(i))
		i++
		if i >= w.Len() {
			break
		}
		if list := w.GetArray(i); list != nil {
			widths := make([]float64, list.Len())
			for j := range widths {
				widths[j] = list.GetNumber(j)
			}
			if len(widths) > 0 {
				out = append(out, WidthRange{
					StartCID: start,
					EndCID:   start + uint32(len(widths)) - 1,
					Widths:   widths,
				})
			}
			i++
			continue
		}
		if i+1 >= w.Len() {
			break
		}
		end := uint32(w.GetInteger(i))
		width := w.GetNumber(i + 1)
		i += 2
		if end < start {
			continue
		}
		out = append(out, WidthRange{StartCID: start, EndCID: end, Width: width})
	}
	return out
}

// Width returns the advance width of a CID in glyph space units.
func (cid *CIDFont) Width(c uint32) float64 {
	for _, r := range cid.W {
		if c < r.StartCID || c > r.EndCID {
			continue
		}
		if r.Widths != nil {
			return r.Widths[c-r.StartCID]
		}
		return r.Width
	}
	return cid.DW
}

// Collection returns Registry-Ordering-Supplement, e.g. "Adobe-Japan1-6".
func (cid *CIDFont) Collection() string {
	info := cid.CIDSystemInfo
	if info.Registry == "" && info.Ordering == "" {
		return ""
	}
	return fmt.Sprintf("%s-%s-%d", info.Registry, info.Ordering, info.Supplement)
}

// IsCJK reports whether the collection is one of the Adobe CJK orderings.
func (cid *CIDFont) IsCJK() bool {
	switch cid.CIDSystemInfo.Ordering {
	case "Japan1", "GB1", "CNS1", "Korea1":
		return true
	}
	return false
}
