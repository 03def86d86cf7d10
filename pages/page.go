package pages

import (
	"math"

	"github.com/tsawler/pdfcore/core"
)

// maxInheritDepth bounds the /Parent chain walked for inherited attributes.
const maxInheritDepth = 64

// Rect is a box [llx lly urx ury] normalised so that ll is below and left
// of ur.
type Rect [4]float64

// Width returns urx - llx
func (r Rect) Width() float64 {
	return r[2] - r[0]
}

// Height returns ury - lly
func (r Rect) Height() float64 {
	return r[3] - r[1]
}

// Intersect returns the overlap of r and o, or the zero Rect when they do
// not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{max(r[0], o[0]), max(r[1], o[1]), min(r[2], o[2]), min(r[3], o[3])}
	if out[0] >= out[2] || out[1] >= out[3] {
		return Rect{}
	}
	return out
}

// letter is used when no /MediaBox can be found.
var letter = Rect{0, 0, 612, 792}

func toRect(arr *core.Array) (Rect, bool) {
	if arr.Len() != 4 {
		return Rect{}, false
	}
	var r Rect
	for i := range r {
		if !core.IsNumber(arr.Get(i)) {
			return Rect{}, false
		}
		r[i] = arr.GetNumber(i)
	}
	if r[0] > r[2] {
		r[0], r[2] = r[2], r[0]
	}
	if r[1] > r[3] {
		r[1], r[3] = r[3], r[1]
	}
	return r, true
}

// Page is a leaf of the page tree
type Page struct {
	Dict   *core.Dict
	ObjNum uint32 // 0 for a page dictionary that is not an indirect object
}

// Inherited returns key from the page or the nearest /Parent that has it.
// Only /Resources, /MediaBox, /CropBox and /Rotate are inheritable in
// PDF, but any key may be looked up.
func (p *Page) Inherited(key string) core.Object {
	seen := make(map[*core.Dict]bool)
	d := p.Dict
	for i := 0; d != nil && i <= maxInheritDepth && !seen[d]; i++ {
		if v := d.GetDirect(key); v != nil {
			if _, null := v.(core.Null); !null {
				return v
			}
		}
		seen[d] = true
		d = d.GetDict("Parent")
	}
	return nil
}

// Resources returns the inherited /Resources dictionary, or nil
func (p *Page) Resources() *core.Dict {
	return core.GetDict(p.Inherited("Resources"))
}

// MediaBox returns the inherited media box, or US Letter when none is
// usable.
func (p *Page) MediaBox() Rect {
	if r, ok := toRect(core.GetArray(p.Inherited("MediaBox"))); ok && r.Width() > 0 && r.Height() > 0 {
		return r
	}
	return letter
}

// CropBox returns the inherited crop box clipped to the media box. It
// defaults to the media box.
func (p *Page) CropBox() Rect {
	media := p.MediaBox()
	r, ok := toRect(core.GetArray(p.Inherited("CropBox")))
	if !ok {
		return media
	}
	if clipped := r.Intersect(media); clipped != (Rect{}) {
		return clipped
	}
	return media
}

// Rotate returns the inherited rotation normalised to 0, 90, 180 or 270.
func (p *Page) Rotate() int {
	r := core.GetInteger(p.Inherited("Rotate"))
	r = int(math.Round(float64(r)/90)) * 90
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// Contents returns the page content streams in order. Entries that are
// not streams are skipped.
func (p *Page) Contents() []*core.Stream {
	obj := p.Dict.GetDirect("Contents")
	if s, ok := obj.(*core.Stream); ok {
		return []*core.Stream{s}
	}
	arr := core.GetArray(obj)
	out := make([]*core.Stream, 0, arr.Len())
	for _, item := range arr.Items() {
		if s := core.GetStream(item); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Annots returns the annotation dictionaries of the page
func (p *Page) Annots() []*core.Dict {
	arr := p.Dict.GetArray("Annots")
	out := make([]*core.Dict, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if d := arr.GetDict(i); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// Width returns the width of the crop box, swapped with the height for
// pages rotated by 90 or 270 degrees.
func (p *Page) Width() float64 {
	box := p.CropBox()
	if p.Rotate()%180 != 0 {
		return box.Height()
	}
	return box.Width()
}

// Height returns the height of the crop box, accounting for rotation
func (p *Page) Height() float64 {
	box := p.CropBox()
	if p.Rotate()%180 != 0 {
		return box.Width()
	}
	return box.Height()
}
