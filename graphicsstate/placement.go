package graphicsstate

import (
	"github.com/tsawler/pdfcore/contentstream"
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pages"
)

// Placement is one drawing of an XObject or inline image.
type Placement struct {
	Name   string // XObject resource name, empty for inline images
	Inline bool
	CTM    Matrix
	BBox   pages.Rect // image of the unit square under CTM
}

// Placements runs the q, Q, cm and w operators of ops and records where
// each Do and inline image is drawn. Unbalanced Q operators are ignored.
func Placements(ops []contentstream.Operation) []Placement {
	gs := NewGraphicsState()
	var out []Placement
	for _, op := range ops {
		switch op.Operator {
		case "q":
			gs.Save()
		case "Q":
			_ = gs.Restore()
		case "cm":
			if m, ok := matrixOperands(op.Operands); ok {
				gs.Transform(m)
			}
		case "w":
			if len(op.Operands) == 1 {
				gs.SetLineWidth(core.GetNumber(op.Operands[0]))
			}
		case "Do":
			if len(op.Operands) == 1 {
				if name, ok := op.Operands[0].(core.Name); ok {
					out = append(out, place(string(name), false, gs.CTM))
				}
			}
		case "BI":
			out = append(out, place("", true, gs.CTM))
		}
	}
	return out
}

func matrixOperands(operands []core.Object) (Matrix, bool) {
	var m Matrix
	if len(operands) != 6 {
		return m, false
	}
	for i, obj := range operands {
		switch obj.(type) {
		case core.Int, core.Real:
			m[i] = core.GetNumber(obj)
		default:
			return m, false
		}
	}
	return m, true
}

func place(name string, inline bool, ctm Matrix) Placement {
	p := Placement{Name: name, Inline: inline, CTM: ctm}
	x0, y0 := ctm.Apply(0, 0)
	p.BBox = pages.Rect{x0, y0, x0, y0}
	for _, corner := range [][2]float64{{1, 0}, {0, 1}, {1, 1}} {
		x, y := ctm.Apply(corner[0], corner[1])
		p.BBox[0] = min(p.BBox[0], x)
		p.BBox[1] = min(p.BBox[1], y)
		p.BBox[2] = max(p.BBox[2], x)
		p.BBox[3] = max(p.BBox[3], y)
	}
	return p
}
