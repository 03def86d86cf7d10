package colorspace

import (
	"fmt"

	"github.com/tsawler/pdfcore/core"
)

// PatternType is /PatternType
type PatternType int

const (
	TilingPattern  PatternType = 1
	ShadingPattern PatternType = 2
)

func (t PatternType) String() string {
	switch t {
	case TilingPattern:
		return "Tiling"
	case ShadingPattern:
		return "Shading"
	}
	return fmt.Sprintf("PatternType(%d)", int(t))
}

// PatternObj is a parsed pattern dictionary or stream
type PatternObj struct {
	Type   PatternType
	Matrix [6]float64

	// Tiling patterns
	PaintType  int // 1 coloured, 2 uncoloured
	TilingType int
	BBox       [4]float64
	XStep      float64
	YStep      float64
	Resources  *core.Dict

	// Shading patterns
	ShadingType  int
	ShadingSpace *ColorSpace
}

// LoadPattern parses a tiling pattern stream or a shading pattern
// dictionary. The shading's colour space is loaded with the same options.
func LoadPattern(obj core.Object, opts ...Option) (*PatternObj, error) {
	d := core.GetDict(obj)
	if d == nil {
		return nil, fmt.Errorf("pattern is not a dictionary: %w", ErrInvalid)
	}
	p := &PatternObj{Type: PatternType(d.GetInteger("PatternType"))}
	p.Matrix = [6]float64{1, 0, 0, 1, 0, 0}
	if m := d.GetArray("Matrix"); m.Len() == 6 {
		for i := range p.Matrix {
			p.Matrix[i] = m.GetNumber(i)
		}
	}

	switch p.Type {
	case TilingPattern:
		if core.GetStream(obj) == nil {
			return nil, fmt.Errorf("tiling pattern is not a stream: %w", ErrInvalid)
		}
		p.PaintType = d.GetInteger("PaintType")
		p.TilingType = d.GetInteger("TilingType")
		p.XStep = d.GetNumber("XStep")
		p.YStep = d.GetNumber("YStep")
		p.Resources = d.GetDict("Resources")
		bbox := d.GetArray("BBox")
		for i := 0; i < 4 && i < bbox.Len(); i++ {
			p.BBox[i] = bbox.GetNumber(i)
		}
		if p.XStep == 0 || p.YStep == 0 {
			return nil, fmt.Errorf("tiling pattern with zero step: %w", ErrInvalid)
		}
	case ShadingPattern:
		sh := d.GetDict("Shading")
		if sh == nil {
			return nil, fmt.Errorf("shading pattern without /Shading: %w", ErrInvalid)
		}
		p.ShadingType = sh.GetInteger("ShadingType")
		if p.ShadingType < 1 || p.ShadingType > 7 {
			return nil, fmt.Errorf("shading type %d: %w", p.ShadingType, ErrInvalid)
		}
		cs, err := Load(sh.Get("ColorSpace"), opts...)
		if err != nil {
			return nil, fmt.Errorf("shading colour space: %w", err)
		}
		if cs.Family == Pattern {
			return nil, fmt.Errorf("shading colour space is a pattern space: %w", ErrInvalid)
		}
		p.ShadingSpace = cs
	default:
		return nil, fmt.Errorf("pattern type %d: %w", int(p.Type), ErrInvalid)
	}
	return p, nil
}
