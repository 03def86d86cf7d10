package resolver

import (
	"fmt"

	"github.com/tsawler/pdfcore/colorspace"
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/font"
)

// LoadFont returns the font defined by obj, usually a reference taken
// from a /Font resource dictionary. Each successful call must be matched
// by a ReleaseFont with the same object.
func (d *Document) LoadFont(obj core.Object) (*font.Font, error) {
	return d.fonts.acquire(obj)
}

// ReleaseFont drops one reference taken by LoadFont
func (d *Document) ReleaseFont(obj core.Object) {
	d.fonts.release(obj)
}

// AcquireFont is LoadFont returning a Guard that releases the font
func (d *Document) AcquireFont(obj core.Object) (*Guard[*font.Font], error) {
	f, err := d.LoadFont(obj)
	if err != nil {
		return nil, err
	}
	return newGuard(f, func() { d.ReleaseFont(obj) }), nil
}

func (d *Document) loadFont(obj core.Object) (*font.Font, func(), error) {
	f, err := font.Load(core.GetDict(obj), d.codecs)
	return f, nil, err
}

// colorSpaceObject maps a colour space operand to its defining object.
// Names other than the device families are looked up in the /ColorSpace
// entry of resources. A stock space is returned instead when the operand
// names one.
func colorSpaceObject(obj core.Object, resources *core.Dict) (core.Object, *colorspace.ColorSpace, error) {
	name, ok := obj.(core.Name)
	if !ok {
		return obj, nil, nil
	}
	if cs := colorspace.Stock(string(name)); cs != nil {
		return nil, cs, nil
	}
	def := resources.GetDict("ColorSpace").Get(string(name))
	if def == nil {
		return nil, nil, fmt.Errorf("colour space %s not in resources: %w", name, colorspace.ErrInvalid)
	}
	if n, ok := core.Direct(def).(core.Name); ok {
		if cs := colorspace.Stock(string(n)); cs != nil {
			return nil, cs, nil
		}
		return nil, nil, fmt.Errorf("colour space %s: %w", n, colorspace.ErrInvalid)
	}
	return def, nil, nil
}

// LoadColorSpace returns the colour space named or defined by obj.
// Device families are shared and not counted; every other space must be
// released with ReleaseColorSpace using the same arguments.
func (d *Document) LoadColorSpace(obj core.Object, resources *core.Dict) (*colorspace.ColorSpace, error) {
	def, cs, err := colorSpaceObject(obj, resources)
	if err != nil || cs != nil {
		return cs, err
	}
	return d.spaces.acquire(def)
}

// ReleaseColorSpace drops one reference taken by LoadColorSpace
func (d *Document) ReleaseColorSpace(obj core.Object, resources *core.Dict) {
	def, cs, err := colorSpaceObject(obj, resources)
	if err != nil || cs != nil {
		return
	}
	d.spaces.release(def)
}

// AcquireColorSpace is LoadColorSpace returning a Guard
func (d *Document) AcquireColorSpace(obj core.Object, resources *core.Dict) (*Guard[*colorspace.ColorSpace], error) {
	cs, err := d.LoadColorSpace(obj, resources)
	if err != nil {
		return nil, err
	}
	return newGuard(cs, func() { d.ReleaseColorSpace(obj, resources) }), nil
}

// sharedProfiles returns colour space options that take ICC profiles from
// the document cache and a cleanup releasing every profile taken.
func (d *Document) sharedProfiles() ([]colorspace.Option, func()) {
	var held []core.Object
	load := func(obj core.Object) (*colorspace.ICCProfile, error) {
		p, err := d.LoadIccProfile(obj)
		if err != nil {
			return nil, err
		}
		held = append(held, obj)
		return p, nil
	}
	cleanup := func() {
		for _, obj := range held {
			d.ReleaseIccProfile(obj)
		}
		held = nil
	}
	return []colorspace.Option{colorspace.WithCodecs(d.codecs), colorspace.WithICCLoader(load)}, cleanup
}

func (d *Document) loadColorSpace(obj core.Object) (*colorspace.ColorSpace, func(), error) {
	opts, cleanup := d.sharedProfiles()
	cs, err := colorspace.Load(obj, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return cs, cleanup, nil
}

// LoadPattern returns the tiling or shading pattern defined by obj
func (d *Document) LoadPattern(obj core.Object) (*colorspace.PatternObj, error) {
	return d.patterns.acquire(obj)
}

// ReleasePattern drops one reference taken by LoadPattern
func (d *Document) ReleasePattern(obj core.Object) {
	d.patterns.release(obj)
}

// AcquirePattern is LoadPattern returning a Guard
func (d *Document) AcquirePattern(obj core.Object) (*Guard[*colorspace.PatternObj], error) {
	p, err := d.LoadPattern(obj)
	if err != nil {
		return nil, err
	}
	return newGuard(p, func() { d.ReleasePattern(obj) }), nil
}

func (d *Document) loadPattern(obj core.Object) (*colorspace.PatternObj, func(), error) {
	opts, cleanup := d.sharedProfiles()
	p, err := colorspace.LoadPattern(obj, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

// LoadIccProfile returns the decoded ICC profile stream obj
func (d *Document) LoadIccProfile(obj core.Object) (*colorspace.ICCProfile, error) {
	return d.profiles.acquire(obj)
}

// ReleaseIccProfile drops one reference taken by LoadIccProfile
func (d *Document) ReleaseIccProfile(obj core.Object) {
	d.profiles.release(obj)
}

// AcquireIccProfile is LoadIccProfile returning a Guard
func (d *Document) AcquireIccProfile(obj core.Object) (*Guard[*colorspace.ICCProfile], error) {
	p, err := d.LoadIccProfile(obj)
	if err != nil {
		return nil, err
	}
	return newGuard(p, func() { d.ReleaseIccProfile(obj) }), nil
}

func (d *Document) loadIccProfile(obj core.Object) (*colorspace.ICCProfile, func(), error) {
	p, err := colorspace.LoadICC(obj, colorspace.WithCodecs(d.codecs))
	return p, nil, err
}
