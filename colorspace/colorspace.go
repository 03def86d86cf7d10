// Package colorspace reads colour space, pattern and ICC profile objects
// for the document resolver. It reports structure only: family, component
// count, base spaces and profile bytes. Colour conversion is left to
// consumers.
package colorspace

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfcore/codec"
	"github.com/tsawler/pdfcore/core"
)

// Family identifies a colour space family
type Family int

const (
	FamilyUnknown Family = iota
	DeviceGray
	DeviceRGB
	DeviceCMYK
	CalGray
	CalRGB
	Lab
	ICCBased
	Indexed
	Pattern
	Separation
	DeviceN
)

var familyNames = map[Family]string{
	DeviceGray: "DeviceGray",
	DeviceRGB:  "DeviceRGB",
	DeviceCMYK: "DeviceCMYK",
	CalGray:    "CalGray",
	CalRGB:     "CalRGB",
	Lab:        "Lab",
	ICCBased:   "ICCBased",
	Indexed:    "Indexed",
	Pattern:    "Pattern",
	Separation: "Separation",
	DeviceN:    "DeviceN",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// ErrInvalid is wrapped by every error for malformed colour space objects.
var ErrInvalid = errors.New("invalid colour space")

// maxNesting bounds base and alternate chains.
const maxNesting = 8

// ColorSpace is a parsed colour space
type ColorSpace struct {
	Family     Family
	Components int

	// Base is the base space of Indexed and of uncoloured Pattern
	// spaces, and the alternate space of ICCBased, Separation and DeviceN.
	Base *ColorSpace

	Profile *ICCProfile // ICCBased

	HiVal  int    // Indexed
	Lookup []byte // Indexed, (HiVal+1)*Base.Components bytes

	Colorants []string // Separation and DeviceN
}

var stock = map[string]*ColorSpace{
	"DeviceGray": {Family: DeviceGray, Components: 1},
	"DeviceRGB":  {Family: DeviceRGB, Components: 3},
	"DeviceCMYK": {Family: DeviceCMYK, Components: 4},
	"Pattern":    {Family: Pattern, Components: 1},
}

// Stock returns the shared colour space for a device family name or its
// inline-image abbreviation, or nil. Stock spaces are never owned by a
// document.
func Stock(name string) *ColorSpace {
	switch name {
	case "G":
		name = "DeviceGray"
	case "RGB":
		name = "DeviceRGB"
	case "CMYK":
		name = "DeviceCMYK"
	}
	return stock[name]
}

// IsStock reports whether cs is one of the shared device spaces
func IsStock(cs *ColorSpace) bool {
	return cs != nil && stock[cs.Family.String()] == cs
}

// Option configures Load, LoadPattern and LoadICC
type Option func(*loader)

type loader struct {
	codecs *codec.Codecs
	icc    func(core.Object) (*ICCProfile, error)
}

// WithCodecs sets the filters used to decode profile and lookup streams
func WithCodecs(c *codec.Codecs) Option {
	return func(l *loader) {
		l.codecs = c
	}
}

// WithICCLoader routes ICCBased profile streams through fn, letting the
// caller share profiles between colour spaces.
func WithICCLoader(fn func(core.Object) (*ICCProfile, error)) Option {
	return func(l *loader) {
		l.icc = fn
	}
}

func newLoader(opts []Option) *loader {
	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.icc == nil {
		l.icc = func(obj core.Object) (*ICCProfile, error) {
			return loadICC(obj, l.codecs)
		}
	}
	return l
}

// Load parses a colour space given as a name or an array.
func Load(obj core.Object, opts ...Option) (*ColorSpace, error) {
	return newLoader(opts).load(obj, 0)
}

func (l *loader) load(obj core.Object, depth int) (*ColorSpace, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("colour space nesting deeper than %d: %w", maxNesting, ErrInvalid)
	}
	obj = core.Direct(obj)
	if name, ok := obj.(core.Name); ok {
		if cs := Stock(string(name)); cs != nil {
			return cs, nil
		}
		return nil, fmt.Errorf("colour space name %s: %w", name, ErrInvalid)
	}
	arr := core.GetArray(obj)
	if arr.Len() == 0 {
		return nil, fmt.Errorf("colour space is neither a name nor an array: %w", ErrInvalid)
	}
	family := arr.GetName(0)
	if arr.Len() == 1 {
		if cs := Stock(family); cs != nil {
			return cs, nil
		}
	}

	switch family {
	case "CalGray":
		return &ColorSpace{Family: CalGray, Components: 1}, nil
	case "CalRGB":
		return &ColorSpace{Family: CalRGB, Components: 3}, nil
	case "Lab":
		return &ColorSpace{Family: Lab, Components: 3}, nil
	case "ICCBased":
		return l.loadICCBased(arr, depth)
	case "Indexed", "I":
		return l.loadIndexed(arr, depth)
	case "Pattern":
		cs := &ColorSpace{Family: Pattern, Components: 1}
		if arr.Len() > 1 {
			base, err := l.load(arr.Get(1), depth+1)
			if err != nil {
				return nil, err
			}
			if base.Family == Pattern {
				return nil, fmt.Errorf("pattern base is a pattern space: %w", ErrInvalid)
			}
			cs.Base = base
		}
		return cs, nil
	case "Separation":
		return l.loadSeparation(arr, depth)
	case "DeviceN":
		return l.loadDeviceN(arr, depth)
	}
	return nil, fmt.Errorf("colour space family %q: %w", family, ErrInvalid)
}

func (l *loader) loadICCBased(arr *core.Array, depth int) (*ColorSpace, error) {
	profile, err := l.icc(arr.Get(1))
	if err != nil {
		return nil, err
	}
	cs := &ColorSpace{Family: ICCBased, Components: profile.N, Profile: profile}
	if alt := core.GetDict(arr.Get(1)).Get("Alternate"); alt != nil {
		base, err := l.load(alt, depth+1)
		if err == nil && isBaseCandidate(base) && base.Components == cs.Components {
			cs.Base = base
		}
	}
	if cs.Base == nil {
		cs.Base = deviceFor(cs.Components)
	}
	return cs, nil
}

func (l *loader) loadIndexed(arr *core.Array, depth int) (*ColorSpace, error) {
	if arr.Len() < 4 {
		return nil, fmt.Errorf("indexed array has %d elements: %w", arr.Len(), ErrInvalid)
	}
	base, err := l.load(arr.Get(1), depth+1)
	if err != nil {
		return nil, err
	}
	if base.Family == Indexed || base.Family == Pattern {
		return nil, fmt.Errorf("indexed base %s: %w", base.Family, ErrInvalid)
	}
	hival := arr.GetInteger(2)
	if hival < 0 || hival > 255 {
		return nil, fmt.Errorf("indexed hival %d: %w", hival, ErrInvalid)
	}

	var lookup []byte
	switch v := core.Direct(arr.Get(3)).(type) {
	case core.String:
		lookup = v.Value
	case *core.Stream:
		lookup, err = v.Decode(l.codecs)
		if err != nil {
			return nil, fmt.Errorf("indexed lookup: %w", err)
		}
	default:
		return nil, fmt.Errorf("indexed lookup is not a string or stream: %w", ErrInvalid)
	}
	if want := (hival + 1) * base.Components; len(lookup) < want {
		return nil, fmt.Errorf("indexed lookup has %d bytes, want %d: %w", len(lookup), want, ErrInvalid)
	}
	return &ColorSpace{Family: Indexed, Components: 1, Base: base, HiVal: hival, Lookup: lookup}, nil
}

func (l *loader) loadSeparation(arr *core.Array, depth int) (*ColorSpace, error) {
	if arr.Len() < 4 {
		return nil, fmt.Errorf("separation array has %d elements: %w", arr.Len(), ErrInvalid)
	}
	alt, err := l.load(arr.Get(2), depth+1)
	if err != nil {
		return nil, err
	}
	if !isBaseCandidate(alt) {
		return nil, fmt.Errorf("separation alternate %s: %w", alt.Family, ErrInvalid)
	}
	return &ColorSpace{
		Family:     Separation,
		Components: 1,
		Base:       alt,
		Colorants:  []string{arr.GetName(1)},
	}, nil
}

func (l *loader) loadDeviceN(arr *core.Array, depth int) (*ColorSpace, error) {
	if arr.Len() < 4 {
		return nil, fmt.Errorf("devicen array has %d elements: %w", arr.Len(), ErrInvalid)
	}
	names := arr.GetArray(1)
	if names.Len() == 0 {
		return nil, fmt.Errorf("devicen without colorants: %w", ErrInvalid)
	}
	alt, err := l.load(arr.Get(2), depth+1)
	if err != nil {
		return nil, err
	}
	if !isBaseCandidate(alt) {
		return nil, fmt.Errorf("devicen alternate %s: %w", alt.Family, ErrInvalid)
	}
	cs := &ColorSpace{Family: DeviceN, Components: names.Len(), Base: alt}
	for i := 0; i < names.Len(); i++ {
		cs.Colorants = append(cs.Colorants, names.GetName(i))
	}
	return cs, nil
}

// isBaseCandidate reports whether cs may act as an alternate space.
func isBaseCandidate(cs *ColorSpace) bool {
	switch cs.Family {
	case Indexed, Pattern, Separation, DeviceN:
		return false
	}
	return true
}

func deviceFor(n int) *ColorSpace {
	switch n {
	case 1:
		return stock["DeviceGray"]
	case 3:
		return stock["DeviceRGB"]
	case 4:
		return stock["DeviceCMYK"]
	}
	return nil
}
