package font

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/pdfcore/codec"
	"github.com/tsawler/pdfcore/core"
)

// ErrNotFont is returned by Load for dictionaries that are not fonts.
var ErrNotFont = errors.New("not a font dictionary")

// Font is a parsed font dictionary
type Font struct {
	Subtype  string // Type1, MMType1, TrueType, Type3 or Type0
	BaseFont string

	// Simple fonts
	FirstChar    int
	Widths       []float64
	MissingWidth float64
	Encoding     *Encoding

	// Type0 fonts
	CMap       *CMap
	Descendant *CIDFont

	Descriptor *Descriptor
	ToUnicode  *CMap

	family string
}

// Descriptor holds the metrics of a /FontDescriptor dictionary.
type Descriptor struct {
	FontName    string
	Flags       int
	ItalicAngle float64
	Ascent      float64
	Descent     float64
	CapHeight   float64
	StemV       float64
	BBox        [4]float64
	Embedded    bool // one of /FontFile, /FontFile2 or /FontFile3 is present
}

// Descriptor flag bits
const (
	FlagFixedPitch = 1 << 0
	FlagSerif      = 1 << 1
	FlagSymbolic   = 1 << 2
	FlagItalic     = 1 << 6
)

func loadDescriptor(d *core.Dict) *Descriptor {
	if d == nil {
		return nil
	}
	desc := &Descriptor{
		FontName:    d.GetName("FontName"),
		Flags:       d.GetInteger("Flags"),
		ItalicAngle: d.GetNumber("ItalicAngle"),
		Ascent:      d.GetNumber("Ascent"),
		Descent:     d.GetNumber("Descent"),
		CapHeight:   d.GetNumber("CapHeight"),
		StemV:       d.GetNumber("StemV"),
		Embedded:    d.Has("FontFile") || d.Has("FontFile2") || d.Has("FontFile3"),
	}
	bbox := d.GetArray("FontBBox")
	for i := 0; i < 4 && i < bbox.Len(); i++ {
		desc.BBox[i] = bbox.GetNumber(i)
	}
	return desc
}

// Load parses a font dictionary. codecs decodes the ToUnicode and
// encoding CMap streams. A broken ToUnicode map is ignored rather than
// failing the font.
func Load(d *core.Dict, codecs *codec.Codecs) (*Font, error) {
	if d == nil {
		return nil, ErrNotFont
	}
	if t := d.GetName("Type"); t != "" && t != "Font" {
		return nil, fmt.Errorf("/Type %s: %w", t, ErrNotFont)
	}
	f := &Font{
		Subtype:    d.GetName("Subtype"),
		BaseFont:   d.GetName("BaseFont"),
		Descriptor: loadDescriptor(d.GetDict("FontDescriptor")),
	}
	f.family = standardFonts[stripSubset(f.BaseFont)]

	switch f.Subtype {
	case "Type1", "MMType1", "TrueType", "Type3":
		f.loadSimple(d)
	case "Type0":
		if err := f.loadComposite(d, codecs); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("font subtype %q: %w", f.Subtype, ErrNotFont)
	}

	if s := d.GetStream("ToUnicode"); s != nil {
		if cm, err := ParseCMapStream(s, codecs); err == nil && cm.Len() > 0 {
			f.ToUnicode = cm
		}
	}
	return f, nil
}

func (f *Font) loadSimple(d *core.Dict) {
	f.FirstChar = d.GetInteger("FirstChar")
	widths := d.GetArray("Widths")
	f.Widths = make([]float64, widths.Len())
	for i := range f.Widths {
		f.Widths[i] = widths.GetNumber(i)
	}
	if f.Descriptor != nil {
		f.MissingWidth = core.GetNumber(d.GetDict("FontDescriptor").Get("MissingWidth"))
	}

	def := "StandardEncoding"
	switch {
	case f.family == "Symbol" || f.family == "ZapfDingbats":
		def = ""
	case f.Subtype == "TrueType" && (f.Descriptor == nil || f.Descriptor.Flags&FlagSymbolic == 0):
		def = "WinAnsiEncoding"
	}
	f.Encoding = loadEncoding(d.Get("Encoding"), def)
}

func (f *Font) loadComposite(d *core.Dict, codecs *codec.Codecs) error {
	desc := d.GetArray("DescendantFonts").GetDict(0)
	if desc == nil {
		return fmt.Errorf("type0 font without descendant: %w", ErrNotFont)
	}
	cid, err := loadCIDFont(desc)
	if err != nil {
		return err
	}
	f.Descendant = cid
	if f.Descriptor == nil {
		f.Descriptor = cid.Descriptor
	}

	enc := d.Get("Encoding")
	if s := core.GetStream(enc); s != nil {
		cm, err := ParseCMapStream(s, codecs)
		if err != nil {
			return fmt.Errorf("encoding CMap: %w", err)
		}
		f.CMap = cm
		return nil
	}
	name := core.GetName(enc)
	if name == "" {
		name = "Identity-H"
	}
	// Predefined CJK CMaps are read as two-byte identity maps.
	f.CMap = IdentityCMap(name)
	return nil
}

// stripSubset removes a six-letter subset tag such as "ABCDEF+".
func stripSubset(name string) string {
	if len(name) > 7 && name[6] == '+' && strings.ToUpper(name[:6]) == name[:6] {
		return name[7:]
	}
	return name
}

// IsComposite reports whether f is a Type0 font
func (f *Font) IsComposite() bool {
	return f.Subtype == "Type0"
}

// IsStandard reports whether f names one of the base 14 fonts
func (f *Font) IsStandard() bool {
	return f.family != ""
}

// IsVertical reports whether a composite font uses vertical writing
func (f *Font) IsVertical() bool {
	return f.CMap.IsVertical()
}

// Width returns the advance width of a character code in glyph space
// units (1/1000 em for all fonts but Type3).
func (f *Font) Width(code uint32) float64 {
	if f.IsComposite() {
		cid, ok := f.CMap.CID(code)
		if !ok {
			cid = 0
		}
		return f.Descendant.Width(cid)
	}
	i := int(code) - f.FirstChar
	if i >= 0 && i < len(f.Widths) {
		return f.Widths[i]
	}
	if w, ok := standardWidth(f.family, int(code)); ok && len(f.Widths) == 0 {
		return w
	}
	return f.MissingWidth
}

// Codes splits a shown string into character codes: single bytes for
// simple fonts, and codes sized by the encoding CMap for composite fonts.
func (f *Font) Codes(data []byte) []uint32 {
	if !f.IsComposite() {
		codes := make([]uint32, len(data))
		for i, b := range data {
			codes[i] = uint32(b)
		}
		return codes
	}
	var codes []uint32
	for len(data) > 0 {
		code, n := f.CMap.NextCode(data)
		codes = append(codes, code)
		data = data[n:]
	}
	return codes
}

// DecodeString converts a shown string to NFC-normalised Unicode. The
// ToUnicode map wins; simple fonts fall back to their encoding. Codes
// that map to nothing are dropped.
func (f *Font) DecodeString(data []byte) string {
	var sb strings.Builder
	for _, code := range f.Codes(data) {
		if s, ok := f.ToUnicode.Lookup(code); ok {
			sb.WriteString(s)
			continue
		}
		if !f.IsComposite() {
			if r := f.Encoding.Rune(byte(code)); r != 0 {
				sb.WriteRune(r)
			}
		}
	}
	return norm.NFC.String(sb.String())
}

// StringWidth sums the widths of every code in data.
func (f *Font) StringWidth(data []byte) float64 {
	total := 0.0
	for _, code := range f.Codes(data) {
		total += f.Width(code)
	}
	return total
}
