package font

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/pdfcore/core"
)

// Encoding maps the single-byte codes of a simple font to Unicode. A zero
// rune marks an unmapped code.
type Encoding struct {
	Name  string
	runes [256]rune
}

// Rune returns the Unicode value of code, or 0.
func (e *Encoding) Rune(code byte) rune {
	if e == nil {
		return 0
	}
	return e.runes[code]
}

// Decode maps every byte of data through the encoding, skipping unmapped
// codes.
func (e *Encoding) Decode(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if r := e.Rune(b); r != 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func fromCharmap(name string, cm *charmap.Charmap) *Encoding {
	e := &Encoding{Name: name}
	for i := 0; i < 256; i++ {
		if i < 0x20 {
			continue
		}
		r := cm.DecodeByte(byte(i))
		if r == '\uFFFD' {
			continue
		}
		e.runes[i] = r
	}
	return e
}

func standardEncoding() *Encoding {
	e := &Encoding{Name: "StandardEncoding"}
	for i := 0x20; i < 0x7f; i++ {
		e.runes[i] = rune(i)
	}
	e.runes['\''] = '’'
	e.runes['`'] = '‘'
	for code, name := range standardHigh {
		e.runes[code] = glyphRunes[name]
	}
	return e
}

func pdfDocEncoding() *Encoding {
	e := &Encoding{Name: "PDFDocEncoding"}
	for i := 0x20; i < 256; i++ {
		if r := []rune(core.DecodeTextString([]byte{byte(i)})); len(r) == 1 {
			e.runes[i] = r[0]
		}
	}
	return e
}

// NamedEncoding returns one of the predefined simple-font encodings, or nil
// for an unknown name.
func NamedEncoding(name string) *Encoding {
	switch name {
	case "WinAnsiEncoding":
		return fromCharmap(name, charmap.Windows1252)
	case "MacRomanEncoding":
		return fromCharmap(name, charmap.Macintosh)
	case "StandardEncoding":
		return standardEncoding()
	case "PDFDocEncoding":
		return pdfDocEncoding()
	}
	return nil
}

// loadEncoding reads /Encoding of a simple font: a name, or a dictionary
// with an optional /BaseEncoding and a /Differences array.
func loadEncoding(obj core.Object, def string) *Encoding {
	if name := core.GetName(obj); name != "" {
		if e := NamedEncoding(name); e != nil {
			return e
		}
		return NamedEncoding(def)
	}
	d := core.GetDict(obj)
	if d == nil {
		return NamedEncoding(def)
	}
	base := d.GetName("BaseEncoding")
	e := NamedEncoding(base)
	if e == nil {
		e = NamedEncoding(def)
	}
	if e == nil {
		e = &Encoding{}
	}
	e.Name = "Custom"
	applyDifferences(e, d.GetArray("Differences"))
	return e
}

// applyDifferences applies a /Differences array: each number sets the
// code of the glyph names that follow it.
func applyDifferences(e *Encoding, diffs *core.Array) {
	code := 0
	for _, item := range diffs.Items() {
		switch v := core.Direct(item).(type) {
		case core.Int, core.Real:
			code = core.GetInteger(v)
		case core.Name:
			if code >= 0 && code < 256 {
				e.runes[code] = GlyphRune(string(v))
			}
			code++
		}
	}
}

// GlyphRune maps a glyph name to Unicode. It knows the Latin names used by
// the standard encodings, accented letters built from a base letter and an
// accent suffix, and the uniXXXX and uXXXX[XX] forms.
func GlyphRune(name string) rune {
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if r, ok := glyphRunes[name]; ok {
		return r
	}
	if len(name) == 1 {
		c := name[0]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			return rune(c)
		}
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v)
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10FFFF {
			return rune(v)
		}
	}
	for suffix, mark := range accents {
		if base, ok := strings.CutSuffix(name, suffix); ok && len(base) == 1 {
			s := norm.NFC.String(base + string(mark))
			if r := []rune(s); len(r) == 1 {
				return r[0]
			}
		}
	}
	return 0
}

var accents = map[string]rune{
	"grave":      '\u0300',
	"acute":      '\u0301',
	"circumflex": '\u0302',
	"tilde":      '\u0303',
	"dieresis":   '\u0308',
	"ring":       '\u030A',
	"caron":      '\u030C',
	"cedilla":    '\u0327',
}
