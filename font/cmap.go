package font

import (
	"golang.org/x/text/encoding/unicode"

	"github.com/tsawler/pdfcore/codec"
	"github.com/tsawler/pdfcore/core"
)

// codespace is one entry of a begincodespacerange block. lo and hi have
// the same length, which is the byte length of codes in the range.
type codespace struct {
	lo, hi []byte
}

func (cs codespace) match(data []byte) bool {
	if len(data) < len(cs.lo) {
		return false
	}
	for i := range cs.lo {
		if data[i] < cs.lo[i] || data[i] > cs.hi[i] {
			return false
		}
	}
	return true
}

// bfRange maps lo..hi either to consecutive UTF-16 values starting at
// base, or to the explicit strings of a bfrange array.
type bfRange struct {
	lo, hi uint32
	base   []uint16
	list   []string
}

type cidRange struct {
	lo, hi uint32
	cid    uint32
}

// CMap is a parsed CMap program. It serves both ToUnicode maps (bfchar,
// bfrange) and the code to CID maps of composite font encodings (cidchar,
// cidrange).
type CMap struct {
	Name string

	codespaces []codespace
	maxKeyLen  int

	chars  map[uint32]string
	ranges []bfRange

	cidChars  map[uint32]uint32
	cidRanges []cidRange
	identity  bool
}

// NewCMap creates an empty CMap
func NewCMap() *CMap {
	return &CMap{
		chars:    make(map[uint32]string),
		cidChars: make(map[uint32]uint32),
	}
}

// IdentityCMap returns the predefined Identity-H or Identity-V CMap: two
// byte codes that equal their CID.
func IdentityCMap(name string) *CMap {
	cm := NewCMap()
	cm.Name = name
	cm.identity = true
	cm.codespaces = []codespace{{lo: []byte{0, 0}, hi: []byte{0xff, 0xff}}}
	cm.maxKeyLen = 2
	return cm
}

// ParseCMapStream decodes stream with codecs and parses the result.
func ParseCMapStream(stream *core.Stream, codecs *codec.Codecs) (*CMap, error) {
	data, err := stream.Decode(codecs)
	if err != nil {
		return nil, err
	}
	return ParseCMap(data), nil
}

// ParseCMap parses a CMap program. Unknown operators are skipped and
// malformed entries are dropped, so the result is always usable.
func ParseCMap(data []byte) *CMap {
	cm := NewCMap()
	syn := core.NewSyntax(core.NewBytesSource(data), 0)
	var operands []core.Object
	for syn.Pos() < syn.Len() {
		mark := syn.Mark()
		w := syn.NextWord()
		if w.Empty() {
			break
		}
		if w.IsNumber || startsObject(w) {
			syn.Restore(mark)
			obj := syn.GetObject(0, 0, false)
			if obj == nil {
				syn.Restore(mark)
				syn.NextWord()
				operands = operands[:0]
				continue
			}
			operands = append(operands, obj)
			continue
		}

		switch w.String() {
		case "def":
			if len(operands) == 2 && core.GetName(operands[0]) == "CMapName" {
				cm.Name = core.GetName(operands[1])
			}
		case "endcodespacerange":
			cm.addCodespaces(operands)
		case "endbfchar":
			cm.addBfChars(operands)
		case "endbfrange":
			cm.addBfRanges(operands)
		case "endcidchar":
			cm.addCIDChars(operands)
		case "endcidrange":
			cm.addCIDRanges(operands)
		}
		operands = operands[:0]
	}
	return cm
}

func startsObject(w core.Word) bool {
	switch w.Bytes[0] {
	case '<':
		return len(w.Bytes) == 1 || w.Bytes[1] == '<'
	case '(', '[', '/':
		return true
	}
	return false
}

func hexBytes(obj core.Object) ([]byte, bool) {
	s, ok := obj.(core.String)
	if !ok || len(s.Value) == 0 || len(s.Value) > 4 {
		return nil, false
	}
	return s.Value, true
}

func codeValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func (cm *CMap) noteKey(b []byte) {
	if len(b) > cm.maxKeyLen {
		cm.maxKeyLen = len(b)
	}
}

func (cm *CMap) addCodespaces(ops []core.Object) {
	for i := 0; i+1 < len(ops); i += 2 {
		lo, ok1 := hexBytes(ops[i])
		hi, ok2 := hexBytes(ops[i+1])
		if !ok1 || !ok2 || len(lo) != len(hi) {
			continue
		}
		cm.codespaces = append(cm.codespaces, codespace{lo: lo, hi: hi})
		cm.noteKey(lo)
	}
}

func (cm *CMap) addBfChars(ops []core.Object) {
	for i := 0; i+1 < len(ops); i += 2 {
		src, ok := hexBytes(ops[i])
		if !ok {
			continue
		}
		dst, ok := ops[i+1].(core.String)
		if !ok {
			continue
		}
		cm.noteKey(src)
		cm.chars[codeValue(src)] = utf16Text(dst.Value)
	}
}

func (cm *CMap) addBfRanges(ops []core.Object) {
	for i := 0; i+2 < len(ops); i += 3 {
		lo, ok1 := hexBytes(ops[i])
		hi, ok2 := hexBytes(ops[i+1])
		if !ok1 || !ok2 {
			continue
		}
		r := bfRange{lo: codeValue(lo), hi: codeValue(hi)}
		if r.hi < r.lo {
			continue
		}
		switch dst := ops[i+2].(type) {
		case core.String:
			r.base = utf16Units(dst.Value)
			if len(r.base) == 0 {
				continue
			}
		case *core.Array:
			for _, item := range dst.Items() {
				s, ok := item.(core.String)
				if !ok {
					r.list = append(r.list, "")
					continue
				}
				r.list = append(r.list, utf16Text(s.Value))
			}
		default:
			continue
		}
		cm.noteKey(lo)
		cm.ranges = append(cm.ranges, r)
	}
}

func (cm *CMap) addCIDChars(ops []core.Object) {
	for i := 0; i+1 < len(ops); i += 2 {
		src, ok := hexBytes(ops[i])
		if !ok || !core.IsNumber(ops[i+1]) {
			continue
		}
		cm.noteKey(src)
		cm.cidChars[codeValue(src)] = uint32(core.GetInteger(ops[i+1]))
	}
}

func (cm *CMap) addCIDRanges(ops []core.Object) {
	for i := 0; i+2 < len(ops); i += 3 {
		lo, ok1 := hexBytes(ops[i])
		hi, ok2 := hexBytes(ops[i+1])
		if !ok1 || !ok2 || !core.IsNumber(ops[i+2]) {
			continue
		}
		r := cidRange{lo: codeValue(lo), hi: codeValue(hi), cid: uint32(core.GetInteger(ops[i+2]))}
		if r.hi < r.lo {
			continue
		}
		cm.noteKey(lo)
		cm.cidRanges = append(cm.cidRanges, r)
	}
}

// utf16Units reads big-endian UTF-16 code units. A single byte is taken as
// one unit.
func utf16Units(b []byte) []uint16 {
	if len(b) == 1 {
		return []uint16{uint16(b[0])}
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func utf16Text(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	out, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

func unitsText(units []uint16) string {
	b := make([]byte, 0, 2*len(units))
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return utf16Text(b)
}

// Lookup returns the Unicode text for a character code.
func (cm *CMap) Lookup(code uint32) (string, bool) {
	if cm == nil {
		return "", false
	}
	if s, ok := cm.chars[code]; ok {
		return s, true
	}
	for i := len(cm.ranges) - 1; i >= 0; i-- {
		r := cm.ranges[i]
		if code < r.lo || code > r.hi {
			continue
		}
		off := code - r.lo
		if r.list != nil {
			if int(off) >= len(r.list) {
				return "", false
			}
			return r.list[off], true
		}
		units := append([]uint16(nil), r.base...)
		units[len(units)-1] += uint16(off)
		return unitsText(units), true
	}
	return "", false
}

// CID maps a character code to a CID. Identity maps return the code.
func (cm *CMap) CID(code uint32) (uint32, bool) {
	if cm == nil {
		return 0, false
	}
	if cm.identity {
		return code, true
	}
	if cid, ok := cm.cidChars[code]; ok {
		return cid, true
	}
	for i := len(cm.cidRanges) - 1; i >= 0; i-- {
		r := cm.cidRanges[i]
		if code >= r.lo && code <= r.hi {
			return r.cid + code - r.lo, true
		}
	}
	return 0, false
}

// NextCode reads one character code from the front of data and returns it
// with its length in bytes. Codespace ranges decide the length; without
// any, the longest key seen in the map is used.
func (cm *CMap) NextCode(data []byte) (uint32, int) {
	if len(data) == 0 {
		return 0, 0
	}
	if cm == nil || len(cm.codespaces) == 0 {
		n := 1
		if cm != nil && cm.maxKeyLen > 1 {
			n = cm.maxKeyLen
		}
		n = min(n, len(data))
		return codeValue(data[:n]), n
	}
	shortest := 4
	for n := 1; n <= 4; n++ {
		for _, cs := range cm.codespaces {
			if len(cs.lo) != n {
				continue
			}
			shortest = min(shortest, n)
			if cs.match(data) {
				return codeValue(data[:n]), n
			}
		}
	}
	n := min(shortest, len(data))
	return codeValue(data[:n]), n
}

// Len returns the number of single and range mappings.
func (cm *CMap) Len() int {
	if cm == nil {
		return 0
	}
	return len(cm.chars) + len(cm.ranges) + len(cm.cidChars) + len(cm.cidRanges)
}

// IsVertical reports whether the CMap is a vertical (-V) writing mode map.
func (cm *CMap) IsVertical() bool {
	return cm != nil && len(cm.Name) > 2 && cm.Name[len(cm.Name)-2:] == "-V"
}
