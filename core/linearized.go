package core

// Linearized holds the linearization parameter dictionary of a file laid
// out for first-page-first delivery.
type Linearized struct {
	ObjNum     uint32
	Length     int64   // /L, total file length
	FirstPage  int     // /P, index of the first page
	PageObjNum uint32  // /O, object number of the first page
	FirstEnd   int64   // /E, end of the first-page section
	PageCount  int     // /N
	MainXRef   int64   // /T, offset of the main cross-reference table
	Hints      []int64 // /H, offset and length of the primary hint stream
	Dict       *Dict
	End        int64 // position just past the dictionary's endobj
}

// Linearized returns the linearization dictionary, or nil when the first
// object is not one or its /L does not match the file length.
func (p *Parser) Linearized() *Linearized {
	if p.linChecked {
		return p.linearized
	}
	p.linChecked = true
	p.linearized = ParseLinearized(p.syntax)
	return p.linearized
}

// ParseLinearized reads the first object after the header through syn.
// The cursor is left unchanged.
func ParseLinearized(syn *Syntax) *Linearized {
	saved := syn.Mark()
	defer syn.Restore(saved)

	syn.SetPos(9)
	num := syn.NextWord()
	if !num.IsNumber {
		return nil
	}
	gen := syn.NextWord()
	if !gen.IsNumber {
		return nil
	}
	if syn.Keyword() != "obj" {
		return nil
	}
	objnum, _ := atoi64(num.Bytes)
	if objnum <= 0 || objnum > int64(^uint32(0)) {
		return nil
	}
	dict := GetDict(syn.GetObject(uint32(objnum), uint16(atoi(gen.Bytes)), false))
	if dict == nil || !dict.Has("Linearized") {
		return nil
	}
	end := syn.Mark()
	if syn.Keyword() != "endobj" {
		syn.Restore(end)
	}
	length, ok := dict.Get("L").(Int)
	if !ok || int64(length) != syn.size {
		return nil
	}
	lin := &Linearized{
		ObjNum:    uint32(objnum),
		Length:    int64(length),
		FirstEnd:  int64(dict.GetInteger("E")),
		PageCount: dict.GetInteger("N"),
		Dict:      dict,
		End:       syn.Pos(),
	}
	if p, ok := dict.Get("P").(Int); ok {
		lin.FirstPage = int(p)
	}
	if o, ok := dict.Get("O").(Int); ok && o > 0 {
		lin.PageObjNum = uint32(o)
	}
	if t, ok := dict.Get("T").(Int); ok {
		lin.MainXRef = int64(t)
	}
	if h := dict.GetArray("H"); h != nil {
		for i := 0; i < h.Len(); i++ {
			lin.Hints = append(lin.Hints, int64(h.GetInteger(i)))
		}
	}
	return lin
}
