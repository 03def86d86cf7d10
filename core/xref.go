package core

import (
	"fmt"
	"log/slog"
	"sort"
)

// EntryType is the kind of a cross-reference entry.
type EntryType uint8

const (
	EntryFree       EntryType = iota // free or unknown
	EntryNormal                      // object at a byte offset
	EntryCompressed                  // object inside an object stream
	EntryObjStm                      // object at a byte offset that is an object stream container
)

func (t EntryType) String() string {
	switch t {
	case EntryFree:
		return "free"
	case EntryNormal:
		return "normal"
	case EntryCompressed:
		return "compressed"
	case EntryObjStm:
		return "objstm"
	}
	return fmt.Sprintf("EntryType(%d)", int(t))
}

// XRefEntry is one cross-reference record.
type XRefEntry struct {
	Type EntryType
	// Offset is the byte offset for normal entries and the container
	// object number for compressed ones.
	Offset     int64
	Index      int // position inside the container, compressed entries only
	Generation uint16
}

// XRefTable maps object numbers to entries. Sections are merged newest
// first; an object number keeps the first entry written for it.
type XRefTable struct {
	entries    map[uint32]XRefEntry
	containers map[uint32]bool
	size       int
	offsets    map[int64]struct{}
	sorted     []int64
}

// NewXRefTable creates an empty table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		entries:    make(map[uint32]XRefEntry),
		containers: make(map[uint32]bool),
		offsets:    make(map[int64]struct{}),
	}
}

// Get returns the entry for num. Normal entries referenced as object
// stream containers report EntryObjStm.
func (x *XRefTable) Get(num uint32) (XRefEntry, bool) {
	e, ok := x.entries[num]
	if x.containers[num] {
		if !ok {
			return XRefEntry{Type: EntryObjStm}, true
		}
		if e.Type == EntryNormal {
			e.Type = EntryObjStm
		}
	}
	return e, ok
}

// Size returns one more than the highest object number covered, or the
// trailer /Size if larger.
func (x *XRefTable) Size() int {
	return x.size
}

// Len returns the number of recorded entries
func (x *XRefTable) Len() int {
	return len(x.entries)
}

// LastObjNum returns the highest object number covered, or 0
func (x *XRefTable) LastObjNum() uint32 {
	if x.size == 0 {
		return 0
	}
	return uint32(x.size - 1)
}

func (x *XRefTable) grow(size int) {
	if size > x.size {
		x.size = size
	}
}

// set records e for num unless a newer section already did.
func (x *XRefTable) set(num uint32, e XRefEntry) {
	if _, ok := x.entries[num]; ok {
		return
	}
	x.entries[num] = e
	x.grow(int(num) + 1)
	if e.Type == EntryNormal {
		x.addOffset(e.Offset)
	}
}

// replace overwrites the entry for num.
func (x *XRefTable) replace(num uint32, e XRefEntry) {
	delete(x.entries, num)
	x.set(num, e)
}

// markContainer flags num as holding an object stream.
func (x *XRefTable) markContainer(num uint32) {
	x.containers[num] = true
	x.grow(int(num) + 1)
}

func (x *XRefTable) addOffset(off int64) {
	if off <= 0 {
		return
	}
	if _, ok := x.offsets[off]; !ok {
		x.offsets[off] = struct{}{}
		x.sorted = nil
	}
}

func (x *XRefTable) sortedOffsets() []int64 {
	if x.sorted == nil {
		x.sorted = make([]int64, 0, len(x.offsets))
		for off := range x.offsets {
			x.sorted = append(x.sorted, off)
		}
		sort.Slice(x.sorted, func(i, j int) bool { return x.sorted[i] < x.sorted[j] })
	}
	return x.sorted
}

// ObjectOffset returns the byte offset of num, following a compressed
// entry to its container. It returns 0 when unknown.
func (x *XRefTable) ObjectOffset(num uint32) int64 {
	e, ok := x.Get(num)
	if !ok {
		return 0
	}
	switch e.Type {
	case EntryNormal, EntryObjStm:
		return e.Offset
	case EntryCompressed:
		if c, ok := x.Get(uint32(e.Offset)); ok && (c.Type == EntryNormal || c.Type == EntryObjStm) {
			return c.Offset
		}
	}
	return 0
}

// ObjectSize estimates the byte length of num as the distance to the next
// recorded offset. Compressed objects report their container's size.
func (x *XRefTable) ObjectSize(num uint32) int64 {
	off := x.ObjectOffset(num)
	if off == 0 {
		return 0
	}
	sorted := x.sortedOffsets()
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= off })
	if i >= len(sorted) || sorted[i] != off || i == len(sorted)-1 {
		return 0
	}
	return sorted[i+1] - off
}

// xrefSection is one parsed cross-reference section before merging.
type xrefSection struct {
	nums    []uint32
	entries []XRefEntry
	trailer *Dict
	prev    int64
	hasPrev bool
	stream  bool
}

func (s *xrefSection) add(num uint32, e XRefEntry) {
	s.nums = append(s.nums, num)
	s.entries = append(s.entries, e)
}

const xrefRecordSize = 20

// loadClassicSection parses an "xref" table and its trailer at pos.
func (p *Parser) loadClassicSection(pos int64) (*xrefSection, bool) {
	syn := p.syntax
	syn.SetPos(pos)
	if syn.Keyword() != "xref" {
		return nil, false
	}
	p.xref.addOffset(pos)
	sec := &xrefSection{}
	for {
		saved := syn.Mark()
		word := syn.NextWord()
		if word.Empty() {
			return nil, false
		}
		if !word.IsNumber {
			syn.Restore(saved)
			break
		}
		start := int64(atoi(word.Bytes))
		if start < 0 || start >= 1<<20 {
			return nil, false
		}
		count := int64(syn.DirectNum())
		if count < 0 {
			return nil, false
		}
		syn.ToNextWord()
		entriesPos := syn.Pos()
		firstEntry := true
		for done := int64(0); done < count; {
			block := min(count-done, 1024)
			buf, err := syn.ReadBlock(int(block * xrefRecordSize))
			if err != nil {
				return nil, false
			}
			for i := int64(0); i < block; i++ {
				rec := buf[i*xrefRecordSize : (i+1)*xrefRecordSize]
				num := start + done + i
				offset, _ := atoi64(rec[:10])
				gen := atoi(rec[11:16])
				if rec[17] == 'f' {
					// Writers that number the first subsection from 1 still
					// emit the free head of the list first.
					if firstEntry && offset == 0 && gen == 65535 && start != 0 {
						start--
						num = 0
					}
					sec.add(uint32(num), XRefEntry{Type: EntryFree, Generation: uint16(gen)})
				} else {
					if offset == 0 && !isDigits(rec[:10]) {
						return nil, false
					}
					sec.add(uint32(num), XRefEntry{Type: EntryNormal, Offset: offset, Generation: uint16(gen)})
				}
				firstEntry = false
			}
			done += block
		}
		syn.SetPos(entriesPos + count*xrefRecordSize)
	}

	if syn.Keyword() != "trailer" {
		return nil, false
	}
	trailer := GetDict(syn.GetObject(0, 0, false))
	if trailer == nil {
		return nil, false
	}
	sec.trailer = trailer
	if prev := trailer.Get("Prev"); prev != nil {
		n, ok := prev.(Int)
		if !ok {
			return nil, false
		}
		sec.prev, sec.hasPrev = int64(n), n != 0
	}
	if stm, ok := trailer.Get("XRefStm").(Int); ok && stm > 0 {
		hybrid, ok := p.loadStreamSection(int64(stm))
		if !ok {
			return nil, false
		}
		// Table entries win; free slots may be filled by the stream.
		inTable := make(map[uint32]bool, len(sec.nums))
		for i, num := range sec.nums {
			if sec.entries[i].Type != EntryFree {
				inTable[num] = true
			}
		}
		merged := &xrefSection{trailer: sec.trailer, prev: sec.prev, hasPrev: sec.hasPrev}
		for i, num := range hybrid.nums {
			if !inTable[num] {
				merged.add(num, hybrid.entries[i])
			}
		}
		merged.nums = append(merged.nums, sec.nums...)
		merged.entries = append(merged.entries, sec.entries...)
		sec = merged
	}
	return sec, true
}

// loadStreamSection parses a cross-reference stream at pos.
func (p *Parser) loadStreamSection(pos int64) (*xrefSection, bool) {
	stream, ok := p.ParseIndirectObjectAt(pos, 0).(*Stream)
	if !ok {
		return nil, false
	}
	dict := stream.Dict
	size := dict.GetInteger("Size")
	if size < 0 || int64(size) > int64(p.limits.MaxObjectNumber) {
		return nil, false
	}
	p.xref.addOffset(pos)
	sec := &xrefSection{trailer: dict, stream: true}
	if prev, ok := dict.Get("Prev").(Int); ok && prev != 0 {
		sec.prev, sec.hasPrev = int64(prev), true
	}

	type span struct{ start, count int }
	var spans []span
	if index := dict.GetArray("Index"); index != nil {
		for i := 0; i+1 < index.Len(); i += 2 {
			start, ok1 := index.Get(i).(Int)
			count, ok2 := index.Get(i + 1).(Int)
			if ok1 && ok2 && start >= 0 && count > 0 {
				spans = append(spans, span{int(start), int(count)})
			}
		}
	}
	if len(spans) == 0 {
		spans = append(spans, span{0, size})
	}

	w := dict.GetArray("W")
	if w == nil || w.Len() < 3 {
		return nil, false
	}
	widths := make([]int, w.Len())
	total := 0
	for i := range widths {
		widths[i] = w.GetInteger(i)
		if widths[i] < 0 || widths[i] > 8 {
			return nil, false
		}
		total += widths[i]
	}
	if total == 0 {
		return nil, false
	}

	data, err := stream.Decode(p.codecs)
	if err != nil {
		p.logger.Debug("xref stream decode failed", slog.Int64("offset", pos), slog.Any("error", err))
		return nil, false
	}

	seg := 0
	for _, sp := range spans {
		if (seg+sp.count)*total > len(data) {
			continue
		}
		if int64(sp.start)+int64(sp.count) > int64(p.limits.MaxObjectNumber) {
			continue
		}
		for j := 0; j < sp.count; j++ {
			rec := data[(seg+j)*total:]
			typ := int64(1)
			if widths[0] > 0 {
				typ = varInt(rec, widths[0])
			}
			f2 := varInt(rec[widths[0]:], widths[1])
			f3 := varInt(rec[widths[0]+widths[1]:], widths[2])
			num := uint32(sp.start + j)
			switch typ {
			case 1:
				sec.add(num, XRefEntry{Type: EntryNormal, Offset: f2, Generation: uint16(f3)})
			case 2:
				if f2 <= 0 || f2 >= int64(p.limits.MaxObjectNumber) {
					return nil, false
				}
				sec.add(num, XRefEntry{Type: EntryCompressed, Offset: f2, Index: int(f3)})
			default:
				sec.add(num, XRefEntry{Type: EntryFree})
			}
		}
		seg += sp.count
	}
	return sec, true
}

// varInt reads an n-byte big-endian unsigned integer.
func varInt(b []byte, n int) int64 {
	var v int64
	for i := 0; i < n && i < len(b); i++ {
		v = v<<8 | int64(b[i])
	}
	return v
}

// LoadAllCrossRef walks the section chain starting at pos, newest first,
// accepting classic tables, cross-reference streams and hybrids, and
// merges it into a fresh table.
func (p *Parser) LoadAllCrossRef(pos int64) error {
	xref := NewXRefTable()
	p.xref = xref
	var trailers []*Dict
	visited := make(map[int64]bool)
	xrefStream := false
	for i := 0; ; i++ {
		if i >= p.limits.MaxXRefChain {
			return fmt.Errorf("xref chain longer than %d sections: %w", p.limits.MaxXRefChain, ErrBadXRef)
		}
		if visited[pos] {
			return fmt.Errorf("xref chain loops at offset %d: %w", pos, ErrBadXRef)
		}
		visited[pos] = true

		sec, ok := p.loadClassicSection(pos)
		if ok && i == 0 {
			size := sec.trailer.GetInteger("Size")
			if _, direct := sec.trailer.Get("Size").(Int); !direct || size <= 0 || size > p.limits.MaxXRefSize {
				return fmt.Errorf("trailer /Size %d out of range: %w", size, ErrBadXRef)
			}
			xref.grow(size)
		}
		if !ok {
			if sec, ok = p.loadStreamSection(pos); !ok {
				return fmt.Errorf("no cross-reference section at offset %d: %w", pos, ErrBadXRef)
			}
			if i == 0 {
				xrefStream = true
				xref.grow(min(sec.trailer.GetInteger("Size"), p.limits.MaxXRefSize))
			}
		}

		for j, num := range sec.nums {
			e := sec.entries[j]
			if e.Type == EntryCompressed {
				xref.markContainer(uint32(e.Offset))
			}
			xref.set(num, e)
		}
		trailers = append(trailers, sec.trailer)
		if !sec.hasPrev || sec.prev == pos {
			if sec.hasPrev {
				return fmt.Errorf("xref section at %d is its own /Prev: %w", pos, ErrBadXRef)
			}
			break
		}
		pos = sec.prev
	}

	p.trailers = trailers
	p.trailer = mergeTrailers(trailers)
	p.xrefStream = xrefStream
	return nil
}

// mergeTrailers builds the effective trailer from a newest-first list.
// The newest trailer is taken whole; older ones only fill missing
// document-level keys.
func mergeTrailers(trailers []*Dict) *Dict {
	merged := NewDict()
	for i, t := range trailers {
		for _, key := range t.Keys() {
			if i > 0 && sectionKeys[key] {
				continue
			}
			if !merged.Has(key) {
				merged.Set(key, t.Get(key))
			}
		}
	}
	return merged
}

// sectionKeys describe one section rather than the document.
var sectionKeys = map[string]bool{
	"Prev": true, "XRefStm": true, "Index": true, "W": true, "Type": true,
	"Filter": true, "DecodeParms": true, "Length": true,
}
