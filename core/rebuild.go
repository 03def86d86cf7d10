package core

import (
	"errors"
	"io"
	"log/slog"
)

// scanState is the state of the rebuild scanner.
type scanState int

const (
	scanDefault    scanState = iota
	scanAfterSpace           // whitespace seen, a number may start
	scanObjNum               // reading the object number
	scanAfterNum             // whitespace after the object number
	scanGenNum               // reading the generation number
	scanAfterGen             // whitespace after the generation number
	scanObjKeyword           // matching "obj"
	scanTrailer              // matching "trailer"
	scanXRef                 // matching "xref"
	scanComment              // inside a % comment
	scanString               // inside a literal string
	scanHexStart             // after '<'
	scanDictStart            // after "<<"
	scanEscape               // after a backslash
	scanWord                 // inside some other token
)

const rebuildChunk = 4096

// rebuilder reconstructs the cross-reference table from a linear scan.
type rebuilder struct {
	p    *Parser
	xref *XRefTable

	state     scanState
	inside    int
	objnum    int64
	gennum    int64
	startPos  int64
	startPos1 int64
	depth     int

	lastObj     int64
	lastXRef    int64
	lastTrailer int64
	trailer     *Dict
	containers  []uint32
}

// RebuildCrossRef discards the loaded table and reconstructs it by
// scanning every byte of the file for "n g obj", "trailer" and "xref",
// skipping strings and comments. It only fails when the source cannot be
// read; a file with no objects yields an empty table.
func (p *Parser) RebuildCrossRef() error {
	p.xref = NewXRefTable()
	p.objs.Reset()
	p.objStreams = make(map[uint32]*ObjectStream)
	p.trailer = nil
	p.trailers = nil
	p.xrefStream = false
	p.rebuilt = true

	r := &rebuilder{p: p, xref: p.xref, lastObj: -1, lastXRef: -1, lastTrailer: -1}
	if err := r.scan(); err != nil {
		return err
	}

	switch {
	case r.lastXRef != -1 && r.lastXRef > r.lastObj:
		r.lastTrailer = r.lastXRef
	case r.lastTrailer == -1 || r.lastXRef < r.lastObj:
		r.lastTrailer = p.syntax.Len()
	}
	p.xref.addOffset(r.lastTrailer)

	p.objs.Reset()
	r.indexObjectStreams()
	p.objs.Reset()
	p.objStreams = make(map[uint32]*ObjectStream)

	if r.trailer == nil {
		r.trailer = NewDict()
	}
	if !r.trailer.Has("Root") {
		if root := r.findCatalog(); root != 0 {
			r.trailer.Set("Root", NewReference(p.objs, root, 0))
		}
	}
	r.trailer.Delete("Prev")
	r.trailer.Delete("XRefStm")
	p.trailer = r.trailer
	p.trailers = []*Dict{r.trailer}
	p.logger.Info("xref rebuilt", slog.Int("objects", p.xref.Len()), slog.Any("root", p.RootObjNum()))
	return nil
}

func (r *rebuilder) scan() error {
	syn := r.p.syntax
	base := syn.HeaderOffset()
	end := syn.Len()
	buf := make([]byte, rebuildChunk)
	for pos := int64(0); pos < end; {
		size := end - pos
		if size > rebuildChunk {
			size = rebuildChunk
		}
		chunk := buf[:size]
		n, err := r.p.src.ReadAt(chunk, pos+base)
		if int64(n) < size {
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if n == 0 {
				break
			}
			chunk = chunk[:n]
		}
		next := pos + int64(len(chunk))
		for i := 0; i < len(chunk); i++ {
			jump, ok := r.step(chunk, &i, pos)
			if ok {
				next = jump
				break
			}
		}
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return nil
}

// step feeds chunk[*i] to the state machine. It may move *i to reprocess
// a byte or skip a parsed object; when the skip leaves the chunk it
// returns the position to resume reading from.
func (r *rebuilder) step(chunk []byte, i *int, pos int64) (int64, bool) {
	c := chunk[*i]
	class := charClass[c]
	isDigit := c >= '0' && c <= '9'
	here := pos + int64(*i)
	reprocess := func(s scanState) {
		*i--
		r.state = s
	}

	switch r.state {
	case scanDefault:
		if class == classWhitespace {
			r.state = scanAfterSpace
		}
		switch {
		case isDigit:
			reprocess(scanAfterSpace)
		case c == '%':
			r.inside = 0
			r.state = scanComment
		case c == '(':
			r.state = scanString
			r.depth = 1
		case c == '<':
			r.inside = 1
			r.state = scanHexStart
		case c == '\\':
			r.state = scanEscape
		case c == 't':
			r.state = scanTrailer
			r.inside = 1
		}

	case scanAfterSpace:
		switch {
		case class == classWhitespace:
		case isDigit:
			r.startPos = here
			r.state = scanObjNum
			r.objnum = int64(c - '0')
		case c == 't':
			r.state = scanTrailer
			r.inside = 1
		case c == 'x':
			r.state = scanXRef
			r.inside = 1
		default:
			reprocess(scanDefault)
		}

	case scanObjNum:
		switch {
		case isDigit:
			if r.objnum <= int64(r.p.limits.MaxObjectNumber) {
				r.objnum = r.objnum*10 + int64(c-'0')
			}
		case class == classWhitespace:
			r.state = scanAfterNum
		default:
			r.inside = 0
			reprocess(scanWord)
		}

	case scanAfterNum:
		switch {
		case isDigit:
			r.startPos1 = here
			r.state = scanGenNum
			r.gennum = int64(c - '0')
		case class == classWhitespace:
		case c == 't':
			r.state = scanTrailer
			r.inside = 1
		default:
			reprocess(scanDefault)
		}

	case scanGenNum:
		switch {
		case isDigit:
			if r.gennum <= int64(r.p.limits.MaxObjectNumber) {
				r.gennum = r.gennum*10 + int64(c-'0')
			}
		case class == classWhitespace:
			r.state = scanAfterGen
		default:
			reprocess(scanDefault)
		}

	case scanAfterGen:
		switch {
		case c == 'o':
			r.state = scanObjKeyword
			r.inside = 1
		case class == classWhitespace:
		case isDigit:
			// "a b c": slide the window so b c become the candidate pair.
			r.objnum = r.gennum
			r.gennum = int64(c - '0')
			r.startPos = r.startPos1
			r.startPos1 = here
			r.state = scanGenNum
		case c == 't':
			r.state = scanTrailer
			r.inside = 1
		default:
			reprocess(scanDefault)
		}

	case scanObjKeyword:
		switch r.inside {
		case 1:
			if c != 'b' {
				reprocess(scanDefault)
			} else {
				r.inside++
			}
		case 2:
			if c != 'j' {
				reprocess(scanDefault)
			} else {
				r.inside++
			}
		case 3:
			if class != classWhitespace && class != classDelimiter {
				reprocess(scanDefault)
				break
			}
			if r.objnum <= 0 || r.objnum > int64(r.p.limits.MaxObjectNumber) {
				r.state = scanDefault
				break
			}
			skip := r.foundObject(here)
			if skip > 0 {
				if int64(*i)+skip >= int64(len(chunk)) {
					r.state = scanDefault
					return here + skip, true
				}
				*i += int(skip)
			}
			reprocess(scanDefault)
		}

	case scanTrailer:
		if r.inside == 7 {
			if class == classWhitespace || class == classDelimiter {
				r.lastTrailer = here - 7
				r.foundTrailer(here)
			}
			reprocess(scanDefault)
		} else if c == "trailer"[r.inside] {
			r.inside++
		} else {
			reprocess(scanDefault)
		}

	case scanXRef:
		if r.inside == 4 {
			r.lastXRef = here - 4
			r.state = scanAfterSpace
		} else if c == "xref"[r.inside] {
			r.inside++
		} else {
			reprocess(scanDefault)
		}

	case scanComment:
		if c == '\r' || c == '\n' {
			r.state = scanDefault
		}

	case scanString:
		if c == ')' {
			if r.depth > 0 {
				r.depth--
			}
		} else if c == '(' {
			r.depth++
		}
		if r.depth == 0 {
			r.state = scanDefault
		}

	case scanHexStart:
		if c == '<' && r.inside == 1 {
			r.state = scanDictStart
		} else if c == '>' {
			r.state = scanDefault
		}
		r.inside = 0

	case scanDictStart:
		reprocess(scanDefault)

	case scanEscape:
		if class == classDelimiter || class == classWhitespace {
			reprocess(scanDefault)
		}

	case scanWord:
		switch {
		case class == classWhitespace:
			r.state = scanDefault
		case c == '%' || c == '(' || c == '<' || c == '\\':
			reprocess(scanDefault)
		case r.inside == 6:
			reprocess(scanDefault)
		case c == "endobj"[r.inside]:
			r.inside++
		}
	}
	return 0, false
}

// foundObject parses the object whose "obj" keyword ends at here and
// records it. It returns how many bytes after here the object spans.
func (r *rebuilder) foundObject(here int64) int64 {
	p := r.p
	objPos := r.startPos
	r.lastObj = r.startPos
	num := uint32(r.objnum)
	gen := uint16(r.gennum)
	p.xref.addOffset(objPos)

	obj, objEnd := p.ParseIndirectObjectAtStrict(objPos, num)
	if stream, ok := obj.(*Stream); ok {
		dict := stream.Dict
		switch dict.GetName("Type") {
		case "XRef":
			if dict.Has("Size") {
				if root := dict.GetDict("Root"); root != nil && root.Has("Pages") {
					r.trailer = GetDict(Clone(dict, false))
					r.lastXRefOffset(objPos)
				}
			}
		case "ObjStm":
			r.containers = append(r.containers, num)
		}
	}

	if e, ok := p.xref.Get(num); ok && e.Type != EntryFree && e.Offset != 0 {
		if obj != nil {
			p.xref.replace(num, XRefEntry{Type: EntryNormal, Offset: objPos, Generation: gen})
		}
	} else {
		p.xref.replace(num, XRefEntry{Type: EntryNormal, Offset: objPos, Generation: gen})
	}

	if objEnd <= here {
		return 0
	}
	return objEnd - here
}

func (r *rebuilder) lastXRefOffset(pos int64) {
	r.p.lastXRef = pos
}

// foundTrailer parses the dictionary following a "trailer" keyword. The
// first usable trailer is taken whole; later ones merge their keys in when
// their /Root is missing or points at a known object.
func (r *rebuilder) foundTrailer(here int64) {
	p := r.p
	syn := p.syntax
	saved := syn.Mark()
	defer syn.Restore(saved)

	syn.SetPos(here)
	dict := GetDict(syn.GetObject(0, 0, false))
	if dict == nil {
		return
	}
	if r.trailer != nil {
		root := dict.Get("Root")
		ref, isRef := root.(Reference)
		if root == nil || (isRef && p.xref.ObjectOffset(ref.Num) != 0) {
			for _, key := range dict.Keys() {
				r.trailer.Set(key, dict.Get(key))
			}
		}
		return
	}
	r.trailer = dict
	mark := syn.Mark()
	if syn.Keyword() == "startxref" {
		if w := syn.NextWord(); w.IsNumber {
			p.lastXRef, _ = atoi64(w.Bytes)
		}
	}
	syn.Restore(mark)
}

// indexObjectStreams adds compressed entries for objects stored in the
// object streams seen during the scan, unless a direct entry exists.
func (r *rebuilder) indexObjectStreams() {
	p := r.p
	for _, num := range r.containers {
		stream := GetStream(p.ParseIndirectObject(num))
		if stream == nil {
			continue
		}
		os, err := NewObjectStream(stream, p.codecs, p.objs, p.limits)
		if err != nil {
			continue
		}
		for i, objnum := range os.ObjectNumbers() {
			if objnum == num {
				continue
			}
			if _, ok := p.xref.Get(objnum); !ok {
				p.xref.set(objnum, XRefEntry{Type: EntryCompressed, Offset: int64(num), Index: i})
				p.xref.markContainer(num)
			}
		}
	}
}

// findCatalog returns the highest-numbered object whose /Type is /Catalog.
func (r *rebuilder) findCatalog() uint32 {
	p := r.p
	var found uint32
	for num := range p.xref.entries {
		if num == 0 || num <= found {
			continue
		}
		e, ok := p.xref.Get(num)
		if !ok || e.Type == EntryFree {
			continue
		}
		if d := GetDict(p.objs.GetIndirectObject(num)); d != nil && d.GetName("Type") == "Catalog" {
			found = num
		}
	}
	return found
}
