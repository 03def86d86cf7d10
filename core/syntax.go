package core

import (
	"bytes"
	"log/slog"
)

// CryptoHandler decrypts strings and stream bodies of one document.
type CryptoHandler interface {
	// Decrypt returns the plaintext of data belonging to object num/gen.
	Decrypt(num uint32, gen uint16, data []byte) ([]byte, error)
}

// GetObject parses the next object at the cursor. num and gen identify the
// enclosing indirect object for decryption; decrypt=false leaves strings as
// stored. It returns nil when no object starts at the cursor.
func (s *Syntax) GetObject(num uint32, gen uint16, decrypt bool) Object {
	return s.parseObject(0, num, gen, decrypt, false)
}

// GetObjectStrict parses like GetObject but never decrypts, requires arrays
// to be closed, and abandons a dictionary at its first unparsable value.
// It is used while rebuilding the cross-reference table.
func (s *Syntax) GetObjectStrict(num uint32, gen uint16) Object {
	return s.parseObject(0, num, gen, false, true)
}

func (s *Syntax) parseObject(depth int, num uint32, gen uint16, decrypt, strict bool) Object {
	if depth > s.limits.MaxParseDepth {
		return nil
	}
	saved := s.Mark()
	word := s.NextWord()
	if word.Empty() {
		return nil
	}

	if word.IsNumber {
		afterFirst := s.Mark()
		if second := s.NextWord(); second.IsNumber {
			if third := s.NextWord(); third.Is("R") {
				objnum, _ := atoi64(word.Bytes)
				if objnum <= 0 || objnum > int64(^uint32(0)) {
					return Null{}
				}
				g, _ := atoi64(second.Bytes)
				return NewReference(s.holder, uint32(objnum), uint16(g))
			}
		}
		s.Restore(afterFirst)
		return parseNumber(word.Bytes)
	}

	switch {
	case word.Is("true"):
		return Bool(true)
	case word.Is("false"):
		return Bool(false)
	case word.Is("null"):
		return Null{}
	case word.Is("("):
		return s.decryptString(String{Value: s.ReadString()}, num, gen, decrypt)
	case word.Is("<"):
		return s.decryptString(String{Value: s.ReadHexString(), Hex: true}, num, gen, decrypt)
	case word.Is("["):
		arr := NewArray()
		for {
			obj := s.parseObject(depth+1, num, gen, decrypt, strict)
			if obj == nil {
				if strict && (len(s.last.Bytes) == 0 || s.last.Bytes[0] != ']') {
					return nil
				}
				return arr
			}
			arr.Append(obj)
		}
	case word.Bytes[0] == '/':
		return Name(decodeName(word.Bytes[1:]))
	case word.Is("<<"):
		return s.parseDict(depth, num, gen, decrypt, strict)
	case word.Is(">>"):
		s.Restore(saved)
	}
	return nil
}

func (s *Syntax) decryptString(str String, num uint32, gen uint16, decrypt bool) Object {
	if !decrypt || s.crypto == nil || len(str.Value) == 0 {
		return str
	}
	plain, err := s.crypto.Decrypt(num, gen, str.Value)
	if err != nil {
		s.logger.Debug("string decryption failed", slog.Any("objnum", num), slog.Any("error", err))
		return str
	}
	str.Value = plain
	return str
}

func (s *Syntax) parseDict(depth int, num uint32, gen uint16, decrypt, strict bool) Object {
	dict := NewDict()
	var contentsPos int64 = -1
	for {
		keyStart := s.Mark()
		key := s.NextWord()
		if key.Empty() {
			return nil
		}
		if key.Is(">>") {
			break
		}
		if key.Is("endobj") {
			s.Restore(keyStart)
			break
		}
		if key.Bytes[0] != '/' {
			continue
		}
		name := decodeName(key.Bytes[1:])
		if name == "Contents" && !strict {
			contentsPos = s.pos
		}
		value := s.parseObject(depth+1, num, gen, decrypt, strict)
		if value == nil {
			if strict {
				s.ToNextLine()
				return nil
			}
			continue
		}
		if strict && name == "" {
			continue
		}
		dict.Set(name, value)
	}

	// Signature contents are stored as plaintext even in encrypted files.
	if contentsPos >= 0 && decrypt && s.crypto != nil && isSignatureDict(dict) {
		end := s.Mark()
		s.pos = contentsPos
		if obj := s.parseObject(depth+1, num, gen, false, strict); obj != nil {
			dict.Set("Contents", obj)
		}
		s.Restore(end)
	}

	afterDict := s.Mark()
	if !s.NextWord().Is("stream") {
		s.Restore(afterDict)
		return dict
	}
	stream := s.ReadStream(dict, num, gen)
	if stream == nil {
		return nil
	}
	return stream
}

func isSignatureDict(d *Dict) bool {
	t := d.GetDirect("Type")
	if t == nil {
		t = d.GetDirect("FT")
	}
	return GetName(t) == "Sig"
}

// ReadStream reads a stream body for dict; the "stream" keyword has been
// consumed. A /Length that does not land on "endstream" is replaced by the
// distance to the first whole-word "endstream" or "endobj".
func (s *Syntax) ReadStream(dict *Dict, num uint32, gen uint16) *Stream {
	var length int64 = -1
	if lenObj := dict.Get("Length"); lenObj != nil {
		ref, isRef := lenObj.(Reference)
		if !isRef || (ref.Holder() != nil && ref.Num != num) {
			if n := Direct(lenObj); n != nil && IsNumber(n) {
				length = int64(GetInteger(n))
			}
		}
	}

	s.pos += s.ReadEOLMarkers(s.pos)
	start := s.pos

	trusted := false
	if length >= 0 {
		if end := start + length; end >= start && end < s.Len() {
			s.pos = end
		}
		s.pos += s.ReadEOLMarkers(s.pos)
		w := s.NextWord()
		const kw = "endstream"
		if bytes.HasPrefix(w.Bytes, []byte(kw)) && s.IsWholeWord(s.pos-int64(len(w.Bytes)), s.Len(), []byte(kw), true) {
			trusted = true
		}
	}

	if !trusted {
		declared := length
		length = s.searchStreamEnd(start)
		if length < 0 {
			return nil
		}
		dict.Set("Length", Int(length))
		s.logger.Debug("stream length recovered",
			slog.Any("objnum", num),
			slog.Int64("declared", declared),
			slog.Int64("recovered", length))
	}
	s.pos = start

	data, err := s.ReadBlock(int(length))
	if err != nil {
		return nil
	}
	if length > 0 && s.crypto != nil && num != s.metadataNum {
		plain, err := s.crypto.Decrypt(num, gen, data)
		if err != nil {
			s.logger.Debug("stream decryption failed", slog.Any("objnum", num), slog.Any("error", err))
		} else {
			data = plain
		}
	}
	stream := &Stream{Dict: dict, raw: data}

	afterData := s.Mark()
	w := s.NextWord()
	if w.Is("endobj") && s.ReadEOLMarkers(s.pos) != 0 {
		s.Restore(afterData)
	}
	return stream
}

// searchStreamEnd finds the length of a stream body starting at start by
// locating the earliest whole-word "endstream" or "endobj" and dropping the
// EOL that precedes it. It returns -1 if neither keyword is present.
func (s *Syntax) searchStreamEnd(start int64) int64 {
	find := func(tag string) int64 {
		s.pos = start
		for {
			off := s.FindTag([]byte(tag), 0)
			if off < 0 {
				return -1
			}
			if s.IsWholeWord(s.pos-int64(len(tag)), s.Len(), []byte(tag), true) {
				return s.pos - start - int64(len(tag))
			}
		}
	}
	endStream := find("endstream")
	endObj := find("endobj")
	switch {
	case endStream < 0 && endObj < 0:
		return -1
	case endStream < 0:
		endStream = endObj
	case endObj >= 0 && endStream > endObj:
		endStream = endObj
	}
	length := endStream
	if s.ReadEOLMarkers(start+endStream-2) == 2 {
		length -= 2
	} else if s.ReadEOLMarkers(start+endStream-1) == 1 {
		length--
	}
	if length < 0 {
		return -1
	}
	return length
}

// IsWholeWord reports whether tag found at start is not glued to adjacent
// regular or numeric bytes. With keyword set, adjacent delimiters also
// disqualify the match.
func (s *Syntax) IsWholeWord(start, limit int64, tag []byte, keyword bool) bool {
	if len(tag) == 0 {
		return false
	}
	bad := func(c byte) bool {
		cl := charClass[c]
		return cl == classNumeric || cl == classRegular || (keyword && cl == classDelimiter)
	}
	checkLeft := charClass[tag[0]] != classDelimiter && charClass[tag[0]] != classWhitespace
	last := tag[len(tag)-1]
	checkRight := charClass[last] != classDelimiter && charClass[last] != classWhitespace
	end := start + int64(len(tag))
	if checkRight && end <= limit {
		if c, ok := s.CharAt(end); ok && bad(c) {
			return false
		}
	}
	if checkLeft && start > 0 {
		if c, ok := s.CharAt(start - 1); ok && bad(c) {
			return false
		}
	}
	return true
}

// SearchWord looks for tag from the cursor, forward or backward, within
// limit bytes (0 means unbounded). On success the cursor is left at the
// start of the match.
func (s *Syntax) SearchWord(tag []byte, wholeWord, forward bool, limit int64) bool {
	n := len(tag)
	if n == 0 {
		return false
	}
	origin := s.pos
	pos := origin
	offset := 0
	if !forward {
		offset = n - 1
	}
	for {
		var c byte
		var ok bool
		if forward {
			if limit > 0 && pos >= origin+limit {
				return false
			}
			c, ok = s.charAt(pos, false)
		} else {
			if limit > 0 && pos <= origin-limit {
				return false
			}
			c, ok = s.charAt(pos, true)
		}
		if !ok {
			return false
		}
		if c == tag[offset] {
			if forward {
				offset++
				if offset < n {
					pos++
					continue
				}
			} else {
				offset--
				if offset >= 0 {
					pos--
					continue
				}
			}
			start := pos
			if forward {
				start = pos - int64(n) + 1
			}
			if !wholeWord || s.IsWholeWord(start, s.Len(), tag, false) {
				s.pos = start
				return true
			}
		}
		if forward {
			offset = 0
			if c == tag[0] {
				offset = 1
			}
			pos++
		} else {
			offset = n - 1
			if c == tag[n-1] {
				offset = n - 2
			}
			pos--
		}
		if pos < 0 {
			return false
		}
	}
}

// FindTag scans forward from the cursor for tag and returns the distance
// from the starting cursor to the match, leaving the cursor just past it.
// It returns -1 if the tag is not found within limit bytes (0 = unbounded).
func (s *Syntax) FindTag(tag []byte, limit int64) int64 {
	if len(tag) == 0 {
		return -1
	}
	start := s.pos
	if limit > 0 {
		limit += start
	}
	match := 0
	for {
		c, ok := s.next()
		if !ok {
			return -1
		}
		if c == tag[match] {
			match++
			if match == len(tag) {
				return s.pos - start - int64(len(tag))
			}
		} else if c == tag[0] {
			match = 1
		} else {
			match = 0
		}
		if limit > 0 && s.pos == limit {
			return -1
		}
	}
}
