package core

import (
	"fmt"

	"github.com/tsawler/pdfcore/codec"
)

// ObjectStream is a decoded /Type /ObjStm container. Its header of
// object number/offset pairs is read once; objects are parsed on demand.
type ObjectStream struct {
	n       int
	first   int
	decoded []byte
	offsets []objectStreamOffset
	holder  Holder
	limits  Limits
}

// objectStreamOffset pairs an object number with its offset relative to /First.
type objectStreamOffset struct {
	ObjNum uint32
	Offset int
}

// NewObjectStream decodes stream and reads its header. References in the
// contained objects resolve through holder.
func NewObjectStream(stream *Stream, codecs *codec.Codecs, holder Holder, limits Limits) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	n := stream.Dict.GetInteger("N")
	first := stream.Dict.GetInteger("First")
	if n < 0 {
		return nil, fmt.Errorf("invalid /N value: %d", n)
	}
	if first < 0 {
		return nil, fmt.Errorf("invalid /First value: %d", first)
	}
	decoded, err := stream.Decode(codecs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream: %w", err)
	}
	os := &ObjectStream{
		n:       n,
		first:   first,
		decoded: decoded,
		holder:  holder,
		limits:  limits.Normalize(),
	}
	os.parseHeader()
	return os, nil
}

// N returns the number of objects declared by /N.
func (os *ObjectStream) N() int {
	return os.n
}

// First returns the offset of the first object in the decoded data.
func (os *ObjectStream) First() int {
	return os.first
}

// parseHeader reads up to N pairs. A truncated header keeps the pairs read
// so far.
func (os *ObjectStream) parseHeader() {
	syntax := NewSyntax(NewBytesSource(os.decoded), 0)
	os.offsets = make([]objectStreamOffset, 0, min(os.n, 1024))
	for i := 0; i < os.n; i++ {
		num := syntax.NextWord()
		off := syntax.NextWord()
		if !num.IsNumber || !off.IsNumber {
			break
		}
		objnum, _ := atoi64(num.Bytes)
		offset, _ := atoi64(off.Bytes)
		if objnum <= 0 || objnum > int64(^uint32(0)) || offset < 0 {
			continue
		}
		os.offsets = append(os.offsets, objectStreamOffset{ObjNum: uint32(objnum), Offset: int(offset)})
	}
}

// GetObjectByIndex parses the object at header position index. It returns
// nil if the index is out of range or the object is unparsable.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, uint32) {
	if index < 0 || index >= len(os.offsets) {
		return nil, 0
	}
	entry := os.offsets[index]
	pos := int64(os.first) + int64(entry.Offset)
	if pos >= int64(len(os.decoded)) {
		return nil, entry.ObjNum
	}
	syntax := NewSyntax(NewBytesSource(os.decoded), 0)
	syntax.SetHolder(os.holder)
	syntax.SetLimits(os.limits)
	syntax.SetPos(pos)
	return syntax.GetObject(0, 0, false), entry.ObjNum
}

// GetObjectByNumber finds objnum in the header and parses it. hint is the
// index recorded in the cross-reference stream; it is tried first.
func (os *ObjectStream) GetObjectByNumber(objnum uint32, hint int) Object {
	if hint >= 0 && hint < len(os.offsets) && os.offsets[hint].ObjNum == objnum {
		obj, _ := os.GetObjectByIndex(hint)
		return obj
	}
	for i, entry := range os.offsets {
		if entry.ObjNum == objnum {
			obj, _ := os.GetObjectByIndex(i)
			return obj
		}
	}
	return nil
}

// ObjectNumbers returns the object numbers listed in the header.
func (os *ObjectStream) ObjectNumbers() []uint32 {
	nums := make([]uint32, len(os.offsets))
	for i, entry := range os.offsets {
		nums[i] = entry.ObjNum
	}
	return nums
}

// ContainsObject reports whether objnum is listed in the header.
func (os *ObjectStream) ContainsObject(objnum uint32) bool {
	for _, entry := range os.offsets {
		if entry.ObjNum == objnum {
			return true
		}
	}
	return false
}
