package core

import "bytes"

// Clone deep-copies obj. Arrays, dictionaries and streams are copied
// recursively so the result shares no mutable state with obj.
//
// With direct set, each reference is replaced by a copy of its target the
// first time its object number is met during this call; later references to
// the same number stay references, which keeps cyclic graphs finite.
// A dangling reference clones to nil.
func Clone(obj Object, direct bool) Object {
	return cloneObject(obj, direct, make(map[uint32]bool))
}

func cloneObject(obj Object, direct bool, visited map[uint32]bool) Object {
	switch v := obj.(type) {
	case nil:
		return nil
	case String:
		return String{Value: append([]byte(nil), v.Value...), Hex: v.Hex}
	case *Array:
		out := &Array{items: make([]Object, 0, v.Len())}
		for _, item := range v.Items() {
			c := cloneObject(item, direct, visited)
			if c == nil {
				c = Null{}
			}
			out.items = append(out.items, c)
		}
		return out
	case *Dict:
		return cloneDict(v, direct, visited)
	case *Stream:
		return &Stream{
			Dict: cloneDict(v.Dict, direct, visited),
			raw:  append([]byte(nil), v.raw...),
		}
	case Reference:
		if !direct || visited[v.Num] {
			return v
		}
		visited[v.Num] = true
		if v.holder == nil {
			return nil
		}
		return cloneObject(v.holder.GetIndirectObject(v.Num), true, visited)
	default:
		return obj
	}
}

func cloneDict(d *Dict, direct bool, visited map[uint32]bool) *Dict {
	if d == nil {
		return nil
	}
	out := &Dict{keys: make([]string, 0, len(d.keys)), m: make(map[string]Object, len(d.keys))}
	for _, k := range d.keys {
		if c := cloneObject(d.m[k], direct, visited); c != nil {
			out.Set(k, c)
		}
	}
	return out
}

// IsIdentical reports whether a and b are structurally equal. When only one
// side is a reference it is resolved before comparing; two references are
// equal when they name the same object number.
func IsIdentical(a, b Object) bool {
	return identicalAt(a, b, 0)
}

func identicalAt(a, b Object, depth int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if depth > MaxRefDepth {
		return false
	}
	if a.Type() != b.Type() {
		if ra, ok := a.(Reference); ok {
			return identicalAt(directAt(ra, 0), b, depth+1)
		}
		if rb, ok := b.(Reference); ok {
			return identicalAt(a, directAt(rb, 0), depth+1)
		}
		return false
	}

	switch av := a.(type) {
	case String:
		return bytes.Equal(av.Value, b.(String).Value)
	case Reference:
		return av.Num == b.(Reference).Num
	case *Array:
		bv := b.(*Array)
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.items {
			if !identicalAt(av.items[i], bv.items[i], depth+1) {
				return false
			}
		}
		return true
	case *Dict:
		return identicalDicts(av, b.(*Dict), depth)
	case *Stream:
		bv := b.(*Stream)
		return identicalDicts(av.Dict, bv.Dict, depth) && bytes.Equal(av.raw, bv.raw)
	default:
		return a == b
	}
}

func identicalDicts(a, b *Dict, depth int) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		if !b.Has(k) || !identicalAt(a.Get(k), b.Get(k), depth+1) {
			return false
		}
	}
	return true
}
