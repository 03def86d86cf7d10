package core

import (
	"strconv"
	"strings"
)

// Object is a PDF value. The concrete types form a closed set:
// Null, Bool, Int, Real, String, Name, *Array, *Dict, *Stream and Reference.
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType identifies the variant of an Object.
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjReference
)

// String returns the variant name
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjReference:
		return "Reference"
	default:
		return "Unknown"
	}
}

// Holder resolves object numbers to indirect objects. The indirect object
// table is the usual Holder; a Reference keeps a non-owning pointer to it.
type Holder interface {
	GetIndirectObject(num uint32) Object
}

// Null is the PDF null object
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }

// Bool is a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }

// Int is an integer Number
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real is a fractional Number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String is a PDF string. Hex records whether it was written as <...>.
type String struct {
	Value []byte
	Hex   bool
}

// NewString creates a literal string
func NewString(s string) String {
	return String{Value: []byte(s)}
}

// NewHexString creates a hexadecimal string
func NewHexString(b []byte) String {
	return String{Value: b, Hex: true}
}

func (s String) Type() ObjectType { return ObjString }

// String serialises the value in PDF syntax
func (s String) String() string {
	if s.Hex {
		const digits = "0123456789ABCDEF"
		var sb strings.Builder
		sb.WriteByte('<')
		for _, c := range s.Value {
			sb.WriteByte(digits[c>>4])
			sb.WriteByte(digits[c&0x0f])
		}
		sb.WriteByte('>')
		return sb.String()
	}
	return encodeLiteral(s.Value)
}

// Text decodes the string as a PDF text string (PDFDocEncoding or UTF-16BE).
func (s String) Text() string {
	return DecodeTextString(s.Value)
}

// Name is a PDF name without its leading slash
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + encodeName(string(n)) }

// Reference points at an indirect object through its owning Holder.
type Reference struct {
	Num    uint32
	Gen    uint16
	holder Holder
}

// NewReference creates a reference resolved through h
func NewReference(h Holder, num uint32, gen uint16) Reference {
	return Reference{Num: num, Gen: gen, holder: h}
}

func (r Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return strconv.FormatUint(uint64(r.Num), 10) + " " + strconv.FormatUint(uint64(r.Gen), 10) + " R"
}

// Holder returns the table the reference resolves through
func (r Reference) Holder() Holder {
	return r.holder
}

// Resolve returns the direct object the reference points at, or nil.
func (r Reference) Resolve() Object {
	return directAt(r, 0)
}

// Array is an ordered sequence of objects. It owns its direct children.
type Array struct {
	items []Object
}

// NewArray creates an array holding items
func NewArray(items ...Object) *Array {
	return &Array{items: items}
}

func (a *Array) Type() ObjectType { return ObjArray }
func (a *Array) String() string {
	parts := make([]string, 0, a.Len())
	for _, obj := range a.Items() {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the number of elements
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// Items returns the backing slice
func (a *Array) Items() []Object {
	if a == nil {
		return nil
	}
	return a.items
}

// Get returns the element at index without resolving references
func (a *Array) Get(index int) Object {
	if a == nil || index < 0 || index >= len(a.items) {
		return nil
	}
	return a.items[index]
}

// GetDirect returns the element at index with references resolved
func (a *Array) GetDirect(index int) Object { return Direct(a.Get(index)) }

// GetInteger returns the element at index as an integer
func (a *Array) GetInteger(index int) int { return GetInteger(a.Get(index)) }

// GetNumber returns the element at index as a float
func (a *Array) GetNumber(index int) float64 { return GetNumber(a.Get(index)) }

// GetString returns the element at index as a byte string
func (a *Array) GetString(index int) string { return GetString(a.Get(index)) }

// GetName returns the element at index if it is a name
func (a *Array) GetName(index int) string { return GetName(a.Get(index)) }

// GetDict returns the element at index as a dictionary
func (a *Array) GetDict(index int) *Dict { return GetDict(a.Get(index)) }

// GetArray returns the element at index as an array
func (a *Array) GetArray(index int) *Array { return GetArray(a.Get(index)) }

// Append adds an element
func (a *Array) Append(obj Object) {
	a.items = append(a.items, obj)
}

// Set replaces the element at index
func (a *Array) Set(index int, obj Object) {
	if index >= 0 && index < len(a.items) {
		a.items[index] = obj
	}
}

// Dict maps names to objects. Lookup ignores order; serialisation keeps the
// order keys were first inserted.
type Dict struct {
	keys []string
	m    map[string]Object
}

// NewDict creates an empty dictionary
func NewDict() *Dict {
	return &Dict{m: make(map[string]Object)}
}

func (d *Dict) Type() ObjectType { return ObjDict }
func (d *Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for i, k := range d.Keys() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Name(k).String())
		sb.WriteByte(' ')
		sb.WriteString(d.m[k].String())
	}
	sb.WriteString(">>")
	return sb.String()
}

// Len returns the number of entries
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get retrieves a value without resolving references
func (d *Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	return d.m[key]
}

// Has reports whether key is present
func (d *Dict) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.m[key]
	return ok
}

// Set stores value under key. A repeated key keeps its original position and
// takes the new value. A nil value removes the key.
func (d *Dict) Set(key string, value Object) {
	if value == nil {
		d.Delete(key)
		return
	}
	if d.m == nil {
		d.m = make(map[string]Object)
	}
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = value
}

// Delete removes key
func (d *Dict) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.m[key]; !ok {
		return
	}
	delete(d.m, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// GetDirect retrieves a value with references resolved
func (d *Dict) GetDirect(key string) Object { return Direct(d.Get(key)) }

// GetDict retrieves a dictionary value (a stream yields its dictionary)
func (d *Dict) GetDict(key string) *Dict { return GetDict(d.Get(key)) }

// GetArray retrieves an array value
func (d *Dict) GetArray(key string) *Array { return GetArray(d.Get(key)) }

// GetStream retrieves a stream value
func (d *Dict) GetStream(key string) *Stream { return GetStream(d.Get(key)) }

// GetString retrieves a value as a byte string
func (d *Dict) GetString(key string) string { return GetString(d.Get(key)) }

// GetName retrieves a name value
func (d *Dict) GetName(key string) string { return GetName(d.Get(key)) }

// GetInteger retrieves a value as an integer
func (d *Dict) GetInteger(key string) int { return GetInteger(d.Get(key)) }

// GetNumber retrieves a value as a float
func (d *Dict) GetNumber(key string) float64 { return GetNumber(d.Get(key)) }

// GetBool retrieves a boolean value
func (d *Dict) GetBool(key string, def bool) bool {
	if b, ok := Direct(d.Get(key)).(Bool); ok {
		return bool(b)
	}
	return def
}

// GetReference returns the value stored under key if it is a Reference
func (d *Dict) GetReference(key string) (Reference, bool) {
	ref, ok := d.Get(key).(Reference)
	return ref, ok
}

// Stream is a dictionary plus a byte payload. Raw holds the bytes as stored
// in the file after decryption; Decode applies the filter chain.
type Stream struct {
	Dict *Dict
	raw  []byte
}

// NewStream creates a stream and sets /Length to len(raw)
func NewStream(dict *Dict, raw []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	s := &Stream{Dict: dict}
	s.SetRaw(raw)
	return s
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return s.Dict.String() + " stream(" + strconv.Itoa(len(s.raw)) + " bytes)"
}

// Raw returns the undecoded payload
func (s *Stream) Raw() []byte {
	if s == nil {
		return nil
	}
	return s.raw
}

// SetRaw replaces the payload and updates /Length
func (s *Stream) SetRaw(raw []byte) {
	s.raw = raw
	s.Dict.Set("Length", Int(len(raw)))
}
