package core

// Loader parses indirect objects on behalf of a Table.
type Loader interface {
	// LoadIndirectObject parses object num, returning nil if it is absent
	// or unparsable, along with the generation it was stored under.
	LoadIndirectObject(num uint32) (Object, uint16)
	// LastObjNum returns the highest object number the loader knows.
	LastObjNum() uint32
}

// record is one slot of the table. A nil obj with tombstone set marks a
// freed or unparsable object.
type record struct {
	obj       Object
	gen       uint16
	tombstone bool
}

// Table is the indirect object table of one document. Objects are parsed
// lazily through its Loader the first time they are looked up and then
// stay resident until released. A Table is not safe for concurrent use.
type Table struct {
	loader  Loader
	records map[uint32]*record
	parsing map[uint32]bool
	lastNum uint32
}

// NewTable creates a table backed by loader, which may be nil for
// documents built in memory.
func NewTable(loader Loader) *Table {
	t := &Table{
		loader:  loader,
		records: make(map[uint32]*record),
		parsing: make(map[uint32]bool),
	}
	if loader != nil {
		t.lastNum = loader.LastObjNum()
	}
	return t
}

// GetIndirectObject returns object num, parsing it on first use. Object 0,
// freed objects, unparsable objects and objects whose parse is already in
// progress resolve to nil.
func (t *Table) GetIndirectObject(num uint32) Object {
	if num == 0 {
		return nil
	}
	if rec, ok := t.records[num]; ok {
		return rec.obj
	}
	if t.loader == nil || t.parsing[num] {
		return nil
	}
	t.parsing[num] = true
	obj, gen := t.loader.LoadIndirectObject(num)
	delete(t.parsing, num)
	if rec, ok := t.records[num]; ok {
		// Inserted while we were parsing.
		return rec.obj
	}
	if _, isNull := obj.(Null); isNull {
		obj = nil
	}
	t.records[num] = &record{obj: obj, gen: gen, tombstone: obj == nil}
	if num > t.lastNum {
		t.lastNum = num
	}
	return obj
}

// IsResident reports whether num has been parsed or inserted
func (t *Table) IsResident(num uint32) bool {
	rec, ok := t.records[num]
	return ok && !rec.tombstone
}

// InsertIndirectObject stores obj as num. It is refused when a resident
// object with a higher generation already occupies the slot.
func (t *Table) InsertIndirectObject(num uint32, gen uint16, obj Object) bool {
	if num == 0 || obj == nil {
		return false
	}
	if rec, ok := t.records[num]; ok && !rec.tombstone && rec.gen > gen {
		return false
	}
	t.records[num] = &record{obj: obj, gen: gen}
	if num > t.lastNum {
		t.lastNum = num
	}
	return true
}

// AddIndirectObject stores obj under the next free object number and
// returns that number.
func (t *Table) AddIndirectObject(obj Object) uint32 {
	if obj == nil {
		return 0
	}
	t.lastNum++
	t.records[t.lastNum] = &record{obj: obj}
	return t.lastNum
}

// DeleteIndirectObject frees num. Later lookups return nil.
func (t *Table) DeleteIndirectObject(num uint32) {
	if num == 0 {
		return
	}
	t.records[num] = &record{tombstone: true}
}

// ReleaseIndirectObject drops the resident copy of num so the next lookup
// parses it again.
func (t *Table) ReleaseIndirectObject(num uint32) {
	delete(t.records, num)
}

// LastObjNum returns the highest object number in use
func (t *Table) LastObjNum() uint32 {
	return t.lastNum
}

// Reset drops every record. It is used after the cross-reference table
// is rebuilt.
func (t *Table) Reset() {
	t.records = make(map[uint32]*record)
	t.parsing = make(map[uint32]bool)
	t.lastNum = 0
	if t.loader != nil {
		t.lastNum = t.loader.LastObjNum()
	}
}

// Len returns the number of records, tombstones included
func (t *Table) Len() int {
	return len(t.records)
}
