package core

import "testing"

// countingLoader serves objects from a map and counts parses
type countingLoader struct {
	objects map[uint32]Object
	loads   map[uint32]int
	last    uint32
	during  func(num uint32)
}

func newCountingLoader(objects map[uint32]Object) *countingLoader {
	l := &countingLoader{objects: objects, loads: make(map[uint32]int)}
	for num := range objects {
		if num > l.last {
			l.last = num
		}
	}
	return l
}

func (l *countingLoader) LoadIndirectObject(num uint32) (Object, uint16) {
	l.loads[num]++
	if l.during != nil {
		l.during(num)
	}
	return l.objects[num], 0
}

func (l *countingLoader) LastObjNum() uint32 {
	return l.last
}

// TestTableLazyLoad tests that objects are parsed once and stay resident
func TestTableLazyLoad(t *testing.T) {
	loader := newCountingLoader(map[uint32]Object{1: NewDict(), 2: Null{}})
	table := NewTable(loader)

	a := table.GetIndirectObject(1)
	b := table.GetIndirectObject(1)
	if a == nil || a != b {
		t.Error("expected the same object on both lookups")
	}
	if loader.loads[1] != 1 {
		t.Errorf("expected one parse, got %d", loader.loads[1])
	}
	if !table.IsResident(1) {
		t.Error("expected object 1 to be resident")
	}

	tests := []struct {
		name string
		num  uint32
	}{
		{"null object", 2},
		{"missing object", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if obj := table.GetIndirectObject(tt.num); obj != nil {
				t.Errorf("expected nil, got %v", obj)
			}
			table.GetIndirectObject(tt.num)
			if loader.loads[tt.num] != 1 {
				t.Errorf("expected the failure to be remembered, got %d parses", loader.loads[tt.num])
			}
			if table.IsResident(tt.num) {
				t.Error("expected tombstone not to count as resident")
			}
		})
	}

	if table.GetIndirectObject(0) != nil {
		t.Error("expected object 0 to resolve to nil")
	}
	if loader.loads[0] != 0 {
		t.Error("expected object 0 never to be parsed")
	}
}

// TestTableReentrancy tests that a lookup of an object being parsed fails
func TestTableReentrancy(t *testing.T) {
	loader := newCountingLoader(map[uint32]Object{1: Int(1)})
	table := NewTable(loader)
	var inner Object = Int(-1)
	loader.during = func(num uint32) {
		inner = table.GetIndirectObject(num)
	}
	if got := table.GetIndirectObject(1); got != Int(1) {
		t.Errorf("expected 1, got %v", got)
	}
	if inner != nil {
		t.Errorf("expected nested lookup to return nil, got %v", inner)
	}
	if loader.loads[1] != 1 {
		t.Errorf("expected one parse, got %d", loader.loads[1])
	}
}

// TestTableInsert tests the generation rule for replacing objects
func TestTableInsert(t *testing.T) {
	table := NewTable(nil)

	tests := []struct {
		name     string
		gen      uint16
		value    Object
		accepted bool
		current  Object
	}{
		{"first insert", 2, Int(1), true, Int(1)},
		{"same generation", 2, Int(2), true, Int(2)},
		{"higher generation", 3, Int(3), true, Int(3)},
		{"lower generation", 1, Int(4), false, Int(3)},
		{"nil object", 5, nil, false, Int(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.InsertIndirectObject(7, tt.gen, tt.value); got != tt.accepted {
				t.Errorf("expected accepted=%v, got %v", tt.accepted, got)
			}
			if got := table.GetIndirectObject(7); got != tt.current {
				t.Errorf("expected %v resident, got %v", tt.current, got)
			}
		})
	}

	if table.InsertIndirectObject(0, 0, Int(1)) {
		t.Error("expected object 0 to be refused")
	}
	if table.LastObjNum() != 7 {
		t.Errorf("expected last object 7, got %d", table.LastObjNum())
	}
}

// TestTableAddDeleteRelease tests number allocation, freeing and reloading
func TestTableAddDeleteRelease(t *testing.T) {
	loader := newCountingLoader(map[uint32]Object{1: Int(10), 4: Int(40)})
	table := NewTable(loader)

	num := table.AddIndirectObject(NewString("new"))
	if num != 5 {
		t.Errorf("expected new object number 5, got %d", num)
	}
	if GetString(table.GetIndirectObject(num)) != "new" {
		t.Error("expected added object to resolve")
	}
	if table.AddIndirectObject(nil) != 0 {
		t.Error("expected nil object to be refused")
	}

	table.GetIndirectObject(1)
	table.ReleaseIndirectObject(1)
	if table.IsResident(1) {
		t.Error("expected released object to leave the table")
	}
	if table.GetIndirectObject(1) != Int(10) || loader.loads[1] != 2 {
		t.Errorf("expected released object to be parsed again, got %d parses", loader.loads[1])
	}

	table.DeleteIndirectObject(4)
	if table.GetIndirectObject(4) != nil {
		t.Error("expected deleted object to resolve to nil")
	}
	if loader.loads[4] != 0 {
		t.Error("expected deleted object never to be parsed")
	}

	table.Reset()
	if table.Len() != 0 {
		t.Errorf("expected empty table after Reset, got %d", table.Len())
	}
	if table.LastObjNum() != 4 {
		t.Errorf("expected last object from loader after Reset, got %d", table.LastObjNum())
	}
}

// TestTableAsHolder tests references created against a table
func TestTableAsHolder(t *testing.T) {
	table := NewTable(nil)
	dict := NewDict()
	dict.Set("Value", Int(9))
	table.InsertIndirectObject(3, 0, dict)

	ref := NewReference(table, 3, 0)
	if GetDict(ref).GetInteger("Value") != 9 {
		t.Error("expected reference to resolve through the table")
	}
	if ref.Holder() != Holder(table) {
		t.Error("expected reference to keep its holder")
	}
	table.DeleteIndirectObject(3)
	if ref.Resolve() != nil {
		t.Error("expected dangling reference after delete")
	}
}
