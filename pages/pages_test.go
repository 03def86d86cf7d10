package pages

import (
	"errors"
	"testing"

	"github.com/tsawler/pdfcore/core"
)

// treeBuilder assembles a page tree as indirect objects in a Table.
type treeBuilder struct {
	table *core.Table
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{table: core.NewTable(nil)}
}

func (b *treeBuilder) ref(num uint32) core.Reference {
	return core.NewReference(b.table, num, 0)
}

func (b *treeBuilder) put(num uint32, d *core.Dict) *core.Dict {
	b.table.InsertIndirectObject(num, 0, d)
	return d
}

// node stores a /Pages node with the given kids and /Count. A negative
// count omits the key.
func (b *treeBuilder) node(num, parent uint32, count int, kids ...uint32) *core.Dict {
	d := core.NewDict()
	d.Set("Type", core.Name("Pages"))
	arr := core.NewArray()
	for _, k := range kids {
		arr.Append(b.ref(k))
	}
	d.Set("Kids", arr)
	if count >= 0 {
		d.Set("Count", core.Int(count))
	}
	if parent != 0 {
		d.Set("Parent", b.ref(parent))
	}
	return b.put(num, d)
}

func (b *treeBuilder) page(num, parent uint32) *core.Dict {
	d := core.NewDict()
	d.Set("Type", core.Name("Page"))
	d.Set("Parent", b.ref(parent))
	return b.put(num, d)
}

func (b *treeBuilder) tree(root uint32, opts ...Option) *Tree {
	return NewTree(core.GetDict(b.table.GetIndirectObject(root)), opts...)
}

// nestedTree builds
//
//	1 -> [2 -> [3, 4], 5, 6 -> [7 -> [8]]]
func nestedTree() *treeBuilder {
	b := newTreeBuilder()
	b.node(1, 0, 4, 2, 5, 6)
	b.node(2, 1, 2, 3, 4)
	b.page(3, 2)
	b.page(4, 2)
	b.page(5, 1)
	b.node(6, 1, 1, 7)
	b.node(7, 6, 1, 8)
	b.page(8, 7)
	return b
}

// TestTreePage tests page lookup by index
func TestTreePage(t *testing.T) {
	tests := []struct {
		name  string
		build func() *treeBuilder
		want  []uint32
	}{
		{"nested", nestedTree, []uint32{3, 4, 5, 8}},
		{"wrong counts", func() *treeBuilder {
			b := nestedTree()
			b.node(2, 1, 7, 3, 4)
			return b
		}, []uint32{3, 4, 5, 8}},
		{"missing counts", func() *treeBuilder {
			b := nestedTree()
			b.node(6, 1, -1, 7)
			return b
		}, []uint32{3, 4, 5, 8}},
		{"empty subtree", func() *treeBuilder {
			b := nestedTree()
			b.node(2, 1, 0)
			return b
		}, []uint32{5, 8}},
		{"cycle", func() *treeBuilder {
			b := nestedTree()
			b.node(7, 6, 2, 8, 1)
			return b
		}, []uint32{3, 4, 5, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				p, err := tt.build().tree(1).Page(i)
				if err != nil {
					t.Fatalf("Page(%d): %v", i, err)
				}
				if p.ObjNum != want {
					t.Errorf("Page(%d) = obj %d, want %d", i, p.ObjNum, want)
				}
			}
			tree := tt.build().tree(1)
			if got := tree.Count(); got != len(tt.want) {
				t.Errorf("Count = %d, want %d", got, len(tt.want))
			}
			if _, err := tree.Page(len(tt.want)); !errors.Is(err, ErrPageRange) {
				t.Errorf("Page(%d) err = %v, want ErrPageRange", len(tt.want), err)
			}
		})
	}
}

// TestTreeNodeCap tests that the visited cap bounds traversal
func TestTreeNodeCap(t *testing.T) {
	b := newTreeBuilder()
	kids := make([]uint32, 0, 50)
	for i := uint32(0); i < 50; i++ {
		kids = append(kids, 10+i)
		b.page(10+i, 1)
	}
	b.node(1, 0, 50, kids...)

	limits := core.DefaultLimits()
	limits.MaxPageTreeNodes = 21
	tree := b.tree(1, WithLimits(limits))
	if got := tree.Count(); got != 20 {
		t.Errorf("Count = %d, want 20", got)
	}
	if _, err := b.tree(1, WithLimits(limits)).Page(30); !errors.Is(err, ErrPageRange) {
		t.Errorf("Page(30) err = %v, want ErrPageRange", err)
	}
}

// TestTreeNegativeIndex tests rejection of negative indexes
func TestTreeNegativeIndex(t *testing.T) {
	if _, err := nestedTree().tree(1).Page(-1); !errors.Is(err, ErrPageRange) {
		t.Errorf("err = %v, want ErrPageRange", err)
	}
	if n := NewTree(nil).Count(); n != 0 {
		t.Errorf("nil root Count = %d", n)
	}
}

// TestCatalog tests catalog accessors
func TestCatalog(t *testing.T) {
	b := nestedTree()
	meta := core.NewStream(core.NewDict(), []byte("<x/>"))
	b.table.InsertIndirectObject(20, 0, meta)
	cat := core.NewDict()
	cat.Set("Type", core.Name("Catalog"))
	cat.Set("Pages", b.ref(1))
	cat.Set("Metadata", b.ref(20))
	cat.Set("Version", core.Name("1.7"))
	cat.Set("AcroForm", core.NewDict())

	c := NewCatalog(cat)
	if c.Type() != "Catalog" || c.Version() != "1.7" {
		t.Errorf("Type=%q Version=%q", c.Type(), c.Version())
	}
	if c.Pages() == nil || c.AcroForm() == nil {
		t.Error("Pages or AcroForm missing")
	}
	if c.Metadata() != meta || c.MetadataObjNum() != 20 {
		t.Errorf("Metadata = %v, %d", c.Metadata(), c.MetadataObjNum())
	}
	if NewCatalog(nil).Pages() != nil {
		t.Error("nil catalog has pages")
	}
}
