package pages

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfcore/core"
)

// ErrPageRange is returned for a page index outside the document.
var ErrPageRange = errors.New("page index out of range")

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict *core.Dict
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict *core.Dict) *Catalog {
	return &Catalog{dict: dict}
}

// Dict returns the catalog dictionary
func (c *Catalog) Dict() *core.Dict {
	return c.dict
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	return c.dict.GetName("Type")
}

// Pages returns the page tree root, or nil
func (c *Catalog) Pages() *core.Dict {
	return c.dict.GetDict("Pages")
}

// Metadata returns the metadata stream, or nil
func (c *Catalog) Metadata() *core.Stream {
	return c.dict.GetStream("Metadata")
}

// MetadataObjNum returns the object number of /Metadata when it is an
// indirect reference, or 0.
func (c *Catalog) MetadataObjNum() uint32 {
	ref, ok := c.dict.GetReference("Metadata")
	if !ok {
		return 0
	}
	return ref.Num
}

// AcroForm returns the interactive form dictionary, or nil
func (c *Catalog) AcroForm() *core.Dict {
	return c.dict.GetDict("AcroForm")
}

// Version returns the /Version entry if present
func (c *Catalog) Version() string {
	return c.dict.GetName("Version")
}

// Option configures a Tree
type Option func(*Tree)

// WithLimits bounds the traversal with l.MaxPageTreeNodes and
// l.MaxParseDepth.
func WithLimits(l core.Limits) Option {
	return func(t *Tree) {
		t.limits = l.Normalize()
	}
}

// Tree walks a page tree. /Count values are used to skip subtrees when
// looking up one page; counting always visits every node.
type Tree struct {
	root   *core.Dict
	limits core.Limits

	leaves  []*Page
	counted bool
}

// NewTree creates a tree rooted at the /Pages dictionary
func NewTree(root *core.Dict, opts ...Option) *Tree {
	t := &Tree{root: root, limits: core.DefaultLimits()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// walker holds the state of one depth-first traversal.
type walker struct {
	visited map[*core.Dict]bool
	nodes   int
	max     int
	depth   int
}

func (t *Tree) newWalker() *walker {
	return &walker{visited: make(map[*core.Dict]bool), max: t.limits.MaxPageTreeNodes, depth: t.limits.MaxParseDepth}
}

// enter marks d visited. It fails for repeated nodes and once the node
// budget is spent.
func (w *walker) enter(d *core.Dict) bool {
	if d == nil || w.visited[d] || w.nodes >= w.max {
		return false
	}
	w.visited[d] = true
	w.nodes++
	return true
}

// skip charges one node of the budget for a kid passed over by find.
func (w *walker) skip() bool {
	if w.nodes >= w.max {
		return false
	}
	w.nodes++
	return true
}

func isNode(d *core.Dict) bool {
	return d.Has("Kids") || d.GetName("Type") == "Pages"
}

// Count returns the number of leaf pages found by a full traversal.
// Repeated nodes are skipped, so a cyclic tree still yields a finite count.
func (t *Tree) Count() int {
	t.collect()
	return len(t.leaves)
}

func (t *Tree) collect() {
	if t.counted {
		return
	}
	t.counted = true
	w := t.newWalker()
	if !w.enter(t.root) {
		return
	}
	t.leaves = w.collect(t.root, 0, nil)
}

func (w *walker) collect(node *core.Dict, level int, out []*Page) []*Page {
	if level > w.depth {
		return out
	}
	kids := node.GetArray("Kids")
	for i := 0; i < kids.Len(); i++ {
		kid := kids.GetDict(i)
		if !w.enter(kid) {
			continue
		}
		if isNode(kid) {
			out = w.collect(kid, level+1, out)
			continue
		}
		out = append(out, &Page{Dict: kid, ObjNum: refNum(kids.Get(i))})
	}
	return out
}

func refNum(obj core.Object) uint32 {
	if ref, ok := obj.(core.Reference); ok {
		return ref.Num
	}
	return 0
}

// Page returns the page at index (0-based). It first descends using the
// /Count of intermediate nodes and falls back to a full traversal when a
// count is missing or wrong.
func (t *Tree) Page(index int) (*Page, error) {
	if index < 0 {
		return nil, fmt.Errorf("page %d: %w", index, ErrPageRange)
	}
	if !t.counted {
		w := t.newWalker()
		if w.enter(t.root) {
			if p := w.find(t.root, index, 0); p != nil {
				return p, nil
			}
		}
	}
	t.collect()
	if index >= len(t.leaves) {
		return nil, fmt.Errorf("page %d of %d: %w", index, len(t.leaves), ErrPageRange)
	}
	return t.leaves[index], nil
}

// find descends by /Count. It returns nil when the counts cannot be
// trusted.
func (w *walker) find(node *core.Dict, index, level int) *Page {
	if level > w.depth {
		return nil
	}
	kids := node.GetArray("Kids")
	for i := 0; i < kids.Len(); i++ {
		kid := kids.GetDict(i)
		if kid == nil {
			continue
		}
		if isNode(kid) {
			count := kid.GetInteger("Count")
			if count <= 0 {
				if kid.Has("Count") && count == 0 && w.skip() {
					continue
				}
				return nil
			}
			if index >= count {
				if !w.skip() {
					return nil
				}
				index -= count
				continue
			}
			if !w.enter(kid) {
				return nil
			}
			return w.find(kid, index, level+1)
		}
		if index == 0 {
			if !w.enter(kid) {
				return nil
			}
			return &Page{Dict: kid, ObjNum: refNum(kids.Get(i))}
		}
		if !w.skip() {
			return nil
		}
		index--
	}
	return nil
}

// Pages returns every leaf page in document order
func (t *Tree) Pages() []*Page {
	t.collect()
	return t.leaves
}
