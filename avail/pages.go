package avail

import (
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pages"
)

type nodeKind int

const (
	nodeUnknown nodeKind = iota
	nodePage
	nodePages
)

// pageNode is a page-tree node whose kind is learned when its object
// arrives. Kids are only fetched when a page lookup needs them.
type pageNode struct {
	kind nodeKind
	num  uint32
	kids []*pageNode
}

func kidNodes(obj core.Object) []*pageNode {
	var kids []*pageNode
	add := func(o core.Object) {
		if ref, ok := o.(core.Reference); ok && ref.Num != 0 {
			kids = append(kids, &pageNode{num: ref.Num})
		}
	}
	switch v := obj.(type) {
	case core.Reference:
		add(v)
	case *core.Array:
		for i := 0; i < v.Len(); i++ {
			add(v.Get(i))
		}
	}
	return kids
}

// pageCheck is the progress of one IsPageAvail index.
type pageCheck struct {
	index     int
	dictOK    bool
	dict      *core.Dict
	objsOK    bool
	annotsOK  bool
	resources core.Object
	resFound  bool
	objs      objectWalk
	annots    objectWalk
	res       objectWalk
}

// objectWalk is a breadth-first availability walk that resumes where it
// stopped. Objects already expanded are never expanded again.
type objectWalk struct {
	started bool
	pending []core.Object
	seen    map[uint32]bool
}

// walk expands arrays, dictionaries and streams and follows references
// whose bytes have arrived. /Parent entries are not followed, and page
// dictionaries are only expanded when parsePage is set on the first
// round. It reports true once nothing is pending.
func (a *DataAvail) walk(w *objectWalk, roots []core.Object, parsePage bool, hints Hints) bool {
	if !w.started {
		w.started = true
		w.pending = roots
		w.seen = make(map[uint32]bool)
	} else {
		parsePage = false
	}
	for len(w.pending) > 0 {
		var next, waiting []core.Object
		missing := false
		for _, obj := range w.pending {
			switch v := obj.(type) {
			case *core.Array:
				for i := 0; i < v.Len(); i++ {
					next = append(next, v.Get(i))
				}
			case *core.Stream:
				next = appendDict(next, v.Dict, parsePage)
			case *core.Dict:
				next = appendDict(next, v, parsePage)
			case core.Reference:
				offset, size := a.objectRange(v.Num)
				if size == 0 {
					continue
				}
				if !a.request(offset, size, hints) {
					waiting = append(waiting, v)
					missing = true
					continue
				}
				if w.seen[v.Num] {
					continue
				}
				w.seen[v.Num] = true
				if target := a.parser.Objects().GetIndirectObject(v.Num); target != nil {
					next = append(next, target)
				}
			}
		}
		if missing {
			for _, obj := range next {
				if ref, ok := obj.(core.Reference); ok && w.seen[ref.Num] {
					continue
				}
				waiting = append(waiting, obj)
			}
			w.pending = waiting
			return false
		}
		w.pending = next
		parsePage = false
	}
	return true
}

func appendDict(next []core.Object, d *core.Dict, parsePage bool) []core.Object {
	if d == nil || (!parsePage && d.GetName("Type") == "Page") {
		return next
	}
	for _, key := range d.Keys() {
		if key != "Parent" {
			next = append(next, d.Get(key))
		}
	}
	return next
}

// IsPageAvail reports whether page index and everything it draws from
// (contents, resources, annotations and the form fields) have arrived.
// The document check runs first.
func (a *DataAvail) IsPageAvail(index int, hints Hints) bool {
	if index < 0 || !a.IsDocAvail(hints) {
		return false
	}
	if a.allLoaded || a.pagesLoaded[index] {
		return true
	}
	if a.page == nil || a.page.index != index {
		a.page = &pageCheck{index: index}
	}
	pc := a.page

	if a.linearized != nil {
		if index == a.linearized.FirstPage {
			a.finishPage(index)
			return true
		}
		if !a.checkLinearizedData(hints) {
			return false
		}
		if a.allLoaded {
			return true
		}
	}
	if !pc.dictOK {
		if !a.checkPage(index, hints) {
			return false
		}
		if a.allLoaded {
			return true
		}
		pc.dictOK = true
	}

	if a.haveAcroForm && !a.acroFormLoaded {
		if !a.walk(&a.acroFormWalk, []core.Object{a.acroForm}, false, hints) {
			return false
		}
		a.acroFormLoaded = true
	}

	if !pc.objsOK {
		if pc.dict == nil {
			pc.dict = a.pageDict(index)
			if pc.dict == nil {
				a.page = nil
				return true
			}
		}
		if !a.walk(&pc.objs, []core.Object{pc.dict}, true, hints) {
			return false
		}
		pc.objsOK = true
	}
	if !pc.annotsOK {
		if annots := pc.dict.Get("Annots"); annots != nil {
			if !a.walk(&pc.annots, []core.Object{annots}, false, hints) {
				return false
			}
		}
		pc.annotsOK = true
	}
	if !pc.resFound {
		pc.resources = pc.dict.Get("Resources")
		if pc.resources == nil {
			pc.resources = resourceAncestor(pc.dict, 0)
		}
		pc.resFound = true
	}
	if pc.resources != nil && !a.walk(&pc.res, []core.Object{pc.resources}, true, hints) {
		return false
	}
	a.finishPage(index)
	return true
}

func (a *DataAvail) finishPage(index int) {
	a.pagesLoaded[index] = true
	a.page = nil
}

// resourceAncestor returns the nearest /Resources inherited through
// /Parent.
func resourceAncestor(d *core.Dict, depth int) core.Object {
	if depth > maxTreeDepth {
		return nil
	}
	parent := d.GetDict("Parent")
	if parent == nil {
		return nil
	}
	if res := parent.Get("Resources"); res != nil {
		return res
	}
	return resourceAncestor(parent, depth+1)
}

// pageDict returns the dictionary of a page located by the tree check.
func (a *DataAvail) pageDict(index int) *core.Dict {
	if num, ok := a.pageNums[index]; ok {
		return core.GetDict(a.parser.Objects().GetIndirectObject(num))
	}
	if !a.totalPageTree {
		return nil
	}
	// The whole tree has arrived, so the page-tree walker can index it.
	tree := pages.NewTree(a.pagesDict(), pages.WithLimits(a.limits))
	page, err := tree.Page(index)
	if err != nil {
		return nil
	}
	a.pageNums[index] = page.ObjNum
	return page.Dict
}

func (a *DataAvail) pagesDict() *core.Dict {
	return core.GetDict(a.parser.Objects().GetIndirectObject(a.pagesNum))
}

// checkLinearizedData prepares page lookups beyond the first page of a
// linearized file. The cross-reference chain was loaded with the first
// page, so only the catalog has to arrive.
func (a *DataAvail) checkLinearizedData(hints Hints) bool {
	if a.linearizedData {
		return true
	}
	obj, exists := a.getObject(a.rootNum, hints)
	if !exists {
		return a.fallback(hints)
	}
	if obj == nil {
		return false
	}
	root := core.GetDict(obj)
	if root == nil {
		return a.fallback(hints)
	}
	ref, ok := root.Get("Pages").(core.Reference)
	if !ok {
		return a.fallback(hints)
	}
	a.pagesNum = ref.Num
	a.linearizedData = true
	a.setState(StatePageTree)
	return true
}

// fallback gives up on piecewise checking and waits for the whole file.
func (a *DataAvail) fallback(hints Hints) bool {
	a.setState(StateLoadAllFile)
	return a.loadAllFile(hints)
}

// checkPage drives the page-tree states until page index is located.
func (a *DataAvail) checkPage(index int, hints Hints) bool {
	for {
		var ok bool
		switch a.state {
		case StatePageTree:
			if a.totalPageTree {
				ok = a.checkPages(hints)
			} else {
				ok = a.loadDocPages(hints)
			}
		case StatePage:
			if a.totalPageTree {
				ok = a.checkPageList(hints)
			} else {
				ok = a.loadDocPage(index, hints)
			}
		case StateError, StateLoadAllFile:
			return a.loadAllFile(hints)
		default:
			a.setState(StatePage)
			return true
		}
		if !ok && !a.failed() {
			return false
		}
	}
}

// loadDocPages fetches the page-tree root. A root without a positive
// /Count makes the check walk the whole tree instead of single pages.
func (a *DataAvail) loadDocPages(hints Hints) bool {
	if !a.checkUnknownNode(&a.pageNodes, a.pagesNum, hints) {
		return false
	}
	if a.checkPageCount() {
		a.setState(StatePage)
		return true
	}
	a.totalPageTree = true
	return true
}

func (a *DataAvail) checkPageCount() bool {
	d := a.pagesDict()
	if d == nil {
		return false
	}
	if !d.Has("Kids") {
		return true
	}
	return d.GetInteger("Count") > 0
}

// countNode charges one page-tree node against the traversal cap.
func (a *DataAvail) countNode(num uint32) bool {
	if len(a.visitedPages) >= a.limits.MaxPageTreeNodes {
		return false
	}
	a.visitedPages[num] = true
	return true
}

// checkUnknownNode learns the kind of node from its object.
func (a *DataAvail) checkUnknownNode(node *pageNode, num uint32, hints Hints) bool {
	obj, exists := a.getObject(num, hints)
	if !exists {
		a.setState(StateError)
		return false
	}
	if obj == nil {
		return false
	}
	if !a.countNode(num) {
		a.setState(StateError)
		return false
	}
	node.num = num
	switch v := obj.(type) {
	case *core.Array:
		node.kind = nodePages
		node.kids = kidNodes(v)
		return true
	case *core.Dict:
		switch v.GetName("Type") {
		case "Pages":
			node.kind = nodePages
			node.kids = kidNodes(v.Get("Kids"))
			return true
		case "Page":
			node.kind = nodePage
			return true
		}
	}
	a.setState(StateError)
	return false
}

// checkPageNode counts leaves under node in document order, fetching
// unknown kids as it goes, and stops at page index.
func (a *DataAvail) checkPageNode(node *pageNode, index int, count *int, depth int, hints Hints) bool {
	if depth > maxTreeDepth {
		a.setState(StateError)
		return false
	}
	for i := 0; i < len(node.kids); i++ {
		kid := node.kids[i]
		switch kid.kind {
		case nodeUnknown:
			if !a.checkUnknownNode(kid, kid.num, hints) {
				return false
			}
			i--
			continue
		case nodePage:
			*count++
			if *count == index {
				a.pageNums[index] = kid.num
			}
		case nodePages:
			if !a.checkPageNode(kid, index, count, depth+1, hints) {
				return false
			}
		}
		if *count == index {
			a.setState(StateDone)
			return true
		}
	}
	return true
}

func (a *DataAvail) loadDocPage(index int, hints Hints) bool {
	if _, ok := a.pageNums[index]; ok {
		a.setState(StateDone)
		return true
	}
	if d := a.pagesDict(); d == nil || index >= d.GetInteger("Count") {
		a.setState(StateDone)
		return true
	}
	if a.pageNodes.kind == nodePage {
		if index == 0 {
			a.pageNums[0] = a.pageNodes.num
			a.setState(StateDone)
		} else {
			a.setState(StateError)
		}
		return true
	}
	count := -1
	if !a.checkPageNode(&a.pageNodes, index, &count, 0, hints) {
		return false
	}
	if a.state != StateDone {
		a.setState(StateError)
	}
	return true
}

// checkPages fetches the page-tree root for a whole-tree walk.
func (a *DataAvail) checkPages(hints Hints) bool {
	obj, exists := a.getObject(a.pagesNum, hints)
	if !exists {
		a.setState(StateLoadAllFile)
		return true
	}
	if obj == nil {
		return false
	}
	d := core.GetDict(obj)
	if d == nil || !a.pageKids(d) {
		a.setState(StateError)
		return true
	}
	a.setState(StatePage)
	return true
}

// pageKids queues the unvisited kids of a page-tree node.
func (a *DataAvail) pageKids(d *core.Dict) bool {
	kids := d.Get("Kids")
	switch kids.(type) {
	case nil:
		return true
	case core.Reference, *core.Array:
	default:
		return false
	}
	for _, kid := range kidNodes(kids) {
		if a.visitedPages[kid.num] {
			continue
		}
		if !a.countNode(kid.num) {
			return false
		}
		a.pageList = append(a.pageList, kid.num)
	}
	return true
}

// checkPageList fetches one level of the page tree per round.
func (a *DataAvail) checkPageList(hints Hints) bool {
	var waiting []uint32
	missing := false
	for _, num := range a.pageList {
		obj, exists := a.getObject(num, hints)
		if obj == nil {
			if exists {
				waiting = append(waiting, num)
				missing = true
			}
			continue
		}
		switch v := obj.(type) {
		case *core.Array:
			for _, kid := range kidNodes(v) {
				if !a.visitedPages[kid.num] && a.countNode(kid.num) {
					waiting = append(waiting, kid.num)
				}
			}
		case *core.Dict:
			if v.GetName("Type") == "Pages" {
				a.pendingPages = append(a.pendingPages, v)
			}
		}
	}
	a.pageList = waiting
	if missing {
		return false
	}
	for _, d := range a.pendingPages {
		if !a.pageKids(d) {
			a.pendingPages = nil
			a.setState(StateError)
			return true
		}
	}
	a.pendingPages = nil
	if len(a.pageList) == 0 {
		a.setState(StateDone)
	}
	return true
}

// IsFormAvail reports whether the interactive form dictionary and the
// objects it reaches have arrived.
func (a *DataAvail) IsFormAvail(hints Hints) FormStatus {
	if !a.IsDocAvail(hints) {
		return FormNotAvailable
	}
	if a.parser == nil {
		return FormError
	}
	if !a.formParams {
		obj, exists := a.getObject(a.rootNum, hints)
		if !exists {
			return FormError
		}
		if obj == nil {
			return FormNotAvailable
		}
		root := core.GetDict(obj)
		if root == nil {
			return FormError
		}
		form := root.Get("AcroForm")
		if form == nil {
			return FormNotExist
		}
		if a.linearized != nil && !a.allLoaded && !a.checkLinearizedData(hints) {
			return FormNotAvailable
		}
		a.formRoot = form
		a.formParams = true
	}
	if a.allLoaded {
		return FormAvailable
	}
	if !a.walk(&a.formWalk, []core.Object{a.formRoot}, false, hints) {
		return FormNotAvailable
	}
	return FormAvailable
}
