package avail

import (
	"io"
	"log/slog"

	"github.com/tsawler/pdfcore/core"
)

// FileAvail reports which byte ranges of the file have arrived.
type FileAvail interface {
	IsDataAvail(offset, size int64) bool
}

// Hints receives the byte ranges the engine needs next.
type Hints interface {
	AddSegment(offset, size int64)
}

// State is the phase of the document availability check.
type State int

const (
	StateHeader State = iota
	StateFirstPage
	StateFirstPagePrepare
	StateEnd
	StateCrossRef
	StateCrossRefItem
	StateCrossRefStream
	StateTrailer
	StateTrailerAppend
	StateLoadAllCrossRef
	StateRoot
	StateInfo
	StateAcroForm
	StatePageTree
	StatePage
	StateError
	StateLoadAllFile
	StateDone
)

var stateNames = map[State]string{
	StateHeader:           "Header",
	StateFirstPage:        "FirstPage",
	StateFirstPagePrepare: "FirstPagePrepare",
	StateEnd:              "End",
	StateCrossRef:         "CrossRef",
	StateCrossRefItem:     "CrossRefItem",
	StateCrossRefStream:   "CrossRefStream",
	StateTrailer:          "Trailer",
	StateTrailerAppend:    "TrailerAppend",
	StateLoadAllCrossRef:  "LoadAllCrossRef",
	StateRoot:             "Root",
	StateInfo:             "Info",
	StateAcroForm:         "AcroForm",
	StatePageTree:         "PageTree",
	StatePage:             "Page",
	StateError:            "Error",
	StateLoadAllFile:      "LoadAllFile",
	StateDone:             "Done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Linearization is the answer of IsLinearized.
type Linearization int

const (
	LinearizationUnknown Linearization = iota // header bytes not yet available
	NotLinearized
	Linearized
)

// FormStatus is the answer of IsFormAvail.
type FormStatus int

const (
	FormError FormStatus = iota
	FormNotAvailable
	FormAvailable
	FormNotExist
)

func (s FormStatus) String() string {
	switch s {
	case FormNotAvailable:
		return "NotAvailable"
	case FormAvailable:
		return "Available"
	case FormNotExist:
		return "NotExist"
	}
	return "Error"
}

// Default probe sizes for the header and the startxref tail.
const (
	DefaultHeaderProbe = 1024
	DefaultTailProbe   = 1024
)

// chunk is the read-ahead used for cross-reference, trailer and object
// requests.
const chunk = 512

// maxTreeDepth bounds page-tree descent and the /Parent walk for
// inherited resources.
const maxTreeDepth = 64

// Option configures a DataAvail
type Option func(*DataAvail)

// WithLogger sets the logger that receives state transitions at Debug
// level.
func WithLogger(l *slog.Logger) Option {
	return func(a *DataAvail) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLimits sets the limits passed to the parser and the page-tree walk.
func WithLimits(l core.Limits) Option {
	return func(a *DataAvail) {
		a.limits = l.Normalize()
	}
}

// WithProbes sets how many bytes are requested for the header and for the
// startxref tail. Non-positive values keep the defaults.
func WithProbes(header, tail int64) Option {
	return func(a *DataAvail) {
		if header > 0 {
			a.headerProbe = header
		}
		if tail > 0 {
			a.tailProbe = tail
		}
	}
}

// DataAvail decides, from the byte ranges reported by a FileAvail, whether
// the document, a page or the interactive form can be loaded yet. Every
// call either advances the check or reports the missing ranges through
// Hints and returns without changing state, so the same call can be
// repeated once more data arrives.
//
// A DataAvail is not safe for concurrent use.
type DataAvail struct {
	src         core.Source
	avail       FileAvail
	logger      *slog.Logger
	limits      core.Limits
	headerProbe int64
	tailProbe   int64
	fileLen     int64

	state     State
	docAvail  bool
	allLoaded bool

	// header
	headerOffset int64
	headerRead   bool
	linearized   *core.Linearized

	// cross-reference chain
	pos           int64
	trailerOffset int64
	streamStart   int64
	xrefStream    *core.Dict
	prevXRef      int64
	sections      map[int64]bool

	// document objects
	parser         *core.Parser
	rootNum        uint32
	infoNum        uint32
	pagesNum       uint32
	acroFormNum    uint32
	haveAcroForm   bool
	acroForm       core.Object
	linearizedData bool

	// page tree
	totalPageTree bool
	pageNodes     pageNode
	pageList      []uint32
	pendingPages  []*core.Dict
	visitedPages  map[uint32]bool
	pageNums      map[int]uint32
	pagesLoaded   map[int]bool
	page          *pageCheck

	// interactive form
	acroFormLoaded bool
	formParams     bool
	formRoot       core.Object
	formWalk       objectWalk
	acroFormWalk   objectWalk
}

// New creates an availability checker over src. src is only read in
// ranges oracle has reported as available.
func New(src core.Source, oracle FileAvail, opts ...Option) *DataAvail {
	a := &DataAvail{
		src:          src,
		avail:        oracle,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		limits:       core.DefaultLimits(),
		headerProbe:  DefaultHeaderProbe,
		tailProbe:    DefaultTailProbe,
		sections:     make(map[int64]bool),
		visitedPages: make(map[uint32]bool),
		pageNums:     make(map[int]uint32),
		pagesLoaded:  make(map[int]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	if src != nil {
		a.fileLen = src.Size()
	}
	return a
}

// State returns the current phase of the document check
func (a *DataAvail) State() State {
	return a.state
}

// Parser returns the parser opened once the cross-reference chain was
// available, or nil before that.
func (a *DataAvail) Parser() *core.Parser {
	return a.parser
}

// LinearizedDict returns the linearization dictionary found in the
// header, or nil.
func (a *DataAvail) LinearizedDict() *core.Linearized {
	return a.linearized
}

// MainXRefInfo returns the offset and size of the main cross-reference
// section of a linearized file.
func (a *DataAvail) MainXRefInfo() (int64, int64) {
	if a.linearized == nil {
		return 0, 0
	}
	return a.linearized.MainXRef, a.fileLen - a.linearized.MainXRef
}

func (a *DataAvail) setState(s State) {
	if s == a.state {
		return
	}
	a.logger.Debug("availability state", slog.String("from", a.state.String()), slog.String("state", s.String()))
	a.state = s
}

// isAvail asks the oracle about [offset, offset+size), clipped to the file.
func (a *DataAvail) isAvail(offset, size int64) bool {
	if size <= 0 {
		return true
	}
	return a.avail.IsDataAvail(offset, size)
}

// request reports whether [offset, offset+size) is available and hints it
// otherwise.
func (a *DataAvail) request(offset, size int64, hints Hints) bool {
	if a.isAvail(offset, size) {
		return true
	}
	if hints != nil {
		hints.AddSegment(offset, size)
	}
	return false
}

// IsDocAvail reports whether the header, the cross-reference chain, the
// catalog, the info dictionary, the form dictionary and the page-tree
// root have arrived. For a linearized file it reports the first-page
// section instead.
func (a *DataAvail) IsDocAvail(hints Hints) bool {
	if a.fileLen == 0 {
		return true
	}
	for !a.docAvail {
		prev := a.state
		if !a.checkDocStatus(hints) && (!a.failed() || a.state == prev) {
			return false
		}
	}
	return true
}

func (a *DataAvail) checkDocStatus(hints Hints) bool {
	switch a.state {
	case StateHeader:
		return a.checkHeader(hints)
	case StateFirstPage, StateFirstPagePrepare:
		return a.checkFirstPage(hints)
	case StateEnd:
		return a.checkEnd(hints)
	case StateCrossRef:
		return a.checkCrossRef(hints)
	case StateCrossRefItem:
		return a.checkCrossRefItem(hints)
	case StateCrossRefStream:
		return a.checkCrossRefStream(hints)
	case StateTrailer:
		return a.checkTrailer(hints)
	case StateTrailerAppend:
		return a.checkTrailerAppend()
	case StateLoadAllCrossRef:
		return a.loadAllCrossRef()
	case StateRoot:
		return a.checkRoot(hints)
	case StateInfo:
		return a.checkInfo(hints)
	case StateAcroForm:
		return a.checkAcroForm(hints)
	case StatePageTree:
		if a.totalPageTree {
			return a.checkPages(hints)
		}
		return a.loadDocPages(hints)
	case StatePage:
		if a.totalPageTree {
			return a.checkPageList(hints)
		}
		a.docAvail = true
		return true
	case StateError, StateLoadAllFile:
		return a.loadAllFile(hints)
	default:
		a.docAvail = true
		return true
	}
}

// failed reports whether the last step gave up on piecewise checking. A
// step that fails into this state is followed by the full-file fallback
// in the same call.
func (a *DataAvail) failed() bool {
	return a.state == StateError || a.state == StateLoadAllFile
}

// loadAllFile is the fallback for files whose structure cannot be checked
// piecewise: it waits for the whole file, then opens it normally.
func (a *DataAvail) loadAllFile(hints Hints) bool {
	if !a.request(0, a.fileLen, hints) {
		return false
	}
	a.allLoaded = true
	a.docAvail = true
	if a.parser == nil || a.parser.XRefRebuilt() {
		p := a.newParser()
		if err := p.StartParse(); err != nil {
			a.logger.Debug("parse after full download failed", slog.Any("error", err))
		} else {
			a.useParser(p)
		}
	}
	a.setState(StateDone)
	return true
}

func (a *DataAvail) newParser() *core.Parser {
	return core.NewParser(a.src, core.WithLogger(a.logger), core.WithLimits(a.limits))
}

func (a *DataAvail) useParser(p *core.Parser) {
	a.parser = p
	a.headerOffset = p.HeaderOffset()
	a.rootNum = p.RootObjNum()
	a.infoNum = p.InfoObjNum()
}

// openParser loads the cross-reference chain once every section of it is
// known to be available. A chain that needs a full-file rebuild sends the
// check to the LoadAllFile fallback.
func (a *DataAvail) openParser() bool {
	p := a.newParser()
	if err := p.StartParse(); err != nil || p.XRefRebuilt() {
		a.logger.Debug("cross-reference chain unusable", slog.Any("error", err))
		return false
	}
	a.useParser(p)
	return a.rootNum != 0
}

// objectRange returns the byte range to request for object num: its
// estimated size plus read-ahead, clipped to the file. A zero size means
// the object is not in the file.
func (a *DataAvail) objectRange(num uint32) (int64, int64) {
	if a.parser == nil {
		return 0, 0
	}
	offset := a.parser.GetObjectOffset(num)
	size := a.parser.ObjectSize(num)
	if size <= 0 || offset <= 0 {
		return 0, 0
	}
	offset += a.headerOffset
	if offset >= a.fileLen {
		return 0, 0
	}
	if offset+size+chunk > a.fileLen {
		return offset, a.fileLen - offset
	}
	return offset, size + chunk
}

// getObject returns object num once its bytes have arrived. exists is
// false when the object is not in the file at all; a nil object with
// exists set means its range was hinted.
func (a *DataAvail) getObject(num uint32, hints Hints) (obj core.Object, exists bool) {
	offset, size := a.objectRange(num)
	if size == 0 {
		return nil, false
	}
	if !a.request(offset, size, hints) {
		return nil, true
	}
	obj = a.parser.Objects().GetIndirectObject(num)
	return obj, obj != nil
}

func (a *DataAvail) checkRoot(hints Hints) bool {
	obj, exists := a.getObject(a.rootNum, hints)
	if !exists {
		a.setState(StateLoadAllFile)
		return true
	}
	if obj == nil {
		return false
	}
	root := core.GetDict(obj)
	if root == nil {
		a.setState(StateError)
		return true
	}
	pages, ok := root.Get("Pages").(core.Reference)
	if !ok {
		a.setState(StateError)
		return true
	}
	a.pagesNum = pages.Num
	if form, ok := root.Get("AcroForm").(core.Reference); ok {
		a.haveAcroForm = true
		a.acroFormNum = form.Num
	}
	switch {
	case a.infoNum != 0:
		a.setState(StateInfo)
	case a.haveAcroForm:
		a.setState(StateAcroForm)
	default:
		a.setState(StatePageTree)
	}
	return true
}

func (a *DataAvail) checkInfo(hints Hints) bool {
	obj, exists := a.getObject(a.infoNum, hints)
	if exists && obj == nil {
		return false
	}
	if a.haveAcroForm {
		a.setState(StateAcroForm)
	} else {
		a.setState(StatePageTree)
	}
	return true
}

func (a *DataAvail) checkAcroForm(hints Hints) bool {
	obj, exists := a.getObject(a.acroFormNum, hints)
	if exists && obj == nil {
		return false
	}
	if obj == nil {
		a.haveAcroForm = false
	}
	a.acroForm = obj
	a.setState(StatePageTree)
	return true
}
