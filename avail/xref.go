package avail

import (
	"bytes"
	"io"
	"log/slog"
	"strconv"

	"github.com/tsawler/pdfcore/core"
)

// prefixSource exposes the first len(data) bytes of a file of size bytes.
// Reads past the prefix come back short.
type prefixSource struct {
	data []byte
	size int64
}

func (s prefixSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s prefixSource) Size() int64 {
	return s.size
}

// read returns the bytes in [start, end), which must be available.
func (a *DataAvail) read(start, end int64) ([]byte, bool) {
	buf := make([]byte, end-start)
	n, err := a.src.ReadAt(buf, start)
	if n < len(buf) {
		a.logger.Debug("short read of available range", slog.Int64("offset", start), slog.Int("read", n), slog.Any("error", err))
		return nil, false
	}
	return buf, true
}

// windowSyntax tokenizes an in-memory copy of [start, end).
func (a *DataAvail) windowSyntax(start, end int64) (*core.Syntax, bool) {
	buf, ok := a.read(start, end)
	if !ok {
		return nil, false
	}
	syn := core.NewSyntax(core.NewBytesSource(buf), 0)
	syn.SetLimits(a.limits)
	syn.SetLogger(a.logger)
	return syn, true
}

// chunkAt returns the size of the read-ahead window starting at pos.
func (a *DataAvail) chunkAt(pos int64) int64 {
	return min(chunk, a.fileLen-pos)
}

// readHeader parses the header probe once it has arrived. It reports
// false when the probe is still missing.
func (a *DataAvail) readHeader() bool {
	if a.headerRead {
		return true
	}
	probe := min(a.headerProbe, a.fileLen)
	if !a.isAvail(0, probe) {
		return false
	}
	buf, ok := a.read(0, probe)
	if !ok {
		return false
	}
	a.headerRead = true
	a.headerOffset = int64(bytes.Index(buf, []byte("%PDF")))
	if a.headerOffset < 0 {
		return true
	}
	syn := core.NewSyntax(prefixSource{data: buf, size: a.fileLen}, a.headerOffset)
	syn.SetLimits(a.limits)
	a.linearized = core.ParseLinearized(syn)
	return true
}

// IsLinearized reports whether the file starts with a valid linearization
// dictionary, or LinearizationUnknown while the header probe is missing.
func (a *DataAvail) IsLinearized() Linearization {
	if !a.readHeader() {
		return LinearizationUnknown
	}
	if a.linearized != nil {
		return Linearized
	}
	return NotLinearized
}

func (a *DataAvail) checkHeader(hints Hints) bool {
	if !a.readHeader() {
		a.request(0, min(a.headerProbe, a.fileLen), hints)
		return false
	}
	switch {
	case a.headerOffset < 0:
		a.headerOffset = 0
		a.setState(StateError)
	case a.linearized != nil:
		a.setState(StateFirstPage)
	default:
		a.setState(StateEnd)
	}
	return true
}

// checkFirstPage waits for the first-page section and the main
// cross-reference section of a linearized file. The main section is only
// requested on the first pass.
func (a *DataAvail) checkFirstPage(hints Hints) bool {
	lin := a.linearized
	if lin.FirstEnd <= 0 || lin.MainXRef <= 0 || lin.MainXRef >= a.fileLen {
		a.setState(StateError)
		return true
	}

	missing := false
	start := min(a.headerProbe, a.fileLen)
	end := min(lin.FirstEnd+chunk, a.fileLen)
	if end > start && !a.request(start, end-start, hints) {
		missing = true
	}

	mainXRef := lin.MainXRef + a.headerOffset
	size := a.fileLen - mainXRef
	if !a.isAvail(mainXRef, size) {
		if a.state == StateFirstPage && hints != nil {
			offset := mainXRef
			if size < chunk && a.fileLen > chunk {
				offset, size = a.fileLen-chunk, chunk
			}
			hints.AddSegment(offset, size)
		}
		missing = true
	}
	if missing {
		a.setState(StateFirstPagePrepare)
		return false
	}

	if !a.openParser() {
		a.setState(StateLoadAllFile)
		return true
	}
	a.docAvail = true
	a.setState(StateDone)
	return true
}

// checkEnd finds startxref in the tail of the file.
func (a *DataAvail) checkEnd(hints Hints) bool {
	start := max(0, a.fileLen-a.tailProbe)
	size := a.fileLen - start
	if !a.request(start, size, hints) {
		return false
	}
	syn, ok := a.windowSyntax(start, a.fileLen)
	if !ok {
		a.setState(StateError)
		return true
	}
	syn.SetPos(size - 1)
	if !syn.SearchWord([]byte("startxref"), true, false, size) {
		a.setState(StateLoadAllFile)
		return true
	}
	syn.Keyword()
	word := syn.NextWord()
	if !word.IsNumber {
		a.setState(StateError)
		return true
	}
	offset, err := strconv.ParseInt(string(word.Bytes), 10, 64)
	if err != nil || offset <= 0 || offset+a.headerOffset >= a.fileLen {
		a.setState(StateLoadAllFile)
		return true
	}
	a.pos = offset + a.headerOffset
	a.setState(StateCrossRef)
	return true
}

// enterSection records a section offset and refuses loops and overlong
// chains.
func (a *DataAvail) enterSection(pos int64) bool {
	if a.sections[pos] || len(a.sections) >= a.limits.MaxXRefChain {
		return false
	}
	a.sections[pos] = true
	return true
}

// checkCrossRef identifies the section at pos as a classic table or a
// cross-reference stream.
func (a *DataAvail) checkCrossRef(hints Hints) bool {
	size := a.chunkAt(a.pos)
	if size <= 0 {
		a.setState(StateError)
		return true
	}
	if !a.request(a.pos, size, hints) {
		return false
	}
	if !a.enterSection(a.pos) {
		a.setState(StateLoadAllFile)
		return true
	}
	syn, ok := a.windowSyntax(a.pos, a.pos+size)
	if !ok {
		a.setState(StateError)
		return true
	}
	word := syn.NextWord()
	switch {
	case word.Is("xref"):
		a.pos += syn.Pos()
		a.setState(StateCrossRefItem)
	case word.IsNumber:
		a.streamStart = a.pos
		a.setState(StateCrossRefStream)
	default:
		a.setState(StateLoadAllFile)
	}
	return true
}

// checkCrossRefItem skips the entries of a classic table up to its
// trailer keyword. The cursor only moves forward.
func (a *DataAvail) checkCrossRefItem(hints Hints) bool {
	const keyword = "trailer"
	for {
		size := a.chunkAt(a.pos)
		if size <= 0 {
			a.setState(StateError)
			return true
		}
		if !a.request(a.pos, size, hints) {
			return false
		}
		syn, ok := a.windowSyntax(a.pos, a.pos+size)
		if !ok {
			a.setState(StateError)
			return true
		}
		if syn.FindTag([]byte(keyword), 0) >= 0 {
			a.pos += syn.Pos()
			a.trailerOffset = a.pos
			a.setState(StateTrailer)
			return true
		}
		if a.pos+size >= a.fileLen {
			a.setState(StateError)
			return true
		}
		// Keep enough overlap for a keyword split across windows.
		a.pos += size - int64(len(keyword)) + 1
	}
}

// checkTrailer parses the trailer dictionary, growing the window until it
// is complete.
func (a *DataAvail) checkTrailer(hints Hints) bool {
	end := a.pos + a.chunkAt(a.pos)
	if !a.request(a.pos, end-a.pos, hints) {
		return false
	}
	syn, ok := a.windowSyntax(a.trailerOffset, end)
	if !ok {
		a.setState(StateError)
		return true
	}
	obj := syn.GetObject(0, 0, false)
	if obj == nil {
		if end >= a.fileLen {
			a.setState(StateError)
			return true
		}
		a.pos = end
		a.request(a.pos, a.chunkAt(a.pos), hints)
		return false
	}
	trailer, ok := obj.(*core.Dict)
	if !ok {
		a.setState(StateError)
		return true
	}
	a.followTrailer(trailer)
	return true
}

// followTrailer moves to the previous section named by trailer. Encrypted
// and hybrid files wait for the whole file.
func (a *DataAvail) followTrailer(trailer *core.Dict) {
	if _, encrypted := trailer.Get("Encrypt").(core.Reference); encrypted {
		a.setState(StateLoadAllFile)
		return
	}
	if trailer.Has("XRefStm") {
		a.setState(StateLoadAllFile)
		return
	}
	a.prevXRef = 0
	if prev, ok := trailer.Get("Prev").(core.Int); ok && prev > 0 {
		abs := int64(prev) + a.headerOffset
		if abs >= a.fileLen {
			a.setState(StateLoadAllFile)
			return
		}
		a.prevXRef = abs
	}
	a.setState(StateTrailerAppend)
}

func (a *DataAvail) checkTrailerAppend() bool {
	if a.prevXRef != 0 {
		a.pos = a.prevXRef
		a.setState(StateCrossRef)
	} else {
		a.setState(StateLoadAllCrossRef)
	}
	return true
}

// checkCrossRefStream reads the dictionary of a cross-reference stream,
// then waits for the stream data through its endstream keyword before
// following /Prev.
func (a *DataAvail) checkCrossRefStream(hints Hints) bool {
	if a.xrefStream == nil {
		if !a.checkCrossRefStreamDict(hints) {
			return false
		}
		if a.xrefStream == nil {
			return true
		}
	}
	end, ok := a.findEndStream(hints)
	if !ok {
		return false
	}
	if end < 0 {
		a.xrefStream = nil
		a.setState(StateError)
		return true
	}
	if !a.request(a.streamStart, end-a.streamStart, hints) {
		return false
	}

	dict := a.xrefStream
	a.xrefStream = nil
	prev, _ := dict.Get("Prev").(core.Int)
	if prev <= 0 {
		a.setState(StateLoadAllCrossRef)
		return true
	}
	abs := int64(prev) + a.headerOffset
	if abs >= a.fileLen {
		a.setState(StateLoadAllFile)
		return true
	}
	a.pos = abs
	a.setState(StateCrossRef)
	return true
}

// checkCrossRefStreamDict parses the object header and dictionary of the
// stream at streamStart. On success it sets xrefStream and moves the
// cursor to where the search for endstream starts.
func (a *DataAvail) checkCrossRefStreamDict(hints Hints) bool {
	if a.pos < a.streamStart {
		a.pos = a.streamStart
	}
	end := a.pos + a.chunkAt(a.pos)
	if !a.request(a.pos, end-a.pos, hints) {
		return false
	}
	buf, ok := a.read(a.streamStart, end)
	if !ok {
		a.setState(StateError)
		return true
	}
	i := bytes.Index(buf, []byte("stream"))
	if i < 0 {
		if end >= a.fileLen {
			a.setState(StateError)
			return true
		}
		a.pos = end
		a.request(a.pos, a.chunkAt(a.pos), hints)
		return false
	}

	syn := core.NewSyntax(core.NewBytesSource(buf[:i]), 0)
	syn.SetLimits(a.limits)
	num, gen := syn.NextWord(), syn.NextWord()
	if !num.IsNumber || !gen.IsNumber || syn.Keyword() != "obj" {
		a.setState(StateError)
		return true
	}
	dict := core.GetDict(syn.GetObject(0, 0, false))
	if dict == nil || dict.GetName("Type") != "XRef" {
		a.setState(StateError)
		return true
	}
	if _, encrypted := dict.Get("Encrypt").(core.Reference); encrypted {
		a.setState(StateLoadAllFile)
		return true
	}
	// An indirect length lives in an object that has not been located.
	if _, indirect := dict.Get("Length").(core.Reference); indirect {
		a.setState(StateLoadAllFile)
		return true
	}

	data := i + len("stream")
	if data < len(buf) && buf[data] == '\r' {
		data++
	}
	if data < len(buf) && buf[data] == '\n' {
		data++
	}
	a.pos = a.streamStart + int64(data)
	if length, ok := dict.Get("Length").(core.Int); ok && length > 0 {
		a.pos = min(a.pos+int64(length), a.fileLen)
	}
	a.xrefStream = dict
	return true
}

// findEndStream searches forward from the cursor for the endstream
// keyword and returns the offset just past it. The cursor only moves
// forward. It reports false while a window is missing and -1 when the
// keyword is not in the file.
func (a *DataAvail) findEndStream(hints Hints) (int64, bool) {
	const keyword = "endstream"
	for {
		size := a.chunkAt(a.pos)
		if size <= 0 {
			return -1, true
		}
		if !a.request(a.pos, size, hints) {
			return 0, false
		}
		buf, ok := a.read(a.pos, a.pos+size)
		if !ok {
			return -1, true
		}
		if i := bytes.Index(buf, []byte(keyword)); i >= 0 {
			return a.pos + int64(i+len(keyword)), true
		}
		if a.pos+size >= a.fileLen {
			return -1, true
		}
		// Keep enough overlap for a keyword split across windows.
		a.pos += size - int64(len(keyword)) + 1
	}
}

func (a *DataAvail) loadAllCrossRef() bool {
	if !a.openParser() {
		a.setState(StateLoadAllFile)
		return true
	}
	a.setState(StateRoot)
	return true
}
