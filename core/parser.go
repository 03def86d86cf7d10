package core

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tsawler/pdfcore/codec"
)

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for recovery diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLimits overrides the parse limits
func WithLimits(l Limits) Option {
	return func(p *Parser) {
		p.limits = l.Normalize()
	}
}

// WithCodecs sets the filter pipeline used for object and xref streams
func WithCodecs(c *codec.Codecs) Option {
	return func(p *Parser) {
		if c != nil {
			p.codecs = c
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Parser loads the cross-reference structure of a PDF and parses indirect
// objects on demand. It owns the document's indirect object Table.
// A Parser is not safe for concurrent use.
type Parser struct {
	src    Source
	syntax *Syntax
	xref   *XRefTable
	objs   *Table
	codecs *codec.Codecs
	limits Limits
	logger *slog.Logger

	trailer    *Dict
	trailers   []*Dict
	version    int
	lastXRef   int64
	rebuilt    bool
	xrefStream bool
	objStreams map[uint32]*ObjectStream
	linearized *Linearized
	linChecked bool
}

// NewParser prepares a parser over src. No bytes are read until StartParse.
func NewParser(src Source, opts ...Option) *Parser {
	p := &Parser{
		src:        src,
		xref:       NewXRefTable(),
		limits:     DefaultLimits(),
		logger:     discardLogger(),
		objStreams: make(map[uint32]*ObjectStream),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.codecs == nil {
		p.codecs = codec.New(codec.WithMaxDecodedSize(p.limits.MaxDecodedSize))
	}
	p.objs = NewTable(p)
	p.syntax = NewSyntax(src, 0)
	p.configureSyntax(p.syntax)
	return p
}

func (p *Parser) configureSyntax(s *Syntax) {
	s.SetHolder(p.objs)
	s.SetLimits(p.limits)
	s.SetLogger(p.logger)
}

// findHeader returns the offset of "%PDF" within the first 1024 bytes.
func findHeader(src Source) (int64, error) {
	n := int64(1024 + 4)
	if size := src.Size(); size < n {
		n = size
	}
	buf := make([]byte, n)
	read, err := src.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("read header: %w", err)
	}
	buf = buf[:read]
	for i := 0; i+4 <= len(buf) && i <= 1024; i++ {
		if buf[i] == '%' && buf[i+1] == 'P' && buf[i+2] == 'D' && buf[i+3] == 'F' {
			return int64(i), nil
		}
	}
	return 0, ErrNoHeader
}

// StartParse locates the header and the last cross-reference section and
// loads the section chain. When the chain cannot be loaded, or startxref
// is missing, the table is rebuilt by scanning the whole file.
func (p *Parser) StartParse() error {
	const op = "StartParse"
	if p.src == nil || p.src.Size() < 0 {
		return NewError(ErrCodeFile, op, ErrShortRead)
	}
	offset, err := findHeader(p.src)
	if err != nil {
		if err == ErrNoHeader {
			return NewError(ErrCodeFormat, op, err)
		}
		return NewError(ErrCodeFile, op, err)
	}
	p.syntax = NewSyntax(p.src, offset)
	p.configureSyntax(p.syntax)

	p.version = 0
	if c, ok := p.syntax.CharAt(5); ok && c >= '0' && c <= '9' {
		p.version = int(c-'0') * 10
	}
	if c, ok := p.syntax.CharAt(7); ok && c >= '0' && c <= '9' {
		p.version += int(c - '0')
	}
	if p.syntax.Len() < 9 {
		return NewError(ErrCodeFormat, op, ErrNoHeader)
	}

	p.rebuilt = false
	p.lastXRef = 0
	p.syntax.SetPos(p.syntax.Len() - 9)
	if p.syntax.SearchWord([]byte("startxref"), true, false, 4096) {
		at := p.syntax.Pos()
		p.syntax.Keyword()
		word := p.syntax.NextWord()
		if word.IsNumber {
			p.lastXRef, _ = atoi64(word.Bytes)
			err = p.LoadAllCrossRef(p.lastXRef)
			if err == nil {
				p.xref.addOffset(at)
				p.objs.Reset()
				p.objStreams = make(map[uint32]*ObjectStream)
				return nil
			}
		} else {
			err = fmt.Errorf("startxref is not followed by an offset: %w", ErrBadXRef)
		}
		p.logger.Info("xref load failed, rebuilding", slog.Int64("offset", p.lastXRef), slog.Any("error", err))
		p.lastXRef = 0
	} else {
		p.logger.Info("xref load failed, rebuilding", slog.Any("error", ErrNoStartXRef))
	}
	if err := p.RebuildCrossRef(); err != nil {
		return NewError(ErrCodeFormat, op, err)
	}
	return nil
}

// LastObjNum returns the highest object number in the cross-reference table
func (p *Parser) LastObjNum() uint32 {
	return p.xref.LastObjNum()
}

// LoadIndirectObject implements Loader.
func (p *Parser) LoadIndirectObject(num uint32) (Object, uint16) {
	e, ok := p.xref.Get(num)
	if !ok {
		return nil, 0
	}
	switch e.Type {
	case EntryNormal, EntryObjStm:
		if e.Offset <= 0 {
			return nil, 0
		}
		obj, gen, _ := p.parseAt(e.Offset, num, false)
		return obj, gen
	case EntryCompressed:
		os := p.objectStream(uint32(e.Offset))
		if os == nil {
			return nil, 0
		}
		return os.GetObjectByNumber(num, e.Index), 0
	}
	return nil, 0
}

// ParseIndirectObject parses object num from its cross-reference location
// without consulting or filling the object table.
func (p *Parser) ParseIndirectObject(num uint32) Object {
	obj, _ := p.LoadIndirectObject(num)
	return obj
}

// objectStream returns the decoded container num, decoding it on first use.
func (p *Parser) objectStream(num uint32) *ObjectStream {
	if os, ok := p.objStreams[num]; ok {
		return os
	}
	if e, ok := p.xref.Get(num); !ok || e.Type == EntryCompressed || e.Type == EntryFree {
		return nil
	}
	stream := GetStream(p.objs.GetIndirectObject(num))
	if stream == nil {
		return nil
	}
	os, err := NewObjectStream(stream, p.codecs, p.objs, p.limits)
	if err != nil {
		p.logger.Debug("object stream unusable", slog.Any("objnum", num), slog.Any("error", err))
		os = nil
	}
	p.objStreams[num] = os
	return os
}

// ParseIndirectObjectAt parses "num gen obj ... endobj" at pos. A non-zero
// num must match the number found there. The cursor is left unchanged.
func (p *Parser) ParseIndirectObjectAt(pos int64, num uint32) Object {
	obj, _, _ := p.parseAt(pos, num, false)
	return obj
}

// ParseIndirectObjectAtStrict parses like ParseIndirectObjectAt using the
// strict grammar and also returns the position where parsing stopped.
func (p *Parser) ParseIndirectObjectAtStrict(pos int64, num uint32) (Object, int64) {
	obj, _, end := p.parseAt(pos, num, true)
	return obj, end
}

func (p *Parser) parseAt(pos int64, num uint32, strict bool) (Object, uint16, int64) {
	syn := p.syntax
	saved := syn.Mark()
	defer syn.Restore(saved)

	syn.SetPos(pos)
	word := syn.NextWord()
	if !word.IsNumber {
		return nil, 0, syn.Pos()
	}
	parsedNum, _ := atoi64(word.Bytes)
	if parsedNum <= 0 || parsedNum > int64(^uint32(0)) || (num != 0 && uint32(parsedNum) != num) {
		return nil, 0, syn.Pos()
	}
	word = syn.NextWord()
	if !word.IsNumber {
		return nil, 0, syn.Pos()
	}
	gen := uint16(atoi(word.Bytes))
	if syn.Keyword() != "obj" {
		return nil, 0, syn.Pos()
	}
	var obj Object
	if strict {
		obj = syn.GetObjectStrict(uint32(parsedNum), gen)
		return obj, gen, syn.Pos()
	}
	obj = syn.GetObject(uint32(parsedNum), gen, true)
	end := syn.Mark()
	if syn.Keyword() != "endobj" {
		syn.Restore(end)
	}
	return obj, gen, syn.Pos()
}

// Objects returns the indirect object table
func (p *Parser) Objects() *Table {
	return p.objs
}

// XRef returns the merged cross-reference table
func (p *Parser) XRef() *XRefTable {
	return p.xref
}

// Syntax returns the tokenizer over the file
func (p *Parser) Syntax() *Syntax {
	return p.syntax
}

// Codecs returns the filter pipeline
func (p *Parser) Codecs() *codec.Codecs {
	return p.codecs
}

// Limits returns the parse limits in effect
func (p *Parser) Limits() Limits {
	return p.limits
}

// Logger returns the parser's logger
func (p *Parser) Logger() *slog.Logger {
	return p.logger
}

// Trailer returns the effective trailer
func (p *Parser) Trailer() *Dict {
	return p.trailer
}

// Trailers returns each section's trailer, newest first
func (p *Parser) Trailers() []*Dict {
	return p.trailers
}

// RootObjNum returns the object number of /Root, or 0
func (p *Parser) RootObjNum() uint32 {
	return trailerRef(p.trailer, "Root")
}

// InfoObjNum returns the object number of /Info, or 0
func (p *Parser) InfoObjNum() uint32 {
	return trailerRef(p.trailer, "Info")
}

func trailerRef(t *Dict, key string) uint32 {
	if t == nil {
		return 0
	}
	ref, ok := t.Get(key).(Reference)
	if !ok {
		return 0
	}
	return ref.Num
}

// IDArray returns the trailer /ID, resolving it if indirect
func (p *Parser) IDArray() *Array {
	if p.trailer == nil {
		return nil
	}
	return p.trailer.GetArray("ID")
}

// SetCryptoHandler enables decryption for objects parsed from now on.
// Decoded object streams are dropped; resident objects are kept.
func (p *Parser) SetCryptoHandler(h CryptoHandler) {
	p.syntax.SetCryptoHandler(h)
	p.objStreams = make(map[uint32]*ObjectStream)
}

// SetMetadataObjNum names the metadata stream, which stays unencrypted.
func (p *Parser) SetMetadataObjNum(num uint32) {
	p.syntax.SetMetadataObjNum(num)
}

// Version returns the header version times ten, e.g. 17 for %PDF-1.7
func (p *Parser) Version() int {
	return p.version
}

// HeaderOffset returns the number of bytes before %PDF-
func (p *Parser) HeaderOffset() int64 {
	return p.syntax.HeaderOffset()
}

// LastXRefOffset returns the startxref offset, or 0 after a rebuild
// without one
func (p *Parser) LastXRefOffset() int64 {
	return p.lastXRef
}

// XRefRebuilt reports whether the table came from a full-file scan
func (p *Parser) XRefRebuilt() bool {
	return p.rebuilt
}

// IsXRefStream reports whether the newest section is a cross-reference stream
func (p *Parser) IsXRefStream() bool {
	return p.xrefStream
}

// ObjectSize estimates the stored size of object num
func (p *Parser) ObjectSize(num uint32) int64 {
	return p.xref.ObjectSize(num)
}

// GetObjectOffset returns the byte offset of num or of its container
func (p *Parser) GetObjectOffset(num uint32) int64 {
	return p.xref.ObjectOffset(num)
}

// IsObjectFree reports whether num has no usable entry
func (p *Parser) IsObjectFree(num uint32) bool {
	e, ok := p.xref.Get(num)
	return !ok || e.Type == EntryFree
}

// GetObjectGenNum returns the generation recorded for num
func (p *Parser) GetObjectGenNum(num uint32) uint16 {
	e, _ := p.xref.Get(num)
	return e.Generation
}
