package resolver

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tsawler/pdfcore/codec"
	"github.com/tsawler/pdfcore/colorspace"
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/font"
	"github.com/tsawler/pdfcore/pages"
	"github.com/tsawler/pdfcore/security"
)

// Document resolves the objects of one PDF file. It owns the parser, the
// indirect object table and the per-document resource caches.
// A Document is not safe for concurrent use.
type Document struct {
	parser   *core.Parser
	logger   *slog.Logger
	limits   core.Limits
	codecs   *codec.Codecs
	password string
	security *security.Handler

	root     *core.Dict
	info     *core.Dict
	tree     *pages.Tree
	pageNums map[int]uint32

	fonts    *arena[*font.Font]
	spaces   *arena[*colorspace.ColorSpace]
	patterns *arena[*colorspace.PatternObj]
	profiles *arena[*colorspace.ICCProfile]
}

// Option configures a Document
type Option func(*Document)

// WithPassword sets the password tried as user and then owner password
func WithPassword(password string) Option {
	return func(d *Document) {
		d.password = password
	}
}

// WithLogger sets the logger shared with the parser
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithLimits overrides the parse and page-tree limits
func WithLimits(l core.Limits) Option {
	return func(d *Document) {
		d.limits = l.Normalize()
	}
}

// WithCodecs sets the filter pipeline used for every stream in the file
func WithCodecs(c *codec.Codecs) Option {
	return func(d *Document) {
		if c != nil {
			d.codecs = c
		}
	}
}

// Open parses the cross-reference structure of src, sets up decryption
// and loads the catalog. When the catalog or the page tree cannot be
// found the cross-reference table is rebuilt once from a full scan.
//
// Failures carry a core.ErrorCode: FILE, FORMAT, PASSWORD or HANDLER.
func Open(src core.Source, opts ...Option) (*Document, error) {
	const op = "Open"
	d := &Document{
		limits: core.DefaultLimits(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.codecs == nil {
		d.codecs = codec.New(codec.WithMaxDecodedSize(d.limits.MaxDecodedSize))
	}
	d.parser = core.NewParser(src,
		core.WithLogger(d.logger),
		core.WithLimits(d.limits),
		core.WithCodecs(d.codecs),
	)
	if err := d.parser.StartParse(); err != nil {
		return nil, err
	}
	if err := d.setupSecurity(); err != nil {
		return nil, err
	}

	if !d.loadDoc() {
		if d.parser.XRefRebuilt() {
			return nil, core.NewError(core.ErrCodeFormat, op, core.ErrNoRoot)
		}
		d.logger.Info("document check failed, rebuilding",
			slog.Bool("root", d.root != nil),
			slog.Any("root_objnum", d.parser.RootObjNum()))
		d.parser.SetCryptoHandler(nil)
		d.security = nil
		if err := d.parser.RebuildCrossRef(); err != nil {
			return nil, core.NewError(core.ErrCodeFormat, op, err)
		}
		if err := d.setupSecurity(); err != nil {
			return nil, err
		}
		d.loadDoc()
		if d.root == nil {
			return nil, core.NewError(core.ErrCodeFormat, op, core.ErrNoRoot)
		}
	}

	if d.security != nil && !d.security.EncryptMetadata() {
		if num := d.Catalog().MetadataObjNum(); num != 0 {
			d.parser.SetMetadataObjNum(num)
		}
	}

	d.fonts = newArena("font", d.loadFont)
	d.spaces = newArena("colour space", d.loadColorSpace)
	d.patterns = newArena("pattern", d.loadPattern)
	d.profiles = newArena("ICC profile", d.loadIccProfile)
	return d, nil
}

// setupSecurity installs the standard security handler when the trailer
// names an /Encrypt dictionary.
func (d *Document) setupSecurity() error {
	trailer := d.parser.Trailer()
	if trailer == nil || trailer.Get("Encrypt") == nil {
		return nil
	}
	encrypt := trailer.GetDict("Encrypt")
	if encrypt == nil {
		d.logger.Warn("ignoring /Encrypt that is not a dictionary")
		return nil
	}
	var id []byte
	if ids := d.parser.IDArray(); ids.Len() > 0 {
		id = []byte(ids.GetString(0))
	}
	h, err := security.New(encrypt, id)
	if err != nil {
		d.logger.Warn("unsupported security handler",
			slog.String("filter", encrypt.GetName("Filter")),
			slog.Any("error", err))
		return err
	}
	if err := h.Authenticate(d.password); err != nil {
		return err
	}
	d.logger.Info("security handler selected",
		slog.String("cipher", h.Cipher().String()),
		slog.Int("revision", h.Revision()),
		slog.Bool("owner", h.IsOwner()))
	d.parser.SetCryptoHandler(h)
	d.security = h
	return nil
}

// loadDoc reads the catalog, the info dictionary and the page tree. It
// reports whether the document has a catalog and at least one page.
func (d *Document) loadDoc() bool {
	trailer := d.parser.Trailer()
	d.root = nil
	d.info = nil
	d.pageNums = make(map[int]uint32)
	if trailer != nil {
		d.root = trailer.GetDict("Root")
		d.info = trailer.GetDict("Info")
	}
	d.tree = pages.NewTree(pages.NewCatalog(d.root).Pages(), pages.WithLimits(d.limits))
	return d.root != nil && d.tree.Count() > 0
}

// GetIndirectObject returns object num, parsing it on first use. Repeated
// calls return the same value until the object is released.
func (d *Document) GetIndirectObject(num uint32) core.Object {
	return d.parser.Objects().GetIndirectObject(num)
}

// ReleaseObject drops the resident copy of num so that the next lookup
// parses it again.
func (d *Document) ReleaseObject(num uint32) {
	if num == 0 {
		return
	}
	d.parser.Objects().ReleaseIndirectObject(num)
	switch num {
	case d.parser.RootObjNum():
		d.loadDoc()
	case d.parser.InfoObjNum():
		d.info = d.parser.Trailer().GetDict("Info")
	}
}

// GetRoot returns the document catalog
func (d *Document) GetRoot() *core.Dict {
	return d.root
}

// Catalog wraps the document catalog
func (d *Document) Catalog() *pages.Catalog {
	return pages.NewCatalog(d.root)
}

// GetInfo returns the document information dictionary, or nil
func (d *Document) GetInfo() *core.Dict {
	return d.info
}

// InfoText returns a text string from the information dictionary
func (d *Document) InfoText(key string) string {
	s := d.info.GetString(key)
	if s == "" {
		return ""
	}
	return core.DecodeTextString([]byte(s))
}

// PageCount returns the number of pages found in the page tree
func (d *Document) PageCount() int {
	return d.tree.Count()
}

// GetPage returns page index (0-based). The object number of each page is
// remembered, so a released page dictionary is parsed again on the next
// lookup.
func (d *Document) GetPage(index int) (*pages.Page, error) {
	if index < 0 || index >= d.PageCount() {
		return nil, fmt.Errorf("page %d of %d: %w", index, d.PageCount(), pages.ErrPageRange)
	}
	if num, ok := d.pageNums[index]; ok {
		if dict := core.GetDict(d.GetIndirectObject(num)); dict != nil {
			return &pages.Page{Dict: dict, ObjNum: num}, nil
		}
	}
	p, err := d.tree.Page(index)
	if err != nil {
		return nil, err
	}
	if p.ObjNum != 0 {
		d.pageNums[index] = p.ObjNum
	}
	return p, nil
}

// Parser returns the underlying parser
func (d *Document) Parser() *core.Parser {
	return d.parser
}

// Trailer returns the effective trailer
func (d *Document) Trailer() *core.Dict {
	return d.parser.Trailer()
}

// Version returns the header version times ten
func (d *Document) Version() int {
	return d.parser.Version()
}

// Security returns the security handler, or nil for unencrypted files
func (d *Document) Security() *security.Handler {
	return d.security
}

// Permissions returns the /P flags of an encrypted file, or all bits set
func (d *Document) Permissions() uint32 {
	if d.security == nil {
		return 0xFFFFFFFF
	}
	return d.security.Permissions()
}

// Codecs returns the filter pipeline shared by the document
func (d *Document) Codecs() *codec.Codecs {
	return d.codecs
}
