package reader

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tsawler/pdfcore/config"
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pages"
	"github.com/tsawler/pdfcore/resolver"
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Metadata holds the text entries of the document information dictionary
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// Option configures Open and NewReader
type Option func(*options)

type options struct {
	cfg      *config.Config
	password *string
	logger   *slog.Logger
}

// WithConfig supplies limits, password and logging settings
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithPassword overrides the configured password
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = &password
	}
}

// WithLogger overrides the logger built from the configuration
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Reader represents an opened PDF file
type Reader struct {
	doc  *resolver.Document
	src  core.Source
	file *core.FileSource
}

// Open opens a PDF file and returns a Reader. The caller must Close it.
func Open(filename string, opts ...Option) (*Reader, error) {
	file, err := core.OpenFile(filename)
	if err != nil {
		return nil, core.NewError(core.ErrCodeFile, "Open", err)
	}
	r, err := newReader(file, opts)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader reads a PDF of size bytes from ra. Close does not close ra.
func NewReader(ra io.ReaderAt, size int64, opts ...Option) (*Reader, error) {
	return newReader(io.NewSectionReader(ra, 0, size), opts)
}

func newReader(src core.Source, opts []Option) (*Reader, error) {
	o := &options{cfg: config.Default()}
	for _, opt := range opts {
		opt(o)
	}
	password := o.cfg.Password
	if o.password != nil {
		password = *o.password
	}
	logger := o.logger
	if logger == nil {
		logger = o.cfg.Logger(io.Discard)
	}
	doc, err := resolver.Open(src,
		resolver.WithPassword(password),
		resolver.WithLimits(o.cfg.CoreLimits()),
		resolver.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &Reader{doc: doc, src: src}, nil
}

// Close closes the file opened by Open
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Document returns the underlying document resolver
func (r *Reader) Document() *resolver.Document {
	return r.doc
}

// Version returns the PDF header version
func (r *Reader) Version() PDFVersion {
	v := r.doc.Version()
	return PDFVersion{Major: v / 10, Minor: v % 10}
}

// Trailer returns the trailer dictionary
func (r *Reader) Trailer() *core.Dict {
	return r.doc.Trailer()
}

// GetObject loads an object by its number. Missing objects yield nil.
func (r *Reader) GetObject(objNum uint32) core.Object {
	return r.doc.GetIndirectObject(objNum)
}

// GetCatalog returns the document catalog
func (r *Reader) GetCatalog() *core.Dict {
	return r.doc.GetRoot()
}

// GetInfo returns the document info dictionary, or nil
func (r *Reader) GetInfo() *core.Dict {
	return r.doc.GetInfo()
}

// Metadata decodes the text entries of the info dictionary
func (r *Reader) Metadata() Metadata {
	return Metadata{
		Title:    r.doc.InfoText("Title"),
		Author:   r.doc.InfoText("Author"),
		Subject:  r.doc.InfoText("Subject"),
		Keywords: r.doc.InfoText("Keywords"),
		Creator:  r.doc.InfoText("Creator"),
		Producer: r.doc.InfoText("Producer"),
	}
}

// NumObjects returns the number of cross-reference entries
func (r *Reader) NumObjects() int {
	return r.doc.Parser().XRef().Len()
}

// FileSize returns the size of the underlying source
func (r *Reader) FileSize() int64 {
	return r.src.Size()
}

// Resolve follows obj if it is a reference
func (r *Reader) Resolve(obj core.Object) core.Object {
	return core.Direct(obj)
}

// ResolveDeep returns a copy of obj with every reference replaced by its
// target. A reference met again inside its own expansion stays a reference.
func (r *Reader) ResolveDeep(obj core.Object) core.Object {
	return core.Clone(obj, true)
}

// PageCount returns the number of pages
func (r *Reader) PageCount() int {
	return r.doc.PageCount()
}

// GetPage returns page index (0-based)
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	return r.doc.GetPage(index)
}
