package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/pdfcore/graphicsstate"
	"github.com/tsawler/pdfcore/reader"
)

// report is what inspect learned about one file
type report struct {
	path      string
	version   string
	size      int64
	objects   int
	encrypted string
	meta      reader.Metadata
	pageCount int
	pages     []pageReport
	avail     *availReport
	err       error
}

type pageReport struct {
	objNum uint32
	width  float64
	height float64
	rotate int
	images int
	ops    int
	drawn  int
	err    error
}

// inspect opens path and gathers its report. Failures are recorded in the
// report rather than returned so one bad file does not stop the others.
func inspect(ctx context.Context, path string, opts options, logger *slog.Logger) *report {
	r := &report{path: path}
	log := logger.With(slog.String("file", path))

	rd, err := reader.Open(path, reader.WithConfig(opts.cfg), reader.WithLogger(log))
	if err != nil {
		r.err = err
		return r
	}
	defer rd.Close()

	r.version = rd.Version().String()
	r.size = rd.FileSize()
	r.objects = rd.NumObjects()
	r.meta = rd.Metadata()
	r.pageCount = rd.PageCount()
	if h := rd.Document().Security(); h != nil {
		access := "user"
		if h.IsOwner() {
			access = "owner"
		}
		r.encrypted = fmt.Sprintf("revision %d, %d-bit key, %s access, permissions %#x", h.Revision(), h.KeyLength()*8, access, h.Permissions())
	}

	if opts.pages || opts.imagesDir != "" {
		for i := 0; i < r.pageCount; i++ {
			if err := ctx.Err(); err != nil {
				r.err = err
				return r
			}
			r.pages = append(r.pages, inspectPage(rd, path, i, opts, log))
		}
	}

	if opts.avail {
		r.avail, err = simulate(ctx, path, r.pageCount, opts.cfg, log)
		if err != nil {
			r.err = fmt.Errorf("availability: %w", err)
		}
	}
	return r
}

func inspectPage(rd *reader.Reader, path string, index int, opts options, log *slog.Logger) pageReport {
	page, err := rd.GetPage(index)
	if err != nil {
		return pageReport{err: err}
	}
	pr := pageReport{
		objNum: page.ObjNum,
		width:  page.Width(),
		height: page.Height(),
		rotate: page.Rotate(),
	}
	ops, err := rd.PageOperations(page)
	if err != nil {
		pr.err = err
		return pr
	}
	pr.ops = len(ops)
	pr.drawn = len(graphicsstate.Placements(ops))
	images, err := rd.ExtractPageImages(page)
	if err != nil {
		pr.err = err
		return pr
	}
	pr.images = len(images)
	if opts.imagesDir == "" {
		return pr
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, img := range images {
		data, err := img.ToPNG()
		if err != nil {
			log.Warn("skipping image", slog.Int("page", index+1), slog.String("name", img.Name), slog.Any("error", err))
			continue
		}
		name := filepath.Join(opts.imagesDir, fmt.Sprintf("%s-p%d-%s.png", base, index+1, img.Name))
		if err := os.WriteFile(name, data, 0644); err != nil {
			pr.err = fmt.Errorf("failed to write image: %w", err)
			return pr
		}
	}
	return pr
}

func (r *report) write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.path)
	if r.version == "" {
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "  version:   %s\n", r.version)
	fmt.Fprintf(&b, "  size:      %d bytes\n", r.size)
	fmt.Fprintf(&b, "  objects:   %d\n", r.objects)
	if r.encrypted != "" {
		fmt.Fprintf(&b, "  encrypted: %s\n", r.encrypted)
	}
	for _, f := range []struct{ key, value string }{
		{"title", r.meta.Title},
		{"author", r.meta.Author},
		{"subject", r.meta.Subject},
		{"keywords", r.meta.Keywords},
		{"creator", r.meta.Creator},
		{"producer", r.meta.Producer},
	} {
		if f.value != "" {
			fmt.Fprintf(&b, "  %-10s %s\n", f.key+":", f.value)
		}
	}
	fmt.Fprintf(&b, "  pages:     %d\n", r.pageCount)
	for i, p := range r.pages {
		if p.err != nil {
			fmt.Fprintf(&b, "    page %d: %v\n", i+1, p.err)
			continue
		}
		fmt.Fprintf(&b, "    page %d: object %d, %gx%g, rotate %d, %d images, %d operators, %d drawn\n",
			i+1, p.objNum, p.width, p.height, p.rotate, p.images, p.ops, p.drawn)
	}
	if r.avail != nil {
		r.avail.write(&b)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
