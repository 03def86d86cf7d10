package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tsawler/pdfcore/avail"
	"github.com/tsawler/pdfcore/config"
	"github.com/tsawler/pdfcore/core"
)

// errStalled is returned when a check neither succeeds nor asks for data.
var errStalled = errors.New("availability check stalled")

// download tracks which bytes of a simulated transfer have arrived. Hinted
// segments arrive together on the next round.
type download struct {
	have    []bool
	pending [][2]int64
}

func newDownload(size int64) *download {
	return &download{have: make([]bool, size)}
}

func (d *download) clip(offset, size int64) (int64, int64) {
	return max(offset, 0), min(offset+size, int64(len(d.have)))
}

func (d *download) IsDataAvail(offset, size int64) bool {
	start, end := d.clip(offset, size)
	for i := start; i < end; i++ {
		if !d.have[i] {
			return false
		}
	}
	return true
}

func (d *download) AddSegment(offset, size int64) {
	d.pending = append(d.pending, [2]int64{offset, size})
}

// round delivers the pending segments and returns the number of bytes that
// were new.
func (d *download) round() int64 {
	var n int64
	for _, seg := range d.pending {
		start, end := d.clip(seg[0], seg[1])
		for i := start; i < end; i++ {
			if !d.have[i] {
				d.have[i] = true
				n++
			}
		}
	}
	d.pending = nil
	return n
}

// step is the cost of one availability answer
type step struct {
	rounds int
	bytes  int64
}

type availReport struct {
	linearized bool
	fileSize   int64
	doc        step
	pages      []step
	form       avail.FormStatus
	formStep   step
}

// simulate replays a download of path driven only by the hints of the
// availability engine: first the document, then every page in order, then
// the form.
func simulate(ctx context.Context, path string, pageCount int, cfg *config.Config, log *slog.Logger) (*availReport, error) {
	src, err := core.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	d := newDownload(src.Size())
	a := avail.New(src, d,
		avail.WithLogger(log),
		avail.WithLimits(cfg.CoreLimits()),
		avail.WithProbes(cfg.Avail.HeaderProbe, cfg.Avail.TailProbe),
	)
	run := func(check func() bool) (step, error) {
		var s step
		for !check() {
			if err := ctx.Err(); err != nil {
				return s, err
			}
			n := d.round()
			if n == 0 {
				return s, errStalled
			}
			s.rounds++
			s.bytes += n
		}
		return s, nil
	}

	r := &availReport{fileSize: src.Size()}
	if r.doc, err = run(func() bool { return a.IsDocAvail(d) }); err != nil {
		return r, fmt.Errorf("document: %w", err)
	}
	r.linearized = a.IsLinearized() == avail.Linearized
	for i := 0; i < pageCount; i++ {
		s, err := run(func() bool { return a.IsPageAvail(i, d) })
		if err != nil {
			return r, fmt.Errorf("page %d: %w", i+1, err)
		}
		r.pages = append(r.pages, s)
	}
	r.formStep, err = run(func() bool {
		r.form = a.IsFormAvail(d)
		return r.form != avail.FormNotAvailable
	})
	if err != nil {
		return r, fmt.Errorf("form: %w", err)
	}
	log.Debug("download simulated", slog.Int("pages", pageCount), slog.String("form", r.form.String()))
	return r, nil
}

func (r *availReport) write(b *strings.Builder) {
	fmt.Fprintf(b, "  avail:     linearized %t\n", r.linearized)
	total := r.doc.bytes
	fmt.Fprintf(b, "    document: %d rounds, %d bytes\n", r.doc.rounds, r.doc.bytes)
	for i, s := range r.pages {
		total += s.bytes
		fmt.Fprintf(b, "    page %d:   %d rounds, %d bytes\n", i+1, s.rounds, s.bytes)
	}
	total += r.formStep.bytes
	fmt.Fprintf(b, "    form:     %s, %d rounds, %d bytes\n", r.form, r.formStep.rounds, r.formStep.bytes)
	if r.fileSize > 0 {
		fmt.Fprintf(b, "    fetched:  %d of %d bytes (%.0f%%)\n", total, r.fileSize, 100*float64(total)/float64(r.fileSize))
	}
}
