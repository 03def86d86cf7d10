package reader

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfcore/contentstream"
	"github.com/tsawler/pdfcore/graphicsstate"
	"github.com/tsawler/pdfcore/pages"
)

// PageContent returns the decoded content streams of page, separated by
// newlines so tokens never join across streams.
func (r *Reader) PageContent(page *pages.Page) ([]byte, error) {
	var buf bytes.Buffer
	for i, stream := range page.Contents() {
		data, err := stream.Decode(r.doc.Codecs())
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// PageOperations parses the content of page into operations
func (r *Reader) PageOperations(page *pages.Page) ([]contentstream.Operation, error) {
	data, err := r.PageContent(page)
	if err != nil {
		return nil, err
	}
	return contentstream.NewParserWithLimits(data, r.doc.Parser().Limits()).Parse()
}

// ImagePlacements returns where each image XObject and inline image is
// drawn on page, in drawing order.
func (r *Reader) ImagePlacements(page *pages.Page) ([]graphicsstate.Placement, error) {
	ops, err := r.PageOperations(page)
	if err != nil {
		return nil, err
	}
	return graphicsstate.Placements(ops), nil
}
