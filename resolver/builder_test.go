package resolver

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tsawler/pdfcore/core"
)

// pdfBuilder assembles PDF files with exact cross-reference offsets
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int64
	section []int
	first   bool
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int64), first: true}
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return b
}

func (b *pdfBuilder) obj(num int, body string) *pdfBuilder {
	b.offsets[num] = int64(b.buf.Len())
	b.section = append(b.section, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return b
}

func (b *pdfBuilder) stream(num int, dict string, data []byte) *pdfBuilder {
	b.offsets[num] = int64(b.buf.Len())
	b.section = append(b.section, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	return b
}

// xref writes a classic section for the objects added since the last one
func (b *pdfBuilder) xref(trailer string) int64 {
	at := int64(b.buf.Len())
	b.buf.WriteString("xref\n")
	if b.first {
		b.buf.WriteString("0 1\n0000000000 65535 f \n")
		b.first = false
	}
	nums := append([]int(nil), b.section...)
	sort.Ints(nums)
	for _, n := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", n, b.offsets[n])
	}
	fmt.Fprintf(&b.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, at)
	b.section = nil
	return at
}

func (b *pdfBuilder) source() core.Source {
	return core.NewBytesSource(b.buf.Bytes())
}

// onePage adds a catalog (1), a page tree (2) and one page (3)
func (b *pdfBuilder) onePage(pageExtra string) *pdfBuilder {
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+pageExtra+" >>")
	return b
}
