package core

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
)

// pdfBuilder assembles PDF files with exact cross-reference offsets.
// Offsets are relative to the %PDF- header, like every position the
// parser reports.
type pdfBuilder struct {
	buf      bytes.Buffer
	base     int
	offsets  map[int]int64
	section  []int
	sections int
}

func newPDFBuilder() *pdfBuilder {
	return newPDFBuilderWithPrefix("")
}

func newPDFBuilderWithPrefix(prefix string) *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int64)}
	b.buf.WriteString(prefix)
	b.base = len(prefix)
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return b
}

// pos returns the logical offset of the next byte written
func (b *pdfBuilder) pos() int64 {
	return int64(b.buf.Len() - b.base)
}

// obj writes "num 0 obj body endobj" and records its offset
func (b *pdfBuilder) obj(num int, body string) *pdfBuilder {
	b.offsets[num] = b.pos()
	b.section = append(b.section, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return b
}

// stream writes a stream object with an exact /Length
func (b *pdfBuilder) stream(num int, dict string, data []byte) *pdfBuilder {
	b.offsets[num] = b.pos()
	b.section = append(b.section, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
	return b
}

func (b *pdfBuilder) raw(s string) *pdfBuilder {
	b.buf.WriteString(s)
	return b
}

// xref writes a classic section for the objects added since the previous
// section, followed by the trailer and startxref. It returns the offset
// of the section.
func (b *pdfBuilder) xref(trailer string) int64 {
	at := b.pos()
	b.buf.WriteString("xref\n")
	if b.sections == 0 {
		b.buf.WriteString("0 1\n0000000000 65535 f \n")
	}
	nums := append([]int(nil), b.section...)
	sort.Ints(nums)
	for _, n := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", n, b.offsets[n])
	}
	fmt.Fprintf(&b.buf, "trailer\n%s\n", trailer)
	b.startxref(at)
	b.section = nil
	b.sections++
	return at
}

func (b *pdfBuilder) startxref(at int64) {
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", at)
}

func (b *pdfBuilder) bytes() []byte {
	return b.buf.Bytes()
}

// parser returns a started parser over the built file
func (b *pdfBuilder) parser() (*Parser, error) {
	p := NewParser(NewBytesSource(b.bytes()))
	return p, p.StartParse()
}

// xrefRow is one record of a cross-reference stream
type xrefRow struct {
	typ, f2, f3 int64
}

// xrefStreamData encodes rows with the given field widths
func xrefStreamData(w [3]int, rows []xrefRow) []byte {
	var out []byte
	put := func(v int64, n int) {
		for i := n - 1; i >= 0; i-- {
			out = append(out, byte(v>>(8*i)))
		}
	}
	for _, r := range rows {
		put(r.typ, w[0])
		put(r.f2, w[1])
		put(r.f3, w[2])
	}
	return out
}

// objectStreamData lays out an object stream body and returns it with
// its /First value.
func objectStreamData(nums []int, bodies []string) ([]byte, int) {
	var header, objects bytes.Buffer
	for i, n := range nums {
		fmt.Fprintf(&header, "%d %d ", n, objects.Len())
		objects.WriteString(bodies[i])
		objects.WriteByte('\n')
	}
	first := header.Len()
	return append(header.Bytes(), objects.Bytes()...), first
}

func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// mapHolder resolves references from a fixed map
type mapHolder map[uint32]Object

func (m mapHolder) GetIndirectObject(num uint32) Object {
	return m[num]
}

func newTestSyntax(data string) *Syntax {
	return NewSyntax(NewBytesSource([]byte(data)), 0)
}

// minimalPDF builds a catalog, a page tree with one page and a classic
// cross-reference section.
func minimalPDF() *pdfBuilder {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	b.xref("<< /Size 4 /Root 1 0 R >>")
	return b
}
