package avail

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tsawler/pdfcore/core"
)

// pdfBuilder assembles PDF files with exact cross-reference offsets
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int64
	section []int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int64)}
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

// padding adds a content stream of n bytes that nothing needs until the
// page using it is checked.
func (b *pdfBuilder) padding(num, n int) *pdfBuilder {
	line := "0 0 m 10 10 l S\n"
	data := strings.Repeat(line, n/len(line)+1)
	return b.stream(num, "", []byte(data[:n]))
}

// xref writes one classic section for every object added so far.
func (b *pdfBuilder) xref(trailer string) int64 {
	at := int64(b.buf.Len())
	b.buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	nums := append([]int(nil), b.section...)
	sort.Ints(nums)
	for _, n := range nums {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", n, b.offsets[n])
	}
	fmt.Fprintf(&b.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, at)
	b.section = nil
	return at
}

// xrefStream writes an uncompressed cross-reference stream as object num
// covering objects 0 to num, with W [1 4 2].
func (b *pdfBuilder) xrefStream(num int, extra string) int64 {
	at := int64(b.buf.Len())
	row := make([]byte, 7)
	var data bytes.Buffer
	for i := 0; i <= num; i++ {
		clear(row)
		switch off, ok := b.offsets[i]; {
		case i == num:
			row[0] = 1
			binary.BigEndian.PutUint32(row[1:5], uint32(at))
		case ok:
			row[0] = 1
			binary.BigEndian.PutUint32(row[1:5], uint32(off))
		case i == 0:
			binary.BigEndian.PutUint16(row[5:7], 65535)
		}
		data.Write(row)
	}
	b.stream(num, fmt.Sprintf("/Type /XRef /Size %d /W [1 4 2] %s", num+1, extra), data.Bytes())
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", at)
	b.section = nil
	return at
}

func (b *pdfBuilder) bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

// progressiveFile is a download simulator. Ranges become available only
// when a round delivers the segments hinted since the previous one.
type progressiveFile struct {
	data    []byte
	have    []bool
	hinted  [][2]int64
	history [][2]int64
	rounds  [][][2]int64
}

func newProgressiveFile(data []byte) *progressiveFile {
	return &progressiveFile{data: data, have: make([]bool, len(data))}
}

func (f *progressiveFile) source() core.Source {
	return core.NewBytesSource(f.data)
}

// arrivedSource returns a source that reads zeros wherever the download
// has not delivered bytes yet.
func (f *progressiveFile) arrivedSource() core.Source {
	return arrivedSource{f}
}

type arrivedSource struct {
	f *progressiveFile
}

func (s arrivedSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s.f.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.f.data[off:])
	for i := 0; i < n; i++ {
		if !s.f.have[off+int64(i)] {
			p[i] = 0
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s arrivedSource) Size() int64 {
	return int64(len(s.f.data))
}

func (f *progressiveFile) clip(offset, size int64) (int64, int64) {
	end := min(offset+size, int64(len(f.data)))
	return max(offset, 0), end
}

func (f *progressiveFile) IsDataAvail(offset, size int64) bool {
	start, end := f.clip(offset, size)
	for i := start; i < end; i++ {
		if !f.have[i] {
			return false
		}
	}
	return true
}

func (f *progressiveFile) AddSegment(offset, size int64) {
	f.hinted = append(f.hinted, [2]int64{offset, size})
	f.history = append(f.history, [2]int64{offset, size})
}

// deliver makes every hinted segment available and reports how many there
// were.
func (f *progressiveFile) deliver() int {
	n := len(f.hinted)
	f.rounds = append(f.rounds, f.hinted)
	for _, seg := range f.hinted {
		start, end := f.clip(seg[0], seg[1])
		for i := start; i < end; i++ {
			f.have[i] = true
		}
	}
	f.hinted = nil
	return n
}

func (f *progressiveFile) fill() {
	for i := range f.have {
		f.have[i] = true
	}
}

func (f *progressiveFile) availableBytes() int {
	n := 0
	for _, ok := range f.have {
		if ok {
			n++
		}
	}
	return n
}

// repeatedHint returns a segment hinted in two consecutive rounds. Every
// delivered segment is available afterwards, so a repeat means a check
// made no progress.
func (f *progressiveFile) repeatedHint() ([2]int64, bool) {
	for i := 1; i < len(f.rounds); i++ {
		for _, seg := range f.rounds[i] {
			for _, prev := range f.rounds[i-1] {
				if seg == prev {
					return seg, true
				}
			}
		}
	}
	return [2]int64{}, false
}

// hintedAt reports whether any segment hinted so far covers offset.
func (f *progressiveFile) hintedAt(offset int64) bool {
	for _, seg := range f.history {
		if offset >= seg[0] && offset < seg[0]+seg[1] {
			return true
		}
	}
	return false
}
