package resolver

import (
	"errors"
	"strconv"
	"testing"

	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pages"
)

func open(t *testing.T, b *pdfBuilder, opts ...Option) *Document {
	t.Helper()
	doc, err := Open(b.source(), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

// TestOpenMinimal tests root, info and page access on a well-formed file
func TestOpenMinimal(t *testing.T) {
	b := newPDFBuilder().onePage("")
	b.obj(4, "<< /Title (Minimal) /Producer <FEFF00700064006600630072> >>")
	b.xref("<< /Size 5 /Root 1 0 R /Info 4 0 R >>")
	doc := open(t, b)

	if doc.Version() != 17 {
		t.Errorf("Version = %d, want 17", doc.Version())
	}
	if doc.GetRoot().GetName("Type") != "Catalog" {
		t.Errorf("root = %v", doc.GetRoot())
	}
	if got := doc.InfoText("Title"); got != "Minimal" {
		t.Errorf("Title = %q", got)
	}
	if got := doc.InfoText("Producer"); got != "pdfcr" {
		t.Errorf("Producer = %q", got)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("PageCount = %d, want 1", doc.PageCount())
	}
	p, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if p.ObjNum != 3 || p.MediaBox() != (pages.Rect{0, 0, 612, 792}) {
		t.Errorf("page = %d %v", p.ObjNum, p.MediaBox())
	}
	if _, err := doc.GetPage(1); !errors.Is(err, pages.ErrPageRange) {
		t.Errorf("GetPage(1) err = %v", err)
	}
	if doc.Security() != nil || doc.Permissions() != 0xFFFFFFFF {
		t.Error("unencrypted file reports a security handler")
	}
	if doc.Parser().XRefRebuilt() {
		t.Error("well-formed file was rebuilt")
	}
}

// TestGetIndirectObjectIdentity tests memoization and release
func TestGetIndirectObjectIdentity(t *testing.T) {
	b := newPDFBuilder().onePage("")
	b.obj(4, "<< /Foo 1 >>")
	b.xref("<< /Size 5 /Root 1 0 R >>")
	doc := open(t, b)

	first := doc.GetIndirectObject(4)
	if first == nil || first != doc.GetIndirectObject(4) {
		t.Fatal("repeated lookups returned different values")
	}
	doc.ReleaseObject(4)
	again := doc.GetIndirectObject(4)
	if again == first {
		t.Error("released object was not parsed again")
	}
	if !core.IsIdentical(first, again) {
		t.Errorf("reparsed object differs: %v vs %v", first, again)
	}
	if doc.GetIndirectObject(0) != nil || doc.GetIndirectObject(99) != nil {
		t.Error("missing objects should resolve to nil")
	}
}

// TestIncrementalUpdate tests that the newest section wins
func TestIncrementalUpdate(t *testing.T) {
	b := newPDFBuilder().onePage("")
	b.obj(4, "<< /Foo 1 >>")
	prev := b.xref("<< /Size 5 /Root 1 0 R >>")
	b.obj(4, "<< /Foo 2 >>")
	b.xref("<< /Size 5 /Root 1 0 R /Prev " + strconv.FormatInt(prev, 10) + " >>")
	doc := open(t, b)

	if got := core.GetDict(doc.GetIndirectObject(4)).GetInteger("Foo"); got != 2 {
		t.Errorf("/Foo = %d, want 2", got)
	}
}

// TestReleasedPageReparsed tests that GetPage follows a released page
func TestReleasedPageReparsed(t *testing.T) {
	b := newPDFBuilder().onePage("/Rotate 90")
	b.xref("<< /Size 4 /Root 1 0 R >>")
	doc := open(t, b)

	p1, _ := doc.GetPage(0)
	p1.Dict.Set("Rotate", core.Int(180))
	doc.ReleaseObject(3)
	p2, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if p2.Dict == p1.Dict || p2.Rotate() != 90 {
		t.Errorf("page not reparsed: rotate %d", p2.Rotate())
	}
}

// TestPostCheckRebuild tests recovery when the cross-reference section is
// well formed but points at the wrong bytes
func TestPostCheckRebuild(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *pdfBuilder
		wantPages int
	}{
		{"catalog offset wrong", func() *pdfBuilder {
			b := newPDFBuilder().onePage("")
			b.offsets[1] = 9000
			b.xref("<< /Size 4 /Root 1 0 R >>")
			return b
		}, 1},
		{"page offsets wrong", func() *pdfBuilder {
			b := newPDFBuilder().onePage("")
			b.offsets[2] = 12
			b.offsets[3] = 12
			b.xref("<< /Size 4 /Root 1 0 R >>")
			return b
		}, 1},
		{"no pages at all", func() *pdfBuilder {
			b := newPDFBuilder()
			b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
			b.obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
			b.xref("<< /Size 3 /Root 1 0 R >>")
			return b
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := open(t, tt.build())
			if !doc.Parser().XRefRebuilt() {
				t.Error("expected a rebuild")
			}
			if doc.GetRoot() == nil {
				t.Fatal("no root after rebuild")
			}
			if got := doc.PageCount(); got != tt.wantPages {
				t.Errorf("PageCount = %d, want %d", got, tt.wantPages)
			}
		})
	}
}

// TestOpenErrors tests the error codes of files that cannot be opened
func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code core.ErrorCode
		is   error
	}{
		{"not a pdf", "hello world, this is not a PDF file at all", core.ErrCodeFormat, core.ErrNoHeader},
		{"no catalog", "%PDF-1.4\n1 0 obj\n<< /Foo 1 >>\nendobj\n", core.ErrCodeFormat, core.ErrNoRoot},
		{"empty", "", core.ErrCodeFormat, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(core.NewBytesSource([]byte(tt.data)))
			if core.CodeOf(err) != tt.code {
				t.Fatalf("code = %v (%v), want %v", core.CodeOf(err), err, tt.code)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

// encryptedPDF builds a file whose /Info /Title is "Hello, world"
// encrypted with RC4 for user "user" and owner "owner".
func encryptedPDF(filter string) *pdfBuilder {
	b := newPDFBuilder().onePage("")
	b.obj(5, "<< /Filter /"+filter+" /V 1 /R 2 /Length 40 /P -3904"+
		" /O <94e8094419662a774442fb072e3d9f19e9d130ec09a4d0061e78fe920f7ab62f>"+
		" /U <13f520c882d052bf57b416b747c13979bded7ea31240fe41928852aca3894c49> >>")
	b.obj(7, "<< /Title <62937d3e0128f39d4b8ce5f9> >>")
	id := "<000102030405060708090a0b0c0d0e0f>"
	b.xref("<< /Size 8 /Root 1 0 R /Info 7 0 R /Encrypt 5 0 R /ID [" + id + " " + id + "] >>")
	return b
}

// TestEncryptedOpen tests password handling and string decryption
func TestEncryptedOpen(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		password string
		owner    bool
		code     core.ErrorCode
	}{
		{"user password", "Standard", "user", false, core.ErrCodeSuccess},
		{"owner password", "Standard", "owner", true, core.ErrCodeSuccess},
		{"wrong password", "Standard", "guess", false, core.ErrCodePassword},
		{"no password", "Standard", "", false, core.ErrCodePassword},
		{"unknown handler", "FooSecurity", "user", false, core.ErrCodeHandler},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(encryptedPDF(tt.filter).source(), WithPassword(tt.password))
			if core.CodeOf(err) != tt.code {
				t.Fatalf("code = %v (%v), want %v", core.CodeOf(err), err, tt.code)
			}
			if err != nil {
				return
			}
			if got := doc.InfoText("Title"); got != "Hello, world" {
				t.Errorf("Title = %q", got)
			}
			if doc.Security().IsOwner() != tt.owner {
				t.Errorf("IsOwner = %v", doc.Security().IsOwner())
			}
			if doc.Permissions() != uint32(0xFFFFF0C0) {
				t.Errorf("Permissions = %#x", doc.Permissions())
			}
			if doc.PageCount() != 1 {
				t.Errorf("PageCount = %d", doc.PageCount())
			}
		})
	}
}
