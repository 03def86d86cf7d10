package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// samplePDF has an info dictionary, two pages and an image on page 1
func samplePDF() []byte {
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 612 792] >>",
		"<< /Type /Page /Parent 2 0 R /Contents 7 0 R /Resources << /XObject << /Im1 5 0 R >> >> >>",
		"<< /Type /Page /Parent 2 0 R /Rotate 90 >>",
		"<< /Type /XObject /Subtype /Image /Width 2 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Length 2 >>\nstream\n\x00\xff\nendstream",
		"<< /Title (Sample) /Producer (pdfinspect test) >>",
		"<< /Length 26 >>\nstream\nq 2 0 0 1 0 0 cm /Im1 Do Q\nendstream",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	offsets := make([]int, len(bodies))
	for i, body := range bodies {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(bodies)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 6 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(bodies)+1, xref)
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestRunWithArgs tests exit codes and output of the inspector
func TestRunWithArgs(t *testing.T) {
	good := writeTemp(t, "sample.pdf", samplePDF())
	bad := writeTemp(t, "bad.pdf", []byte("not a pdf"))
	cfg := writeTemp(t, "config.yaml", []byte("log:\n  level: error\navail:\n  header_probe: 256\n"))
	badCfg := writeTemp(t, "bad.yaml", []byte("log:\n  level: loud\n"))

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantOut    []string
		wantStderr string
	}{
		{
			name:     "no files",
			args:     nil,
			wantCode: 2,
		},
		{
			name:     "unknown flag",
			args:     []string{"-nope", good},
			wantCode: 2,
		},
		{
			name:     "summary",
			args:     []string{good},
			wantCode: 0,
			wantOut:  []string{"version:   1.5", "pages:     2", "title:     Sample", "producer:  pdfinspect test"},
		},
		{
			name:     "pages",
			args:     []string{"-pages", good},
			wantCode: 0,
			wantOut:  []string{"page 1: object 3, 612x792, rotate 0, 1 images, 4 operators, 1 drawn", "page 2: object 4, 612x792, rotate 90, 0 images, 0 operators, 0 drawn"},
		},
		{
			name:     "availability",
			args:     []string{"-config", cfg, "-avail", good},
			wantCode: 0,
			wantOut:  []string{"linearized false", "document:", "page 2:", "form:     NotExist"},
		},
		{
			name:       "bad file among good ones",
			args:       []string{good, bad, good},
			wantCode:   1,
			wantOut:    []string{"sample.pdf\n", "bad.pdf\n"},
			wantStderr: "bad.pdf:",
		},
		{
			name:       "invalid config",
			args:       []string{"-config", badCfg, good},
			wantCode:   1,
			wantStderr: "unknown log level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runWithArgs(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d (stderr: %s)", tt.wantCode, code, stderr.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output missing %q:\n%s", want, stdout.String())
				}
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr.String())
			}
		})
	}
}

// TestReportOrder tests that concurrent inspection keeps argument order
func TestReportOrder(t *testing.T) {
	data := samplePDF()
	var args []string
	for i := 0; i < 6; i++ {
		args = append(args, writeTemp(t, fmt.Sprintf("f%d.pdf", i), data))
	}
	var stdout, stderr bytes.Buffer
	if code := runWithArgs(append([]string{"-j", "3"}, args...), &stdout, &stderr); code != 0 {
		t.Fatalf("unexpected exit code %d: %s", code, stderr.String())
	}
	last := -1
	for _, path := range args {
		i := strings.Index(stdout.String(), path+"\n")
		if i <= last {
			t.Fatalf("report for %s out of order", path)
		}
		last = i
	}
}

// TestImagesFlag tests PNG export of page images
func TestImagesFlag(t *testing.T) {
	good := writeTemp(t, "sample.pdf", samplePDF())
	dir := filepath.Join(t.TempDir(), "out")
	var stdout, stderr bytes.Buffer
	if code := runWithArgs([]string{"-images", dir, good}, &stdout, &stderr); code != 0 {
		t.Fatalf("unexpected exit code %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "sample-p1-Im1.png"))
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("missing PNG signature")
	}
}

// TestDownload tests that rounds deliver only new bytes
func TestDownload(t *testing.T) {
	d := newDownload(100)
	if d.IsDataAvail(0, 10) {
		t.Fatal("nothing has arrived yet")
	}
	d.AddSegment(0, 10)
	d.AddSegment(5, 10)
	if n := d.round(); n != 15 {
		t.Errorf("expected 15 new bytes, got %d", n)
	}
	d.AddSegment(90, 50)
	if n := d.round(); n != 10 {
		t.Errorf("expected the segment clipped to 10 bytes, got %d", n)
	}
	if !d.IsDataAvail(0, 15) || !d.IsDataAvail(90, 10) || d.IsDataAvail(14, 2) {
		t.Error("unexpected availability")
	}
	if n := d.round(); n != 0 {
		t.Errorf("expected an empty round, got %d", n)
	}
}
