package core

import (
	"bytes"
	"testing"

	"github.com/tsawler/pdfcore/codec"
)

// TestStreamFilters tests filter chain extraction
func TestStreamFilters(t *testing.T) {
	tests := []struct {
		name     string
		dict     string
		expected []string
		params   []int
		wantErr  bool
	}{
		{"none", "<< >>", nil, nil, false},
		{"single", "<< /Filter /FlateDecode >>", []string{"FlateDecode"}, []int{0}, false},
		{"chain", "<< /Filter [/ASCIIHexDecode /FlateDecode] >>", []string{"ASCIIHexDecode", "FlateDecode"}, []int{0, 0}, false},
		{"shared params", "<< /Filter /FlateDecode /DecodeParms << /Predictor 12 >> >>", []string{"FlateDecode"}, []int{12}, false},
		{"params array", "<< /Filter [/A85 /Fl] /DecodeParms [null << /Predictor 2 >>] >>", []string{"A85", "Fl"}, []int{0, 2}, false},
		{"abbreviated params", "<< /Filter /Fl /DP << /Predictor 10 >> >>", []string{"Fl"}, []int{10}, false},
		{"crypt dropped", "<< /Filter [/Crypt /FlateDecode] >>", []string{"FlateDecode"}, []int{0}, false},
		{"null filter", "<< /Filter null >>", nil, nil, false},
		{"bad filter type", "<< /Filter 5 >>", nil, nil, true},
		{"bad filter entry", "<< /Filter [/FlateDecode 5] >>", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict := GetDict(newTestSyntax(tt.dict).GetObject(0, 0, false))
			stages, err := NewStream(dict, nil).Filters()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if len(stages) != len(tt.expected) {
				t.Fatalf("expected %d stages, got %d", len(tt.expected), len(stages))
			}
			for i, st := range stages {
				if st.Name != tt.expected[i] {
					t.Errorf("stage %d: expected %s, got %s", i, tt.expected[i], st.Name)
				}
				if got := st.Params.Int("Predictor", 0); got != tt.params[i] {
					t.Errorf("stage %d: expected predictor %d, got %d", i, tt.params[i], got)
				}
			}
		})
	}
}

// TestStreamDecode tests decoding through the codec pipeline
func TestStreamDecode(t *testing.T) {
	original := []byte("BT /F1 12 Tf (Hello) Tj ET")

	tests := []struct {
		name   string
		filter Object
		raw    []byte
	}{
		{"no filter", nil, original},
		{"flate", Name("FlateDecode"), zlibCompress(original)},
		{"hex then flate", NewArray(Name("AHx"), Name("Fl")), []byte(hexEncode(zlibCompress(original)) + ">")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dict := NewDict()
			dict.Set("Filter", tt.filter)
			s := NewStream(dict, tt.raw)
			got, err := s.Decode(codec.New())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, original) {
				t.Errorf("expected %q, got %q", original, got)
			}
		})
	}
}

// TestStreamDecodeErrors tests failing decodes
func TestStreamDecodeErrors(t *testing.T) {
	dict := NewDict()
	dict.Set("Filter", Name("NoSuchFilter"))
	if _, err := NewStream(dict, []byte("x")).Decode(nil); err == nil {
		t.Error("expected error for unknown filter")
	}

	dict = NewDict()
	dict.Set("Filter", Name("FlateDecode"))
	small := codec.New(codec.WithMaxDecodedSize(10))
	if _, err := NewStream(dict, zlibCompress(make([]byte, 1000))).Decode(small); err == nil {
		t.Error("expected error past the size limit")
	}
}

// TestStreamSetRaw tests that /Length follows the payload
func TestStreamSetRaw(t *testing.T) {
	s := NewStream(nil, []byte("abc"))
	if s.Dict.GetInteger("Length") != 3 {
		t.Errorf("expected /Length 3, got %d", s.Dict.GetInteger("Length"))
	}
	s.SetRaw([]byte("abcdef"))
	if s.Dict.GetInteger("Length") != 6 || string(s.Raw()) != "abcdef" {
		t.Error("expected payload and /Length to be replaced")
	}
	var nilStream *Stream
	if nilStream.Raw() != nil {
		t.Error("expected nil payload from nil stream")
	}
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}

// BenchmarkStreamDecode benchmarks flate decoding
func BenchmarkStreamDecode(b *testing.B) {
	data := zlibCompress(bytes.Repeat([]byte("0 0 m 100 100 l S\n"), 1000))
	dict := NewDict()
	dict.Set("Filter", Name("FlateDecode"))
	s := NewStream(dict, data)
	c := codec.New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Decode(c); err != nil {
			b.Fatal(err)
		}
	}
}
