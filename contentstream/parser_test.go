package contentstream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/tsawler/pdfcore/core"
)

// TestParseOperators tests operator and operand splitting
func TestParseOperators(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		operators []string
		operands  []int
	}{
		{"simple", "q", []string{"q"}, []int{0}},
		{"integer operand", "100 Tz", []string{"Tz"}, []int{1}},
		{"text block", "BT /F1 12 Tf 72 712 Td (Hello) Tj ET", []string{"BT", "Tf", "Td", "Tj", "ET"}, []int{0, 2, 2, 1, 0}},
		{"quote operators", "(a) ' 1 2 (b) \"", []string{"'", "\""}, []int{1, 3}},
		{"star operators", "T* f* B*", []string{"T*", "f*", "B*"}, []int{0, 0, 0}},
		{"path", "0 0 m 100 100 l 10 10 50 50 re S", []string{"m", "l", "re", "S"}, []int{2, 2, 4, 0}},
		{"comment", "q % save\nQ", []string{"q", "Q"}, []int{0, 0}},
		{"empty", "", nil, nil},
		{"whitespace only", " \n\t ", nil, nil},
		{"stray delimiters", "q ] } ) Q", []string{"q", "Q"}, []int{0, 0}},
		{"trailing operands", "q 1 2", []string{"q"}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := NewParser([]byte(tt.input)).Parse()
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(ops) != len(tt.operators) {
				t.Fatalf("expected %d operations, got %d", len(tt.operators), len(ops))
			}
			for i, op := range ops {
				if op.Operator != tt.operators[i] {
					t.Errorf("op %d: expected %q, got %q", i, tt.operators[i], op.Operator)
				}
				if len(op.Operands) != tt.operands[i] {
					t.Errorf("op %d: expected %d operands, got %d", i, tt.operands[i], len(op.Operands))
				}
			}
		})
	}
}

// TestOperandTypes tests that operands keep their object types
func TestOperandTypes(t *testing.T) {
	ops, err := NewParser([]byte("[(A) -250 (B)] TJ /GS0 gs <48656C6C6F> Tj -1.5 .5 Td true null << /MCID 3 >> BDC")).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 5 {
		t.Fatalf("expected 5 operations, got %d", len(ops))
	}

	arr, ok := ops[0].Operands[0].(*core.Array)
	if !ok || arr.Len() != 3 || arr.GetInteger(1) != -250 || arr.GetString(2) != "B" {
		t.Errorf("unexpected TJ array %v", ops[0].Operands[0])
	}
	if name, ok := ops[1].Operands[0].(core.Name); !ok || name != "GS0" {
		t.Errorf("expected name GS0, got %v", ops[1].Operands[0])
	}
	if s, ok := ops[2].Operands[0].(core.String); !ok || string(s.Value) != "Hello" || !s.Hex {
		t.Errorf("expected hex string Hello, got %v", ops[2].Operands[0])
	}
	if x, ok := ops[3].Operands[0].(core.Real); !ok || x != -1.5 {
		t.Errorf("expected -1.5, got %v", ops[3].Operands[0])
	}
	if y := core.GetNumber(ops[3].Operands[1]); y != 0.5 {
		t.Errorf("expected 0.5, got %v", y)
	}
	bdc := ops[4].Operands
	if len(bdc) != 3 {
		t.Fatalf("expected 3 BDC operands, got %d", len(bdc))
	}
	if _, ok := bdc[0].(core.Bool); !ok {
		t.Errorf("expected a boolean, got %T", bdc[0])
	}
	if _, ok := bdc[1].(core.Null); !ok {
		t.Errorf("expected null, got %T", bdc[1])
	}
	if d := core.GetDict(bdc[2]); d == nil || d.GetInteger("MCID") != 3 {
		t.Errorf("unexpected property list %v", bdc[2])
	}
}

// TestInlineImage tests BI/ID/EI handling
func TestInlineImage(t *testing.T) {
	input := "q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00EI\xff\nEI Q"
	ops, err := NewParser([]byte(input)).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 3 || ops[1].Operator != "BI" || ops[2].Operator != "Q" {
		t.Fatalf("unexpected operations %+v", ops)
	}
	dict := core.GetDict(ops[1].Operands[0])
	if dict.GetInteger("W") != 2 || dict.GetName("CS") != "G" {
		t.Errorf("unexpected image dictionary %v", dict)
	}
	if got := string(ops[1].Data); got != "\x00EI\xff" {
		t.Errorf("unexpected image data %q", got)
	}

	_, err = NewParser([]byte("BI /W 1 ID \x00\x01")).Parse()
	if !errors.Is(err, ErrInlineImage) {
		t.Errorf("expected ErrInlineImage, got %v", err)
	}
}

// TestNext tests incremental reading
func TestNext(t *testing.T) {
	p := NewParser([]byte("1 w 2 J"))
	for _, want := range []string{"w", "J"} {
		op, err := p.Next()
		if err != nil || op.Operator != want {
			t.Fatalf("expected %s, got %q (%v)", want, op.Operator, err)
		}
	}
	if _, err := p.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

// TestOperandLimit tests that the operand stack is bounded
func TestOperandLimit(t *testing.T) {
	input := strings.Repeat("1 ", MaxOperands+10) + "n"
	p := NewParser([]byte(input))
	ops, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) != 1 || len(ops[0].Operands) != MaxOperands {
		t.Fatalf("expected %d operands", MaxOperands)
	}
	if p.Dropped() != 10 {
		t.Errorf("expected 10 dropped operands, got %d", p.Dropped())
	}
}

// TestNestingLimit tests that deep arrays do not exhaust the stack
func TestNestingLimit(t *testing.T) {
	l := core.DefaultLimits()
	l.MaxParseDepth = 8
	input := strings.Repeat("[", 50) + strings.Repeat("]", 50) + " TJ"
	ops, err := NewParserWithLimits([]byte(input), l).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ops) == 0 || ops[len(ops)-1].Operator != "TJ" {
		t.Errorf("expected parsing to reach TJ, got %+v", ops)
	}
}
