package contentstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/pdfcore/core"
)

// MaxOperands bounds the operand stack. Operands beyond it are dropped.
const MaxOperands = 1024

// ErrInlineImage is returned for an inline image without EI.
var ErrInlineImage = errors.New("unterminated inline image")

// Operation is one operator and the operands that precede it.
type Operation struct {
	Operator string
	Operands []core.Object

	// Data holds the raw samples of an inline image (operator BI, whose
	// single operand is the image dictionary).
	Data []byte
}

// Parser reads operations from content stream data. Operands are parsed by
// the same tokenizer as file objects, so references and streams never
// appear in them.
type Parser struct {
	data     []byte
	syn      *core.Syntax
	operands []core.Object
	dropped  int
}

// NewParser creates a parser over data
func NewParser(data []byte) *Parser {
	return NewParserWithLimits(data, core.DefaultLimits())
}

// NewParserWithLimits creates a parser whose operand nesting is bounded by
// l.MaxParseDepth.
func NewParserWithLimits(data []byte, l core.Limits) *Parser {
	syn := core.NewSyntax(core.NewBytesSource(data), 0)
	syn.SetLimits(l)
	return &Parser{data: data, syn: syn}
}

// Parse returns all remaining operations in order. Operands after the last
// operator are discarded.
func (p *Parser) Parse() ([]Operation, error) {
	var ops []Operation
	for {
		op, err := p.Next()
		if err == io.EOF {
			return ops, nil
		}
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
}

// Dropped returns the number of operands discarded because the stack was
// full.
func (p *Parser) Dropped() int {
	return p.dropped
}

// Next returns the next operation, or io.EOF at the end of the data.
func (p *Parser) Next() (Operation, error) {
	for {
		saved := p.syn.Mark()
		word := p.syn.NextWord()
		if word.Empty() {
			p.operands = nil
			return Operation{}, io.EOF
		}
		if isOperator(word) {
			op := Operation{Operator: word.String(), Operands: p.operands}
			p.operands = nil
			if op.Operator == "BI" {
				return p.inlineImage()
			}
			return op, nil
		}

		p.syn.Restore(saved)
		obj := p.syn.GetObject(0, 0, false)
		if obj == nil {
			// A stray closing delimiter; skip it.
			p.syn.Restore(saved)
			p.syn.NextWord()
			continue
		}
		p.push(obj)
	}
}

func (p *Parser) push(obj core.Object) {
	if len(p.operands) >= MaxOperands {
		p.dropped++
		return
	}
	p.operands = append(p.operands, obj)
}

// isOperator reports whether word is a bare keyword rather than the start
// of an operand.
func isOperator(word core.Word) bool {
	if word.IsNumber || word.Truncated {
		return false
	}
	if strings.IndexByte("()<>[]{}/", word.Bytes[0]) >= 0 {
		return false
	}
	switch word.String() {
	case "true", "false", "null":
		return false
	}
	return true
}

// inlineImage reads the key/value pairs after BI, then the samples between
// ID and EI.
func (p *Parser) inlineImage() (Operation, error) {
	dict := core.NewDict()
	for {
		saved := p.syn.Mark()
		word := p.syn.NextWord()
		switch {
		case word.Empty():
			return Operation{}, ErrInlineImage
		case word.Is("ID"):
			data, err := p.imageData()
			if err != nil {
				return Operation{}, err
			}
			return Operation{Operator: "BI", Operands: []core.Object{dict}, Data: data}, nil
		case word.Bytes[0] == '/':
			p.syn.Restore(saved)
			key := core.GetName(p.syn.GetObject(0, 0, false))
			value := p.syn.GetObject(0, 0, false)
			if value == nil {
				return Operation{}, fmt.Errorf("inline image key /%s: %w", key, ErrInlineImage)
			}
			dict.Set(key, value)
		}
	}
}

// imageData returns the bytes after the single whitespace that follows ID,
// up to the whitespace before an EI that ends a word.
func (p *Parser) imageData() ([]byte, error) {
	start := int(p.syn.Pos())
	if start < len(p.data) && isSpace(p.data[start]) {
		start++
	}
	for i := start; i+2 <= len(p.data); i++ {
		if p.data[i] != 'E' || p.data[i+1] != 'I' {
			continue
		}
		if i > start && !isSpace(p.data[i-1]) {
			continue
		}
		if i+2 < len(p.data) && !isSpace(p.data[i+2]) {
			continue
		}
		end := i
		if end > start {
			end--
		}
		p.syn.SetPos(int64(i + 2))
		return bytes.Clone(p.data[start:end]), nil
	}
	return nil, ErrInlineImage
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}
