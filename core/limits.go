package core

import "github.com/tsawler/pdfcore/codec"

// Limits bounds the work done on hostile input.
type Limits struct {
	// Maximum nesting of arrays and dictionaries in one object. Default: 64.
	MaxParseDepth int

	// Maximum number of /Prev links followed. Default: 512.
	MaxXRefChain int

	// Largest object number accepted while rebuilding. Default: 0x1000000.
	MaxObjectNumber uint32

	// Largest /Size accepted from a classic trailer. Default: 1<<20.
	MaxXRefSize int

	// Maximum page-tree nodes visited by one page lookup. Default: 1<<20.
	MaxPageTreeNodes int

	// Maximum decoded stream size in bytes. Default: 256 MB.
	MaxDecodedSize int64
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxParseDepth:    64,
		MaxXRefChain:     512,
		MaxObjectNumber:  0x1000000,
		MaxXRefSize:      1 << 20,
		MaxPageTreeNodes: 1 << 20,
		MaxDecodedSize:   codec.DefaultMaxDecodedSize,
	}
}

// Normalize returns l with zero fields replaced by defaults.
func (l Limits) Normalize() Limits {
	d := DefaultLimits()
	if l.MaxParseDepth <= 0 {
		l.MaxParseDepth = d.MaxParseDepth
	}
	if l.MaxXRefChain <= 0 {
		l.MaxXRefChain = d.MaxXRefChain
	}
	if l.MaxObjectNumber == 0 {
		l.MaxObjectNumber = d.MaxObjectNumber
	}
	if l.MaxXRefSize <= 0 {
		l.MaxXRefSize = d.MaxXRefSize
	}
	if l.MaxPageTreeNodes <= 0 {
		l.MaxPageTreeNodes = d.MaxPageTreeNodes
	}
	if l.MaxDecodedSize <= 0 {
		l.MaxDecodedSize = d.MaxDecodedSize
	}
	return l
}
