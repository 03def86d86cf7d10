// Package contentstream splits page content streams into operations.
//
// Operands are read with the core tokenizer, so they have the same types
// as file objects: core.Int, core.Real, core.String, core.Name, *core.Array
// and *core.Dict.
//
// # Content Stream Operations
//
//	parser := contentstream.NewParser(streamData)
//	ops, err := parser.Parse()
//	for _, op := range ops {
//	    fmt.Printf("Operator: %s, Operands: %v\n", op.Operator, op.Operands)
//	}
//
// Next returns one operation at a time and io.EOF at the end.
//
// # Inline Images
//
// BI ... ID ... EI is returned as a single operation with operator BI. Its
// operand is the image dictionary (keys as written, abbreviations are not
// expanded) and Data holds the raw samples.
//
// # Malformed Input
//
// Stray closing delimiters are skipped, operands that never reach an
// operator are discarded, and the operand stack holds at most MaxOperands
// entries. Only an inline image without EI is an error.
package contentstream
