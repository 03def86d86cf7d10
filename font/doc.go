// Package font reads PDF font dictionaries for the document resolver.
//
// [Load] handles simple fonts (Type1, MMType1, TrueType, Type3) and
// composite Type0 fonts with a CIDFont descendant. It extracts what
// consumers of parsed pages need without touching glyph programs:
//
//   - the subtype, base font and font descriptor metrics
//   - /FirstChar and /Widths, or /DW and /W for CID fonts
//   - the simple-font encoding, including /Differences
//   - the ToUnicode CMap
//
// # Text Decoding
//
// [Font.DecodeString] converts the bytes of a shown string to Unicode:
//
//	text := f.DecodeString(raw)
//
// The ToUnicode map is consulted first. Simple fonts then fall back to
// their encoding. Results are NFC-normalised.
//
// # CMaps
//
// [ParseCMap] reads CMap programs with the core tokenizer. The same type
// serves ToUnicode maps and the code to CID maps of embedded Type0
// encodings. Codespace ranges decide how many bytes form one code.
package font
