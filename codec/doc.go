// Package codec implements the stream filter pipeline used to turn raw PDF
// stream bytes into decoded bytes.
//
// A [Codecs] value is the capability handed to the parser and document
// resolver. It is built once, carries the registered filter decoders and the
// decode limits, and is passed by pointer instead of living in package state.
//
// # Filters
//
// The default set registered by [New]:
//
//   - FlateDecode (Fl) with TIFF and PNG predictors
//   - LZWDecode (LZW) with EarlyChange and predictors
//   - RunLengthDecode (RL)
//   - ASCIIHexDecode (AHx)
//   - ASCII85Decode (A85)
//   - CCITTFaxDecode (CCF)
//
// DCTDecode, JPXDecode and JBIG2Decode are image codecs. They are registered
// as terminal pass-through stages: decoding stops in front of them and the
// still-encoded image bytes are returned for an image decoder to consume.
//
// # Usage
//
//	c := codec.New(codec.WithMaxDecodedSize(64 << 20))
//	out, err := c.Decode(raw, []codec.Stage{{Name: "FlateDecode"}})
package codec
