// Package core provides the PDF object model and the low-level parser that
// turns a byte source into indirect objects.
//
// This package implements the building blocks every higher layer relies on:
// the object variants, the tokenizer and object grammar, the
// cross-reference loader with its rebuild fallback, object streams and the
// per-document indirect object table.
//
// # Object Types
//
// All objects satisfy the [Object] interface:
//
//   - [Null], [Bool], [Int] and [Real] are plain values
//   - [String] holds raw bytes and remembers whether it was written as hex
//   - [Name] is a name without its leading slash, with #XX escapes expanded
//   - [Array] and [Dict] own their direct children; [Dict] keeps key order
//   - [Stream] pairs a dictionary with its stored payload
//   - [Reference] names an indirect object and resolves through a [Holder]
//
// Accessors such as [GetDict], [GetInteger] and [Dict.GetString] follow
// references, bounded by [MaxRefDepth], and yield zero values on a type
// mismatch instead of failing.
//
// # Parsing
//
// [Syntax] tokenizes a [Source] through a small read-ahead window. Positions
// are logical: they are measured from the %PDF- header so files with leading
// junk resolve the same offsets as clean ones. [Syntax.GetObject] parses one
// object; the strict variant is used while rebuilding.
//
// [Parser] locates startxref, walks the /Prev chain of classic tables,
// cross-reference streams and hybrids, and merges them newest first. If the
// chain cannot be loaded it scans the whole file with [Parser.RebuildCrossRef].
//
// # Indirect Objects
//
// [Table] parses objects lazily through its [Loader] and keeps them resident
// until released. A lookup of an object whose parse is already in progress
// returns nil, which keeps self-referencing /Length values and reference
// cycles finite.
//
// # Streams
//
// [Stream.Decode] applies the /Filter chain using the codec package.
// Payloads are decrypted when they are read, so Decode never sees
// ciphertext.
package core
