// Package reader provides high-level PDF file reading and object resolution.
//
// This package wraps the resolver package with file handling and a
// configuration-driven setup, for callers that want a document rather than
// a parser.
//
// # Opening PDF Files
//
// Use [Open] to open a PDF file for reading:
//
//	reader, err := reader.Open("document.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//
// Or use [NewReader] with any io.ReaderAt. Options such as [WithConfig]
// and [WithPassword] control limits, logging and decryption.
//
// # Document Information
//
// The Reader provides access to document structure:
//
//   - Version() - PDF header version (e.g., 1.7)
//   - PageCount() - number of pages
//   - GetCatalog() - document catalog dictionary
//   - GetInfo() and Metadata() - document info dictionary
//   - Trailer() - trailer dictionary
//
// # Page Access
//
// Access pages by index (0-based):
//
//	page, err := reader.GetPage(0)  // First page
//
// # Object Resolution
//
//   - GetObject(objNum) - load object by number
//   - Resolve(obj) - resolve if indirect, otherwise return as-is
//   - ResolveDeep(obj) - copy with every reference expanded
//
// # Images
//
// ExtractPageImages lists the image XObjects of a page with their colour
// spaces resolved through the document's resource cache. PageImage.ToPNG
// converts the decoded samples.
package reader
