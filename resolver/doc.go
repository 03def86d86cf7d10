// Package resolver ties the parser, the page tree and the resource
// loaders together for one PDF file.
//
// # Opening a Document
//
//	doc, err := resolver.Open(src, resolver.WithPassword("secret"))
//	if err != nil {
//		switch core.CodeOf(err) {
//		case core.ErrCodePassword:
//			// ask for another password
//		}
//	}
//	root := doc.GetRoot()
//	page, err := doc.GetPage(0)
//
// Open follows the usual recovery order: load the cross-reference chain,
// install the security handler, load the catalog and page tree, and
// rebuild the cross-reference table from a full scan once if the catalog
// or every page is missing.
//
// # Indirect Objects
//
// GetIndirectObject parses an object on first use and returns the same
// value on every later call. ReleaseObject forgets the resident copy.
//
// # Resources
//
// Fonts, colour spaces, patterns and ICC profiles are cached per defining
// object and reference counted:
//
//	f, err := doc.LoadFont(ref)
//	defer doc.ReleaseFont(ref)
//
// or with a Guard, whose Release may be called more than once:
//
//	g, err := doc.AcquireColorSpace(core.Name("CS0"), page.Resources())
//	defer g.Release()
//
// Colour spaces share the ICC profiles they reference, and release them
// when they are evicted themselves.
//
// A Document is not safe for concurrent use; open one per goroutine.
package resolver
