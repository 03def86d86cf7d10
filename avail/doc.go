// Package avail decides whether a partially downloaded PDF can be opened
// yet, and which byte ranges to fetch next.
//
// A DataAvail is driven by the caller: each call to IsDocAvail,
// IsPageAvail or IsFormAvail either reports true or adds the missing
// ranges to Hints and returns false. The caller fetches those ranges and
// repeats the call. State is kept between calls, so work already done is
// not repeated.
//
// # Document check
//
// For an ordinary file the check reads the header, finds startxref in the
// tail, then follows the cross-reference chain section by section. Once
// every section has arrived it opens a core.Parser and fetches the
// catalog, the info dictionary, the form dictionary and the page-tree
// root.
//
// For a linearized file the check waits for the first-page section and
// the main cross-reference section named in the linearization dictionary.
//
// Files that cannot be checked piecewise wait for the whole file: a
// missing header, an encrypted or hybrid cross-reference chain, a chain
// that loops, or one the parser has to rebuild.
//
// # Pages and forms
//
//	a := avail.New(src, downloader)
//	for !a.IsPageAvail(3, downloader) {
//		downloader.Wait()
//	}
//
// A page is available once its dictionary, its contents, its annotations
// and its resources (including those inherited through /Parent) have
// arrived. /Parent links are not followed otherwise, so checking one page
// never pulls in its siblings.
package avail
