// Package pages provides PDF page tree traversal and page access.
//
// # Page Tree
//
// PDF documents organize pages in a tree of /Pages nodes whose leaves are
// /Page dictionaries. The [Tree] type navigates this hierarchy:
//
//	tree := pages.NewTree(catalog.Pages(), pages.WithLimits(limits))
//	n := tree.Count()
//	page, err := tree.Page(0) // 0-indexed
//
// [Tree.Page] descends using the /Count of intermediate nodes and falls
// back to a full depth-first walk when a count is missing or wrong.
// [Tree.Count] always walks the whole tree. Both skip nodes they have
// already visited and stop after MaxPageTreeNodes nodes, so cyclic or
// oversized trees terminate.
//
// # Page Access
//
// The [Page] type represents a single PDF page with:
//
//   - MediaBox - page dimensions
//   - CropBox - visible area, clipped to the media box
//   - Rotate - page rotation (0, 90, 180, 270)
//   - Resources - fonts, images, colour spaces and so on
//   - Contents - content streams
//
// /Resources, /MediaBox, /CropBox and /Rotate are inherited from the
// nearest ancestor that defines them.
package pages
