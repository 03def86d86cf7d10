// Package graphicsstate tracks the transformation part of the PDF graphics
// state while content stream operations are replayed.
//
// # Graphics State
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()              // Push state (q operator)
//	gs.Transform(matrix)   // Modify CTM (cm operator)
//	gs.Restore()           // Pop state (Q operator)
//
// # Image Placement
//
// Placements replays the operations of a page and returns, for every Do
// and inline image, the CTM in effect and the bounding box of the unit
// square it maps, which is where the image lands on the page.
package graphicsstate
