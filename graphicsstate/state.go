package graphicsstate

import (
	"errors"
)

// MaxStackDepth bounds q nesting. Saves beyond it are ignored and their
// matching restores pop nothing.
const MaxStackDepth = 256

// ErrStackUnderflow is returned by Restore on an empty stack.
var ErrStackUnderflow = errors.New("graphics state stack underflow")

// Matrix is an affine transform [a b c d e f].
type Matrix [6]float64

// Identity returns the identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Apply maps the point (x, y)
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Multiply returns m followed by other
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// IsIdentity returns true if the matrix is an identity matrix
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// GraphicsState is the part of the PDF graphics state needed to place
// images: the CTM, the line width and the q/Q stack.
type GraphicsState struct {
	CTM       Matrix
	LineWidth float64

	stack   []saved
	ignored int
}

type saved struct {
	ctm       Matrix
	lineWidth float64
}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{CTM: Identity(), LineWidth: 1}
}

// Depth returns the number of saved states
func (gs *GraphicsState) Depth() int {
	return len(gs.stack)
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	if len(gs.stack) >= MaxStackDepth {
		gs.ignored++
		return
	}
	gs.stack = append(gs.stack, saved{ctm: gs.CTM, lineWidth: gs.LineWidth})
}

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if gs.ignored > 0 {
		gs.ignored--
		return nil
	}
	if len(gs.stack) == 0 {
		return ErrStackUnderflow
	}
	top := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]
	gs.CTM = top.ctm
	gs.LineWidth = top.lineWidth
	return nil
}

// Transform concatenates m to the CTM (cm operator)
func (gs *GraphicsState) Transform(m Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetLineWidth sets the line width (w operator)
func (gs *GraphicsState) SetLineWidth(width float64) {
	gs.LineWidth = width
}
