// affine.go - 2x3 affine matrices used to flatten transform step lists.
package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transform laid out like f64.Aff3:
//
//	x' = A*x + B*y + C
//	y' = D*x + E*y + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine { return Affine{A: 1, E: 1} }

// Translate returns a pure translation.
func Translate(tx, ty float64) Affine { return Affine{A: 1, C: tx, E: 1, F: ty} }

// Scale returns a pure scale.
func Scale(sx, sy float64) Affine { return Affine{A: sx, E: sy} }

// Rotate returns a rotation by rad radians. Positive angles turn clockwise on
// a y-down canvas, matching SVG rotate().
func Rotate(rad float64) Affine {
	s, c := math.Sincos(rad)
	return Affine{A: c, B: -s, D: s, E: c}
}

// Mul returns m*n: n is applied first, then m.
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.B*n.D,
		B: m.A*n.B + m.B*n.E,
		C: m.A*n.C + m.B*n.F + m.C,
		D: m.D*n.A + m.E*n.D,
		E: m.D*n.B + m.E*n.E,
		F: m.D*n.C + m.E*n.F + m.F,
	}
}

// Apply maps p through m.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Det returns the determinant of the linear part.
func (m Affine) Det() float64 { return m.A*m.E - m.B*m.D }

// Invert returns the inverse transform. ok is false for singular matrices.
func (m Affine) Invert() (inv Affine, ok bool) {
	det := m.Det()
	if det == 0 || !Finite(det) {
		return Affine{}, false
	}
	id := 1 / det
	inv.A = m.E * id
	inv.B = -m.B * id
	inv.D = -m.D * id
	inv.E = m.A * id
	inv.C = -(inv.A*m.C + inv.B*m.F)
	inv.F = -(inv.D*m.C + inv.E*m.F)
	return inv, true
}

// Aff3 converts m for use with golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

// MaxScale returns the larger axis scale factor of the linear part.
func (m Affine) MaxScale() float64 {
	return math.Max(math.Hypot(m.A, m.D), math.Hypot(m.B, m.E))
}
