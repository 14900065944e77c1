// Package layout turns a card and its template into a backend-agnostic
// scene: ordered transform steps, clip outlines, draw boxes and wrapped text.
// The SVG preview and the raster export both consume the same scene, so
// placement math lives here and nowhere else.
package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/xob0t/CardStencil/pkg/geom"
)

// StepOp is the kind of a transform step.
type StepOp int

const (
	StepTranslate StepOp = iota
	StepScale
	StepRotate
)

// Step is one transform operation. Rotate uses X as degrees.
type Step struct {
	Op   StepOp
	X, Y float64
}

// Translate, Scale and Rotate build steps.
func Translate(x, y float64) Step { return Step{Op: StepTranslate, X: x, Y: y} }
func Scale(x, y float64) Step     { return Step{Op: StepScale, X: x, Y: y} }
func Rotate(deg float64) Step     { return Step{Op: StepRotate, X: deg} }

// Steps is an ordered transform list. Like SVG transform lists and canvas
// context calls, the first step is outermost: a point in the innermost
// space is mapped by the last step first.
type Steps []Step

// Matrix flattens s into one affine transform.
func (s Steps) Matrix() geom.Affine {
	m := geom.Identity()
	for _, st := range s {
		m = m.Mul(st.affine())
	}
	return m
}

func (st Step) affine() geom.Affine {
	switch st.Op {
	case StepTranslate:
		return geom.Translate(st.X, st.Y)
	case StepScale:
		return geom.Scale(st.X, st.Y)
	default:
		return geom.Rotate(geom.DegToRad(st.X))
	}
}

// SVG formats s as an SVG transform attribute.
func (s Steps) SVG() string {
	parts := make([]string, 0, len(s))
	for _, st := range s {
		switch st.Op {
		case StepTranslate:
			parts = append(parts, "translate("+num(st.X)+" "+num(st.Y)+")")
		case StepScale:
			parts = append(parts, "scale("+num(st.X)+" "+num(st.Y)+")")
		case StepRotate:
			parts = append(parts, "rotate("+num(st.X)+")")
		}
	}
	return strings.Join(parts, " ")
}

// num prints v rounded to 1e-6 without trailing zeros.
func num(v float64) string {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
