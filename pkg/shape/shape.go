// Package shape is the closed registry of clip shapes used for photos.
//
// Every shape is defined once as a segment list in a 100x100 box anchored at
// the top-left corner. The SVG descriptor and the immediate-mode construction
// are both derived from that list, so the two renderers cannot drift apart.
package shape

import (
	"fmt"

	"github.com/xob0t/CardStencil/pkg/geom"
)

// Shape identifies a clip shape.
type Shape string

const (
	Circle   Shape = "circle"
	Heart    Shape = "heart"
	Triangle Shape = "triangle"
	Square   Shape = "square"
)

// BoxSize is the edge length of the unit box shapes are defined in.
const BoxSize = 100

// Default is used when a photo does not name a shape.
const Default = Heart

// Order is the tap cycle order.
var Order = []Shape{Circle, Heart, Triangle, Square}

// Next returns the shape after s in the tap cycle. Unknown shapes restart at
// the first entry.
func Next(s Shape) Shape {
	for i, o := range Order {
		if o == s {
			return Order[(i+1)%len(Order)]
		}
	}
	return Order[0]
}

// Parse maps an untrusted identifier to a Shape.
func Parse(id string) (Shape, bool) {
	s := Shape(id)
	_, ok := registry[s]
	return s, ok
}

// Valid reports whether s is a registered shape.
func (s Shape) Valid() bool {
	_, ok := registry[s]
	return ok
}

// Def is the geometry of one shape.
type Def struct {
	ID   Shape
	Path Path
}

// Lookup returns the definition of s. Asking for an unregistered shape is a
// programming error; untrusted input goes through Parse first.
func Lookup(s Shape) *Def {
	d, ok := registry[s]
	if !ok {
		panic(fmt.Sprintf("shape: unknown shape %q", s))
	}
	return d
}

// SVGPath returns the path data of the shape scaled to a size x size box.
func (d *Def) SVGPath(size float64) string {
	if size == BoxSize {
		return d.Path.SVG()
	}
	return d.Path.Transform(geom.Scale(size/BoxSize, size/BoxSize)).SVG()
}

// Trace replays the shape into sink scaled to a size x size box.
func (d *Def) Trace(sink PathSink, size float64) {
	d.Path.Replay(sink, geom.Scale(size/BoxSize, size/BoxSize))
}

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

var registry = map[Shape]*Def{
	Circle:   {ID: Circle, Path: ellipse(50, 50, 50, 50)},
	Heart:    {ID: Heart, Path: heartPath},
	Triangle: {ID: Triangle, Path: trianglePath},
	Square:   {ID: Square, Path: squarePath},
}

func move(x, y float64) Segment { return Segment{Op: OpMove, Args: []float64{x, y}} }
func line(x, y float64) Segment { return Segment{Op: OpLine, Args: []float64{x, y}} }
func quad(cx, cy, x, y float64) Segment {
	return Segment{Op: OpQuad, Args: []float64{cx, cy, x, y}}
}
func cubic(ax, ay, bx, by, x, y float64) Segment {
	return Segment{Op: OpCubic, Args: []float64{ax, ay, bx, by, x, y}}
}
func closePath() Segment { return Segment{Op: OpClose} }

var heartPath = Path{
	move(50, 86),
	cubic(22, 68, 10, 55, 10, 38),
	cubic(10, 26, 18, 18, 30, 18),
	cubic(38, 18, 45, 22, 50, 29),
	cubic(55, 22, 62, 18, 70, 18),
	cubic(82, 18, 90, 26, 90, 38),
	cubic(90, 55, 78, 68, 50, 86),
	closePath(),
}

// Box with corners rounded by 10 units.
var squarePath = Path{
	move(10, 0),
	line(90, 0),
	quad(100, 0, 100, 10),
	line(100, 90),
	quad(100, 100, 90, 100),
	line(10, 100),
	quad(0, 100, 0, 90),
	line(0, 10),
	quad(0, 0, 10, 0),
	closePath(),
}

// Triangle with softened tips.
var trianglePath = Path{
	move(50, 5),
	quad(52, 0, 54, 3),
	line(97, 95),
	quad(100, 100, 95, 100),
	line(5, 100),
	quad(0, 100, 3, 95),
	line(46, 3),
	quad(48, 0, 50, 5),
	closePath(),
}

// ellipse builds four cubic quarter arcs starting at the rightmost point.
func ellipse(cx, cy, rx, ry float64) Path {
	kx, ky := rx*kappa, ry*kappa
	return Path{
		move(cx+rx, cy),
		cubic(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry),
		cubic(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy),
		cubic(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry),
		cubic(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy),
		closePath(),
	}
}
