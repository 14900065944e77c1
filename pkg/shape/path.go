// path.go - Recorded path segments shared by the SVG and raster backends.
package shape

import (
	"math"
	"strconv"
	"strings"

	"github.com/xob0t/CardStencil/pkg/geom"
)

// Op identifies a path segment kind.
type Op int

const (
	// OpMove starts a new subpath at Args[0:2].
	OpMove Op = iota
	// OpLine draws a straight line to Args[0:2].
	OpLine
	// OpQuad draws a quadratic Bézier with control Args[0:2] ending at Args[2:4].
	OpQuad
	// OpCubic draws a cubic Bézier with controls Args[0:4] ending at Args[4:6].
	OpCubic
	// OpClose closes the current subpath.
	OpClose
)

func (o Op) String() string {
	switch o {
	case OpMove:
		return "M"
	case OpLine:
		return "L"
	case OpQuad:
		return "Q"
	case OpCubic:
		return "C"
	case OpClose:
		return "Z"
	default:
		return "?"
	}
}

// argCount is the number of coordinates each op carries.
func (o Op) argCount() int {
	switch o {
	case OpMove, OpLine:
		return 2
	case OpQuad:
		return 4
	case OpCubic:
		return 6
	default:
		return 0
	}
}

// Segment is one recorded path command with absolute coordinates.
type Segment struct {
	Op   Op
	Args []float64
}

// Path is an ordered list of segments.
type Path []Segment

// PathSink receives path construction calls. The raster context and Recorder
// implement it.
type PathSink interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadTo(cx, cy, x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	ClosePath()
}

// Replay sends every segment of p, mapped through m, to sink.
func (p Path) Replay(sink PathSink, m geom.Affine) {
	for _, s := range p {
		switch s.Op {
		case OpMove:
			q := m.Apply(geom.Pt(s.Args[0], s.Args[1]))
			sink.MoveTo(q.X, q.Y)
		case OpLine:
			q := m.Apply(geom.Pt(s.Args[0], s.Args[1]))
			sink.LineTo(q.X, q.Y)
		case OpQuad:
			c := m.Apply(geom.Pt(s.Args[0], s.Args[1]))
			q := m.Apply(geom.Pt(s.Args[2], s.Args[3]))
			sink.QuadTo(c.X, c.Y, q.X, q.Y)
		case OpCubic:
			c1 := m.Apply(geom.Pt(s.Args[0], s.Args[1]))
			c2 := m.Apply(geom.Pt(s.Args[2], s.Args[3]))
			q := m.Apply(geom.Pt(s.Args[4], s.Args[5]))
			sink.CubicTo(c1.X, c1.Y, c2.X, c2.Y, q.X, q.Y)
		case OpClose:
			sink.ClosePath()
		}
	}
}

// Transform returns a copy of p with every point mapped through m.
func (p Path) Transform(m geom.Affine) Path {
	var r Recorder
	p.Replay(&r, m)
	return r.Path
}

// SVG formats p as SVG path data.
func (p Path) SVG() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Op.String())
		for _, a := range s.Args {
			b.WriteByte(' ')
			b.WriteString(formatNum(a))
		}
	}
	return b.String()
}

// formatNum prints a coordinate without trailing zeros, rounded to 1e-4.
func formatNum(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Recorder is a PathSink that stores what it receives.
type Recorder struct {
	Path Path
}

func (r *Recorder) MoveTo(x, y float64) {
	r.Path = append(r.Path, Segment{Op: OpMove, Args: []float64{x, y}})
}

func (r *Recorder) LineTo(x, y float64) {
	r.Path = append(r.Path, Segment{Op: OpLine, Args: []float64{x, y}})
}

func (r *Recorder) QuadTo(cx, cy, x, y float64) {
	r.Path = append(r.Path, Segment{Op: OpQuad, Args: []float64{cx, cy, x, y}})
}

func (r *Recorder) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.Path = append(r.Path, Segment{Op: OpCubic, Args: []float64{c1x, c1y, c2x, c2y, x, y}})
}

func (r *Recorder) ClosePath() {
	r.Path = append(r.Path, Segment{Op: OpClose})
}

// Flatten approximates p by polygons, one per subpath, with n samples per
// curve segment.
func (p Path) Flatten(n int) [][]geom.Point {
	n = max(n, 1)
	var polys [][]geom.Point
	var cur []geom.Point
	var start, pen geom.Point
	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	for _, s := range p {
		switch s.Op {
		case OpMove:
			flush()
			pen = geom.Pt(s.Args[0], s.Args[1])
			start = pen
			cur = append(cur, pen)
		case OpLine:
			pen = geom.Pt(s.Args[0], s.Args[1])
			cur = append(cur, pen)
		case OpQuad:
			c := geom.Pt(s.Args[0], s.Args[1])
			end := geom.Pt(s.Args[2], s.Args[3])
			for i := 1; i <= n; i++ {
				cur = append(cur, quadAt(pen, c, end, float64(i)/float64(n)))
			}
			pen = end
		case OpCubic:
			c1 := geom.Pt(s.Args[0], s.Args[1])
			c2 := geom.Pt(s.Args[2], s.Args[3])
			end := geom.Pt(s.Args[4], s.Args[5])
			for i := 1; i <= n; i++ {
				cur = append(cur, cubicAt(pen, c1, c2, end, float64(i)/float64(n)))
			}
			pen = end
		case OpClose:
			pen = start
			flush()
		}
	}
	flush()
	return polys
}

func quadAt(p0, c, p1 geom.Point, t float64) geom.Point {
	u := 1 - t
	return geom.Point{
		X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
		Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
	}
}

func cubicAt(p0, c1, c2, p1 geom.Point, t float64) geom.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return geom.Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}

// Area returns the absolute enclosed area of the flattened path.
func (p Path) Area() float64 {
	total := 0.0
	for _, poly := range p.Flatten(32) {
		a := 0.0
		for i := range poly {
			j := (i + 1) % len(poly)
			a += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
		}
		total += a / 2
	}
	return math.Abs(total)
}

// Contains reports whether pt lies inside p using the even-odd rule.
func (p Path) Contains(pt geom.Point) bool {
	in := false
	for _, poly := range p.Flatten(32) {
		for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
			a, b := poly[i], poly[j]
			if (a.Y > pt.Y) != (b.Y > pt.Y) &&
				pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
				in = !in
			}
		}
	}
	return in
}

// Bounds returns the bounding box of the flattened path.
func (p Path) Bounds() geom.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range p.Flatten(16) {
		for _, q := range poly {
			minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
			minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
		}
	}
	if minX > maxX {
		return geom.Rect{}
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
