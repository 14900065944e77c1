// Package raster is a small immediate-mode 2D context over *image.RGBA:
// a transform stack, path building, alpha-mask clipping and affine image
// drawing. Paths are rasterized with golang.org/x/image/vector and images
// are resampled with golang.org/x/image/draw.
package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/vector"

	"github.com/xob0t/CardStencil/pkg/fonts"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
)

type state struct {
	m    geom.Affine
	clip *image.Alpha // nil = unclipped
}

// Context draws onto an RGBA image. It is not safe for concurrent use.
type Context struct {
	dst    *image.RGBA
	w, h   int
	cur    state
	stack  []state
	path   shape.Recorder // device space
	interp draw.Interpolator
}

// New returns a context drawing onto a new transparent w x h image.
func New(w, h int) *Context {
	return NewFor(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// NewFor returns a context drawing onto dst. dst must have a zero origin.
func NewFor(dst *image.RGBA) *Context {
	b := dst.Bounds()
	return &Context{
		dst:    dst,
		w:      b.Dx(),
		h:      b.Dy(),
		cur:    state{m: geom.Identity()},
		interp: draw.BiLinear,
	}
}

// Image returns the drawing surface.
func (c *Context) Image() *image.RGBA { return c.dst }

// SetInterpolator chooses the resampling kernel for DrawImage.
func (c *Context) SetInterpolator(i draw.Interpolator) { c.interp = i }

// ── State ──

// Save pushes the transform and clip.
func (c *Context) Save() { c.stack = append(c.stack, c.cur) }

// Restore pops the state pushed by the matching Save. Extra calls are
// ignored.
func (c *Context) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Matrix returns the current user-to-device transform.
func (c *Context) Matrix() geom.Affine { return c.cur.m }

// Transform post-multiplies the current matrix: m is applied to user
// coordinates before the existing transform.
func (c *Context) Transform(m geom.Affine) { c.cur.m = c.cur.m.Mul(m) }

func (c *Context) Translate(x, y float64) { c.Transform(geom.Translate(x, y)) }
func (c *Context) Scale(x, y float64)     { c.Transform(geom.Scale(x, y)) }

// Rotate turns by deg degrees, clockwise on screen.
func (c *Context) Rotate(deg float64) { c.Transform(geom.Rotate(geom.DegToRad(deg))) }

// ── Paths ──

// MoveTo, LineTo, QuadTo, CubicTo and ClosePath append to the current path
// in user coordinates. Context satisfies shape.PathSink.
func (c *Context) MoveTo(x, y float64) {
	p := c.cur.m.Apply(geom.Pt(x, y))
	c.path.MoveTo(p.X, p.Y)
}

func (c *Context) LineTo(x, y float64) {
	p := c.cur.m.Apply(geom.Pt(x, y))
	c.path.LineTo(p.X, p.Y)
}

func (c *Context) QuadTo(cx, cy, x, y float64) {
	q := c.cur.m.Apply(geom.Pt(cx, cy))
	p := c.cur.m.Apply(geom.Pt(x, y))
	c.path.QuadTo(q.X, q.Y, p.X, p.Y)
}

func (c *Context) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	a := c.cur.m.Apply(geom.Pt(c1x, c1y))
	b := c.cur.m.Apply(geom.Pt(c2x, c2y))
	p := c.cur.m.Apply(geom.Pt(x, y))
	c.path.CubicTo(a.X, a.Y, b.X, b.Y, p.X, p.Y)
}

func (c *Context) ClosePath() { c.path.ClosePath() }

// AppendPath traces p through the current transform.
func (c *Context) AppendPath(p shape.Path) { p.Replay(c, geom.Identity()) }

// ClearPath discards the current path.
func (c *Context) ClearPath() { c.path.Path = nil }

// mask rasterizes the current path, intersected with the clip, and clears
// the path.
func (c *Context) mask() *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, c.w, c.h))
	z := vector.NewRasterizer(c.w, c.h)
	sink := rasterSink{z}
	c.path.Path.Replay(sink, geom.Identity())
	c.path.Path = nil
	var src image.Image = image.Opaque
	if c.cur.clip != nil {
		src = c.cur.clip
	}
	z.Draw(m, m.Bounds(), src, image.Point{})
	return m
}

// Clip intersects the clip with the current path and clears the path.
func (c *Context) Clip() { c.cur.clip = c.mask() }

// ResetClip removes the clip.
func (c *Context) ResetClip() { c.cur.clip = nil }

// Fill paints the current path with col and clears the path.
func (c *Context) Fill(col color.Color) {
	m := c.mask()
	draw.DrawMask(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{}, m, image.Point{}, draw.Over)
}

// Paint fills the whole clip region with col.
func (c *Context) Paint(col color.Color) {
	if c.cur.clip == nil {
		draw.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{}, draw.Over)
		return
	}
	draw.DrawMask(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{}, c.cur.clip, image.Point{}, draw.Over)
}

// ── Images ──

// DrawImage draws the src rectangle of img (relative to img's bounds
// origin) onto the dst rectangle in user space, through the current
// transform and clip.
func (c *Context) DrawImage(img image.Image, src, dst geom.Rect) {
	if src.Empty() || dst.Empty() {
		return
	}
	b := img.Bounds()
	ox, oy := src.X+float64(b.Min.X), src.Y+float64(b.Min.Y)
	m := c.cur.m.
		Mul(geom.Translate(dst.X, dst.Y)).
		Mul(geom.Scale(dst.W/src.W, dst.H/src.H)).
		Mul(geom.Translate(-ox, -oy))
	if m.Det() == 0 {
		return
	}
	sr := image.Rect(
		int(math.Floor(ox)), int(math.Floor(oy)),
		int(math.Ceil(ox+src.W)), int(math.Ceil(oy+src.H)),
	).Intersect(b)
	if sr.Empty() {
		return
	}
	var opts *draw.Options
	if c.cur.clip != nil {
		opts = &draw.Options{DstMask: c.cur.clip}
	}
	c.interp.Transform(c.dst, m.Aff3(), img, sr, draw.Over, opts)
}

// ── Text ──

// DrawString draws s with its baseline at device-space y, anchored
// horizontally at x by ax (0 = left, 0.5 = centre, 1 = right). Only the
// translation of the current transform applies; rotated or scaled text is
// drawn to its own context and placed with DrawImage.
func (c *Context) DrawString(face font.Face, s string, x, y, ax float64, col color.Color) {
	p := c.cur.m.Apply(geom.Pt(x, y))
	w := fonts.Float(font.MeasureString(face, s))
	d := &font.Drawer{
		Dst:  c.dst,
		Src:  image.NewUniform(col),
		Face: face,
	}
	d.Dot.X = fonts.Fixed(p.X - w*ax)
	d.Dot.Y = fonts.Fixed(p.Y)
	if c.cur.clip == nil {
		d.DrawString(s)
		return
	}
	// Draw into a scratch layer and composite it through the clip.
	layer := image.NewRGBA(c.dst.Bounds())
	d.Dst = layer
	d.DrawString(s)
	draw.DrawMask(c.dst, c.dst.Bounds(), layer, image.Point{}, c.cur.clip, image.Point{}, draw.Over)
}

// rasterSink feeds a path to a vector.Rasterizer.
type rasterSink struct{ z *vector.Rasterizer }

func (s rasterSink) MoveTo(x, y float64) { s.z.MoveTo(float32(x), float32(y)) }
func (s rasterSink) LineTo(x, y float64) { s.z.LineTo(float32(x), float32(y)) }
func (s rasterSink) QuadTo(cx, cy, x, y float64) {
	s.z.QuadTo(float32(cx), float32(cy), float32(x), float32(y))
}
func (s rasterSink) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	s.z.CubeTo(float32(c1x), float32(c1y), float32(c2x), float32(c2y), float32(x), float32(y))
}
func (s rasterSink) ClosePath() { s.z.ClosePath() }

var _ shape.PathSink = (*Context)(nil)
