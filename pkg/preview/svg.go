// Package preview renders a layout scene as an SVG document. It is the
// retained-mode twin of the raster export: both read the same scene, so a
// card looks the same in the editor, the viewer and the exported PNG.
package preview

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/layout"
	"github.com/xob0t/CardStencil/pkg/template"
)

// Options control the SVG output.
type Options struct {
	Width        float64 // display width in px, 0 = Space.PreviewWidth
	ShowOutlines bool    // outline frames that have no photo
	ClassPrefix  string  // prefix for class names and clip ids
}

// DefaultOptions is the editor preview: 320 px wide with frame outlines.
var DefaultOptions = Options{ShowOutlines: true, ClassPrefix: "cs-"}

// ── Styling ──

// families are the CSS fallbacks behind the font-<style> classes.
var families = map[card.TextStyle]string{
	card.StyleHandwritten: "'Caveat', 'Segoe Print', cursive",
	card.StyleCursive:     "'Dancing Script', 'Brush Script MT', cursive",
	card.StyleModern:      "'Inter', 'Helvetica Neue', Arial, sans-serif",
	card.StyleClassic:     "'Playfair Display', Georgia, serif",
	card.StyleElegant:     "'Cormorant Garamond', 'Times New Roman', serif",
}

const (
	shadowFill   = "rgba(0,0,0,0.6)"
	outlineColor = "rgba(255,255,255,0.85)"
)

// ── Writer ──

// svgWriter keeps the first write error so the render code stays linear.
type svgWriter struct {
	w   *bufio.Writer
	err error
}

func (s *svgWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *svgWriter) text(v string) {
	if s.err != nil {
		return
	}
	s.err = xml.EscapeText(s.w, []byte(v))
}

func (s *svgWriter) flush() error {
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

// attr escapes v for use inside a double-quoted attribute.
func attr(v string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(v))
	return b.String()
}

func num(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ── Render ──

// Render writes sc to w as a standalone SVG document.
func Render(w io.Writer, sc *layout.Scene, opts Options) error {
	sp := sc.Space
	width := opts.Width
	if !(width > 0) {
		width = sp.PreviewWidth
	}
	height := width * sp.CanvasHeight / sp.CanvasWidth

	r := renderer{
		out:  &svgWriter{w: bufio.NewWriter(w)},
		sc:   sc,
		opts: opts,
	}
	r.out.printf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s" class="%s">`,
		num(width), num(height), num(sp.CanvasWidth), num(sp.CanvasHeight), r.class("card"))
	r.defs()
	r.background()
	for i, n := range sc.Photos {
		r.photo(i, n)
	}
	if opts.ShowOutlines {
		for _, f := range sc.EmptyFrames {
			r.emptyFrame(f)
		}
	}
	for _, n := range sc.Stickers {
		r.sticker(n)
	}
	for _, n := range sc.Texts {
		r.textNode(n)
	}
	if sc.Legacy != nil {
		r.legacy(sc.Legacy)
	}
	r.out.printf("</svg>\n")
	return r.out.flush()
}

// String renders sc and returns the document.
func String(sc *layout.Scene, opts Options) (string, error) {
	var b strings.Builder
	if err := Render(&b, sc, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

type renderer struct {
	out  *svgWriter
	sc   *layout.Scene
	opts Options
}

func (r *renderer) class(name string) string { return attr(r.opts.ClassPrefix + name) }

func (r *renderer) clipID(kind string, i int) string {
	return fmt.Sprintf("%sclip-%s-%d", r.opts.ClassPrefix, kind, i)
}

// defs emits one clipPath per photo. Pre-clips are in canvas space; shape
// clips are in the photo's stepped space and are referenced from inside it.
func (r *renderer) defs() {
	r.out.printf("<defs>")
	for i, n := range r.sc.Photos {
		if n.PreClip != nil {
			r.out.printf(`<clipPath id="%s"><path d="%s"/></clipPath>`, attr(r.clipID("frame", i)), n.PreClip.SVG())
		}
		if n.Clip != nil {
			r.out.printf(`<clipPath id="%s"><path d="%s"/></clipPath>`, attr(r.clipID("shape", i)), n.Clip.SVG())
		}
	}
	r.out.printf("</defs>")
}

func (r *renderer) background() {
	bg := r.sc.Background
	fill := bg.Color
	if fill == "" {
		fill = template.DefaultBackgroundColor
	}
	r.out.printf(`<rect class="%s" x="0" y="0" width="%s" height="%s" fill="%s"/>`,
		r.class("background"), num(bg.Box.W), num(bg.Box.H), attr(fill))
	if bg.Src != "" {
		r.out.printf(`<image href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="%s"/>`,
			attr(bg.Src), num(bg.Box.X), num(bg.Box.Y), num(bg.Box.W), num(bg.Box.H), fit.Cover.PreserveAspectRatio())
	}
}

func (r *renderer) photo(i int, n layout.PhotoNode) {
	r.out.printf(`<g class="%s" data-frame="%d">`, r.class("photo"), n.Index)
	if n.PreClip != nil {
		r.out.printf(`<g clip-path="url(#%s)">`, attr(r.clipID("frame", i)))
	}
	r.out.printf(`<g transform="%s">`, n.Steps.SVG())
	if n.Clip != nil {
		r.out.printf(`<g clip-path="url(#%s)">`, attr(r.clipID("shape", i)))
	}
	sx, sy := n.FitScale()
	r.out.printf(`<g transform="translate(%s %s) scale(%s %s)">`, num(n.Box.X), num(n.Box.Y), num(sx), num(sy))
	r.out.printf(`<image href="%s" x="0" y="0" width="%s" height="%s" preserveAspectRatio="%s"/>`,
		attr(n.Photo.URL), num(n.FitSize.W), num(n.FitSize.H), fit.Parse(string(n.Photo.Fit)).PreserveAspectRatio())
	r.out.printf("</g>")
	if n.Clip != nil {
		r.out.printf("</g>")
	}
	r.out.printf("</g>")
	if n.PreClip != nil {
		r.out.printf("</g>")
	}
	r.out.printf("</g>")
}

func (r *renderer) emptyFrame(f layout.EmptyFrame) {
	r.out.printf(`<path class="%s" data-frame="%d" d="%s" fill="none" stroke="%s" stroke-width="4" stroke-dasharray="12 10"/>`,
		r.class("frame-empty"), f.Index, f.Outline.SVG(), outlineColor)
}

func (r *renderer) sticker(n layout.StickerNode) {
	r.out.printf(`<g class="%s" data-id="%s" transform="%s">`, r.class("sticker"), attr(n.Layer.ID), n.Steps.SVG())
	r.out.printf(`<image href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="%s"/>`,
		attr(n.Layer.Src), num(n.Box.X), num(n.Box.Y), num(n.Box.W), num(n.Box.H), fit.Contain.PreserveAspectRatio())
	r.out.printf("</g>")
}

func (r *renderer) fontAttrs(f layout.Font, size float64) string {
	weight := "400"
	if f.Bold {
		weight = "700"
	}
	return fmt.Sprintf(`class="%s" font-family="%s" font-size="%s" font-weight="%s" text-anchor="middle"`,
		r.class("font-"+string(f.Style)), attr(families[f.Style]), num(size), weight)
}

func (r *renderer) textNode(n layout.TextNode) {
	col := n.Layer.Color
	if col == "" {
		col = layout.DefaultTextColor
	}
	r.out.printf(`<g class="%s" data-id="%s" transform="%s">`, r.class("text"), attr(n.Layer.ID), n.Steps.SVG())
	font := r.fontAttrs(n.Font, n.FontSize)
	cx := n.Box.W / 2
	for i, line := range n.Lines {
		y := n.Baseline(i)
		r.out.printf(`<text %s x="%s" y="%s" fill="%s">`, font, num(cx), num(y+n.ShadowY), shadowFill)
		r.out.text(line)
		r.out.printf("</text>")
		r.out.printf(`<text %s x="%s" y="%s" fill="%s">`, font, num(cx), num(y), attr(col))
		r.out.text(line)
		r.out.printf("</text>")
	}
	r.out.printf("</g>")
}

func (r *renderer) legacy(m *layout.LegacyMessage) {
	r.out.printf(`<g class="%s">`, r.class("message"))
	font := r.fontAttrs(m.Font, m.FontSize)
	for i, line := range m.Lines {
		r.out.printf(`<text %s x="%s" y="%s" fill="%s">`, font, num(m.CenterX), num(m.Baseline(i)), attr(m.Color))
		r.out.text(line)
		r.out.printf("</text>")
	}
	r.out.printf("</g>")
}
