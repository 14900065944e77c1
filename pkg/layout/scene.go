// scene.go - Compose a card into renderer-neutral nodes.
package layout

import (
	"fmt"
	"math"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
	"github.com/xob0t/CardStencil/pkg/template"
)

// Background is the bottom layer: an image cover-fitted to the canvas over a
// solid fill.
type Background struct {
	Src   string
	Color string
	Box   geom.Rect
}

// PhotoNode places one photo. A renderer applies PreClip (canvas space) if
// present, then Steps, then clips by Clip (in the stepped space) if present,
// and finally draws the image into Box per Fit.
type PhotoNode struct {
	Index    int
	Photo    card.PhotoElement
	PreClip  shape.Path
	Steps    Steps
	Clip     shape.Path
	Box      geom.Rect // local draw box
	FitSize  geom.Size // box the fit is computed against
	Resolved bool      // remote URL, exportable
}

// DrawRects returns the source rectangle and the destination rectangle in
// Box coordinates for a sw x sh image.
//
// Fit is computed against FitSize and then mapped into Box. For path frames
// FitSize is the real frame size while Box is the 100-unit box, so letterbox
// bars come out with the same proportions as on the frame itself.
func (n PhotoNode) DrawRects(sw, sh float64) (src, dst geom.Rect) {
	src, dst = fit.Rects(n.Photo.Fit, sw, sh, n.FitSize.W, n.FitSize.H)
	if src.Empty() || dst.Empty() || n.FitSize.Empty() {
		return geom.Rect{}, geom.Rect{}
	}
	kx, ky := n.Box.W/n.FitSize.W, n.Box.H/n.FitSize.H
	dst = geom.Rect{X: n.Box.X + dst.X*kx, Y: n.Box.Y + dst.Y*ky, W: dst.W * kx, H: dst.H * ky}
	return src, dst
}

// FitScale maps FitSize onto Box. Renderers that let the image element do
// its own fitting (SVG preserveAspectRatio) wrap the image in this scale.
func (n PhotoNode) FitScale() (sx, sy float64) {
	if n.FitSize.Empty() {
		return 1, 1
	}
	return n.Box.W / n.FitSize.W, n.Box.H / n.FitSize.H
}

// EmptyFrame is a frame with no photo. The interactive preview outlines it.
type EmptyFrame struct {
	Index   int
	Outline shape.Path // canvas space
}

// StickerNode places a sticker image, contain-fitted into Box.
type StickerNode struct {
	Layer card.StickerLayer
	Steps Steps
	Box   geom.Rect
}

// TextNode is a wrapped, centred text block. Lines are laid out top to bottom
// in the stepped space; line i is centred on Box.W/2 at Baseline(i).
type TextNode struct {
	Layer      card.TextLayer
	Steps      Steps
	Lines      []string
	Font       Font
	FontSize   float64
	LineHeight float64
	ShadowY    float64
	Box        geom.Rect
}

// Baseline returns the baseline y of line i in the node's local space.
func (t TextNode) Baseline(i int) float64 {
	return Padding(t.FontSize) + float64(i)*t.LineHeight + baselineInLine(t.FontSize, t.LineHeight)
}

// Padding is the vertical padding of a text block.
func Padding(fontSize float64) float64 { return fontSize / 2 }

// baselineInLine centres the em box in the line box with the baseline at 80%
// of the em.
func baselineInLine(size, lineHeight float64) float64 {
	return (lineHeight-size)/2 + size*0.8
}

// LegacyMessage is the bottom message band drawn when a card has no text
// layers.
type LegacyMessage struct {
	Lines      []string
	Font       Font
	Color      string
	FontSize   float64
	LineHeight float64
	CenterX    float64
	FirstY     float64 // baseline of the first line
}

// Baseline returns the canvas baseline y of line i.
func (m LegacyMessage) Baseline(i int) float64 { return m.FirstY + float64(i)*m.LineHeight }

// Scene is a card laid out on the canvas, in paint order.
type Scene struct {
	Space       Space
	Background  Background
	Photos      []PhotoNode
	EmptyFrames []EmptyFrame
	Stickers    []StickerNode
	Texts       []TextNode
	Legacy      *LegacyMessage
	Warnings    []string
}

// Options tune Compose.
type Options struct {
	Space    Space
	Measurer Measurer
}

// DefaultTextColor is used for the legacy band when the card names none.
const DefaultTextColor = "#ffffff"

// Compose lays out c on tpl. The card is expected to be sanitized.
func Compose(c *card.Card, tpl *template.Template, opts Options) *Scene {
	sp := opts.Space
	if sp.CanvasWidth <= 0 || sp.CanvasHeight <= 0 {
		sp = DefaultSpace
	}
	m := opts.Measurer
	if m == nil {
		m = approxMeasurer{}
	}

	sc := &Scene{
		Space:      sp,
		Background: Background{Src: tpl.Background, Color: tpl.Fill(), Box: sp.Canvas()},
	}

	if tpl.FreePlacement() {
		for _, p := range c.FreePhotos() {
			sc.Photos = append(sc.Photos, freePhoto(sp, p))
		}
	} else {
		for i, fr := range tpl.Frames {
			if fr.Rect().Empty() {
				sc.Warnings = append(sc.Warnings, fmt.Sprintf("frame %d of %s has no area, skipped", i, tpl.ID))
				continue
			}
			p, ok := c.PhotoForFrame(i)
			if !ok {
				sc.EmptyFrames = append(sc.EmptyFrames, EmptyFrame{Index: i, Outline: frameOutline(fr, tpl.Shape())})
				continue
			}
			if fr.Kind == template.FrameRect {
				sc.Photos = append(sc.Photos, rectPhoto(sp, i, fr, p))
			} else {
				sc.Photos = append(sc.Photos, pathPhoto(sp, i, fr, p))
			}
		}
	}

	box := sp.Canvasize(StickerBox)
	for _, s := range c.SortedStickers() {
		sc.Stickers = append(sc.Stickers, StickerNode{
			Layer: s,
			Steps: centered(sp, s.CanvasOffset(sp.Factor()), s.Transform, box, box),
			Box:   geom.Rect{W: box, H: box},
		})
	}

	for _, t := range c.SortedTextLayers() {
		if n, ok := textNode(sp, m, t); ok {
			sc.Texts = append(sc.Texts, n)
		}
	}

	if c.ShowsLegacyMessage() {
		sc.Legacy = legacyMessage(sp, m, c)
	}
	return sc
}

// pathPhoto composes a shape-clipped frame photo: translate to the frame,
// scale the 100-unit box to the frame, move to its centre, offset, rotate,
// scale, move back by half the box.
func pathPhoto(sp Space, i int, fr template.Frame, p card.PhotoElement) PhotoNode {
	off := p.CanvasOffset(sp.Factor())
	const half = shape.BoxSize / 2
	return PhotoNode{
		Index: i,
		Photo: p,
		Steps: Steps{
			Translate(fr.X, fr.Y),
			Scale(fr.W/shape.BoxSize, fr.H/shape.BoxSize),
			Translate(half, half),
			Translate(off.X*shape.BoxSize/fr.W, off.Y*shape.BoxSize/fr.H),
			Rotate(p.Rotate),
			Scale(p.Scale, p.Scale),
			Translate(-half, -half),
		},
		Clip:     outline(p.Shape),
		Box:      geom.Rect{W: shape.BoxSize, H: shape.BoxSize},
		FitSize:  geom.Size{W: fr.W, H: fr.H},
		Resolved: p.Resolved(),
	}
}

// rectPhoto composes a rounded-rect frame photo. The clip is fixed to the
// frame; the photo moves inside it.
func rectPhoto(sp Space, i int, fr template.Frame, p card.PhotoElement) PhotoNode {
	off := p.CanvasOffset(sp.Factor())
	c := fr.Rect().Center()
	return PhotoNode{
		Index:   i,
		Photo:   p,
		PreClip: shape.RoundedRect(fr.X, fr.Y, fr.W, fr.H, fr.Radius),
		Steps: Steps{
			Translate(c.X+off.X, c.Y+off.Y),
			Rotate(p.Rotate),
			Scale(p.Scale, p.Scale),
			Translate(-fr.W/2, -fr.H/2),
		},
		Box:      geom.Rect{W: fr.W, H: fr.H},
		FitSize:  geom.Size{W: fr.W, H: fr.H},
		Resolved: p.Resolved(),
	}
}

// freePhoto composes a photo on a frameless template, centred on the canvas
// and clipped by its shape at the default box size.
func freePhoto(sp Space, p card.PhotoElement) PhotoNode {
	b := sp.Canvasize(FreePhotoBox)
	return PhotoNode{
		Index:    p.FrameIndex,
		Photo:    p,
		Steps:    centered(sp, p.CanvasOffset(sp.Factor()), p.Transform, b, b),
		Clip:     outline(p.Shape).Transform(geom.Scale(b/shape.BoxSize, b/shape.BoxSize)),
		Box:      geom.Rect{W: b, H: b},
		FitSize:  geom.Size{W: b, H: b},
		Resolved: p.Resolved(),
	}
}

// centered places a w x h box centred on the canvas centre plus off.
func centered(sp Space, off geom.Point, t card.Transform, w, h float64) Steps {
	c := sp.Center().Add(off)
	return Steps{
		Translate(c.X, c.Y),
		Rotate(t.Rotate),
		Scale(t.Scale, t.Scale),
		Translate(-w/2, -h/2),
	}
}

// frameOutline is the canvas-space outline of an empty frame.
func frameOutline(fr template.Frame, s shape.Shape) shape.Path {
	if fr.Kind == template.FrameRect {
		return shape.RoundedRect(fr.X, fr.Y, fr.W, fr.H, fr.Radius)
	}
	m := geom.Translate(fr.X, fr.Y).Mul(geom.Scale(fr.W/shape.BoxSize, fr.H/shape.BoxSize))
	return outline(s).Transform(m)
}

// outline returns the 100-unit path of s, or of the default shape when s is
// not registered.
func outline(s shape.Shape) shape.Path {
	if !s.Valid() {
		s = shape.Default
	}
	return shape.Lookup(s).Path
}

func textNode(sp Space, m Measurer, t card.TextLayer) (TextNode, bool) {
	size := sp.Canvasize(TextFontSize)
	pad := sp.Canvasize(TextPadding)
	maxW := sp.Canvasize(TextMaxWidth) - 2*pad
	f := Font{Style: card.ParseTextStyle(string(t.Style)), Bold: true}
	measure := func(s string) float64 { return m.MeasureString(s, f, size) }

	lines := Wrap(t.Content, maxW, measure)
	if len(lines) == 0 {
		return TextNode{}, false
	}
	widest := 0.0
	for _, l := range lines {
		widest = math.Max(widest, measure(l))
	}
	lh := size * LineHeightMul
	w := math.Min(widest, maxW) + 2*pad
	h := float64(len(lines))*lh + 2*Padding(size)
	return TextNode{
		Layer:      t,
		Steps:      centered(sp, t.CanvasOffset(sp.Factor()), t.Transform, w, h),
		Lines:      lines,
		Font:       f,
		FontSize:   size,
		LineHeight: lh,
		ShadowY:    sp.Canvasize(TextShadowY),
		Box:        geom.Rect{W: w, H: h},
	}, true
}

func legacyMessage(sp Space, m Measurer, c *card.Card) *LegacyMessage {
	size := sp.Canvasize(TextFontSize)
	lh := size * LineHeightMul
	f := Font{Style: card.ParseTextStyle(string(c.TextStyle)), Bold: true}
	maxW := sp.CanvasWidth - 2*sp.Canvasize(LegacySidePad)
	lines := WrapLegacy(c.Message, maxW, LegacyMaxLines, func(s string) float64 {
		return m.MeasureString(s, f, size)
	})
	if len(lines) == 0 {
		return nil
	}
	color := c.TextColor
	if color == "" {
		color = DefaultTextColor
	}
	return &LegacyMessage{
		Lines:      lines,
		Font:       f,
		Color:      color,
		FontSize:   size,
		LineHeight: lh,
		CenterX:    sp.CanvasWidth / 2,
		FirstY:     sp.CanvasHeight - sp.Canvasize(LegacyBottom) - float64(len(lines)-1)*lh,
	}
}
