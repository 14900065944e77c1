// Package card is the in-memory model of a greeting card: photos bound to
// template frames, stickers, text layers and the legacy single-photo fields
// older cards were saved with.
//
// Offsets are stored in two unit systems. Photo offsets are preview units
// (the editor's 320-wide working view), sticker and text offsets are canvas
// units (1080x1920). Every entity reports its Unit and converts through
// Unit.ToCanvas; renderers never multiply by the factor themselves.
package card

import (
	"regexp"
	"sort"

	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
)

// Limits and defaults of the card model.
const (
	MaxPhotos        = 5
	MaxTextLayers    = 5
	MaxMessageLen    = 120
	MaxTemplateIDLen = 50

	PrimaryTextID    = "msg_main"
	DefaultMessage   = "Happy Valentine's Day!"
	DefaultTextColor = "#FF3B8E"
)

// Unit tags the coordinate system an offset is stored in.
type Unit int

const (
	// UnitCanvas is the 1080x1920 export canvas.
	UnitCanvas Unit = iota
	// UnitPreview is the editor preview, PreviewWidth units across.
	UnitPreview
)

func (u Unit) String() string {
	if u == UnitPreview {
		return "preview"
	}
	return "canvas"
}

// ToCanvas converts an offset in unit u to canvas units. factor is
// canvasWidth/previewWidth.
func (u Unit) ToCanvas(p geom.Point, factor float64) geom.Point {
	if u == UnitPreview {
		return p.Mul(factor)
	}
	return p
}

// FromCanvas is the inverse of ToCanvas.
func (u Unit) FromCanvas(p geom.Point, factor float64) geom.Point {
	if u == UnitPreview && factor != 0 {
		return p.Mul(1 / factor)
	}
	return p
}

// Kind identifies the element type a transform belongs to.
type Kind int

const (
	KindPhoto Kind = iota
	KindSticker
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindSticker:
		return "sticker"
	default:
		return "text"
	}
}

// Unit returns the unit system offsets of this kind are stored in.
func (k Kind) Unit() Unit {
	if k == KindPhoto {
		return UnitPreview
	}
	return UnitCanvas
}

// Transform is the user-editable placement of an element: offset from the
// anchor (frame centre or canvas centre), uniform scale and rotation in
// degrees.
type Transform struct {
	X, Y   float64
	Scale  float64
	Rotate float64
}

// Identity is the untouched placement.
var Identity = Transform{Scale: 1}

// Offset returns the offset as a point.
func (t Transform) Offset() geom.Point { return geom.Pt(t.X, t.Y) }

// WithOffset returns t moved to p.
func (t Transform) WithOffset(p geom.Point) Transform {
	t.X, t.Y = p.X, p.Y
	return t
}

// PhotoElement is a photo bound to frame FrameIndex (or, on frameless
// templates, its stacking ordinal). Offsets are preview units.
type PhotoElement struct {
	FrameIndex int
	URL        string
	Transform
	Shape shape.Shape
	Fit   fit.Mode
}

// Unit of photo offsets.
func (PhotoElement) Unit() Unit { return KindPhoto.Unit() }

// CanvasOffset returns the offset in canvas units.
func (p PhotoElement) CanvasOffset(factor float64) geom.Point {
	return p.Unit().ToCanvas(p.Offset(), factor)
}

// Resolved reports whether the photo points at an uploaded remote image.
// Local blob references are not exportable yet.
func (p PhotoElement) Resolved() bool { return IsRemoteURL(p.URL) }

var remoteURL = regexp.MustCompile(`(?i)^https?://`)

// IsRemoteURL reports whether s is an http(s) URL.
func IsRemoteURL(s string) bool { return remoteURL.MatchString(s) }

// StickerLayer is a decorative image. Offsets are canvas units.
type StickerLayer struct {
	ID        string
	StickerID string
	Src       string
	Transform
	Z int
}

// Unit of sticker offsets.
func (StickerLayer) Unit() Unit { return KindSticker.Unit() }

// CanvasOffset returns the offset in canvas units.
func (s StickerLayer) CanvasOffset(factor float64) geom.Point {
	return s.Unit().ToCanvas(s.Offset(), factor)
}

// TextStyle is a named font treatment.
type TextStyle string

const (
	StyleHandwritten TextStyle = "handwritten"
	StyleCursive     TextStyle = "cursive"
	StyleModern      TextStyle = "modern"
	StyleClassic     TextStyle = "classic"
	StyleElegant     TextStyle = "elegant"
)

// ParseTextStyle maps an untrusted name to a style, defaulting to modern.
func ParseTextStyle(s string) TextStyle {
	switch TextStyle(s) {
	case StyleHandwritten, StyleCursive, StyleModern, StyleClassic, StyleElegant:
		return TextStyle(s)
	}
	return StyleModern
}

// TextLayer is a free-floating text block. Offsets are canvas units.
type TextLayer struct {
	ID      string
	Content string
	Color   string
	Style   TextStyle
	Transform
	Z int
}

// Unit of text offsets.
func (TextLayer) Unit() Unit { return KindText.Unit() }

// CanvasOffset returns the offset in canvas units.
func (t TextLayer) CanvasOffset(factor float64) geom.Point {
	return t.Unit().ToCanvas(t.Offset(), factor)
}

// LegacyPhoto holds the single-photo fields of cards saved before
// multi-frame support. Offsets are preview units.
type LegacyPhoto struct {
	URL string
	Transform
	Shape shape.Shape
}

// Card is the whole composition.
type Card struct {
	TemplateID string
	Message    string
	TextColor  string
	TextStyle  TextStyle
	Photos     []PhotoElement // ascending FrameIndex
	Stickers   []StickerLayer
	TextLayers []TextLayer
	Reveal     string
	Legacy     *LegacyPhoto
}

// PhotoForFrame returns the photo bound to frame i. When no photo claims
// frame 0, the legacy single-photo fields are projected onto it with fit
// cover.
func (c *Card) PhotoForFrame(i int) (PhotoElement, bool) {
	for _, p := range c.Photos {
		if p.FrameIndex == i {
			return p, true
		}
	}
	if i == 0 && c.Legacy != nil && c.Legacy.URL != "" {
		l := c.Legacy
		t := l.Transform
		if !(t.Scale > 0) {
			t.Scale = 1
		}
		s := l.Shape
		if !s.Valid() {
			s = shape.Default
		}
		return PhotoElement{FrameIndex: 0, URL: l.URL, Transform: t, Shape: s, Fit: fit.Cover}, true
	}
	return PhotoElement{}, false
}

// FreePhotos returns the photos of a frameless layout in paint order
// (ascending FrameIndex). A legacy-only card yields its projected photo.
func (c *Card) FreePhotos() []PhotoElement {
	if len(c.Photos) == 0 {
		if p, ok := c.PhotoForFrame(0); ok {
			return []PhotoElement{p}
		}
		return nil
	}
	out := append([]PhotoElement(nil), c.Photos...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FrameIndex < out[j].FrameIndex })
	return out
}

// SortedStickers returns stickers by ascending z, ties in insertion order.
func (c *Card) SortedStickers() []StickerLayer {
	out := append([]StickerLayer(nil), c.Stickers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// SortedTextLayers returns text layers by ascending z, ties in insertion order.
func (c *Card) SortedTextLayers() []TextLayer {
	out := append([]TextLayer(nil), c.TextLayers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// ShowsLegacyMessage reports whether renderers draw the bottom message band.
func (c *Card) ShowsLegacyMessage() bool {
	return len(c.TextLayers) == 0 && c.Message != ""
}
