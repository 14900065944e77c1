// Package template is the catalog of card backgrounds, photo frames and
// stickers. Built-in entries are compiled in; YAML catalogs and .cardpack
// bundles can add or override them.
package template

import (
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
)

// ── Template types ──

// Template describes one card background and its photo frames.
// Frame coordinates are canvas pixels (1080x1920).
type Template struct {
	ID              string    `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Background      string    `yaml:"background" json:"background"`           // image URL or path
	BackgroundColor string    `yaml:"backgroundColor" json:"backgroundColor"` // hex fallback
	Frames          []Frame   `yaml:"frames" json:"frames"`                   // empty = free placement
	DefaultShape    string    `yaml:"defaultShape" json:"defaultShape"`       // shape id, "" = heart
	FrameRotations  []float64 `yaml:"frameRotations" json:"frameRotations"`   // degrees, per frame
}

// FrameKind tells how a frame clips its photo.
type FrameKind string

const (
	// FramePath clips by the photo's shape in the frame's 100-unit box.
	FramePath FrameKind = "path"
	// FrameRect clips by a rounded rectangle in canvas space.
	FrameRect FrameKind = "rect"
)

// Frame is a photo slot on a template.
type Frame struct {
	Kind   FrameKind `yaml:"kind" json:"kind"`
	X      float64   `yaml:"x" json:"x"`
	Y      float64   `yaml:"y" json:"y"`
	W      float64   `yaml:"w" json:"w"`
	H      float64   `yaml:"h" json:"h"`
	Radius float64   `yaml:"r,omitempty" json:"r,omitempty"` // rect corner radius
	D      string    `yaml:"d,omitempty" json:"d,omitempty"` // legacy outline, validated only
}

// Rect returns the frame box.
func (f Frame) Rect() geom.Rect { return geom.Rect{X: f.X, Y: f.Y, W: f.W, H: f.H} }

// Sticker is a catalog entry for a decorative image.
type Sticker struct {
	ID    string `yaml:"id" json:"id"`
	Src   string `yaml:"src" json:"src"`
	Label string `yaml:"label" json:"label"`
}

// Catalog is the on-disk form of a template catalog.
type Catalog struct {
	Templates []Template `yaml:"templates" json:"templates"`
	Stickers  []Sticker  `yaml:"stickers" json:"stickers"`
}

// DefaultBackgroundColor is painted when a template has no usable background.
const DefaultBackgroundColor = "#111111"

// Shape returns the template's default photo shape.
func (t *Template) Shape() shape.Shape {
	if s, ok := shape.Parse(t.DefaultShape); ok {
		return s
	}
	return shape.Default
}

// FrameRotation returns the rotation hint for frame i, or 0.
func (t *Template) FrameRotation(i int) float64 {
	if i < 0 || i >= len(t.FrameRotations) {
		return 0
	}
	return t.FrameRotations[i]
}

// FreePlacement reports whether photos float on the canvas instead of
// sitting in frames.
func (t *Template) FreePlacement() bool { return len(t.Frames) == 0 }

// Fill returns the background colour to paint under (or instead of) the
// background image.
func (t *Template) Fill() string {
	if t.BackgroundColor != "" {
		return t.BackgroundColor
	}
	return DefaultBackgroundColor
}
