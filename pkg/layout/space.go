// space.go - Canvas and preview coordinate spaces.
package layout

import "github.com/xob0t/CardStencil/pkg/geom"

// Space describes the export canvas and the editor preview it is authored in.
type Space struct {
	CanvasWidth  float64
	CanvasHeight float64
	PreviewWidth float64
}

// DefaultSpace is the 1080x1920 story canvas edited at 320 preview units.
var DefaultSpace = Space{CanvasWidth: 1080, CanvasHeight: 1920, PreviewWidth: 320}

// Sizes in preview units. Multiply by Factor for canvas units.
const (
	FreePhotoBox   = 200 // edge of a free-placement photo
	StickerBox     = 110 // edge of a sticker
	TextFontSize   = 16
	TextMaxWidth   = 280 // including padding
	TextPadding    = 8
	TextShadowY    = 2
	LegacySidePad  = 16
	LegacyBottom   = 28
	LegacyMaxLines = 3
	LineHeightMul  = 1.25
)

// Factor is canvas units per preview unit.
func (s Space) Factor() float64 {
	if s.PreviewWidth <= 0 {
		return 1
	}
	return s.CanvasWidth / s.PreviewWidth
}

// Center is the canvas centre, the anchor of free elements.
func (s Space) Center() geom.Point {
	return geom.Pt(s.CanvasWidth/2, s.CanvasHeight/2)
}

// Canvas returns the full canvas rectangle.
func (s Space) Canvas() geom.Rect {
	return geom.Rect{W: s.CanvasWidth, H: s.CanvasHeight}
}

// Canvasize converts a length in preview units to canvas units.
func (s Space) Canvasize(previewUnits float64) float64 {
	return previewUnits * s.Factor()
}
