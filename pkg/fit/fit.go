// Package fit computes how a source image maps into a destination box.
//
// Cover fills the box and crops the overflow around the centre. Contain
// shows the whole image and letterboxes it inside the box.
package fit

import (
	"math"

	"github.com/xob0t/CardStencil/pkg/geom"
)

// Mode selects cover or contain placement.
type Mode string

const (
	Cover   Mode = "cover"
	Contain Mode = "contain"
)

// Parse maps an untrusted identifier to a Mode. Anything unknown is cover.
func Parse(s string) Mode {
	if Mode(s) == Contain {
		return Contain
	}
	return Cover
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Contain {
		return Cover
	}
	return Contain
}

// PreserveAspectRatio is the SVG attribute value for m.
func (m Mode) PreserveAspectRatio() string {
	if m == Contain {
		return "xMidYMid meet"
	}
	return "xMidYMid slice"
}

// MismatchThreshold is the aspect ratio mismatch above which a photo is
// shown whole instead of cropped.
const MismatchThreshold = 1.35

// CoverCrop returns the centred source rectangle whose aspect ratio equals
// the destination's. Degenerate inputs give a zero rectangle.
func CoverCrop(sw, sh, dw, dh float64) geom.Rect {
	if !positive(sw, sh, dw, dh) {
		return geom.Rect{}
	}
	sr, dr := sw/sh, dw/dh
	if sr > dr {
		w := sh * dr
		return geom.Rect{X: (sw - w) / 2, Y: 0, W: w, H: sh}
	}
	h := sw / dr
	return geom.Rect{X: 0, Y: (sh - h) / 2, W: sw, H: h}
}

// ContainDest returns the centred destination rectangle, relative to the
// box origin, that shows the whole source at its aspect ratio.
func ContainDest(sw, sh, dw, dh float64) geom.Rect {
	if !positive(sw, sh, dw, dh) {
		return geom.Rect{}
	}
	k := math.Min(dw/sw, dh/sh)
	w, h := sw*k, sh*k
	return geom.Rect{X: (dw - w) / 2, Y: (dh - h) / 2, W: w, H: h}
}

// ChooseFit picks contain when the source and frame aspect ratios differ by
// more than MismatchThreshold, cover otherwise.
func ChooseFit(sw, sh, fw, fh float64) Mode {
	if !positive(sw, sh, fw, fh) {
		return Cover
	}
	ir, fr := sw/sh, fw/fh
	if math.Max(ir/fr, fr/ir) > MismatchThreshold {
		return Contain
	}
	return Cover
}

// InitialScale is the starting user scale for a freshly placed photo.
func InitialScale(m Mode) float64 {
	if m == Contain {
		return 0.85
	}
	return 1
}

// ToggleScale adjusts scale when the user switches to mode m so the photo
// stays visually sensible: contain caps at 0.95, cover floors at 1.
func ToggleScale(m Mode, scale float64) float64 {
	if m == Contain {
		return math.Min(scale, 0.95)
	}
	return math.Max(scale, 1)
}

// Rects returns the source and destination rectangles for drawing a sw x sh
// image into a dw x dh box under mode m. Destination coordinates are
// relative to the box origin.
func Rects(m Mode, sw, sh, dw, dh float64) (src, dst geom.Rect) {
	if m == Contain {
		return geom.Rect{W: sw, H: sh}, ContainDest(sw, sh, dw, dh)
	}
	return CoverCrop(sw, sh, dw, dh), geom.Rect{W: dw, H: dh}
}

func positive(vs ...float64) bool {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
