// sanitize.go - Default or drop values that cannot be drawn.
package card

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
)

// Sanitize repairs c in place so every renderer can draw it: non-finite
// numbers become 0, non-positive scales become 1, unknown shapes and fits
// fall back to their defaults, photos are ordered by frame index with
// duplicates dropped. It returns one warning per change.
func Sanitize(c *Card) []string {
	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if n := utf8.RuneCountInString(c.TemplateID); n > MaxTemplateIDLen {
		c.TemplateID = truncateRunes(c.TemplateID, MaxTemplateIDLen)
		warnf("template id truncated from %d to %d characters", n, MaxTemplateIDLen)
	}
	c.Message = norm.NFC.String(c.Message)
	if n := utf8.RuneCountInString(c.Message); n > MaxMessageLen {
		c.Message = truncateRunes(c.Message, MaxMessageLen)
		warnf("message truncated from %d to %d characters", n, MaxMessageLen)
	}
	if c.TextStyle != "" && ParseTextStyle(string(c.TextStyle)) != c.TextStyle {
		warnf("unknown text style %q, using %s", c.TextStyle, StyleModern)
		c.TextStyle = StyleModern
	}

	if l := c.Legacy; l != nil {
		sanitizeTransform(&l.Transform, "legacy photo", warnf)
	}

	// Photos: ordered by frame index, first claim of an index wins.
	sort.SliceStable(c.Photos, func(i, j int) bool { return c.Photos[i].FrameIndex < c.Photos[j].FrameIndex })
	kept := c.Photos[:0]
	seen := make(map[int]bool, len(c.Photos))
	for _, p := range c.Photos {
		if p.FrameIndex < 0 {
			warnf("photo with negative frame index %d dropped", p.FrameIndex)
			continue
		}
		if seen[p.FrameIndex] {
			warnf("duplicate photo for frame %d dropped", p.FrameIndex)
			continue
		}
		seen[p.FrameIndex] = true

		label := fmt.Sprintf("photo %d", p.FrameIndex)
		sanitizeTransform(&p.Transform, label, warnf)
		if !p.Shape.Valid() {
			if p.Shape != "" {
				warnf("%s: unknown shape %q, using %s", label, p.Shape, shape.Default)
			}
			p.Shape = shape.Default
		}
		if p.Fit != fit.Cover && p.Fit != fit.Contain {
			if p.Fit != "" {
				warnf("%s: unknown fit %q, using cover", label, p.Fit)
			}
			p.Fit = fit.Cover
		}
		kept = append(kept, p)
	}
	c.Photos = kept

	for i := range c.Stickers {
		s := &c.Stickers[i]
		sanitizeTransform(&s.Transform, "sticker "+s.ID, warnf)
	}

	if len(c.TextLayers) > MaxTextLayers {
		warnf("%d text layers, keeping the first %d", len(c.TextLayers), MaxTextLayers)
		c.TextLayers = c.TextLayers[:MaxTextLayers]
	}
	for i := range c.TextLayers {
		t := &c.TextLayers[i]
		t.Content = norm.NFC.String(t.Content)
		sanitizeTransform(&t.Transform, "text "+t.ID, warnf)
		if ParseTextStyle(string(t.Style)) != t.Style {
			if t.Style != "" {
				warnf("text %s: unknown style %q, using %s", t.ID, t.Style, StyleModern)
			}
			t.Style = StyleModern
		}
	}
	return warnings
}

func sanitizeTransform(t *Transform, label string, warnf func(string, ...any)) {
	if !geom.Finite(t.X) || !geom.Finite(t.Y) {
		warnf("%s: non-finite offset reset", label)
		if !geom.Finite(t.X) {
			t.X = 0
		}
		if !geom.Finite(t.Y) {
			t.Y = 0
		}
	}
	if !geom.Finite(t.Rotate) {
		warnf("%s: non-finite rotation reset", label)
		t.Rotate = 0
	}
	t.Rotate = geom.NormalizeDegrees(t.Rotate)
	if !(t.Scale > 0) || !geom.Finite(t.Scale) {
		if t.Scale != 0 {
			warnf("%s: invalid scale %v, using 1", label, t.Scale)
		}
		t.Scale = 1
	}
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
