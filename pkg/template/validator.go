// validator.go - Sanity checks for catalog templates.
package template

import (
	"fmt"
	"strings"

	"github.com/xob0t/CardStencil/pkg/shape"
)

// Validate reports problems with a template. Returns warnings (never fatal
// errors): renderers skip what they cannot draw.
func Validate(t *Template) []string {
	var warnings []string
	if t.Background == "" {
		warnings = append(warnings, fmt.Sprintf("template %q has no background, %s is painted", t.ID, t.Fill()))
	}
	if t.DefaultShape != "" {
		if _, ok := shape.Parse(t.DefaultShape); !ok {
			warnings = append(warnings, fmt.Sprintf("template %q: unknown default shape %q, using %s", t.ID, t.DefaultShape, shape.Default))
		}
	}
	if len(t.FrameRotations) > len(t.Frames) {
		warnings = append(warnings, fmt.Sprintf("template %q: %d rotation hints for %d frames, extras ignored",
			t.ID, len(t.FrameRotations), len(t.Frames)))
	}
	for i, f := range t.Frames {
		if f.Rect().Empty() {
			warnings = append(warnings, fmt.Sprintf("template %q frame %d has no area and is skipped", t.ID, i))
		}
		switch f.Kind {
		case FramePath, FrameRect:
		default:
			warnings = append(warnings, fmt.Sprintf("template %q frame %d: unknown kind %q, drawn as path", t.ID, i, f.Kind))
		}
		if f.Kind == FrameRect && f.Radius > 0 && shape.ClampRadius(f.W, f.H, f.Radius) < f.Radius {
			warnings = append(warnings, fmt.Sprintf("template %q frame %d: radius %g clamped", t.ID, i, f.Radius))
		}
		if f.D != "" {
			if _, err := shape.ParsePathData(f.D); err != nil {
				warnings = append(warnings, fmt.Sprintf("template %q frame %d: legacy outline ignored: %v", t.ID, i, err))
			}
		}
	}
	return warnings
}

// FormatCatalog returns a human-readable listing of the registry.
func FormatCatalog(r *Registry) string {
	var b strings.Builder
	b.WriteString("Templates:\n")
	for _, t := range r.List() {
		layout := fmt.Sprintf("%d frame(s)", len(t.Frames))
		if t.FreePlacement() {
			layout = "free placement"
		}
		fmt.Fprintf(&b, "  %-4s %-22s %-16s shape=%s\n", t.ID, t.Name, layout, t.Shape())
		for i, f := range t.Frames {
			fmt.Fprintf(&b, "       [%d] %-4s x=%g y=%g w=%g h=%g rot=%g\n", i, f.Kind, f.X, f.Y, f.W, f.H, t.FrameRotation(i))
		}
	}
	b.WriteString("\nStickers:\n")
	for _, s := range r.Stickers() {
		fmt.Fprintf(&b, "  %-16s %s\n", s.ID, s.Src)
	}
	return b.String()
}
