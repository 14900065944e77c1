// text.go - Word wrapping shared by both renderers.
package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/xob0t/CardStencil/pkg/card"
)

// Font selects a face: a text style and whether it is set bold.
type Font struct {
	Style card.TextStyle
	Bold  bool
}

// Measurer reports the advance width of a string in canvas pixels for the
// given font and size. pkg/fonts provides the real implementation.
type Measurer interface {
	MeasureString(s string, f Font, size float64) float64
}

// approxMeasurer estimates widths when no font is available.
type approxMeasurer struct{}

func (approxMeasurer) MeasureString(s string, _ Font, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.55
}

// WrapLegacy wraps the bottom message band: words are split on single
// spaces, lines fill greedily up to maxWidth and only the first maxLines
// lines are kept. Extra words are dropped without an ellipsis.
func WrapLegacy(msg string, maxWidth float64, maxLines int, measure func(string) float64) []string {
	var lines []string
	line := ""
	for _, w := range strings.Split(msg, " ") {
		test := w
		if line != "" {
			test = line + " " + w
		}
		if measure(test) <= maxWidth {
			line = test
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = w
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

// Wrap breaks text into lines no wider than maxWidth. Paragraphs split on
// newlines, runs of whitespace collapse, and a word wider than the line is
// broken between runes.
func Wrap(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := ""
		for _, w := range words {
			test := w
			if line != "" {
				test = line + " " + w
			}
			if measure(test) <= maxWidth {
				line = test
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			// Break overlong words.
			for measure(w) > maxWidth && utf8.RuneCountInString(w) > 1 {
				head := fitPrefix(w, maxWidth, measure)
				lines = append(lines, head)
				w = w[len(head):]
			}
			line = w
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// fitPrefix returns the longest prefix of w (at least one rune) that fits.
func fitPrefix(w string, maxWidth float64, measure func(string) float64) string {
	_, end := utf8.DecodeRuneInString(w)
	for i := range w {
		if i <= end {
			continue
		}
		if measure(w[:i]) > maxWidth {
			break
		}
		end = i
	}
	return w[:end]
}
