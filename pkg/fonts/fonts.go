// fonts.go - Font management with custom TTF support and embedded Go fonts.
// Uses golang.org/x/image/font for OpenType rendering. Every text style maps
// to one of the Go font family faces unless a custom TTF is registered.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/layout"
	"github.com/xob0t/CardStencil/pkg/logging"
)

// builtin maps every style and weight to an embedded TTF.
var builtin = map[layout.Font][]byte{
	{Style: card.StyleHandwritten}:             goitalic.TTF,
	{Style: card.StyleHandwritten, Bold: true}: gobolditalic.TTF,
	{Style: card.StyleCursive}:                 gomediumitalic.TTF,
	{Style: card.StyleCursive, Bold: true}:     gobolditalic.TTF,
	{Style: card.StyleModern}:                  goregular.TTF,
	{Style: card.StyleModern, Bold: true}:      gobold.TTF,
	{Style: card.StyleClassic}:                 gosmallcaps.TTF,
	{Style: card.StyleClassic, Bold: true}:     gobold.TTF,
	{Style: card.StyleElegant}:                 gosmallcapsitalic.TTF,
	{Style: card.StyleElegant, Bold: true}:     gobolditalic.TTF,
}

type faceKey struct {
	font layout.Font
	size float64
}

// Manager parses fonts once and hands out faces. Measuring is safe for
// concurrent use; faces returned by NewFace belong to the caller.
type Manager struct {
	mu     sync.Mutex
	parsed map[layout.Font]*opentype.Font
	faces  map[faceKey]font.Face
}

// NewManager parses the embedded fonts.
func NewManager() (*Manager, error) {
	m := &Manager{
		parsed: make(map[layout.Font]*opentype.Font, len(builtin)),
		faces:  make(map[faceKey]font.Face),
	}
	for f, data := range builtin {
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", describe(f), err)
		}
		m.parsed[f] = parsed
	}
	return m, nil
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
	defaultErr  error
)

// Default returns a process-wide manager with the embedded fonts.
func Default() (*Manager, error) {
	defaultOnce.Do(func() { defaultMgr, defaultErr = NewManager() })
	return defaultMgr, defaultErr
}

// LoadFile replaces the face for f with a TTF/OTF file. If the file cannot
// be read or parsed the embedded face stays and a warning is logged.
func (m *Manager) LoadFile(f layout.Font, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Logger().Warn("could not load custom font, using default", "font", describe(f), "path", path, "err", err)
		return fmt.Errorf("failed to read font: %w", err)
	}
	return m.Register(f, data)
}

// LoadDir loads overrides named after a style, such as "modern.ttf" or
// "cursive-bold.otf", from dir. Missing files keep the embedded face. It
// returns the number of faces replaced.
func (m *Manager) LoadDir(dir string) (int, error) {
	n := 0
	for f := range builtin {
		name := string(f.Style)
		if f.Bold {
			name += "-bold"
		}
		for _, ext := range []string{".ttf", ".otf"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := m.LoadFile(f, path); err != nil {
				return n, fmt.Errorf("font %s: %w", path, err)
			}
			n++
			break
		}
	}
	logging.Logger().Info("fonts loaded", "dir", dir, "replaced", n)
	return n, nil
}

// Register replaces the face for f with the given font data.
func (m *Manager) Register(f layout.Font, data []byte) error {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsed[normalize(f)] = parsed
	for k := range m.faces {
		if k.font == normalize(f) {
			delete(m.faces, k)
		}
	}
	return nil
}

// NewFace returns a fresh face for f at size pixels. opentype faces are not
// safe for concurrent use, so every drawing context takes its own.
func (m *Manager) NewFace(f layout.Font, size float64) (font.Face, error) {
	m.mu.Lock()
	parsed := m.parsed[normalize(f)]
	m.mu.Unlock()
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// MeasureString reports the advance width of s in pixels. It implements
// layout.Measurer.
func (m *Manager) MeasureString(s string, f layout.Font, size float64) float64 {
	k := faceKey{font: normalize(f), size: size}
	m.mu.Lock()
	defer m.mu.Unlock()
	face, ok := m.faces[k]
	if !ok {
		var err error
		face, err = opentype.NewFace(m.parsed[k.font], &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
		if err != nil {
			logging.Logger().Warn("font face unavailable, estimating width", "font", describe(f), "err", err)
			return float64(len([]rune(s))) * size * 0.55
		}
		m.faces[k] = face
	}
	return Float(font.MeasureString(face, s))
}

// Float converts a 26.6 fixed-point length to pixels.
func Float(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Fixed converts pixels to 26.6 fixed point.
func Fixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func normalize(f layout.Font) layout.Font {
	f.Style = card.ParseTextStyle(string(f.Style))
	return f
}

func describe(f layout.Font) string {
	if f.Bold {
		return string(f.Style) + " bold"
	}
	return string(f.Style)
}

var _ layout.Measurer = (*Manager)(nil)
