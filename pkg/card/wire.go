// wire.go - The persisted JSON shape of a card.
package card

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/shape"
)

// Wire is the card exactly as the persistence service stores it.
type Wire struct {
	TemplateID string `json:"templateId"`
	Message    string `json:"message"`
	TextColor  string `json:"textColor,omitempty"`
	TextStyle  string `json:"textStyle,omitempty"`

	// Legacy single-photo fields.
	PhotoURL    string  `json:"photoUrl,omitempty"`
	PhotoX      float64 `json:"photoX,omitempty"`
	PhotoY      float64 `json:"photoY,omitempty"`
	PhotoScale  float64 `json:"photoScale,omitempty"`
	PhotoRotate float64 `json:"photoRotate,omitempty"`
	Shape       string  `json:"shape,omitempty"`

	Photos     []WirePhoto   `json:"photos,omitempty"`
	Stickers   []WireSticker `json:"stickers,omitempty"`
	TextLayers []WireText    `json:"textLayers,omitempty"`
	RevealType string        `json:"revealType,omitempty"`
}

// WirePhoto is one entry of Wire.Photos. Offsets are preview units.
type WirePhoto struct {
	FrameIndex int     `json:"frameIndex"`
	URL        string  `json:"url"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Scale      float64 `json:"scale"`
	Rotate     float64 `json:"rotate"`
	Shape      string  `json:"shape"`
	Fit        string  `json:"fit,omitempty"`
}

// WireSticker is one entry of Wire.Stickers. Offsets are canvas units.
type WireSticker struct {
	ID        string  `json:"id,omitempty"`
	StickerID string  `json:"stickerId"`
	Src       string  `json:"src"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Scale     float64 `json:"scale"`
	Rotate    float64 `json:"rotate"`
	Z         int     `json:"z"`
}

// WireText is one entry of Wire.TextLayers. Offsets are canvas units.
type WireText struct {
	ID      string  `json:"id,omitempty"`
	Content string  `json:"content"`
	Color   string  `json:"color"`
	Style   string  `json:"style"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Scale   float64 `json:"scale"`
	Rotate  float64 `json:"rotate"`
	Z       int     `json:"z"`
}

// Decode parses a persisted card and reconstructs the model. Warnings
// describe values that were defaulted or dropped.
func Decode(data []byte) (*Card, []string, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, nil, fmt.Errorf("decode card: %w", err)
	}
	c, warnings := FromWire(w)
	return c, warnings, nil
}

// Encode serializes the card to its persisted JSON form.
func Encode(c *Card) ([]byte, error) {
	data, err := json.Marshal(c.Wire())
	if err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return data, nil
}

// FromWire reconstructs a card from its persisted form and sanitizes it.
// Layers saved without an id get a fresh one.
func FromWire(w Wire) (*Card, []string) {
	c := &Card{
		TemplateID: w.TemplateID,
		Message:    w.Message,
		TextColor:  w.TextColor,
		TextStyle:  TextStyle(w.TextStyle),
		Reveal:     w.RevealType,
	}
	if w.PhotoURL != "" {
		c.Legacy = &LegacyPhoto{
			URL:       w.PhotoURL,
			Transform: Transform{X: w.PhotoX, Y: w.PhotoY, Scale: w.PhotoScale, Rotate: w.PhotoRotate},
			Shape:     shape.Shape(w.Shape),
		}
	}
	for _, p := range w.Photos {
		c.Photos = append(c.Photos, PhotoElement{
			FrameIndex: p.FrameIndex,
			URL:        p.URL,
			Transform:  Transform{X: p.X, Y: p.Y, Scale: p.Scale, Rotate: p.Rotate},
			Shape:      shape.Shape(p.Shape),
			Fit:        fit.Mode(p.Fit),
		})
	}
	for _, s := range w.Stickers {
		c.Stickers = append(c.Stickers, StickerLayer{
			ID:        idOrNew(s.ID),
			StickerID: s.StickerID,
			Src:       s.Src,
			Transform: Transform{X: s.X, Y: s.Y, Scale: s.Scale, Rotate: s.Rotate},
			Z:         s.Z,
		})
	}
	for _, t := range w.TextLayers {
		c.TextLayers = append(c.TextLayers, TextLayer{
			ID:        idOrNew(t.ID),
			Content:   t.Content,
			Color:     t.Color,
			Style:     TextStyle(t.Style),
			Transform: Transform{X: t.X, Y: t.Y, Scale: t.Scale, Rotate: t.Rotate},
			Z:         t.Z,
		})
	}
	return c, Sanitize(c)
}

// Wire serializes the card into its persisted form.
func (c *Card) Wire() Wire {
	w := Wire{
		TemplateID: c.TemplateID,
		Message:    c.Message,
		TextColor:  c.TextColor,
		TextStyle:  string(c.TextStyle),
		RevealType: c.Reveal,
	}
	if l := c.Legacy; l != nil {
		w.PhotoURL = l.URL
		w.PhotoX, w.PhotoY = l.X, l.Y
		w.PhotoScale, w.PhotoRotate = l.Scale, l.Rotate
		w.Shape = string(l.Shape)
	}
	for _, p := range c.Photos {
		w.Photos = append(w.Photos, WirePhoto{
			FrameIndex: p.FrameIndex,
			URL:        p.URL,
			X:          p.X,
			Y:          p.Y,
			Scale:      p.Scale,
			Rotate:     p.Rotate,
			Shape:      string(p.Shape),
			Fit:        string(p.Fit),
		})
	}
	for _, s := range c.Stickers {
		w.Stickers = append(w.Stickers, WireSticker{
			ID:        s.ID,
			StickerID: s.StickerID,
			Src:       s.Src,
			X:         s.X,
			Y:         s.Y,
			Scale:     s.Scale,
			Rotate:    s.Rotate,
			Z:         s.Z,
		})
	}
	for _, t := range c.TextLayers {
		w.TextLayers = append(w.TextLayers, WireText{
			ID:      t.ID,
			Content: t.Content,
			Color:   t.Color,
			Style:   string(t.Style),
			X:       t.X,
			Y:       t.Y,
			Scale:   t.Scale,
			Rotate:  t.Rotate,
			Z:       t.Z,
		})
	}
	return w
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
