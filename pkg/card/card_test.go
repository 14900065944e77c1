package card

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
)

func sampleCard() *Card {
	return &Card{
		TemplateID: "t2",
		Message:    "Happy Valentine's Day!",
		TextColor:  DefaultTextColor,
		TextStyle:  StyleCursive,
		Photos: []PhotoElement{
			{FrameIndex: 0, URL: "https://cdn.example/a.jpg", Transform: Transform{X: 4, Y: -2, Scale: 1.1, Rotate: 0}, Shape: shape.Square, Fit: fit.Cover},
			{FrameIndex: 2, URL: "https://cdn.example/c.jpg", Transform: Transform{X: 0, Y: 0, Scale: 0.85, Rotate: -9}, Shape: shape.Heart, Fit: fit.Contain},
		},
		Stickers: []StickerLayer{
			{ID: "s-1", StickerID: "kiss", Src: "/stickers/kiss.png", Transform: Transform{X: 120, Y: -300, Scale: 1.5, Rotate: 20}, Z: 2},
			{ID: "s-2", StickerID: "bow", Src: "/stickers/bow.png", Transform: Transform{Scale: 1}, Z: 1},
		},
		TextLayers: []TextLayer{
			{ID: PrimaryTextID, Content: "Happy Valentine's Day!", Color: DefaultTextColor, Style: StyleCursive, Transform: Transform{Y: -170, Scale: 1}, Z: 1},
		},
		Reveal: "scratch",
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		card *Card
	}{
		{"multi layer", sampleCard()},
		{"legacy only", &Card{
			TemplateID: "t1",
			Message:    "hi",
			Legacy:     &LegacyPhoto{URL: "https://x/y.png", Transform: Transform{X: 5, Y: -3, Scale: 1.2, Rotate: 15}, Shape: shape.Circle},
		}},
		{"empty", &Card{TemplateID: "t7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.card)
			if err != nil {
				t.Fatal(err)
			}
			got, warnings, err := Decode(data)
			if err != nil {
				t.Fatal(err)
			}
			if len(warnings) != 0 {
				t.Errorf("warnings: %v", warnings)
			}
			if !reflect.DeepEqual(got, tt.card) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.card)
			}
		})
	}
}

func TestLegacyProjection(t *testing.T) {
	c, _, err := Decode([]byte(`{"templateId":"t1","message":"m","photoUrl":"X","photoX":5,"photoY":-3,"photoScale":1.2,"photoRotate":15,"shape":"circle"}`))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := c.PhotoForFrame(0)
	if !ok {
		t.Fatal("no projected photo")
	}
	want := PhotoElement{FrameIndex: 0, URL: "X", Transform: Transform{X: 5, Y: -3, Scale: 1.2, Rotate: 15}, Shape: shape.Circle, Fit: fit.Cover}
	if got != want {
		t.Errorf("PhotoForFrame(0) = %+v, want %+v", got, want)
	}
	if _, ok := c.PhotoForFrame(1); ok {
		t.Error("legacy fields must only project onto frame 0")
	}
}

func TestLegacyProjectionDefaults(t *testing.T) {
	c := &Card{Legacy: &LegacyPhoto{URL: "X"}}
	got, ok := c.PhotoForFrame(0)
	if !ok || got.Scale != 1 || got.Rotate != 0 || got.Shape != shape.Heart || got.Fit != fit.Cover {
		t.Errorf("defaults = %+v", got)
	}
}

func TestExplicitPhotoWinsOverLegacy(t *testing.T) {
	c := &Card{
		Photos: []PhotoElement{{FrameIndex: 0, URL: "new", Transform: Identity, Shape: shape.Square, Fit: fit.Contain}},
		Legacy: &LegacyPhoto{URL: "old"},
	}
	if p, _ := c.PhotoForFrame(0); p.URL != "new" {
		t.Errorf("got %q, want the explicit photo", p.URL)
	}
}

func TestFreePhotos(t *testing.T) {
	c := &Card{Photos: []PhotoElement{{FrameIndex: 3, URL: "c"}, {FrameIndex: 1, URL: "a"}}}
	got := c.FreePhotos()
	if len(got) != 2 || got[0].URL != "a" || got[1].URL != "c" {
		t.Errorf("FreePhotos = %+v", got)
	}

	legacy := &Card{Legacy: &LegacyPhoto{URL: "old"}}
	if got := legacy.FreePhotos(); len(got) != 1 || got[0].URL != "old" {
		t.Errorf("legacy FreePhotos = %+v", got)
	}
}

func TestLayerOrdering(t *testing.T) {
	c := &Card{
		Stickers: []StickerLayer{{ID: "a", Z: 3}, {ID: "b", Z: 1}, {ID: "c", Z: 3}, {ID: "d", Z: 0}},
		TextLayers: []TextLayer{{ID: "x", Z: 2}, {ID: "y", Z: 1}},
	}
	var ids []string
	for _, s := range c.SortedStickers() {
		ids = append(ids, s.ID)
	}
	if got := strings.Join(ids, ""); got != "dbac" {
		t.Errorf("sticker order = %s, want dbac", got)
	}
	if got := c.SortedTextLayers(); got[0].ID != "y" {
		t.Errorf("text order = %+v", got)
	}
	if c.Stickers[0].ID != "a" {
		t.Error("sorting must not mutate the card")
	}
}

func TestUnits(t *testing.T) {
	const factor = 1080.0 / 320
	p := PhotoElement{Transform: Transform{X: 10, Y: -4}}
	if got := p.CanvasOffset(factor); got != geom.Pt(33.75, -13.5) {
		t.Errorf("photo canvas offset = %v", got)
	}
	s := StickerLayer{Transform: Transform{X: 10, Y: -4}}
	if got := s.CanvasOffset(factor); got != geom.Pt(10, -4) {
		t.Errorf("sticker canvas offset = %v", got)
	}
	if p.Unit() != UnitPreview || s.Unit() != UnitCanvas || (TextLayer{}).Unit() != UnitCanvas {
		t.Error("unit tags wrong")
	}
	back := UnitPreview.FromCanvas(geom.Pt(33.75, -13.5), factor)
	if math.Abs(back.X-10) > 1e-12 || math.Abs(back.Y+4) > 1e-12 {
		t.Errorf("FromCanvas = %v", back)
	}
}

func TestSanitize(t *testing.T) {
	c := &Card{
		TemplateID: strings.Repeat("t", 60),
		Message:    strings.Repeat("é", 130),
		TextStyle:  "gothic",
		Photos: []PhotoElement{
			{FrameIndex: 1, URL: "b", Transform: Transform{X: math.NaN(), Y: 2, Scale: -1, Rotate: math.Inf(1)}, Shape: "star", Fit: "stretch"},
			{FrameIndex: 0, URL: "a", Transform: Transform{Scale: 1}, Shape: shape.Circle, Fit: fit.Contain},
			{FrameIndex: 1, URL: "dup", Transform: Transform{Scale: 1}},
			{FrameIndex: -1, URL: "neg"},
		},
		TextLayers: make([]TextLayer, 7),
	}
	warnings := Sanitize(c)

	if len([]rune(c.TemplateID)) != MaxTemplateIDLen || len([]rune(c.Message)) != MaxMessageLen {
		t.Errorf("truncation failed: %d %d", len([]rune(c.TemplateID)), len([]rune(c.Message)))
	}
	if c.TextStyle != StyleModern {
		t.Errorf("style = %q", c.TextStyle)
	}
	if len(c.Photos) != 2 || c.Photos[0].URL != "a" || c.Photos[1].URL != "b" {
		t.Fatalf("photos = %+v", c.Photos)
	}
	p := c.Photos[1]
	if p.X != 0 || p.Y != 2 || p.Scale != 1 || p.Rotate != 0 || p.Shape != shape.Heart || p.Fit != fit.Cover {
		t.Errorf("photo not repaired: %+v", p)
	}
	if len(c.TextLayers) != MaxTextLayers || c.TextLayers[0].Style != StyleModern || c.TextLayers[0].Scale != 1 {
		t.Errorf("text layers = %+v", c.TextLayers)
	}

	joined := strings.Join(warnings, "\n")
	for _, want := range []string{"template id truncated", "message truncated", "unknown text style", "non-finite offset", "invalid scale -1", "unknown shape", "unknown fit", "duplicate photo for frame 1", "negative frame index", "7 text layers"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing warning %q in:\n%s", want, joined)
		}
	}
}

func TestSanitizeBoundsRotation(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{7200, 0},
		{190, -170},
		{-190, 170},
		{-180, 180},
		{45, 45},
	}
	for _, tt := range tests {
		c := &Card{
			Photos:     []PhotoElement{{URL: "a", Transform: Transform{Scale: 1, Rotate: tt.in}}},
			Stickers:   []StickerLayer{{ID: "s", Transform: Transform{Scale: 1, Rotate: tt.in}}},
			TextLayers: []TextLayer{{ID: "x", Transform: Transform{Scale: 1, Rotate: tt.in}}},
		}
		if w := Sanitize(c); len(w) != 0 {
			t.Errorf("rotate %v: unexpected warnings %v", tt.in, w)
		}
		for _, got := range []float64{c.Photos[0].Rotate, c.Stickers[0].Rotate, c.TextLayers[0].Rotate} {
			if got != tt.want {
				t.Errorf("rotate %v = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestSanitizeNormalizesText(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	c := &Card{Message: "cafe\u0301", TextLayers: []TextLayer{{ID: "t", Content: "cafe\u0301", Style: StyleModern, Transform: Identity}}}
	Sanitize(c)
	if c.Message != "caf\u00e9" || c.TextLayers[0].Content != "caf\u00e9" {
		t.Errorf("not NFC: %q %q", c.Message, c.TextLayers[0].Content)
	}
}

func TestDecodeAssignsMissingIDs(t *testing.T) {
	c, _, err := Decode([]byte(`{"templateId":"t7","message":"","stickers":[{"stickerId":"kiss","src":"/k.png","x":1,"y":2,"scale":1,"rotate":0,"z":1}],"textLayers":[{"content":"hey","color":"#fff","style":"classic","x":0,"y":0,"scale":1,"rotate":0,"z":1}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Stickers[0].ID == "" || c.TextLayers[0].ID == "" || c.Stickers[0].ID == c.TextLayers[0].ID {
		t.Errorf("ids = %q %q", c.Stickers[0].ID, c.TextLayers[0].ID)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte(`{"photos": 3}`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestIsRemoteURL(t *testing.T) {
	tests := map[string]bool{
		"https://cdn/x.png":  true,
		"HTTP://cdn/x.png":   true,
		"blob:abc-123":       false,
		"/templates/t1.png":  false,
		"data:image/png;...": false,
	}
	for in, want := range tests {
		if got := IsRemoteURL(in); got != want {
			t.Errorf("IsRemoteURL(%q) = %v", in, got)
		}
	}
}
