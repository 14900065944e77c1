package layout

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/shape"
	"github.com/xob0t/CardStencil/pkg/template"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func nearPt(t *testing.T, name string, got, want geom.Point) {
	t.Helper()
	if !near(got.X, want.X) || !near(got.Y, want.Y) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func nearRect(t *testing.T, name string, got, want geom.Rect) {
	t.Helper()
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.W, want.W) || !near(got.H, want.H) {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

func photo(i int, tr card.Transform, s shape.Shape, m fit.Mode) card.PhotoElement {
	return card.PhotoElement{FrameIndex: i, URL: "https://cdn.example/p.jpg", Transform: tr, Shape: s, Fit: m}
}

func TestStepsSVG(t *testing.T) {
	s := Steps{Translate(1.5, -2), Scale(2, 2), Rotate(-9), Translate(-0.0000001, 0)}
	if got, want := s.SVG(), "translate(1.5 -2) scale(2 2) rotate(-9) translate(0 0)"; got != want {
		t.Errorf("SVG() = %q, want %q", got, want)
	}
}

func TestStepsMatrixOrder(t *testing.T) {
	// Translate is outermost, so the rotation happens about the origin first.
	m := Steps{Translate(10, 0), Rotate(90)}.Matrix()
	nearPt(t, "apply", m.Apply(geom.Pt(1, 0)), geom.Pt(10, 1))
}

func TestPathFrameCorners(t *testing.T) {
	tpl := &template.Template{ID: "x", Frames: []template.Frame{{Kind: template.FramePath, X: 100, Y: 200, W: 400, H: 300}}}
	c := &card.Card{Photos: []card.PhotoElement{photo(0, card.Identity, shape.Heart, fit.Cover)}}
	sc := Compose(c, tpl, Options{})
	if len(sc.Photos) != 1 {
		t.Fatalf("photos = %d", len(sc.Photos))
	}
	n := sc.Photos[0]
	if len(n.Steps) != 7 {
		t.Fatalf("steps = %d, want 7", len(n.Steps))
	}
	m := n.Steps.Matrix()
	nearPt(t, "origin", m.Apply(geom.Pt(0, 0)), geom.Pt(100, 200))
	nearPt(t, "far corner", m.Apply(geom.Pt(100, 100)), geom.Pt(500, 500))
	if n.PreClip != nil || n.Clip == nil {
		t.Error("path frames clip by shape only")
	}
	if n.Box != (geom.Rect{W: 100, H: 100}) || n.FitSize != (geom.Size{W: 400, H: 300}) {
		t.Errorf("box %+v fit size %+v", n.Box, n.FitSize)
	}
}

func TestPathFrameOffsetIsPreviewUnits(t *testing.T) {
	tpl := &template.Template{Frames: []template.Frame{{Kind: template.FramePath, X: 100, Y: 200, W: 400, H: 300}}}
	c := &card.Card{Photos: []card.PhotoElement{photo(0, card.Transform{X: 10, Y: -4, Scale: 1}, shape.Square, fit.Cover)}}
	m := Compose(c, tpl, Options{}).Photos[0].Steps.Matrix()
	// Frame centre (300, 350) plus the offset times 1080/320.
	nearPt(t, "centre", m.Apply(geom.Pt(50, 50)), geom.Pt(333.75, 336.5))
}

func TestPathFrameRotateScaleAboutCentre(t *testing.T) {
	tpl := &template.Template{Frames: []template.Frame{{X: 0, Y: 0, W: 100, H: 100}}}
	c := &card.Card{Photos: []card.PhotoElement{photo(0, card.Transform{Scale: 2, Rotate: 90}, shape.Square, fit.Cover)}}
	m := Compose(c, tpl, Options{}).Photos[0].Steps.Matrix()
	nearPt(t, "centre fixed", m.Apply(geom.Pt(50, 50)), geom.Pt(50, 50))
	// (100,50) is 50 right of centre; doubled and turned 90 degrees it lands 100 below.
	nearPt(t, "edge", m.Apply(geom.Pt(100, 50)), geom.Pt(50, 150))
}

func TestRectFrame(t *testing.T) {
	tpl := &template.Template{Frames: []template.Frame{{Kind: template.FrameRect, X: 120, Y: 360, W: 840, H: 1000, Radius: 48}}}
	c := &card.Card{Photos: []card.PhotoElement{photo(0, card.Identity, shape.Heart, fit.Contain)}}
	n := Compose(c, tpl, Options{}).Photos[0]
	if n.PreClip == nil || n.Clip != nil {
		t.Fatal("rect frames clip by the rounded rect only")
	}
	nearRect(t, "pre-clip bounds", n.PreClip.Bounds(), geom.Rect{X: 120, Y: 360, W: 840, H: 1000})
	m := n.Steps.Matrix()
	nearPt(t, "origin", m.Apply(geom.Pt(0, 0)), geom.Pt(120, 360))
	nearPt(t, "far corner", m.Apply(geom.Pt(840, 1000)), geom.Pt(960, 1360))
}

func TestFreePlacement(t *testing.T) {
	tpl := &template.Template{ID: "t7"}
	c := &card.Card{Photos: []card.PhotoElement{
		photo(1, card.Identity, shape.Circle, fit.Cover),
		photo(0, card.Transform{X: 32, Scale: 1}, shape.Heart, fit.Contain),
	}}
	sc := Compose(c, tpl, Options{})
	if len(sc.Photos) != 2 || sc.Photos[0].Index != 0 || sc.Photos[1].Index != 1 {
		t.Fatalf("free photos out of order: %+v", sc.Photos)
	}
	n := sc.Photos[1]
	if !near(n.Box.W, 675) || !near(n.Box.H, 675) {
		t.Errorf("box = %+v, want 675", n.Box)
	}
	m := n.Steps.Matrix()
	nearPt(t, "origin", m.Apply(geom.Pt(0, 0)), geom.Pt(540-337.5, 960-337.5))
	nearRect(t, "clip bounds", n.Clip.Bounds(), geom.Rect{W: 675, H: 675})

	// 32 preview units to the right is 108 canvas pixels.
	nearPt(t, "offset centre", sc.Photos[0].Steps.Matrix().Apply(geom.Pt(337.5, 337.5)), geom.Pt(648, 960))
}

func TestStickerNodes(t *testing.T) {
	c := &card.Card{Stickers: []card.StickerLayer{
		{ID: "b", Src: "/b.png", Transform: card.Transform{X: 100, Y: -50, Scale: 1}, Z: 2},
		{ID: "a", Src: "/a.png", Transform: card.Identity, Z: 1},
	}}
	sc := Compose(c, &template.Template{}, Options{})
	if len(sc.Stickers) != 2 || sc.Stickers[0].Layer.ID != "a" {
		t.Fatalf("stickers = %+v", sc.Stickers)
	}
	n := sc.Stickers[1]
	if !near(n.Box.W, 371.25) {
		t.Errorf("sticker box = %v", n.Box.W)
	}
	// Sticker offsets are already canvas units.
	nearPt(t, "centre", n.Steps.Matrix().Apply(geom.Pt(n.Box.W/2, n.Box.H/2)), geom.Pt(640, 910))
}

func TestEmptyFramesAndZeroArea(t *testing.T) {
	tpl := &template.Template{ID: "z", Frames: []template.Frame{
		{X: 0, Y: 0, W: 100, H: 100},
		{X: 0, Y: 0, W: 0, H: 100},
		{Kind: template.FrameRect, X: 10, Y: 10, W: 50, H: 50, Radius: 5},
	}}
	c := &card.Card{Photos: []card.PhotoElement{photo(0, card.Identity, shape.Heart, fit.Cover)}}
	sc := Compose(c, tpl, Options{})
	if len(sc.Photos) != 1 {
		t.Errorf("photos = %d", len(sc.Photos))
	}
	if len(sc.EmptyFrames) != 1 || sc.EmptyFrames[0].Index != 2 {
		t.Fatalf("empty frames = %+v", sc.EmptyFrames)
	}
	nearRect(t, "outline", sc.EmptyFrames[0].Outline.Bounds(), geom.Rect{X: 10, Y: 10, W: 50, H: 50})
	if len(sc.Warnings) != 1 || !strings.Contains(sc.Warnings[0], "frame 1") {
		t.Errorf("warnings = %v", sc.Warnings)
	}
}

func TestLegacyPhotoOnFirstFrame(t *testing.T) {
	tpl := &template.Template{Frames: []template.Frame{{X: 180, Y: 520, W: 720, H: 720}}}
	c := &card.Card{Legacy: &card.LegacyPhoto{URL: "https://x/y.png", Transform: card.Transform{Scale: 1.2}, Shape: shape.Circle}}
	sc := Compose(c, tpl, Options{})
	if len(sc.Photos) != 1 || sc.Photos[0].Photo.Fit != fit.Cover || !sc.Photos[0].Resolved {
		t.Fatalf("photos = %+v", sc.Photos)
	}
}

func TestDrawRects(t *testing.T) {
	tests := []struct {
		name     string
		mode     fit.Mode
		sw, sh   float64
		src, dst geom.Rect
	}{
		{"cover square into wide", fit.Cover, 400, 400, geom.Rect{X: 0, Y: 50, W: 400, H: 300}, geom.Rect{W: 100, H: 100}},
		{"contain square into wide", fit.Contain, 400, 400, geom.Rect{W: 400, H: 400}, geom.Rect{X: 12.5, W: 75, H: 100}},
		{"degenerate", fit.Cover, 0, 400, geom.Rect{}, geom.Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := PhotoNode{Photo: card.PhotoElement{Fit: tt.mode}, Box: geom.Rect{W: 100, H: 100}, FitSize: geom.Size{W: 400, H: 300}}
			src, dst := n.DrawRects(tt.sw, tt.sh)
			nearRect(t, "src", src, tt.src)
			nearRect(t, "dst", dst, tt.dst)
		})
	}
}

func TestFitScale(t *testing.T) {
	n := PhotoNode{Box: geom.Rect{W: 100, H: 100}, FitSize: geom.Size{W: 400, H: 250}}
	if sx, sy := n.FitScale(); !near(sx, 0.25) || !near(sy, 0.4) {
		t.Errorf("FitScale = %v, %v", sx, sy)
	}
}

func runeWidth(s string) float64 { return float64(len([]rune(s))) }

func TestWrapLegacy(t *testing.T) {
	tests := []struct {
		name  string
		msg   string
		width float64
		want  []string
	}{
		{"fits", "hello there", 20, []string{"hello there"}},
		{"wraps", "aaa bbb ccc ddd eee", 7, []string{"aaa bbb", "ccc ddd", "eee"}},
		{"drops past three", "aaa bbb ccc ddd eee", 3, []string{"aaa", "bbb", "ccc"}},
		{"overlong word kept whole", "abcdefghij x", 4, []string{"abcdefghij", "x"}},
		{"empty", "", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapLegacy(tt.msg, tt.width, 3, runeWidth); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("WrapLegacy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"collapses spaces", "a   b", 10, []string{"a b"}},
		{"paragraphs", "one\n\ntwo", 10, []string{"one", "two"}},
		{"breaks long words", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"mixed", "hi abcdefgh", 4, []string{"hi", "abcd", "efgh"}},
		{"multibyte", "αβγδ", 2, []string{"αβ", "γδ"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.text, tt.width, runeWidth); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLegacyMessageBand(t *testing.T) {
	c := &card.Card{Message: "Happy Valentine's Day!", TextColor: "#FF3B8E"}
	sc := Compose(c, &template.Template{}, Options{})
	l := sc.Legacy
	if l == nil {
		t.Fatal("no legacy band")
	}
	if !near(l.FontSize, 54) || !near(l.LineHeight, 67.5) || !near(l.CenterX, 540) {
		t.Errorf("band = %+v", l)
	}
	if len(l.Lines) != 1 || !near(l.Baseline(0), 1920-94.5) {
		t.Errorf("lines %q baseline %v", l.Lines, l.Baseline(0))
	}
	if l.Color != "#FF3B8E" || l.Font != (Font{Style: card.StyleModern, Bold: true}) {
		t.Errorf("colour %q font %+v", l.Color, l.Font)
	}

	c.TextColor = ""
	c.Message = strings.Repeat("word ", 60)
	l = Compose(c, &template.Template{}, Options{}).Legacy
	if len(l.Lines) != 3 || l.Color != DefaultTextColor {
		t.Fatalf("lines = %d colour %q", len(l.Lines), l.Color)
	}
	if !near(l.Baseline(0), 1920-94.5-2*67.5) || !near(l.Baseline(2), 1920-94.5) {
		t.Errorf("baselines %v %v", l.Baseline(0), l.Baseline(2))
	}

	c.TextLayers = []card.TextLayer{{ID: card.PrimaryTextID, Content: "x", Transform: card.Identity}}
	if Compose(c, &template.Template{}, Options{}).Legacy != nil {
		t.Error("text layers suppress the legacy band")
	}
}

func TestTextNode(t *testing.T) {
	c := &card.Card{TextLayers: []card.TextLayer{
		{ID: "b", Content: "hello", Style: card.StyleModern, Transform: card.Transform{Y: -170, Scale: 1}, Z: 2},
		{ID: "a", Content: "   ", Transform: card.Identity, Z: 1},
	}}
	sc := Compose(c, &template.Template{}, Options{})
	if len(sc.Texts) != 1 {
		t.Fatalf("blank layers are skipped, got %d nodes", len(sc.Texts))
	}
	n := sc.Texts[0]
	if n.Font != (Font{Style: card.StyleModern, Bold: true}) {
		t.Errorf("font = %+v, text layers are set bold", n.Font)
	}
	// The fallback measurer gives 0.55em per rune.
	wantW := 5*54*0.55 + 2*27
	wantH := 67.5 + 54.0
	if !near(n.Box.W, wantW) || !near(n.Box.H, wantH) {
		t.Errorf("box = %+v, want %vx%v", n.Box, wantW, wantH)
	}
	nearPt(t, "centre", n.Steps.Matrix().Apply(geom.Pt(n.Box.W/2, n.Box.H/2)), geom.Pt(540, 790))
	if !near(n.Baseline(0), 27+6.75+43.2) || !near(n.ShadowY, 6.75) {
		t.Errorf("baseline %v shadow %v", n.Baseline(0), n.ShadowY)
	}
}

func TestComposeBackground(t *testing.T) {
	tpl := &template.Template{Background: "/templates/t1.png"}
	sc := Compose(&card.Card{}, tpl, Options{})
	if sc.Background.Src != "/templates/t1.png" || sc.Background.Color != template.DefaultBackgroundColor {
		t.Errorf("background = %+v", sc.Background)
	}
	nearRect(t, "canvas", sc.Background.Box, geom.Rect{W: 1080, H: 1920})
}
