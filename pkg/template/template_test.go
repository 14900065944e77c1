package template

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xob0t/CardStencil/pkg/shape"
)

func TestBuiltinCatalog(t *testing.T) {
	r := Builtin()

	tests := []struct {
		id        string
		frames    int
		shape     shape.Shape
		rotations []float64
	}{
		{"t1", 1, shape.Heart, []float64{12}},
		{"t2", 3, shape.Square, []float64{0, -9, 0}},
		{"t5", 2, shape.Square, nil},
		{"t6", 4, shape.Square, []float64{-13, 3, -10, 10}},
		{"t7", 0, shape.Heart, nil},
		{"t9", 1, shape.Heart, nil},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			tpl, ok := r.Get(tt.id)
			if !ok {
				t.Fatalf("template %s missing", tt.id)
			}
			if len(tpl.Frames) != tt.frames {
				t.Errorf("frames = %d, want %d", len(tpl.Frames), tt.frames)
			}
			if tpl.Shape() != tt.shape {
				t.Errorf("shape = %s, want %s", tpl.Shape(), tt.shape)
			}
			for i, want := range tt.rotations {
				if got := tpl.FrameRotation(i); got != want {
					t.Errorf("rotation[%d] = %v, want %v", i, got, want)
				}
			}
			if got := tpl.FrameRotation(99); got != 0 {
				t.Errorf("out of range rotation = %v", got)
			}
			if w := Validate(tpl); len(w) != 0 {
				t.Errorf("builtin template has warnings: %v", w)
			}
		})
	}

	if got := len(r.Stickers()); got != 14 {
		t.Errorf("stickers = %d, want 14", got)
	}
	if s, ok := r.Sticker("rose-flower"); !ok || s.Src != "/stickers/rose-flower.png" {
		t.Errorf("rose-flower = %+v, %v", s, ok)
	}
}

func TestListOrder(t *testing.T) {
	r := Builtin()
	r.Merge(Catalog{Templates: []Template{{ID: "t10"}}})
	list := r.List()
	if list[0].ID != "t1" || list[len(list)-1].ID != "t10" {
		t.Errorf("order = %s ... %s", list[0].ID, list[len(list)-1].ID)
	}
}

func TestResolveUnknown(t *testing.T) {
	for _, id := range []string{"", "retired"} {
		t.Run(id, func(t *testing.T) {
			tpl := Builtin().Resolve(id)
			if tpl.ID != DefaultID || len(tpl.Frames) != 1 || tpl.Background != "/templates/t1.png" {
				t.Errorf("Resolve(%q) = %+v, want t1", id, tpl)
			}
		})
	}

	tpl := NewRegistry().Resolve("gone")
	if !tpl.FreePlacement() || tpl.Shape() != shape.Heart || tpl.Fill() != DefaultBackgroundColor {
		t.Errorf("empty registry fallback = %+v", tpl)
	}
}

func TestMustGet(t *testing.T) {
	if got := Builtin().MustGet("t9"); got.Frames[0].Kind != FrameRect {
		t.Errorf("t9 frame kind = %q", got.Frames[0].Kind)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustGet did not panic on unknown id")
		}
	}()
	Builtin().MustGet("gone")
}

func TestMergeOverlay(t *testing.T) {
	r := Builtin()
	r.Merge(Catalog{
		Templates: []Template{
			{ID: "t3", BackgroundColor: "#000000"},
			{ID: "new", Frames: []Frame{{X: 1, Y: 2, W: 3, H: 4}}},
		},
		Stickers: []Sticker{
			{ID: "kiss", Src: "/custom/kiss.png"},
			{ID: "balloon", Src: "balloon.png"},
		},
	})

	t3, _ := r.Get("t3")
	if t3.BackgroundColor != "#000000" || t3.Background != "/templates/t3.png" || len(t3.Frames) != 1 {
		t.Errorf("overlay lost fields: %+v", t3)
	}
	nt, _ := r.Get("new")
	if nt.Name != "new" || nt.Frames[0].Kind != FramePath {
		t.Errorf("defaults not applied: %+v", nt)
	}
	if s, _ := r.Sticker("kiss"); s.Src != "/custom/kiss.png" || s.Label != "Kiss" {
		t.Errorf("sticker overlay = %+v", s)
	}
	if s, ok := r.Sticker("balloon"); !ok || s.Label != "balloon" {
		t.Errorf("new sticker = %+v", s)
	}
}

func TestValidateWarnings(t *testing.T) {
	tpl := &Template{
		ID:             "bad",
		DefaultShape:   "star",
		FrameRotations: []float64{1, 2},
		Frames: []Frame{
			{Kind: FramePath, W: 0, H: 10},
			{Kind: FrameRect, W: 100, H: 50, Radius: 80, D: "Q 1"},
			{Kind: "oval", W: 10, H: 10},
		},
	}
	w := Validate(tpl)
	joined := strings.Join(w, "\n")
	for _, want := range []string{"no background", "unknown default shape", "no area", "radius 80 clamped", "legacy outline", "unknown kind"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing warning %q in:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "rotation hints") {
		t.Error("two hints for three frames should not warn")
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(ExampleCatalog()), 0644); err != nil {
		t.Fatal(err)
	}

	r := Builtin()
	warnings, cleanup, err := r.LoadFile(path)
	defer cleanup()
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	b, ok := r.Get("birthday")
	if !ok {
		t.Fatal("birthday template not merged")
	}
	if b.Background != filepath.Join(dir, "backgrounds/birthday.png") {
		t.Errorf("background = %q", b.Background)
	}
	if len(b.Frames) != 3 || b.Frames[2].Kind != FrameRect || b.Frames[2].Radius != 36 {
		t.Errorf("frames = %+v", b.Frames)
	}
	if b.Shape() != shape.Circle {
		t.Errorf("shape = %s", b.Shape())
	}
	if t3, _ := r.Get("t3"); t3.BackgroundColor != "#1a1a2e" || t3.Background != "/templates/t3.png" {
		t.Errorf("t3 = %+v", t3)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack"+BundleExt)
	writeZip(t, path, map[string]string{
		"catalog.yaml":        ExampleCatalog(),
		"stickers/balloon.png": "not really a png",
	})

	cat, cleanup, err := LoadBundle(path)
	if err != nil {
		t.Fatal(err)
	}
	var src string
	for _, s := range cat.Stickers {
		if s.ID == "balloon" {
			src = s.Src
		}
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("extracted sticker %q: %v", src, err)
	}
	cleanup()
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("cleanup left %q behind", src)
	}
}

func TestLoadBundleRejectsZipSlip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil"+BundleExt)
	writeZip(t, path, map[string]string{"../escape.txt": "x"})
	if _, _, err := LoadBundle(path); err == nil {
		t.Fatal("expected zip slip error")
	}
}

func TestFormatCatalog(t *testing.T) {
	out := FormatCatalog(Builtin())
	for _, want := range []string{"t1", "Single Heart Frame", "free placement", "valentines-day"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q", want)
		}
	}
}
