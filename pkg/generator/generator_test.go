package generator

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#FF3B8E", color.NRGBA{0xff, 0x3b, 0x8e, 0xff}, true},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}, true},
		{"#0008", color.NRGBA{0, 0, 0, 0x88}, true},
		{"#11223344", color.NRGBA{0x11, 0x22, 0x33, 0x44}, true},
		{"rgba(0,0,0,0.6)", color.NRGBA{0, 0, 0, 153}, true},
		{" rgb(10, 20, 30) ", color.NRGBA{10, 20, 30, 255}, true},
		{"#12345", color.NRGBA{}, false},
		{"#gggggg", color.NRGBA{}, false},
		{"rgba(0,0,0,2)", color.NRGBA{}, false},
		{"red", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if got := ParseColorOr("nope", White); got != White {
		t.Errorf("fallback = %v", got)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"abc123":           "card-abc123.png",
		"My Card!":         "card-my-card.png",
		"../../etc/passwd": "card-etc-passwd.png",
		"":                 "card-export.png",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerate(t *testing.T) {
	img := NewSolidImage(6, 4, color.RGBA{1, 2, 3, 255})
	dir := t.TempDir()

	for _, name := range []string{"a.png", "a.bmp", "a.jpg"} {
		if err := Generate(filepath.Join(dir, name), img); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	f, err := os.Open(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != image.Rect(0, 0, 6, 4) {
		t.Errorf("bounds = %v", got.Bounds())
	}
	if r, g, b, _ := got.At(3, 2).RGBA(); r>>8 != 1 || g>>8 != 2 || b>>8 != 3 {
		t.Errorf("pixel = %v %v %v", r>>8, g>>8, b>>8)
	}

	if err := Generate(filepath.Join(dir, "a.avi"), img); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestGenerateToWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateToWriter(&buf, ".BMP", NewSolidImage(3, 3, color.White)); err != nil {
		t.Fatal(err)
	}
	cfg, err := bmp.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 3 || cfg.Height != 3 {
		t.Errorf("config = %+v", cfg)
	}
}
