package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/shape"
	"github.com/xob0t/CardStencil/pkg/template"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	green = color.RGBA{0, 255, 0, 255}
)

const photoURL = "https://cdn.example/photo.png"

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func like(a, b color.RGBA) bool {
	d := func(x, y uint8) bool {
		v := int(x) - int(y)
		return v >= -3 && v <= 3
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func t1(t *testing.T) *template.Template {
	t.Helper()
	tpl, ok := template.Builtin().Get("t1")
	if !ok {
		t.Fatal("t1 missing")
	}
	return tpl
}

func images() MapLoader {
	return MapLoader{
		"/templates/t1.png": solid(108, 192, blue),
		photoURL:            solid(720, 720, red),
	}
}

func TestSinglePhotoCoversFrame(t *testing.T) {
	c := &card.Card{
		TemplateID: "t1",
		Photos:     []card.PhotoElement{{FrameIndex: 0, URL: photoURL, Transform: card.Identity, Shape: shape.Square, Fit: fit.Cover}},
		TextLayers: []card.TextLayer{},
	}
	e := New(Config{Loader: images()})
	img, err := e.Export(context.Background(), c, t1(t))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 1080, 1920) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"frame top edge", 540, 521, red},
		{"frame left edge", 181, 880, red},
		{"frame centre", 540, 880, red},
		{"frame bottom edge", 540, 1238, red},
		{"frame right edge", 898, 880, red},
		{"left of frame", 178, 880, blue},
		{"above frame", 540, 518, blue},
		{"right of frame", 901, 880, blue},
		{"below frame", 540, 1241, blue},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); !like(got, tt.want) {
			t.Errorf("%s (%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
	if e.State() != Done {
		t.Errorf("state = %v", e.State())
	}
}

func TestHeartClip(t *testing.T) {
	c := &card.Card{Photos: []card.PhotoElement{{FrameIndex: 0, URL: photoURL, Transform: card.Identity, Shape: shape.Heart, Fit: fit.Cover}}}
	img, err := New(Config{Loader: images()}).Export(context.Background(), c, t1(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(540, 900); !like(got, red) {
		t.Errorf("heart centre = %v", got)
	}
	// The box corners are outside the heart.
	if got := img.RGBAAt(185, 1235); !like(got, blue) {
		t.Errorf("box corner = %v", got)
	}
}

func TestSkipsUnresolvedSource(t *testing.T) {
	c := &card.Card{Photos: []card.PhotoElement{{FrameIndex: 0, URL: "blob:local-1", Transform: card.Identity, Shape: shape.Square, Fit: fit.Cover}}}
	loader := MapLoader{"/templates/t1.png": solid(108, 192, blue)}
	img, err := New(Config{Loader: loader}).Export(context.Background(), c, t1(t))
	if err != nil {
		t.Fatalf("unresolved photo must not fail the export: %v", err)
	}
	if got := img.RGBAAt(540, 880); !like(got, blue) {
		t.Errorf("frame = %v, want background", got)
	}
}

func TestBackgroundColourFallback(t *testing.T) {
	tpl := &template.Template{ID: "plain", BackgroundColor: "#00ff00"}
	img, err := New(Config{}).Export(context.Background(), &card.Card{}, tpl)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(10, 10); got != green {
		t.Errorf("background = %v", got)
	}
}

func TestLoadFailureAborts(t *testing.T) {
	c := &card.Card{Photos: []card.PhotoElement{{FrameIndex: 0, URL: "https://cdn.example/missing.png", Transform: card.Identity, Shape: shape.Heart, Fit: fit.Cover}}}
	e := New(Config{Loader: images()})
	img, err := e.Export(context.Background(), c, t1(t))
	if img != nil {
		t.Error("no partial image on failure")
	}
	var xe *Error
	if !errors.As(err, &xe) || xe.Kind != KindLoad || xe.URL != "https://cdn.example/missing.png" {
		t.Fatalf("err = %v", err)
	}
	if e.State() != Failed || e.Err() == nil {
		t.Errorf("state = %v err = %v", e.State(), e.Err())
	}

	// A later export may succeed.
	c.Photos[0].URL = photoURL
	if _, err := e.Export(context.Background(), c, t1(t)); err != nil || e.State() != Done {
		t.Errorf("retry: %v, state %v", err, e.State())
	}
}

func TestDecodeFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/t1.png": {Data: []byte("not an image")},
	}
	_, err := New(Config{Loader: &FSLoader{FS: fsys}}).Export(context.Background(), &card.Card{}, t1(t))
	if KindOf(err) != KindDecode {
		t.Fatalf("kind = %v, err = %v", KindOf(err), err)
	}
}

func TestBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	loader := LoaderFunc(func(ctx context.Context, src string) (image.Image, error) {
		once.Do(func() { close(started) })
		<-release
		return solid(10, 10, blue), nil
	})
	e := New(Config{Loader: loader, Concurrency: 1})
	tpl := &template.Template{ID: "bg", Background: "/bg.png"}

	done := make(chan error, 1)
	go func() {
		_, err := e.Export(context.Background(), &card.Card{}, tpl)
		done <- err
	}()
	<-started
	if e.State() != Exporting {
		t.Errorf("state = %v", e.State())
	}
	_, err := e.Export(context.Background(), &card.Card{}, tpl)
	if !errors.Is(err, ErrBusy) || KindOf(err) != KindBusy {
		t.Errorf("second export err = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if e.State() != Done {
		t.Errorf("state = %v", e.State())
	}

	// A shared exporter is reusable once the previous export finished.
	if _, err := e.Export(context.Background(), &card.Card{}, tpl); err != nil || e.State() != Done {
		t.Errorf("reuse: err = %v, state = %v", err, e.State())
	}
}

func TestTextAndLegacyMessage(t *testing.T) {
	tpl := &template.Template{ID: "plain", BackgroundColor: "#000000"}
	inked := func(img *image.RGBA, r image.Rectangle) int {
		n := 0
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if c := img.RGBAAt(x, y); c.R > 128 {
					n++
				}
			}
		}
		return n
	}

	legacy := &card.Card{Message: "Happy Valentine's Day!", TextColor: "#ffffff"}
	img, err := New(Config{}).Export(context.Background(), legacy, tpl)
	if err != nil {
		t.Fatal(err)
	}
	if n := inked(img, image.Rect(0, 1760, 1080, 1850)); n == 0 {
		t.Error("legacy band not drawn")
	}
	if n := inked(img, image.Rect(0, 700, 1080, 900)); n != 0 {
		t.Errorf("stray ink: %d", n)
	}

	layered := &card.Card{
		Message:    "ignored",
		TextLayers: []card.TextLayer{{ID: "t", Content: "Hello", Color: "#ff0000", Style: card.StyleModern, Transform: card.Transform{Y: -170, Scale: 1}}},
	}
	img, err = New(Config{}).Export(context.Background(), layered, tpl)
	if err != nil {
		t.Fatal(err)
	}
	if n := inked(img, image.Rect(340, 740, 740, 840)); n == 0 {
		t.Error("text layer not drawn")
	}
	if n := inked(img, image.Rect(0, 1760, 1080, 1850)); n != 0 {
		t.Error("legacy band drawn despite text layers")
	}
}

func TestStickerContain(t *testing.T) {
	tpl := &template.Template{ID: "plain", BackgroundColor: "#0000ff"}
	c := &card.Card{Stickers: []card.StickerLayer{{ID: "s", StickerID: "bow", Src: "/stickers/bow.png", Transform: card.Identity, Z: 1}}}
	// A wide 2:1 sticker letterboxes vertically inside the 371.25 box.
	img, err := New(Config{Loader: MapLoader{"/stickers/bow.png": solid(200, 100, red)}}).Export(context.Background(), c, tpl)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(540, 960); !like(got, red) {
		t.Errorf("sticker centre = %v", got)
	}
	if got := img.RGBAAt(540, 960-120); !like(got, blue) {
		t.Errorf("letterbox = %v", got)
	}
}

func TestHTTPLoader(t *testing.T) {
	data := encode(t, solid(4, 4, red))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/templates/t1.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := &HTTPLoader{Client: srv.Client(), BaseURL: srv.URL}
	img, err := l.Load(context.Background(), "/templates/t1.png")
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if _, err := l.Load(context.Background(), srv.URL+"/nope.png"); KindOf(err) != KindLoad {
		t.Errorf("404 err = %v", err)
	}
	if _, err := (&HTTPLoader{}).Load(context.Background(), "/x.png"); KindOf(err) != KindLoad {
		t.Errorf("relative without base err = %v", err)
	}
}

func TestRouteLoader(t *testing.T) {
	remote := MapLoader{photoURL: solid(1, 1, red)}
	local := MapLoader{"/a.png": solid(1, 1, blue)}
	r := RouteLoader{Remote: remote, Local: local}
	if _, err := r.Load(context.Background(), photoURL); err != nil {
		t.Error(err)
	}
	if _, err := r.Load(context.Background(), "/a.png"); err != nil {
		t.Error(err)
	}
	if _, err := (RouteLoader{Local: local}).Load(context.Background(), photoURL); KindOf(err) != KindLoad {
		t.Errorf("missing route err = %v", err)
	}
}

func TestExportPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := New(Config{Loader: images()}).ExportPNG(context.Background(), &buf, &card.Card{}, t1(t)); err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1080 || cfg.Height != 1920 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Op: "load image", Kind: KindLoad, URL: "u", Err: errors.New("boom")}
	if got := err.Error(); got != "load image [load] url=u: boom" {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(errors.New("x")) != KindUnknown {
		t.Error("plain errors have no kind")
	}
}
