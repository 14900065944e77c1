// Package export renders a card to a 1080x1920 raster image. It shares the
// layout scene with the SVG preview and paints it with pkg/raster.
package export

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/fit"
	"github.com/xob0t/CardStencil/pkg/fonts"
	"github.com/xob0t/CardStencil/pkg/generator"
	"github.com/xob0t/CardStencil/pkg/geom"
	"github.com/xob0t/CardStencil/pkg/layout"
	"github.com/xob0t/CardStencil/pkg/logging"
	"github.com/xob0t/CardStencil/pkg/raster"
	"github.com/xob0t/CardStencil/pkg/template"
)

// State is the exporter lifecycle.
type State int

const (
	Idle State = iota
	Exporting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Exporting:
		return "exporting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// DefaultConcurrency bounds parallel image loads.
const DefaultConcurrency = 4

// TextShadow is the drop shadow under text layers.
var TextShadow = color.NRGBA{A: 153}

// Config holds exporter dependencies.
type Config struct {
	Loader      Loader
	Fonts       *fonts.Manager // nil = fonts.Default()
	Space       layout.Space   // zero = layout.DefaultSpace
	Concurrency int            // parallel loads, <= 0 = DefaultConcurrency
}

// Exporter renders cards one at a time.
type Exporter struct {
	cfg Config

	mu    sync.Mutex
	state State
	last  error
}

// New returns an idle exporter.
func New(cfg Config) *Exporter {
	if cfg.Space.CanvasWidth <= 0 || cfg.Space.CanvasHeight <= 0 {
		cfg.Space = layout.DefaultSpace
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Exporter{cfg: cfg}
}

// State returns the current lifecycle state.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error of the last failed export.
func (e *Exporter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Exporter) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Exporting {
		return &Error{Op: "export", Kind: KindBusy, Err: ErrBusy}
	}
	e.state, e.last = Exporting, nil
	return nil
}

func (e *Exporter) finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state, e.last = Failed, err
		return
	}
	e.state = Done
}

// Export renders c on tpl. Every image is loaded before anything is drawn;
// photos that are not yet uploaded are skipped. Any load or decode failure
// fails the whole export.
func (e *Exporter) Export(ctx context.Context, c *card.Card, tpl *template.Template) (img *image.RGBA, err error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer func() { e.finish(err) }()

	fm := e.cfg.Fonts
	if fm == nil {
		if fm, err = fonts.Default(); err != nil {
			return nil, &Error{Op: "load fonts", Kind: KindUnknown, Err: err}
		}
	}

	sc := layout.Compose(c, tpl, layout.Options{Space: e.cfg.Space, Measurer: fm})
	for _, w := range sc.Warnings {
		logging.Logger().Warn("layout", "template", tpl.ID, "warning", w)
	}

	images, err := e.load(ctx, sc)
	if err != nil {
		return nil, err
	}

	p := painter{sc: sc, images: images, fonts: fm}
	out, err := p.paint()
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("export done", "template", tpl.ID, "photos", len(sc.Photos), "stickers", len(sc.Stickers), "texts", len(sc.Texts))
	return out, nil
}

// ExportPNG renders c and writes it to w as PNG.
func (e *Exporter) ExportPNG(ctx context.Context, w io.Writer, c *card.Card, tpl *template.Template) error {
	img, err := e.Export(ctx, c, tpl)
	if err != nil {
		return err
	}
	if err := generator.EncodePNG(w, img); err != nil {
		return &Error{Op: "encode png", Kind: KindEncode, Err: err}
	}
	return nil
}

// sources lists every image the scene needs, without duplicates.
func sources(sc *layout.Scene) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(sc.Background.Src)
	for _, n := range sc.Photos {
		if !n.Resolved {
			logging.Logger().Debug("skipping unresolved photo", "frame", n.Index, "url", n.Photo.URL)
			continue
		}
		add(n.Photo.URL)
	}
	for _, n := range sc.Stickers {
		add(n.Layer.Src)
	}
	return out
}

func (e *Exporter) load(ctx context.Context, sc *layout.Scene) (map[string]image.Image, error) {
	srcs := sources(sc)
	if len(srcs) > 0 && e.cfg.Loader == nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: srcs[0], Err: errors.New("no image loader configured")}
	}

	var mu sync.Mutex
	images := make(map[string]image.Image, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, src := range srcs {
		g.Go(func() error {
			img, err := e.cfg.Loader.Load(gctx, src)
			if err != nil {
				var xe *Error
				if errors.As(err, &xe) {
					return err
				}
				return &Error{Op: "load image", Kind: KindLoad, URL: src, Err: err}
			}
			mu.Lock()
			images[src] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// painter draws a loaded scene.
type painter struct {
	sc     *layout.Scene
	images map[string]image.Image
	fonts  *fonts.Manager
	rc     *raster.Context
}

func (p *painter) paint() (*image.RGBA, error) {
	sp := p.sc.Space
	p.rc = raster.New(int(math.Round(sp.CanvasWidth)), int(math.Round(sp.CanvasHeight)))

	p.background()
	for _, n := range p.sc.Photos {
		p.photo(n)
	}
	for _, n := range p.sc.Stickers {
		p.sticker(n)
	}
	for _, n := range p.sc.Texts {
		if err := p.text(n); err != nil {
			return nil, err
		}
	}
	if p.sc.Legacy != nil {
		if err := p.legacy(p.sc.Legacy); err != nil {
			return nil, err
		}
	}
	return p.rc.Image(), nil
}

func (p *painter) background() {
	bg := p.sc.Background
	p.rc.Paint(generator.ParseColorOr(bg.Color, generator.ParseColorOr(template.DefaultBackgroundColor, color.NRGBA{A: 255})))
	img, ok := p.images[bg.Src]
	if !ok {
		return
	}
	b := img.Bounds()
	src, dst := fit.Rects(fit.Cover, float64(b.Dx()), float64(b.Dy()), bg.Box.W, bg.Box.H)
	p.rc.DrawImage(img, src, dst)
}

func (p *painter) photo(n layout.PhotoNode) {
	img, ok := p.images[n.Photo.URL]
	if !n.Resolved || !ok {
		return
	}
	rc := p.rc
	rc.Save()
	defer rc.Restore()
	if n.PreClip != nil {
		rc.AppendPath(n.PreClip)
		rc.Clip()
	}
	rc.Transform(n.Steps.Matrix())
	if n.Clip != nil {
		rc.AppendPath(n.Clip)
		rc.Clip()
	}
	b := img.Bounds()
	src, dst := n.DrawRects(float64(b.Dx()), float64(b.Dy()))
	rc.DrawImage(img, src, dst)
}

func (p *painter) sticker(n layout.StickerNode) {
	img, ok := p.images[n.Layer.Src]
	if !ok {
		return
	}
	rc := p.rc
	rc.Save()
	defer rc.Restore()
	rc.Transform(n.Steps.Matrix())
	b := img.Bounds()
	src, dst := fit.Rects(fit.Contain, float64(b.Dx()), float64(b.Dy()), n.Box.W, n.Box.H)
	rc.DrawImage(img, src, dst)
}

// text renders the block upright at device resolution, then places it with
// the node transform.
func (p *painter) text(n layout.TextNode) error {
	m := n.Steps.Matrix()
	k := m.MaxScale()
	if !(k > 0) || math.IsInf(k, 0) {
		return nil
	}
	bw, bh := int(math.Ceil(n.Box.W*k)), int(math.Ceil(n.Box.H*k))
	if bw <= 0 || bh <= 0 {
		return nil
	}
	face, err := p.fonts.NewFace(n.Font, n.FontSize*k)
	if err != nil {
		return &Error{Op: "text face", Kind: KindUnknown, Err: err}
	}
	defer face.Close()

	block := raster.New(bw, bh)
	col := generator.ParseColorOr(n.Layer.Color, generator.White)
	cx := n.Box.W / 2 * k
	for i, line := range n.Lines {
		y := n.Baseline(i) * k
		block.DrawString(face, line, cx, y+n.ShadowY*k, 0.5, TextShadow)
		block.DrawString(face, line, cx, y, 0.5, col)
	}

	rc := p.rc
	rc.Save()
	defer rc.Restore()
	rc.Transform(m)
	rc.DrawImage(block.Image(), geom.Rect{W: float64(bw), H: float64(bh)}, geom.Rect{W: float64(bw) / k, H: float64(bh) / k})
	return nil
}

func (p *painter) legacy(l *layout.LegacyMessage) error {
	face, err := p.fonts.NewFace(l.Font, l.FontSize)
	if err != nil {
		return &Error{Op: "message face", Kind: KindUnknown, Err: err}
	}
	defer face.Close()
	col := generator.ParseColorOr(l.Color, generator.White)
	for i, line := range l.Lines {
		p.rc.DrawString(face, line, l.CenterX, l.Baseline(i), 0.5, col)
	}
	return nil
}
