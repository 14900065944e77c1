// Package server provides the CardStencil HTTP API: SVG previews, PNG
// exports, photo uploads and the template catalog.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/config"
	"github.com/xob0t/CardStencil/pkg/editor"
	"github.com/xob0t/CardStencil/pkg/export"
	"github.com/xob0t/CardStencil/pkg/fonts"
	"github.com/xob0t/CardStencil/pkg/generator"
	"github.com/xob0t/CardStencil/pkg/layout"
	"github.com/xob0t/CardStencil/pkg/logging"
	"github.com/xob0t/CardStencil/pkg/preview"
	"github.com/xob0t/CardStencil/pkg/template"
)

var errAssetNotFound = errors.New("asset not found")

// maxCardBytes caps a card JSON request body.
const maxCardBytes = 1 << 20

// Options configure a Server.
type Options struct {
	Config   *config.Config     // nil = config.Defaults()
	Registry *template.Registry // nil = template.Builtin()
	Fonts    *fonts.Manager     // nil = fonts.Default()
	// Remote loads http(s) images that are not our uploads. nil = HTTP.
	Remote export.Loader
}

// Server serves the API.
type Server struct {
	cfg    *config.Config
	reg    *template.Registry
	fonts  *fonts.Manager
	assets *assetManager
	loader export.Loader
	mux    *http.ServeMux
}

// New builds a server and its routes.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Defaults()
	}
	reg := opts.Registry
	if reg == nil {
		reg = template.Builtin()
	}
	s := &Server{
		cfg:    cfg,
		reg:    reg,
		fonts:  opts.Fonts,
		assets: newAssetManager(cfg.Server.PublicURL),
	}

	remote := opts.Remote
	if remote == nil {
		remote = &export.HTTPLoader{Client: &http.Client{Timeout: 30 * time.Second}}
	}
	var local export.Loader
	if cfg.Assets.Dir != "" {
		local = &export.FSLoader{FS: os.DirFS(cfg.Assets.Dir)}
	}
	s.loader = export.RouteLoader{Remote: localFirst{assets: s.assets, next: remote}, Local: local}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/templates", s.handleTemplates)
	mux.HandleFunc("GET /api/stickers", s.handleStickers)
	mux.HandleFunc("POST /api/preview", s.handlePreview)
	mux.HandleFunc("POST /api/export/png", s.handleExportPNG)
	mux.HandleFunc("POST /api/upload/image", s.handleUploadImage)
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)

	// Static template and sticker images.
	if cfg.Assets.Dir != "" {
		files := http.FileServer(http.Dir(cfg.Assets.Dir))
		mux.Handle("GET /templates/", files)
		mux.Handle("GET /stickers/", files)
	}
	s.mux = mux
	return s
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler { return logRequests(s.mux) }

// Uploader exposes the asset store to in-process editors. Without
// Server.PublicURL the returned URLs are root-relative.
func (s *Server) Uploader() editor.Uploader { return s.assets }

// Run serves on cfg.Server.Addr until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	s := New(opts)
	hs := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	logging.Logger().Info("serving", "addr", hs.Addr, "assets", s.cfg.Assets.Dir)

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ── Catalog ──

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reg.List())
}

func (s *Server) handleStickers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.reg.Stickers())
}

// ── Render ──

// decodeCard reads a persisted card from the request body and resolves its
// template.
func (s *Server) decodeCard(r *http.Request) (*card.Card, *template.Template, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCardBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	c, warnings, err := card.Decode(body)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		logging.Logger().Warn("card sanitized", "template", c.TemplateID, "warning", w)
	}
	return c, s.reg.Resolve(c.TemplateID), nil
}

func (s *Server) measurer() layout.Measurer {
	if s.fonts != nil {
		return s.fonts
	}
	if fm, err := fonts.Default(); err == nil {
		return fm
	}
	return nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	c, tpl, err := s.decodeCard(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts := preview.DefaultOptions
	opts.Width = s.cfg.Preview.Width
	q := r.URL.Query()
	if v, err := strconv.ParseFloat(q.Get("width"), 64); err == nil && v > 0 {
		opts.Width = v
	}
	if v, err := strconv.ParseBool(q.Get("outlines")); err == nil {
		opts.ShowOutlines = v
	}
	sc := layout.Compose(c, tpl, layout.Options{Measurer: s.measurer()})
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := preview.Render(w, sc, opts); err != nil {
		logging.Logger().Error("preview write", "err", err)
	}
}

func (s *Server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	c, tpl, err := s.decodeCard(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ex := export.New(export.Config{Loader: s.loader, Fonts: s.fonts, Concurrency: s.cfg.Export.Concurrency})
	img, err := ex.Export(r.Context(), c, tpl)
	if err != nil {
		http.Error(w, err.Error(), exportStatus(err))
		return
	}
	name := generator.FileName(generator.Slug(r.URL.Query().Get("slug")))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if err := generator.EncodePNG(w, img); err != nil {
		logging.Logger().Error("export write", "err", err)
	}
}

// exportStatus maps an export failure to an HTTP status.
func exportStatus(err error) int {
	switch export.KindOf(err) {
	case export.KindLoad, export.KindDecode:
		return http.StatusBadGateway
	case export.KindBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ── Upload ──

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(data) > MaxUploadBytes {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	url, err := s.assets.Upload(r.Context(), editor.LocalImage{
		Name:        filepath.Base(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	id, _ := s.assets.idFromURL(url)
	a, _ := s.assets.get(id)
	info := s.assets.info(id, a)
	// Without a public URL the card must still carry an absolute http(s)
	// URL or the exporter treats the photo as unresolved.
	if !card.IsRemoteURL(info.URL) {
		info.URL = requestOrigin(r) + info.URL
	}
	logging.Logger().Info("image uploaded", "id", id, "name", a.Name, "size", len(a.Data), "url", info.URL)
	writeJSON(w, info)
}

// requestOrigin returns scheme://host as the client addressed the server.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	host := r.Host
	if h := r.Header.Get("X-Forwarded-Host"); h != "" {
		host = h
	}
	return scheme + "://" + host
}

// ── Asset serving ──

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(a.Data)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.assets.listAll())
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Error("write json", "err", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		args := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "bytes", rec.bytes, "took", time.Since(start)}
		log := logging.Logger()
		switch {
		case rec.status >= 500:
			log.Warn("request", args...)
		case strings.HasPrefix(r.URL.Path, "/templates/"), strings.HasPrefix(r.URL.Path, "/stickers/"):
			log.Debug("request", args...)
		default:
			log.Info("request", args...)
		}
	})
}
