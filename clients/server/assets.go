// assets.go - In-memory store for uploaded photos.
package server

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xob0t/CardStencil/pkg/editor"
	"github.com/xob0t/CardStencil/pkg/export"
)

// MaxUploadBytes caps one uploaded image.
const MaxUploadBytes = 10 << 20

type asset struct {
	Name    string
	Data    []byte
	Mime    string
	Width   int
	Height  int
	Created time.Time
}

type assetManager struct {
	mu      sync.RWMutex
	assets  map[string]*asset
	baseURL string // public origin, "" = root-relative URLs
}

func newAssetManager(baseURL string) *assetManager {
	return &assetManager{assets: make(map[string]*asset), baseURL: strings.TrimRight(baseURL, "/")}
}

func (am *assetManager) add(a *asset) string {
	id := uuid.NewString()
	am.mu.Lock()
	am.assets[id] = a
	am.mu.Unlock()
	return id
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

type assetInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mime   string `json:"mime"`
	Size   int    `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

func (am *assetManager) info(id string, a *asset) assetInfo {
	return assetInfo{ID: id, Name: a.Name, Mime: a.Mime, Size: len(a.Data), Width: a.Width, Height: a.Height, URL: am.url(id)}
}

func (am *assetManager) listAll() []assetInfo {
	am.mu.RLock()
	defer am.mu.RUnlock()
	out := make([]assetInfo, 0, len(am.assets))
	for id, a := range am.assets {
		out = append(out, am.info(id, a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (am *assetManager) url(id string) string { return am.baseURL + "/api/assets/" + id }

// idFromURL returns the asset id of a URL this manager handed out.
func (am *assetManager) idFromURL(u string) (string, bool) {
	prefix := am.url("")
	if am.baseURL == "" {
		// Root-relative URLs come back absolute from the client; match the path.
		if i := strings.Index(u, "/api/assets/"); i >= 0 {
			return u[i+len("/api/assets/"):], true
		}
		return "", false
	}
	if strings.HasPrefix(u, prefix) {
		return strings.TrimPrefix(u, prefix), true
	}
	return "", false
}

// Upload implements editor.Uploader. The bytes must decode as an image.
func (am *assetManager) Upload(ctx context.Context, img editor.LocalImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return "", &export.Error{Op: "upload image", Kind: export.KindDecode, Err: err}
	}
	mime := img.ContentType
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/" + format
	}
	id := am.add(&asset{
		Name:    img.Name,
		Data:    img.Data,
		Mime:    mime,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Created: time.Now(),
	})
	return am.url(id), nil
}

// Load implements export.Loader for URLs this manager handed out.
func (am *assetManager) Load(ctx context.Context, src string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &export.Error{Op: "load image", Kind: export.KindLoad, URL: src, Err: err}
	}
	id, _ := am.idFromURL(src)
	a, ok := am.get(id)
	if !ok {
		return nil, &export.Error{Op: "load image", Kind: export.KindLoad, URL: src, Err: errAssetNotFound}
	}
	return export.Decode(src, bytes.NewReader(a.Data))
}

// localFirst serves our own asset URLs from memory and everything else from
// next.
type localFirst struct {
	assets *assetManager
	next   export.Loader
}

func (l localFirst) Load(ctx context.Context, src string) (image.Image, error) {
	if _, ok := l.assets.idFromURL(src); ok {
		return l.assets.Load(ctx, src)
	}
	return l.next.Load(ctx, src)
}
