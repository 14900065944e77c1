// loader.go - Image sources for the export compositor.
package export

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/xob0t/CardStencil/pkg/card"
)

// Loader fetches and decodes one image. Implementations must honour ctx and
// should return *Error values with KindLoad or KindDecode.
type Loader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, src string) (image.Image, error) { return f(ctx, src) }

// MaxImageBytes caps a single fetched image.
const MaxImageBytes = 32 << 20

// Decode reads one PNG, JPEG, GIF, WebP or BMP image.
func Decode(src string, r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(io.LimitReader(r, MaxImageBytes))
	if err != nil {
		return nil, &Error{Op: "decode image", Kind: KindDecode, URL: src, Err: err}
	}
	return img, nil
}

// HTTPLoader fetches images over HTTP. Root-relative sources such as
// "/templates/t1.png" are resolved against BaseURL.
type HTTPLoader struct {
	Client  *http.Client
	BaseURL string
}

func (l *HTTPLoader) Load(ctx context.Context, src string) (image.Image, error) {
	u := src
	if !card.IsRemoteURL(u) {
		if l.BaseURL == "" {
			return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: fmt.Errorf("no base URL for relative source")}
		}
		u = strings.TrimSuffix(l.BaseURL, "/") + "/" + strings.TrimPrefix(u, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: err}
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return Decode(src, resp.Body)
}

// FSLoader reads images from a file system. A leading "/" is stripped, so
// "/stickers/kiss.png" opens "stickers/kiss.png".
type FSLoader struct {
	FS fs.FS
}

func (l *FSLoader) Load(ctx context.Context, src string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: err}
	}
	f, err := l.FS.Open(strings.TrimPrefix(src, "/"))
	if err != nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: err}
	}
	defer f.Close()
	return Decode(src, f)
}

// MapLoader serves pre-decoded images by source string.
type MapLoader map[string]image.Image

func (m MapLoader) Load(ctx context.Context, src string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: err}
	}
	img, ok := m[src]
	if !ok {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: fs.ErrNotExist}
	}
	return img, nil
}

// RouteLoader sends http(s) sources to Remote and everything else to Local.
// A nil route fails the load.
type RouteLoader struct {
	Remote Loader
	Local  Loader
}

func (r RouteLoader) Load(ctx context.Context, src string) (image.Image, error) {
	l := r.Local
	if card.IsRemoteURL(src) {
		l = r.Remote
	}
	if l == nil {
		return nil, &Error{Op: "load image", Kind: KindLoad, URL: src, Err: fmt.Errorf("no loader for source")}
	}
	return l.Load(ctx, src)
}
