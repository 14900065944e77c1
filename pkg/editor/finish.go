// finish.go - Upload pending photos and produce the persisted card.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xob0t/CardStencil/pkg/card"
	"github.com/xob0t/CardStencil/pkg/logging"
)

// UploadConcurrency bounds parallel uploads in Finish.
const UploadConcurrency = 3

// Finish uploads every photo that is still local, concurrently, and returns
// the card in its persisted form. Empty text layers are left out and layer
// ids are not persisted. A failed upload fails Finish and leaves the
// session unchanged for a retry; successful uploads are kept.
func (s *Session) Finish(ctx context.Context, up Uploader) (card.Wire, error) {
	type pending struct {
		slot int
		ref  string
		img  LocalImage
	}

	s.mu.Lock()
	var todo []pending
	for _, i := range s.slotOrder() {
		if i >= card.MaxPhotos {
			break
		}
		sl := s.slots[i]
		if sl.local != nil {
			todo = append(todo, pending{slot: i, ref: sl.photo.URL, img: *sl.local})
		}
	}
	s.mu.Unlock()

	var mu sync.Mutex
	urls := make(map[int]string, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(UploadConcurrency)
	for _, p := range todo {
		g.Go(func() error {
			url, err := up.Upload(gctx, p.img)
			if err != nil {
				return fmt.Errorf("upload photo %d: %w", p.slot, err)
			}
			mu.Lock()
			urls[p.slot] = url
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range todo {
		url, ok := urls[p.slot]
		if !ok {
			continue
		}
		// The slot may have been replaced while uploading.
		if sl := s.slots[p.slot]; sl != nil && sl.photo.URL == p.ref {
			sl.photo.URL = url
			sl.local = nil
			s.blobs.Revoke(p.ref)
		}
	}
	if err != nil {
		return card.Wire{}, err
	}

	c := s.snapshot()
	var photos []card.PhotoElement
	for _, p := range c.Photos {
		if p.FrameIndex < card.MaxPhotos {
			photos = append(photos, p)
		}
	}
	c.Photos = photos
	var texts []card.TextLayer
	for _, t := range c.TextLayers {
		if strings.TrimSpace(t.Content) != "" {
			texts = append(texts, t)
		}
	}
	c.TextLayers = texts

	w := c.Wire()
	for i := range w.Stickers {
		w.Stickers[i].ID = ""
	}
	for i := range w.TextLayers {
		w.TextLayers[i].ID = ""
	}
	logging.Logger().Info("card finished", "template", c.TemplateID, "photos", len(w.Photos), "uploaded", len(urls), "stickers", len(w.Stickers), "texts", len(w.TextLayers))
	return w, nil
}
