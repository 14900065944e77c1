// blobs.go - Local image references held until upload.
package editor

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BlobPrefix marks a local, not yet uploaded image reference.
const BlobPrefix = "blob:"

// LocalImage is a picked image that only exists on this device.
type LocalImage struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int // natural pixel size, used to choose the fit
	Height      int
}

// BlobStore hands out preview references for local images and releases
// them again.
type BlobStore interface {
	Put(img LocalImage) string
	Get(ref string) (LocalImage, bool)
	Revoke(ref string)
}

// Uploader stores a local image remotely and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, img LocalImage) (string, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, img LocalImage) (string, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, img LocalImage) (string, error) {
	return f(ctx, img)
}

// MemoryBlobs is an in-memory BlobStore.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string]LocalImage
}

// NewMemoryBlobs returns an empty store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string]LocalImage)}
}

// Put stores img under a fresh blob: reference.
func (m *MemoryBlobs) Put(img LocalImage) string {
	ref := BlobPrefix + uuid.NewString()
	m.mu.Lock()
	m.blobs[ref] = img
	m.mu.Unlock()
	return ref
}

// Get returns the image behind ref.
func (m *MemoryBlobs) Get(ref string) (LocalImage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.blobs[ref]
	return img, ok
}

// Revoke forgets ref. Unknown references are ignored.
func (m *MemoryBlobs) Revoke(ref string) {
	m.mu.Lock()
	delete(m.blobs, ref)
	m.mu.Unlock()
}

// Len returns the number of live references.
func (m *MemoryBlobs) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// IsBlob reports whether s is a local reference.
func IsBlob(s string) bool { return strings.HasPrefix(s, BlobPrefix) }
