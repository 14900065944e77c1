// loader.go - Load YAML catalogs and .cardpack (ZIP) bundles.
package template

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xob0t/CardStencil/pkg/logging"
)

// BundleExt is the file extension of zipped catalogs.
const BundleExt = ".cardpack"

// catalogName is the catalog file inside a bundle.
const catalogName = "catalog.yaml"

// ParseCatalog decodes a YAML (or JSON) catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &cat, nil
}

// LoadCatalog reads a catalog file from disk. Relative asset paths are
// resolved against the file's directory.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	resolveAssetPaths(cat, filepath.Dir(path))
	return cat, nil
}

// LoadBundle opens a .cardpack ZIP, extracts it to a temp directory, parses
// catalog.yaml and resolves all asset paths into the extracted tree.
// The returned cleanup function removes the temp directory.
func LoadBundle(path string) (*Catalog, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "cardpack-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	cat, err := LoadCatalog(filepath.Join(tmpDir, catalogName))
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return cat, cleanup, nil
}

// LoadFile loads a catalog or bundle, picking the format from the extension,
// merges it into r and returns validator warnings for the merged templates.
// The cleanup function must be called once the bundle's assets are no
// longer needed.
func (r *Registry) LoadFile(path string) ([]string, func(), error) {
	var (
		cat     *Catalog
		cleanup = func() {}
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case BundleExt, ".zip":
		cat, cleanup, err = LoadBundle(path)
	default:
		cat, err = LoadCatalog(path)
	}
	if err != nil {
		return nil, cleanup, err
	}

	r.Merge(*cat)

	var warnings []string
	for _, t := range cat.Templates {
		if merged, ok := r.Get(t.ID); ok {
			warnings = append(warnings, Validate(merged)...)
		}
	}
	logging.Logger().Info("catalog loaded", "path", path,
		"templates", len(cat.Templates), "stickers", len(cat.Stickers), "warnings", len(warnings))
	return warnings, cleanup, nil
}

// resolveAssetPaths makes relative file references absolute using baseDir.
// URLs and rooted web paths ("/templates/t1.png") are left alone.
func resolveAssetPaths(cat *Catalog, baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.Contains(p, "://") {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	for i := range cat.Templates {
		cat.Templates[i].Background = resolve(cat.Templates[i].Background)
	}
	for i := range cat.Stickers {
		cat.Stickers[i].Src = resolve(cat.Stickers[i].Src)
	}
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
