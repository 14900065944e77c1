// Package generator writes rendered cards out as image artifacts.
//
// All output follows one pipeline: the export compositor produces an
// image.Image, and the file extension picks the encoder.
package generator

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// Encoder writes an image in one format.
type Encoder func(io.Writer, image.Image) error

var encoders = map[string]Encoder{
	".png":  EncodePNG,
	".bmp":  EncodeBMP,
	".jpg":  EncodeJPEG,
	".jpeg": EncodeJPEG,
}

// EncoderFor returns the encoder for a file extension such as ".png".
func EncoderFor(ext string) (Encoder, error) {
	enc, ok := encoders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q: use .png, .bmp or .jpg", ext)
	}
	return enc, nil
}

// Generate writes img to output. The format is inferred from the extension.
func Generate(output string, img image.Image) error {
	enc, err := EncoderFor(filepath.Ext(output))
	if err != nil {
		return err
	}
	return writeFile(output, img, enc)
}

// GenerateToWriter writes img to w in the format named by ext. This is
// useful for in-memory generation (e.g., WASM or HTTP responses).
func GenerateToWriter(w io.Writer, ext string, img image.Image) error {
	enc, err := EncoderFor(ext)
	if err != nil {
		return err
	}
	return enc(w, img)
}

var unsafeSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses everything but letters and digits into
// single dashes.
func Slug(s string) string {
	return strings.Trim(unsafeSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// FileName returns the download name of an exported card.
func FileName(slug string) string {
	slug = Slug(slug)
	if slug == "" {
		slug = "export"
	}
	return "card-" + slug + ".png"
}
