// bmp.go - BMP and JPEG encoding for callers that need a non-PNG artifact.
package generator

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"golang.org/x/image/bmp"
)

// EncodeBMP writes img as an uncompressed BMP.
func EncodeBMP(w io.Writer, img image.Image) error {
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("encode BMP: %w", err)
	}
	return nil
}

// EncodeJPEG writes img as a quality 90 JPEG. Transparency is lost.
func EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encode JPEG: %w", err)
	}
	return nil
}
