// png.go - PNG encoding of rendered cards.
package generator

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := pngEncoder.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// WritePNG encodes img to a PNG file at the given path.
func WritePNG(output string, img image.Image) error {
	return writeFile(output, img, EncodePNG)
}

func writeFile(output string, img image.Image, enc func(io.Writer, image.Image) error) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := enc(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", output, err)
	}
	return nil
}
