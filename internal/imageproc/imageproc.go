// Package imageproc decodes raw image bytes for page sizing and the scan
// report. Format registrations cover the six extensions the archive layer
// accepts as pages.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"comicshelf/internal/archive"
)

// Processor reports pixel dimensions and decodes pages. Stateless, safe to
// share across callers.
type Processor struct{}

// New returns a Processor.
func New() *Processor {
	return &Processor{}
}

// Dimensions returns the pixel width and height of the image encoded in
// data. Only the header is decoded, so this is cheap relative to Decode.
func (p *Processor) Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", archive.ErrImageProcessing, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Decode fully decodes the image, honoring EXIF orientation.
func (p *Processor) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrImageProcessing, err)
	}
	return img, nil
}
