// Package imageprep downsizes and filters captured photos before upload.
package imageprep

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
)

const (
	MaxEdge     = 1920
	JPEGQuality = 92
	ContentType = "image/jpeg"
)

// ErrUnsupportedFormat is returned for images the process cannot decode (webp, heic).
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Prepare decodes r, shrinks it to MaxEdge on the long side, applies filter and
// encodes a JPEG. Smaller images keep their size.
func Prepare(r io.Reader, filter Filter) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = resize.Thumbnail(MaxEdge, MaxEdge, img, resize.Lanczos3)
	if filter != nil {
		img = filter.Apply(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
