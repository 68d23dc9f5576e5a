package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

const jpegQuality = 85

var ErrUnsupportedImage = errors.New("unsupported image")

// NormalizeImage decodes an uploaded picture, applies EXIF orientation,
// shrinks it to maxWidth when wider and re-encodes it as JPEG.
func NormalizeImage(content []byte, maxWidth int) ([]byte, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
