// Package images turns uploaded recipe photos into stored objects.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// ErrInvalidImage is returned when the upload is not a decodable image.
var ErrInvalidImage = errors.New("upload a valid image. The file you uploaded was either not an image or a corrupted image")

const jpegQuality = 85

// Processed is an encoded image ready to be stored.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Limits bounds the images Process accepts and produces.
type Limits struct {
	// MaxDimension is the longest side of the stored image. Zero disables
	// scaling.
	MaxDimension uint
	// MaxPixels caps width*height of the upload, checked from the header
	// before any pixel data is decoded. Zero disables the check.
	MaxPixels int64
}

// Process decodes r, scales it down to fit within the limits on both sides
// and re-encodes it. PNG input stays PNG; everything else becomes JPEG.
func Process(r io.Reader, limits Limits) (*Processed, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if limits.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > limits.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, limits.MaxPixels)
	}

	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrInvalidImage
	}

	if width, height, ok := fitWithin(bounds.Dx(), bounds.Dy(), limits.MaxDimension); ok {
		img = resize.Resize(width, height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	out := &Processed{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	switch format {
	case "png":
		err = png.Encode(&buf, img)
		out.ContentType, out.Ext = "image/png", "png"
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
		out.ContentType, out.Ext = "image/jpeg", "jpg"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	out.Data = buf.Bytes()
	return out, nil
}

// fitWithin returns the scaled size of a w x h image whose longer side
// becomes max, keeping the aspect ratio. ok is false when no scaling is
// needed.
func fitWithin(w, h int, max uint) (uint, uint, bool) {
	if max == 0 || (uint(w) <= max && uint(h) <= max) {
		return 0, 0, false
	}
	aspectRatio := float64(w) / float64(h)
	if w >= h {
		height := uint(float64(max) / aspectRatio)
		return max, maxUint(height, 1), true
	}
	width := uint(float64(max) * aspectRatio)
	return maxUint(width, 1), max, true
}

func maxUint(a, b uint) uint {
	if a > b {
		return a
	}
	return b
}

// NewKey returns a fresh storage key for a recipe image.
func NewKey(ext string) string {
	return fmt.Sprintf("uploads/recipe/%s.%s", uuid.New().String(), ext)
}
