package llm

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/pavelanni/scaffold/internal/model"
)

// MaxImageSide bounds the longer side of images sent for extraction.
const MaxImageSide = 2048

// ErrInvalidCrop is returned when the crop rectangle lies outside the image.
var ErrInvalidCrop = errors.New("crop rectangle outside image")

// PrepareImage decodes an upload, applies the optional crop and scales the
// result so its longer side fits MaxImageSide. The output is always PNG.
func PrepareImage(raw []byte, crop *model.Crop) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if crop != nil {
		r := image.Rect(crop.X, crop.Y, crop.X+crop.Width, crop.Y+crop.Height).
			Add(b.Min).
			Intersect(b)
		if r.Empty() {
			return nil, fmt.Errorf("%w: %dx%d+%d+%d", ErrInvalidCrop, crop.Width, crop.Height, crop.X, crop.Y)
		}
		cropped := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
		draw.Draw(cropped, cropped.Bounds(), img, r.Min, draw.Src)
		img = cropped
		b = img.Bounds()
	}

	if w, h := b.Dx(), b.Dy(); max(w, h) > MaxImageSide {
		scale := float64(MaxImageSide) / float64(max(w, h))
		dst := image.NewRGBA(image.Rect(0, 0, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
