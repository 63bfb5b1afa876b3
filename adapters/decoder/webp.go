package decoder

import (
	"context"
	"io"

	"golang.org/x/image/webp"

	"github.com/brightroom/brightroom/core"
	apperrors "github.com/brightroom/brightroom/errors"
)

// WebP decodes WebP images using golang.org/x/image/webp.
// NOTE: golang.org/x/image/webp only supports lossy WebP decoding; for
// lossless or animated WebP select the vips backend.
type WebP struct{}

// NewWebP returns an initialised WebP decoder.
func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool {
	return format == core.FormatWebP
}

func (w *WebP) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "webp.decode", err)
	}

	img, err := webp.Decode(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, "webp.decode", err)
	}

	bounds := img.Bounds()
	return &core.ImageData{
		Image:  img,
		Format: core.FormatWebP,
		Meta: core.Metadata{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Format: core.FormatWebP,
		},
	}, nil
}
