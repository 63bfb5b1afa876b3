package pipeline

import (
	"context"
	"image"
	"math"

	"github.com/brightroom/brightroom/core"
	apperrors "github.com/brightroom/brightroom/errors"
	"github.com/brightroom/brightroom/utils"
)

// gaussianKernel builds a normalized 1D kernel for the given sigma.
func gaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 1
	}
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveSeparable runs the 1D kernel horizontally then vertically over all
// four channels, clamping samples at the image edge.
func convolveSeparable(src *image.NRGBA, kernel []float64) *image.NRGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	radius := len(kernel) / 2

	tmp := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k := -radius; k <= radius; k++ {
				sx := x + k
				if sx < 0 {
					sx = 0
				} else if sx >= w {
					sx = w - 1
				}
				weight := kernel[k+radius]
				o := src.PixOffset(sx, y)
				for c := 0; c < 4; c++ {
					acc[c] += weight * float64(src.Pix[o+c])
				}
			}
			o := tmp.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				tmp.Pix[o+c] = utils.ClampUint8(acc[c])
			}
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k := -radius; k <= radius; k++ {
				sy := y + k
				if sy < 0 {
					sy = 0
				} else if sy >= h {
					sy = h - 1
				}
				weight := kernel[k+radius]
				o := tmp.PixOffset(x, sy)
				for c := 0; c < 4; c++ {
					acc[c] += weight * float64(tmp.Pix[o+c])
				}
			}
			o := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				dst.Pix[o+c] = utils.ClampUint8(acc[c])
			}
		}
	}
	return dst
}

// ── Gaussian blur ─────────────────────────────────────────────────────────────

// BlurStep applies a gaussian blur with the given radius (sigma).
type BlurStep struct {
	Radius float64
}

func (s *BlurStep) Name() string { return "blur" }

func (s *BlurStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	src, err := nativeImage(img, s.Name())
	if err != nil {
		return nil, err
	}

	dst := convolveSeparable(toNRGBA(src), gaussianKernel(s.Radius))

	out := *img
	out.Image = dst
	return &out, nil
}

// ── Sharpen ───────────────────────────────────────────────────────────────────

// SharpenStep sharpens via unsharp masking: the blurred image is subtracted
// from the original and the difference is amplified by Amount.  Radius is the
// gaussian sigma of the mask.  Zero values fall back to the default kernel
// (radius 1, amount 1).
type SharpenStep struct {
	Radius float64
	Amount float64
}

func (s *SharpenStep) Name() string { return "sharpen" }

func (s *SharpenStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	src, err := nativeImage(img, s.Name())
	if err != nil {
		return nil, err
	}

	radius := s.Radius
	if radius <= 0 {
		radius = 1
	}
	amount := s.Amount
	if amount <= 0 {
		amount = 1
	}

	base := toNRGBA(src)
	blurred := convolveSeparable(base, gaussianKernel(radius))

	dst := image.NewNRGBA(base.Bounds())
	for i := 0; i < len(base.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := float64(base.Pix[i+c])
			diff := orig - float64(blurred.Pix[i+c])
			dst.Pix[i+c] = utils.ClampUint8(orig + amount*diff)
		}
		dst.Pix[i+3] = base.Pix[i+3]
	}

	out := *img
	out.Image = dst
	return &out, nil
}
