package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/brightroom/brightroom/core"
	apperrors "github.com/brightroom/brightroom/errors"
)

// nativeImage extracts the decoded image.Image or fails with a pipeline error.
func nativeImage(img *core.ImageData, op string) (image.Image, error) {
	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, op, apperrors.ErrEmptyInput)
	}
	return src, nil
}

// toNRGBA renders src into a mutable NRGBA buffer anchored at the origin.
func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes raw bytes in img.Data into a pixel buffer.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Image != nil {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	dec, ok := s.Registry.DecoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	decoded, err := dec.Decode(ctx, bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}

	// Preserve the raw bytes alongside the decoded representation.
	decoded.Data = img.Data
	return decoded, nil
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the pixel buffer into encoded bytes using the registry.
type EncodeStep struct {
	Registry core.Registry
	Options  core.EncodeOptions
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	enc, ok := s.Registry.EncoderFor(img.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format))
	}

	data, err := enc.Encode(ctx, img, s.Options)
	if err != nil {
		return nil, err
	}

	out := *img
	out.Data = data
	out.Meta.SizeBytes = int64(len(data))
	return &out, nil
}

// ── Scale ─────────────────────────────────────────────────────────────────────

// ScaleStep resizes the image by a width factor, preserving aspect ratio.
// The output width is round(Factor × source width).
type ScaleStep struct {
	Factor float64
	// Resampler controls quality vs speed.  Defaults to draw.BiLinear.
	Resampler xdraw.Interpolator
}

func (s *ScaleStep) Name() string { return "scale" }

func (s *ScaleStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	src, err := nativeImage(img, s.Name())
	if err != nil {
		return nil, err
	}

	srcB := src.Bounds()
	dstW := int(math.Round(s.Factor * float64(srcB.Dx())))
	if dstW <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrInvalidDimensions)
	}
	if dstW == srcB.Dx() {
		return img, nil // nothing to do
	}
	dstH := int(math.Round(float64(srcB.Dy()) * float64(dstW) / float64(srcB.Dx())))
	if dstH <= 0 {
		dstH = 1
	}

	sampler := s.Resampler
	if sampler == nil {
		sampler = xdraw.BiLinear
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	sampler.Scale(dst, dst.Bounds(), src, srcB, xdraw.Over, nil)

	out := *img
	out.Image = dst
	out.Meta.Width = dstW
	out.Meta.Height = dstH
	return &out, nil
}

// ── Crop ──────────────────────────────────────────────────────────────────────

// CropStep extracts a fixed rectangle from the image.
type CropStep struct {
	X, Y, Width, Height int
}

func (s *CropStep) Name() string { return "crop" }

func (s *CropStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	src, err := nativeImage(img, s.Name())
	if err != nil {
		return nil, err
	}

	rect := image.Rect(s.X, s.Y, s.X+s.Width, s.Y+s.Height).Add(src.Bounds().Min)
	if !rect.In(src.Bounds()) {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(),
			fmt.Errorf("crop rect %v exceeds image bounds %v", rect, src.Bounds()))
	}

	dst := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

	out := *img
	out.Image = dst
	out.Meta.Width = s.Width
	out.Meta.Height = s.Height
	return &out, nil
}

// ── Grayscale ─────────────────────────────────────────────────────────────────

// GrayscaleStep converts the image to grayscale.
type GrayscaleStep struct{}

func (s *GrayscaleStep) Name() string { return "grayscale" }

func (s *GrayscaleStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	src, err := nativeImage(img, s.Name())
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.NRGBA{R: g.Y, G: g.Y, B: g.Y, A: 255})
		}
	}

	out := *img
	out.Image = dst
	return &out, nil
}

// ── Rotate ────────────────────────────────────────────────────────────────────

// RotateStep rotates the image 90° clockwise.
type RotateStep struct{}

func (s *RotateStep) Name() string { return "rotate" }

func (s *RotateStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	src, err := nativeImage(img, s.Name())
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, src.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	out := *img
	out.Image = dst
	out.Meta.Width = h
	out.Meta.Height = w
	return &out, nil
}
