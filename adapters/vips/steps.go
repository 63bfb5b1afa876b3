package vips

import (
	"context"
	"fmt"
	"image/color"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/enhance"
	apperrors "github.com/brightroom/brightroom/errors"
)

// step adapts a single in-place libvips operation to core.Step.  The decode
// step creates a fresh ImageRef per request, so mutating it in place is safe.
type step struct {
	name string
	fn   func(ref *govips.ImageRef) error
}

func (s *step) Name() string { return "vips." + s.name }

func (s *step) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	vi, ok := img.Image.(*Image)
	if !ok || vi == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(),
			fmt.Errorf("expected vips image; use the vips backend for decode"))
	}
	if err := s.fn(vi.ref); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	out := *img
	out.Meta.Width = vi.ref.Width()
	out.Meta.Height = vi.ref.Height()
	return &out, nil
}

// Factory builds libvips-backed transform primitives.
type Factory struct{}

func (Factory) Brightness(factor float64) core.Step {
	return &step{name: "brightness", fn: func(ref *govips.ImageRef) error {
		return ref.Modulate(factor, 1, 0)
	}}
}

func (Factory) Saturation(factor float64) core.Step {
	return &step{name: "saturation", fn: func(ref *govips.ImageRef) error {
		return ref.Modulate(1, factor, 0)
	}}
}

func (Factory) Contrast(factor float64) core.Step {
	return &step{name: "contrast", fn: func(ref *govips.ImageRef) error {
		// out = f·in + 128·(1-f): scales distance from mid-gray.
		return ref.Linear1(factor, 128*(1-factor))
	}}
}

func (Factory) Sharpen(radius, amount float64) core.Step {
	if radius <= 0 {
		radius = 1
	}
	if amount <= 0 {
		amount = 1
	}
	return &step{name: "sharpen", fn: func(ref *govips.ImageRef) error {
		return ref.Sharpen(radius, 2, amount)
	}}
}

func (Factory) Scale(factor float64) core.Step {
	return &step{name: "scale", fn: func(ref *govips.ImageRef) error {
		return ref.Resize(factor, govips.KernelLanczos3)
	}}
}

func (Factory) Grayscale() core.Step {
	return &step{name: "grayscale", fn: func(ref *govips.ImageRef) error {
		return ref.ToColorSpace(govips.InterpretationBW)
	}}
}

func (Factory) Tint(tone color.NRGBA) core.Step {
	maxC := float64(tone.R)
	if float64(tone.G) > maxC {
		maxC = float64(tone.G)
	}
	if float64(tone.B) > maxC {
		maxC = float64(tone.B)
	}
	if maxC == 0 {
		maxC = 255
	}
	return &step{name: "tint", fn: func(ref *govips.ImageRef) error {
		// Flatten to luminance, expand back to three bands, then scale each
		// band by the normalized tone.
		if err := ref.ToColorSpace(govips.InterpretationBW); err != nil {
			return err
		}
		if err := ref.ToColorSpace(govips.InterpretationSRGB); err != nil {
			return err
		}
		return ref.Linear(
			[]float64{float64(tone.R) / maxC, float64(tone.G) / maxC, float64(tone.B) / maxC},
			[]float64{0, 0, 0},
		)
	}}
}

func (Factory) Posterize(levels int) core.Step {
	if levels < 2 {
		levels = 2
	}
	q := 255.0 / float64(levels-1)
	return &step{name: "posterize", fn: func(ref *govips.ImageRef) error {
		// Quantise by scaling down, rounding through a uchar cast, and
		// scaling back up.
		if err := ref.Linear1(1/q, 0); err != nil {
			return err
		}
		if err := ref.Cast(govips.BandFormatUchar); err != nil {
			return err
		}
		if err := ref.Linear1(q, 0); err != nil {
			return err
		}
		return ref.Cast(govips.BandFormatUchar)
	}}
}

func (Factory) Blur(radius float64) core.Step {
	return &step{name: "blur", fn: func(ref *govips.ImageRef) error {
		return ref.GaussianBlur(radius)
	}}
}

func (Factory) Rotate90() core.Step {
	return &step{name: "rotate", fn: func(ref *govips.ImageRef) error {
		return ref.Rotate(govips.Angle90)
	}}
}

func (Factory) Crop(x, y, width, height int) core.Step {
	return &step{name: "crop", fn: func(ref *govips.ImageRef) error {
		return ref.ExtractArea(x, y, width, height)
	}}
}

func (Factory) Invert() core.Step {
	return &step{name: "invert", fn: func(ref *govips.ImageRef) error {
		return ref.Invert()
	}}
}

var _ enhance.StepFactory = Factory{}
