package pipeline

import (
	"context"
	"image/color"
	"math"

	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/utils"
)

// mapChannels applies fn to every pixel's RGB channels, leaving alpha intact.
func mapChannels(img *core.ImageData, op string, fn func(r, g, b float64) (float64, float64, float64)) (*core.ImageData, error) {
	src, err := nativeImage(img, op)
	if err != nil {
		return nil, err
	}

	dst := toNRGBA(src)
	pix := dst.Pix
	for i := 0; i < len(pix); i += 4 {
		r, g, b := fn(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]))
		pix[i] = utils.ClampUint8(r)
		pix[i+1] = utils.ClampUint8(g)
		pix[i+2] = utils.ClampUint8(b)
	}

	out := *img
	out.Image = dst
	return &out, nil
}

// luma returns the perceptual luminance of an RGB triple (Rec. 601 weights).
func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// ── Brightness ────────────────────────────────────────────────────────────────

// BrightnessStep multiplies each channel by Factor.  Factor 1.0 is identity.
type BrightnessStep struct {
	Factor float64
}

func (s *BrightnessStep) Name() string { return "brightness" }

func (s *BrightnessStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	f := s.Factor
	return mapChannels(img, s.Name(), func(r, g, b float64) (float64, float64, float64) {
		return r * f, g * f, b * f
	})
}

// ── Saturation ────────────────────────────────────────────────────────────────

// SaturationStep scales each channel's distance from the pixel's luminance.
// Factor 1.0 is identity; 0 collapses to grayscale.
type SaturationStep struct {
	Factor float64
}

func (s *SaturationStep) Name() string { return "saturation" }

func (s *SaturationStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	f := s.Factor
	return mapChannels(img, s.Name(), func(r, g, b float64) (float64, float64, float64) {
		l := luma(r, g, b)
		return l + (r-l)*f, l + (g-l)*f, l + (b-l)*f
	})
}

// ── Contrast ──────────────────────────────────────────────────────────────────

// ContrastStep scales each channel's distance from mid-gray.
type ContrastStep struct {
	Factor float64
}

func (s *ContrastStep) Name() string { return "contrast" }

func (s *ContrastStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	f := s.Factor
	return mapChannels(img, s.Name(), func(r, g, b float64) (float64, float64, float64) {
		return (r-128)*f + 128, (g-128)*f + 128, (b-128)*f + 128
	})
}

// ── Tint ──────────────────────────────────────────────────────────────────────

// TintStep recolours the image with the chroma of Tone while preserving each
// pixel's luminance.  The tone is normalized against its own maximum channel
// so the brightest regions keep their level.
type TintStep struct {
	Tone color.NRGBA
}

func (s *TintStep) Name() string { return "tint" }

func (s *TintStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	maxC := math.Max(float64(s.Tone.R), math.Max(float64(s.Tone.G), float64(s.Tone.B)))
	if maxC == 0 {
		maxC = 255
	}
	tr := float64(s.Tone.R) / maxC
	tg := float64(s.Tone.G) / maxC
	tb := float64(s.Tone.B) / maxC

	return mapChannels(img, s.Name(), func(r, g, b float64) (float64, float64, float64) {
		l := luma(r, g, b)
		return l * tr, l * tg, l * tb
	})
}

// ── Posterize ─────────────────────────────────────────────────────────────────

// PosterizeStep quantises each channel to Levels discrete values.
type PosterizeStep struct {
	Levels int
}

func (s *PosterizeStep) Name() string { return "posterize" }

func (s *PosterizeStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	levels := s.Levels
	if levels < 2 {
		levels = 2
	}
	step := 255.0 / float64(levels-1)
	return mapChannels(img, s.Name(), func(r, g, b float64) (float64, float64, float64) {
		return math.Round(r/step) * step,
			math.Round(g/step) * step,
			math.Round(b/step) * step
	})
}

// ── Invert ────────────────────────────────────────────────────────────────────

// InvertStep negates every channel.
type InvertStep struct{}

func (s *InvertStep) Name() string { return "invert" }

func (s *InvertStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	return mapChannels(img, s.Name(), func(r, g, b float64) (float64, float64, float64) {
		return 255 - r, 255 - g, 255 - b
	})
}
