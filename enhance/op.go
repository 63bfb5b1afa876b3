package enhance

import (
	"image/color"

	"github.com/brightroom/brightroom/analyze"
	"github.com/brightroom/brightroom/core"
)

// Operation is the closed enumeration of recognized enhancement types.
type Operation string

const (
	OpAuto      Operation = "auto"
	OpBrighten  Operation = "brighten"
	OpSaturate  Operation = "saturate"
	OpContrast  Operation = "contrast"
	OpDenoise   Operation = "denoise"
	OpSharpen   Operation = "sharpen"
	OpUpscale   Operation = "upscale"
	OpGrayscale Operation = "grayscale"
	OpEdge      Operation = "edge"
	OpColorize  Operation = "colorize"
	OpHDR       Operation = "hdr"
	OpVintage   Operation = "vintage"
	OpCartoon   Operation = "cartoon"
	OpBlur      Operation = "blur"
	OpRotate    Operation = "rotate"
	OpCrop      Operation = "crop"
	OpSepia     Operation = "sepia"
	OpInvert    Operation = "invert"
	OpSketch    Operation = "sketch"
)

// Tones used by the tint-based operations.
var (
	warmTone  = color.NRGBA{R: 255, G: 200, B: 150, A: 255}
	sepiaTone = color.NRGBA{R: 112, G: 66, B: 20, A: 255}
)

// StepFactory constructs backend-specific transform primitives.  The native
// factory builds pure-Go steps; the vips factory builds libvips-backed ones.
type StepFactory interface {
	Brightness(factor float64) core.Step
	Saturation(factor float64) core.Step
	Contrast(factor float64) core.Step
	// Sharpen with zero radius/amount selects the default kernel.
	Sharpen(radius, amount float64) core.Step
	// Scale resizes to round(factor × source width), preserving aspect ratio.
	Scale(factor float64) core.Step
	Grayscale() core.Step
	Tint(tone color.NRGBA) core.Step
	Posterize(levels int) core.Step
	Blur(radius float64) core.Step
	Rotate90() core.Step
	Crop(x, y, width, height int) core.Step
	Invert() core.Step
}

// Plan maps an operation to its ordered primitive expansion.  The boolean is
// false for unrecognized operations, which the dispatcher treats as
// pass-through rather than an error.  Zero-valued analyzer factors fall back
// to the per-operation defaults.
func Plan(op Operation, p analyze.Params, f StepFactory) ([]core.Step, bool) {
	switch op {
	case OpAuto, OpBrighten:
		return []core.Step{f.Brightness(orDefault(p.Brightness, 1.2))}, true
	case OpSaturate:
		return []core.Step{f.Saturation(orDefault(p.Saturation, 1.3))}, true
	case OpContrast:
		return []core.Step{f.Contrast(orDefault(p.Contrast, 1.2))}, true
	case OpDenoise, OpSharpen:
		return []core.Step{f.Sharpen(0, 0)}, true
	case OpUpscale:
		return []core.Step{f.Scale(orDefault(p.Upscale, 2))}, true
	case OpGrayscale:
		return []core.Step{f.Grayscale()}, true
	case OpEdge:
		return []core.Step{f.Sharpen(1, 3)}, true
	case OpColorize:
		return []core.Step{f.Saturation(1.5)}, true
	case OpHDR:
		return []core.Step{f.Brightness(1.2), f.Contrast(1.2)}, true
	case OpVintage:
		return []core.Step{f.Tint(warmTone)}, true
	case OpCartoon:
		return []core.Step{f.Sharpen(0, 0), f.Posterize(8)}, true
	case OpBlur:
		return []core.Step{f.Blur(2)}, true
	case OpRotate:
		return []core.Step{f.Rotate90()}, true
	case OpCrop:
		return []core.Step{f.Crop(100, 100, 300, 300)}, true
	case OpSepia:
		return []core.Step{f.Tint(sepiaTone)}, true
	case OpInvert:
		return []core.Step{f.Invert()}, true
	case OpSketch:
		return []core.Step{f.Grayscale(), f.Sharpen(2, 5)}, true
	}
	return nil, false
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
