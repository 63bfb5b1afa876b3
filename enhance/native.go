package enhance

import (
	"image/color"

	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/pipeline"
)

// NativeFactory builds pure-Go transform steps operating on image.Image.
type NativeFactory struct{}

func (NativeFactory) Brightness(factor float64) core.Step {
	return &pipeline.BrightnessStep{Factor: factor}
}

func (NativeFactory) Saturation(factor float64) core.Step {
	return &pipeline.SaturationStep{Factor: factor}
}

func (NativeFactory) Contrast(factor float64) core.Step {
	return &pipeline.ContrastStep{Factor: factor}
}

func (NativeFactory) Sharpen(radius, amount float64) core.Step {
	return &pipeline.SharpenStep{Radius: radius, Amount: amount}
}

func (NativeFactory) Scale(factor float64) core.Step {
	return &pipeline.ScaleStep{Factor: factor}
}

func (NativeFactory) Grayscale() core.Step { return &pipeline.GrayscaleStep{} }

func (NativeFactory) Tint(tone color.NRGBA) core.Step {
	return &pipeline.TintStep{Tone: tone}
}

func (NativeFactory) Posterize(levels int) core.Step {
	return &pipeline.PosterizeStep{Levels: levels}
}

func (NativeFactory) Blur(radius float64) core.Step {
	return &pipeline.BlurStep{Radius: radius}
}

func (NativeFactory) Rotate90() core.Step { return &pipeline.RotateStep{} }

func (NativeFactory) Crop(x, y, width, height int) core.Step {
	return &pipeline.CropStep{X: x, Y: y, Width: width, Height: height}
}

func (NativeFactory) Invert() core.Step { return &pipeline.InvertStep{} }

var _ StepFactory = NativeFactory{}
