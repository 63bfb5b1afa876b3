// Package analyze computes heuristic enhancement parameters from an image's
// own pixel statistics.  The output feeds the enhance dispatcher as the
// default factor set when the client does not supply its own.
package analyze

import (
	"bytes"
	"image"

	// Register the formats AnalyzeBytes can sample.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Params is the fixed-shape factor record produced by the analyzer.
type Params struct {
	Brightness float64
	Saturation float64
	Contrast   float64
	Upscale    float64
}

// Neutral returns the identity parameter set applied when analysis is not
// possible.  Returning it instead of an error is a deliberate fallback
// policy: an undecodable sample must not block the request.
func Neutral() Params {
	return Params{Brightness: 1.0, Saturation: 1.0, Contrast: 1.0, Upscale: 1}
}

// Analyze derives enhancement factors from pixel statistics.  For every pixel
// it takes the mean intensity (R+G+B)/3 and the chroma range max-min,
// averages both across the image, and normalizes by 255.  The thresholds are
// fixed policy; each output field is drawn from a closed set of values.
func Analyze(img image.Image) Params {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Neutral()
	}

	var brightnessSum, saturationSum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16 >> 8)
			g := float64(g16 >> 8)
			b := float64(b16 >> 8)
			brightnessSum += (r + g + b) / 3
			saturationSum += max3(r, g, b) - min3(r, g, b)
		}
	}

	pixels := float64(w * h)
	avgBrightness := brightnessSum / pixels / 255
	avgSaturation := saturationSum / pixels / 255

	p := Neutral()
	if avgBrightness < 0.5 {
		p.Brightness = 1.2
	}
	if avgSaturation < 0.3 {
		p.Saturation = 1.3
	}
	if avgBrightness < 0.4 {
		p.Contrast = 1.2
	}
	if w < 800 {
		p.Upscale = 2
	}
	return p
}

// AnalyzeBytes decodes raw image bytes and analyzes the result.  Undecodable
// input yields the neutral parameter set, never an error.
func AnalyzeBytes(data []byte) Params {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Neutral()
	}
	return Analyze(img)
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
