package enhance_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/brightroom/brightroom/adapters/decoder"
	"github.com/brightroom/brightroom/adapters/encoder"
	"github.com/brightroom/brightroom/adapters/storage"
	"github.com/brightroom/brightroom/analyze"
	"github.com/brightroom/brightroom/core"
	"github.com/brightroom/brightroom/enhance"
	"github.com/brightroom/brightroom/utils"
)

// planFactory records which primitives Plan asked for.
type planFactory struct {
	calls []string
}

type noopStep struct{ name string }

func (s noopStep) Name() string { return s.name }
func (s noopStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	return img, nil
}

func (f *planFactory) step(name string) core.Step {
	f.calls = append(f.calls, name)
	return noopStep{name: name}
}

func (f *planFactory) Brightness(float64) core.Step { return f.step("brightness") }
func (f *planFactory) Saturation(float64) core.Step { return f.step("saturation") }
func (f *planFactory) Contrast(float64) core.Step   { return f.step("contrast") }

func (f *planFactory) Sharpen(_, _ float64) core.Step { return f.step("sharpen") }
func (f *planFactory) Scale(float64) core.Step        { return f.step("scale") }
func (f *planFactory) Grayscale() core.Step           { return f.step("grayscale") }
func (f *planFactory) Tint(color.NRGBA) core.Step     { return f.step("tint") }
func (f *planFactory) Posterize(int) core.Step        { return f.step("posterize") }
func (f *planFactory) Blur(float64) core.Step         { return f.step("blur") }
func (f *planFactory) Rotate90() core.Step            { return f.step("rotate") }
func (f *planFactory) Crop(_, _, _, _ int) core.Step  { return f.step("crop") }
func (f *planFactory) Invert() core.Step              { return f.step("invert") }

func TestPlan_Expansions(t *testing.T) {
	cases := []struct {
		op   enhance.Operation
		want []string
	}{
		{enhance.OpAuto, []string{"brightness"}},
		{enhance.OpBrighten, []string{"brightness"}},
		{enhance.OpSaturate, []string{"saturation"}},
		{enhance.OpContrast, []string{"contrast"}},
		{enhance.OpDenoise, []string{"sharpen"}},
		{enhance.OpSharpen, []string{"sharpen"}},
		{enhance.OpUpscale, []string{"scale"}},
		{enhance.OpGrayscale, []string{"grayscale"}},
		{enhance.OpEdge, []string{"sharpen"}},
		{enhance.OpColorize, []string{"saturation"}},
		{enhance.OpHDR, []string{"brightness", "contrast"}},
		{enhance.OpVintage, []string{"tint"}},
		{enhance.OpCartoon, []string{"sharpen", "posterize"}},
		{enhance.OpBlur, []string{"blur"}},
		{enhance.OpRotate, []string{"rotate"}},
		{enhance.OpCrop, []string{"crop"}},
		{enhance.OpSepia, []string{"tint"}},
		{enhance.OpInvert, []string{"invert"}},
		{enhance.OpSketch, []string{"grayscale", "sharpen"}},
	}

	for _, tc := range cases {
		f := &planFactory{}
		steps, known := enhance.Plan(tc.op, analyze.Neutral(), f)
		if !known {
			t.Errorf("%s: Plan reported unknown", tc.op)
			continue
		}
		if len(steps) != len(tc.want) {
			t.Errorf("%s: %d steps, want %d", tc.op, len(steps), len(tc.want))
			continue
		}
		for i, name := range tc.want {
			if f.calls[i] != name {
				t.Errorf("%s: step %d = %q, want %q", tc.op, i, f.calls[i], name)
			}
		}
	}
}

func TestPlan_UnknownOperation(t *testing.T) {
	steps, known := enhance.Plan("definitely-not-an-op", analyze.Neutral(), &planFactory{})
	if known || steps != nil {
		t.Fatalf("Plan = (%v, %v), want (nil, false)", steps, known)
	}
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

func newTestDeps(t *testing.T) (*storage.Local, core.Registry) {
	t.Helper()
	assets, err := storage.NewLocal(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(85))
	return assets, reg
}

func putJPEG(t *testing.T, assets *storage.Local, key string, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	if err := assets.Put(context.Background(), key, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return buf.Bytes()
}

func readAsset(t *testing.T, assets *storage.Local, key string) []byte {
	t.Helper()
	rc, err := assets.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get %s: %v", key, err)
	}
	defer rc.Close()
	buf, err := utils.DrainReader(context.Background(), rc, 0)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	defer utils.ReleaseBuffer(buf)
	return utils.CloneBytes(buf.Bytes())
}

func TestDispatcher_Brighten(t *testing.T) {
	assets, reg := newTestDeps(t)
	raw := putJPEG(t, assets, "in.jpg", 40, 40, color.NRGBA{R: 80, G: 80, B: 80, A: 255})

	d := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, 85)
	result, err := d.Enhance(context.Background(), "in.jpg", "brighten", analyze.Params{Brightness: 1.5})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if result.EnhancedKey != "enhanced-in.jpg" {
		t.Errorf("EnhancedKey = %q, want enhanced-in.jpg", result.EnhancedKey)
	}

	out := readAsset(t, assets, result.EnhancedKey)
	if bytes.Equal(out, raw) {
		t.Error("enhanced bytes identical to source, want brightened re-encode")
	}
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode enhanced: %v", err)
	}
	r, _, _, _ := decoded.At(20, 20).RGBA()
	if uint8(r>>8) < 110 {
		t.Errorf("center R = %d, want brightened well above 80", r>>8)
	}
	if d.ProcessedCount() != 1 {
		t.Errorf("ProcessedCount = %d, want 1", d.ProcessedCount())
	}
}

func TestDispatcher_PassThroughUnknownType(t *testing.T) {
	assets, reg := newTestDeps(t)
	raw := putJPEG(t, assets, "in.jpg", 16, 16, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	d := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, 85)
	result, err := d.Enhance(context.Background(), "in.jpg", "no-such-op", analyze.Neutral())
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	out := readAsset(t, assets, result.EnhancedKey)
	if !bytes.Equal(out, raw) {
		t.Error("pass-through output differs from source bytes")
	}
	if d.ProcessedCount() != 1 {
		t.Errorf("ProcessedCount = %d, want 1", d.ProcessedCount())
	}
}

func TestDispatcher_UpscaleChangesDimensions(t *testing.T) {
	assets, reg := newTestDeps(t)
	putJPEG(t, assets, "small.jpg", 100, 50, color.NRGBA{R: 120, G: 120, B: 120, A: 255})

	d := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, 85)
	result, err := d.Enhance(context.Background(), "small.jpg", "upscale", analyze.Params{Upscale: 2})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(readAsset(t, assets, result.EnhancedKey)))
	if err != nil {
		t.Fatalf("decode enhanced: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("enhanced %dx%d, want 200x100", cfg.Width, cfg.Height)
	}
}

func TestDispatcher_CorruptInputWritesNothing(t *testing.T) {
	assets, reg := newTestDeps(t)
	// JPEG magic bytes followed by garbage: detected as jpeg, fails to decode.
	corrupt := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0xAB}, 64)...)
	if err := assets.Put(context.Background(), "bad.jpg", bytes.NewReader(corrupt)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	d := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, 85)
	if _, err := d.Enhance(context.Background(), "bad.jpg", "brighten", analyze.Neutral()); err == nil {
		t.Fatal("expected decode failure")
	}

	exists, err := assets.Exists(context.Background(), "enhanced-bad.jpg")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("enhanced asset written despite pipeline failure")
	}
	if d.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcher_MissingSource(t *testing.T) {
	assets, reg := newTestDeps(t)

	d := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, 85)
	if _, err := d.Enhance(context.Background(), "ghost.jpg", "brighten", analyze.Neutral()); err == nil {
		t.Fatal("expected error for missing source asset")
	}
}

func TestDispatcher_SourceRemainsIntact(t *testing.T) {
	assets, reg := newTestDeps(t)
	raw := putJPEG(t, assets, "in.jpg", 20, 20, color.NRGBA{R: 50, G: 60, B: 70, A: 255})

	d := enhance.NewDispatcher(assets, reg, enhance.NativeFactory{}, 85)
	if _, err := d.Enhance(context.Background(), "in.jpg", "invert", analyze.Neutral()); err != nil {
		t.Fatalf("Enhance: %v", err)
	}

	if got := readAsset(t, assets, "in.jpg"); !bytes.Equal(got, raw) {
		t.Error("source asset mutated by enhancement")
	}
}
