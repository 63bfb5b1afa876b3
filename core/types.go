package core

import "context"

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatUnknown Format = "unknown"
)

// Metadata holds basic image information extracted during decode.
type Metadata struct {
	Width     int
	Height    int
	Format    Format
	SizeBytes int64
}

// ImageData is the in-memory representation passed through a transform chain.
// Data holds encoded bytes; Image holds the decoded pixel buffer.
type ImageData struct {
	// Encoded bytes — non-nil when the image has been encoded or is raw input.
	Data   []byte
	Format Format

	// Decoded pixel buffer.  The native backend stores an image.Image here;
	// the libvips backend stores its own wrapper type.  Keeping the field
	// untyped lets both backends flow through the same Step chain.
	Image any

	Meta Metadata
}

// Step is the fundamental transform building block.  Each Step produces a new
// *ImageData and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around transform steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, err error)
}
