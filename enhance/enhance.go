// Package enhance maps named operation types onto ordered transform-primitive
// chains and runs them against stored assets.
package enhance

import (
	"bytes"
	"context"
	"sync/atomic"

	"github.com/brightroom/brightroom/analyze"
	"github.com/brightroom/brightroom/core"
	apperrors "github.com/brightroom/brightroom/errors"
	"github.com/brightroom/brightroom/pipeline"
	"github.com/brightroom/brightroom/utils"
)

// EnhancedKeyPrefix prepends the source storage key to form the output key.
const EnhancedKeyPrefix = "enhanced-"

// Result names the two assets an enhancement produces.
type Result struct {
	OriginalKey string
	EnhancedKey string
}

// Dispatcher executes enhancement operations.  It is stateless apart from
// monotonic counters and safe for concurrent use: distinct requests write
// distinct output keys and never contend.
type Dispatcher struct {
	assets   core.AssetStore
	registry core.Registry
	factory  StepFactory
	hooks    []core.Hook
	quality  int

	processedCount int64
	errorCount     int64
}

// NewDispatcher wires a Dispatcher.  quality is the default encode quality
// (1-100; 0 selects the encoder default).
func NewDispatcher(assets core.AssetStore, registry core.Registry, factory StepFactory, quality int) *Dispatcher {
	return &Dispatcher{assets: assets, registry: registry, factory: factory, quality: quality}
}

// AddHook registers an observer for transform steps.
func (d *Dispatcher) AddHook(h core.Hook) { d.hooks = append(d.hooks, h) }

// Enhance loads the asset stored under srcKey, applies the primitive chain
// for opType parameterized by params, and persists the result under
// EnhancedKeyPrefix+srcKey.  An unrecognized opType copies the source bytes
// to the output key unchanged (pass-through policy).  On any decode,
// transform, or encode failure nothing is written and the original asset
// remains intact.
func (d *Dispatcher) Enhance(ctx context.Context, srcKey, opType string, params analyze.Params) (Result, error) {
	result := Result{OriginalKey: srcKey, EnhancedKey: EnhancedKeyPrefix + srcKey}

	rc, err := d.assets.Get(ctx, srcKey)
	if err != nil {
		return Result{}, err
	}
	buf, err := utils.DrainReader(ctx, rc, 0)
	rc.Close()
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CategoryStorage, "enhance.read", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	steps, known := Plan(Operation(opType), params, d.factory)
	if !known {
		// Pass-through: no primitive is defined for this type, so the output
		// asset is byte-identical to the input.
		if err := d.assets.Put(ctx, result.EnhancedKey, bytes.NewReader(raw)); err != nil {
			return Result{}, err
		}
		atomic.AddInt64(&d.processedCount, 1)
		return result, nil
	}

	format := core.Format(utils.DetectFormat(raw))
	img := &core.ImageData{
		Data:   raw,
		Format: format,
		Meta:   core.Metadata{Format: format, SizeBytes: int64(len(raw))},
	}

	pl := pipeline.New()
	pl.Use(&pipeline.DecodeStep{Registry: d.registry})
	pl.Use(steps...)
	pl.Use(&pipeline.EncodeStep{Registry: d.registry, Options: core.EncodeOptions{Quality: d.quality}})
	for _, h := range d.hooks {
		pl.AddHook(h)
	}

	out, err := pl.Run(ctx, img)
	if err != nil {
		atomic.AddInt64(&d.errorCount, 1)
		return Result{}, err
	}

	if err := d.assets.Put(ctx, result.EnhancedKey, bytes.NewReader(out.Data)); err != nil {
		atomic.AddInt64(&d.errorCount, 1)
		return Result{}, err
	}

	atomic.AddInt64(&d.processedCount, 1)
	return result, nil
}

// ProcessedCount returns the total number of completed enhancements.
func (d *Dispatcher) ProcessedCount() int64 { return atomic.LoadInt64(&d.processedCount) }

// ErrorCount returns the total number of failed enhancements.
func (d *Dispatcher) ErrorCount() int64 { return atomic.LoadInt64(&d.errorCount) }
