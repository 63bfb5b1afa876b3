// Package pipeline provides the built-in transform primitives and the
// sequential runner that executes them.
package pipeline

import (
	"context"

	"github.com/brightroom/brightroom/core"
	apperrors "github.com/brightroom/brightroom/errors"
)

// Pipeline executes a sequence of Steps with hook support.
type Pipeline struct {
	steps []core.Step
	hooks []core.Hook
}

// New returns an empty Pipeline.
func New() *Pipeline { return &Pipeline{} }

// Use appends steps to the pipeline.  Returns the same Pipeline for chaining.
func (p *Pipeline) Use(s ...core.Step) *Pipeline {
	p.steps = append(p.steps, s...)
	return p
}

// AddHook registers an observer.
func (p *Pipeline) AddHook(h core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h)
	return p
}

// Run executes the steps in order on img.  The first failing step aborts the
// run; the input value is never mutated in place.
func (p *Pipeline) Run(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	current := img
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryPipeline, step.Name(), err)
		}
		p.callHooksBefore(ctx, step.Name(), current)
		result, err := step.Execute(ctx, current)
		p.callHooksAfter(ctx, step.Name(), result, err)
		if err != nil {
			return nil, err
		}
		current = result
	}
	return current, nil
}

func (p *Pipeline) callHooksBefore(ctx context.Context, name string, img *core.ImageData) {
	for _, h := range p.hooks {
		h.BeforeStep(ctx, name, img)
	}
}

func (p *Pipeline) callHooksAfter(ctx context.Context, name string, img *core.ImageData, err error) {
	for _, h := range p.hooks {
		h.AfterStep(ctx, name, img, err)
	}
}
