// Package hooks provides observability hooks for the transform pipeline.
package hooks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/brightroom/brightroom/core"
)

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each transform step.
type LoggingHook struct {
	logger *slog.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l *slog.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(ctx context.Context, stepName string, img *core.ImageData) {
	h.logger.DebugContext(ctx, "pipeline.step.start",
		"step", stepName,
		"format", img.Format,
		"width", img.Meta.Width,
		"height", img.Meta.Height,
	)
}

func (h *LoggingHook) AfterStep(ctx context.Context, stepName string, img *core.ImageData, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "pipeline.step.error",
			"step", stepName,
			"error", err.Error(),
		)
		return
	}
	h.logger.DebugContext(ctx, "pipeline.step.done",
		"step", stepName,
		"width", img.Meta.Width,
		"height", img.Meta.Height,
		"bytes", img.Meta.SizeBytes,
	)
}

// ── In-memory metrics ─────────────────────────────────────────────────────────

// StepMetrics accumulates per-step call and error counts; safe for
// concurrent use.
type StepMetrics struct {
	mu         sync.Mutex
	stepCalls  map[string]int64
	stepErrors map[string]int64
}

// NewStepMetrics creates an empty metrics store.
func NewStepMetrics() *StepMetrics {
	return &StepMetrics{
		stepCalls:  make(map[string]int64),
		stepErrors: make(map[string]int64),
	}
}

func (m *StepMetrics) BeforeStep(_ context.Context, _ string, _ *core.ImageData) {}

func (m *StepMetrics) AfterStep(_ context.Context, stepName string, _ *core.ImageData, err error) {
	m.mu.Lock()
	m.stepCalls[stepName]++
	if err != nil {
		m.stepErrors[stepName]++
	}
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (m *StepMetrics) Snapshot() (calls, errs map[string]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls = make(map[string]int64, len(m.stepCalls))
	errs = make(map[string]int64, len(m.stepErrors))
	for k, v := range m.stepCalls {
		calls[k] = v
	}
	for k, v := range m.stepErrors {
		errs[k] = v
	}
	return calls, errs
}

var (
	_ core.Hook = (*LoggingHook)(nil)
	_ core.Hook = (*StepMetrics)(nil)
)
