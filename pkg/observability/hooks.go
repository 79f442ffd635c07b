// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about audit stages, checkpoint writes, and ballot draws.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The [prom] subpackage implements every hook interface with Prometheus
// collectors.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := prom.New(prometheus.DefaultRegisterer)
//	    observability.SetAuditHooks(m)
//	    observability.SetCheckpointHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Audit().OnStageStart(ctx, auditID, stage)
//	// ... run trials ...
//	observability.Audit().OnStageComplete(ctx, auditID, stage, drawn, freq, trials, duration)
//
// [prom]: github.com/matzehuels/bayesaudit/pkg/observability/prom
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Audit Hooks
// =============================================================================

// AuditHooks receives events from the audit loop.
type AuditHooks interface {
	// Audit lifecycle
	OnAuditStart(ctx context.Context, auditID, contest string, seed uint64)
	OnAuditComplete(ctx context.Context, auditID, status string, stages, drawn int, duration time.Duration, err error)

	// Stage events
	OnStageStart(ctx context.Context, auditID string, stage int)
	OnStageComplete(ctx context.Context, auditID string, stage, drawn, freq, trials int, duration time.Duration)
}

// =============================================================================
// Checkpoint Hooks
// =============================================================================

// CheckpointHooks receives events from checkpoint stores.
type CheckpointHooks interface {
	// OnCheckpointSave records a checkpoint write.
	OnCheckpointSave(ctx context.Context, backend string, size int, err error)

	// OnCheckpointLoad records a checkpoint read.
	OnCheckpointLoad(ctx context.Context, backend string, hit bool)
}

// =============================================================================
// Source Hooks
// =============================================================================

// SourceHooks receives events from ballot sources.
type SourceHooks interface {
	// OnDraw records a batch drawn from a ballot source.
	OnDraw(ctx context.Context, source string, ballots int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAuditHooks is a no-op implementation of AuditHooks.
type NoopAuditHooks struct{}

func (NoopAuditHooks) OnAuditStart(context.Context, string, string, uint64) {}
func (NoopAuditHooks) OnAuditComplete(context.Context, string, string, int, int, time.Duration, error) {
}
func (NoopAuditHooks) OnStageStart(context.Context, string, int)                               {}
func (NoopAuditHooks) OnStageComplete(context.Context, string, int, int, int, int, time.Duration) {}

// NoopCheckpointHooks is a no-op implementation of CheckpointHooks.
type NoopCheckpointHooks struct{}

func (NoopCheckpointHooks) OnCheckpointSave(context.Context, string, int, error) {}
func (NoopCheckpointHooks) OnCheckpointLoad(context.Context, string, bool)       {}

// NoopSourceHooks is a no-op implementation of SourceHooks.
type NoopSourceHooks struct{}

func (NoopSourceHooks) OnDraw(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	auditHooks      AuditHooks      = NoopAuditHooks{}
	checkpointHooks CheckpointHooks = NoopCheckpointHooks{}
	sourceHooks     SourceHooks     = NoopSourceHooks{}
	hooksMu         sync.RWMutex
)

// SetAuditHooks registers custom audit hooks.
// This should be called once at application startup before any audit runs.
func SetAuditHooks(h AuditHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		auditHooks = h
	}
}

// SetCheckpointHooks registers custom checkpoint hooks.
// This should be called once at application startup before any checkpoint operations.
func SetCheckpointHooks(h CheckpointHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		checkpointHooks = h
	}
}

// SetSourceHooks registers custom ballot source hooks.
// This should be called once at application startup before any ballots are drawn.
func SetSourceHooks(h SourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sourceHooks = h
	}
}

// Audit returns the registered audit hooks.
func Audit() AuditHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return auditHooks
}

// Checkpoint returns the registered checkpoint hooks.
func Checkpoint() CheckpointHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return checkpointHooks
}

// Source returns the registered ballot source hooks.
func Source() SourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sourceHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	auditHooks = NoopAuditHooks{}
	checkpointHooks = NoopCheckpointHooks{}
	sourceHooks = NoopSourceHooks{}
}
