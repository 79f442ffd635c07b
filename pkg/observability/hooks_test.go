package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Audit hooks
	a := NoopAuditHooks{}
	a.OnAuditStart(ctx, "id", "senate", 1)
	a.OnStageStart(ctx, "id", 1)
	a.OnStageComplete(ctx, "id", 1, 100, 95, 100, time.Second)
	a.OnAuditComplete(ctx, "id", "confirmed", 1, 100, time.Second, nil)

	// Checkpoint hooks
	c := NoopCheckpointHooks{}
	c.OnCheckpointSave(ctx, "file", 1024, nil)
	c.OnCheckpointLoad(ctx, "redis", true)

	// Source hooks
	s := NoopSourceHooks{}
	s.OnDraw(ctx, "sqlite", 100, time.Millisecond, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Audit().(NoopAuditHooks); !ok {
		t.Error("Audit() should return NoopAuditHooks by default")
	}
	if _, ok := Checkpoint().(NoopCheckpointHooks); !ok {
		t.Error("Checkpoint() should return NoopCheckpointHooks by default")
	}
	if _, ok := Source().(NoopSourceHooks); !ok {
		t.Error("Source() should return NoopSourceHooks by default")
	}

	// Set custom hooks
	customAudit := &testAuditHooks{}
	SetAuditHooks(customAudit)
	if Audit() != customAudit {
		t.Error("SetAuditHooks should set custom hooks")
	}

	customCheckpoint := &testCheckpointHooks{}
	SetCheckpointHooks(customCheckpoint)
	if Checkpoint() != customCheckpoint {
		t.Error("SetCheckpointHooks should set custom hooks")
	}

	customSource := &testSourceHooks{}
	SetSourceHooks(customSource)
	if Source() != customSource {
		t.Error("SetSourceHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Audit().(NoopAuditHooks); !ok {
		t.Error("Reset() should restore NoopAuditHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testAuditHooks{}
	SetAuditHooks(custom)

	// Setting nil should be ignored
	SetAuditHooks(nil)

	if Audit() != custom {
		t.Error("SetAuditHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testAuditHooks struct{ NoopAuditHooks }
type testCheckpointHooks struct{ NoopCheckpointHooks }
type testSourceHooks struct{ NoopSourceHooks }
