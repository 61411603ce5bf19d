package authcore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// waitForEvent receives one event from the sink or fails the test.
func waitForEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()

	select {
	case event := <-sink.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func newAuditedEngine(t *testing.T) (*Engine, *ChannelSink) {
	t.Helper()

	sink := NewChannelSink(64)
	cfg := testConfig()
	cfg.Audit.Enabled = true

	store := newMockUserStore()
	engine, err := New().
		WithConfig(cfg).
		WithUserStore(store).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, sink
}

func TestAuditLoginEvents(t *testing.T) {
	engine, sink := newAuditedEngine(t)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	userID := seedAccount(t, engine, "alice", "correct horse battery")

	signup := waitForEvent(t, sink)
	if signup.EventType != EventAccountCreated || !signup.Success {
		t.Fatalf("unexpected signup event %+v", signup)
	}

	if _, err := engine.Login(ctx, "alice", "correct horse battery"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	success := waitForEvent(t, sink)
	if success.EventType != EventLoginSuccess {
		t.Fatalf("event type = %q, want %q", success.EventType, EventLoginSuccess)
	}
	if !success.Success || success.Username != "alice" || success.UserID != userID {
		t.Fatalf("unexpected event %+v", success)
	}
	if success.IP != "203.0.113.9" {
		t.Fatalf("event IP = %q", success.IP)
	}
	if success.EventID == "" {
		t.Fatal("event id missing")
	}

	if _, err := engine.Login(ctx, "alice", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	failure := waitForEvent(t, sink)
	if failure.EventType != EventLoginFailure || failure.Success {
		t.Fatalf("unexpected event %+v", failure)
	}
	if failure.Metadata["reason"] != "password_mismatch" {
		t.Fatalf("failure reason = %q", failure.Metadata["reason"])
	}
}

func TestAuditRetainsCollapsedFailureKind(t *testing.T) {
	engine, sink := newAuditedEngine(t)
	ctx := context.Background()

	// The caller sees only ErrUnauthorized; the event keeps the kind.
	if _, err := engine.Validate(ctx, "not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	event := waitForEvent(t, sink)
	if event.EventType != EventTokenRejected {
		t.Fatalf("event type = %q", event.EventType)
	}
	if event.Metadata["kind"] != "invalid" {
		t.Fatalf("kind = %q, want invalid", event.Metadata["kind"])
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	engine, _ := newTestEngine(t)

	seedAccount(t, engine, "alice", "correct horse battery")
	if _, err := engine.Login(context.Background(), "alice", "correct horse battery"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if engine.AuditDropped() != 0 {
		t.Fatal("disabled audit must not count drops")
	}
}

// blockingSink stalls the dispatcher goroutine until released, filling
// the queue behind it.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 64; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: EventLoginFailure})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a full queue")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: EventLoginSuccess})
	d.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != EventLoginSuccess {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event lost on close")
	}

	// Emit after close is a no-op.
	d.Emit(context.Background(), AuditEvent{EventType: EventLoginFailure})
	if d.Dropped() != 0 {
		t.Fatal("post-close emit should not count as dropped")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-1",
		EventType: EventRefreshSuccess,
		Username:  "alice",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		EventID:   "evt-2",
		EventType: EventRefreshFailure,
	})

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}
