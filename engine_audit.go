package authcore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// emitAudit builds and enqueues one audit event. metadata is lazy so the
// map is only allocated when auditing is on.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	userID int64,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now(),
		EventType: eventType,
		Username:  username,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
