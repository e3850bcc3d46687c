package clinicauth

import (
	"context"

	"github.com/clinicore/clinicauth/audit"
)

// Audit event types emitted by the engine.
const (
	EventIssue         = "token_issue"
	EventIssueRejected = "token_issue_rejected"
	EventRefresh       = "token_refresh"
	EventRefreshReuse  = "refresh_reuse"
	EventRevoke        = "session_revoke"
	EventRevokeAll     = "session_revoke_all"
	EventLogout        = "logout"
	EventSweep         = "session_sweep"
)

func (e *Engine) emit(ctx context.Context, event audit.Event) {
	if e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	e.audit.Emit(ctx, event)
}

func (e *Engine) emitSuccess(ctx context.Context, eventType, userID, clinicID, sessionID, ip string) {
	e.emit(ctx, audit.Event{
		EventType: eventType,
		UserID:    userID,
		ClinicID:  clinicID,
		SessionID: sessionID,
		IP:        ip,
		Success:   true,
	})
}

func (e *Engine) emitFailure(ctx context.Context, eventType, userID, sessionID string, err error) {
	event := audit.Event{
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
	}
	if err != nil {
		event.Error = err.Error()
	}
	e.emit(ctx, event)
}
