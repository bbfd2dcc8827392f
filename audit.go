package slip

import (
	"context"
	"io"

	"github.com/slipauth/slip/internal/audit"
)

// AuditEvent is one structured record of an operation outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the core's async dispatcher.
type AuditSink = audit.Sink

// NewJSONAuditSink returns a sink writing one JSON event per line to w.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

const (
	eventRegister          = "register"
	eventLogin             = "login"
	eventOAuthLogin        = "oauth_login"
	eventEmailVerification = "email_verification"
	eventPasswordReset     = "password_reset"
	eventSessionDelete     = "session_delete"
	eventSessionSweep      = "session_sweep"
)

func (c *Core) emitAudit(ctx context.Context, event AuditEvent, err error) {
	if c.auditor == nil {
		return
	}

	event.Timestamp = c.now()
	event.Success = err == nil
	if err != nil {
		event.Error = err.Error()
	}
	if event.IP == "" {
		event.IP = RequestInfoFromContext(ctx).IP
	}

	c.auditor.Emit(ctx, event)
}
