package audit

import (
	"context"
	"errors"
	"strings"

	"motordesk.io/internal/authz"
	"motordesk.io/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request and actor context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"event": event,
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if rc, ok := authz.ResolvedFromContext(ctx); ok {
		entry["actor_id"] = rc.ActorID
		entry["tenant_id"] = rc.TenantID
		entry["role"] = string(rc.Role)
	}
	if len(fields) > 0 {
		copyFields := make(map[string]any, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		entry["fields"] = copyFields
	} else {
		entry["fields"] = map[string]any{}
	}

	obs.Emit("audit", entry)
	return nil
}

// LogDecision records a gate decision so "why access was granted" is always
// reconstructable as base-role or override.
func LogDecision(ctx context.Context, dec authz.Decision) {
	outcome := "denied"
	if dec.Allowed {
		outcome = "granted"
	}
	_ = LogEvent(ctx, "authz.decision", map[string]any{
		"actor_id":     dec.ActorID,
		"tenant_id":    dec.TenantID,
		"capability":   string(dec.Capability),
		"role":         string(dec.Role),
		"via_override": dec.ViaOverride,
		"outcome":      outcome,
	})
}
