package observability

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harun/smolcc/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Audit event types
const (
	AuditTypeTool     = "tool"
	AuditTypeSecurity = "security"
	AuditTypeConfig   = "config"
)

// AuditEvent is one line of the audit log
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"` // session ID, "model" or "cli"
	Action    string                 `json:"action"`          // e.g. "execute:bash", "approval:write"
	Status    string                 `json:"status"`          // "success", "failure", "approved", "denied"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	CallID    string                 `json:"call_id,omitempty"`
}

// AuditLogger writes audit events as JSON lines
type AuditLogger struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

// NewAuditLogger writes events to w, closing it on Close when it is an io.Closer
func NewAuditLogger(w io.Writer) *AuditLogger {
	a := &AuditLogger{logger: zerolog.New(w)}
	if c, ok := w.(io.Closer); ok {
		a.closer = c
	}
	return a
}

var global = struct {
	sync.RWMutex
	audit *AuditLogger
}{audit: &AuditLogger{logger: zerolog.Nop()}}

// GetAuditLogger returns the process audit logger. It discards events until
// InitAuditLogger points it at a file.
func GetAuditLogger() *AuditLogger {
	global.RLock()
	defer global.RUnlock()
	return global.audit
}

// InitAuditLogger points the process audit logger at path, owner-readable only
func InitAuditLogger(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	global.Lock()
	global.audit = NewAuditLogger(file)
	global.Unlock()
	return nil
}

// Record writes event, filling its time and IDs from ctx. When ctx carries
// a recording span the event is also added to it.
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	tc := tracing.FromContext(ctx)
	event.TraceID = tc.TraceID
	event.SessionID = tc.SessionID
	event.CallID = tc.CallID

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()
		span.AddEvent("audit."+event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.actor", event.Actor),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Time("timestamp", event.Timestamp).
		Str("type", event.Type).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("status", event.Status)

	for key, value := range map[string]string{
		"trace_id":   event.TraceID,
		"session_id": event.SessionID,
		"call_id":    event.CallID,
	} {
		if value != "" {
			entry.Str(key, value)
		}
	}
	if len(event.Metadata) > 0 {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Send()
}

// Close closes the underlying file, if any
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	a.logger = zerolog.Nop()
	return err
}

// RecordToolAudit records the outcome of a dispatched tool call
func RecordToolAudit(ctx context.Context, toolName, actor, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditTypeTool,
		Actor:    actor,
		Action:   "execute:" + toolName,
		Status:   status,
		Metadata: metadata,
	})
}

// RecordSecurityAudit records a refused or policy-relevant action
func RecordSecurityAudit(ctx context.Context, action, actor, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditTypeSecurity,
		Actor:    actor,
		Action:   action,
		Status:   status,
		Metadata: metadata,
	})
}

// RecordApprovalAudit records the user's confirmation decision for a call
func RecordApprovalAudit(ctx context.Context, toolName, actor string, approved bool, metadata map[string]interface{}) {
	status := "denied"
	if approved {
		status = "approved"
	}
	RecordSecurityAudit(ctx, "approval:"+toolName, actor, status, metadata)
}

// RecordConfigAudit records a change to the configuration file
func RecordConfigAudit(ctx context.Context, action, actor string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     AuditTypeConfig,
		Actor:    actor,
		Action:   action,
		Status:   "success",
		Metadata: metadata,
	})
}
