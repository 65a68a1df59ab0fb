package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// fields lists the non-empty IDs in tc, keyed by their context key names
func (tc TraceContext) fields() map[string]interface{} {
	fields := make(map[string]interface{}, 4)
	for key, value := range map[ContextKey]string{
		TraceIDKey:   tc.TraceID,
		TurnIDKey:    tc.TurnID,
		SessionIDKey: tc.SessionID,
		CallIDKey:    tc.CallID,
	} {
		if value != "" {
			fields[string(key)] = value
		}
	}
	return fields
}

// PropagateToLogger returns logger annotated with the IDs carried by ctx
func PropagateToLogger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	fields := FromContext(ctx).fields()
	if len(fields) == 0 {
		return logger
	}
	return logger.With().Fields(fields).Logger()
}

// LoggerFromContext is PropagateToLogger with the arguments in call-site order
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	return PropagateToLogger(ctx, baseLogger)
}

// CloneContext detaches tracing values from ctx's cancellation. Used to
// write audit records after the turn's context was cancelled.
func CloneContext(ctx context.Context) context.Context {
	return NewContext(context.Background(), FromContext(ctx))
}
