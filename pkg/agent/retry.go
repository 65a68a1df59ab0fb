package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/harun/smolcc/internal/observability"
	"github.com/harun/smolcc/internal/tracing"
	"github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultMaxRetries = 3
	defaultBaseDelay  = time.Second
)

// RetryingClient retries retryable model errors with exponential backoff
type RetryingClient struct {
	client     ModelClient
	maxRetries int
	baseDelay  time.Duration
}

// NewRetryingClient wraps client. maxRetries counts attempts in total.
func NewRetryingClient(client ModelClient, maxRetries int) *RetryingClient {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryingClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  defaultBaseDelay,
	}
}

// Provider returns the wrapped provider name
func (r *RetryingClient) Provider() string {
	return r.client.Provider()
}

// Complete calls the wrapped client, retrying with 1s, 2s, 4s... delays.
// Failures are wrapped with ErrModelCommunication.
func (r *RetryingClient) Complete(ctx context.Context, request ModelRequest) (*ModelResponse, error) {
	provider := r.client.Provider()
	ctx, span := tracing.StartSpan(
		ctx,
		"smolcc.agent",
		"model.complete",
		attribute.String("provider", provider),
		attribute.String("model", request.Model),
		attribute.Int("turns", len(request.Turns)),
	)
	defer span.End()

	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		start := time.Now()
		response, err := r.client.Complete(ctx, request)
		observability.RecordModelCall(provider, time.Since(start), err == nil)
		if err == nil {
			return response, nil
		}

		lastErr = err

		// Cancellation is the caller's decision, not a model failure
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !IsRetryableError(err) {
			break
		}

		if attempt == r.maxRetries-1 {
			break
		}

		delay := r.baseDelay * time.Duration(1<<attempt)
		observability.RecordModelRetry(provider)
		log.Info().
			Str("provider", provider).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying model call after error")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	tracing.RecordError(span, lastErr)
	return nil, fmt.Errorf("%w: %w", ErrModelCommunication, lastErr)
}

// IsRetryableError checks if a model error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return retryableStatus(anthropicErr.StatusCode)
	}
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return retryableStatus(openaiErr.StatusCode)
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	for _, marker := range []string{"econnreset", "etimedout", "connection reset", "connection refused", "eof", "timeout"} {
		if strings.Contains(errMsg, marker) {
			return true
		}
	}

	// Rate limits
	if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "overloaded") {
		return true
	}

	// Server errors
	for _, code := range []string{"500", "502", "503", "504", "529"} {
		if strings.Contains(errMsg, code) {
			return true
		}
	}

	return false
}

func retryableStatus(code int) bool {
	return code == 408 || code == 409 || code == 429 || code >= 500
}
