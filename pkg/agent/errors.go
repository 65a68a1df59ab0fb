package agent

import "errors"

var (
	// ErrModelCommunication wraps failures talking to the model after retries
	ErrModelCommunication = errors.New("model communication error")
	// ErrSessionTerminated is returned when input arrives after the session ended
	ErrSessionTerminated = errors.New("session terminated")
	ErrMissingAPIKey     = errors.New("missing API key")
	ErrUnknownProvider   = errors.New("unsupported provider")
)
