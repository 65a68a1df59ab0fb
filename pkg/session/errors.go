package session

import "errors"

var (
	ErrTerminated  = errors.New("session terminated")
	ErrInvalidTurn = errors.New("invalid turn")
)
