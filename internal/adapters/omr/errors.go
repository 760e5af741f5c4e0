package omr

import "errors"

// Sentinel kinds for engine adapter errors.
var (
	ErrNoEngine    = errors.New("recognition engine path is not configured")
	ErrNoRuntime   = errors.New("java runtime path is not configured")
	ErrEngineStart = errors.New("recognition engine could not be started")
	ErrEngineExit  = errors.New("recognition engine exited with an error")
)
