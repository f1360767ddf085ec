package transport

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New("transport: connection closed")

// ConnectionError is returned once every connect attempt has failed.
type ConnectionError struct {
	Addr     string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("transport: connect %s failed after %d attempt(s): %v", e.Addr, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError is returned when a deadline expires mid-exchange. The stream
// has already been closed when the caller sees it.
type TimeoutError struct {
	// LengthReceived is set when the 4-byte prefix arrived before the
	// deadline, which points at a slow or truncated payload rather than a
	// silent server.
	LengthReceived bool
	Err            error
}

func (e *TimeoutError) Error() string {
	if e.LengthReceived {
		return "transport: connection timeout (after length received)"
	}
	return "transport: connection timeout"
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Timeout() bool { return true }
