package opsctl

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionClosed indicates that an operation was attempted on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// ErrIdleTimeout is the cause recorded when a command stays silent for its
// whole idle timeout. It matches context.DeadlineExceeded, so IsTimeout
// reports it too.
var ErrIdleTimeout = fmt.Errorf("no output within idle timeout: %w", context.DeadlineExceeded)

// ExitError represents a remote command that ran and exited non-zero.
type ExitError struct {
	Command  *Command
	ExitCode int
	Stderr   []byte
	Cause    error
}

func (e *ExitError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("command exited with code %d", e.ExitCode)
	}

	return fmt.Sprintf("command %q exited with code %d", e.Command.String(), e.ExitCode)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// TransportError represents a failure in the connection layer
// (e.g. dial refused, authentication rejected, channel lost).
type TransportError struct {
	Command *Command
	Err     error
}

func (e *TransportError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}

	return fmt.Sprintf("transport error executing %q: %v", e.Command.String(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err was caused by a call-site deadline or idle
// timeout expiring.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
