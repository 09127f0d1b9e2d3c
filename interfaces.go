// Package opsctl provides the remote session abstraction shared by the
// FlashPhoto operator tools.
//
// # Core Interfaces
//
// - Session: one authenticated connection to the deployment host.
// - Process: a running remote command (Wait, Result, Close).
//
// # Streaming
//
// Sessions don't buffer output. Attach an `io.Writer` to your `Command` to
// receive stdout/stderr, or use the `Executor` wrapper which captures both
// streams into a `CommandResult` or streams stdout line by line.
//
// # Exit codes
//
// A remote command that runs and exits non-zero is not an error at the
// Executor level. The exit code is reported in the result and left for the
// caller to print.
package opsctl

import (
	"context"
	"io"
)

// Session abstracts an opened, authenticated remote shell.
// It owns its transport exclusively and must be closed exactly once.
type Session interface {
	io.Closer

	// Run executes a command synchronously.
	// Output is not captured by default; use Command.Stdout/Stderr.
	Run(ctx context.Context, cmd *Command) (*Result, error)

	// Start initiates a command asynchronously.
	// The caller must release the returned Process via Wait() or Close().
	Start(ctx context.Context, cmd *Command) (Process, error)

	// Upload copies a local file to the remote destination, overwriting
	// any existing remote copy.
	Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error
}

// Process represents a command that has been started but not yet completed.
type Process interface {
	io.Closer

	// Wait blocks until the process exits.
	// Returns an *ExitError if the exit code is non-zero.
	Wait() error

	// Result returns metadata (exit code, duration). Only valid after Wait.
	Result() *Result
}
