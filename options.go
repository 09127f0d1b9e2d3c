package opsctl

import (
	"os"
	"time"
)

// Idle timeouts used by the operator tools. A command may run as long as it
// likes while it keeps producing output.
const (
	// DiagnosticTimeout bounds silence from each status-check command.
	DiagnosticTimeout = 120 * time.Second
	// DeployTimeout bounds silence from the compound deploy command.
	DeployTimeout = 300 * time.Second
)

// ExecConfig holds configuration derived from options.
type ExecConfig struct {
	Timeout     time.Duration // 0 means no deadline beyond the caller's context
	IdleTimeout time.Duration // 0 means output gaps are never limited
}

// ExecOption defines a functional option for execution.
type ExecOption func(*ExecConfig)

// WithTimeout bounds a single execution. When it expires the remote command
// is killed and the call returns a context.DeadlineExceeded error.
func WithTimeout(d time.Duration) ExecOption {
	return func(c *ExecConfig) {
		if d < 0 {
			d = 0
		}

		c.Timeout = d
	}
}

// WithIdleTimeout aborts the command once it has written nothing to stdout
// or stderr for d. Every write starts the period again. The call then fails
// with ErrIdleTimeout.
func WithIdleTimeout(d time.Duration) ExecOption {
	return func(c *ExecConfig) {
		if d < 0 {
			d = 0
		}

		c.IdleTimeout = d
	}
}

// FileConfig holds configuration for file transfers.
type FileConfig struct {
	Permissions os.FileMode // Destination mode override (0 preserves the local mode)
	Progress    ProgressFunc
}

// DefaultFileConfig returns defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{}
}

// FileOption defines a functional option for file transfers.
type FileOption func(*FileConfig)

// WithPermissions forces a specific destination file mode.
func WithPermissions(mode os.FileMode) FileOption {
	return func(c *FileConfig) {
		c.Permissions = mode
	}
}

// ProgressFunc is a callback for tracking file transfer progress.
type ProgressFunc func(current, total int64)

// WithProgress calls fn with progress updates.
func WithProgress(fn ProgressFunc) FileOption {
	return func(c *FileConfig) {
		c.Progress = fn
	}
}
