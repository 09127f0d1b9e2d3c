package opsctl

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Command configures a remote execution.
type Command struct {
	Cmd  string   // Shell line or binary name
	Args []string // Arguments appended to Cmd
	Env  []string // Environment variables in "KEY=VALUE" format
	Dir  string   // Working directory on the remote host

	// Standard streams. If nil, output is discarded.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Validate checks that the command is well-formed.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command cannot be nil")
	}

	if strings.TrimSpace(c.Cmd) == "" {
		return errors.New("command line cannot be empty")
	}

	return nil
}

// Shell wraps an opaque shell line. The line is passed to the remote shell
// verbatim, so pipes, redirects and "||" fallbacks keep their meaning.
func Shell(line string) *Command {
	return &Command{Cmd: line}
}

// NewCommand creates a Command with the given binary and arguments.
func NewCommand(binary string, args ...string) *Command {
	return &Command{
		Cmd:  binary,
		Args: args,
	}
}

// String returns the line sent to the remote shell. Arguments containing
// spaces are quoted.
func (c *Command) String() string {
	if len(c.Args) == 0 {
		return c.Cmd
	}

	var b strings.Builder
	b.WriteString(c.Cmd)

	for _, arg := range c.Args {
		b.WriteString(" ")

		if strings.Contains(arg, " ") {
			fmt.Fprintf(&b, "%q", arg)
		} else {
			b.WriteString(arg)
		}
	}

	return b.String()
}

// ParseCommand tokenizes a shell line using shlex.
// It fails on unbalanced quotes, which is how statement lists are checked
// before they are joined and sent.
func ParseCommand(line string) (*Command, error) {
	parts, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return &Command{
		Cmd:  parts[0],
		Args: parts[1:],
	}, nil
}

// Result contains metadata about a completed remote execution.
type Result struct {
	ExitCode int           // Remote exit status (0 indicates success)
	Duration time.Duration // Time taken for execution
	Error    error         // Transport error (distinct from a non-zero exit code)
}

// Success returns true if the command exited 0 with no transport error.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Error == nil
}

// Failed returns true if the command exited non-zero or hit a transport error.
func (r *Result) Failed() bool {
	return !r.Success()
}

// CommandResult extends Result with the decoded output of a command.
// Returned by Executor.RunBuffered and Executor.RunLineStream.
type CommandResult struct {
	Result

	Stdout string
	Stderr string
}

// decodeOutput turns raw remote output into text. Invalid UTF-8 sequences are
// replaced rather than rejected.
func decodeOutput(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
