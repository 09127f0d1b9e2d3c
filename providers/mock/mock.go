package mock

import (
	"context"
	"io"
	"sync"

	"github.com/flashphoto/opsctl"
	"github.com/stretchr/testify/mock"
)

// Session implements a mock opsctl.Session using testify/mock.
//
// Run is implemented on top of Start, the same way the SSH provider does it,
// so a single expectation on "Start" serves both entry points.
type Session struct {
	mock.Mock

	mu     sync.Mutex
	closed bool
}

var _ opsctl.Session = (*Session)(nil)

// New creates a new mock session. Close is allowed but not required; after
// it, Start and Upload fail with opsctl.ErrSessionClosed like a real session.
func New() *Session {
	m := &Session{}
	m.On("Close").Return(nil).Maybe()

	return m
}

// Reply scripts the outcome of a matched command.
type Reply struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error // Transport failure returned from Wait
	Hang     bool  // Block until the context is done
}

// MatchLine matches a *opsctl.Command whose rendered line equals line.
// Command.String never includes Dir, so the working directory is not checked;
// use MatchLineIn for commands built with a Dir.
func MatchLine(line string) any {
	return mock.MatchedBy(func(c *opsctl.Command) bool {
		return c != nil && c.String() == line
	})
}

// MatchLineIn matches a *opsctl.Command that renders to line and runs in dir.
func MatchLineIn(dir, line string) any {
	return mock.MatchedBy(func(c *opsctl.Command) bool {
		return c != nil && c.Dir == dir && c.String() == line
	})
}

// OnCommandIn expects line to run in the remote directory dir.
func (m *Session) OnCommandIn(dir, line string, reply Reply) *mock.Call {
	return m.On("Start", mock.Anything, MatchLineIn(dir, line)).Return(&reply, nil)
}

// OnCommand expects a command rendering to line and answers it with reply.
func (m *Session) OnCommand(line string, reply Reply) *mock.Call {
	return m.On("Start", mock.Anything, MatchLine(line)).Return(&reply, nil)
}

// OnUpload expects an upload from localPath to remotePath with any options.
func (m *Session) OnUpload(localPath, remotePath string) *mock.Call {
	return m.On("Upload", mock.Anything, localPath, remotePath, mock.Anything)
}

// Upload mocks uploading a file to the remote host.
func (m *Session) Upload(ctx context.Context, localPath, remotePath string, opts ...opsctl.FileOption) error {
	if m.isClosed() {
		return opsctl.ErrSessionClosed
	}

	// Variadic capture fix for testify
	args := m.Called(ctx, localPath, remotePath, opts)

	return args.Error(0)
}

// Run mocks running a command to completion.
func (m *Session) Run(ctx context.Context, cmd *opsctl.Command) (*opsctl.Result, error) {
	proc, err := m.Start(ctx, cmd)
	if err != nil {
		return nil, err
	}

	defer func() { _ = proc.Close() }()

	waitErr := proc.Wait()

	return proc.Result(), waitErr
}

// Start mocks starting a command. The expectation may return a *Reply or any
// opsctl.Process.
func (m *Session) Start(ctx context.Context, cmd *opsctl.Command) (opsctl.Process, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if m.isClosed() {
		return nil, opsctl.ErrSessionClosed
	}

	args := m.Called(ctx, cmd)

	switch p := args.Get(0).(type) {
	case *Reply:
		return &Process{ctx: ctx, cmd: cmd, reply: *p}, args.Error(1)
	case opsctl.Process:
		return p, args.Error(1)
	default:
		return nil, args.Error(1)
	}
}

// Close mocks closing the session.
func (m *Session) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	args := m.Called()

	return args.Error(0)
}

func (m *Session) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// Commands returns the rendered lines of every started command, in order.
func (m *Session) Commands() []string {
	var lines []string

	for _, c := range m.Calls {
		if c.Method != "Start" {
			continue
		}

		if cmd, ok := c.Arguments.Get(1).(*opsctl.Command); ok {
			lines = append(lines, cmd.String())
		}
	}

	return lines
}

// Process plays back a Reply as an opsctl.Process.
type Process struct {
	ctx   context.Context //nolint:containedctx
	cmd   *opsctl.Command
	reply Reply

	once   sync.Once
	result *opsctl.Result
	err    error
}

var _ opsctl.Process = (*Process)(nil)

// Wait writes the scripted output to the command's streams and returns the
// scripted outcome.
func (p *Process) Wait() error {
	p.once.Do(p.play)

	return p.err
}

func (p *Process) play() {
	if p.reply.Hang {
		<-p.ctx.Done()

		p.result = &opsctl.Result{ExitCode: -1, Error: p.ctx.Err()}
		p.err = p.ctx.Err()

		return
	}

	writeOutput(p.cmd.Stdout, p.reply.Stdout)
	writeOutput(p.cmd.Stderr, p.reply.Stderr)

	p.result = &opsctl.Result{ExitCode: p.reply.ExitCode, Error: p.reply.Err}

	switch {
	case p.reply.Err != nil:
		p.err = &opsctl.TransportError{Command: p.cmd, Err: p.reply.Err}
	case p.reply.ExitCode != 0:
		p.err = &opsctl.ExitError{Command: p.cmd, ExitCode: p.reply.ExitCode, Stderr: []byte(p.reply.Stderr)}
	}
}

// Result returns the scripted result once Wait has returned.
func (p *Process) Result() *opsctl.Result {
	if p.result == nil {
		return &opsctl.Result{}
	}

	return p.result
}

// Close is a no-op.
func (p *Process) Close() error {
	return nil
}

func writeOutput(w io.Writer, content string) {
	if w != nil && content != "" {
		_, _ = io.WriteString(w, content)
	}
}
