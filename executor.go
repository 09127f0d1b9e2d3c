package opsctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Executor runs commands on a Session with call-site timeouts and output capture.
// It never treats a non-zero remote exit status as an error; callers read
// Result.ExitCode and decide what to print.
type Executor struct {
	session Session
}

// NewExecutor creates a new Executor over the given session.
func NewExecutor(session Session) *Executor {
	return &Executor{session: session}
}

// Run executes a command, respecting context cancellation and the configured timeout.
func (e *Executor) Run(ctx context.Context, cmd *Command, opts ...ExecOption) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cmd, cancel := e.prepare(ctx, cmd, opts)
	defer cancel()

	start := time.Now()
	res, err := e.session.Run(ctx, cmd)

	return e.settle(ctx, cmd, res, err, start)
}

// RunBuffered executes a command and captures both Stdout and Stderr as text.
func (e *Executor) RunBuffered(ctx context.Context, cmd *Command, opts ...ExecOption) (*CommandResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmdCopy := *cmd
	cmdCopy.Stdout = &stdoutBuf
	cmdCopy.Stderr = &stderrBuf

	result, err := e.Run(ctx, &cmdCopy, opts...)

	out := &CommandResult{
		Stdout: decodeOutput(stdoutBuf.Bytes()),
		Stderr: decodeOutput(stderrBuf.Bytes()),
	}
	if result != nil {
		out.Result = *result
	}

	return out, err
}

// RunShell executes an opaque shell line and captures its output.
func (e *Executor) RunShell(ctx context.Context, line string, opts ...ExecOption) (*CommandResult, error) {
	return e.RunBuffered(ctx, Shell(line), opts...)
}

// RunLineStream streams stdout line by line to onLine as it arrives.
// Stderr is buffered and returned in the result. Overrides Command.Stdout/Stderr.
func (e *Executor) RunLineStream(ctx context.Context, cmd *Command, onLine func(string), opts ...ExecOption) (*CommandResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()

	var stderrBuf bytes.Buffer

	cmdCopy := *cmd
	cmdCopy.Stdout = pw
	cmdCopy.Stderr = &stderrBuf

	ctx, streamCmd, cancel := e.prepare(ctx, &cmdCopy, opts)
	defer cancel()

	start := time.Now()

	proc, err := e.session.Start(ctx, streamCmd)
	if err != nil {
		_ = pw.Close()
		_ = pr.Close()

		return nil, err
	}

	defer func() { _ = proc.Close() }()

	scanErrCh := make(chan error, 1)

	go func() {
		defer func() { _ = pr.Close() }()

		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			onLine(decodeOutput(scanner.Bytes()))
		}

		scanErr := scanner.Err()
		// Keep draining so the remote writer never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pr)

		scanErrCh <- scanErr
	}()

	waitErr := proc.Wait()

	_ = pw.Close() // signal EOF to the scanner

	scanErr := <-scanErrCh

	res, err := e.settle(ctx, streamCmd, proc.Result(), waitErr, start)

	out := &CommandResult{Stderr: decodeOutput(stderrBuf.Bytes())}
	if res != nil {
		out.Result = *res
	}

	if err != nil {
		return out, err
	}

	if scanErr != nil {
		return out, fmt.Errorf("scan error: %w", scanErr)
	}

	return out, nil
}

// Mkdir creates a remote directory and its parents, waiting for the result.
// A non-zero exit is reported through Result.ExitCode, not as an error.
func (e *Executor) Mkdir(ctx context.Context, dir string, opts ...ExecOption) (*CommandResult, error) {
	return e.RunShell(ctx, "mkdir -p "+ShellQuote(dir), opts...)
}

// Upload copies a local file to the remote destination.
// It delegates directly to the underlying Session.
func (e *Executor) Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error {
	return e.session.Upload(ctx, localPath, remotePath, opts...)
}

// prepare applies the call-site limits to ctx. With an idle timeout the
// command's output streams are wrapped so that every write restarts the
// countdown; the returned Command is then a copy.
func (e *Executor) prepare(ctx context.Context, cmd *Command, opts []ExecOption) (context.Context, *Command, context.CancelFunc) {
	cfg := ExecConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	stopDeadline := context.CancelFunc(func() {})
	if cfg.Timeout > 0 {
		ctx, stopDeadline = context.WithTimeout(ctx, cfg.Timeout)
	}

	ctx, cancel := context.WithCancelCause(ctx)

	if cfg.IdleTimeout <= 0 {
		return ctx, cmd, func() {
			cancel(nil)
			stopDeadline()
		}
	}

	idle := newIdleTimer(cfg.IdleTimeout, func() { cancel(ErrIdleTimeout) })

	watched := *cmd
	watched.Stdout = idle.watch(cmd.Stdout)
	watched.Stderr = idle.watch(cmd.Stderr)

	return ctx, &watched, func() {
		idle.stop()
		cancel(nil)
		stopDeadline()
	}
}

// idleTimer fires once no watched stream has been written to for d.
type idleTimer struct {
	d time.Duration

	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

func newIdleTimer(d time.Duration, fire func()) *idleTimer {
	return &idleTimer{d: d, timer: time.AfterFunc(d, fire)}
}

func (t *idleTimer) touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.done {
		t.timer.Reset(t.d)
	}
}

func (t *idleTimer) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = true
	t.timer.Stop()
}

// watch returns w (or a discarding writer for nil) that touches t on writes.
func (t *idleTimer) watch(w io.Writer) io.Writer {
	if w == nil {
		w = io.Discard
	}

	return &activityWriter{w: w, idle: t}
}

type activityWriter struct {
	w    io.Writer
	idle *idleTimer
}

func (a *activityWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		a.idle.touch()
	}

	return a.w.Write(p)
}

// settle normalizes the outcome of a session call: exit errors become plain
// results, an expired deadline or idle timeout becomes an error carrying the
// cancellation cause.
func (e *Executor) settle(ctx context.Context, cmd *Command, res *Result, err error, start time.Time) (*Result, error) {
	if res == nil {
		res = &Result{}
	}

	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}

	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		res.Error = cause

		return res, fmt.Errorf("command %q aborted after %s: %w", cmd.String(), res.Duration.Round(time.Millisecond), cause)
	}

	if err == nil {
		log.Debug().Str("command", cmd.String()).Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("remote command finished")

		return res, nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode
		res.Error = nil

		log.Debug().Str("command", cmd.String()).Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("remote command exited non-zero")

		return res, nil
	}

	res.Error = err

	return res, err
}
