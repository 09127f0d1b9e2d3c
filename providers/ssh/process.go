package ssh

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/flashphoto/opsctl"
	"golang.org/x/crypto/ssh"
)

// exitConnectionLost is reported when the channel ends without an exit status.
const exitConnectionLost = 255

// Process is one command running on its own SSH channel.
type Process struct {
	owner   *Session
	channel *ssh.Session
	cmd     *opsctl.Command

	done chan struct{}

	mu     sync.RWMutex
	result *opsctl.Result
	closed bool
}

// Wait blocks until the command ends. A non-zero exit comes back as
// *opsctl.ExitError, an expired or cancelled context as the context error.
func (p *Process) Wait() error {
	<-p.done

	p.mu.RLock()
	defer p.mu.RUnlock()

	err := p.result.Error
	if err == nil {
		return nil
	}

	var sshExit *ssh.ExitError
	if errors.As(err, &sshExit) {
		return &opsctl.ExitError{Command: p.cmd, ExitCode: sshExit.ExitStatus(), Cause: err}
	}

	return err
}

// Result returns a snapshot of the outcome. Before Wait returns it is empty.
func (p *Process) Result() *opsctl.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.result == nil {
		return &opsctl.Result{}
	}

	r := *p.result

	return &r
}

// Close releases the channel. Safe to call more than once.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	// io.EOF: the server closed the channel first.
	if err := p.channel.Close(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// abort asks the server to kill the command and drops the channel. Many
// servers ignore the signal, so closing is what actually unblocks Wait.
func (p *Process) abort() {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if !closed {
		_ = p.channel.Signal(ssh.SIGKILL)
	}

	_ = p.Close()
}

func (p *Process) start(ctx context.Context) error {
	if p.cmd.Stdout != nil {
		p.channel.Stdout = p.cmd.Stdout
	}

	if p.cmd.Stderr != nil {
		p.channel.Stderr = p.cmd.Stderr
	}

	if p.cmd.Stdin != nil {
		p.channel.Stdin = p.cmd.Stdin
	}

	began := time.Now()

	if err := p.channel.Start(buildFullCommand(p.cmd)); err != nil {
		return err
	}

	go p.watch(ctx, began)

	return nil
}

// watch waits for the channel to finish, aborting it if ctx ends first, and
// records the result.
func (p *Process) watch(ctx context.Context, began time.Time) {
	defer close(p.done)
	defer p.owner.decrementActive()

	finished := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			p.abort()
		case <-finished:
		}
	}()

	err := p.channel.Wait()
	close(finished)

	res := &opsctl.Result{Duration: time.Since(began), Error: err}

	var sshExit *ssh.ExitError

	switch {
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Error = ctx.Err()
	case errors.As(err, &sshExit):
		res.ExitCode = sshExit.ExitStatus()
	case err != nil:
		res.ExitCode = exitConnectionLost
	}

	p.mu.Lock()
	p.result = res
	p.mu.Unlock()
}
