package ssh

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/flashphoto/opsctl"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

var _ opsctl.Session = (*Session)(nil)

// Session implements opsctl.Session over a single SSH client connection.
type Session struct {
	config Config
	client *ssh.Client
	mu     sync.Mutex
	active int
	closed bool
}

// Connect dials the host and authenticates with the configured password.
// There is no retry: dial, handshake and authentication failures are returned
// as *opsctl.TransportError.
func Connect(ctx context.Context, c Config) (*Session, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	clientConfig, err := c.ToClientConfig()
	if err != nil {
		return nil, err
	}

	addr := c.Addr()
	log.Debug().Str("addr", addr).Str("user", c.User).Dur("timeout", c.Timeout).Msg("dialing ssh")

	d := net.Dialer{Timeout: c.Timeout}

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &opsctl.TransportError{Err: fmt.Errorf("failed to dial ssh at %s: %w", addr, err)}
	}

	// Bound the handshake as well; ssh.NewClientConn has no timeout of its own.
	_ = conn.SetDeadline(time.Now().Add(c.Timeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()

		return nil, &opsctl.TransportError{Err: fmt.Errorf("ssh handshake with %s failed: %w", addr, err)}
	}

	_ = conn.SetDeadline(time.Time{})

	log.Debug().Str("addr", addr).Str("server_version", string(sshConn.ServerVersion())).Msg("ssh connected")

	return NewFromClient(ssh.NewClient(sshConn, chans, reqs), c), nil
}

// NewFromClient creates a Session from an existing client.
func NewFromClient(client *ssh.Client, config Config) *Session {
	return &Session{
		config: config,
		client: client,
	}
}

// Run executes a command synchronously on the remote server.
// The returned Result is populated even when the command exits non-zero.
func (s *Session) Run(ctx context.Context, cmd *opsctl.Command) (*opsctl.Result, error) {
	proc, err := s.Start(ctx, cmd)
	if err != nil {
		return nil, err
	}

	defer func() { _ = proc.Close() }()

	waitErr := proc.Wait()

	return proc.Result(), waitErr
}

// Start opens a fresh SSH channel for cmd and returns once it is running.
func (s *Session) Start(ctx context.Context, cmd *opsctl.Command) (opsctl.Process, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil, opsctl.ErrSessionClosed
	}

	s.active++
	s.mu.Unlock()

	channel, err := s.client.NewSession()
	if err != nil {
		s.decrementActive()

		return nil, &opsctl.TransportError{Command: cmd, Err: fmt.Errorf("failed to open ssh channel: %w", err)}
	}

	process := &Process{
		owner:   s,
		channel: channel,
		cmd:     cmd,
		done:    make(chan struct{}),
	}

	if err := process.start(ctx); err != nil {
		_ = channel.Close()

		s.decrementActive()

		return nil, &opsctl.TransportError{Command: cmd, Err: err}
	}

	return process, nil
}

// Close closes the underlying SSH connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.active > 0 {
		log.Debug().Int("active", s.active).Msg("closing ssh session with commands still running")
	}

	if s.client != nil {
		return s.client.Close()
	}

	return nil
}

func (s *Session) decrementActive() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

func (s *Session) sshClient() (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, opsctl.ErrSessionClosed
	}

	return s.client, nil
}
