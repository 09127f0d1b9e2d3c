package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

// DefaultConnectTimeout bounds dialing and the SSH handshake.
const DefaultConnectTimeout = 30 * time.Second

// Config holds all parameters required to establish an SSH connection.
type Config struct {
	// Connection details
	Host string // Hostname, IP address or ~/.ssh/config alias
	Port int    // Port number (default 22)
	User string // Username to authenticate as

	Password string // Password for authentication

	// Connection settings
	Timeout            time.Duration       // Connection timeout (default 30s)
	KnownHostsPath     string              // Trust-on-first-use store (default ~/.ssh/known_hosts)
	HostKeyCheck       ssh.HostKeyCallback // Overrides the trust-on-first-use callback when set
	InsecureSkipVerify bool                // If true, disables host key checking. Use ONLY for testing.
}

// NewConfig creates a Config with defaults and applies opts.
func NewConfig(host, username string, opts ...Option) Config {
	c := Config{
		Host:    host,
		User:    username,
		Port:    22,
		Timeout: DefaultConnectTimeout,
	}

	for _, o := range opts {
		o(&c)
	}

	return c
}

// WithDefaults sets default values for zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = 22
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultConnectTimeout
	}

	if c.KnownHostsPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.KnownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
		}
	}

	if c.InsecureSkipVerify && c.HostKeyCheck == nil {
		c.HostKeyCheck = ssh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-in
	}

	return c
}

// Validate ensures all required fields are present.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("configuration error: host address cannot be empty")
	}

	if c.User == "" {
		return errors.New("configuration error: user cannot be empty")
	}

	if c.Password == "" {
		return errors.New("configuration error: password cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("configuration error: invalid port %d", c.Port)
	}

	if c.HostKeyCheck == nil && c.KnownHostsPath == "" {
		return errors.New("configuration error: no known_hosts path and no HostKeyCheck; set KnownHostsPath or InsecureSkipVerify=true (testing only)")
	}

	return nil
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ToClientConfig converts the Config to the underlying ssh.ClientConfig.
// Without an explicit HostKeyCheck the trust-on-first-use callback is built
// from KnownHostsPath.
func (c Config) ToClientConfig() (*ssh.ClientConfig, error) {
	hostKeyCheck := c.HostKeyCheck
	if hostKeyCheck == nil {
		cb, err := TrustOnFirstUse(c.KnownHostsPath)
		if err != nil {
			return nil, err
		}

		hostKeyCheck = cb
	}

	return &ssh.ClientConfig{
		User: c.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.Password),
			ssh.KeyboardInteractive(passwordChallenge(c.Password)),
		},
		HostKeyCallback: hostKeyCheck,
		Timeout:         c.Timeout,
	}, nil
}

// passwordChallenge answers keyboard-interactive prompts with the password.
// Some hosts only offer that method for password logins.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(_, _ string, questions []string, _ []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = password
		}

		return answers, nil
	}
}
