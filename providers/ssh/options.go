package ssh

import "time"

// Option defines a functional option for the SSH provider.
type Option func(*Config)

// WithPort sets the SSH port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithPassword sets the SSH password.
func WithPassword(password string) Option {
	return func(c *Config) {
		c.Password = password
	}
}

// WithTimeout sets the connection timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithKnownHosts sets the known_hosts file used for trust-on-first-use.
func WithKnownHosts(path string) Option {
	return func(c *Config) {
		c.KnownHostsPath = path
	}
}

// WithInsecureSkipVerify disables host key checking entirely. Use ONLY for testing.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}
