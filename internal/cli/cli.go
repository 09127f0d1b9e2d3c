// Package cli holds the flag and connection wiring shared by the commands
// under cmd/.
package cli

import (
	"context"
	"io"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/config"
	"github.com/flashphoto/opsctl/internal/logging"
	"github.com/flashphoto/opsctl/providers/ssh"
	"github.com/spf13/pflag"
)

// Dialer opens a session to the configured host. Tests replace it.
type Dialer func(ctx context.Context, c ssh.Config) (opsctl.Session, error)

// DialSSH is the production Dialer.
func DialSSH(ctx context.Context, c ssh.Config) (opsctl.Session, error) {
	s, err := ssh.Connect(ctx, c)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// SSHFlags are the connection flags common to both commands.
type SSHFlags struct {
	ConfigPath string
	KnownHosts string
}

// Register adds the flags to fs.
func (f *SSHFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "ssh-config", "", "Resolve the host as an alias in this OpenSSH client config (e.g. ~/.ssh/config)")
	fs.StringVar(&f.KnownHosts, "known-hosts", "", "known_hosts file used to trust and record host keys (default ~/.ssh/known_hosts)")
}

// SSHConfig turns a loaded ConnectionConfig into provider settings. A user
// that was only defaulted yields to the alias's User when --ssh-config is set.
func (f *SSHFlags) SSHConfig(c config.ConnectionConfig) (ssh.Config, error) {
	opts := []ssh.Option{
		ssh.WithPort(c.Port),
		ssh.WithPassword(c.Credential),
		ssh.WithTimeout(ssh.DefaultConnectTimeout),
	}

	if f.KnownHosts != "" {
		opts = append(opts, ssh.WithKnownHosts(f.KnownHosts))
	}

	if f.ConfigPath == "" {
		return ssh.NewConfig(c.Host, c.Username, opts...), nil
	}

	user := c.Username
	if c.UserDefaulted {
		user = ""
	}

	sc, err := ssh.NewConfig(c.Host, user, opts...).ApplyAlias(f.ConfigPath)
	if err != nil {
		return sc, err
	}

	if sc.User == "" {
		sc.User = config.DefaultUsername
	}

	return sc, nil
}

// LogFlags select the zerolog level and format.
type LogFlags struct {
	Level  string
	Format string
}

// Register adds the flags to fs.
func (f *LogFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Level, "log-level", logging.DefaultLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.Format, "log-format", "console", "Log format (console, json)")
}

// Init configures the global logger to write to w.
func (f *LogFlags) Init(w io.Writer) {
	logging.Init(f.Level, f.Format, w)
}
