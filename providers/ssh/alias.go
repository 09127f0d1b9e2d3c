package ssh

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Alias is the connection target an ~/.ssh/config Host block resolves to.
type Alias struct {
	HostName string
	Port     int
	User     string
}

// ResolveAliasFile resolves alias using the OpenSSH client config at path.
func ResolveAliasFile(alias, path string) (Alias, error) {
	f, err := os.Open(path)
	if err != nil {
		return Alias{}, fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return ResolveAlias(alias, f)
}

// ResolveAlias parses OpenSSH client config data and resolves alias to its
// HostName, Port and User. Missing keys fall back to the alias itself and port 22.
func ResolveAlias(alias string, r io.Reader) (Alias, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Alias{}, fmt.Errorf("failed to parse ssh config: %w", err)
	}

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil || hostName == "" {
		hostName = alias
	}

	resolved := Alias{HostName: hostName, Port: 22}

	if portStr, _ := cfg.Get(alias, "Port"); portStr != "" {
		port, err := strconv.Atoi(strings.TrimSpace(portStr))
		if err != nil {
			return Alias{}, fmt.Errorf("invalid Port %q for host %q: %w", portStr, alias, err)
		}

		resolved.Port = port
	}

	resolved.User, _ = cfg.Get(alias, "User")

	return resolved, nil
}

// ApplyAlias resolves c.Host through the ssh config at path and returns the
// updated Config. An explicit User or non-default Port on c wins over the
// config file.
func (c Config) ApplyAlias(path string) (Config, error) {
	a, err := ResolveAliasFile(c.Host, path)
	if err != nil {
		return c, err
	}

	c.Host = a.HostName

	if c.Port == 0 || c.Port == 22 {
		c.Port = a.Port
	}

	if c.User == "" {
		c.User = a.User
	}

	return c, nil
}
