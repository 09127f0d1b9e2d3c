package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// NewEnvViper returns a viper instance that resolves the status checker's
// settings from the environment, with defaults for the optional ones.
// Callers may bind flags onto the same keys so flags take precedence.
func NewEnvViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(EnvPath, DefaultRemotePath)
	v.SetDefault(EnvPort, DefaultPort)
	v.AutomaticEnv()

	return v
}

// FromEnv builds a ConnectionConfig from v. A missing host or password
// yields a *MissingError naming exactly the missing variables.
func FromEnv(v *viper.Viper) (ConnectionConfig, error) {
	c := ConnectionConfig{
		Host:       strings.TrimSpace(v.GetString(EnvHost)),
		Username:   strings.TrimSpace(v.GetString(EnvUser)),
		Credential: v.GetString(EnvPassword),
		RemotePath: strings.TrimSpace(v.GetString(EnvPath)),
	}

	var missing []string

	if c.Host == "" {
		missing = append(missing, EnvHost)
	}

	if c.Credential == "" {
		missing = append(missing, EnvPassword)
	}

	if len(missing) > 0 {
		return ConnectionConfig{}, &MissingError{Vars: missing}
	}

	if c.Username == "" {
		c.Username = DefaultUsername
		c.UserDefaulted = true
	}

	if c.RemotePath == "" {
		c.RemotePath = DefaultRemotePath
	}

	port, err := parsePort(v.Get(EnvPort))
	if err != nil {
		return ConnectionConfig{}, fmt.Errorf("invalid %s: %w", EnvPort, err)
	}

	c.Port = port

	return c, c.Validate()
}

// parsePort reads a port as a plain decimal number. Strings from the
// environment or deploy file are trimmed and must not carry a base prefix,
// so "022" is 22 rather than octal. Typed values from bound flags go
// through cast.
func parsePort(raw any) (int, error) {
	s, ok := raw.(string)
	if !ok {
		return cast.ToIntE(raw)
	}

	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("port %q is not a decimal number", s)
	}

	return port, nil
}
