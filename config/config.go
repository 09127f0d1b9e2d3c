// Package config builds the single ConnectionConfig each tool runs with.
//
// The status checker reads it from the environment (optionally overridden by
// flags bound through viper); the deploy tool reads it from a flat .env.deploy
// file. Either way it is built once at startup and passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultUsername   = "root"
	DefaultRemotePath = "/www/wwwroot/flashphoto"
	DefaultPort       = 22
	DeployFileName    = ".env.deploy"
)

// Environment variables read by the status checker.
const (
	EnvHost     = "DEPLOY_HOST"
	EnvUser     = "DEPLOY_USER"
	EnvPassword = "DEPLOY_PASSWORD"
	EnvPath     = "PROJECT_PATH"
	EnvPort     = "DEPLOY_PORT"
)

// Keys recognised in the deploy file.
const (
	KeyServerIP       = "SERVER_IP"
	KeyServerUser     = "SERVER_USER"
	KeyServerPassword = "SERVER_PASSWORD"
	KeyServerPort     = "SERVER_PORT"
)

// ConnectionConfig holds everything needed to reach the server and locate
// the project on it. It is not modified after loading.
type ConnectionConfig struct {
	Host       string
	Port       int
	Username   string
	Credential string
	RemotePath string

	// UserDefaulted is set when no user was configured and Username holds
	// DefaultUsername. An ssh config alias may still supply the user.
	UserDefaulted bool
}

// Validate checks that host and credential are present and the port is usable.
func (c ConnectionConfig) Validate() error {
	var missing []string

	if c.Host == "" {
		missing = append(missing, "host")
	}

	if c.Credential == "" {
		missing = append(missing, "credential")
	}

	if len(missing) > 0 {
		return fmt.Errorf("invalid connection config: missing %s", strings.Join(missing, ", "))
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid connection config: port %d out of range", c.Port)
	}

	if c.Username == "" {
		return errors.New("invalid connection config: username cannot be empty")
	}

	return nil
}

// String renders the config for logs and console output with the credential masked.
func (c ConnectionConfig) String() string {
	masked := ""
	if c.Credential != "" {
		masked = "****"
	}

	return fmt.Sprintf("%s@%s:%d path=%s password=%s", c.Username, c.Host, c.Port, c.RemotePath, masked)
}

// MissingError reports required configuration that could not be found,
// either as environment variables / file keys (Vars) or a whole file (File).
type MissingError struct {
	Vars []string
	File string
}

func (e *MissingError) Error() string {
	switch {
	case e.File != "" && len(e.Vars) == 0:
		return "config file not found: " + e.File
	case e.File != "":
		return fmt.Sprintf("missing keys in %s: %s", e.File, strings.Join(e.Vars, ", "))
	default:
		return "missing environment variables: " + strings.Join(e.Vars, ", ")
	}
}
