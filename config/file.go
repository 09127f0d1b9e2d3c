package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// ParseEnvFile reads KEY=VALUE lines. Blank lines and lines starting with '#'
// are ignored, the first '=' separates key from value, and both sides are
// trimmed. Lines without '=' are ignored. Later keys overwrite earlier ones.
func ParseEnvFile(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			log.Debug().Int("line", lineNo).Msg("ignoring deploy file line without '='")

			continue
		}

		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deploy file: %w", err)
	}

	return values, nil
}

// LoadDeployFile builds a ConnectionConfig from the deploy file at path.
// The remote path is always DefaultRemotePath; the file cannot change it.
func LoadDeployFile(path string) (ConnectionConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ConnectionConfig{}, &MissingError{File: path}
		}

		return ConnectionConfig{}, fmt.Errorf("failed to open deploy file: %w", err)
	}

	defer func() { _ = f.Close() }()

	values, err := ParseEnvFile(f)
	if err != nil {
		return ConnectionConfig{}, err
	}

	return fromFileValues(path, values)
}

func fromFileValues(path string, values map[string]string) (ConnectionConfig, error) {
	c := ConnectionConfig{
		Host:       values[KeyServerIP],
		Username:   values[KeyServerUser],
		Credential: values[KeyServerPassword],
		Port:       DefaultPort,
		RemotePath: DefaultRemotePath,
	}

	var missing []string

	if c.Host == "" {
		missing = append(missing, KeyServerIP)
	}

	if c.Credential == "" {
		missing = append(missing, KeyServerPassword)
	}

	if len(missing) > 0 {
		return ConnectionConfig{}, &MissingError{Vars: missing, File: path}
	}

	if c.Username == "" {
		c.Username = DefaultUsername
		c.UserDefaulted = true
	}

	if raw, ok := values[KeyServerPort]; ok && raw != "" {
		port, err := parsePort(raw)
		if err != nil {
			return ConnectionConfig{}, fmt.Errorf("invalid %s in %s: %w", KeyServerPort, path, err)
		}

		c.Port = port
	}

	return c, c.Validate()
}
