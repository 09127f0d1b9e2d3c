package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// TrustOnFirstUse returns a HostKeyCallback backed by the known_hosts file at path.
//
// Hosts already listed are verified strictly: a changed key is rejected.
// Hosts that are not listed are accepted and their key is appended to the
// file. The file and its directory are created when missing.
func TrustOnFirstUse(path string) (ssh.HostKeyCallback, error) {
	if path == "" {
		return nil, errors.New("known_hosts path cannot be empty")
	}

	if err := ensureKnownHosts(path); err != nil {
		return nil, err
	}

	var mu sync.Mutex

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		mu.Lock()
		defer mu.Unlock()

		// Re-read on every call so keys recorded earlier in the process count.
		check, err := knownhosts.New(path)
		if err != nil {
			return fmt.Errorf("failed to load known_hosts %q: %w", path, err)
		}

		err = check(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			return err
		}

		if err := appendKnownHost(path, hostname, key); err != nil {
			return err
		}

		log.Warn().
			Str("host", hostname).
			Str("fingerprint", ssh.FingerprintSHA256(key)).
			Str("known_hosts", path).
			Msg("trusting new host key on first use")

		return nil
	}, nil
}

func ensureKnownHosts(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create known_hosts directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts %q: %w", path, err)
	}

	return f.Close()
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts %q: %w", path, err)
	}

	defer func() { _ = f.Close() }()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to record host key: %w", err)
	}

	return nil
}
