// Package ssh provides an implementation of the opsctl.Session interface
// for the deployment host via the SSH protocol.
//
// It uses "golang.org/x/crypto/ssh" to manage the connection, providing:
//   - Password authentication with a bounded dial timeout
//   - Trust-on-first-use host key verification backed by known_hosts
//   - One SSH channel per command, killed when the call-site deadline expires
//   - File uploads via SFTP
//
// Aliases from an OpenSSH client config (~/.ssh/config) can be resolved to
// the real HostName and Port before dialing.
//
// Usage:
//
//	cfg := ssh.NewConfig("203.0.113.10", "root", ssh.WithPassword("secret"))
//	session, err := ssh.Connect(ctx, cfg)
package ssh
