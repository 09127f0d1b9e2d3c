package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/config"
	opsmock "github.com/flashphoto/opsctl/providers/mock"
	"github.com/flashphoto/opsctl/providers/ssh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	psLine   = `docker ps -a --format 'table {{.Names}}\t{{.Status}}' | head -15`
	logsLine = "docker logs flashphoto-admin-api --tail 30 2>&1"
	envLine  = "docker exec flashphoto-admin-api env | grep -E 'JWT_|COS_|WX_' 2>/dev/null || echo '容器可能未运行'"
)

// recordingDialer returns sess and remembers every config it was asked to dial.
type recordingDialer struct {
	sess  opsctl.Session
	err   error
	calls []ssh.Config
}

func (d *recordingDialer) dial(_ context.Context, c ssh.Config) (opsctl.Session, error) {
	d.calls = append(d.calls, c)
	if d.err != nil {
		return nil, d.err
	}

	return d.sess, nil
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{config.EnvHost, config.EnvUser, config.EnvPassword, config.EnvPath, config.EnvPort} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, d *recordingDialer, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(d.dial, &stdout, &stderr)
	cmd.SetArgs(append([]string{"--known-hosts", t.TempDir() + "/known_hosts"}, args...))

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

func TestServerCheck_MissingHostDoesNotDial(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvPassword, "secret")

	d := &recordingDialer{}

	out, err := execute(t, d)
	require.Error(t, err)

	var missing *config.MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{config.EnvHost}, missing.Vars)

	assert.Empty(t, d.calls)
	assert.Contains(t, out, "DEPLOY_HOST")
	assert.Contains(t, out, `$env:DEPLOY_HOST = "your.server.ip"`)
	assert.NotContains(t, out, "$env:DEPLOY_PASSWORD")
}

func TestServerCheck_MissingBoth(t *testing.T) {
	clearEnv(t)

	d := &recordingDialer{}

	out, err := execute(t, d)
	require.Error(t, err)
	assert.Empty(t, d.calls)
	assert.Contains(t, out, "missing environment variables: DEPLOY_HOST, DEPLOY_PASSWORD")
	assert.Contains(t, out, "export DEPLOY_PASSWORD=your_password")
}

func TestServerCheck_RunsAllDiagnostics(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvHost, "203.0.113.10")
	t.Setenv(config.EnvPassword, "secret")

	m := opsmock.New()
	m.OnCommand(psLine, opsmock.Reply{Stdout: "NAMES\tSTATUS\n"})
	m.OnCommand(logsLine, opsmock.Reply{Stderr: "Error: No such container\n", ExitCode: 1})
	m.OnCommand(envLine, opsmock.Reply{Stdout: "JWT_SECRET=x\n"})

	d := &recordingDialer{sess: m}

	out, err := execute(t, d)
	require.NoError(t, err)

	require.Len(t, d.calls, 1)
	assert.Equal(t, "203.0.113.10", d.calls[0].Host)
	assert.Equal(t, "root", d.calls[0].User)
	assert.Equal(t, "secret", d.calls[0].Password)
	assert.Equal(t, 22, d.calls[0].Port)
	assert.Equal(t, ssh.DefaultConnectTimeout, d.calls[0].Timeout)

	assert.Equal(t, []string{psLine, logsLine, envLine}, m.Commands())
	assert.Contains(t, out, "Connecting to 203.0.113.10...")
	assert.Contains(t, out, "[stderr] Error: No such container")
	assert.Contains(t, out, "check complete")

	m.AssertCalled(t, "Close")
}

func TestServerCheck_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvHost, "203.0.113.10")
	t.Setenv(config.EnvPassword, "secret")
	t.Setenv(config.EnvUser, "deploy")

	m := opsmock.New()
	m.OnCommand(psLine, opsmock.Reply{})
	m.OnCommand("docker logs flashphoto-web --tail 5 2>&1", opsmock.Reply{})
	m.OnCommand("docker exec flashphoto-web env | grep -E 'JWT_|COS_|WX_' 2>/dev/null || echo '容器可能未运行'", opsmock.Reply{})

	d := &recordingDialer{sess: m}

	_, err := execute(t, d, "--host", "198.51.100.7", "--user", "admin", "--port", "2222", "--container", "flashphoto-web", "--tail", "5")
	require.NoError(t, err)

	require.Len(t, d.calls, 1)
	assert.Equal(t, "198.51.100.7", d.calls[0].Host)
	assert.Equal(t, "admin", d.calls[0].User)
	assert.Equal(t, 2222, d.calls[0].Port)
	m.AssertExpectations(t)
}

func TestServerCheck_ConnectionFailure(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvHost, "203.0.113.10")
	t.Setenv(config.EnvPassword, "wrong")

	d := &recordingDialer{err: &opsctl.TransportError{Err: errors.New("ssh: unable to authenticate")}}

	out, err := execute(t, d)
	require.Error(t, err)
	assert.Len(t, d.calls, 1)
	assert.Contains(t, out, "connection failed: transport error: ssh: unable to authenticate")
	assert.NotContains(t, out, "check complete")
}

func TestServerCheck_TransportErrorMidSequenceClosesSession(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvHost, "203.0.113.10")
	t.Setenv(config.EnvPassword, "secret")

	m := opsmock.New()
	m.OnCommand(psLine, opsmock.Reply{Err: errors.New("broken pipe")})

	_, err := execute(t, &recordingDialer{sess: m})
	require.Error(t, err)

	m.AssertCalled(t, "Close")
	assert.Equal(t, []string{psLine}, m.Commands())
}
