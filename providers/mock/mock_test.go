package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMockSession(t *testing.T) {
	t.Parallel()

	m := New()
	ctx := context.Background()

	m.OnCommand("uptime", Reply{Stdout: " 10:00:00 up 3 days\n"})
	m.OnUpload("src", "dst").Return(nil)

	res, err := opsctl.NewExecutor(m).RunShell(ctx, "uptime")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, " 10:00:00 up 3 days\n", res.Stdout)

	require.NoError(t, m.Upload(ctx, "src", "dst"))
	require.NoError(t, m.Close())

	assert.Equal(t, []string{"uptime"}, m.Commands())
	m.AssertExpectations(t)
}

func TestMockSession_NonZeroExit(t *testing.T) {
	t.Parallel()

	m := New()
	m.OnCommand("docker logs flashphoto-admin-api --tail 30 2>&1", Reply{ExitCode: 1, Stderr: "no such container\n"})

	res, err := m.Run(context.Background(), opsctl.Shell("docker logs flashphoto-admin-api --tail 30 2>&1"))

	var exitErr *opsctl.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode)
	assert.Equal(t, 1, res.ExitCode)
}

func TestMockSession_TransportError(t *testing.T) {
	t.Parallel()

	m := New()
	m.OnCommand("uptime", Reply{Err: errors.New("connection reset")})

	_, err := opsctl.NewExecutor(m).RunShell(context.Background(), "uptime")

	var transportErr *opsctl.TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestMockSession_Hang(t *testing.T) {
	t.Parallel()

	m := New()
	m.OnCommand("sleep 600", Reply{Hang: true})

	_, err := opsctl.NewExecutor(m).RunShell(context.Background(), "sleep 600", opsctl.WithTimeout(20*time.Millisecond))
	require.Error(t, err)
	assert.True(t, opsctl.IsTimeout(err))
}

func TestMockSession_OnCommandInChecksDir(t *testing.T) {
	t.Parallel()

	m := New()
	m.OnCommandIn("/www/wwwroot/flashphoto", "docker compose ps", Reply{Stdout: "flashphoto-admin-api running\n"})

	elsewhere := opsctl.Cmd("docker").Args("compose", "ps").Dir("/tmp").Build()
	assert.Panics(t, func() { _, _ = m.Start(context.Background(), elsewhere) })

	status := opsctl.Cmd("docker").Args("compose", "ps").Dir("/www/wwwroot/flashphoto").Build()
	res, err := m.Run(context.Background(), status)
	require.NoError(t, err)
	assert.Equal(t, "flashphoto-admin-api running\n", res.Stdout)
}

func TestMockSession_StartError(t *testing.T) {
	t.Parallel()

	m := New()
	m.On("Start", mock.Anything, mock.Anything).Return(nil, opsctl.ErrSessionClosed)

	_, err := m.Run(context.Background(), opsctl.Shell("uptime"))
	require.ErrorIs(t, err, opsctl.ErrSessionClosed)
}

func TestMockSession_Contracts(t *testing.T) {
	t.Parallel()

	sessiontest.Verify(t, func(_ *testing.T) sessiontest.Fixture {
		m := New()

		return sessiontest.Fixture{
			Session: m,
			Expect: func(line string, r sessiontest.Reply) {
				m.OnCommand(line, Reply{Stdout: r.Stdout, Stderr: r.Stderr, ExitCode: r.ExitCode, Hang: r.Hang})
			},
		}
	})
}
