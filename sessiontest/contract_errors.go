package sessiontest

import (
	"time"

	"github.com/flashphoto/opsctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runExitErrorCode = 13

func errorContracts() []TestCase {
	return []TestCase{
		runNonZeroReturnsExitErrorContract(),
		startWaitNonZeroReturnsExitErrorContract(),
		invalidCommandContract(),
		timeoutContract(),
		idleTimeoutContract(),
		closedSessionContract(),
	}
}

func runNonZeroReturnsExitErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "run-nonzero-returns-exiterror",
		Description: "Session.Run non-zero failures must return *opsctl.ExitError",
		Run: func(t T, fx Fixture) {
			fx.Expect("exit 13", Reply{ExitCode: runExitErrorCode})

			res, err := fx.Session.Run(t.Context(), opsctl.Shell("exit 13"))
			require.Error(t, err)

			var exitErr *opsctl.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, runExitErrorCode, exitErr.ExitCode)

			require.NotNil(t, res)
			assert.Equal(t, runExitErrorCode, res.ExitCode)
		},
	}
}

func startWaitNonZeroReturnsExitErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "start-wait-nonzero-returns-exiterror",
		Description: "Process.Wait non-zero failures must return *opsctl.ExitError",
		Run: func(t T, fx Fixture) {
			fx.Expect("exit 13", Reply{ExitCode: runExitErrorCode})

			process, err := fx.Session.Start(t.Context(), opsctl.Shell("exit 13"))
			require.NoError(t, err)
			require.NotNil(t, process)

			defer func() {
				_ = process.Close()
			}()

			err = process.Wait()

			var exitErr *opsctl.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, runExitErrorCode, exitErr.ExitCode)
		},
	}
}

func invalidCommandContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "invalid-command-rejected",
		Description: "An empty command must be rejected before anything is sent",
		Run: func(t T, fx Fixture) {
			_, err := fx.Session.Start(t.Context(), &opsctl.Command{Cmd: "  "})
			require.Error(t, err)
		},
	}
}

func timeoutContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "deadline-is-timeout",
		Description: "A call-site deadline must end the command and be reported as a timeout",
		Run: func(t T, fx Fixture) {
			fx.Expect("sleep 600", Reply{Hang: true})

			_, err := opsctl.NewExecutor(fx.Session).RunShell(t.Context(), "sleep 600", opsctl.WithTimeout(200*time.Millisecond))
			require.Error(t, err)
			assert.True(t, opsctl.IsTimeout(err))
		},
	}
}

func idleTimeoutContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "silence-is-idle-timeout",
		Description: "A command that writes nothing for the idle timeout must be aborted with ErrIdleTimeout",
		Run: func(t T, fx Fixture) {
			fx.Expect("docker compose pull", Reply{Hang: true})

			_, err := opsctl.NewExecutor(fx.Session).RunLineStream(t.Context(), opsctl.Shell("docker compose pull"), func(string) {},
				opsctl.WithIdleTimeout(200*time.Millisecond))
			require.ErrorIs(t, err, opsctl.ErrIdleTimeout)
			assert.True(t, opsctl.IsTimeout(err))
		},
	}
}

func closedSessionContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "closed-session",
		Description: "Close must be idempotent and later calls must fail with ErrSessionClosed",
		Run: func(t T, fx Fixture) {
			require.NoError(t, fx.Session.Close())
			require.NoError(t, fx.Session.Close())

			_, err := fx.Session.Run(t.Context(), opsctl.Shell("uptime"))
			require.ErrorIs(t, err, opsctl.ErrSessionClosed)

			err = fx.Session.Upload(t.Context(), "/etc/hostname", "/tmp/hostname")
			require.ErrorIs(t, err, opsctl.ErrSessionClosed)
		},
	}
}
