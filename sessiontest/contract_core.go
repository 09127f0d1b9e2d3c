package sessiontest

import (
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category: CategoryCore,
			Name:     "buffered-output",
			Run: func(t T, fx Fixture) {
				fx.Expect("uptime", Reply{Stdout: " 10:00:00 up 3 days\n"})

				res, err := opsctl.NewExecutor(fx.Session).RunShell(t.Context(), "uptime")
				require.NoError(t, err)

				assert.Equal(t, "10:00:00 up 3 days", strings.TrimSpace(res.Stdout))
				assert.Empty(t, res.Stderr)
				assert.Equal(t, 0, res.ExitCode)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "streams-separated",
			Description: "stdout and stderr must be captured independently",
			Run: func(t T, fx Fixture) {
				fx.Expect("docker compose ps", Reply{Stdout: "NAME\n", Stderr: "WARN obsolete version\n"})

				res, err := opsctl.NewExecutor(fx.Session).RunShell(t.Context(), "docker compose ps")
				require.NoError(t, err)

				assert.Equal(t, "NAME\n", res.Stdout)
				assert.Equal(t, "WARN obsolete version\n", res.Stderr)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "nonzero-is-result",
			Description: "Executor must report a non-zero exit in the result, not as an error",
			Run: func(t T, fx Fixture) {
				fx.Expect("docker logs gone --tail 30 2>&1", Reply{Stdout: "Error: No such container: gone\n", ExitCode: 1})

				res, err := opsctl.NewExecutor(fx.Session).RunShell(t.Context(), "docker logs gone --tail 30 2>&1")
				require.NoError(t, err)

				assert.Equal(t, 1, res.ExitCode)
				assert.Contains(t, res.Stdout, "No such container")
			},
		},
		{
			Category:    CategoryCore,
			Name:        "line-stream-order",
			Description: "RunLineStream must deliver stdout lines in order",
			Run: func(t T, fx Fixture) {
				fx.Expect("bash docker/deploy-optimized.sh start", Reply{Stdout: "one\ntwo\nthree\n", Stderr: "warn\n"})

				var lines []string

				res, err := opsctl.NewExecutor(fx.Session).RunLineStream(t.Context(), opsctl.Shell("bash docker/deploy-optimized.sh start"), func(line string) {
					lines = append(lines, line)
				})
				require.NoError(t, err)

				assert.Equal(t, []string{"one", "two", "three"}, lines)
				assert.Equal(t, "warn\n", res.Stderr)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "invalid-utf8-replaced",
			Description: "Undecodable output must be replaced, not rejected",
			Run: func(t T, fx Fixture) {
				fx.Expect("cat legacy.log", Reply{Stdout: "ok \xff\xfe end\n"})

				res, err := opsctl.NewExecutor(fx.Session).RunShell(t.Context(), "cat legacy.log")
				require.NoError(t, err)

				assert.Equal(t, "ok � end\n", res.Stdout)
			},
		},
	}
}
