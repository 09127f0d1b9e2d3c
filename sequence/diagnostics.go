package sequence

import (
	"context"
	"fmt"
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/internal/console"
	"github.com/rs/zerolog/log"
)

// Diagnostic is one titled status command.
type Diagnostic struct {
	Title   string
	Command string
}

// DiagnosticOptions parameterizes DefaultDiagnostics.
type DiagnosticOptions struct {
	Container string // Container whose logs and environment are inspected
	LogTail   int    // Number of log lines to show
	ListLimit int    // Maximum lines of container listing
	EnvFilter string // grep -E pattern for environment variable names
}

// DefaultDiagnosticOptions returns the options for the production stack.
func DefaultDiagnosticOptions() DiagnosticOptions {
	return DiagnosticOptions{
		Container: "flashphoto-admin-api",
		LogTail:   30,
		ListLimit: 15,
		EnvFilter: "JWT_|COS_|WX_",
	}
}

// DefaultDiagnostics returns the container listing, log tail and
// environment check, in that order.
func DefaultDiagnostics(o DiagnosticOptions) []Diagnostic {
	c := opsctl.ShellQuote(o.Container)

	return []Diagnostic{
		{
			Title:   "=== Docker containers ===",
			Command: fmt.Sprintf(`docker ps -a --format 'table {{.Names}}\t{{.Status}}' | head -%d`, o.ListLimit),
		},
		{
			Title:   fmt.Sprintf("=== %s logs (last %d lines) ===", o.Container, o.LogTail),
			Command: fmt.Sprintf("docker logs %s --tail %d 2>&1", c, o.LogTail),
		},
		{
			Title: "=== Environment variables ===",
			Command: fmt.Sprintf("docker exec %s env | grep -E %s 2>/dev/null || echo '容器可能未运行'",
				c, opsctl.ShellQuote(o.EnvFilter)),
		},
	}
}

// DiagnosticResult pairs a Diagnostic with what it produced.
type DiagnosticResult struct {
	Diagnostic

	Result *opsctl.CommandResult
}

// RunDiagnostics runs each step with the diagnostic idle timeout and prints its
// title, stdout and stderr. Non-zero exits and stderr output do not stop the
// sequence. A transport error or timeout does, and is returned along with
// the results gathered so far.
func RunDiagnostics(ctx context.Context, exec *opsctl.Executor, steps []Diagnostic, out *console.Printer) ([]DiagnosticResult, error) {
	results := make([]DiagnosticResult, 0, len(steps))

	for _, step := range steps {
		out.Title(step.Title)

		res, err := exec.RunShell(ctx, step.Command, opsctl.WithIdleTimeout(opsctl.DiagnosticTimeout))
		if err != nil {
			return results, fmt.Errorf("%s: %w", strings.Trim(step.Title, "= "), err)
		}

		if res.Stdout != "" {
			out.Line(strings.TrimRight(res.Stdout, "\n"))
		}

		if res.Stderr != "" {
			out.Line("[stderr] " + strings.TrimRight(res.Stderr, "\n"))
		}

		if res.ExitCode != 0 {
			log.Debug().Str("command", step.Command).Int("exit_code", res.ExitCode).Msg("diagnostic exited non-zero")
		}

		results = append(results, DiagnosticResult{Diagnostic: step, Result: res})
	}

	return results, nil
}
