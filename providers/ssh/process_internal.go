package ssh

import (
	"strings"

	"github.com/flashphoto/opsctl"
)

// quoteAlways single-quotes s even when it holds only safe characters.
func quoteAlways(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// buildEnvPrefix renders Command.Env as exports. sshd ignores Setenv unless
// PermitUserEnvironment is on, so the variables travel inside the line.
// Entries without "=" are dropped.
func buildEnvPrefix(env []string) string {
	var b strings.Builder

	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		b.WriteString("export " + k + "=" + quoteAlways(v) + "; ")
	}

	return b.String()
}

func buildDirPrefix(dir string) string {
	if dir == "" {
		return ""
	}

	return "cd " + quoteAlways(dir) + " && "
}

// buildCommandLine sends a bare line verbatim so pipes and "||" keep working.
// Explicit Args are quoted one by one.
func buildCommandLine(cmd *opsctl.Command) string {
	if len(cmd.Args) == 0 {
		return cmd.Cmd
	}

	words := []string{cmd.Cmd}
	for _, a := range cmd.Args {
		words = append(words, opsctl.ShellQuote(a))
	}

	return strings.Join(words, " ")
}

// buildFullCommand renders the exec payload: [exports] [cd dir &&] command.
func buildFullCommand(cmd *opsctl.Command) string {
	return buildEnvPrefix(cmd.Env) + buildDirPrefix(cmd.Dir) + buildCommandLine(cmd)
}
