package ssh

import (
	"testing"

	"github.com/flashphoto/opsctl"
	"github.com/stretchr/testify/assert"
)

// Operator-supplied values (container name, project path) must reach the
// remote shell as data, never as syntax.
func TestBuildFullCommand_QuotesOperatorInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  *opsctl.Command
		want string
	}{
		{
			name: "container with statement separator",
			cmd:  opsctl.NewCommand("docker", "logs", "api;reboot"),
			want: "docker logs 'api;reboot'",
		},
		{
			name: "container with pipe",
			cmd:  opsctl.NewCommand("docker", "logs", "api|sh"),
			want: "docker logs 'api|sh'",
		},
		{
			name: "backticks",
			cmd:  opsctl.NewCommand("docker", "logs", "`id`"),
			want: "docker logs '`id`'",
		},
		{
			name: "command substitution",
			cmd:  opsctl.NewCommand("docker", "logs", "$(rm -rf /)"),
			want: "docker logs '$(rm -rf /)'",
		},
		{
			name: "embedded single quote",
			cmd:  opsctl.NewCommand("docker", "logs", "flash'photo"),
			want: `docker logs 'flash'\''photo'`,
		},
		{
			name: "project path breaking out of cd",
			cmd:  opsctl.Cmd("docker").Args("compose", "ps").Dir("/www/x'; rm -rf / #").Build(),
			want: `cd '/www/x'\''; rm -rf / #' && docker compose ps`,
		},
		{
			name: "env value with substitution",
			cmd:  opsctl.Cmd("docker").Args("compose", "ps").Env("COMPOSE_PROJECT_NAME", "$(id)").Build(),
			want: "export COMPOSE_PROJECT_NAME='$(id)'; docker compose ps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, buildFullCommand(tt.cmd))
		})
	}
}
