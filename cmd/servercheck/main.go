// Command servercheck connects to the FlashPhoto server and prints the
// container list, the admin API's recent logs and its key environment
// variables.
//
// Connection settings come from DEPLOY_HOST, DEPLOY_USER, DEPLOY_PASSWORD
// and PROJECT_PATH; flags override the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/config"
	"github.com/flashphoto/opsctl/internal/cli"
	"github.com/flashphoto/opsctl/internal/console"
	"github.com/flashphoto/opsctl/sequence"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(cli.DialSSH, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		return 1
	}

	return 0
}

func newRootCmd(dial cli.Dialer, stdout, stderr io.Writer) *cobra.Command {
	var (
		sshFlags cli.SSHFlags
		logFlags cli.LogFlags
	)

	v := config.NewEnvViper()
	diag := sequence.DefaultDiagnosticOptions()

	cmd := &cobra.Command{
		Use:           "servercheck",
		Short:         "Check container status on the FlashPhoto server",
		Long:          `Connects over SSH with password authentication and runs a fixed set of read-only docker diagnostics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logFlags.Init(stderr)

			return runCheck(cmd.Context(), v, &sshFlags, diag, dial, console.New(stdout))
		},
	}

	flags := cmd.Flags()
	flags.String("host", "", "Server address (overrides $"+config.EnvHost+")")
	flags.String("user", "", "SSH user (overrides $"+config.EnvUser+", default root)")
	flags.Int("port", 0, "SSH port (overrides $"+config.EnvPort+", default 22)")
	flags.String("project-path", "", "Project path on the server (overrides $"+config.EnvPath+")")
	flags.StringVar(&diag.Container, "container", diag.Container, "Container to inspect")
	flags.IntVar(&diag.LogTail, "tail", diag.LogTail, "Number of log lines to show")
	sshFlags.Register(flags)
	logFlags.Register(flags)

	bindFlags(v, cmd, map[string]string{
		"host":         config.EnvHost,
		"user":         config.EnvUser,
		"port":         config.EnvPort,
		"project-path": config.EnvPath,
	})

	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func runCheck(ctx context.Context, v *viper.Viper, sshFlags *cli.SSHFlags, diag sequence.DiagnosticOptions, dial cli.Dialer, out *console.Printer) error {
	cfg, err := config.FromEnv(v)
	if err != nil {
		out.Error(err.Error())

		var missing *config.MissingError
		if errors.As(err, &missing) {
			printEnvHints(out, missing.Vars)
		}

		return err
	}

	log.Debug().Stringer("config", cfg).Msg("loaded configuration")

	sc, err := sshFlags.SSHConfig(cfg)
	if err != nil {
		out.Error(err.Error())

		return err
	}

	out.Line(fmt.Sprintf("Connecting to %s...", cfg.Host))

	sess, err := dial(ctx, sc)
	if err != nil {
		out.Error("connection failed: " + err.Error())

		return err
	}

	defer func() { _ = sess.Close() }()

	out.Check("connected")

	_, err = sequence.RunDiagnostics(ctx, opsctl.NewExecutor(sess), sequence.DefaultDiagnostics(diag), out)
	if err != nil {
		out.Error(err.Error())

		return err
	}

	out.Blank()
	out.Check("check complete")

	return nil
}

func printEnvHints(out *console.Printer, vars []string) {
	examples := map[string]string{
		config.EnvHost:     "your.server.ip",
		config.EnvPassword: "your_password",
	}

	var ps, sh []string

	for _, name := range vars {
		ps = append(ps, fmt.Sprintf("  $env:%s = %q", name, examples[name]))
		sh = append(sh, fmt.Sprintf("  export %s=%s", name, examples[name]))
	}

	out.Blank()
	out.Line("Windows PowerShell:")
	out.Line(strings.Join(ps, "\n"))
	out.Blank()
	out.Line("Linux/macOS:")
	out.Line(strings.Join(sh, "\n"))
}
