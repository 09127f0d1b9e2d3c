// Command syncdeploy uploads the deployment manifest to the FlashPhoto
// server and restarts the optimized docker stack there.
//
// Connection settings are read from the .env.deploy file in the project
// directory (SERVER_IP, SERVER_USER, SERVER_PASSWORD).
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/flashphoto/opsctl/config"
	"github.com/flashphoto/opsctl/internal/cli"
	"github.com/flashphoto/opsctl/internal/console"
	"github.com/spf13/cobra"
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

type options struct {
	projectDir string
	envFile    string
	dryRun     bool
	ssh        cli.SSHFlags
	log        cli.LogFlags
}

// deployFile returns --env-file, or .env.deploy inside the project directory.
func (o *options) deployFile() string {
	if o.envFile != "" {
		return o.envFile
	}

	return filepath.Join(o.projectDir, config.DeployFileName)
}

func newRootCmd(dial cli.Dialer, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "syncdeploy",
		Short: "Sync deployment files to the FlashPhoto server and redeploy",
		Long: `Reads .env.deploy, uploads the fixed file manifest over SFTP, runs the
deployment sequence on the server in one compound command and prints the
resulting service status.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.log.Init(stderr)

			d := &deployer{opts: opts, dial: dial, out: console.New(stdout)}

			return d.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.projectDir, "project-dir", ".", "Local project root holding the manifest files and "+config.DeployFileName)
	flags.StringVar(&opts.envFile, "env-file", "", "Deploy config file (default <project-dir>/"+config.DeployFileName+")")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the manifest and deploy command without connecting")
	opts.ssh.Register(flags)
	opts.log.Register(flags)

	return cmd
}
