package main

import (
	"context"
	"fmt"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/config"
	"github.com/flashphoto/opsctl/filesync"
	"github.com/flashphoto/opsctl/internal/cli"
	"github.com/flashphoto/opsctl/internal/console"
	"github.com/flashphoto/opsctl/sequence"
	"github.com/rs/zerolog/log"
)

const totalSteps = 4

var accessURLs = []struct{ name, url string }{
	{"Admin", "https://pop-pub.com/admin"},
	{"Health check", "https://pop-pub.com/health"},
}

type deployer struct {
	opts *options
	dial cli.Dialer
	out  *console.Printer
}

func (d *deployer) run(ctx context.Context) error {
	d.out.Banner("FlashPhoto - sync & deploy")

	cfg, err := config.LoadDeployFile(d.opts.deployFile())
	if err != nil {
		d.out.Error(err.Error())

		return err
	}

	log.Debug().Stringer("config", cfg).Msg("loaded deploy file")

	d.out.Line("Server: " + cfg.Host)
	d.out.Line("Path:   " + cfg.RemotePath)

	entries, err := filesync.NewManifest(d.opts.projectDir, cfg.RemotePath, filesync.DefaultFiles)
	if err != nil {
		d.out.Error(err.Error())

		return err
	}

	plan := sequence.DefaultDeployPlan(cfg.RemotePath)
	if err := plan.Validate(); err != nil {
		d.out.Error(err.Error())

		return err
	}

	if d.opts.dryRun {
		d.printPlan(entries, plan)

		return nil
	}

	sc, err := d.opts.ssh.SSHConfig(cfg)
	if err != nil {
		d.out.Error(err.Error())

		return err
	}

	d.out.Step(1, totalSteps, "Connecting to server")

	sess, err := d.dial(ctx, sc)
	if err != nil {
		d.out.Error("connection failed: " + err.Error())

		return err
	}

	defer func() { _ = sess.Close() }()

	d.out.Info("connected to " + cfg.Host)

	exec := opsctl.NewExecutor(sess)

	d.out.Step(2, totalSteps, "Syncing files to server")

	syncReport, err := filesync.NewSyncer(exec, d.out).Sync(ctx, entries)
	if err != nil {
		d.out.Error("sync failed: " + err.Error())

		return err
	}

	log.Info().Int("uploaded", len(syncReport.Uploaded)).Int("skipped", len(syncReport.Skipped)).Msg("file sync finished")

	step := 3

	report, err := sequence.NewDeployer(exec, d.out).Run(ctx, plan, func(title string) {
		d.out.Step(step, totalSteps, title)
		step++
	})
	if err != nil {
		d.out.Error(err.Error())

		return err
	}

	log.Info().
		Int("deploy_exit_code", report.Deploy.ExitCode).
		Int("status_exit_code", report.Status.ExitCode).
		Dur("deploy_duration", report.Deploy.Duration).
		Msg("deploy finished")

	d.out.Blank()
	d.out.Banner("Deploy complete!")
	d.out.Line("Access:")

	for _, u := range accessURLs {
		d.out.Info(fmt.Sprintf("%s: %s", u.name, u.url))
	}

	return nil
}

func (d *deployer) printPlan(entries []filesync.Entry, plan sequence.DeployPlan) {
	d.out.Title("Dry run: nothing will be sent")

	d.out.Line("Files:")

	for _, e := range entries {
		d.out.Info(fmt.Sprintf("%s -> %s", e.Relative, e.Remote))
	}

	d.out.Line("Deploy command:")
	d.out.Info(plan.Compound())
	d.out.Line("Status command:")
	d.out.Info(fmt.Sprintf("cd %s && %s", opsctl.ShellQuote(plan.RemotePath), plan.StatusCommand()))
}
