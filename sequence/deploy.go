package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/internal/console"
	"github.com/rs/zerolog/log"
)

// DefaultComposeFile is the compose file the optimized stack runs from.
const DefaultComposeFile = "docker-compose.optimized.yml"

// DeployPlan is the statement list run on the server in one compound command.
type DeployPlan struct {
	RemotePath  string
	ComposeFile string
	Statements  []string
}

// DefaultDeployPlan stops the old stack, moves the retired nginx configs
// aside and starts the optimized stack from remotePath.
func DefaultDeployPlan(remotePath string) DeployPlan {
	return DeployPlan{
		RemotePath:  remotePath,
		ComposeFile: DefaultComposeFile,
		Statements: []string{
			"cd " + opsctl.ShellQuote(remotePath),
			"echo '停止旧服务...'",
			"docker compose down 2>/dev/null || true",
			"docker compose -f " + DefaultComposeFile + " down 2>/dev/null || true",
			"echo '重命名旧配置文件...'",
			"mv docker/nginx/conf.d/default.conf docker/nginx/conf.d/default.conf.bak 2>/dev/null || true",
			"mv docker/nginx/conf.d/pop-pub.com.optimized.conf docker/nginx/conf.d/pop-pub.com.optimized.conf.bak 2>/dev/null || true",
			"echo '启动新架构...'",
			"bash docker/deploy-optimized.sh start",
		},
	}
}

// Compound joins the statements with " && ".
func (p DeployPlan) Compound() string {
	return strings.Join(p.Statements, " && ")
}

// Validate checks the plan before anything is sent: a remote path and
// compose file are set, and every statement is non-empty with balanced quotes.
func (p DeployPlan) Validate() error {
	if p.RemotePath == "" {
		return errors.New("deploy plan: remote path cannot be empty")
	}

	if p.ComposeFile == "" {
		return errors.New("deploy plan: compose file cannot be empty")
	}

	if len(p.Statements) == 0 {
		return errors.New("deploy plan: no statements")
	}

	for i, s := range p.Statements {
		if _, err := opsctl.ParseCommand(s); err != nil {
			return fmt.Errorf("deploy plan: statement %d %q: %w", i+1, s, err)
		}
	}

	return nil
}

// StatusCommand lists the compose services from the project directory.
func (p DeployPlan) StatusCommand() *opsctl.Command {
	return opsctl.Cmd("docker").
		Args("compose", "-f", p.ComposeFile, "ps").
		Dir(p.RemotePath).
		Build()
}

// DeployReport records the outcome of both remote stages. Remote exit codes
// are kept here for the caller; they do not make the deployment fail.
type DeployReport struct {
	Deploy *opsctl.CommandResult
	Status *opsctl.CommandResult
}

// Deployer runs a DeployPlan through an Executor and prints its output.
type Deployer struct {
	exec *opsctl.Executor
	out  *console.Printer
}

// NewDeployer creates a Deployer.
func NewDeployer(exec *opsctl.Executor, out *console.Printer) *Deployer {
	return &Deployer{exec: exec, out: out}
}

// Run issues exactly one compound command and then exactly one status
// query. onStage, if set, is called with a short title before each of them.
// Only transport errors and timeouts are returned.
func (d *Deployer) Run(ctx context.Context, plan DeployPlan, onStage func(title string)) (*DeployReport, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	report := &DeployReport{}

	stage(onStage, "Deploying on server")

	res, err := d.Deploy(ctx, plan)
	report.Deploy = res

	if err != nil {
		return report, err
	}

	stage(onStage, "Checking service status")

	res, err = d.Status(ctx, plan)
	report.Status = res

	if err != nil {
		return report, err
	}

	return report, nil
}

// Deploy runs the compound command with the deploy idle timeout, streaming its
// stdout line by line. Stderr is printed as a warning once it finishes.
func (d *Deployer) Deploy(ctx context.Context, plan DeployPlan) (*opsctl.CommandResult, error) {
	compound := plan.Compound()

	log.Debug().Str("command", compound).Msg("running deploy sequence")

	res, err := d.exec.RunLineStream(ctx, opsctl.Shell(compound), d.printLine, opsctl.WithIdleTimeout(opsctl.DeployTimeout))
	if err != nil {
		return res, fmt.Errorf("deploy command: %w", err)
	}

	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		d.out.Warn(stderr)
	}

	if res.ExitCode != 0 {
		log.Warn().Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("deploy sequence exited non-zero")
	}

	return res, nil
}

// Status runs the compose status query, streaming its output.
func (d *Deployer) Status(ctx context.Context, plan DeployPlan) (*opsctl.CommandResult, error) {
	res, err := d.exec.RunLineStream(ctx, plan.StatusCommand(), d.printLine, opsctl.WithIdleTimeout(opsctl.DiagnosticTimeout))
	if err != nil {
		return res, fmt.Errorf("status query: %w", err)
	}

	if res.ExitCode != 0 {
		log.Warn().Int("exit_code", res.ExitCode).Str("stderr", res.Stderr).Msg("status query exited non-zero")
	}

	return res, nil
}

func (d *Deployer) printLine(line string) {
	d.out.Line("  " + strings.TrimSpace(line))
}

func stage(fn func(string), title string) {
	if fn != nil {
		fn(title)
	}
}
