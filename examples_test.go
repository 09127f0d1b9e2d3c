package opsctl_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/providers/mock"
)

func ExampleExecutor_RunShell() {
	session := mock.New()
	session.OnCommand("docker ps -a --format 'table {{.Names}}\\t{{.Status}}' | head -15", mock.Reply{
		Stdout: "NAMES\tSTATUS\nflashphoto-admin-api\tUp 3 hours\n",
	})

	exec := opsctl.NewExecutor(session)

	res, err := exec.RunShell(context.Background(), "docker ps -a --format 'table {{.Names}}\\t{{.Status}}' | head -15",
		opsctl.WithIdleTimeout(opsctl.DiagnosticTimeout))
	if err != nil {
		panic(err)
	}

	fmt.Print(res.Stdout)
	// Output:
	// NAMES	STATUS
	// flashphoto-admin-api	Up 3 hours
}

func ExampleExecutor_RunShell_nonZeroExit() {
	session := mock.New()
	session.OnCommand("docker logs flashphoto-admin-api --tail 30 2>&1", mock.Reply{
		ExitCode: 1,
		Stdout:   "Error: No such container: flashphoto-admin-api\n",
	})

	res, err := opsctl.NewExecutor(session).RunShell(context.Background(), "docker logs flashphoto-admin-api --tail 30 2>&1")
	if err != nil {
		panic(err)
	}

	fmt.Println("exit:", res.ExitCode)
	fmt.Print(res.Stdout)
	// Output:
	// exit: 1
	// Error: No such container: flashphoto-admin-api
}

func ExampleExecutor_RunLineStream() {
	session := mock.New()
	session.OnCommandIn("/www/wwwroot/flashphoto", "docker compose -f docker-compose.optimized.yml ps", mock.Reply{
		Stdout: "NAME                   STATUS\r\nflashphoto-admin-api   Up 2 minutes\r\n",
	})

	status := opsctl.Cmd("docker").
		Args("compose", "-f", "docker-compose.optimized.yml", "ps").
		Dir("/www/wwwroot/flashphoto").
		Build()

	_, err := opsctl.NewExecutor(session).RunLineStream(context.Background(), status, func(line string) {
		fmt.Println(strings.TrimSpace(line))
	})
	if err != nil {
		panic(err)
	}
	// Output:
	// NAME                   STATUS
	// flashphoto-admin-api   Up 2 minutes
}

func ExampleShellQuote() {
	fmt.Println("cd " + opsctl.ShellQuote("/www/wwwroot/flash photo"))
	fmt.Println("mkdir -p " + opsctl.ShellQuote("/www/wwwroot/flashphoto/docker"))
	// Output:
	// cd '/www/wwwroot/flash photo'
	// mkdir -p /www/wwwroot/flashphoto/docker
}
