// Package mock provides a controllable implementation of opsctl.Session
// for testing purposes.
//
// Commands are matched on their rendered line and answered with a scripted
// Reply, so code built on opsctl.Executor can be tested without a server.
//
// Usage:
//
//	m := mock.New()
//	m.OnCommand("docker ps -a", mock.Reply{Stdout: "NAMES\n"})
//	m.OnUpload("/src/CLAUDE.md", "/www/wwwroot/flashphoto/CLAUDE.md").Return(nil)
//	// pass 'm' to opsctl.NewExecutor
package mock
