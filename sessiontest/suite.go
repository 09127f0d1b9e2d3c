// Package sessiontest provides a contract test suite for opsctl.Session
// implementations.
//
// A provider's tests supply a Fixture factory; the suite scripts command
// replies through it and checks that the session reports exits, streams,
// timeouts and closure the way the Executor expects.
package sessiontest

import (
	"context"
	"fmt"
	"testing"

	"github.com/flashphoto/opsctl"
)

// Standard categories for grouping tests.
const (
	CategoryCore       = "core"
	CategoryErrors     = "errors"
	CategoryFilesystem = "filesystem"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Skipf(format string, args ...any)
	Context() context.Context
	TempDir() string
	Name() string
}

// Reply is the scripted outcome of one command line.
type Reply struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Hang     bool // Never finish; the caller's deadline must end it
}

// Fixture is one fresh session plus the hooks the suite needs to drive it.
type Fixture struct {
	Session opsctl.Session

	// Expect scripts the reply for the command whose rendered line is line.
	Expect func(line string, r Reply)

	// ReadRemote returns the content of an uploaded file. Nil disables the
	// filesystem contracts.
	ReadRemote func(path string) ([]byte, error)

	// RemoteDir is a writable directory on the remote side for uploads.
	RemoteDir string
}

// TestCase defines a single behavioral contract requirement.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Prereq      func(t T, fx Fixture) (ok bool, reason string)
	Run         func(t T, fx Fixture)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// Verify is the standard Go test entry point for provider authors. Each
// contract gets its own Fixture from newFixture.
func Verify(t *testing.T, newFixture func(t *testing.T) Fixture) {
	t.Helper()

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			fx := newFixture(t)

			if tc.Prereq != nil {
				ok, reason := tc.Prereq(t, fx)
				if !ok {
					t.Skipf("prereq unmet: %s", reason)
				}
			}

			tc.Run(t, fx)
		})
	}
}

// AllContracts returns all test cases for the contract test suite.
func AllContracts() []TestCase {
	contracts := make([]TestCase, 0, 16)

	contracts = append(contracts, coreContracts()...)
	contracts = append(contracts, errorContracts()...)
	contracts = append(contracts, fileContracts()...)

	return contracts
}
