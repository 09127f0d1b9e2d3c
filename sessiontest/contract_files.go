package sessiontest

import (
	"os"
	"path"
	"path/filepath"

	"github.com/flashphoto/opsctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPermissions = 0o600

func canReadRemote(_ T, fx Fixture) (bool, string) {
	if fx.ReadRemote == nil || fx.RemoteDir == "" {
		return false, "fixture cannot read remote files"
	}

	return true, ""
}

func fileContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryFilesystem,
			Name:        "upload-failure-source-missing",
			Description: "Error returned when we try to upload a non-existent local file",
			Prereq:      canReadRemote,
			Run: func(t T, fx Fixture) {
				src := filepath.Join(t.TempDir(), "this-file-really-does-not-exist-12345")

				err := fx.Session.Upload(t.Context(), src, path.Join(fx.RemoteDir, "should-not-exist"))
				require.Error(t, err)
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-overwrites",
			Description: "A second upload to the same path must replace the content",
			Prereq:      canReadRemote,
			Run: func(t T, fx Fixture) {
				dst := path.Join(fx.RemoteDir, "docker-compose.optimized.yml")

				for _, content := range []string{"services:\n  old: {}\n  extra: {}\n", "services: {}\n"} {
					src := filepath.Join(t.TempDir(), "compose.yml")
					require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
					require.NoError(t, fx.Session.Upload(t.Context(), src, dst))
				}

				got, err := fx.ReadRemote(dst)
				require.NoError(t, err)
				assert.Equal(t, "services: {}\n", string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-permissions",
			Description: "WithPermissions must set the remote mode",
			Prereq:      canReadRemote,
			Run: func(t T, fx Fixture) {
				src := filepath.Join(t.TempDir(), "deploy-optimized.sh")
				require.NoError(t, os.WriteFile(src, []byte("#!/bin/bash\n"), 0o755))

				dst := path.Join(fx.RemoteDir, "deploy-optimized.sh")
				require.NoError(t, fx.Session.Upload(t.Context(), src, dst, opsctl.WithPermissions(testPermissions)))

				info, err := os.Stat(dst)
				if err != nil {
					t.Skipf("remote file not visible locally: %v", err)
				}

				assert.Equal(t, os.FileMode(testPermissions), info.Mode().Perm())
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-directory-rejected",
			Description: "Uploading a directory must fail",
			Prereq:      canReadRemote,
			Run: func(t T, fx Fixture) {
				err := fx.Session.Upload(t.Context(), t.TempDir(), path.Join(fx.RemoteDir, "dir"))
				require.Error(t, err)
			},
		},
	}
}
