package filesync

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/internal/console"
	opsmock "github.com/flashphoto/opsctl/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const remoteRoot = "/www/wwwroot/flashphoto"

// writeProject creates the manifest files under a temp dir, except those in skip.
func writeProject(t *testing.T, skip ...string) string {
	t.Helper()

	root := t.TempDir()

	for _, rel := range DefaultFiles {
		if contains(skip, rel) {
			continue
		}

		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# "+rel+"\n"), 0o644))
	}

	return root
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func uploadedRemotes(m *opsmock.Session) []string {
	var remotes []string

	for _, c := range m.Calls {
		if c.Method == "Upload" {
			remotes = append(remotes, c.Arguments.String(2))
		}
	}

	return remotes
}

func newSession() *opsmock.Session {
	m := opsmock.New()
	m.On("Start", mock.Anything, mock.MatchedBy(func(c *opsctl.Command) bool {
		return strings.HasPrefix(c.String(), "mkdir -p ")
	})).Return(&opsmock.Reply{}, nil)

	return m
}

func TestNewManifest(t *testing.T) {
	t.Parallel()

	entries, err := NewManifest("/home/ops/flashphoto", remoteRoot, DefaultFiles)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	assert.Equal(t, Entry{
		Relative: "docker/nginx/conf.d/docker.conf",
		Local:    filepath.Join("/home/ops/flashphoto", "docker", "nginx", "conf.d", "docker.conf"),
		Remote:   "/www/wwwroot/flashphoto/docker/nginx/conf.d/docker.conf",
	}, entries[2])
	assert.Equal(t, "/www/wwwroot/flashphoto/CLAUDE.md", entries[5].Remote)
}

func TestNewManifest_RejectsEscapes(t *testing.T) {
	t.Parallel()

	for _, rel := range []string{"../secrets.env", "docker/../../etc/passwd", "/etc/passwd", "", ".", "docker/.."} {
		_, err := NewManifest("/home/ops/flashphoto", remoteRoot, []string{rel})
		assert.Error(t, err, rel)
	}
}

func TestNewManifest_BackslashRelative(t *testing.T) {
	t.Parallel()

	entries, err := NewManifest("/home/ops/flashphoto", remoteRoot+"/", []string{`docker\deploy-optimized.sh`})
	require.NoError(t, err)
	assert.Equal(t, "/www/wwwroot/flashphoto/docker/deploy-optimized.sh", entries[0].Remote)
}

func TestEntry_Validate(t *testing.T) {
	t.Parallel()

	const localRoot = "/home/ops/flashphoto"

	tests := []struct {
		name      string
		entry     Entry
		remote    string
		expectErr string
	}{
		{
			name:   "manifest file",
			entry:  Entry{Relative: "docker/nginx/nginx.docker.conf", Local: "/home/ops/flashphoto/docker/nginx/nginx.docker.conf", Remote: "/www/wwwroot/flashphoto/docker/nginx/nginx.docker.conf"},
			remote: remoteRoot,
		},
		{
			name:   "filesystem root as remote",
			entry:  Entry{Relative: "CLAUDE.md", Local: "/home/ops/flashphoto/CLAUDE.md", Remote: "/CLAUDE.md"},
			remote: "/",
		},
		{
			name:      "local sibling sharing a prefix",
			entry:     Entry{Relative: "CLAUDE.md", Local: "/home/ops/flashphoto-old/CLAUDE.md", Remote: "/www/wwwroot/flashphoto/CLAUDE.md"},
			remote:    remoteRoot,
			expectErr: "local path",
		},
		{
			name:      "local root itself",
			entry:     Entry{Relative: ".", Local: "/home/ops/flashphoto", Remote: "/www/wwwroot/flashphoto/x"},
			remote:    remoteRoot,
			expectErr: "local path",
		},
		{
			name:      "remote sibling sharing a prefix",
			entry:     Entry{Relative: "x", Local: "/home/ops/flashphoto/x", Remote: "/www/wwwroot/flashphoto_bak/x"},
			remote:    remoteRoot,
			expectErr: "remote path",
		},
		{
			name:      "remote traversal",
			entry:     Entry{Relative: "x", Local: "/home/ops/flashphoto/x", Remote: "/www/wwwroot/flashphoto/../../etc/passwd"},
			remote:    remoteRoot,
			expectErr: "remote path",
		},
		{
			name:      "remote root itself",
			entry:     Entry{Relative: "x", Local: "/home/ops/flashphoto/x", Remote: "/www/wwwroot/flashphoto/"},
			remote:    remoteRoot,
			expectErr: "remote path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := tt.entry
			e.Local = filepath.FromSlash(e.Local)

			err := e.Validate(filepath.FromSlash(localRoot), tt.remote)
			if tt.expectErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectErr)
		})
	}
}

func TestSync_SkipsMissingAndKeepsOrder(t *testing.T) {
	t.Parallel()

	root := writeProject(t, "docker/nginx/ssl/README.md")

	entries, err := NewManifest(root, remoteRoot, DefaultFiles)
	require.NoError(t, err)

	m := newSession()
	m.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var out bytes.Buffer

	report, err := NewSyncer(opsctl.NewExecutor(m), console.New(&out)).Sync(context.Background(), entries)
	require.NoError(t, err)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "docker/nginx/ssl/README.md", report.Skipped[0].Relative)
	assert.Len(t, report.Uploaded, 5)

	assert.Equal(t, []string{
		"/www/wwwroot/flashphoto/docker-compose.optimized.yml",
		"/www/wwwroot/flashphoto/docker/nginx/nginx.docker.conf",
		"/www/wwwroot/flashphoto/docker/nginx/conf.d/docker.conf",
		"/www/wwwroot/flashphoto/docker/deploy-optimized.sh",
		"/www/wwwroot/flashphoto/CLAUDE.md",
	}, uploadedRemotes(m))

	assert.Equal(t, []string{
		"mkdir -p /www/wwwroot/flashphoto",
		"mkdir -p /www/wwwroot/flashphoto/docker/nginx",
		"mkdir -p /www/wwwroot/flashphoto/docker/nginx/conf.d",
		"mkdir -p /www/wwwroot/flashphoto/docker",
		"mkdir -p /www/wwwroot/flashphoto",
	}, m.Commands())

	assert.Contains(t, out.String(), "skipped (not found): docker/nginx/ssl/README.md")
	assert.Contains(t, out.String(), "upload: CLAUDE.md")
}

func TestSync_MkdirPrecedesEachUpload(t *testing.T) {
	t.Parallel()

	root := writeProject(t)

	entries, err := NewManifest(root, remoteRoot, DefaultFiles[:2])
	require.NoError(t, err)

	m := newSession()
	m.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err = NewSyncer(opsctl.NewExecutor(m), console.New(&bytes.Buffer{})).Sync(context.Background(), entries)
	require.NoError(t, err)

	var methods []string
	for _, c := range m.Calls {
		methods = append(methods, c.Method)
	}

	assert.Equal(t, []string{"Start", "Upload", "Start", "Upload"}, methods)
}

func TestSync_MkdirFailureStillUploads(t *testing.T) {
	t.Parallel()

	root := writeProject(t)

	entries, err := NewManifest(root, remoteRoot, []string{"CLAUDE.md"})
	require.NoError(t, err)

	m := opsmock.New()
	m.OnCommand("mkdir -p /www/wwwroot/flashphoto", opsmock.Reply{ExitCode: 1, Stderr: "mkdir: Permission denied\n"})
	m.OnUpload(filepath.Join(root, "CLAUDE.md"), "/www/wwwroot/flashphoto/CLAUDE.md").Return(nil)

	report, err := NewSyncer(opsctl.NewExecutor(m), console.New(&bytes.Buffer{})).Sync(context.Background(), entries)
	require.NoError(t, err)
	assert.Len(t, report.Uploaded, 1)

	m.AssertExpectations(t)
}

func TestSync_UploadErrorAbortsQueue(t *testing.T) {
	t.Parallel()

	root := writeProject(t)

	entries, err := NewManifest(root, remoteRoot, DefaultFiles)
	require.NoError(t, err)

	m := newSession()
	m.OnUpload(entries[0].Local, entries[0].Remote).Return(nil).Once()
	m.OnUpload(entries[1].Local, entries[1].Remote).Return(errors.New("sftp: permission denied")).Once()

	report, err := NewSyncer(opsctl.NewExecutor(m), console.New(&bytes.Buffer{})).Sync(context.Background(), entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docker/nginx/nginx.docker.conf")

	require.NotNil(t, report)
	assert.Len(t, report.Uploaded, 1)
	assert.Len(t, uploadedRemotes(m), 2)
}

func TestSync_TransportErrorOnMkdirAborts(t *testing.T) {
	t.Parallel()

	root := writeProject(t)

	entries, err := NewManifest(root, remoteRoot, DefaultFiles)
	require.NoError(t, err)

	m := opsmock.New()
	m.On("Start", mock.Anything, mock.Anything).Return(&opsmock.Reply{Err: errors.New("connection reset")}, nil)

	report, err := NewSyncer(opsctl.NewExecutor(m), console.New(&bytes.Buffer{})).Sync(context.Background(), entries)

	var transportErr *opsctl.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Empty(t, report.Uploaded)
	assert.Empty(t, uploadedRemotes(m))
}
