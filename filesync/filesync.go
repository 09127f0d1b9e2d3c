// Package filesync copies the fixed deployment manifest from the local
// checkout to the same relative paths under the remote project root.
package filesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/flashphoto/opsctl/internal/console"
	"github.com/rs/zerolog/log"
)

// DefaultFiles is the deployment manifest, in upload order.
var DefaultFiles = []string{
	"docker-compose.optimized.yml",
	"docker/nginx/nginx.docker.conf",
	"docker/nginx/conf.d/docker.conf",
	"docker/nginx/ssl/README.md",
	"docker/deploy-optimized.sh",
	"CLAUDE.md",
}

// Entry maps one repository-relative file to its local and remote locations.
type Entry struct {
	Relative string
	Local    string
	Remote   string
}

// NewManifest resolves rel against both roots. Entries that would escape
// either root are rejected.
func NewManifest(localRoot, remoteRoot string, rel []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(rel))

	for _, r := range rel {
		if r == "" || path.IsAbs(filepath.ToSlash(r)) || filepath.IsAbs(r) {
			return nil, fmt.Errorf("manifest entry %q must be a relative path", r)
		}

		// Backslashes still separate remote components for manifests written on Windows.
		e := Entry{
			Relative: r,
			Local:    filepath.Join(localRoot, filepath.FromSlash(r)),
			Remote:   path.Join(remoteRoot, strings.ReplaceAll(r, "\\", "/")),
		}

		if err := e.Validate(localRoot, remoteRoot); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// Validate reports whether e names a file strictly inside both roots.
// The local side follows host path rules; the remote side is always POSIX.
func (e Entry) Validate(localRoot, remoteRoot string) error {
	rel, err := filepath.Rel(localRoot, e.Local)
	if err != nil || !isChild(filepath.ToSlash(rel)) {
		return fmt.Errorf("manifest entry %q: local path %s is outside %s", e.Relative, e.Local, localRoot)
	}

	root := path.Clean(remoteRoot)
	target := path.Clean(e.Remote)

	prefix := root + "/"
	if root == "/" {
		prefix = "/"
	}

	if target == root || !strings.HasPrefix(target, prefix) {
		return fmt.Errorf("manifest entry %q: remote path %s is outside %s", e.Relative, e.Remote, remoteRoot)
	}

	return nil
}

func isChild(rel string) bool {
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, "../")
}

// Report lists what a Sync did.
type Report struct {
	Uploaded []Entry
	Skipped  []Entry
}

// Syncer uploads manifest entries one at a time through an Executor.
type Syncer struct {
	exec *opsctl.Executor
	out  *console.Printer
}

// NewSyncer creates a Syncer that prints progress to out.
func NewSyncer(exec *opsctl.Executor, out *console.Printer) *Syncer {
	return &Syncer{exec: exec, out: out}
}

// Sync uploads entries in order. A missing local file is skipped and
// reported. For each present file the remote parent directory is created
// and awaited before the upload starts. An upload failure stops the sync and
// is returned together with the partial report.
func (s *Syncer) Sync(ctx context.Context, entries []Entry) (*Report, error) {
	report := &Report{}

	for _, e := range entries {
		info, err := os.Stat(e.Local)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return report, fmt.Errorf("failed to stat %s: %w", e.Local, err)
			}

			s.out.Info("skipped (not found): " + e.Relative)
			log.Debug().Str("file", e.Relative).Msg("manifest file missing locally")

			report.Skipped = append(report.Skipped, e)

			continue
		}

		if info.IsDir() {
			return report, fmt.Errorf("manifest entry %s is a directory", e.Relative)
		}

		if err := s.ensureRemoteDir(ctx, path.Dir(e.Remote)); err != nil {
			return report, err
		}

		s.out.Info("upload: " + e.Relative)

		if err := s.exec.Upload(ctx, e.Local, e.Remote); err != nil {
			return report, fmt.Errorf("upload %s: %w", e.Relative, err)
		}

		log.Debug().Str("file", e.Relative).Str("remote", e.Remote).Int64("bytes", info.Size()).Msg("synced file")

		report.Uploaded = append(report.Uploaded, e)
	}

	return report, nil
}

// ensureRemoteDir runs mkdir -p and waits for it. A non-zero exit is only
// logged; the upload that follows reports the real problem if there is one.
func (s *Syncer) ensureRemoteDir(ctx context.Context, dir string) error {
	res, err := s.exec.Mkdir(ctx, dir, opsctl.WithIdleTimeout(opsctl.DiagnosticTimeout))
	if err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	if res.ExitCode != 0 {
		log.Warn().Str("dir", dir).Int("exit_code", res.ExitCode).Str("stderr", res.Stderr).Msg("remote mkdir failed")
	}

	return nil
}
