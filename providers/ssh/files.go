package ssh

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flashphoto/opsctl"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
)

// Upload writes one local file to remotePath over SFTP, replacing any
// existing copy. The remote parent directory must already exist; the sync
// stage creates it with Executor.Mkdir first.
func (s *Session) Upload(ctx context.Context, localPath, remotePath string, opts ...opsctl.FileOption) error {
	client, err := s.sshClient()
	if err != nil {
		return err
	}

	cfg := opsctl.DefaultFileConfig()
	for _, o := range opts {
		o(&cfg)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("upload %q: directories are not supported", localPath)
	}

	mode := info.Mode().Perm()
	if cfg.Permissions != 0 {
		mode = cfg.Permissions
	}

	sc, err := sftp.NewClient(client)
	if err != nil {
		return &opsctl.TransportError{Err: fmt.Errorf("failed to start sftp: %w", err)}
	}

	defer func() { _ = sc.Close() }()

	// Manifests written on Windows still name POSIX paths on the server.
	remotePath = strings.ReplaceAll(remotePath, "\\", "/")

	body := &uploadReader{ctx: ctx, src: src, total: info.Size(), progress: cfg.Progress}

	n, err := writeRemote(sc, remotePath, mode, body)
	if err != nil {
		return err
	}

	log.Debug().Str("local", localPath).Str("remote", remotePath).Int64("bytes", n).Msg("uploaded file")

	return nil
}

func writeRemote(sc *sftp.Client, remotePath string, mode os.FileMode, body io.Reader) (int64, error) {
	dst, err := sc.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return 0, fmt.Errorf("open remote %q: %w", remotePath, err)
	}

	defer func() { _ = dst.Close() }()

	if err := dst.Chmod(mode); err != nil {
		return 0, fmt.Errorf("chmod remote %q: %w", remotePath, err)
	}

	n, err := io.Copy(dst, body)
	if err != nil {
		return n, fmt.Errorf("write remote %q: %w", remotePath, err)
	}

	return n, nil
}

// uploadReader feeds a local file into the SFTP copy. It stops with the
// context's error once ctx is done and reports bytes read so far to progress.
type uploadReader struct {
	ctx      context.Context //nolint:containedctx
	src      io.Reader
	read     int64
	total    int64
	progress opsctl.ProgressFunc
}

func (r *uploadReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := r.src.Read(p)
	if n > 0 && r.progress != nil {
		r.read += int64(n)
		r.progress(r.read, r.total)
	}

	return n, err
}
