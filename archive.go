package logvault

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
)

// archiveStampLayout names rollover archives down to centiseconds so rapid
// consecutive rollovers do not collide.
const archiveStampLayout = "20060102_150405.00"

// archiver turns a full store file into a rollover artifact: a timestamped
// copy, optionally snappy-compressed and encrypted, optionally shipped to
// S3-compatible storage after the write path has moved on.
type archiver struct {
	dir      string
	compress bool
	password string
	uploader *s3Uploader
	logger   *slog.Logger
}

func newArchiver(cfg Config) (*archiver, error) {
	a := &archiver{
		dir:      cfg.Archive.Dir,
		compress: cfg.Archive.Compress,
		password: cfg.Archive.EncryptionPassword,
		logger:   cfg.Logger,
	}
	if a.dir == "" {
		a.dir = filepath.Dir(cfg.Path)
	}
	if cfg.Archive.S3 != nil {
		up, err := newS3Uploader(*cfg.Archive.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to configure archive upload: %w", err)
		}
		a.uploader = up
	}
	return a, nil
}

// ArchiveName returns the rollover artifact path for a store file at the
// given instant: <dir>/<basename>-<stamp><ext>, plus ".sz" when compressed
// and ".enc" when encrypted.
func (a *archiver) ArchiveName(storePath string, now time.Time) string {
	base := filepath.Base(storePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := fmt.Sprintf("%s-%s%s", stem, now.Format(archiveStampLayout), ext)
	if a.compress {
		name += ".sz"
	}
	if a.password != "" {
		name += ".enc"
	}
	return filepath.Join(a.dir, name)
}

// Archive copies the store file to its timestamped artifact, applying the
// configured compression and encryption. The caller holds the store lock, so
// the file is quiescent for the duration of the copy.
func (a *archiver) Archive(storePath string) (string, error) {
	dest := a.ArchiveName(storePath, time.Now())

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}

	if !a.compress && a.password == "" {
		if err := copyFile(storePath, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		return "", fmt.Errorf("failed to read store for archive: %w", err)
	}
	if a.compress {
		data = snappy.Encode(nil, data)
	}
	if a.password != "" {
		data, err = EncryptArchive(data, a.password)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt archive: %w", err)
		}
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return dest, nil
}

// Ship uploads a finished archive when an uploader is configured. Failures
// are logged only; the local archive is retained either way.
func (a *archiver) Ship(ctx context.Context, archivePath string) {
	if a.uploader == nil {
		return
	}
	if err := a.uploader.Upload(ctx, archivePath); err != nil {
		a.logger.Error("archive upload failed", "archive", archivePath, "err", err)
		return
	}
	a.logger.Info("archive uploaded", "archive", archivePath, "bucket", a.uploader.cfg.Bucket)
}

// ReadArchive reads a rollover artifact back, reversing encryption and
// compression as indicated by the filename suffixes.
func ReadArchive(path, password string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := path
	if strings.HasSuffix(name, ".enc") {
		data, err = DecryptArchive(data, password)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt archive: %w", err)
		}
		name = strings.TrimSuffix(name, ".enc")
	}
	if strings.HasSuffix(name, ".sz") {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress archive: %w", err)
		}
	}
	return data, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open store for archive: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy store to archive: %w", err)
	}
	return out.Close()
}
