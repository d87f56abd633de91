package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects on disk under dir/bucket/name for development setups.
// The router serves dir at publicBase.
type LocalStore struct {
	dir        string
	publicBase string
	logger     *slog.Logger
}

func NewLocalStore(dir, publicBase string, logger *slog.Logger) *LocalStore {
	return &LocalStore{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger,
	}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(_ context.Context, bucket, name, _ string, body io.Reader, _ int64) (string, error) {
	if !validObjectName(name) || !validObjectName(bucket) {
		return "", fmt.Errorf("invalid object name %q", name)
	}

	bucketDir := filepath.Join(s.dir, bucket)
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	path := filepath.Join(bucketDir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close object: %w", err)
	}

	s.logger.Info("object stored locally", "bucket", bucket, "name", name)
	return fmt.Sprintf("%s/%s/%s", s.publicBase, bucket, url.PathEscape(name)), nil
}

func (s *LocalStore) Delete(_ context.Context, bucket, name string) error {
	if !validObjectName(name) || !validObjectName(bucket) {
		return fmt.Errorf("invalid object name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, bucket, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) NameFromURL(bucket, publicURL string) (string, bool) {
	return nameAfterPrefix(fmt.Sprintf("%s/%s/", s.publicBase, bucket), publicURL)
}
