package storage

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/imtaco/livecast/internal/errors"
)

type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
	// PublicURL is where the HTTP API serves BasePath, e.g. http://host/files.
	PublicURL string `mapstructure:"public_url"`
}

// Local writes objects below a directory. Writes go to a temp file that is
// renamed into place, so readers never see a partial object.
type Local struct {
	root      string
	publicURL string
}

func NewLocal(cfg LocalConfig) (*Local, error) {
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrServer, err, "failed to create %s", cfg.BasePath)
	}
	root, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrServer, err, "failed to resolve %s", cfg.BasePath)
	}
	return &Local{
		root:      root,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Root is the directory objects are written to.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || filepath.IsAbs(clean) ||
		strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", errors.Newf(errors.ErrValidation, "invalid object key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *Local) Upload(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrUpload, err, "upload cancelled")
	}
	path, err := l.path(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrUpload, err, "failed to create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrUpload, err, "failed to create temp file")
	}
	done := false
	defer func() {
		if !done {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", errors.Wrapf(errors.ErrUpload, err, "failed to write %s", key)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrapf(errors.ErrUpload, err, "failed to close %s", key)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrapf(errors.ErrUpload, err, "failed to move %s into place", key)
	}
	done = true

	return l.publicURL + "/" + escapeKey(key), nil
}

// Delete removes key. A missing object is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrServer, err, "failed to delete %s", key)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
