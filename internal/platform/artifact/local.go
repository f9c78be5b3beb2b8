package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// LocalStore writes artifacts under a directory served by the HTTP server.
type LocalStore struct {
	dir        string
	publicPath string
}

func NewLocalStore(dir, publicPath string) *LocalStore {
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalStore{dir: dir, publicPath: publicPath}
}

func (s *LocalStore) Driver() string { return "local" }

// Dir is the directory the HTTP server exposes under the public path.
func (s *LocalStore) Dir() string { return s.dir }

// Store writes data to a fresh file. The write goes through a temp file and
// rename so readers never observe a partial image.
func (s *LocalStore) Store(ctx context.Context, data []byte, format string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := NewKey(format)
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	return path.Join(s.publicPath, name), nil
}

// Delete removes the file behind locator. Locators outside the public path
// are rejected so a caller cannot reach files beyond the upload dir.
func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, name := path.Split(locator)
	if path.Clean(dir) != path.Clean(s.publicPath) || name == "" || name == "." || name == ".." {
		return fmt.Errorf("locator %q is not under %s", locator, s.publicPath)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}
