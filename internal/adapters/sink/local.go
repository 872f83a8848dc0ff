package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalDirSink writes files into a directory.
type LocalDirSink struct {
	dir string
}

// NewLocalDirSink creates the directory when needed.
func NewLocalDirSink(dir string) (*LocalDirSink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("local sink directory: %w", ErrNotConfigured)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create sink directory: %w", err)
	}
	return &LocalDirSink{dir: dir}, nil
}

// Put writes data to dir/name through a temporary file so readers never see
// a partial document. Only the base of name is used.
func (s *LocalDirSink) Put(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	tmp, err := os.CreateTemp(s.dir, "."+base+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", base, err)
	}
	dst := filepath.Join(s.dir, base)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move %s into place: %w", base, err)
	}
	return dst, nil
}
