package effects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFiles copies from a read-only files directory on the local disk.
type LocalFiles struct {
	// SourceDir anchors relative copy sources.
	SourceDir string
}

var _ Files = LocalFiles{}

// Copy copies source to target, creating target's parent directories.
func (f LocalFiles) Copy(_ context.Context, source, target string) error {
	if source == "" || target == "" {
		return fmt.Errorf("copy file: source and target are required")
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(f.SourceDir, source)
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open copy source: %w", err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat copy source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create copy target dir: %w", err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("open copy target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s to %s: %w", source, target, err)
	}
	return out.Close()
}

// Remove deletes path. A missing file is not an error.
func (f LocalFiles) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
