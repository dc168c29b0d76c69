package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/irwan019/GrkApp/internal/logger"
)

// FileStorage writes exports to the local filesystem. An existing file is
// overwritten.
type FileStorage struct {
	logger logger.Logger
}

func NewFileStorage(log logger.Logger) *FileStorage {
	return &FileStorage{logger: logger.Component(log, "file_storage")}
}

func (s *FileStorage) Save(ctx context.Context, dest string, data io.Reader, _ int64, _ string) (string, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return "", err
	}
	if d.Scheme != SchemeFile {
		return "", fmt.Errorf("file storage cannot write %s", d)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if dir := filepath.Dir(d.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(d.Path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", d.Path, err)
	}

	s.logger.Infof("Saved %d bytes to %s", n, d.Path)
	return d.Path, nil
}
