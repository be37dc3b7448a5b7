package output

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSink stores documents as files in one directory.
type DirSink struct {
	dir             string
	downloadBaseURL string
}

func NewDirSink(dir, downloadBaseURL string) *DirSink {
	return &DirSink{dir: dir, downloadBaseURL: downloadBaseURL}
}

func (s *DirSink) Locate(filename string) Location {
	return Location{
		Filename:    filename,
		Path:        filepath.Join(s.dir, filename),
		DownloadURL: downloadURL(s.downloadBaseURL, filename),
	}
}

func (s *DirSink) Save(_ context.Context, filename string, content []byte) error {
	if !validFilename(filename) {
		return fmt.Errorf("invalid document filename %q", filename)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, filename)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, filename)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func (s *DirSink) Open(_ context.Context, filename string) (io.ReadCloser, error) {
	if !validFilename(filename) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, filename)
	}
	file, err := os.Open(filepath.Join(s.dir, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	return file, nil
}

func (s *DirSink) Delete(_ context.Context, filename string) error {
	if !validFilename(filename) {
		return fmt.Errorf("invalid document filename %q", filename)
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	return nil
}
