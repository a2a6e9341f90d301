package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirStore saves blobs as files in a local directory. Saved blobs are
// served back by the server under /uploads/.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore rooted at dir, creating the directory if
// needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	return &DirStore{
		dir: dir,
	}, nil
}

// Dir returns the directory blobs are saved in.
func (d *DirStore) Dir() string {
	return d.dir
}

// Save writes the blob to disk and returns its public path.
func (d *DirStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// name is server-generated, but refuse anything that could escape
	// the upload dir.
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write blob file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob file: %w", err)
	}

	return "/uploads/" + name, nil
}
