// Package storage provides blob storage for uploaded images and the
// database records that track them.
package storage

import (
	"context"
	"encoding/hex"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BlobStore saves uploaded blobs under a caller-chosen name and returns
// the public path the frontend can load them from.
type BlobStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Image is the database record for an uploaded image. UserID is nil for
// anonymous uploads.
type Image struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Filename  string
	Path      string
	CreatedAt time.Time
}

// UniqueName derives a collision-free storage name from an uploaded
// filename, keeping only its extension.
func UniqueName(filename string) string {
	id := uuid.New()
	return hex.EncodeToString(id[:]) + filepath.Ext(filename)
}
