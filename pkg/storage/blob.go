package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gofrs/uuid"
)

// Blob identifies an uploaded object. ID is what Delete takes back.
type Blob struct {
	ID  string `json:"public_id" bson:"public_id"`
	URL string `json:"url"       bson:"url"`
}

// Blobs uploads objects under dir with generated names.
type Blobs struct {
	disk Disk
	dir  string
}

func NewBlobs(disk Disk, dir string) *Blobs {
	return &Blobs{disk: disk, dir: strings.Trim(dir, "/")}
}

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// Upload stores r under a fresh UUID keeping filename's extension.
func (b *Blobs) Upload(ctx context.Context, filename string, r io.Reader, contentType string) (Blob, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExt[ext] {
		return Blob{}, fmt.Errorf("storage: unsupported file type %q", ext)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return Blob{}, fmt.Errorf("storage: id: %w", err)
	}

	key := id.String() + ext
	if b.dir != "" {
		key = b.dir + "/" + key
	}
	if err := b.disk.Put(ctx, key, r, contentType); err != nil {
		return Blob{}, err
	}
	return Blob{ID: key, URL: b.disk.URL(key)}, nil
}

// Delete removes a blob by id. Empty ids are ignored.
func (b *Blobs) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return b.disk.Delete(ctx, id)
}
