// Package storage is the blob store behind product images. A Disk stores
// opaque objects by path; Blobs layers id generation on top:
//
//	blobs := storage.NewBlobs(disk, "products")
//	blob, err := blobs.Upload(ctx, "lens.png", file, "image/png")
//	// blob.ID  == "products/3f2c...e1.png"
//	// blob.URL == "https://cdn.example.com/products/3f2c...e1.png"
//	err = blobs.Delete(ctx, blob.ID)
//
// Two drivers exist: "local" (filesystem, served under /storage) and "s3"
// (AWS S3, MinIO, R2, Spaces).
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Rasmogul/greatsoko/config"
)

// Disk is the driver interface.
type Disk interface {
	// Put writes r to path, replacing any existing object.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Delete removes path. A missing object is not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the public URL for path.
	URL(path string) string
}

// Open builds the disk named by STORAGE_DISK.
func Open(ctx context.Context) (Disk, error) {
	switch name := config.StorageDefault(); name {
	case "local":
		return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", name)
	}
}
