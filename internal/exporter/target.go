package exporter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Target is one durable destination for exported series files.
type Target interface {
	// Write stores body at key, replacing any previous object.
	Write(ctx context.Context, key string, body []byte) error
}

// FileSystemTarget writes exports under a root directory, one file per key.
type FileSystemTarget struct {
	rootDir string
}

// NewFileSystemTarget creates a filesystem-backed export target.
func NewFileSystemTarget(rootDir string) *FileSystemTarget {
	return &FileSystemTarget{rootDir: rootDir}
}

func (t *FileSystemTarget) Write(_ context.Context, key string, body []byte) error {
	path := filepath.Join(t.rootDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	// Write-then-rename keeps consumers from reading a half-written file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish export file: %w", err)
	}
	return nil
}

// S3Target writes exports to an S3-compatible object store.
type S3Target struct {
	client *minio.Client
	bucket string
}

// NewS3Target creates an object-storage export target.
func NewS3Target(endpoint, accessKey, secretKey, bucket string, secure bool) (*S3Target, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3Target{client: client, bucket: bucket}, nil
}

func (t *S3Target) Write(ctx context.Context, key string, body []byte) error {
	_, err := t.client.PutObject(
		ctx,
		t.bucket,
		key,
		bytes.NewReader(body),
		int64(len(body)),
		minio.PutObjectOptions{
			ContentType: "application/json",
		},
	)
	if err != nil {
		return fmt.Errorf("s3 put object %q: %w", key, err)
	}
	return nil
}
