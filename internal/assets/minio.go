// Package assets stores binary payloads referenced by embed nodes. The
// document model treats asset references as opaque strings; this package
// is where they resolve.
package assets

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Ref is an opaque asset reference of the form "asset://<bucket>/<object>".
type Ref string

// Store uploads and serves assets from an S3-compatible backend.
type Store struct {
	client *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the configured bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	log.Printf("assets: created bucket %s", s.bucket)
	return nil
}

// Upload stores an object and returns its reference.
func (s *Store) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (Ref, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return Ref(fmt.Sprintf("asset://%s/%s", s.bucket, name)), nil
}

// Open returns a reader for a stored asset. The caller closes it.
func (s *Store) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	name, err := s.objectName(ref)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	return obj, nil
}

// URL returns a presigned download URL for an asset reference.
func (s *Store) URL(ctx context.Context, ref Ref, expiry time.Duration) (string, error) {
	name, err := s.objectName(ref)
	if err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return u.String(), nil
}

// Delete removes a stored asset.
func (s *Store) Delete(ctx context.Context, ref Ref) error {
	name, err := s.objectName(ref)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

func (s *Store) objectName(ref Ref) (string, error) {
	prefix := fmt.Sprintf("asset://%s/", s.bucket)
	raw := string(ref)
	if len(raw) <= len(prefix) || raw[:len(prefix)] != prefix {
		return "", fmt.Errorf("malformed asset ref %q", ref)
	}
	return raw[len(prefix):], nil
}
