// Package s3store implements store.BlobStore on any S3-compatible
// object store via the MinIO client. Objects are keyed "roomID/filename".
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/netziya/shell-server/internal/store"
)

// Config holds S3 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Store is an S3-backed blob store.
type Store struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
}

// New connects to the endpoint and makes sure the bucket exists.
// maxBytes caps individual objects; zero or negative means
// store.DefaultMaxBlobSize.
func New(ctx context.Context, cfg Config, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = store.DefaultMaxBlobSize
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket, maxBytes: maxBytes}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		opts := minio.MakeBucketOptions{Region: cfg.Region}
		if err := client.MakeBucket(ctx, cfg.Bucket, opts); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return s, nil
}

// Store streams the object up, aborting once the size cap is crossed.
// A partial object left behind by an aborted upload is removed before
// ErrTooLarge is returned.
func (s *Store) Store(ctx context.Context, roomID, filename string, r io.Reader) (int64, error) {
	key, err := objectKey(roomID, filename)
	if err != nil {
		return 0, err
	}

	capped := &cappedReader{r: r, remaining: s.maxBytes}
	info, err := s.client.PutObject(ctx, s.bucket, key, capped, -1, minio.PutObjectOptions{})
	if err != nil {
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		if errors.Is(err, store.ErrTooLarge) || capped.tripped {
			return 0, store.ErrTooLarge
		}
		return 0, fmt.Errorf("put object: %w", err)
	}
	return info.Size, nil
}

// Retrieve opens the object for reading.
func (s *Store) Retrieve(ctx context.Context, roomID, filename string) (io.ReadCloser, error) {
	key, err := objectKey(roomID, filename)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat forces the lookup so a miss surfaces here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

// Delete removes the object.
func (s *Store) Delete(ctx context.Context, roomID, filename string) error {
	key, err := objectKey(roomID, filename)
	if err != nil {
		return err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return store.ErrNotFound
		}
		return fmt.Errorf("stat object: %w", err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func objectKey(roomID, filename string) (string, error) {
	if !store.ValidName(roomID) || !store.ValidName(filename) {
		return "", store.ErrBadName
	}
	return roomID + "/" + filename, nil
}

// cappedReader fails the stream once more than remaining bytes pass
// through, so an oversize upload aborts instead of completing.
type cappedReader struct {
	r         io.Reader
	remaining int64
	tripped   bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.remaining <= 0 {
		// At the cap: an object of exactly the cap size must still end
		// cleanly, so probe one byte to tell EOF from overflow.
		var b [1]byte
		n, err := c.r.Read(b[:])
		if n > 0 {
			c.tripped = true
			return 0, store.ErrTooLarge
		}
		if err != nil {
			return 0, err
		}
		return 0, nil
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
