// Package fsstore implements store.BlobStore on the local filesystem,
// one directory per room under a configured root.
package fsstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/netziya/shell-server/internal/store"
)

// Store is a filesystem-backed blob store.
type Store struct {
	root     string
	maxBytes int64
}

// New creates a store rooted at dir. maxBytes caps individual objects;
// zero or negative means store.DefaultMaxBlobSize.
func New(dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = store.DefaultMaxBlobSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: dir, maxBytes: maxBytes}, nil
}

// Store writes the object, counting bytes as they stream in. If the cap
// is exceeded the partial file is removed before returning ErrTooLarge.
func (s *Store) Store(ctx context.Context, roomID, filename string, r io.Reader) (int64, error) {
	path, err := s.path(roomID, filename)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create room dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}

	// Copy one byte past the cap so overflow is detectable.
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("write blob: %w", err)
	}
	if n > s.maxBytes {
		os.Remove(path)
		return 0, store.ErrTooLarge
	}
	return n, nil
}

// Retrieve opens the object for reading.
func (s *Store) Retrieve(ctx context.Context, roomID, filename string) (io.ReadCloser, error) {
	path, err := s.path(roomID, filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the object.
func (s *Store) Delete(ctx context.Context, roomID, filename string) error {
	path, err := s.path(roomID, filename)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (s *Store) path(roomID, filename string) (string, error) {
	if !store.ValidName(roomID) || !store.ValidName(filename) {
		return "", store.ErrBadName
	}
	return filepath.Join(s.root, roomID, filename), nil
}
