package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// DefaultMaxBlobSize is the largest file a room accepts unless
// configured otherwise.
const DefaultMaxBlobSize = 50 << 20 // 50 MiB

var (
	// ErrTooLarge is returned when a stored object exceeds the size cap.
	// Any partial data is discarded before the error is returned.
	ErrTooLarge = errors.New("blob too large")
	// ErrNotFound is returned when no object exists for the given key.
	ErrNotFound = errors.New("blob not found")
	// ErrBadName is returned for file names that could escape the room's
	// key space (path separators, traversal, empty name).
	ErrBadName = errors.New("invalid file name")
)

// BlobStore holds room file attachments, addressed by room and file name.
type BlobStore interface {
	// Store writes the object, enforcing the backend's size cap while
	// streaming. Returns the number of bytes written.
	Store(ctx context.Context, roomID, filename string, r io.Reader) (int64, error)
	// Retrieve opens the object for reading. The caller closes it.
	Retrieve(ctx context.Context, roomID, filename string) (io.ReadCloser, error)
	// Delete removes the object.
	Delete(ctx context.Context, roomID, filename string) error
}

// Upload is one recorded file attachment.
type Upload struct {
	RoomID    string
	Filename  string
	Size      int64
	CreatedAt time.Time
}

// FileIndex records upload metadata so a room's attachments can be
// listed without touching the blob backend.
type FileIndex interface {
	RecordUpload(ctx context.Context, up Upload) error
	RemoveUpload(ctx context.Context, roomID, filename string) error
	ListUploads(ctx context.Context, roomID string) ([]Upload, error)
	Close() error
}

// ValidName reports whether s is usable as a room ID or file name:
// non-empty, no path separators, no traversal.
func ValidName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\")
}
