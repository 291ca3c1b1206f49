// Package sqlite implements store.FileIndex on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/netziya/shell-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	room_id    TEXT NOT NULL,
	filename   TEXT NOT NULL,
	size       INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (room_id, filename)
);

CREATE INDEX IF NOT EXISTS idx_uploads_room ON uploads(room_id, created_at);
`

// Index implements store.FileIndex for SQLite.
type Index struct {
	db *sql.DB
}

// New opens (or creates) the index database at dbPath and applies the
// schema. Use ":memory:" for an ephemeral index.
func New(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Index{db: db}, nil
}

// RecordUpload inserts or refreshes the entry for one attachment.
// Re-uploading the same filename overwrites the earlier record, matching
// the blob store's overwrite semantics.
func (i *Index) RecordUpload(ctx context.Context, up store.Upload) error {
	_, err := i.db.ExecContext(ctx, `
		INSERT INTO uploads (room_id, filename, size)
		VALUES (?, ?, ?)
		ON CONFLICT(room_id, filename)
		DO UPDATE SET size = excluded.size, created_at = CURRENT_TIMESTAMP`,
		up.RoomID, up.Filename, up.Size,
	)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// RemoveUpload deletes the entry for one attachment, if present.
func (i *Index) RemoveUpload(ctx context.Context, roomID, filename string) error {
	_, err := i.db.ExecContext(ctx,
		`DELETE FROM uploads WHERE room_id = ? AND filename = ?`,
		roomID, filename,
	)
	if err != nil {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// ListUploads returns the room's attachments in upload order.
func (i *Index) ListUploads(ctx context.Context, roomID string) ([]store.Upload, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT room_id, filename, size, created_at
		FROM uploads
		WHERE room_id = ?
		ORDER BY created_at, filename`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []store.Upload
	for rows.Next() {
		var up store.Upload
		if err := rows.Scan(&up.RoomID, &up.Filename, &up.Size, &up.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}
