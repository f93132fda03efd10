package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

// SetImage stores a document's photo, replacing any previous one. The photo
// lives outside the field map so it never affects snapshot payloads.
func (s *Store) SetImage(ctx context.Context, collection, id string, data []byte, mime string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (collection, document_id, data, mime) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, document_id)
		 DO UPDATE SET data = excluded.data, mime = excluded.mime, updated_at = CURRENT_TIMESTAMP`,
		collection, id, data, mime,
	)
	if err != nil {
		return fmt.Errorf("setting document image: %w", err)
	}
	return nil
}

// GetImage returns a document's photo data and MIME type, or nil data when
// the document has no photo.
func (s *Store) GetImage(ctx context.Context, collection, id string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE collection = ? AND document_id = ?`,
		collection, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting document image: %w", err)
	}
	return data, mime, nil
}
