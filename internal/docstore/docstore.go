// Package docstore implements the shared document collection: schemaless
// JSON documents in SQLite with a full-snapshot change feed. Every mutation
// re-reads the collection and publishes the complete snapshot, so
// subscribers never reconcile deltas: the last snapshot wins.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Document is a raw stored document: an opaque id plus a field map.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Store provides document CRUD and snapshot subscriptions over a SQLite
// database. All methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	log    *slog.Logger
	pubsub *gochannel.GoChannel
}

// New creates a Store on top of an open database.
func New(db *sql.DB, log *slog.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			&slogAdapter{log: log},
		),
	}
}

// Create inserts a new document with a fresh id and returns the id.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)`,
		collection, id, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}

	s.publishSnapshot(ctx, collection)
	return id, nil
}

// Overwrite replaces a document's fields in full. Writing to an id that does
// not exist creates it (set semantics); the last write wins.
func (s *Store) Overwrite(ctx context.Context, collection, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET fields = excluded.fields, updated_at = CURRENT_TIMESTAMP`,
		collection, id, string(data),
	)
	if err != nil {
		return fmt.Errorf("overwriting document: %w", err)
	}

	s.publishSnapshot(ctx, collection)
	return nil
}

// Delete removes a document. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM images WHERE collection = ? AND document_id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document image: %w", err)
	}

	s.publishSnapshot(ctx, collection)
	return nil
}

// List returns the full snapshot of a collection in creation order.
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var fields string
		if err := rows.Scan(&doc.ID, &fields); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &doc.Fields); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Subscribe delivers the current snapshot immediately, then a fresh full
// snapshot after every mutation of the collection. The returned channel is
// closed when the subscription ends; call stop (or cancel ctx) to tear it
// down. Slow consumers only ever miss intermediate snapshots: delivery
// coalesces so the newest snapshot replaces an unconsumed older one.
func (s *Store) Subscribe(ctx context.Context, collection string) (<-chan []Document, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	msgs, err := s.pubsub.Subscribe(subCtx, topic(collection))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", collection, err)
	}

	initial, err := s.List(subCtx, collection)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	out := make(chan []Document, 1)
	out <- initial

	go func() {
		defer close(out)
		for msg := range msgs {
			var docs []Document
			if err := json.Unmarshal(msg.Payload, &docs); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()

			// Coalesce: drop the unconsumed snapshot, keep the newest.
			select {
			case out <- docs:
			default:
				select {
				case <-out:
				default:
				}
				out <- docs
			}
		}
	}()

	return out, cancel, nil
}

// publishSnapshot pushes the collection's full snapshot to all subscribers.
// A read failure here only degrades liveness (subscribers keep their last
// snapshot), so it is not propagated to the writer.
func (s *Store) publishSnapshot(ctx context.Context, collection string) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		s.log.Error("failed to read snapshot for publish", "collection", collection, "error", err)
		return
	}

	payload, err := json.Marshal(docs)
	if err != nil {
		s.log.Error("failed to encode snapshot", "collection", collection, "error", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubsub.Publish(topic(collection), msg); err != nil {
		s.log.Error("failed to publish snapshot", "collection", collection, "error", err)
	}
}

// Close shuts down the snapshot bus. The database is owned by the caller.
func (s *Store) Close() error {
	return s.pubsub.Close()
}

func topic(collection string) string {
	return "collection." + collection
}
