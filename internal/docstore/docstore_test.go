package docstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/danzastock/danzastock/internal/db"
)

const collection = "inventario_compartido"

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store := New(db.NewTestDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { store.Close() })
	return store
}

// nextSnapshot reads one snapshot with a deadline.
func nextSnapshot(t *testing.T, snapshots <-chan []Document) []Document {
	t.Helper()

	select {
	case docs, open := <-snapshots:
		if !open {
			t.Fatal("snapshot channel closed unexpectedly")
		}
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

// waitForCount reads snapshots until one has the wanted document count.
// Intermediate snapshots may be coalesced away, so only the count matters.
func waitForCount(t *testing.T, snapshots <-chan []Document, want int) []Document {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case docs, open := <-snapshots:
			if !open {
				t.Fatal("snapshot channel closed unexpectedly")
			}
			if len(docs) == want {
				return docs
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot with %d documents", want)
		}
	}
}

func TestCreateAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, collection, map[string]any{"name": "Cintas", "quantity": 12})
	if err != nil {
		t.Fatalf("creating document: %v", err)
	}
	if id == "" {
		t.Fatal("create should return a generated id")
	}

	docs, err := store.List(ctx, collection)
	if err != nil {
		t.Fatalf("listing documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	if docs[0].ID != id {
		t.Errorf("id = %q, want %q", docs[0].ID, id)
	}
	if docs[0].Fields["name"] != "Cintas" {
		t.Errorf("name = %v, want Cintas", docs[0].Fields["name"])
	}
	// JSON round-trip turns numbers into float64.
	if docs[0].Fields["quantity"] != float64(12) {
		t.Errorf("quantity = %v (%T), want 12", docs[0].Fields["quantity"], docs[0].Fields["quantity"])
	}
}

func TestOverwriteReplacesFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, collection, map[string]any{"name": "Cintas", "quantity": 12})
	if err != nil {
		t.Fatalf("creating document: %v", err)
	}

	// Full replacement: the quantity field disappears.
	if err := store.Overwrite(ctx, collection, id, map[string]any{"name": "Cintas rojas"}); err != nil {
		t.Fatalf("overwriting document: %v", err)
	}

	docs, err := store.List(ctx, collection)
	if err != nil {
		t.Fatalf("listing documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	if docs[0].Fields["name"] != "Cintas rojas" {
		t.Errorf("name = %v, want Cintas rojas", docs[0].Fields["name"])
	}
	if _, present := docs[0].Fields["quantity"]; present {
		t.Error("overwrite should drop fields not in the new document")
	}
}

func TestOverwriteCreatesMissingDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Overwrite(ctx, collection, "fixed-id", map[string]any{"name": "Telas"}); err != nil {
		t.Fatalf("overwriting absent document: %v", err)
	}

	docs, err := store.List(ctx, collection)
	if err != nil {
		t.Fatalf("listing documents: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "fixed-id" {
		t.Errorf("documents = %v, want the upserted document", docs)
	}
}

func TestDeleteAbsentIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	if err := store.Delete(context.Background(), collection, "never-existed"); err != nil {
		t.Errorf("deleting absent document: %v", err)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "one", map[string]any{"name": "a"}); err != nil {
		t.Fatalf("creating document: %v", err)
	}

	docs, err := store.List(ctx, "two")
	if err != nil {
		t.Fatalf("listing documents: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("collection two has %d documents, want 0", len(docs))
	}
}

func TestSubscribeDeliversInitialAndUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, collection, map[string]any{"name": "Cintas"}); err != nil {
		t.Fatalf("creating document: %v", err)
	}

	snapshots, stop, err := store.Subscribe(ctx, collection)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer stop()

	initial := nextSnapshot(t, snapshots)
	if len(initial) != 1 {
		t.Fatalf("initial snapshot = %d documents, want 1", len(initial))
	}

	if _, err := store.Create(ctx, collection, map[string]any{"name": "Telas"}); err != nil {
		t.Fatalf("creating document: %v", err)
	}

	updated := waitForCount(t, snapshots, 2)
	names := map[any]bool{}
	for _, doc := range updated {
		names[doc.Fields["name"]] = true
	}
	if !names["Cintas"] || !names["Telas"] {
		t.Errorf("snapshot = %v, want both documents", updated)
	}
}

func TestSubscribeStopClosesChannel(t *testing.T) {
	store := newTestStore(t)

	snapshots, stop, err := store.Subscribe(context.Background(), collection)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	// Drain the initial snapshot, then tear down.
	nextSnapshot(t, snapshots)
	stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-snapshots:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after stop")
		}
	}
}

func TestSessionSecretIsStable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.SessionSecret(ctx)
	if err != nil {
		t.Fatalf("getting session secret: %v", err)
	}
	if first == "" {
		t.Fatal("session secret should be generated on first use")
	}

	second, err := store.SessionSecret(ctx)
	if err != nil {
		t.Fatalf("getting session secret again: %v", err)
	}
	if first != second {
		t.Error("session secret should not change between calls")
	}
}

func TestImages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data, mime, err := store.GetImage(ctx, collection, "no-image")
	if err != nil {
		t.Fatalf("getting absent image: %v", err)
	}
	if data != nil || mime != "" {
		t.Error("absent image should come back nil")
	}

	if err := store.SetImage(ctx, collection, "doc1", []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("setting image: %v", err)
	}

	data, mime, err = store.GetImage(ctx, collection, "doc1")
	if err != nil {
		t.Fatalf("getting image: %v", err)
	}
	if mime != "image/jpeg" || len(data) != 3 {
		t.Errorf("image = %d bytes %q, want 3 bytes image/jpeg", len(data), mime)
	}

	// Replacing is an upsert.
	if err := store.SetImage(ctx, collection, "doc1", []byte{9}, "image/jpeg"); err != nil {
		t.Fatalf("replacing image: %v", err)
	}
	data, _, err = store.GetImage(ctx, collection, "doc1")
	if err != nil {
		t.Fatalf("getting replaced image: %v", err)
	}
	if len(data) != 1 {
		t.Errorf("image = %d bytes, want replacement", len(data))
	}

	// Deleting the document removes the image too.
	if err := store.Delete(ctx, collection, "doc1"); err != nil {
		t.Fatalf("deleting document: %v", err)
	}
	data, _, err = store.GetImage(ctx, collection, "doc1")
	if err != nil {
		t.Fatalf("getting image after delete: %v", err)
	}
	if data != nil {
		t.Error("image should be gone after the document is deleted")
	}
}
