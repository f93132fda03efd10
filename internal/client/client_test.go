package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danzastock/danzastock/internal/api"
	"github.com/danzastock/danzastock/internal/client"
	"github.com/danzastock/danzastock/internal/db"
	"github.com/danzastock/danzastock/internal/docstore"
	"github.com/danzastock/danzastock/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := docstore.New(db.NewTestDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(api.NewRouter(store, "inventario_compartido", "test-secret", time.Hour))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticateAndCRUD(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	c := client.New(srv.URL)
	if err := c.Authenticate(ctx); err != nil {
		t.Fatalf("authenticating: %v", err)
	}

	id, err := c.Create(ctx, map[string]any{
		"name":     "Cintas",
		"status":   "Storage",
		"loanedTo": "",
		"category": "materials",
		"quantity": 12,
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	if id == "" {
		t.Fatal("create should return the assigned id")
	}

	items, err := c.List(ctx)
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0]
	if item.ID != id || item.Name != "Cintas" || item.Category != model.CategoryMaterials {
		t.Errorf("item = %+v", item)
	}
	if item.Quantity == nil || *item.Quantity != 12 {
		t.Errorf("quantity = %v, want 12", item.Quantity)
	}

	if err := c.Overwrite(ctx, id, map[string]any{
		"name":     "Cintas",
		"status":   "Loaned",
		"loanedTo": "Marta",
		"category": "materials",
		"quantity": 10,
	}); err != nil {
		t.Fatalf("updating item: %v", err)
	}

	items, err = c.List(ctx)
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if items[0].Status != model.StatusLoaned || items[0].LoanedTo != "Marta" {
		t.Errorf("item after update = %+v", items[0])
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("deleting item: %v", err)
	}
	items, err = c.List(ctx)
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items after delete = %d, want 0", len(items))
	}
}

func TestUnauthenticatedWritesFail(t *testing.T) {
	srv := newTestServer(t)

	c := client.New(srv.URL)
	if _, err := c.Create(context.Background(), map[string]any{"name": "Cintas"}); err == nil {
		t.Error("create without a session should fail")
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := client.New(srv.URL)
	if err := c.Authenticate(ctx); err != nil {
		t.Fatalf("authenticating: %v", err)
	}

	snapshots, errs, err := c.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}

	next := func() []model.Item {
		t.Helper()
		select {
		case items, open := <-snapshots:
			if !open {
				t.Fatal("snapshot channel closed unexpectedly")
			}
			return items
		case err := <-errs:
			t.Fatalf("stream error: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
		return nil
	}

	// The stream opens with the current (empty) snapshot.
	if items := next(); len(items) != 0 {
		t.Fatalf("initial snapshot = %d items, want 0", len(items))
	}

	if _, err := c.Create(ctx, map[string]any{
		"name":     "Vestido",
		"status":   "Storage",
		"category": "costumes",
	}); err != nil {
		t.Fatalf("creating item: %v", err)
	}

	items := next()
	if len(items) != 1 || items[0].Name != "Vestido" {
		t.Fatalf("snapshot = %+v, want the created item", items)
	}
	if items[0].Category != model.CategoryCostumes {
		t.Errorf("category = %q, want costumes", items[0].Category)
	}

	// Cancelling the context tears the stream down.
	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-snapshots:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel not closed after cancel")
		}
	}
}
