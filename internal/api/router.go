package api

import (
	"net/http"
	"time"

	"github.com/danzastock/danzastock/internal/docstore"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(store *docstore.Store, collection, secret string, sessionTTL time.Duration) http.Handler {
	mux := http.NewServeMux()

	sessionHandler := &SessionHandler{Secret: secret, TTL: sessionTTL}
	inventoryHandler := &InventoryHandler{Store: store, Collection: collection}

	authMW := AuthMiddleware(secret)

	// Public: anonymous sign-in.
	mux.Handle("POST /api/session", instrument("/api/session", http.HandlerFunc(sessionHandler.Create)))

	// Shared collection (session required).
	mux.Handle("GET /api/inventory", instrument("/api/inventory", authMW(http.HandlerFunc(inventoryHandler.List))))
	mux.Handle("POST /api/inventory", instrument("/api/inventory", authMW(http.HandlerFunc(inventoryHandler.Create))))
	mux.Handle("PUT /api/inventory/{id}", instrument("/api/inventory/{id}", authMW(http.HandlerFunc(inventoryHandler.Overwrite))))
	mux.Handle("DELETE /api/inventory/{id}", instrument("/api/inventory/{id}", authMW(http.HandlerFunc(inventoryHandler.Delete))))
	mux.Handle("GET /api/inventory/stream", instrument("/api/inventory/stream", authMW(http.HandlerFunc(inventoryHandler.Stream))))
	mux.Handle("PUT /api/inventory/{id}/image", instrument("/api/inventory/{id}/image", authMW(http.HandlerFunc(inventoryHandler.UploadImage))))
	mux.Handle("GET /api/inventory/{id}/image", instrument("/api/inventory/{id}/image", authMW(http.HandlerFunc(inventoryHandler.GetImage))))

	return RecoveryMiddleware(mux)
}
