package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/danzastock/danzastock/internal/docstore"
	"github.com/danzastock/danzastock/internal/imaging"
	"github.com/danzastock/danzastock/internal/metrics"
	"github.com/danzastock/danzastock/internal/model"
	"github.com/danzastock/danzastock/internal/validate"
)

// heartbeatInterval keeps idle snapshot streams alive through proxies.
const heartbeatInterval = 15 * time.Second

// InventoryHandler handles the shared collection endpoints.
type InventoryHandler struct {
	Store      *docstore.Store
	Collection string
}

// itemRequest is the create/overwrite payload. The Repair status for
// costumes is a form-level constraint, so the store surface accepts it.
type itemRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Status   string `json:"status" validate:"required,oneof=Storage Loaned Repair"`
	LoanedTo string `json:"loanedTo" validate:"max=200"`
	Category string `json:"category" validate:"required,oneof=materials costumes"`
	Quantity *int   `json:"quantity" validate:"required_if=Category materials,excluded_if=Category costumes,omitempty,gte=0"`
}

func (req *itemRequest) item(id string) model.Item {
	return model.Item{
		ID:       id,
		Name:     req.Name,
		Status:   req.Status,
		LoanedTo: req.LoanedTo,
		Category: req.Category,
		Quantity: req.Quantity,
	}
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.List(r.Context(), h.Collection)
	if err != nil {
		slog.Error("failed to list documents", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	jsonResponse(w, http.StatusOK, docs)
}

// Create handles POST /api/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	id, err := h.Store.Create(r.Context(), h.Collection, req.item("").Fields())
	metrics.ObserveStoreOp("create", err)
	if err != nil {
		slog.Error("failed to create document", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "id", id, "name", req.Name, "category", req.Category)
	jsonResponse(w, http.StatusCreated, req.item(id))
}

// Overwrite handles PUT /api/inventory/{id}: a full-document replacement.
func (h *InventoryHandler) Overwrite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	req, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	err := h.Store.Overwrite(r.Context(), h.Collection, id, req.item(id).Fields())
	metrics.ObserveStoreOp("overwrite", err)
	if err != nil {
		slog.Error("failed to overwrite document", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	slog.Info("item updated", "id", id, "name", req.Name)
	jsonResponse(w, http.StatusOK, req.item(id))
}

// Delete handles DELETE /api/inventory/{id}. Deleting an id that is not in
// the collection succeeds; the next snapshot simply omits it.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.Store.Delete(r.Context(), h.Collection, id)
	metrics.ObserveStoreOp("delete", err)
	if err != nil {
		slog.Error("failed to delete document", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Stream handles GET /api/inventory/stream: a server-sent-events feed where
// every event carries the full collection snapshot. The subscription is torn
// down when the client disconnects.
func (h *InventoryHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	snapshots, stop, err := h.Store.Subscribe(r.Context(), h.Collection)
	if err != nil {
		slog.Error("failed to subscribe", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case docs, open := <-snapshots:
			if !open {
				return
			}
			payload, err := json.Marshal(docs)
			if err != nil {
				slog.Error("failed to encode snapshot", "error", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// UploadImage handles PUT /api/inventory/{id}/image.
func (h *InventoryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or unreadable")
		return
	}

	// Validate format by sniffing bytes, downscale, compress.
	photo, err := imaging.Process(bytes.NewReader(body))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Store.SetImage(r.Context(), h.Collection, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	slog.Info("item image uploaded", "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/inventory/{id}/image.
func (h *InventoryHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, mime, err := h.Store.GetImage(r.Context(), h.Collection, id)
	if err != nil {
		slog.Error("failed to get image", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// decodeItem decodes and validates an item payload, writing the error
// response itself on failure.
func (h *InventoryHandler) decodeItem(w http.ResponseWriter, r *http.Request) (*itemRequest, bool) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		jsonValidationError(w, validate.Errors(err))
		return nil, false
	}
	return &req, true
}
