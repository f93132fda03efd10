package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danzastock/danzastock/internal/imaging"
	"github.com/danzastock/danzastock/internal/model"
)

// notices maps redirect codes to user-facing messages.
var notices = map[string]string{
	"added":    "Artículo agregado correctamente.",
	"edited":   "Artículo editado correctamente.",
	"deleted":  "Artículo eliminado correctamente.",
	"save":     "Error al guardar el artículo.",
	"delete":   "Error al eliminar el artículo.",
	"load":     "Error al cargar los datos.",
	"image":    "Error al subir la imagen.",
	"quantity": "Cantidad no válida.",
}

// InventoryPage handles GET /: the single page with the category tabs, the
// add/edit form and the filtered item list.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if !model.ValidCategory(view) {
		view = model.CategoryMaterials
	}
	query := r.URL.Query().Get("q")

	data := &struct {
		PageData
		View    string
		Query   string
		Items   []model.Item
		Editing *model.Item
		Status  string
	}{
		PageData: PageData{Title: "Inventario"},
		View:     view,
		Query:    query,
		Status:   model.StatusStorage,
	}
	if code := r.URL.Query().Get("ok"); code != "" {
		data.Notice = notices[code]
	} else if code := r.URL.Query().Get("err"); code != "" {
		data.Notice = notices[code]
		data.IsError = true
	}

	docs, err := s.Store.List(r.Context(), s.Collection)
	if err != nil {
		slog.Error("failed to list documents", "error", err)
		data.Notice, data.IsError = notices["load"], true
		s.Templates.Render(w, "inventory.html", data)
		return
	}

	items := make([]model.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, model.FromFields(doc.ID, doc.Fields))
	}
	materials, costumes := model.Partition(items)

	shown := materials
	if view == model.CategoryCostumes {
		shown = costumes
	}
	if query != "" {
		lowered := strings.ToLower(query)
		var matched []model.Item
		for _, item := range shown {
			if strings.Contains(strings.ToLower(item.Name), lowered) {
				matched = append(matched, item)
			}
		}
		shown = matched
	}
	data.Items = shown

	if editID := r.URL.Query().Get("edit"); editID != "" {
		for _, item := range shown {
			if item.ID == editID {
				editing := item
				data.Editing = &editing
				data.Status = editing.Status
				break
			}
		}
	}

	s.Templates.Render(w, "inventory.html", data)
}

// ItemSubmit handles POST /items: create when the form carries no id,
// full overwrite when it does.
func (s *Server) ItemSubmit(w http.ResponseWriter, r *http.Request) {
	view := r.FormValue("category")
	if !model.ValidCategory(view) {
		view = model.CategoryMaterials
	}

	name := strings.TrimSpace(r.FormValue("name"))
	status := r.FormValue("status")
	if name == "" || !model.ValidStatus(status) {
		redirect(w, r, view, "err", "save")
		return
	}
	if status == model.StatusRepair && view == model.CategoryCostumes {
		redirect(w, r, view, "err", "save")
		return
	}

	fields := map[string]any{
		"name":     name,
		"status":   status,
		"loanedTo": r.FormValue("loanedTo"),
		"category": view,
	}
	if view == model.CategoryMaterials {
		qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
		if err != nil || qty < 0 {
			redirect(w, r, view, "err", "quantity")
			return
		}
		fields["quantity"] = qty
	}

	id := r.FormValue("id")
	if id == "" {
		if _, err := s.Store.Create(r.Context(), s.Collection, fields); err != nil {
			slog.Error("failed to create document", "error", err)
			redirect(w, r, view, "err", "save")
			return
		}
		redirect(w, r, view, "ok", "added")
		return
	}

	if err := s.Store.Overwrite(r.Context(), s.Collection, id, fields); err != nil {
		slog.Error("failed to overwrite document", "id", id, "error", err)
		redirect(w, r, view, "err", "save")
		return
	}
	redirect(w, r, view, "ok", "edited")
}

// ItemDelete handles POST /items/{id}/delete.
func (s *Server) ItemDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view := r.FormValue("category")
	if !model.ValidCategory(view) {
		view = model.CategoryMaterials
	}

	if err := s.Store.Delete(r.Context(), s.Collection, id); err != nil {
		slog.Error("failed to delete document", "id", id, "error", err)
		redirect(w, r, view, "err", "delete")
		return
	}
	redirect(w, r, view, "ok", "deleted")
}

// ItemImageSubmit handles POST /items/{id}/image.
func (s *Server) ItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view := r.FormValue("category")
	if !model.ValidCategory(view) {
		view = model.CategoryMaterials
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		redirect(w, r, view, "err", "image")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		redirect(w, r, view, "err", "image")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		redirect(w, r, view, "err", "image")
		return
	}

	if err := s.Store.SetImage(r.Context(), s.Collection, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "id", id, "error", err)
		redirect(w, r, view, "err", "image")
		return
	}
	redirect(w, r, view, "ok", "edited")
}

// ItemImageGet handles GET /items/{id}/image.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	data, mime, err := s.Store.GetImage(r.Context(), s.Collection, id)
	if err != nil {
		slog.Error("failed to get image", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, view, kind, code string) {
	http.Redirect(w, r, "/?view="+view+"&"+kind+"="+code, http.StatusSeeOther)
}
