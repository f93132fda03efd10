// Package web serves the inventory pages. Access is anonymous and shared,
// so there is no login flow: every visitor sees and edits the same
// collection. Live updates come from the API's snapshot stream, driven by a
// small script that reloads the page when a snapshot arrives.
package web

import (
	"net/http"

	"github.com/danzastock/danzastock/internal/docstore"
	webembed "github.com/danzastock/danzastock/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(store *docstore.Store, collection string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Store:      store,
		Collection: collection,
		Templates:  templates,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", s.InventoryPage)
	mux.HandleFunc("POST /items", s.ItemSubmit)
	mux.HandleFunc("POST /items/{id}/delete", s.ItemDelete)
	mux.HandleFunc("POST /items/{id}/image", s.ItemImageSubmit)
	mux.HandleFunc("GET /items/{id}/image", s.ItemImageGet)

	return mux, nil
}
