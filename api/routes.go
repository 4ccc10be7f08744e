package api

import (
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"new-launcher/config"
	"new-launcher/database"
)

// Namespace is the URL segment under the base URL owned by this server.
const Namespace = "jupyterlab-new-launcher"

// RegisterRoutes builds the router. Every document route sits behind the
// token check; only the health probe is public.
func RegisterRoutes(store *database.Store, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.LogRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	h := &handler{store: store, maxBodyBytes: cfg.MaxBodyBytes}

	apiURL := urlPathJoin(cfg.BaseURL, Namespace)
	r.Get(urlPathJoin(apiURL, "health"), h.health)

	r.Group(func(r chi.Router) {
		r.Use(requireToken(cfg.Auth))

		dbURL := urlPathJoin(apiURL, "database")
		for _, name := range database.Names() {
			docURL := urlPathJoin(dbURL, string(name))
			r.Get(docURL, h.getDocument(name))
			r.Post(docURL, h.postDocument(name))
			r.Get(urlPathJoin(docURL, "watch"), h.watchDocument(name))
		}
	})

	return r
}

// DocumentURL returns the route serving name under baseURL.
func DocumentURL(baseURL string, name database.Name) string {
	return urlPathJoin(config.NormalizeBaseURL(baseURL), Namespace, "database", string(name))
}

// urlPathJoin joins URL path segments with single slashes.
func urlPathJoin(parts ...string) string {
	return path.Join(append([]string{"/"}, parts...)...)
}

type handler struct {
	store        *database.Store
	maxBodyBytes int64
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
