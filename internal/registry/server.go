// Package registry serves a read-only subset of the Docker/OCI
// Distribution v2 HTTP API against a single OCI image layout.
package registry

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zarf-dev/seed-injector/internal/layout"
)

// apiVersionHeader is sent on every 2xx response, per the Distribution
// v2 protocol.
const apiVersionHeader = "Docker-Distribution-Api-Version"

// NewServer builds the HTTP handler for the seed registry. Handlers
// close over l and take only read access to it, so they are safely
// concurrent with no locking.
func NewServer(l *layout.Layout) http.Handler {
	h := &handler{layout: l}

	r := chi.NewRouter()
	r.Get("/v2", h.probe)
	r.Get("/v2/", h.probe)
	r.Get("/v2/*", h.dispatch)
	r.Head("/v2/*", h.dispatch)
	r.NotFound(notFound)

	return r
}

type handler struct {
	layout *layout.Layout
}

// dispatch parses the "/manifests/<ref>" or "/blobs/<digest>" suffix of
// a /v2/* request and routes to the matching handler. Everything else
// under /v2/ is a 404.
func (h *handler) dispatch(w http.ResponseWriter, r *http.Request) {
	kind, name, ref, ok := parseV2Path(r.URL.Path)
	if !ok {
		notFound(w, r)
		return
	}

	switch kind {
	case kindManifest:
		h.getManifest(w, r, name, ref)
	case kindBlob:
		h.getBlob(w, r, ref)
	default:
		notFound(w, r)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("not found\n"))
}
