package handlers

import (
	"net/http"

	"github.com/mybaseweek/weekstats/internal/manifest"
)

type ManifestHandler struct {
	doc      manifest.Manifest
	disabled bool
}

// NewManifestHandler serves doc, or 404 when disabled so share-only
// deployments are not treated as a mini app.
func NewManifestHandler(doc manifest.Manifest, disabled bool) *ManifestHandler {
	return &ManifestHandler{doc: doc, disabled: disabled}
}

func (h *ManifestHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.disabled {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not found"))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, h.doc)
}
