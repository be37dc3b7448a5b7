package handlers

import (
	"errors"
	"net/http"

	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/Lllllllleong/compliancedocs/internal/output"
)

// DownloadDocument streams a previously generated document named by the
// filename query parameter.
func (h *Handlers) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	logCtx, ok := h.begin(w, r, http.MethodGet)
	if !ok {
		return
	}

	filename := r.URL.Query().Get("filename")
	if !filler.IsGeneratedFilename(filename) {
		writeError(w, logCtx, http.StatusBadRequest, "Bad request", "filename must name a generated document")
		return
	}
	logCtx = logCtx.With("filename", filename)

	rc, err := h.gen.Open(r.Context(), filename)
	if errors.Is(err, output.ErrNotFound) {
		writeError(w, logCtx, http.StatusNotFound, "Document not found", "Failed to download document")
		return
	}
	if err != nil {
		logCtx.Error("Failed to open document", "error", err)
		writeError(w, logCtx, http.StatusInternalServerError, "Internal server error", "Failed to download document")
		return
	}
	defer rc.Close()

	copyPDF(w, logCtx, filename, rc)
	logCtx.Info("Document downloaded.")
}
