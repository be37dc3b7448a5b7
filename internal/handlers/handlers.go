// Package handlers maps the document HTTP functions onto the generator.
package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lllllllleong/compliancedocs/internal/models"
	"github.com/Lllllllleong/compliancedocs/internal/services"
	"github.com/google/uuid"
)

// Generator is the subset of services.GeneratorFunction the handlers use.
type Generator interface {
	Process(ctx context.Context, req *models.GenerateDocumentRequest) (*services.GenerationResult, error)
	Templates(ctx context.Context) ([]string, error)
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
}

// Handlers serves the generate, download and list functions.
type Handlers struct {
	gen           Generator
	allowedOrigin string
}

// New returns handlers backed by gen. An empty allowedOrigin disables CORS
// headers.
func New(gen Generator, allowedOrigin string) *Handlers {
	return &Handlers{gen: gen, allowedOrigin: allowedOrigin}
}

// begin tags the request with an id and answers CORS preflights and
// disallowed methods. It reports whether the caller should continue.
func (h *Handlers) begin(w http.ResponseWriter, r *http.Request, method string) (*slog.Logger, bool) {
	requestID := uuid.NewString()
	logCtx := slog.With("requestId", requestID, "method", r.Method, "path", r.URL.Path)
	w.Header().Set("X-Request-Id", requestID)

	if h.allowedOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{method, http.MethodOptions}, ", "))
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id")
	}

	switch r.Method {
	case method:
		return logCtx, true
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return logCtx, false
	default:
		w.Header().Set("Allow", strings.Join([]string{method, http.MethodOptions}, ", "))
		writeError(w, logCtx, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not supported")
		return logCtx, false
	}
}

// ListTemplates returns the names of the available templates.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	logCtx, ok := h.begin(w, r, http.MethodGet)
	if !ok {
		return
	}

	names, err := h.gen.Templates(r.Context())
	if err != nil {
		logCtx.Error("Failed to list templates", "error", err)
		writeError(w, logCtx, http.StatusInternalServerError, "Internal server error", "Failed to list templates")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, logCtx, http.StatusOK, models.TemplateListResponse{Templates: names})
}
