package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/Lllllllleong/compliancedocs/internal/models"
	"github.com/Lllllllleong/compliancedocs/internal/services"
)

const maxRequestBytes = 1 << 20

// GenerateDocument fills a template from the JSON body. Clients that accept
// application/pdf receive the document itself instead of its metadata.
func (h *Handlers) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	logCtx, ok := h.begin(w, r, http.MethodPost)
	if !ok {
		return
	}

	var req models.GenerateDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logCtx.Warn("Could not decode request body", "error", err)
		writeError(w, logCtx, http.StatusBadRequest, "Bad request", "could not parse JSON")
		return
	}

	result, err := h.gen.Process(r.Context(), &req)

	var validationErr *services.ValidationError
	var notFoundErr *services.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, logCtx, http.StatusBadRequest, models.ValidationErrorResponse{
			Error:         "Missing required fields",
			MissingFields: validationErr.MissingFields,
			Message:       "Please provide all required fields: " + strings.Join(validationErr.MissingFields, ", "),
		})
		return
	case errors.As(err, &notFoundErr):
		available := notFoundErr.Available
		if available == nil {
			available = []string{}
		}
		writeJSON(w, logCtx, http.StatusNotFound, models.TemplateNotFoundResponse{
			Error:              "Template not found",
			Message:            fmt.Sprintf("Template '%s' not found in templates folder", notFoundErr.Template),
			AvailableTemplates: available,
		})
		return
	case err != nil:
		logCtx.Error("Document generation failed", "error", err)
		writeInternalError(w, logCtx)
		return
	}

	if acceptsPDF(r) {
		writePDFBytes(w, logCtx, result.Document.Filename, result.Document.Content)
		return
	}
	writeJSON(w, logCtx, http.StatusOK, result.Response)
}

func acceptsPDF(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == contentTypePDF {
			return true
		}
	}
	return false
}
