package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lllllllleong/compliancedocs/internal/models"
)

const (
	contentTypeJSON = "application/json"
	contentTypePDF  = "application/pdf"
)

// writeJSON encodes payload as the response body. Headers are frozen once
// WriteHeader is called, so encoding failures can only be logged.
func writeJSON(w http.ResponseWriter, logCtx *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logCtx.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logCtx *slog.Logger, status int, errText, message string) {
	writeJSON(w, logCtx, status, models.ErrorResponse{Error: errText, Message: message})
}

func writeInternalError(w http.ResponseWriter, logCtx *slog.Logger) {
	writeError(w, logCtx, http.StatusInternalServerError, "Internal server error", "Failed to generate document")
}

func writePDFHeaders(w http.ResponseWriter, filename string, size int) {
	w.Header().Set("Content-Type", contentTypePDF)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}
	w.WriteHeader(http.StatusOK)
}

func writePDFBytes(w http.ResponseWriter, logCtx *slog.Logger, filename string, content []byte) {
	writePDFHeaders(w, filename, len(content))
	if _, err := w.Write(content); err != nil {
		logCtx.Error("Failed to write PDF to response", "error", err)
	}
}

func copyPDF(w http.ResponseWriter, logCtx *slog.Logger, filename string, r io.Reader) {
	writePDFHeaders(w, filename, -1)
	if _, err := io.Copy(w, r); err != nil {
		logCtx.Error("Failed to stream PDF to response", "error", err)
	}
}
