package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/compliancedocs/internal/gcp"
	"github.com/Lllllllleong/compliancedocs/internal/handlers"
	"github.com/Lllllllleong/compliancedocs/internal/services"
	"github.com/joho/godotenv"
)

var (
	handlersInstance *handlers.Handlers
	once             sync.Once
	initErr          error
)

func init() {
	// A .env file is only present for local runs.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: gcp.LogLevel()}))
	slog.SetDefault(logger)

	functions.HTTP("GenerateDocument", withHandlers(func(h *handlers.Handlers) http.HandlerFunc { return h.GenerateDocument }))
	functions.HTTP("DownloadDocument", withHandlers(func(h *handlers.Handlers) http.HandlerFunc { return h.DownloadDocument }))
	functions.HTTP("ListTemplates", withHandlers(func(h *handlers.Handlers) http.HandlerFunc { return h.ListTemplates }))
}

// main starts the functions framework for local runs. Deployed functions are
// served through the registrations in init.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	slog.Info("Starting functions framework.", "port", port)
	if err := funcframework.Start(port); err != nil {
		slog.Error("Functions framework stopped", "error", err)
		os.Exit(1)
	}
}

// withHandlers initializes the shared generator on first use and routes the
// request to the handler selected by pick.
func withHandlers(pick func(*handlers.Handlers) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			gen, err := services.NewGenerator(context.Background())
			if err != nil {
				initErr = err
				return
			}
			handlersInstance = handlers.New(gen, gcp.GetEnv("ALLOWED_ORIGIN", ""))
		})
		if initErr != nil {
			slog.Error("Critical error during function initialization", "error", initErr)
			http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
			return
		}
		pick(handlersInstance)(w, r)
	}
}
