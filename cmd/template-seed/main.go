// Command template-seed writes a sample compliance template with guide
// marks at every placement.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/Lllllllleong/compliancedocs/internal/seed"
)

func main() {
	out := flag.String("out", "public/templates/compliance.pdf", "Output path for the template")
	pages := flag.Int("pages", filler.MinPages, "Number of pages to render")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*out, *pages); err != nil {
		slog.Error("Failed to write template", "out", *out, "error", err)
		os.Exit(1)
	}
	slog.Info("Template written.", "out", *out, "pages", *pages)
}

func run(out string, pages int) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}

	w := bufio.NewWriter(file)
	if err := seed.Template(w, pages, filler.ComplianceLayout); err != nil {
		_ = file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to flush %s: %w", out, err)
	}
	return file.Close()
}
