package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/Lllllllleong/compliancedocs/internal/gcp"
	"github.com/Lllllllleong/compliancedocs/internal/models"
	"github.com/Lllllllleong/compliancedocs/internal/templates"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TemplateValidatorConfig holds configuration for the template validator.
type TemplateValidatorConfig struct {
	ProjectID      string
	CollectionName string
	// TemplatePrefix is the folder templates are served from. Objects
	// outside it, or in folders below it, are not templates.
	TemplatePrefix string
}

// TemplateCheckRecorder persists template validation outcomes.
type TemplateCheckRecorder interface {
	RecordTemplateCheck(ctx context.Context, check *models.TemplateCheck) error
}

// TemplateValidatorFunction checks templates as they are uploaded.
type TemplateValidatorFunction struct {
	fetch    func(ctx context.Context, bucket, object string) ([]byte, error)
	recorder TemplateCheckRecorder
	now      func() time.Time
	config   TemplateValidatorConfig
}

// GCSEvent is the payload of a GCS object event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewTemplateValidator(ctx context.Context) (*TemplateValidatorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	config := TemplateValidatorConfig{
		ProjectID:      projectID,
		CollectionName: gcp.GetEnv("TEMPLATE_COLLECTION", "templates"),
		TemplatePrefix: gcp.GetEnv("TEMPLATE_PREFIX", ""),
	}
	if config.TemplatePrefix != "" && !strings.HasSuffix(config.TemplatePrefix, "/") {
		config.TemplatePrefix += "/"
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	// Cloud Functions run on a read-only filesystem.
	api.DisableConfigDir()

	f := &TemplateValidatorFunction{
		fetch:    gcsFetcher(storageClient),
		recorder: gcp.NewFirestoreRecorder(firestoreClient, "", config.CollectionName),
		now:      time.Now,
		config:   config,
	}
	slog.Info("Template validator initialized.", "collection", config.CollectionName, "prefix", config.TemplatePrefix)
	return f, nil
}

func gcsFetcher(client *storage.Client) func(ctx context.Context, bucket, object string) ([]byte, error) {
	return func(ctx context.Context, bucket, object string) ([]byte, error) {
		reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
		}
		defer reader.Close()
		content, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
		}
		return content, nil
	}
}

// Process validates the uploaded object and records the outcome. An invalid
// template is recorded, not returned as an error, so the event is not retried.
func (f *TemplateValidatorFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	name, ok := strings.CutPrefix(e.Name, f.config.TemplatePrefix)
	if !ok || !templates.ValidName(name) || !strings.HasSuffix(name, templates.Extension) {
		logCtx.Info("Object is not a template. Skipping.", "prefix", f.config.TemplatePrefix)
		return nil
	}

	content, err := f.fetch(ctx, e.Bucket, e.Name)
	if errors.Is(err, storage.ErrObjectNotExist) {
		logCtx.Warn("Object was removed before it could be validated. Skipping.")
		return nil
	}
	if err != nil {
		logCtx.Error("Failed to download template", "error", err)
		return err
	}

	check := &models.TemplateCheck{
		TemplateName: name,
		Bucket:       e.Bucket,
		FileHash:     calculateHash(content),
		CheckedAt:    f.now(),
	}
	logCtx = logCtx.With("fileHash", check.FileHash)

	pageCount, err := checkTemplate(content)
	if err != nil {
		check.Status = models.StatusInvalid
		check.ErrorDetails = err.Error()
		logCtx.Warn("Template is not a usable PDF.", "error", err)
	} else {
		check.Status = models.StatusValid
		check.PageCount = pageCount
		check.NeedsPadding = pageCount < filler.MinPages
		if check.NeedsPadding {
			logCtx.Warn("Template is short and will be padded with blank pages.", "pageCount", pageCount, "minPages", filler.MinPages)
		}
	}

	if err := f.recorder.RecordTemplateCheck(ctx, check); err != nil {
		logCtx.Error("Failed to record template check", "error", err)
		return err
	}
	logCtx.Info("Template checked.", "status", check.Status, "pageCount", check.PageCount)
	return nil
}

// checkTemplate validates content and returns its page count.
func checkTemplate(content []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(content), conf); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	pageCount, err := api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if pageCount == 0 {
		return 0, fmt.Errorf("template has no pages")
	}
	return pageCount, nil
}

func calculateHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
