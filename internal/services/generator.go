package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/Lllllllleong/compliancedocs/internal/gcp"
	"github.com/Lllllllleong/compliancedocs/internal/models"
	"github.com/Lllllllleong/compliancedocs/internal/output"
	"github.com/Lllllllleong/compliancedocs/internal/templates"
	"golang.org/x/sync/errgroup"
)

// GeneratorConfig holds all configuration for the generate-document service.
type GeneratorConfig struct {
	ProjectID        string
	TemplateDir      string
	TemplateBucket   string
	TemplatePrefix   string
	DefaultTemplate  string
	OutputDir        string
	OutputBucket     string
	OutputPrefix     string
	DownloadBaseURL  string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
	SummaryPage      bool
}

// GenerationRecorder persists an audit record for each generated document.
type GenerationRecorder interface {
	RecordGeneration(ctx context.Context, doc *models.GeneratedDocument) error
	DeleteGeneration(ctx context.Context, documentID string) error
}

// Handoff starts downstream processing of a generated document.
type Handoff interface {
	Trigger(ctx context.Context, payload map[string]any) (string, error)
}

// GeneratorFunction holds the dependencies for the generation logic.
type GeneratorFunction struct {
	store    templates.Store
	filler   *filler.Filler
	sink     output.Sink
	recorder GenerationRecorder // nil when Firestore is not configured
	handoff  Handoff            // nil when no workflow is configured
	config   GeneratorConfig
}

// GenerationResult carries the response body and the filled bytes, for
// callers that stream the document directly.
type GenerationResult struct {
	Response *models.GenerateDocumentResponse
	Document *filler.FilledDocument
}

// loadGeneratorConfig loads and validates the environment for this service.
func loadGeneratorConfig() (*GeneratorConfig, error) {
	config := &GeneratorConfig{
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		TemplateDir:      gcp.GetEnv("TEMPLATE_DIR", "public/templates"),
		TemplateBucket:   gcp.GetEnv("TEMPLATE_BUCKET", ""),
		TemplatePrefix:   gcp.GetEnv("TEMPLATE_PREFIX", ""),
		DefaultTemplate:  gcp.GetEnv("DEFAULT_TEMPLATE", "compliance.pdf"),
		OutputDir:        gcp.GetEnv("OUTPUT_DIR", "public/uploads"),
		OutputBucket:     gcp.GetEnv("OUTPUT_BUCKET", ""),
		OutputPrefix:     gcp.GetEnv("OUTPUT_PREFIX", ""),
		DownloadBaseURL:  gcp.GetEnv("DOWNLOAD_BASE_URL", "/DownloadDocument"),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "generated_documents"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		SummaryPage:      gcp.GetEnvBool("SUMMARY_PAGE", false),
	}
	if !templates.ValidName(config.DefaultTemplate) {
		return nil, fmt.Errorf("DEFAULT_TEMPLATE %q must be a plain file name", config.DefaultTemplate)
	}
	if config.TemplateBucket == "" && config.TemplateDir == "" {
		return nil, fmt.Errorf("one of TEMPLATE_BUCKET or TEMPLATE_DIR must be set")
	}
	if config.OutputBucket == "" && config.OutputDir == "" {
		return nil, fmt.Errorf("one of OUTPUT_BUCKET or OUTPUT_DIR must be set")
	}
	if config.WorkflowID != "" && config.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set when WORKFLOW_ID is set")
	}
	return config, nil
}

// NewGenerator creates a new GeneratorFunction from the environment. Cloud
// clients are only created for the backends that are configured.
func NewGenerator(ctx context.Context) (*GeneratorFunction, error) {
	config, err := loadGeneratorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var storageClient *storage.Client
	if config.TemplateBucket != "" || config.OutputBucket != "" {
		storageClient, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
	}

	var store templates.Store = templates.NewDirStore(config.TemplateDir)
	if config.TemplateBucket != "" {
		store = templates.NewBucketStore(storageClient, config.TemplateBucket, config.TemplatePrefix)
	}

	var sink output.Sink = output.NewDirSink(config.OutputDir, config.DownloadBaseURL)
	if config.OutputBucket != "" {
		sink = output.NewBucketSink(storageClient, config.OutputBucket, config.OutputPrefix, config.DownloadBaseURL)
	}

	var recorder GenerationRecorder
	if config.ProjectID != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		recorder = gcp.NewFirestoreRecorder(firestoreClient, config.CollectionName, "")
	}

	var handoff Handoff
	if config.WorkflowID != "" {
		handoff, err = gcp.NewWorkflowTrigger(ctx, config.ProjectID, config.WorkflowLocation, config.WorkflowID)
		if err != nil {
			return nil, err
		}
	}

	f, err := newGeneratorFunction(*config, store, sink, recorder, handoff)
	if err != nil {
		return nil, err
	}
	slog.Info("Document generator initialized.",
		"templateBucket", config.TemplateBucket,
		"templateDir", config.TemplateDir,
		"outputBucket", config.OutputBucket,
		"outputDir", config.OutputDir,
		"recording", recorder != nil,
		"workflowId", config.WorkflowID,
		"summaryPage", config.SummaryPage,
	)
	return f, nil
}

func newGeneratorFunction(config GeneratorConfig, store templates.Store, sink output.Sink, recorder GenerationRecorder, handoff Handoff, opts ...filler.Option) (*GeneratorFunction, error) {
	if config.SummaryPage {
		opts = append([]filler.Option{filler.WithLayout(filler.SummaryAndComplianceLayout())}, opts...)
	}
	fl, err := filler.New(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create filler: %w", err)
	}
	return &GeneratorFunction{
		store:    store,
		filler:   fl,
		sink:     sink,
		recorder: recorder,
		handoff:  handoff,
		config:   config,
	}, nil
}

// Templates lists the names of the available templates.
func (f *GeneratorFunction) Templates(ctx context.Context) ([]string, error) {
	return f.store.List(ctx)
}

// Open returns the stored bytes of a previously generated document.
func (f *GeneratorFunction) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	return f.sink.Open(ctx, filename)
}

// Process validates req, fills the requested template and persists the result.
func (f *GeneratorFunction) Process(ctx context.Context, req *models.GenerateDocumentRequest) (*GenerationResult, error) {
	if missing := missingFields(req); len(missing) > 0 {
		return nil, &ValidationError{MissingFields: missing}
	}

	templateName := req.TemplateName
	if templateName == "" {
		templateName = f.config.DefaultTemplate
	}
	logCtx := slog.With("templateName", templateName)

	exists, err := f.store.Exists(ctx, templateName)
	if err != nil {
		logCtx.Error("Failed to check template existence", "error", err)
		return nil, &GenerationError{Err: err}
	}
	if !exists {
		return nil, f.notFound(ctx, logCtx, templateName)
	}

	values := filler.FieldValues{
		FullName: req.FullName,
		Address:  req.Address,
		Date:     req.Date,
		Price:    req.Price,
	}
	doc, err := f.filler.Fill(ctx, templateName, values)
	if errors.Is(err, filler.ErrTemplateNotFound) {
		// Removed between the existence check and the load.
		return nil, f.notFound(ctx, logCtx, templateName)
	}
	if err != nil {
		logCtx.Error("Failed to fill template", "error", err)
		return nil, &GenerationError{Err: err}
	}
	logCtx = logCtx.With("documentId", doc.ID())

	location := f.sink.Locate(doc.Filename)
	customerInfo := models.CustomerInfo{
		Address:  req.Address,
		Price:    req.Price,
		Date:     req.Date,
		FullName: req.FullName,
	}

	// Each flag is written by one goroutine and read after Wait.
	var saved, recorded bool
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := f.sink.Save(gctx, doc.Filename, doc.Content); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		saved = true
		return nil
	})
	if f.recorder != nil {
		eg.Go(func() error {
			record := &models.GeneratedDocument{
				DocumentID:   doc.ID(),
				Filename:     doc.Filename,
				TemplateName: templateName,
				Status:       models.StatusGenerated,
				PageCount:    doc.PageCount,
				CustomerInfo: customerInfo,
				FilePath:     location.Path,
				CreatedAt:    doc.GeneratedAt,
			}
			if err := f.recorder.RecordGeneration(gctx, record); err != nil {
				return fmt.Errorf("failed to record document: %w", err)
			}
			recorded = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("Failed to persist generated document", "error", err)
		f.rollback(ctx, logCtx, doc, saved, recorded)
		return nil, &GenerationError{Err: err}
	}
	logCtx.Info("Document generated.", "filePath", location.Path, "pageCount", doc.PageCount)

	if f.handoff != nil {
		f.triggerHandoff(ctx, logCtx, doc, location)
	}

	return &GenerationResult{
		Response: &models.GenerateDocumentResponse{
			Success: true,
			Message: "Document generated successfully",
			Data: models.GeneratedDocumentData{
				DocumentID:   doc.ID(),
				GeneratedAt:  doc.GeneratedAt.UTC().Format(time.RFC3339Nano),
				CustomerInfo: customerInfo,
				DocumentFile: models.DocumentFile{
					Filename:    location.Filename,
					DownloadURL: location.DownloadURL,
					FilePath:    location.Path,
				},
			},
		},
		Document: doc,
	}, nil
}

// rollback undoes the half of a failed persist that succeeded, so a failed
// request leaves neither a stored document nor a record behind. Cleanup
// failures are logged only.
func (f *GeneratorFunction) rollback(ctx context.Context, logCtx *slog.Logger, doc *filler.FilledDocument, saved, recorded bool) {
	ctx = context.WithoutCancel(ctx)
	if saved {
		if err := f.sink.Delete(ctx, doc.Filename); err != nil {
			logCtx.Error("Failed to delete orphaned document", "error", err)
		} else {
			logCtx.Warn("Deleted document after failed record.")
		}
	}
	if recorded {
		if err := f.recorder.DeleteGeneration(ctx, doc.ID()); err != nil {
			logCtx.Error("Failed to delete orphaned generation record", "error", err)
		} else {
			logCtx.Warn("Deleted generation record after failed save.")
		}
	}
}

// notFound builds the 404 error. A failing listing is logged and reported
// as an empty list.
func (f *GeneratorFunction) notFound(ctx context.Context, logCtx *slog.Logger, templateName string) error {
	available, err := f.store.List(ctx)
	if err != nil {
		logCtx.Error("Failed to list templates", "error", err)
		available = []string{}
	}
	logCtx.Warn("Template not found.", "availableTemplates", available)
	return &NotFoundError{Template: templateName, Available: available}
}

// triggerHandoff starts the configured workflow. The document is already
// stored, so a failure here does not fail the request.
func (f *GeneratorFunction) triggerHandoff(ctx context.Context, logCtx *slog.Logger, doc *filler.FilledDocument, location output.Location) {
	execution, err := f.handoff.Trigger(ctx, map[string]any{
		"documentId": doc.ID(),
		"filename":   doc.Filename,
		"location":   location.Path,
	})
	if err != nil {
		logCtx.Error("Failed to trigger workflow", "error", err)
		return
	}
	logCtx.Info("Workflow triggered.", "execution", execution)
}

func missingFields(req *models.GenerateDocumentRequest) []string {
	var missing []string
	if req.Address == "" {
		missing = append(missing, string(filler.FieldAddress))
	}
	return missing
}
