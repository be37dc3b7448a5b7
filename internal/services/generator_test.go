package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/Lllllllleong/compliancedocs/internal/models"
	"github.com/Lllllllleong/compliancedocs/internal/output"
	"github.com/Lllllllleong/compliancedocs/internal/seed"
	"github.com/Lllllllleong/compliancedocs/internal/templates"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecorder is a mock implementation of the GenerationRecorder interface
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordGeneration(ctx context.Context, doc *models.GeneratedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRecorder) DeleteGeneration(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

// MockHandoff is a mock implementation of the Handoff interface
type MockHandoff struct {
	mock.Mock
}

func (m *MockHandoff) Trigger(ctx context.Context, payload map[string]any) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Exists(context.Context, string) (bool, error) { return false, errors.New("disk on fire") }
func (failingStore) List(context.Context) ([]string, error)       { return nil, errors.New("disk on fire") }
func (failingStore) Read(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }

const generatedAtMillis = 1705312800000

var testConfig = GeneratorConfig{
	DefaultTemplate: "compliance.pdf",
	DownloadBaseURL: "/DownloadDocument",
}

func writeTemplates(t *testing.T, pages map[string]int) string {
	t.Helper()
	dir := t.TempDir()
	for name, n := range pages {
		var buf bytes.Buffer
		require.NoError(t, seed.Template(&buf, n, filler.ComplianceLayout))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
	}
	return dir
}

func newTestGenerator(t *testing.T, config GeneratorConfig, recorder GenerationRecorder, handoff Handoff) (*GeneratorFunction, string) {
	t.Helper()
	store := templates.NewDirStore(writeTemplates(t, map[string]int{"compliance.pdf": 1, "addendum.pdf": 6}))
	outDir := t.TempDir()
	sink := output.NewDirSink(outDir, config.DownloadBaseURL)
	clock := filler.WithClock(func() time.Time { return time.UnixMilli(generatedAtMillis) })

	f, err := newGeneratorFunction(config, store, sink, recorder, handoff, clock)
	require.NoError(t, err)
	return f, outDir
}

func janeDoeRequest() *models.GenerateDocumentRequest {
	return &models.GenerateDocumentRequest{
		Address:  "123 Main St",
		Price:    "5000",
		Date:     "2024-01-15",
		FullName: "Jane Doe",
	}
}

func TestProcessMissingAddress(t *testing.T) {
	f, _ := newTestGenerator(t, testConfig, nil, nil)

	req := janeDoeRequest()
	req.Address = ""
	_, err := f.Process(context.Background(), req)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"address"}, validationErr.MissingFields)
}

func TestProcessUnknownTemplate(t *testing.T) {
	f, _ := newTestGenerator(t, testConfig, nil, nil)

	req := janeDoeRequest()
	req.TemplateName = "missing.pdf"
	_, err := f.Process(context.Background(), req)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing.pdf", notFound.Template)

	listing, err := f.Templates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, listing, notFound.Available)
	assert.Equal(t, []string{"addendum.pdf", "compliance.pdf"}, notFound.Available)
}

func TestProcessSuccess(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("RecordGeneration", mock.Anything, mock.AnythingOfType("*models.GeneratedDocument")).Return(nil)

	f, outDir := newTestGenerator(t, testConfig, recorder, nil)
	result, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)

	resp := result.Response
	assert.True(t, resp.Success)
	assert.Equal(t, "filled_document_1705312800000", resp.Data.DocumentID)
	assert.Equal(t, "2024-01-15T10:00:00Z", resp.Data.GeneratedAt)
	assert.Equal(t, models.CustomerInfo{Address: "123 Main St", Price: "5000", Date: "2024-01-15", FullName: "Jane Doe"}, resp.Data.CustomerInfo)
	assert.Equal(t, "filled_document_1705312800000.pdf", resp.Data.DocumentFile.Filename)
	assert.Equal(t, "/DownloadDocument?filename=filled_document_1705312800000.pdf", resp.Data.DocumentFile.DownloadURL)
	assert.Equal(t, filepath.Join(outDir, "filled_document_1705312800000.pdf"), resp.Data.DocumentFile.FilePath)

	stored, err := os.ReadFile(resp.Data.DocumentFile.FilePath)
	require.NoError(t, err)
	assert.Equal(t, result.Document.Content, stored)

	n, err := api.PageCount(bytes.NewReader(stored), nil)
	require.NoError(t, err)
	assert.Equal(t, filler.MinPages, n)

	recorder.AssertExpectations(t)
	record := recorder.Calls[0].Arguments.Get(1).(*models.GeneratedDocument)
	assert.Equal(t, "compliance.pdf", record.TemplateName)
	assert.Equal(t, models.StatusGenerated, record.Status)
	assert.Equal(t, filler.MinPages, record.PageCount)
	assert.Equal(t, "Jane Doe", record.CustomerInfo.FullName)
}

func TestProcessExplicitTemplate(t *testing.T) {
	f, _ := newTestGenerator(t, testConfig, nil, nil)

	req := janeDoeRequest()
	req.TemplateName = "addendum.pdf"
	result, err := f.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Document.PageCount)
}

func TestProcessOptionalFieldsMayBeEmpty(t *testing.T) {
	f, _ := newTestGenerator(t, testConfig, nil, nil)

	result, err := f.Process(context.Background(), &models.GenerateDocumentRequest{Address: "1 Elm St"})
	require.NoError(t, err)
	assert.Equal(t, models.CustomerInfo{Address: "1 Elm St"}, result.Response.Data.CustomerInfo)
}

func TestProcessRecorderFailure(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("RecordGeneration", mock.Anything, mock.Anything).Return(errors.New("firestore unavailable"))

	f, outDir := newTestGenerator(t, testConfig, recorder, nil)
	_, err := f.Process(context.Background(), janeDoeRequest())

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Contains(t, genErr.Error(), "firestore unavailable")

	// The saved document is removed so the failed request leaves nothing behind.
	assert.NoFileExists(t, filepath.Join(outDir, "filled_document_1705312800000.pdf"))
	_, err = f.Open(context.Background(), "filled_document_1705312800000.pdf")
	assert.ErrorIs(t, err, output.ErrNotFound)
	recorder.AssertNotCalled(t, "DeleteGeneration", mock.Anything, mock.Anything)
}

func TestProcessSaveFailureRemovesRecord(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("RecordGeneration", mock.Anything, mock.Anything).Return(nil)
	recorder.On("DeleteGeneration", mock.Anything, "filled_document_1705312800000").Return(nil)

	f, outDir := newTestGenerator(t, testConfig, recorder, nil)
	first, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)
	recorder.AssertNotCalled(t, "DeleteGeneration", mock.Anything, mock.Anything)

	// Same clock: the second save collides and its record is rolled back.
	_, err = f.Process(context.Background(), janeDoeRequest())
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	recorder.AssertCalled(t, "DeleteGeneration", mock.Anything, "filled_document_1705312800000")

	// The earlier document is untouched.
	stored, err := os.ReadFile(filepath.Join(outDir, "filled_document_1705312800000.pdf"))
	require.NoError(t, err)
	assert.Equal(t, first.Document.Content, stored)
}

func TestProcessFilenameCollision(t *testing.T) {
	f, _ := newTestGenerator(t, testConfig, nil, nil)

	_, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)

	// Same clock, same millisecond: the stored document must not be replaced.
	_, err = f.Process(context.Background(), janeDoeRequest())
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.True(t, errors.Is(err, output.ErrExists))
}

func TestProcessStoreFailure(t *testing.T) {
	f, err := newGeneratorFunction(testConfig, failingStore{}, output.NewDirSink(t.TempDir(), ""), nil, nil)
	require.NoError(t, err)

	_, err = f.Process(context.Background(), janeDoeRequest())
	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestProcessTriggersHandoff(t *testing.T) {
	handoff := new(MockHandoff)
	handoff.On("Trigger", mock.Anything, mock.MatchedBy(func(p map[string]any) bool {
		return p["documentId"] == "filled_document_1705312800000" && p["filename"] == "filled_document_1705312800000.pdf"
	})).Return("executions/abc", nil)

	f, _ := newTestGenerator(t, testConfig, nil, handoff)
	_, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)
	handoff.AssertExpectations(t)
}

func TestProcessHandoffFailureIsNotFatal(t *testing.T) {
	handoff := new(MockHandoff)
	handoff.On("Trigger", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	f, _ := newTestGenerator(t, testConfig, nil, handoff)
	result, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)
	assert.True(t, result.Response.Success)
}

func TestProcessSummaryPage(t *testing.T) {
	config := testConfig
	config.SummaryPage = true
	f, _ := newTestGenerator(t, config, nil, nil)

	assert.Len(t, f.filler.Layout(), len(filler.SummaryLayout)+len(filler.ComplianceLayout))
	_, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)
}

func TestOpenGeneratedDocument(t *testing.T) {
	f, _ := newTestGenerator(t, testConfig, nil, nil)
	result, err := f.Process(context.Background(), janeDoeRequest())
	require.NoError(t, err)

	rc, err := f.Open(context.Background(), result.Document.Filename)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, result.Document.Content, content)
}

func TestLoadGeneratorConfig(t *testing.T) {
	t.Setenv("DEFAULT_TEMPLATE", "compliance.pdf")
	t.Setenv("TEMPLATE_DIR", "templates")
	t.Setenv("OUTPUT_DIR", "uploads")
	t.Setenv("SUMMARY_PAGE", "true")
	t.Setenv("WORKFLOW_ID", "")

	config, err := loadGeneratorConfig()
	require.NoError(t, err)
	assert.Equal(t, "templates", config.TemplateDir)
	assert.Equal(t, "uploads", config.OutputDir)
	assert.True(t, config.SummaryPage)

	t.Setenv("DEFAULT_TEMPLATE", "../compliance.pdf")
	_, err = loadGeneratorConfig()
	assert.Error(t, err)

	t.Setenv("DEFAULT_TEMPLATE", "compliance.pdf")
	t.Setenv("WORKFLOW_ID", "deliver-document")
	t.Setenv("PROJECT_ID", "")
	_, err = loadGeneratorConfig()
	assert.Error(t, err)
}
