package filler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/Lllllllleong/compliancedocs/internal/seed"
	"github.com/Lllllllleong/compliancedocs/internal/templates"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var janeDoe = filler.FieldValues{
	FullName: "Jane Doe",
	Address:  "123 Main St",
	Date:     "2024-01-15",
	Price:    "5000",
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

// newStore writes one seeded template per entry of pages into a temp dir.
func newStore(t *testing.T, pages map[string]int) *templates.DirStore {
	t.Helper()
	dir := t.TempDir()
	for name, n := range pages {
		var buf bytes.Buffer
		require.NoError(t, seed.Template(&buf, n, filler.ComplianceLayout))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
	}
	return templates.NewDirStore(dir)
}

func pageCount(t *testing.T, content []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(content), nil)
	require.NoError(t, err)
	return n
}

// pageContent returns the decoded content streams of page in content.
func pageContent(t *testing.T, content []byte, page int) string {
	t.Helper()
	ctx, err := api.ReadAndValidate(bytes.NewReader(content), nil)
	require.NoError(t, err)
	pageDict, _, _, err := ctx.PageDict(page, false)
	require.NoError(t, err)
	bb, err := ctx.PageContent(pageDict)
	require.NoError(t, err)
	return string(bb)
}

// drawn is the text-positioning and show operator pair a stamp renders as.
func drawn(x, y float64, literal string) string {
	return fmt.Sprintf("%s %s Td\n%s Tj",
		strconv.FormatFloat(x, 'f', -1, 64), strconv.FormatFloat(y, 'f', -1, 64), literal)
}

func TestFillPadsShortTemplate(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 1})
	f, err := filler.New(store, filler.WithClock(fixedClock(1705312800000)))
	require.NoError(t, err)

	doc, err := f.Fill(context.Background(), "compliance.pdf", janeDoe)
	require.NoError(t, err)

	assert.Equal(t, "filled_document_1705312800000.pdf", doc.Filename)
	assert.Equal(t, "filled_document_1705312800000", doc.ID())
	assert.Equal(t, filler.MinPages, doc.PageCount)
	assert.Equal(t, filler.MinPages, pageCount(t, doc.Content))
	assert.NoError(t, api.Validate(bytes.NewReader(doc.Content), nil))
}

func TestFillDrawsJaneDoeExample(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 1})
	f, err := filler.New(store)
	require.NoError(t, err)

	doc, err := f.Fill(context.Background(), "compliance.pdf", janeDoe)
	require.NoError(t, err)

	assert.Contains(t, pageContent(t, doc.Content, 5), drawn(150, 350, "(Jane Doe)"))
	assert.Contains(t, pageContent(t, doc.Content, 2), drawn(195, 660, "(123 Main St)"))
	assert.Contains(t, pageContent(t, doc.Content, 4), drawn(195, 658.5, "(123 Main St)"))
}

func TestFillDrawsEveryRuleAtItsPosition(t *testing.T) {
	for _, pages := range []int{1, 5, 7} {
		t.Run(fmt.Sprintf("%d pages", pages), func(t *testing.T) {
			store := newStore(t, map[string]int{"compliance.pdf": pages})
			f, err := filler.New(store)
			require.NoError(t, err)

			doc, err := f.Fill(context.Background(), "compliance.pdf", janeDoe)
			require.NoError(t, err)

			for _, rule := range filler.ComplianceLayout {
				content := pageContent(t, doc.Content, rule.Page)
				assert.Contains(t, content, drawn(rule.X, rule.Y, "("+janeDoe.Value(rule.Field)+")"), "%s on page %d", rule.Field, rule.Page)
				assert.Contains(t, content, "/FStamp0 14 Tf\n0 0 0 rg\n")
			}
			// Rules never address the first page.
			assert.NotContains(t, pageContent(t, doc.Content, 1), "Tj\nET")
		})
	}
}

func TestFillOmitsAbsentFields(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 5})
	f, err := filler.New(store)
	require.NoError(t, err)

	values := filler.FieldValues{Address: "123 Main St", Date: "2024-01-15"}
	doc, err := f.Fill(context.Background(), "compliance.pdf", values)
	require.NoError(t, err)

	page3 := pageContent(t, doc.Content, 3)
	assert.NotContains(t, page3, "140 305 Td")
	assert.Contains(t, page3, drawn(400, 155, "(2024-01-15)"))

	page5 := pageContent(t, doc.Content, 5)
	assert.NotContains(t, page5, "150 350 Td")
	assert.Contains(t, page5, drawn(120, 280, "(2024-01-15)"))

	assert.Contains(t, pageContent(t, doc.Content, 2), drawn(195, 660, "(123 Main St)"))
}

func TestFillDrawsValuesVerbatim(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 1})
	f, err := filler.New(store)
	require.NoError(t, err)

	values := filler.FieldValues{
		FullName: "a\nb",
		Address:  "100% (net) \\ Zoë",
		Date:     "%t %v",
		Price:    "50%p",
	}
	doc, err := f.Fill(context.Background(), "compliance.pdf", values)
	require.NoError(t, err)

	assert.Contains(t, pageContent(t, doc.Content, 3), drawn(140, 305, "(50%p)"))
	assert.Contains(t, pageContent(t, doc.Content, 3), drawn(400, 155, "(%t %v)"))
	assert.Contains(t, pageContent(t, doc.Content, 2), drawn(195, 660, `(100% \(net\) \\ Zo\353)`))
	assert.Contains(t, pageContent(t, doc.Content, 5), drawn(150, 350, `(a\012b)`))
	assert.NoError(t, api.Validate(bytes.NewReader(doc.Content), nil))
}

func TestFillLeavesLongTemplatePageCount(t *testing.T) {
	store := newStore(t, map[string]int{"long.pdf": 7})
	f, err := filler.New(store)
	require.NoError(t, err)

	doc, err := f.Fill(context.Background(), "long.pdf", janeDoe)
	require.NoError(t, err)
	assert.Equal(t, 7, doc.PageCount)
	assert.Equal(t, 7, pageCount(t, doc.Content))
}

func TestFillWithoutValuesStillPads(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 2})
	f, err := filler.New(store)
	require.NoError(t, err)

	doc, err := f.Fill(context.Background(), "compliance.pdf", filler.FieldValues{})
	require.NoError(t, err)
	assert.Equal(t, filler.MinPages, pageCount(t, doc.Content))
}

func TestFillWithSummaryLayout(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 5})
	f, err := filler.New(store, filler.WithLayout(filler.SummaryAndComplianceLayout()))
	require.NoError(t, err)

	doc, err := f.Fill(context.Background(), "compliance.pdf", janeDoe)
	require.NoError(t, err)
	assert.Equal(t, filler.MinPages, pageCount(t, doc.Content))

	// Letter pages are 792pt tall.
	page1 := pageContent(t, doc.Content, 1)
	assert.Contains(t, page1, drawn(50, 692, "(Full Name: Jane Doe)"))
	assert.Contains(t, page1, drawn(50, 572, "(Price: $5000)"))
	assert.Contains(t, pageContent(t, doc.Content, 5), drawn(150, 350, "(Jane Doe)"))
}

func TestFillTemplateNotFound(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 5})
	f, err := filler.New(store)
	require.NoError(t, err)

	_, err = f.Fill(context.Background(), "missing.pdf", janeDoe)
	assert.True(t, errors.Is(err, filler.ErrTemplateNotFound))

	_, err = f.Fill(context.Background(), "../compliance.pdf", janeDoe)
	assert.True(t, errors.Is(err, filler.ErrTemplateNotFound))
}

func TestFillInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("this is not a pdf"), 0o644))
	f, err := filler.New(templates.NewDirStore(dir))
	require.NoError(t, err)

	_, err = f.Fill(context.Background(), "broken.pdf", janeDoe)
	var loadErr *filler.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "broken.pdf", loadErr.Template)
}

func TestFillIsRepeatable(t *testing.T) {
	store := newStore(t, map[string]int{"compliance.pdf": 1})
	first, err := filler.New(store, filler.WithClock(fixedClock(1000)))
	require.NoError(t, err)
	second, err := filler.New(store, filler.WithClock(fixedClock(2000)))
	require.NoError(t, err)

	a, err := first.Fill(context.Background(), "compliance.pdf", janeDoe)
	require.NoError(t, err)
	b, err := second.Fill(context.Background(), "compliance.pdf", janeDoe)
	require.NoError(t, err)

	assert.NotEqual(t, a.Filename, b.Filename)
	assert.Equal(t, a.PageCount, b.PageCount)
	assert.Equal(t, first.Layout().Plan(janeDoe), second.Layout().Plan(janeDoe))
}

func TestNewRejectsInvalidLayout(t *testing.T) {
	store := templates.NewDirStore(t.TempDir())
	bad := filler.Layout{{Field: filler.FieldDate, Page: 9, FontSize: 14, Anchor: filler.AnchorBottomLeft, Format: "%s"}}

	_, err := filler.New(store, filler.WithLayout(bad))
	assert.Error(t, err)

	_, err = filler.New(nil)
	assert.Error(t, err)
}
