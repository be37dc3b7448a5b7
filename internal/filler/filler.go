// Package filler overlays submitted field values onto PDF templates at the
// fixed positions of a placement table.
package filler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Lllllllleong/compliancedocs/internal/templates"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Filler produces filled documents from templates in a store. It keeps no
// per-call state and is safe for concurrent use.
type Filler struct {
	store  templates.Store
	layout Layout
	now    func() time.Time
}

type Option func(*Filler)

// WithLayout replaces ComplianceLayout as the placement table.
func WithLayout(layout Layout) Option {
	return func(f *Filler) { f.layout = layout }
}

// WithClock sets the clock used for generated filenames.
func WithClock(now func() time.Time) Option {
	return func(f *Filler) { f.now = now }
}

func New(store templates.Store, opts ...Option) (*Filler, error) {
	if store == nil {
		return nil, fmt.Errorf("filler.New: store must not be nil")
	}
	f := &Filler{
		store:  store,
		layout: ComplianceLayout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	// Cloud Functions run on a read-only filesystem.
	disableConfigDir.Do(api.DisableConfigDir)
	return f, nil
}

// Layout returns the placement table the filler applies.
func (f *Filler) Layout() Layout {
	return f.layout
}

// Fill loads templateName, pads it to MinPages pages and stamps every
// non-empty value at its layout positions.
func (f *Filler) Fill(ctx context.Context, templateName string, values FieldValues) (*FilledDocument, error) {
	logCtx := slog.With("templateName", templateName)

	src, err := f.store.Read(ctx, templateName)
	if errors.Is(err, templates.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateName)
	}
	if err != nil {
		return nil, &LoadError{Template: templateName, Err: err}
	}

	// pdfcpu records the running command on its configuration, so every
	// fill gets its own.
	conf := newConfiguration()

	pageCount, err := api.PageCount(bytes.NewReader(src), conf)
	if err != nil {
		return nil, &LoadError{Template: templateName, Err: err}
	}
	if pageCount == 0 {
		return nil, &LoadError{Template: templateName, Err: errNoPages}
	}
	logCtx.Info("Template loaded.", "pageCount", pageCount, "bytes", len(src))

	content := src
	if pageCount < MinPages {
		content, err = padPages(content, pageCount, conf)
		if err != nil {
			return nil, &SerializationError{Template: templateName, Stage: "append blank pages", Err: err}
		}
		logCtx.Info("Appended blank pages.", "added", MinPages-pageCount)
		pageCount = MinPages
	}

	stamps := f.layout.Plan(values)
	if len(stamps) > 0 {
		content, err = applyStamps(content, stamps, conf)
		if err != nil {
			return nil, &SerializationError{Template: templateName, Stage: "stamp fields", Err: err}
		}
	}

	now := f.now()
	doc := &FilledDocument{
		Filename:    Filename(now),
		Content:     content,
		PageCount:   pageCount,
		GeneratedAt: now,
	}
	logCtx.Info("Template filled.", "filename", doc.Filename, "stamps", len(stamps), "bytes", len(content))
	return doc, nil
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// padPages appends blank pages after the last page until there are MinPages.
func padPages(content []byte, pageCount int, conf *model.Configuration) ([]byte, error) {
	for ; pageCount < MinPages; pageCount++ {
		var buf bytes.Buffer
		selected := []string{strconv.Itoa(pageCount)}
		if err := api.InsertPages(bytes.NewReader(content), &buf, selected, false, nil, conf); err != nil {
			return nil, fmt.Errorf("failed to insert page after page %d: %w", pageCount, err)
		}
		content = buf.Bytes()
	}
	return content, nil
}

// applyStamps draws every stamp onto content in one read-modify-write pass.
func applyStamps(content []byte, stamps []Stamp, conf *model.Configuration) ([]byte, error) {
	conf.Cmd = model.ADDWATERMARKS
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read padded document: %w", err)
	}
	if err := drawStamps(ctx, stamps); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write filled document: %w", err)
	}
	return buf.Bytes(), nil
}
