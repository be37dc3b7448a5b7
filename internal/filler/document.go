package filler

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const filenamePrefix = "filled_document_"

var filenamePattern = regexp.MustCompile(`^filled_document_[0-9]+\.pdf$`)

// FilledDocument is the transient result of one fill.
type FilledDocument struct {
	Filename    string
	Content     []byte
	PageCount   int
	GeneratedAt time.Time
}

// ID is the filename without its extension.
func (d *FilledDocument) ID() string {
	return strings.TrimSuffix(d.Filename, ".pdf")
}

// Filename names a document generated at t. Names are unique only down to
// the millisecond.
func Filename(t time.Time) string {
	return fmt.Sprintf("%s%d.pdf", filenamePrefix, t.UnixMilli())
}

// IsGeneratedFilename reports whether name has the shape produced by Filename.
func IsGeneratedFilename(name string) bool {
	return filenamePattern.MatchString(name)
}
