// Package output persists generated documents and reopens them for download.
package output

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

const contentTypePDF = "application/pdf"

var (
	// ErrExists is returned by Save when a document with the same filename is
	// already stored. Stored documents are never overwritten.
	ErrExists = errors.New("document already exists")
	// ErrNotFound is returned by Open for unknown filenames.
	ErrNotFound = errors.New("document not found")
)

// Location describes where a saved document lives.
type Location struct {
	Filename    string
	Path        string
	DownloadURL string
}

// Sink stores generated documents.
type Sink interface {
	Locate(filename string) Location
	Save(ctx context.Context, filename string, content []byte) error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	// Delete removes a stored document. Deleting a missing document is not
	// an error.
	Delete(ctx context.Context, filename string) error
}

// downloadURL appends the filename query parameter to base.
func downloadURL(base, filename string) string {
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + url.Values{"filename": {filename}}.Encode()
}

func validFilename(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
