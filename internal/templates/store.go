// Package templates provides read access to the PDF templates documents are
// filled from. A store is flat: names never contain directories.
package templates

import (
	"context"
	"errors"
	"strings"
)

// Extension is the suffix every listed template carries.
const Extension = ".pdf"

// ErrNotFound is returned by Read when no template has the given name.
var ErrNotFound = errors.New("template not found")

// Store is the read-only collaborator the filler loads templates from.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// ValidName reports whether name can address a template in a flat store.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
