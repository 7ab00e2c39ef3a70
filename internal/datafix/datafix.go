// Package datafix converts stats documents between data versions.
package datafix

import (
	"github.com/hellominers/statsupdater/internal/statsfile"
)

// Data versions understood by the built-in transformer.
const (
	// LegacyDataVersion is the flat "stat.<kind>.<id>" layout.
	LegacyDataVersion = 100
	// FlatteningDataVersion introduced the nested stats object.
	FlatteningDataVersion = 1451
)

// Transformer rewrites a document written at version from into the layout of
// version to. Implementations must not mutate doc and must not set the
// version marker; the caller stamps it.
type Transformer interface {
	Transform(doc statsfile.Document, from, to int) (statsfile.Document, error)
}

// TransformFunc adapts a plain function to Transformer.
type TransformFunc func(doc statsfile.Document, from, to int) (statsfile.Document, error)

// Transform calls f.
func (f TransformFunc) Transform(doc statsfile.Document, from, to int) (statsfile.Document, error) {
	return f(doc, from, to)
}
