package core

import (
	"context"

	"github.com/wordpan/wordpan/internal/domain"
)

// WordSource serves vocabulary rows for a target language.
// The table is read-only from this system's perspective.
type WordSource interface {
	WordPairs(ctx context.Context, lang domain.Language, limit int) ([]domain.WordPair, error)
	// Available reports whether a backing store is configured; when false
	// callers get the built-in fallback lists.
	Available() bool
}
