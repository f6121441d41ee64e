package photos

import "context"

// Searcher returns up to n image URLs for a keyword query.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]string, error)
}
