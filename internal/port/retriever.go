package port

import (
	"context"

	"kbase/internal/domain"
)

// Retriever turns a query into a ranked, deduplicated candidate set.
// An empty index yields an empty result, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}
