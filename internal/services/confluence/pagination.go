package confluence

import (
	"context"

	confluenceclient "github.com/teabranch/confluence-cli/internal/clients/confluence"
)

// pageFetcher returns the page of a collection that begins at offset start.
type pageFetcher[T any] func(ctx context.Context, start int) (*confluenceclient.Page[T], error)

// each calls fn for every item of a paged collection, advancing start by the size of each page
// until a short page or one without a next link. A non-nil error from fn stops the walk and is
// returned as is.
func each[T any](ctx context.Context, fetch pageFetcher[T], fn func(T) error) error {
	start := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := fetch(ctx, start)
		if err != nil {
			return err
		}
		for _, item := range page.Results {
			if err := fn(item); err != nil {
				return err
			}
		}
		if len(page.Results) == 0 || !page.HasNext() {
			return nil
		}
		start += len(page.Results)
	}
}

// collect gathers every item of a paged collection. An empty collection yields an empty,
// non-nil slice.
func collect[T any](ctx context.Context, fetch pageFetcher[T]) ([]T, error) {
	out := []T{}
	err := each(ctx, fetch, func(item T) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
