package milesight

import (
	"context"
	"iter"
)

// pageFunc fetches a single page of items T.
type pageFunc[T any] func(context.Context, PageParams) (Page[T], error)

// advance returns the parameters of the page after page, or false if page
// ended the collection: an empty page, or one shorter than the limit.
func advance[T any](params PageParams, page Page[T]) (PageParams, bool) {
	if len(page.Items) == 0 || params.Limit <= 0 || len(page.Items) < params.Limit {
		return params, false
	}

	params.Offset += params.Limit
	return params, true
}

// collect fetches pages of size limit from offset 0 until the collection is
// exhausted. It returns the items in server order and the last total the
// server reported.
//
// An error aborts the walk: the items gathered so far are returned together
// with a zero total and the error.
func collect[T any](ctx context.Context, limit int, fetch pageFunc[T]) ([]T, int, error) {
	params := PageParams{Offset: 0, Limit: limit}
	items := make([]T, 0)

	for {
		page, err := fetch(ctx, params)
		if err != nil {
			return items, 0, err
		}

		items = append(items, page.Items...)

		var more bool
		if params, more = advance(params, page); !more {
			return items, page.TotalCount, nil
		}
	}
}

// iterate returns an iterator that walks through all pages using the provided fetcher.
// A fetch error is yielded once and ends the iteration.
func iterate[T any](ctx context.Context, limit int, fetch pageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		params := PageParams{Offset: 0, Limit: limit}

		for {
			page, err := fetch(ctx, params)
			if err != nil {
				yield(*new(T), err)
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}

			var more bool
			if params, more = advance(params, page); !more {
				return
			}
		}
	}
}
