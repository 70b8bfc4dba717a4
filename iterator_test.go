package milesight

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// pagesOf serves items in slices of the requested limit, reporting total.
func pagesOf(t *testing.T, items []string, calls *[]PageParams) pageFunc[string] {
	t.Helper()

	return func(ctx context.Context, params PageParams) (Page[string], error) {
		*calls = append(*calls, params)

		if params.Offset >= len(items) {
			return Page[string]{Items: []string{}, TotalCount: len(items)}, nil
		}
		end := min(params.Offset+params.Limit, len(items))

		return Page[string]{Items: items[params.Offset:end], TotalCount: len(items)}, nil
	}
}

func makeItems(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item%d", i+1)
	}
	return items
}

func TestCollect_ShortLastPage(t *testing.T) {
	// pages of [limit, limit, k] with k < limit
	limit := 10
	items := makeItems(2*limit + 3)

	var calls []PageParams
	got, total, err := collect(context.Background(), limit, pagesOf(t, items, &calls))
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}

	if len(got) != 23 {
		t.Errorf("expected 23 items, got %d", len(got))
	}
	if total != 23 {
		t.Errorf("total = %d, want 23", total)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 fetcher calls, got %d", len(calls))
	}

	for i, want := range []int{0, 10, 20} {
		if calls[i].Offset != want || calls[i].Limit != limit {
			t.Errorf("call[%d] = %+v, want offset %d limit %d", i, calls[i], want, limit)
		}
	}

	for i, item := range got {
		if item != items[i] {
			t.Errorf("item[%d] = %v, want %v", i, item, items[i])
		}
	}
}

func TestCollect_ExactMultipleNeedsEmptyPage(t *testing.T) {
	limit := 2
	items := makeItems(4)

	var calls []PageParams
	got, total, err := collect(context.Background(), limit, pagesOf(t, items, &calls))
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}

	if len(got) != 4 {
		t.Errorf("expected 4 items, got %d", len(got))
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	// two full pages, then an empty one ends the walk
	if len(calls) != 3 {
		t.Errorf("expected 3 fetcher calls, got %d", len(calls))
	}
}

func TestCollect_EmptyFirstPage(t *testing.T) {
	var calls []PageParams
	got, total, err := collect(context.Background(), 10, pagesOf(t, nil, &calls))
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}

	if len(got) != 0 {
		t.Errorf("expected 0 items, got %d", len(got))
	}
	if got == nil {
		t.Error("expected an empty, non-nil slice")
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 fetcher call, got %d", len(calls))
	}
}

func TestCollect_ErrorOnSecondPage(t *testing.T) {
	expectedErr := errors.New("second page error")

	callCount := 0
	fetcher := func(ctx context.Context, params PageParams) (Page[string], error) {
		callCount++

		if params.Offset == 0 {
			return Page[string]{Items: []string{"item1", "item2"}, TotalCount: 10}, nil
		}
		return Page[string]{}, expectedErr
	}

	got, total, err := collect(context.Background(), 2, fetcher)
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}

	if len(got) != 2 {
		t.Errorf("expected 2 items before error, got %d", len(got))
	}
	if total != 0 {
		t.Errorf("total = %d, want 0 after an aborted fetch", total)
	}
	if callCount != 2 {
		t.Errorf("expected 2 fetcher calls, got %d", callCount)
	}
}

func TestCollect_ErrorOnFirstPage(t *testing.T) {
	expectedErr := errors.New("fetch error")

	fetcher := func(ctx context.Context, params PageParams) (Page[string], error) {
		return Page[string]{}, expectedErr
	}

	got, total, err := collect(context.Background(), 10, fetcher)
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
	if len(got) != 0 || total != 0 {
		t.Errorf("collect() = %v, %d, want no items and zero total", got, total)
	}
}

func TestCollect_TotalFromLastPage(t *testing.T) {
	fetcher := func(ctx context.Context, params PageParams) (Page[string], error) {
		if params.Offset == 0 {
			return Page[string]{Items: []string{"a", "b"}, TotalCount: 3}, nil
		}
		// the server count changed between pages
		return Page[string]{Items: []string{"c"}, TotalCount: 5}, nil
	}

	_, total, err := collect(context.Background(), 2, fetcher)
	if err != nil {
		t.Fatalf("collect() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
}

func TestIterate_MultiplePages(t *testing.T) {
	items := makeItems(5)

	var calls []PageParams
	var collected []string
	for item, err := range iterate(context.Background(), 2, pagesOf(t, items, &calls)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		collected = append(collected, item)
	}

	if len(collected) != len(items) {
		t.Errorf("expected %d items, got %d", len(items), len(collected))
	}
	for i, item := range collected {
		if item != items[i] {
			t.Errorf("item[%d] = %v, want %v", i, item, items[i])
		}
	}

	if len(calls) != 3 {
		t.Errorf("expected 3 fetcher calls, got %d", len(calls))
	}
}

func TestIterate_EmptyResults(t *testing.T) {
	var calls []PageParams
	var collected []string
	for item, err := range iterate(context.Background(), 10, pagesOf(t, nil, &calls)) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		collected = append(collected, item)
	}

	if len(collected) != 0 {
		t.Errorf("expected 0 items, got %d", len(collected))
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 fetcher call, got %d", len(calls))
	}
}

func TestIterate_ErrorOnSecondPage(t *testing.T) {
	expectedErr := errors.New("second page error")

	fetcher := func(ctx context.Context, params PageParams) (Page[string], error) {
		if params.Offset == 0 {
			return Page[string]{Items: []string{"item1", "item2"}, TotalCount: 10}, nil
		}
		return Page[string]{}, expectedErr
	}

	var collected []string
	var gotErr error
	for item, err := range iterate(context.Background(), 2, fetcher) {
		if err != nil {
			gotErr = err
			break
		}
		collected = append(collected, item)
	}

	if len(collected) != 2 {
		t.Errorf("expected 2 items before error, got %d", len(collected))
	}

	if !errors.Is(gotErr, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, gotErr)
	}
}

func TestIterate_EarlyTermination(t *testing.T) {
	callCount := 0
	fetcher := func(ctx context.Context, params PageParams) (Page[string], error) {
		callCount++
		return Page[string]{Items: []string{"item1", "item2", "item3", "item4", "item5"}, TotalCount: 100}, nil
	}

	var collected []string
	maxItems := 3
	for item, err := range iterate(context.Background(), 5, fetcher) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		collected = append(collected, item)
		if len(collected) >= maxItems {
			break
		}
	}

	if len(collected) != maxItems {
		t.Errorf("expected %d items, got %d", maxItems, len(collected))
	}
	if callCount != 1 {
		t.Errorf("expected 1 fetcher call, got %d", callCount)
	}
}

func TestIterate_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := func(ctx context.Context, params PageParams) (Page[string], error) {
		if ctx.Err() != nil {
			return Page[string]{}, ctx.Err()
		}

		return Page[string]{Items: []string{"item1", "item2"}, TotalCount: 100}, nil
	}

	var collected []string
	for item, err := range iterate(ctx, 2, fetcher) {
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled error, got %v", err)
			}
			break
		}
		collected = append(collected, item)

		if len(collected) == 2 {
			cancel()
		}
	}

	if len(collected) != 2 {
		t.Errorf("expected 2 items before cancellation, got %d", len(collected))
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name       string
		params     PageParams
		count      int
		wantMore   bool
		wantOffset int
	}{
		{name: "full page", params: PageParams{Offset: 0, Limit: 10}, count: 10, wantMore: true, wantOffset: 10},
		{name: "full later page", params: PageParams{Offset: 20, Limit: 10}, count: 10, wantMore: true, wantOffset: 30},
		{name: "short page", params: PageParams{Offset: 10, Limit: 10}, count: 3, wantMore: false, wantOffset: 10},
		{name: "empty page", params: PageParams{Offset: 10, Limit: 10}, count: 0, wantMore: false, wantOffset: 10},
		{name: "zero limit", params: PageParams{Offset: 0, Limit: 0}, count: 4, wantMore: false, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Page[string]{Items: make([]string, tt.count)}

			next, more := advance(tt.params, page)
			if more != tt.wantMore {
				t.Errorf("advance() more = %v, want %v", more, tt.wantMore)
			}
			if next.Offset != tt.wantOffset {
				t.Errorf("advance() offset = %d, want %d", next.Offset, tt.wantOffset)
			}
			if next.Limit != tt.params.Limit {
				t.Errorf("advance() limit = %d, want %d", next.Limit, tt.params.Limit)
			}
		})
	}
}
