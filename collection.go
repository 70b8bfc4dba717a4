package milesight

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// collection describes one paginated list endpoint.
type collection struct {
	// operation names the fetch in logs and errors.
	operation string
	path      string
	limit     int
	envelope  envelope
	// query builds the query struct for one page.
	query func(PageParams) any
}

// page fetches and decodes one page of col.
func (c *Client) page(ctx context.Context, col collection, params PageParams) (Page[Record], error) {
	var doc map[string]json.RawMessage
	if err := c.get(ctx, col.path, col.query(params), &doc); err != nil {
		return Page[Record]{}, err
	}

	return col.envelope.decode(doc)
}

// pager wraps c.page with per-page logging under a fetch-scoped logger.
func (c *Client) pager(col collection, logger zerolog.Logger) pageFunc[Record] {
	return func(ctx context.Context, params PageParams) (Page[Record], error) {
		page, err := c.page(ctx, col, params)
		if err != nil {
			logger.Error().Err(err).
				Int("offset", params.Offset).
				Int("limit", params.Limit).
				Msg("cannot fetch page")
			return page, err
		}

		logger.Debug().
			Int("offset", params.Offset).
			Int("limit", params.Limit).
			Int("count", len(page.Items)).
			Int("total", page.TotalCount).
			Msg("fetched page")
		return page, nil
	}
}

// fetchAll walks col from the first page until it is exhausted.
// On error the records fetched so far are returned with a zero total.
func (c *Client) fetchAll(ctx context.Context, col collection) ([]Record, int, error) {
	logger := c.fetchLogger(col)

	records, total, err := collect(ctx, col.limit, c.pager(col, logger))
	if err != nil {
		logger.Warn().Int("fetched", len(records)).Msg("returning partial result")
		return records, 0, fmt.Errorf("%s: %w", col.operation, err)
	}

	logger.Debug().Int("fetched", len(records)).Int("total", total).Msg("fetch complete")
	return records, total, nil
}

// iterAll is the iterator form of fetchAll.
func (c *Client) iterAll(ctx context.Context, col collection) iter.Seq2[Record, error] {
	return iterate(ctx, col.limit, c.pager(col, c.fetchLogger(col)))
}

func (c *Client) fetchLogger(col collection) zerolog.Logger {
	return c.logger.With().
		Str("operation", col.operation).
		Str("path", col.path).
		Str("fetch_id", uuid.NewString()).
		Logger()
}

// resourcePath joins base and the caller supplied segments. Segments that
// would change the path once dot segments are resolved are rejected.
func resourcePath(base string, segments ...string) (string, error) {
	parts := append(make([]string, 0, len(segments)+1), base)
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, "/\\?#") {
			return "", fmt.Errorf("%w: path segment %q", ErrInvalidArgument, seg)
		}
		parts = append(parts, seg)
	}

	return strings.Join(parts, "/"), nil
}

// lookup issues a single GET and decodes the answer into v.
// Errors are logged and returned to the caller.
func (c *Client) lookup(
	ctx context.Context,
	operation, path string,
	params any,
	fields map[string]any,
	v any,
) error {
	if err := c.get(ctx, path, params, v); err != nil {
		c.logger.Error().Err(err).
			Str("operation", operation).
			Str("path", path).
			Fields(fields).
			Msg("request failed")
		return fmt.Errorf("%s: %w", operation, err)
	}

	c.logger.Debug().
		Str("operation", operation).
		Fields(fields).
		Msg("request succeeded")
	return nil
}

// lookupPage issues a single GET for a list endpoint without paginating.
func (c *Client) lookupPage(
	ctx context.Context,
	operation, path string,
	params any,
	fields map[string]any,
	env envelope,
) (Page[Record], error) {
	var doc map[string]json.RawMessage
	if err := c.lookup(ctx, operation, path, params, fields, &doc); err != nil {
		return Page[Record]{}, err
	}

	page, err := env.decode(doc)
	if err != nil {
		c.logger.Error().Err(err).Str("operation", operation).Fields(fields).Msg("cannot decode page")
		return Page[Record]{}, fmt.Errorf("%s: %w", operation, err)
	}
	if page.Items == nil {
		page.Items = []Record{}
	}

	return page, nil
}
