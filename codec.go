package milesight

import (
	"context"
	"fmt"
	"iter"
)

const (
	payloadCodecsPath      = "/api/payloadcodecs"
	payloadCodecsShortPath = "/api/payloadcodecs-short"

	// PayloadCodecsPageSize is the page size used by [Client.PayloadCodecs].
	PayloadCodecsPageSize = 10
)

// CodecType selects built-in or user supplied payload codecs.
type CodecType string

const (
	CodecTypeDefault CodecType = "default"
	CodecTypeCustom  CodecType = "custom"
)

// CodecQuery filters payload codecs.
type CodecQuery struct {
	Type CodecType `url:"type"`
	// Search matches codec names when set.
	Search string `url:"search,omitempty"`
}

type codecListQuery struct {
	Type CodecType `url:"type"`
	PageParams
	Search string `url:"search,omitempty"`
}

type codecShortQuery struct {
	Type CodecType `url:"type"`
}

func codecsCollection(q CodecQuery) collection {
	return collection{
		operation: "payload codecs",
		path:      payloadCodecsPath,
		limit:     PayloadCodecsPageSize,
		envelope:  resultEnvelope,
		query: func(p PageParams) any {
			return codecListQuery{Type: q.Type, PageParams: p, Search: q.Search}
		},
	}
}

// PayloadCodecs retrieves all payload codecs matching q and the total the
// gateway reported.
//
// If a page fails, the codecs fetched before it are returned with a total of
// 0 and the error. The records are valid; the error only reports why the
// list is incomplete.
func (c *Client) PayloadCodecs(ctx context.Context, q CodecQuery) ([]Record, int, error) {
	return c.fetchAll(ctx, codecsCollection(q))
}

// PayloadCodecsIter returns an iterator over all payload codecs matching q.
func (c *Client) PayloadCodecsIter(ctx context.Context, q CodecQuery) iter.Seq2[Record, error] {
	return c.iterAll(ctx, codecsCollection(q))
}

// PayloadCodecsShort retrieves the abbreviated codec list of a type in a
// single request.
func (c *Client) PayloadCodecsShort(ctx context.Context, codecType CodecType) ([]Record, int, error) {
	page, err := c.lookupPage(ctx,
		"payload codecs short",
		payloadCodecsShortPath,
		codecShortQuery{Type: codecType},
		map[string]any{"type": string(codecType)},
		resultEnvelope,
	)
	if err != nil {
		return nil, 0, err
	}

	return page.Items, page.TotalCount, nil
}

// PayloadCodecByDevice retrieves the payload codec assigned to a device.
func (c *Client) PayloadCodecByDevice(ctx context.Context, devEUI string) (Record, error) {
	path, err := resourcePath(payloadCodecsPath, devEUI, "device")
	if err != nil {
		return nil, fmt.Errorf("payload codec by device: %w", err)
	}

	var doc Record
	err = c.lookup(ctx,
		"payload codec by device",
		path,
		nil,
		map[string]any{"dev_eui": devEUI},
		&doc,
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// PayloadCodec retrieves a payload codec, including its scripts, by ID.
func (c *Client) PayloadCodec(ctx context.Context, id string) (Record, error) {
	path, err := resourcePath(payloadCodecsPath, id)
	if err != nil {
		return nil, fmt.Errorf("payload codec: %w", err)
	}

	var doc Record
	err = c.lookup(ctx,
		"payload codec",
		path,
		nil,
		map[string]any{"codec_id": id},
		&doc,
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}
