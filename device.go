package milesight

import (
	"context"
	"iter"
)

const (
	devicesPath = "/api/urdevices"

	// DevicesPageSize is the page size used by [Client.Devices].
	DevicesPageSize = 10
)

type deviceListQuery struct {
	PageParams
	ApplicationID int `url:"applicationID"`
}

type deviceSearchQuery struct {
	Search string `url:"search"`
}

var devicesCollection = collection{
	operation: "devices",
	path:      devicesPath,
	limit:     DevicesPageSize,
	envelope:  deviceEnvelope,
	query: func(p PageParams) any {
		return deviceListQuery{PageParams: p, ApplicationID: 0}
	},
}

// Devices retrieves all devices registered on the gateway's network server,
// along with the device count the gateway reported.
//
// If a page fails, the devices fetched before it are returned with a total of
// 0 and the error. The records are valid; the error only reports why the
// list is incomplete.
func (c *Client) Devices(ctx context.Context) ([]Record, int, error) {
	return c.fetchAll(ctx, devicesCollection)
}

// DevicesIter returns an iterator over all devices.
func (c *Client) DevicesIter(ctx context.Context) iter.Seq2[Record, error] {
	return c.iterAll(ctx, devicesCollection)
}

// SearchDevices returns the devices matching term, e.g. a name or DevEUI.
func (c *Client) SearchDevices(ctx context.Context, term string) ([]Record, error) {
	page, err := c.lookupPage(ctx,
		"search devices",
		devicesPath,
		deviceSearchQuery{Search: term},
		map[string]any{"search": term},
		deviceEnvelope,
	)
	if err != nil {
		return nil, err
	}

	return page.Items, nil
}
