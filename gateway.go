package milesight

import (
	"context"
)

const (
	gatewaysPath = "/api/gateways"

	// GatewayFleetPageSize is the number of gateways [Client.GatewayFleet] asks for.
	GatewayFleetPageSize = 20
)

// GatewayQuery filters the gateway fleet.
type GatewayQuery struct {
	OrganizationID string `url:"organizationID"`
	// Search matches gateway names or IDs when set.
	Search string `url:"search,omitempty"`
}

type gatewayListQuery struct {
	OrganizationID string `url:"organizationID"`
	PageParams
	Search string `url:"search,omitempty"`
}

// GatewayFleet retrieves the first [GatewayFleetPageSize] gateways of an
// organization and the fleet size the gateway reported.
//
// Only one page is requested: with a larger fleet the returned slice is
// shorter than the total. Errors are returned as is.
func (c *Client) GatewayFleet(ctx context.Context, q GatewayQuery) ([]Record, int, error) {
	page, err := c.lookupPage(ctx,
		"gateway fleet",
		gatewaysPath,
		gatewayListQuery{
			OrganizationID: q.OrganizationID,
			PageParams:     PageParams{Offset: 0, Limit: GatewayFleetPageSize},
			Search:         q.Search,
		},
		map[string]any{"organization_id": q.OrganizationID, "search": q.Search},
		resultEnvelope,
	)
	if err != nil {
		return nil, 0, err
	}

	c.logger.Info().
		Str("organization_id", q.OrganizationID).
		Int("count", len(page.Items)).
		Int("total", page.TotalCount).
		Msg("retrieved gateway fleet")
	return page.Items, page.TotalCount, nil
}
