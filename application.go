package milesight

import (
	"context"
	"fmt"
	"iter"
)

const (
	applicationsPath = "/api/urapplications"

	// ApplicationsPageSize is the page size used by [Client.Applications].
	ApplicationsPageSize = 2
)

// IntegrationType names a data transmission integration of an application.
type IntegrationType string

const (
	IntegrationMQTT IntegrationType = "mqtt"
	IntegrationHTTP IntegrationType = "http"
)

type applicationListQuery struct {
	OrganizationID int `url:"organizationID"`
	PageParams
}

var applicationsCollection = collection{
	operation: "applications",
	path:      applicationsPath,
	limit:     ApplicationsPageSize,
	envelope:  resultEnvelope,
	query: func(p PageParams) any {
		return applicationListQuery{OrganizationID: 0, PageParams: p}
	},
}

// Applications retrieves all applications and the total the gateway reported.
//
// If a page fails, the applications fetched before it are returned with a
// total of 0 and the error. The records are valid; the error only reports
// why the list is incomplete.
func (c *Client) Applications(ctx context.Context) ([]Record, int, error) {
	return c.fetchAll(ctx, applicationsCollection)
}

// ApplicationsIter returns an iterator over all applications.
func (c *Client) ApplicationsIter(ctx context.Context) iter.Seq2[Record, error] {
	return c.iterAll(ctx, applicationsCollection)
}

// DataTransmissionIntegration retrieves the integration settings of kind for
// an application.
func (c *Client) DataTransmissionIntegration(
	ctx context.Context,
	appID string,
	kind IntegrationType,
) (Record, error) {
	path, err := resourcePath(applicationsPath, appID, "integrations", string(kind))
	if err != nil {
		return nil, fmt.Errorf("data transmission integration: %w", err)
	}

	var doc Record
	err = c.lookup(ctx,
		"data transmission integration",
		path,
		nil,
		map[string]any{"application_id": appID, "type": string(kind)},
		&doc,
	)
	if err != nil {
		return nil, err
	}

	return doc, nil
}
