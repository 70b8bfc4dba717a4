package milesight

import (
	"context"
	"iter"
)

const (
	profilesPath = "/api/urprofiles"

	// ProfilesPageSize is the page size used by [Client.Profiles].
	ProfilesPageSize = 10
)

// ProfileQuery filters device profiles.
type ProfileQuery struct {
	OrganizationID string `url:"organizationID"`
	ApplicationID  string `url:"applicationID"`
	// ProfileID restricts the result to one profile when set.
	ProfileID string `url:"profileID,omitempty"`
}

type profileListQuery struct {
	OrganizationID string `url:"organizationID"`
	ApplicationID  string `url:"applicationID"`
	PageParams
	ProfileID string `url:"profileID,omitempty"`
}

func profilesCollection(q ProfileQuery) collection {
	return collection{
		operation: "profiles",
		path:      profilesPath,
		limit:     ProfilesPageSize,
		envelope:  resultEnvelope,
		query: func(p PageParams) any {
			return profileListQuery{
				OrganizationID: q.OrganizationID,
				ApplicationID:  q.ApplicationID,
				PageParams:     p,
				ProfileID:      q.ProfileID,
			}
		},
	}
}

// Profiles retrieves all device profiles matching q and the total the
// gateway reported.
//
// If a page fails, the profiles fetched before it are returned with a total
// of 0 and the error. The records are valid; the error only reports why the
// list is incomplete.
func (c *Client) Profiles(ctx context.Context, q ProfileQuery) ([]Record, int, error) {
	return c.fetchAll(ctx, profilesCollection(q))
}

// ProfilesIter returns an iterator over all device profiles matching q.
func (c *Client) ProfilesIter(ctx context.Context, q ProfileQuery) iter.Seq2[Record, error] {
	return c.iterAll(ctx, profilesCollection(q))
}
