package interfaces

//go:generate moq -out mocks/snyk_client_mock.go -pkg mocks . SnykClient

import (
	"context"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// SnykClient defines the Snyk API operations the pipelines depend on
type SnykClient interface {
	// GroupOrgs fetches one page of the group's organization listing
	GroupOrgs(ctx context.Context, groupID types.GroupID, page, perPage int) (*model.OrgsPage, error)

	// ConnectOrg attaches one organization to a Universal Broker connection.
	// A non-2xx status is returned as a BrokerResponse, not an error; errors
	// are reserved for requests that never produced an HTTP response.
	ConnectOrg(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error)
}
