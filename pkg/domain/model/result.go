package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

// ConnectionRequest describes one broker attachment call. Tenant, connection
// and integration are fixed for a whole run; only OrgID varies per item.
type ConnectionRequest struct {
	TenantID        types.TenantID
	ConnectionID    types.ConnectionID
	OrgID           types.OrgID
	IntegrationID   types.IntegrationID
	IntegrationType string
}

// Validate validates the connection request
func (r *ConnectionRequest) Validate() error {
	if r.TenantID == "" {
		return goerr.New("tenant ID is required")
	}
	if r.ConnectionID == "" {
		return goerr.New("connection ID is required")
	}
	if r.OrgID == "" {
		return goerr.New("organization ID is required")
	}
	if r.IntegrationID == "" {
		return goerr.New("integration ID is required")
	}
	if r.IntegrationType == "" {
		return goerr.New("integration type is required")
	}
	return nil
}

// BrokerResponse is the raw view of one broker attachment call: the HTTP
// status, the decoded body when the endpoint returned JSON, the unparsed body
// otherwise, and the request URL for diagnostics.
type BrokerResponse struct {
	StatusCode int
	Body       map[string]any
	RawBody    string
	URL        string
}

// ConnectionResult records the outcome of one connection attempt. Results are
// append-only and never mutated after creation.
type ConnectionResult struct {
	OrgID     types.OrgID             `json:"org_id"`
	OrgName   string                  `json:"org_name"`
	Success   bool                    `json:"success"`
	Outcome   types.ConnectionOutcome `json:"outcome"`
	Response  map[string]any          `json:"response,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// RunSummary aggregates one applicator run. It echoes the non-secret request
// configuration so a log file is self-describing.
type RunSummary struct {
	RunID                 types.RunID         `json:"run_id"`
	TotalOrganizations    int                 `json:"total_organizations"`
	SuccessfulConnections int                 `json:"successful_connections"`
	FailedConnections     int                 `json:"failed_connections"`
	TenantID              types.TenantID      `json:"tenant_id"`
	ConnectionID          types.ConnectionID  `json:"connection_id"`
	IntegrationID         types.IntegrationID `json:"integration_id"`
	IntegrationType       string              `json:"integration_type"`
	DelaySeconds          float64             `json:"delay_seconds"`
	Timestamp             time.Time           `json:"timestamp"`
}

// RunLog is the durable artifact of one applicator run: the summary, the
// per-organization results in processing order, and the exclusions echoed
// from the snapshot. Written once at the end of a completed run.
type RunLog struct {
	Summary  RunSummary         `json:"summary"`
	Results  []ConnectionResult `json:"results"`
	Excluded []Organization     `json:"excluded_organizations"`
}

// FailedResults returns the results that did not succeed, in processing order
func (l *RunLog) FailedResults() []ConnectionResult {
	var failed []ConnectionResult
	for _, r := range l.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
