package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/utils/safepath"
)

// DefaultDelay paces consecutive broker mutations to stay clear of
// rate limits
const DefaultDelay = 500 * time.Millisecond

// Connect attaches every organization of a snapshot to a Universal
// Broker connection and records one result per organization. Each
// organization gets exactly one attempt per run; a 409 from the API
// counts as success so re-runs stay idempotent.
type Connect struct {
	client  interfaces.SnykClient
	storage interfaces.Storage
	delay   time.Duration
}

// ConnectOption is a functional option for configuring Connect
type ConnectOption func(*Connect)

// WithDelay overrides the fixed inter-call delay
func WithDelay(d time.Duration) ConnectOption {
	return func(u *Connect) {
		u.delay = d
	}
}

// NewConnect creates a Connect use case
func NewConnect(client interfaces.SnykClient, storage interfaces.Storage, opts ...ConnectOption) *Connect {
	u := &Connect{
		client:  client,
		storage: storage,
		delay:   DefaultDelay,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ConnectInput carries the per-run parameters of a connection run
type ConnectInput struct {
	// OrgsFile is the snapshot to read organizations from
	OrgsFile string
	// OutputLog is where the run log is written
	OutputLog string
	// BaseDir restricts both paths. Empty means the current working
	// directory.
	BaseDir string

	TenantID        types.TenantID
	ConnectionID    types.ConnectionID
	IntegrationID   types.IntegrationID
	IntegrationType string
}

// Validate checks that every required parameter is present
func (x *ConnectInput) Validate() error {
	switch {
	case x.OrgsFile == "":
		return goerr.New("organizations file is required", goerr.T(model.ErrTagConfig))
	case x.OutputLog == "":
		return goerr.New("output log path is required", goerr.T(model.ErrTagConfig))
	case x.TenantID == "":
		return goerr.New("tenant ID is required", goerr.T(model.ErrTagConfig))
	case x.ConnectionID == "":
		return goerr.New("connection ID is required", goerr.T(model.ErrTagConfig))
	case x.IntegrationID == "":
		return goerr.New("integration ID is required", goerr.T(model.ErrTagConfig))
	case x.IntegrationType == "":
		return goerr.New("integration type is required", goerr.T(model.ErrTagConfig))
	}
	return nil
}

// Execute runs the batch connection pipeline and returns the saved run
// log. Both file paths are validated before the snapshot is read or any
// network call is made. Per-organization failures are recorded and the
// loop continues; only configuration, path, schema, and interrupt
// problems abort the run.
func (u *Connect) Execute(ctx context.Context, input *ConnectInput) (*model.RunLog, error) {
	logger := ctxlog.From(ctx)

	if input == nil {
		return nil, goerr.New("connect input is nil", goerr.T(model.ErrTagConfig))
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	inputPath, err := safepath.ValidateInput(input.OrgsFile, input.BaseDir)
	if err != nil {
		return nil, err
	}
	logPath, err := safepath.ValidateOutput(input.OutputLog, input.BaseDir)
	if err != nil {
		return nil, err
	}

	snapshot, err := u.storage.LoadSnapshot(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	orgs := snapshot.Kept()
	logger.Info("loaded organizations",
		"path", inputPath,
		"organizations", len(orgs),
		"excluded", len(snapshot.Excluded),
	)
	if len(orgs) == 0 {
		logger.Info("no organizations to connect")
	}

	logger.Info("starting connection run",
		"total", len(orgs),
		"tenant_id", input.TenantID,
		"connection_id", input.ConnectionID,
		"integration_id", input.IntegrationID,
		"integration_type", input.IntegrationType,
		"delay", u.delay,
	)

	var successful, failed int
	results := make([]model.ConnectionResult, 0, len(orgs))

	for i, org := range orgs {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "connection run interrupted",
				goerr.V("processed", len(results)),
				goerr.V("total", len(orgs)))
		}

		if !org.HasID() {
			logger.Warn("skipping organization without ID",
				"index", i+1,
				"total", len(orgs),
				"name", org.Name)
			failed++
			results = append(results, model.ConnectionResult{
				OrgName: org.Name,
				Success: false,
				Outcome: types.OutcomeSkippedMissingID,
				Response: map[string]any{
					"error": "Missing organization ID",
				},
				Timestamp: time.Now(),
			})
			continue
		}

		logger.Info("connecting organization",
			"index", i+1,
			"total", len(orgs),
			"name", org.Name,
			"id", org.ID)

		result := u.connectOne(ctx, input, org)
		results = append(results, result)

		if result.Success {
			successful++
			logger.Info("connection succeeded",
				"org_id", result.OrgID,
				"outcome", result.Outcome)
		} else {
			failed++
			logger.Warn("connection failed",
				"org_id", result.OrgID,
				"message", resultMessage(result))
		}

		// Pace the next call. The last organization needs no delay,
		// and an interrupt during the wait aborts the run.
		if u.delay > 0 && i < len(orgs)-1 {
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "connection run interrupted",
					goerr.V("processed", len(results)),
					goerr.V("total", len(orgs)))
			case <-time.After(u.delay):
			}
		}
	}

	excluded := snapshot.Excluded
	if excluded == nil {
		excluded = []model.Organization{}
	}

	runLog := &model.RunLog{
		Summary: model.RunSummary{
			RunID:                 types.NewRunID(),
			TotalOrganizations:    len(orgs),
			SuccessfulConnections: successful,
			FailedConnections:     failed,
			TenantID:              input.TenantID,
			ConnectionID:          input.ConnectionID,
			IntegrationID:         input.IntegrationID,
			IntegrationType:       input.IntegrationType,
			DelaySeconds:          u.delay.Seconds(),
			Timestamp:             time.Now(),
		},
		Results:  results,
		Excluded: excluded,
	}

	if err := u.storage.SaveRunLog(ctx, logPath, runLog); err != nil {
		return nil, goerr.Wrap(err, "failed to save run log", goerr.V("path", logPath))
	}

	logger.Info("connection run finished",
		"run_id", runLog.Summary.RunID,
		"total", len(orgs),
		"successful", successful,
		"failed", failed,
		"log_path", logPath,
	)
	for _, result := range runLog.FailedResults() {
		logger.Warn("failed organization",
			"name", result.OrgName,
			"org_id", result.OrgID,
			"message", resultMessage(result))
	}

	return runLog, nil
}

// connectOne issues the mutation for a single organization and turns
// whatever came back into a ConnectionResult
func (u *Connect) connectOne(ctx context.Context, input *ConnectInput, org model.Organization) model.ConnectionResult {
	result := model.ConnectionResult{
		OrgID:     org.ID,
		OrgName:   org.Name,
		Timestamp: time.Now(),
	}

	resp, err := u.client.ConnectOrg(ctx, &model.ConnectionRequest{
		TenantID:        input.TenantID,
		ConnectionID:    input.ConnectionID,
		OrgID:           org.ID,
		IntegrationID:   input.IntegrationID,
		IntegrationType: input.IntegrationType,
	})
	if err != nil {
		result.Success = false
		result.Outcome = types.OutcomeFailed
		result.Response = map[string]any{
			"error":   err.Error(),
			"message": fmt.Sprintf("Request failed for organization %s", org.ID),
		}
		return result
	}

	outcome, response := classifyResponse(resp, org.ID)
	result.Outcome = outcome
	result.Success = outcome.IsSuccess()
	result.Response = response
	return result
}

// classifyResponse maps a broker API response onto a connection outcome.
// A 409 conflict means the organization is already attached and is
// treated as success.
func classifyResponse(resp *model.BrokerResponse, orgID types.OrgID) (types.ConnectionOutcome, map[string]any) {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if resp.Body != nil {
			return types.OutcomeConnected, resp.Body
		}
		return types.OutcomeConnected, map[string]any{"status": "success"}

	case http.StatusConflict:
		return types.OutcomeAlreadyConnected, map[string]any{
			"status":  "already_connected",
			"message": "Organization already connected to broker",
		}

	default:
		return types.OutcomeFailed, map[string]any{
			"status_code": resp.StatusCode,
			"error":       resp.RawBody,
			"url":         resp.URL,
			"message":     fmt.Sprintf("Failed to connect organization %s", orgID),
		}
	}
}

func resultMessage(result model.ConnectionResult) string {
	if msg, ok := result.Response["message"].(string); ok {
		return msg
	}
	return "Unknown error"
}
