package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces/mocks"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/repository"
	"github.com/secmon-lab/shepherd/pkg/usecase"
)

// writeSnapshotFixture drops raw snapshot bytes into dir and returns a
// ConnectInput pointing at them with every required field populated.
func writeSnapshotFixture(t *testing.T, dir string, data string) *usecase.ConnectInput {
	t.Helper()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "orgs.json"), []byte(data), 0644))

	return &usecase.ConnectInput{
		OrgsFile:        "orgs.json",
		OutputLog:       "connection_log.json",
		BaseDir:         dir,
		TenantID:        "tenant-1",
		ConnectionID:    "conn-1",
		IntegrationID:   "intg-1",
		IntegrationType: "github",
	}
}

func createdResponse() *model.BrokerResponse {
	return &model.BrokerResponse{
		StatusCode: http.StatusCreated,
		Body:       map[string]any{"data": map[string]any{"type": "org"}},
		RawBody:    `{"data": {"type": "org"}}`,
		URL:        "https://api.example.com/rest/tenants/tenant-1",
	}
}

func TestConnect_ConnectsAllOrganizations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir,
		`{"orgs": [{"id": "org-a", "name": "Alpha"}, {"id": "org-b", "name": "Beta"}]}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)

	gt.Equal(t, runLog.Summary.TotalOrganizations, 2)
	gt.Equal(t, runLog.Summary.SuccessfulConnections, 2)
	gt.Equal(t, runLog.Summary.FailedConnections, 0)
	gt.Equal(t, runLog.Summary.TenantID, "tenant-1")
	gt.Equal(t, runLog.Summary.ConnectionID, "conn-1")
	gt.Equal(t, runLog.Summary.IntegrationID, "intg-1")
	gt.Equal(t, runLog.Summary.IntegrationType, "github")
	gt.NotEqual(t, runLog.Summary.RunID, "")

	gt.Equal(t, len(runLog.Results), 2)
	gt.Equal(t, runLog.Results[0].OrgID, "org-a")
	gt.Equal(t, runLog.Results[0].Outcome, types.OutcomeConnected)
	gt.True(t, runLog.Results[0].Success)

	calls := mockClient.ConnectOrgCalls()
	gt.Equal(t, len(calls), 2)
	gt.Equal(t, calls[0].Req.TenantID, "tenant-1")
	gt.Equal(t, calls[0].Req.ConnectionID, "conn-1")
	gt.Equal(t, calls[0].Req.OrgID, "org-a")
	gt.Equal(t, calls[0].Req.IntegrationID, "intg-1")
	gt.Equal(t, calls[0].Req.IntegrationType, "github")
	gt.Equal(t, calls[1].Req.OrgID, "org-b")

	// The run log is on disk next to the snapshot
	_, err = os.Stat(filepath.Join(dir, "connection_log.json"))
	gt.NoError(t, err)
}

func TestConnect_ConflictCountsAsSuccess(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return &model.BrokerResponse{
				StatusCode: http.StatusConflict,
				RawBody:    `{"errors": [{"detail": "already connected"}]}`,
			}, nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir,
		`{"orgs": [{"id": "org-a", "name": "Alpha"}, {"id": "org-b", "name": "Beta"}]}`)

	// Re-running against already-connected organizations must look the
	// same as the first run: every 409 is a success.
	for run := 0; run < 2; run++ {
		runLog, err := uc.Execute(ctx, input)
		gt.NoError(t, err)

		gt.Equal(t, runLog.Summary.SuccessfulConnections, runLog.Summary.TotalOrganizations)
		gt.Equal(t, runLog.Summary.FailedConnections, 0)
		for _, result := range runLog.Results {
			gt.Equal(t, result.Outcome, types.OutcomeAlreadyConnected)
			gt.True(t, result.Success)
			gt.Equal(t, result.Response["status"], "already_connected")
			gt.Equal(t, result.Response["message"], "Organization already connected to broker")
		}
	}
}

func TestConnect_MissingIDNeverReachesNetwork(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir,
		`{"orgs": [{"name": "No ID Org"}, {"id": "org-b", "name": "Beta"}]}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)

	gt.Equal(t, runLog.Summary.TotalOrganizations, 2)
	gt.Equal(t, runLog.Summary.SuccessfulConnections, 1)
	gt.Equal(t, runLog.Summary.FailedConnections, 1)

	skipped := runLog.Results[0]
	gt.Equal(t, skipped.OrgID, "")
	gt.Equal(t, skipped.OrgName, "No ID Org")
	gt.False(t, skipped.Success)
	gt.Equal(t, skipped.Outcome, types.OutcomeSkippedMissingID)
	gt.Equal(t, skipped.Response["error"], "Missing organization ID")

	// Only the organization with an ID was sent over the wire
	calls := mockClient.ConnectOrgCalls()
	gt.Equal(t, len(calls), 1)
	gt.Equal(t, calls[0].Req.OrgID, "org-b")
}

func TestConnect_FailureRecordedAndLoopContinues(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			if req.OrgID == "org-a" {
				return &model.BrokerResponse{
					StatusCode: http.StatusInternalServerError,
					RawBody:    `{"errors": [{"detail": "server error"}]}`,
					URL:        "https://api.example.com/rest/tenants/tenant-1/brokers/connections/conn-1/orgs/org-a/integration",
				}, nil
			}
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir,
		`{"orgs": [{"id": "org-a", "name": "Alpha"}, {"id": "org-b", "name": "Beta"}]}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)

	gt.Equal(t, runLog.Summary.SuccessfulConnections, 1)
	gt.Equal(t, runLog.Summary.FailedConnections, 1)

	failure := runLog.Results[0]
	gt.False(t, failure.Success)
	gt.Equal(t, failure.Outcome, types.OutcomeFailed)
	gt.Equal(t, failure.Response["status_code"], http.StatusInternalServerError)
	gt.Equal(t, failure.Response["error"], `{"errors": [{"detail": "server error"}]}`)
	gt.Equal(t, failure.Response["message"], "Failed to connect organization org-a")
	gt.S(t, failure.Response["url"].(string)).Contains("/orgs/org-a/integration")

	gt.Equal(t, len(runLog.FailedResults()), 1)
	gt.Equal(t, runLog.Results[1].Outcome, types.OutcomeConnected)
}

func TestConnect_TransportErrorRecorded(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return nil, goerr.New("connection refused", goerr.T(model.ErrTagMutation))
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir,
		`{"orgs": [{"id": "org-a", "name": "Alpha"}]}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)

	gt.Equal(t, runLog.Summary.FailedConnections, 1)
	result := runLog.Results[0]
	gt.False(t, result.Success)
	gt.Equal(t, result.Outcome, types.OutcomeFailed)
	gt.S(t, result.Response["error"].(string)).Contains("connection refused")
	gt.Equal(t, result.Response["message"], "Request failed for organization org-a")
}

func TestConnect_SnapshotExclusionsReapplied(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	// A hand-edited snapshot may still list the excluded organization in
	// orgs. The exclusion list wins.
	input := writeSnapshotFixture(t, dir, `{
		"orgs": [
			{"id": "a", "name": "Acme"},
			{"id": "b", "name": "Acme-default"}
		],
		"excluded_organizations": [{"id": "b", "name": "Acme-default"}]
	}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)

	gt.Equal(t, runLog.Summary.TotalOrganizations, 1)
	gt.Equal(t, len(runLog.Results), 1)
	gt.Equal(t, runLog.Results[0].OrgID, "a")

	calls := mockClient.ConnectOrgCalls()
	gt.Equal(t, len(calls), 1)
	gt.Equal(t, calls[0].Req.OrgID, "a")

	gt.Equal(t, len(runLog.Excluded), 1)
	gt.Equal(t, runLog.Excluded[0].ID, "b")
}

func TestConnect_EnvelopedSnapshotShape(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir, `{
		"metadata": {"group_id": "g-1", "group_name": "Acme"},
		"organizations": {
			"name": "Acme",
			"orgs": [{"id": "org-a", "name": "Alpha"}]
		},
		"excluded_organizations": []
	}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)
	gt.Equal(t, runLog.Summary.TotalOrganizations, 1)
	gt.Equal(t, runLog.Results[0].OrgID, "org-a")
}

func TestConnect_BareListSnapshotShape(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir,
		`[{"id": "org-a", "name": "Alpha"}, {"id": "org-b", "name": "Beta"}]`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)
	gt.Equal(t, runLog.Summary.TotalOrganizations, 2)
	gt.Equal(t, runLog.Summary.SuccessfulConnections, 2)
}

func TestConnect_PathValidationBeforeAnything(t *testing.T) {
	ctx := context.Background()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	t.Run("traversal input path", func(t *testing.T) {
		input := writeSnapshotFixture(t, t.TempDir(), `[{"id": "org-a"}]`)
		input.OrgsFile = "../../etc/passwd.json"

		_, err := uc.Execute(ctx, input)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagPath)).True()
		gt.Equal(t, len(mockClient.ConnectOrgCalls()), 0)
	})

	t.Run("missing input file", func(t *testing.T) {
		input := writeSnapshotFixture(t, t.TempDir(), `[{"id": "org-a"}]`)
		input.OrgsFile = "nope.json"

		_, err := uc.Execute(ctx, input)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagNotFound)).True()
		gt.Equal(t, len(mockClient.ConnectOrgCalls()), 0)
	})

	t.Run("disallowed output extension", func(t *testing.T) {
		input := writeSnapshotFixture(t, t.TempDir(), `[{"id": "org-a"}]`)
		input.OutputLog = "results.txt"

		_, err := uc.Execute(ctx, input)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagPath)).True()
		gt.Equal(t, len(mockClient.ConnectOrgCalls()), 0)
	})
}

func TestConnect_MalformedSnapshotFails(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir, `{"projects": [{"id": "p-1"}]}`)

	_, err := uc.Execute(ctx, input)
	gt.Error(t, err)
	gt.B(t, goerr.HasTag(err, model.ErrTagSchema)).True()
	gt.Equal(t, len(mockClient.ConnectOrgCalls()), 0)
}

func TestConnect_MissingConfigFields(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewConnect(&mocks.SnykClientMock{}, repository.NewFilesystem(), usecase.WithDelay(0))

	cases := map[string]func(*usecase.ConnectInput){
		"tenant ID":        func(x *usecase.ConnectInput) { x.TenantID = "" },
		"connection ID":    func(x *usecase.ConnectInput) { x.ConnectionID = "" },
		"integration ID":   func(x *usecase.ConnectInput) { x.IntegrationID = "" },
		"integration type": func(x *usecase.ConnectInput) { x.IntegrationType = "" },
		"orgs file":        func(x *usecase.ConnectInput) { x.OrgsFile = "" },
		"output log":       func(x *usecase.ConnectInput) { x.OutputLog = "" },
	}

	for name, clear := range cases {
		t.Run(name, func(t *testing.T) {
			input := writeSnapshotFixture(t, t.TempDir(), `[{"id": "org-a"}]`)
			clear(input)

			_, err := uc.Execute(ctx, input)
			gt.Error(t, err)
			gt.B(t, goerr.HasTag(err, model.ErrTagConfig)).True()
		})
	}
}

func TestConnect_RunLogWrittenForEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	uc := usecase.NewConnect(&mocks.SnykClientMock{}, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir, `{"orgs": []}`)

	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)
	gt.Equal(t, runLog.Summary.TotalOrganizations, 0)
	gt.Equal(t, runLog.Summary.SuccessfulConnections, 0)
	gt.Equal(t, runLog.Summary.FailedConnections, 0)
	gt.Equal(t, len(runLog.Results), 0)

	_, err = os.Stat(filepath.Join(dir, "connection_log.json"))
	gt.NoError(t, err)
}

func TestConnect_InterruptAbortsWithoutLog(t *testing.T) {
	dir := t.TempDir()

	uc := usecase.NewConnect(&mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}, repository.NewFilesystem(), usecase.WithDelay(0))

	input := writeSnapshotFixture(t, dir, `[{"id": "org-a", "name": "Alpha"}]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx, input)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, context.Canceled))

	// Nothing flushed: the interrupted run leaves no partial log behind
	_, statErr := os.Stat(filepath.Join(dir, "connection_log.json"))
	gt.True(t, os.IsNotExist(statErr))
}

func TestConnect_DelayPacesCalls(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	mockClient := &mocks.SnykClientMock{
		ConnectOrgFunc: func(ctx context.Context, req *model.ConnectionRequest) (*model.BrokerResponse, error) {
			return createdResponse(), nil
		},
	}
	uc := usecase.NewConnect(mockClient, repository.NewFilesystem(),
		usecase.WithDelay(10*time.Millisecond))

	input := writeSnapshotFixture(t, dir,
		`[{"id": "org-a"}, {"id": "org-b"}, {"id": "org-c"}]`)

	started := time.Now()
	runLog, err := uc.Execute(ctx, input)
	gt.NoError(t, err)

	gt.Equal(t, runLog.Summary.SuccessfulConnections, 3)
	// Two inter-call delays for three organizations
	gt.True(t, time.Since(started) >= 20*time.Millisecond)
}
