package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

func TestConnectionRequestValidate(t *testing.T) {
	valid := model.ConnectionRequest{
		TenantID:        "t-1",
		ConnectionID:    "c-1",
		OrgID:           "org-1",
		IntegrationID:   "i-1",
		IntegrationType: "github",
	}

	t.Run("valid request", func(t *testing.T) {
		req := valid
		gt.NoError(t, req.Validate())
	})

	t.Run("error when tenant ID is empty", func(t *testing.T) {
		req := valid
		req.TenantID = ""
		gt.Error(t, req.Validate())
	})

	t.Run("error when connection ID is empty", func(t *testing.T) {
		req := valid
		req.ConnectionID = ""
		gt.Error(t, req.Validate())
	})

	t.Run("error when org ID is empty", func(t *testing.T) {
		req := valid
		req.OrgID = ""
		gt.Error(t, req.Validate())
	})

	t.Run("error when integration ID is empty", func(t *testing.T) {
		req := valid
		req.IntegrationID = ""
		gt.Error(t, req.Validate())
	})

	t.Run("error when integration type is empty", func(t *testing.T) {
		req := valid
		req.IntegrationType = ""
		gt.Error(t, req.Validate())
	})
}

func TestRunLogFailedResults(t *testing.T) {
	log := &model.RunLog{
		Results: []model.ConnectionResult{
			{OrgID: "a", Success: true, Outcome: types.OutcomeConnected},
			{OrgID: "b", Success: false, Outcome: types.OutcomeFailed},
			{OrgID: "c", Success: true, Outcome: types.OutcomeAlreadyConnected},
			{OrgID: "d", Success: false, Outcome: types.OutcomeSkippedMissingID},
		},
	}

	failed := log.FailedResults()
	gt.Equal(t, len(failed), 2)
	gt.Equal(t, failed[0].OrgID, types.OrgID("b"))
	gt.Equal(t, failed[1].OrgID, types.OrgID("d"))
}
