package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// Handle reports a fatal error at the CLI boundary before the process
// exits non-zero. Per-organization connection failures are recorded in
// the run log instead and never reach here.
func Handle(ctx context.Context, err error) {
	logger := ctxlog.From(ctx)

	if category := model.ErrCategory(err); category != "" {
		logger.Error("application error", "category", category, "error", err)
		return
	}
	logger.Error("application error", "error", err)
}
