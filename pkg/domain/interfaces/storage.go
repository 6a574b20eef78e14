package interfaces

import (
	"context"

	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// Storage persists the artifacts the two pipelines exchange. Paths are
// expected to be validated before they reach the store.
type Storage interface {
	// SaveSnapshot writes a snapshot atomically to the given path
	SaveSnapshot(ctx context.Context, path string, snapshot *model.Snapshot) error

	// LoadSnapshot reads and normalizes a snapshot from the given path
	LoadSnapshot(ctx context.Context, path string) (*model.Snapshot, error)

	// SaveRunLog writes a run log atomically to the given path
	SaveRunLog(ctx context.Context, path string, runLog *model.RunLog) error
}
