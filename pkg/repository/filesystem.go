package repository

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// Filesystem implements Storage on the local filesystem. Writes are
// atomic: content goes to a temporary file in the same directory and is
// renamed into place, so a crash mid-write never leaves a partial
// artifact behind.
type Filesystem struct{}

var _ interfaces.Storage = (*Filesystem)(nil)

// NewFilesystem creates a filesystem-backed store
func NewFilesystem() *Filesystem {
	return &Filesystem{}
}

// SaveSnapshot writes a snapshot as indented JSON
func (f *Filesystem) SaveSnapshot(ctx context.Context, path string, snapshot *model.Snapshot) error {
	if snapshot == nil {
		return goerr.New("snapshot is nil")
	}
	return writeJSON(path, snapshot)
}

// LoadSnapshot reads a snapshot file and normalizes whichever of the
// supported shapes it contains
func (f *Filesystem) LoadSnapshot(ctx context.Context, path string) (*model.Snapshot, error) {
	if path == "" {
		return nil, goerr.New("path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.New("snapshot file not found",
				goerr.V("path", path),
				goerr.T(model.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to read snapshot file", goerr.V("path", path))
	}

	snapshot, err := model.DecodeSnapshot(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode snapshot file", goerr.V("path", path))
	}
	return snapshot, nil
}

// SaveRunLog writes a run log as indented JSON
func (f *Filesystem) SaveRunLog(ctx context.Context, path string, runLog *model.RunLog) error {
	if runLog == nil {
		return goerr.New("run log is nil")
	}
	return writeJSON(path, runLog)
}

// writeJSON marshals v and writes it atomically. The temporary file
// lives next to the target so the rename stays on one filesystem.
func writeJSON(path string, v any) error {
	if path == "" {
		return goerr.New("path is empty")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode JSON", goerr.V("path", path))
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", tmpPath))
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to write temporary file", goerr.V("path", tmpPath))
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to sync temporary file", goerr.V("path", tmpPath))
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmpPath))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return goerr.Wrap(err, "failed to move file into place", goerr.V("path", path))
	}
	return nil
}
