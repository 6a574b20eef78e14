package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
)

// Memory implements Storage in memory for tests. Artifacts are kept as
// encoded bytes keyed by path, so save and load go through the same
// codecs as the filesystem store and callers never share pointers with
// the store.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	runLogs   map[string][]byte
}

var _ interfaces.Storage = (*Memory)(nil)

// NewMemory creates an in-memory store
func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[string][]byte),
		runLogs:   make(map[string][]byte),
	}
}

// SaveSnapshot stores an encoded snapshot under path
func (m *Memory) SaveSnapshot(ctx context.Context, path string, snapshot *model.Snapshot) error {
	if snapshot == nil {
		return goerr.New("snapshot is nil")
	}
	if path == "" {
		return goerr.New("path is empty")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return goerr.Wrap(err, "failed to encode snapshot", goerr.V("path", path))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[path] = data
	return nil
}

// LoadSnapshot decodes the snapshot stored under path
func (m *Memory) LoadSnapshot(ctx context.Context, path string) (*model.Snapshot, error) {
	if path == "" {
		return nil, goerr.New("path is empty")
	}

	m.mu.RLock()
	data, exists := m.snapshots[path]
	m.mu.RUnlock()

	if !exists {
		return nil, goerr.New("snapshot file not found",
			goerr.V("path", path),
			goerr.T(model.ErrTagNotFound))
	}

	snapshot, err := model.DecodeSnapshot(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode snapshot file", goerr.V("path", path))
	}
	return snapshot, nil
}

// SaveRunLog stores an encoded run log under path
func (m *Memory) SaveRunLog(ctx context.Context, path string, runLog *model.RunLog) error {
	if runLog == nil {
		return goerr.New("run log is nil")
	}
	if path == "" {
		return goerr.New("path is empty")
	}

	data, err := json.Marshal(runLog)
	if err != nil {
		return goerr.Wrap(err, "failed to encode run log", goerr.V("path", path))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.runLogs[path] = data
	return nil
}

// RunLog returns the decoded run log stored under path, if any. Test
// helper, not part of the Storage interface.
func (m *Memory) RunLog(path string) (*model.RunLog, bool) {
	m.mu.RLock()
	data, exists := m.runLogs[path]
	m.mu.RUnlock()

	if !exists {
		return nil, false
	}

	var runLog model.RunLog
	if err := json.Unmarshal(data, &runLog); err != nil {
		return nil, false
	}
	return &runLog, true
}

// StoreSnapshot injects raw snapshot bytes under path without going
// through the snapshot encoder. Test helper for legacy-shape fixtures.
func (m *Memory) StoreSnapshot(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[path] = data
}
