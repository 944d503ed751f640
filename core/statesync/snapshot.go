// Package statesync keeps a session's local mirror of incidents and
// decks aligned with the document store and with peer sessions of the
// same operator. Remote changes replace local state wholesale; there is
// no client-side merge.
package statesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openaid/respond/core/model"
)

const (
	// DefaultSnapshotInterval is how often a session persists its mirror.
	DefaultSnapshotInterval = 10 * time.Second
	// StaleAfter is the age past which a loaded snapshot is discarded.
	StaleAfter = 30 * time.Minute
	// AdoptionWindow bounds how old a peer snapshot may be to adopt it.
	AdoptionWindow = 60 * time.Second
)

// ErrNoSnapshot is returned when a session has never snapshotted.
var ErrNoSnapshot = errors.New("no snapshot for session")

// Snapshot is one session's persisted mirror.
type Snapshot struct {
	Origin    string                    `json:"origin"`
	Timestamp time.Time                 `json:"timestamp"`
	Incidents map[string]model.Incident `json:"incidents"`
	Rosters   map[string][]model.Deck   `json:"rosters"`
}

// SnapshotStore persists per-session snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, error)
}

// MemSnapshotStore holds snapshots in memory; peers sharing one
// instance see each other's state. Used in tests and single-process
// deployments.
type MemSnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemSnapshotStore() *MemSnapshotStore {
	return &MemSnapshotStore{snaps: make(map[string]Snapshot)}
}

func (m *MemSnapshotStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	m.mu.Lock()
	m.snaps[sessionID] = snap
	m.mu.Unlock()
	return nil
}

func (m *MemSnapshotStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[sessionID]
	if !ok {
		return Snapshot{}, ErrNoSnapshot
	}
	return snap, nil
}

// FileSnapshotStore writes one JSON file per session under a directory.
type FileSnapshotStore struct {
	dir string
}

func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (f *FileSnapshotStore) path(sessionID string) string {
	return filepath.Join(f.dir, sessionID+".json")
}

func (f *FileSnapshotStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(sessionID), data, 0o644)
}

func (f *FileSnapshotStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	data, err := os.ReadFile(f.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
