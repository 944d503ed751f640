package config

import (
	"fmt"
	"time"

	"github.com/openaid/respond/core/statesync"
)

// SyncConfig defines settings for the session synchronization layer.
type SyncConfig struct {
	// SnapshotIntervalSeconds is how often the session mirror is
	// persisted.
	SnapshotIntervalSeconds int `json:"snapshot_interval_seconds"`
	// SnapshotDir is where per-session snapshots are written.
	SnapshotDir string `json:"snapshot_dir"`
}

// SetDefaults applies sane defaults.
func (c *SyncConfig) SetDefaults() {
	if c.SnapshotIntervalSeconds <= 0 {
		c.SnapshotIntervalSeconds = int(statesync.DefaultSnapshotInterval / time.Second)
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
}

// Validate checks mandatory fields.
func (c SyncConfig) Validate() error {
	if c.SnapshotDir == "" {
		return fmt.Errorf("snapshot_dir is required")
	}
	return nil
}

// Interval returns the snapshot period as a duration.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.SnapshotIntervalSeconds) * time.Second
}
