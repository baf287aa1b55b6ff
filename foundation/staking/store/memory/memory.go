// Package memory implements the ability to read and write pool checkpoints
// to memory using a slice. Used for tests and ephemeral runs.
package memory

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/liquidstake/foundation/staking/store"
)

// Memory represents the storage implementation for reading and storing
// checkpoints in memory using a slice. This implements the store.Store
// interface.
type Memory struct {
	mu        sync.RWMutex
	snapshots []store.Snapshot
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Save takes the specified snapshot and stores it in memory.
func (m *Memory) Save(snap store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := uint64(len(m.snapshots)) + 1
	if snap.Header.Sequence != expected {
		return fmt.Errorf("checkpoint out of order, got %d, exp %d", snap.Header.Sequence, expected)
	}

	m.snapshots = append(m.snapshots, snap)

	return nil
}

// Latest returns the most recent snapshot. The bool reports whether any
// checkpoint has been written yet.
func (m *Memory) Latest() (store.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.snapshots) == 0 {
		return store.Snapshot{}, false, nil
	}

	return m.snapshots[len(m.snapshots)-1], true, nil
}

// Header returns the checkpoint header for the specified sequence.
func (m *Memory) Header(sequence uint64) (store.CheckpointHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sequence == 0 || sequence > uint64(len(m.snapshots)) {
		return store.CheckpointHeader{}, fmt.Errorf("checkpoint %d does not exist", sequence)
	}

	return m.snapshots[sequence-1].Header, nil
}

// Count returns the number of checkpoints written.
func (m *Memory) Count() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return uint64(len(m.snapshots)), nil
}

// Reset will clear out all the checkpoints.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots = []store.Snapshot{}

	return nil
}
