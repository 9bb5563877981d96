package core

import (
	"errors"
	"sync/atomic"
)

// SnapshotStore holds the published Snapshot. It accepts exactly one
// publish; reads never block. Callers must treat the Snapshot as read-only.
type SnapshotStore struct {
	snap atomic.Pointer[Snapshot]
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish stores snap. Returns ErrSnapshotAlreadyPublished if a snapshot is
// already present.
func (s *SnapshotStore) Publish(snap *Snapshot) error {
	if snap == nil {
		return errors.New("publish: nil snapshot")
	}
	if !s.snap.CompareAndSwap(nil, snap) {
		return ErrSnapshotAlreadyPublished
	}
	return nil
}

// Load returns the published snapshot or ErrSnapshotNotReady.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrSnapshotNotReady
	}
	return snap, nil
}

// Ready reports whether a snapshot has been published.
func (s *SnapshotStore) Ready() bool {
	return s.snap.Load() != nil
}
