package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"treewalk/internal/adapter/store"
	"treewalk/walk"
)

// SnapshotUseCase drains walks into the snapshot store and compares
// stored snapshots.
type SnapshotUseCase struct {
	store *store.SnapshotStore
	keep  int
}

// NewSnapshotUseCase creates a new snapshot use case. keep bounds how
// many snapshots are retained per root; 0 keeps all of them.
func NewSnapshotUseCase(st *store.SnapshotStore, keep int) *SnapshotUseCase {
	return &SnapshotUseCase{store: st, keep: keep}
}

// Take walks root with the given options and persists the resulting
// entry sequence. observe, if non-nil, is called for every entry as
// it arrives (the CLI drives a progress spinner with it).
func (u *SnapshotUseCase) Take(ctx context.Context, root string, opts *walk.Options, observe func(walk.Entry)) (store.Snapshot, error) {
	var entries []walk.Entry
	for e, err := range walk.Walk(ctx, root, opts) {
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("walk failed: %w", err)
		}
		if observe != nil {
			observe(e)
		}
		entries = append(entries, e)
	}

	now := time.Now()
	snap := store.Snapshot{
		ID:      snapshotID(root, now),
		Root:    root,
		TakenAt: now,
		Count:   len(entries),
	}
	if err := u.store.PutSnapshot(snap, entries); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to store snapshot: %w", err)
	}

	if u.keep > 0 {
		if err := u.pruneRoot(root); err != nil {
			return store.Snapshot{}, fmt.Errorf("failed to prune old snapshots: %w", err)
		}
	}
	return snap, nil
}

func snapshotID(root string, at time.Time) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s@%d", root, at.UnixNano())))
	return hex.EncodeToString(h[:])[:12]
}

func (u *SnapshotUseCase) pruneRoot(root string) error {
	snaps, err := u.store.ListSnapshots()
	if err != nil {
		return err
	}
	var mine []store.Snapshot
	for _, s := range snaps {
		if s.Root == root {
			mine = append(mine, s)
		}
	}
	// ListSnapshots is oldest first; drop from the front.
	for len(mine) > u.keep {
		if err := u.store.DeleteSnapshot(mine[0].ID); err != nil {
			return err
		}
		mine = mine[1:]
	}
	return nil
}

// DiffResult is the delta between two snapshots.
type DiffResult struct {
	Added   []string // paths present only in the newer snapshot
	Removed []string // paths present only in the older snapshot
	Changed []string // paths whose node kind changed
}

// Empty reports whether the two snapshots listed identical trees.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares snapshot oldID against newID path by path.
func (u *SnapshotUseCase) Diff(oldID, newID string) (*DiffResult, error) {
	_, oldEntries, err := u.store.GetSnapshot(oldID)
	if err != nil {
		return nil, err
	}
	_, newEntries, err := u.store.GetSnapshot(newID)
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]walk.FileInfo, len(oldEntries))
	for _, e := range oldEntries {
		kinds[e.Path] = e.FileInfo
	}

	result := &DiffResult{}
	for _, e := range newEntries {
		old, ok := kinds[e.Path]
		if !ok {
			result.Added = append(result.Added, e.Path)
			continue
		}
		if old != e.FileInfo {
			result.Changed = append(result.Changed, e.Path)
		}
		delete(kinds, e.Path)
	}
	for path := range kinds {
		result.Removed = append(result.Removed, path)
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Changed)
	return result, nil
}
