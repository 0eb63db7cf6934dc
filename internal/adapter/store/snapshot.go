package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"treewalk/walk"
)

var (
	bucketSnapshots = []byte("snapshots")
	bucketEntries   = []byte("entries")
)

// SnapshotStore persists ordered walk listings in a bolt database.
type SnapshotStore struct {
	db *bbolt.DB
}

func NewSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketSnapshots, bucketEntries} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Snapshot describes one stored walk listing.
type Snapshot struct {
	ID      string
	Root    string
	TakenAt time.Time
	Count   int
}

type snapshotMeta struct {
	Root    string `json:"root"`
	TakenAt int64  `json:"taken_at"`
	Count   int    `json:"count"`
}

type entryMeta struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind"` // "file", "dir", "symlink", or "other"
}

func kindOf(e walk.Entry) string {
	switch {
	case e.IsFile:
		return "file"
	case e.IsDir:
		return "dir"
	case e.IsSymlink:
		return "symlink"
	default:
		return "other"
	}
}

func flagsOf(kind string) walk.FileInfo {
	switch kind {
	case "file":
		return walk.FileInfo{IsFile: true}
	case "dir":
		return walk.FileInfo{IsDir: true}
	case "symlink":
		return walk.FileInfo{IsSymlink: true}
	default:
		return walk.FileInfo{}
	}
}

// PutSnapshot stores the metadata and the full entry list, preserving
// listing order across round-trips.
func (s *SnapshotStore) PutSnapshot(snap Snapshot, entries []walk.Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := snapshotMeta{
			Root:    snap.Root,
			TakenAt: snap.TakenAt.Unix(),
			Count:   len(entries),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketSnapshots).Put([]byte(snap.ID), data); err != nil {
			return err
		}

		parent := tx.Bucket(bucketEntries)
		if parent.Bucket([]byte(snap.ID)) != nil {
			if err := parent.DeleteBucket([]byte(snap.ID)); err != nil {
				return err
			}
		}
		b, err := parent.CreateBucket([]byte(snap.ID))
		if err != nil {
			return err
		}
		for i, e := range entries {
			em := entryMeta{Name: e.Name, Path: e.Path, Kind: kindOf(e)}
			data, err := json.Marshal(em)
			if err != nil {
				return err
			}
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], uint64(i))
			if err := b.Put(key[:], data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSnapshot returns a stored snapshot and its entries in the order
// they were yielded.
func (s *SnapshotStore) GetSnapshot(id string) (Snapshot, []walk.Entry, error) {
	var snap Snapshot
	var entries []walk.Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSnapshots).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("snapshot %s not found", id)
		}
		var meta snapshotMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		snap = Snapshot{
			ID:      id,
			Root:    meta.Root,
			TakenAt: time.Unix(meta.TakenAt, 0),
			Count:   meta.Count,
		}

		b := tx.Bucket(bucketEntries).Bucket([]byte(id))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var em entryMeta
			if err := json.Unmarshal(v, &em); err != nil {
				return err
			}
			entries = append(entries, walk.Entry{
				Name:     em.Name,
				Path:     em.Path,
				FileInfo: flagsOf(em.Kind),
			})
			return nil
		})
	})
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, entries, nil
}

// ListSnapshots returns all stored snapshots, oldest first.
func (s *SnapshotStore) ListSnapshots() ([]Snapshot, error) {
	var snaps []Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, v []byte) error {
			var meta snapshotMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			snaps = append(snaps, Snapshot{
				ID:      string(k),
				Root:    meta.Root,
				TakenAt: time.Unix(meta.TakenAt, 0),
				Count:   meta.Count,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].TakenAt.Before(snaps[j].TakenAt)
	})
	return snaps, nil
}

// DeleteSnapshot removes a snapshot and its entries.
func (s *SnapshotStore) DeleteSnapshot(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSnapshots).Delete([]byte(id)); err != nil {
			return err
		}
		parent := tx.Bucket(bucketEntries)
		if parent.Bucket([]byte(id)) != nil {
			return parent.DeleteBucket([]byte(id))
		}
		return nil
	})
}
