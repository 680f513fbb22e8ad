package valuesnapshots

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

const (
	defaultSnapshotDir   = "./wal/values"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKey          = "value_snapshot"
)

// WALStore persists portfolio value snapshots in a WAL so the value history
// survives restarts and can be streamed to the dashboard.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: snapshotSegmentLimit,
		MaxSegments:      snapshotMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init value snapshot WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the snapshot and returns its index.
func (s *WALStore) Save(snapshot domain.ValueSnapshot) (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errors.New("value snapshot store is not initialized")
	}
	if snapshot.Timestamp.IsZero() {
		return 0, errors.New("value snapshot timestamp is required")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return 0, errors.Wrap(err, "marshal value snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, snapshotKey, payload); err != nil {
		return 0, errors.Wrap(err, "write value snapshot")
	}
	return nextIndex, nil
}

// SnapshotsAfter returns all value snapshots written after the provided WAL index.
func (s *WALStore) SnapshotsAfter(index uint64) ([]domain.ValueSnapshotRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("value snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.ValueSnapshotRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, snapshotKey) {
			continue
		}
		var snapshot domain.ValueSnapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.Wrap(err, "decode value snapshot")
		}
		records = append(records, domain.ValueSnapshotRecord{
			Index:    idx,
			Snapshot: snapshot,
		})
	}

	return records, nil
}

// Latest returns the most recent snapshot, or nil when nothing was saved yet.
func (s *WALStore) Latest() (*domain.ValueSnapshot, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("value snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx := s.wal.CurrentIndex(); idx > 0; idx-- {
		key, payload, ok := s.wal.Get(idx)
		if !ok || !strings.HasPrefix(key, snapshotKey) {
			continue
		}
		var snapshot domain.ValueSnapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.Wrap(err, "decode value snapshot")
		}
		return &snapshot, nil
	}

	return nil, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("value snapshot store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
