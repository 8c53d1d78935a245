package snapshots

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vportnov/balancetrack/internal/domain"
)

const (
	defaultSnapshotDir   = "./wal/snapshots"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKeyPrefix    = "snapshot_"
)

// WALStore persists portfolio snapshots in an append-only WAL. Records are
// keyed by user and written in tick order, so a forward scan yields each
// user's history ascending by timestamp.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) a WAL-backed snapshot store under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "segment_",
		SegmentThreshold: snapshotSegmentLimit,
		MaxSegments:      snapshotMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init snapshot WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends one snapshot. Snapshots are immutable once written.
func (s *WALStore) Save(snapshot domain.Snapshot) error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot store is not initialized")
	}
	if snapshot.User == "" {
		return errors.New("snapshot user is required")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	key := fmt.Sprintf("%s%s", snapshotKeyPrefix, snapshot.User)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// Range returns the user's snapshots with start <= timeStamp <= end,
// ascending by write order.
func (s *WALStore) Range(user string, start, end int64) ([]domain.Snapshot, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("snapshot store is not initialized")
	}

	key := snapshotKeyPrefix + user

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Snapshot
	current := s.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		recordKey, payload, err := s.wal.Get(idx)
		if err != nil || recordKey != key {
			continue
		}
		var snapshot domain.Snapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.Wrap(err, "decode snapshot")
		}
		if snapshot.TimeStamp < start || snapshot.TimeStamp > end {
			continue
		}
		result = append(result, snapshot)
	}
	return result, nil
}

// Users lists the distinct users that have at least one stored snapshot.
func (s *WALStore) Users() ([]string, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var users []string
	current := s.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		key, _, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, snapshotKeyPrefix) {
			continue
		}
		user := strings.TrimPrefix(key, snapshotKeyPrefix)
		if _, dup := seen[user]; dup {
			continue
		}
		seen[user] = struct{}{}
		users = append(users, user)
	}
	return users, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
