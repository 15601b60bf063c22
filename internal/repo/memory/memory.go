package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/statusnotifier/internal/domain"
	"github.com/hamed0406/statusnotifier/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	snap *domain.Snapshot
}

func New() *Store {
	return &Store{}
}

func (m *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	cp := snap
	cp.Statuses = append([]domain.ServiceStatus(nil), snap.Statuses...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &cp
	return nil
}

func (m *Store) Latest(ctx context.Context) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return domain.Snapshot{}, repo.ErrNoSnapshot
	}
	cp := *m.snap
	cp.Statuses = append([]domain.ServiceStatus(nil), m.snap.Statuses...)
	return cp, nil
}
