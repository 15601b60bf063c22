package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

var ErrNoSnapshot = errors.New("no snapshot stored yet")

// SnapshotStore keeps the most recent run only; saving replaces it.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Latest(ctx context.Context) (domain.Snapshot, error)
}
