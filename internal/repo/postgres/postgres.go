package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/domain"
	"github.com/hamed0406/statusnotifier/internal/repo"
)

var _ repo.SnapshotStore = (*Store)(nil)

// Schema holds only the latest status per service, not a history.
const Schema = `
CREATE TABLE IF NOT EXISTS service_status (
  position    INTEGER     NOT NULL,
  name        TEXT        PRIMARY KEY,
  url         TEXT        NOT NULL,
  status      TEXT        NOT NULL,
  status_code INTEGER     NULL,
  run_id      TEXT        NOT NULL,
  checked_at  TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM service_status`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	for i, st := range snap.Statuses {
		var code *int
		if st.StatusCode != 0 {
			c := st.StatusCode
			code = &c
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO service_status
			   (position, name, url, status, status_code, run_id, checked_at)
			 VALUES
			   ($1, $2, $3, $4, $5, $6, $7)`,
			i, st.Name, st.URL, string(st.Status), code, snap.RunID, snap.CheckedAt,
		)
		if err != nil {
			return fmt.Errorf("insert status %s: %w", st.Name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("snapshot_saved", zap.String("run_id", snap.RunID), zap.Int("services", len(snap.Statuses)))
	return nil
}

func (s *Store) Latest(ctx context.Context) (domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
SELECT name, url, status, status_code, run_id, checked_at
  FROM service_status
 ORDER BY position`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	var snap domain.Snapshot
	for rows.Next() {
		var (
			st        domain.ServiceStatus
			status    string
			code      sql.NullInt32
			runID     string
			checkedAt time.Time
		)
		if err := rows.Scan(&st.Name, &st.URL, &status, &code, &runID, &checkedAt); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan status: %w", err)
		}
		st.Status = domain.Health(status)
		if code.Valid {
			st.StatusCode = int(code.Int32)
		}
		snap.RunID = runID
		snap.CheckedAt = checkedAt
		snap.Statuses = append(snap.Statuses, st)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("latest rows: %w", err)
	}
	if len(snap.Statuses) == 0 {
		return domain.Snapshot{}, repo.ErrNoSnapshot
	}
	return snap, nil
}
