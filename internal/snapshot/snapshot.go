package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	snapshotDatamodel "github.com/frahmantamala/admin-console/internal/core/datamodel/snapshot"
	"github.com/jmoiron/sqlx"
)

type RepositoryAPI interface {
	Save(ctx context.Context, resource string, payload any) error
	Load(ctx context.Context, resource string) (*snapshotDatamodel.Snapshot, error)
	Delete(ctx context.Context, resource string) error
}

// Repository stores the last good listing per resource in resource_snapshots.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) Save(ctx context.Context, resource string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", resource, err)
	}

	query := r.db.Rebind(`INSERT INTO resource_snapshots (resource, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT (resource) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`)
	if _, err := r.db.ExecContext(ctx, query, resource, string(raw), r.now().UTC()); err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", resource, err)
	}
	return nil
}

// Load returns nil when the resource has never been saved.
func (r *Repository) Load(ctx context.Context, resource string) (*snapshotDatamodel.Snapshot, error) {
	var snap snapshotDatamodel.Snapshot
	query := r.db.Rebind(`SELECT resource, payload, fetched_at FROM resource_snapshots WHERE resource = ?`)
	if err := r.db.GetContext(ctx, &snap, query, resource); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s snapshot: %w", resource, err)
	}
	return &snap, nil
}

func (r *Repository) Delete(ctx context.Context, resource string) error {
	query := r.db.Rebind(`DELETE FROM resource_snapshots WHERE resource = ?`)
	if _, err := r.db.ExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("failed to delete %s snapshot: %w", resource, err)
	}
	return nil
}

// Result is a listing together with where it came from.
type Result[T any] struct {
	Data      T
	Stale     bool
	FetchedAt time.Time
}

// Through runs fetch and records its result. When the backend is unreachable
// the last saved listing is served instead, marked stale. Any other failure,
// or a network failure with nothing saved, is returned unchanged.
func Through[T any](ctx context.Context, repo RepositoryAPI, logger *slog.Logger, resource string, fetch func(context.Context) (T, error)) (Result[T], error) {
	data, err := fetch(ctx)
	if err == nil {
		if saveErr := repo.Save(ctx, resource, data); saveErr != nil {
			logger.Warn("failed to save snapshot", "resource", resource, "error", saveErr)
		}
		return Result[T]{Data: data, FetchedAt: time.Now()}, nil
	}

	if !internal.IsType(err, internal.ErrorTypeNetwork) {
		return Result[T]{}, err
	}

	snap, loadErr := repo.Load(ctx, resource)
	if loadErr != nil {
		logger.Warn("failed to load snapshot", "resource", resource, "error", loadErr)
		return Result[T]{}, err
	}
	if snap == nil {
		return Result[T]{}, err
	}

	var cached T
	if decodeErr := json.Unmarshal([]byte(snap.Payload), &cached); decodeErr != nil {
		logger.Warn("ignoring unreadable snapshot", "resource", resource, "error", decodeErr)
		return Result[T]{}, err
	}

	logger.Info("serving stale snapshot", "resource", resource, "fetched_at", snap.FetchedAt)
	return Result[T]{Data: cached, Stale: true, FetchedAt: snap.FetchedAt}, nil
}
