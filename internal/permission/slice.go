package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/core/slice"
)

// Slice caches the rows of one role and mirrors them into a Set for
// lookups.
type Slice struct {
	*slice.Slice[Permission]
	svc    ServiceAPI
	logger *slog.Logger
}

func NewSlice(svc ServiceAPI, logger *slog.Logger) *Slice {
	return &Slice{
		Slice:  slice.New[Permission]("permissions", logger),
		svc:    svc,
		logger: logger,
	}
}

func (s *Slice) Fetch(ctx context.Context, filter slice.Filter) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[Permission], error) {
		return s.svc.List(ctx, filter)
	})
}

// FetchRole loads the detailed rows of roleID.
func (s *Slice) FetchRole(ctx context.Context, roleID int64) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[Permission], error) {
		perms, err := s.svc.ByRoleWithMenus(ctx, roleID)
		if err != nil {
			return slice.ListResult[Permission]{}, err
		}
		return slice.ListResult[Permission]{Items: perms}, nil
	})
}

func (s *Slice) Add(ctx context.Context, p Permission) (Permission, error) {
	return s.Create(ctx, func(ctx context.Context) (Permission, error) {
		return s.svc.Create(ctx, p)
	})
}

func (s *Slice) Edit(ctx context.Context, id int64, p Permission) (Permission, error) {
	return s.Update(ctx, id, func(ctx context.Context) (Permission, error) {
		return s.svc.Update(ctx, id, p)
	})
}

func (s *Slice) Delete(ctx context.Context, id int64) error {
	return s.Remove(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}

// Save submits g and reloads the role so the cache carries server ids.
func (s *Slice) Save(ctx context.Context, g *Grants) error {
	if err := s.svc.ReplaceForRole(ctx, g.roleID, g.Batch()); err != nil {
		return err
	}
	return s.FetchRole(ctx, g.roleID)
}

// Set returns the cached rows as a lookup set.
func (s *Slice) Set() *Set {
	return NewSet(s.Items()...)
}
