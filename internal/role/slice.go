package role

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/core/slice"
)

// Slice is the cached role listing.
type Slice struct {
	*slice.Slice[Role]
	svc ServiceAPI
}

func NewSlice(svc ServiceAPI, logger *slog.Logger) *Slice {
	return &Slice{
		Slice: slice.New[Role]("roles", logger),
		svc:   svc,
	}
}

func (s *Slice) Fetch(ctx context.Context, filter slice.Filter) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[Role], error) {
		return s.svc.List(ctx, filter)
	})
}

func (s *Slice) Add(ctx context.Context, dto RoleDTO) (Role, error) {
	return s.Create(ctx, func(ctx context.Context) (Role, error) {
		return s.svc.Create(ctx, dto)
	})
}

func (s *Slice) Edit(ctx context.Context, id int64, dto RoleDTO) (Role, error) {
	return s.Update(ctx, id, func(ctx context.Context) (Role, error) {
		return s.svc.Update(ctx, id, dto)
	})
}

// SetActive flips the role and reloads it, since the backend answers the
// activation endpoints without a body.
func (s *Slice) SetActive(ctx context.Context, id int64, active bool) (Role, error) {
	return s.Update(ctx, id, func(ctx context.Context) (Role, error) {
		var err error
		if active {
			err = s.svc.Activate(ctx, id)
		} else {
			err = s.svc.Deactivate(ctx, id)
		}
		if err != nil {
			return Role{}, err
		}
		return s.svc.Get(ctx, id)
	})
}

func (s *Slice) Delete(ctx context.Context, id int64) error {
	return s.Remove(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}
