package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/core/slice"
)

// Slice is the cached user listing.
type Slice struct {
	*slice.Slice[User]
	svc ServiceAPI
}

func NewSlice(svc ServiceAPI, logger *slog.Logger) *Slice {
	return &Slice{
		Slice: slice.New[User]("users", logger),
		svc:   svc,
	}
}

func (s *Slice) Fetch(ctx context.Context, filter slice.Filter) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[User], error) {
		return s.svc.List(ctx, filter)
	})
}

func (s *Slice) Add(ctx context.Context, dto CreateUserDTO) (User, error) {
	return s.Create(ctx, func(ctx context.Context) (User, error) {
		return s.svc.Create(ctx, dto)
	})
}

func (s *Slice) Edit(ctx context.Context, id int64, dto UpdateUserDTO) (User, error) {
	return s.Update(ctx, id, func(ctx context.Context) (User, error) {
		return s.svc.Update(ctx, id, dto)
	})
}

func (s *Slice) ToggleStatus(ctx context.Context, id int64) (User, error) {
	return s.Update(ctx, id, func(ctx context.Context) (User, error) {
		return s.svc.ToggleStatus(ctx, id)
	})
}

func (s *Slice) Delete(ctx context.Context, id int64) error {
	return s.Remove(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}
