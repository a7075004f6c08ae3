package menu

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/admin-console/internal/core/slice"
)

// Slice is the cached flat menu listing.
type Slice struct {
	*slice.Slice[Menu]
	svc ServiceAPI
}

func NewSlice(svc ServiceAPI, logger *slog.Logger) *Slice {
	return &Slice{
		Slice: slice.New[Menu]("menus", logger),
		svc:   svc,
	}
}

func (s *Slice) Fetch(ctx context.Context, filter slice.Filter) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[Menu], error) {
		return s.svc.List(ctx, filter)
	})
}

func (s *Slice) Add(ctx context.Context, dto MenuDTO) (Menu, error) {
	return s.Create(ctx, func(ctx context.Context) (Menu, error) {
		return s.svc.Create(ctx, dto)
	})
}

func (s *Slice) Edit(ctx context.Context, id int64, dto MenuDTO) (Menu, error) {
	return s.Update(ctx, id, func(ctx context.Context) (Menu, error) {
		return s.svc.Update(ctx, id, dto)
	})
}

func (s *Slice) Reorder(ctx context.Context, id int64, orderNum int) (Menu, error) {
	return s.Update(ctx, id, func(ctx context.Context) (Menu, error) {
		if err := s.svc.UpdateOrder(ctx, id, orderNum); err != nil {
			return Menu{}, err
		}
		return s.svc.Get(ctx, id)
	})
}

func (s *Slice) ToggleVisibility(ctx context.Context, id int64) (Menu, error) {
	return s.Update(ctx, id, func(ctx context.Context) (Menu, error) {
		if err := s.svc.ToggleVisibility(ctx, id); err != nil {
			return Menu{}, err
		}
		return s.svc.Get(ctx, id)
	})
}

func (s *Slice) Delete(ctx context.Context, id int64) error {
	return s.Remove(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}

// Tree builds the forest from the cached items.
func (s *Slice) Tree() []*Node {
	return BuildTree(s.Items())
}
