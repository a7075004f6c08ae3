package syslog

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/slice"
)

// Slice caches one page of log entries. Entries are read-only, so Create and
// Update are rejected.
type Slice struct {
	*slice.Slice[Entry]
	svc ServiceAPI
}

func NewSlice(svc ServiceAPI, logger *slog.Logger) *Slice {
	return &Slice{
		Slice: slice.New[Entry]("logs", logger),
		svc:   svc,
	}
}

func (s *Slice) Fetch(ctx context.Context, filter slice.Filter) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[Entry], error) {
		return s.svc.List(ctx, filter)
	})
}

func (s *Slice) Search(ctx context.Context, dto SearchDTO) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[Entry], error) {
		return s.svc.Search(ctx, dto)
	})
}

func (s *Slice) Create(ctx context.Context, _ func(ctx context.Context) (Entry, error)) (Entry, error) {
	return Entry{}, errors.ErrUnsupportedOperation
}

func (s *Slice) Update(ctx context.Context, _ int64, _ func(ctx context.Context) (Entry, error)) (Entry, error) {
	return Entry{}, errors.ErrUnsupportedOperation
}

func (s *Slice) Delete(ctx context.Context, id int64) error {
	return s.Remove(ctx, id, func(ctx context.Context) error {
		return s.svc.Delete(ctx, id)
	})
}
