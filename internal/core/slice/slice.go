// Package slice holds the cached, locally reduced view of one remote
// resource collection.
package slice

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
)

// Identifiable is implemented by every entity kept in a Slice.
type Identifiable interface {
	EntityID() int64
}

// IdentitySetter is implemented by entity pointers that can take the id of the
// request when a backend answers an update without one.
type IdentitySetter interface {
	SetEntityID(id int64)
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// Filter carries list query parameters.
type Filter map[string]string

// Values renders the non-empty entries as query parameters.
func (f Filter) Values() url.Values {
	if len(f) == 0 {
		return nil
	}
	v := url.Values{}
	for key, value := range f {
		if value != "" {
			v.Set(key, value)
		}
	}
	return v
}

type ListResult[T any] struct {
	Items      []T
	Pagination *Pagination
}

type State[T any] struct {
	Items      []T
	Loading    bool
	Err        error
	Pagination *Pagination
}

type Slice[T Identifiable] struct {
	name   string
	logger *slog.Logger

	mu         sync.RWMutex
	items      []T
	loading    bool
	err        error
	pagination *Pagination
}

func New[T Identifiable](name string, logger *slog.Logger) *Slice[T] {
	return &Slice[T]{
		name:   name,
		logger: logger,
		items:  []T{},
	}
}

func (s *Slice[T]) Name() string {
	return s.name
}

func (s *Slice[T]) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *Slice[T]) fail(err error) {
	s.mu.Lock()
	s.loading = false
	s.err = err
	s.mu.Unlock()
	s.logger.Warn("slice operation failed", "slice", s.name, "error", err)
}

// FetchAll replaces the items wholesale with what fetch returns. On failure
// the previous items stay in place and Err is set.
func (s *Slice[T]) FetchAll(ctx context.Context, fetch func(ctx context.Context) (ListResult[T], error)) error {
	s.begin()

	result, err := fetch(ctx)
	if err != nil {
		s.fail(err)
		return err
	}

	items := result.Items
	if items == nil {
		items = []T{}
	}

	s.mu.Lock()
	s.items = items
	s.pagination = result.Pagination
	s.loading = false
	s.mu.Unlock()

	s.logger.Debug("slice fetched", "slice", s.name, "count", len(items))
	return nil
}

// Create appends the entity returned by create once the backend confirms it.
func (s *Slice[T]) Create(ctx context.Context, create func(ctx context.Context) (T, error)) (T, error) {
	s.begin()

	created, err := create(ctx)
	if err != nil {
		s.fail(err)
		var zero T
		return zero, err
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.loading = false
	s.mu.Unlock()

	return created, nil
}

// Update replaces the cached entity with id by the entity update returns. A
// returned entity without an id is given id when *T is an IdentitySetter. An
// id that is not cached is not inserted.
func (s *Slice[T]) Update(ctx context.Context, id int64, update func(ctx context.Context) (T, error)) (T, error) {
	s.begin()

	updated, err := update(ctx)
	if err != nil {
		s.fail(err)
		var zero T
		return zero, err
	}

	if updated.EntityID() == 0 {
		if setter, ok := any(&updated).(IdentitySetter); ok {
			setter.SetEntityID(id)
		}
	}

	s.mu.Lock()
	replaced := false
	for i := range s.items {
		if s.items[i].EntityID() == id {
			s.items[i] = updated
			replaced = true
			break
		}
	}
	s.loading = false
	s.mu.Unlock()

	if !replaced {
		s.logger.Debug("updated entity not cached", "slice", s.name, "id", id)
	}
	return updated, nil
}

// Remove drops the entity with id after remove succeeds.
func (s *Slice[T]) Remove(ctx context.Context, id int64, remove func(ctx context.Context) error) error {
	s.begin()

	if err := remove(ctx); err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	kept := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if item.EntityID() != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.loading = false
	s.mu.Unlock()

	return nil
}

// Restore seeds the items without a remote call, e.g. from a local snapshot.
func (s *Slice[T]) Restore(items []T) {
	if items == nil {
		items = []T{}
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *Slice[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Slice[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (s *Slice[T]) State() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]T, len(s.items))
	copy(items, s.items)
	return State[T]{
		Items:      items,
		Loading:    s.loading,
		Err:        s.err,
		Pagination: s.pagination,
	}
}

func (s *Slice[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Slice[T]) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}
