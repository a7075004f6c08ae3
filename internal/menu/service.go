package menu

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/core/slice"
)

const basePath = "/menus"

type ServiceAPI interface {
	List(ctx context.Context, filter slice.Filter) (slice.ListResult[Menu], error)
	Tree(ctx context.Context) ([]Menu, error)
	UserMenus(ctx context.Context) ([]Menu, error)
	Get(ctx context.Context, id int64) (Menu, error)
	Create(ctx context.Context, dto MenuDTO) (Menu, error)
	Update(ctx context.Context, id int64, dto MenuDTO) (Menu, error)
	Delete(ctx context.Context, id int64) error
	UpdateOrder(ctx context.Context, id int64, orderNum int) error
	ToggleVisibility(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) ([]Menu, error)
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	api    apiclient.Requester
	logger *slog.Logger
}

var _ ServiceAPI = (*Service)(nil)

func NewService(api apiclient.Requester, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

func itemPath(id int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", basePath, id, suffix)
}

func (s *Service) List(ctx context.Context, filter slice.Filter) (slice.ListResult[Menu], error) {
	return apiclient.FetchList[Menu](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath, Query: filter.Values()})
}

// Tree returns the backend's nested rendering of all menus.
func (s *Service) Tree(ctx context.Context) ([]Menu, error) {
	return apiclient.FetchData[[]Menu](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/tree"})
}

// UserMenus returns the menus the caller may read, each with its access row.
func (s *Service) UserMenus(ctx context.Context) ([]Menu, error) {
	return apiclient.FetchData[[]Menu](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/user"})
}

func (s *Service) Get(ctx context.Context, id int64) (Menu, error) {
	return apiclient.FetchData[Menu](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: itemPath(id, "")})
}

func (s *Service) Create(ctx context.Context, dto MenuDTO) (Menu, error) {
	if err := dto.Validate(); err != nil {
		return Menu{}, err
	}
	return apiclient.FetchData[Menu](ctx, s.api, &apiclient.Request{Method: http.MethodPost, Path: basePath, Body: dto})
}

func (s *Service) Update(ctx context.Context, id int64, dto MenuDTO) (Menu, error) {
	if err := dto.Validate(); err != nil {
		return Menu{}, err
	}
	return apiclient.FetchData[Menu](ctx, s.api, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, ""), Body: dto})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: itemPath(id, "")})
	return err
}

func (s *Service) UpdateOrder(ctx context.Context, id int64, orderNum int) error {
	_, err := s.api.Do(ctx, &apiclient.Request{
		Method: http.MethodPut,
		Path:   itemPath(id, "/order"),
		Query:  url.Values{"orderNum": {strconv.Itoa(orderNum)}},
	})
	return err
}

func (s *Service) ToggleVisibility(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, "/visibility")})
	return err
}

func (s *Service) Search(ctx context.Context, keyword string) ([]Menu, error) {
	return apiclient.FetchData[[]Menu](ctx, s.api, &apiclient.Request{
		Method: http.MethodGet,
		Path:   basePath + "/search",
		Query:  url.Values{"keyword": {keyword}},
	})
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return apiclient.FetchData[int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/count"})
}
