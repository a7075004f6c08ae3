package role

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/core/slice"
)

const basePath = "/roles"

type ServiceAPI interface {
	List(ctx context.Context, filter slice.Filter) (slice.ListResult[Role], error)
	Active(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, dto RoleDTO) (Role, error)
	Update(ctx context.Context, id int64, dto RoleDTO) (Role, error)
	Delete(ctx context.Context, id int64) error
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	AssignUser(ctx context.Context, roleID, userID int64) error
	RemoveUser(ctx context.Context, roleID, userID int64) error
	UserIDs(ctx context.Context, roleID int64) ([]int64, error)
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

func (s *Service) List(ctx context.Context, filter slice.Filter) (slice.ListResult[Role], error) {
	return apiclient.FetchList[Role](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath, Query: filter.Values()})
}

func (s *Service) Active(ctx context.Context) ([]Role, error) {
	return apiclient.FetchData[[]Role](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/active"})
}

func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return apiclient.FetchData[Role](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: itemPath(id, "")})
}

func (s *Service) Create(ctx context.Context, dto RoleDTO) (Role, error) {
	if err := dto.Validate(); err != nil {
		return Role{}, err
	}
	created, err := apiclient.FetchData[Role](ctx, s.api, &apiclient.Request{Method: http.MethodPost, Path: basePath, Body: dto})
	if err != nil {
		return Role{}, err
	}
	s.logger.Info("role created", "role_id", created.ID, "role_name", created.RoleName)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto RoleDTO) (Role, error) {
	if err := dto.Validate(); err != nil {
		return Role{}, err
	}
	return apiclient.FetchData[Role](ctx, s.api, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, ""), Body: dto})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: itemPath(id, "")})
	return err
}

func (s *Service) Activate(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, "/activate")})
	return err
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, "/deactivate")})
	return err
}

func (s *Service) AssignUser(ctx context.Context, roleID, userID int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: itemPath(roleID, fmt.Sprintf("/assign-user/%d", userID))})
	return err
}

func (s *Service) RemoveUser(ctx context.Context, roleID, userID int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: itemPath(roleID, fmt.Sprintf("/remove-user/%d", userID))})
	return err
}

func (s *Service) UserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	return apiclient.FetchData[[]int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: itemPath(roleID, "/users")})
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return apiclient.FetchData[int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/count"})
}
