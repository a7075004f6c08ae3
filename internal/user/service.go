package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/core/slice"
)

const basePath = "/users"

type ServiceAPI interface {
	List(ctx context.Context, filter slice.Filter) (slice.ListResult[User], error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, dto CreateUserDTO) (User, error)
	Update(ctx context.Context, id int64, dto UpdateUserDTO) (User, error)
	Delete(ctx context.Context, id int64) error
	Roles(ctx context.Context, id int64) ([]RoleRef, error)
	UpdateRoles(ctx context.Context, id int64, roleIDs []int64) error
	ResetPassword(ctx context.Context, id int64, dto ResetPasswordDTO) error
	AdminResetPassword(ctx context.Context, id int64) (string, error)
	ToggleStatus(ctx context.Context, id int64) (User, error)
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

func (s *Service) List(ctx context.Context, filter slice.Filter) (slice.ListResult[User], error) {
	return apiclient.FetchList[User](ctx, s.api, &apiclient.Request{
		Method: http.MethodGet,
		Path:   basePath,
		Query:  filter.Values(),
	})
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return apiclient.FetchData[User](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: itemPath(id, "")})
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (User, error) {
	if err := dto.Validate(); err != nil {
		return User{}, err
	}
	created, err := apiclient.FetchData[User](ctx, s.api, &apiclient.Request{Method: http.MethodPost, Path: basePath, Body: dto})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", "user_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (User, error) {
	if err := dto.Validate(); err != nil {
		return User{}, err
	}
	return apiclient.FetchData[User](ctx, s.api, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, ""), Body: dto})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: itemPath(id, "")}); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

func (s *Service) Roles(ctx context.Context, id int64) ([]RoleRef, error) {
	return apiclient.FetchData[[]RoleRef](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: itemPath(id, "/roles")})
}

func (s *Service) UpdateRoles(ctx context.Context, id int64, roleIDs []int64) error {
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	_, err := s.api.Do(ctx, &apiclient.Request{
		Method: http.MethodPut,
		Path:   itemPath(id, "/roles"),
		Body:   UpdateRolesDTO{RoleIDs: roleIDs},
	})
	return err
}

func (s *Service) ResetPassword(ctx context.Context, id int64, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, "/password"), Body: dto})
	return err
}

// AdminResetPassword asks the backend to generate a temporary password and
// returns it. The user must change it on next login.
func (s *Service) AdminResetPassword(ctx context.Context, id int64) (string, error) {
	return apiclient.FetchData[string](ctx, s.api, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, "/reset-password")})
}

func (s *Service) ToggleStatus(ctx context.Context, id int64) (User, error) {
	return apiclient.FetchData[User](ctx, s.api, &apiclient.Request{Method: http.MethodPut, Path: itemPath(id, "/toggle-status")})
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return apiclient.FetchData[int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/count"})
}
