package permission

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

const basePath = "/permissions"

type ServiceAPI interface {
	List(ctx context.Context, filter slice.Filter) (slice.ListResult[Permission], error)
	Get(ctx context.Context, id int64) (Permission, error)
	ByRole(ctx context.Context, roleID int64) ([]Permission, error)
	ByRoleWithMenus(ctx context.Context, roleID int64) ([]Permission, error)
	ByMenu(ctx context.Context, menuID int64) ([]Permission, error)
	ByUser(ctx context.Context, userID int64) ([]Permission, error)
	Create(ctx context.Context, p Permission) (Permission, error)
	Update(ctx context.Context, id int64, p Permission) (Permission, error)
	Delete(ctx context.Context, id int64) error
	DeleteForRoleMenu(ctx context.Context, roleID, menuID int64) error
	BatchCreate(ctx context.Context, perms []Permission) error
	ReplaceForRole(ctx context.Context, roleID int64, perms []Permission) error
	Check(ctx context.Context, userID, menuID int64, action Action) (bool, error)
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

func (s *Service) list(ctx context.Context, path string) ([]Permission, error) {
	return apiclient.FetchData[[]Permission](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: path})
}

func (s *Service) List(ctx context.Context, filter slice.Filter) (slice.ListResult[Permission], error) {
	return apiclient.FetchList[Permission](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath, Query: filter.Values()})
}

func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return apiclient.FetchData[Permission](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: fmt.Sprintf("%s/%d", basePath, id)})
}

func (s *Service) ByRole(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.list(ctx, fmt.Sprintf("%s/role/%d", basePath, roleID))
}

func (s *Service) ByRoleWithMenus(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.list(ctx, fmt.Sprintf("%s/role/%d/details", basePath, roleID))
}

func (s *Service) ByMenu(ctx context.Context, menuID int64) ([]Permission, error) {
	return s.list(ctx, fmt.Sprintf("%s/menu/%d", basePath, menuID))
}

func (s *Service) ByUser(ctx context.Context, userID int64) ([]Permission, error) {
	return s.list(ctx, fmt.Sprintf("%s/user/%d", basePath, userID))
}

func (s *Service) Create(ctx context.Context, p Permission) (Permission, error) {
	return apiclient.FetchData[Permission](ctx, s.api, &apiclient.Request{Method: http.MethodPost, Path: basePath, Body: p})
}

func (s *Service) Update(ctx context.Context, id int64, p Permission) (Permission, error) {
	return apiclient.FetchData[Permission](ctx, s.api, &apiclient.Request{Method: http.MethodPut, Path: fmt.Sprintf("%s/%d", basePath, id), Body: p})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: fmt.Sprintf("%s/%d", basePath, id)})
	return err
}

func (s *Service) DeleteForRoleMenu(ctx context.Context, roleID, menuID int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: fmt.Sprintf("%s/role/%d/menu/%d", basePath, roleID, menuID)})
	return err
}

func (s *Service) BatchCreate(ctx context.Context, perms []Permission) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: basePath + "/batch", Body: perms})
	return err
}

// ReplaceForRole submits the full access list of one role.
func (s *Service) ReplaceForRole(ctx context.Context, roleID int64, perms []Permission) error {
	if perms == nil {
		perms = []Permission{}
	}
	for i := range perms {
		perms[i].RoleID = roleID
	}
	if _, err := s.api.Do(ctx, &apiclient.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/role/%d/batch", basePath, roleID),
		Body:   perms,
	}); err != nil {
		return err
	}
	s.logger.Info("role permissions replaced", "role_id", roleID, "count", len(perms))
	return nil
}

func (s *Service) Check(ctx context.Context, userID, menuID int64, action Action) (bool, error) {
	return apiclient.FetchData[bool](ctx, s.api, &apiclient.Request{
		Method: http.MethodGet,
		Path:   basePath + "/check",
		Query: url.Values{
			"userId":         {strconv.FormatInt(userID, 10)},
			"menuId":         {strconv.FormatInt(menuID, 10)},
			"permissionType": {string(action)},
		},
	})
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return apiclient.FetchData[int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/count"})
}
