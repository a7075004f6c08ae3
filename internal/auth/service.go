package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/session"
)

const (
	pathLogin               = apiclient.LoginPath
	pathRefresh             = apiclient.RefreshPath
	pathLogout              = "/auth/logout"
	pathMe                  = "/auth/me"
	pathProfile             = "/auth/profile"
	pathPassword            = "/auth/password"
	pathForceChangePassword = "/auth/force-change-password"
	pathRegister            = "/auth/register"
)

// ServiceAPI is everything the console does against the auth endpoints.
type ServiceAPI interface {
	session.AuthAPI
	ChangePassword(ctx context.Context, dto session.ChangePasswordDTO) error
	ForceChangePassword(ctx context.Context, dto session.ForceChangePasswordDTO) error
	Register(ctx context.Context, dto session.RegisterDTO) (session.UserProfile, error)
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

func (s *Service) Login(ctx context.Context, dto session.LoginDTO) (session.TokenResponse, error) {
	return apiclient.FetchData[session.TokenResponse](ctx, s.api, &apiclient.Request{
		Method:   http.MethodPost,
		Path:     pathLogin,
		Body:     dto,
		SkipAuth: true,
	})
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (session.TokenResponse, error) {
	return apiclient.FetchData[session.TokenResponse](ctx, s.api, &apiclient.Request{
		Method:   http.MethodPost,
		Path:     pathRefresh,
		Body:     session.RefreshTokenDTO{RefreshToken: refreshToken},
		SkipAuth: true,
	})
}

func (s *Service) Logout(ctx context.Context) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: pathLogout})
	return err
}

func (s *Service) CurrentUser(ctx context.Context) (session.UserProfile, error) {
	return apiclient.FetchData[session.UserProfile](ctx, s.api, &apiclient.Request{
		Method: http.MethodGet,
		Path:   pathMe,
	})
}

func (s *Service) UpdateProfile(ctx context.Context, dto session.UpdateProfileDTO) (session.UserProfile, error) {
	return apiclient.FetchData[session.UserProfile](ctx, s.api, &apiclient.Request{
		Method: http.MethodPut,
		Path:   pathProfile,
		Body:   dto,
	})
}

func (s *Service) ChangePassword(ctx context.Context, dto session.ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPut, Path: pathPassword, Body: dto})
	if err != nil {
		return err
	}
	s.logger.Info("password changed")
	return nil
}

func (s *Service) ForceChangePassword(ctx context.Context, dto session.ForceChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPut, Path: pathForceChangePassword, Body: dto})
	return err
}

func (s *Service) Register(ctx context.Context, dto session.RegisterDTO) (session.UserProfile, error) {
	if err := dto.Validate(); err != nil {
		return session.UserProfile{}, err
	}
	return apiclient.FetchData[session.UserProfile](ctx, s.api, &apiclient.Request{
		Method:   http.MethodPost,
		Path:     pathRegister,
		Body:     dto,
		SkipAuth: true,
	})
}
