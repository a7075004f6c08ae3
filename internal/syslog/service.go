package syslog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	errors "github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/core/slice"
)

const basePath = "/logs"

type ServiceAPI interface {
	List(ctx context.Context, filter slice.Filter) (slice.ListResult[Entry], error)
	Search(ctx context.Context, dto SearchDTO) (slice.ListResult[Entry], error)
	Stats(ctx context.Context) (Stats, error)
	Count(ctx context.Context) (int64, error)
	CountByLevel(ctx context.Context, level Level) (int64, error)
	Delete(ctx context.Context, id int64) error
	Cleanup(ctx context.Context, days int) error
	CreateTest(ctx context.Context, dto TestLogDTO) error
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

func (s *Service) List(ctx context.Context, filter slice.Filter) (slice.ListResult[Entry], error) {
	return apiclient.FetchList[Entry](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath, Query: filter.Values()})
}

func (s *Service) Search(ctx context.Context, dto SearchDTO) (slice.ListResult[Entry], error) {
	if err := dto.Validate(); err != nil {
		return slice.ListResult[Entry]{}, err
	}
	return apiclient.FetchList[Entry](ctx, s.api, &apiclient.Request{Method: http.MethodPost, Path: basePath + "/search", Body: dto.body()})
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return apiclient.FetchData[Stats](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/stats"})
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return apiclient.FetchData[int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/count"})
}

func (s *Service) CountByLevel(ctx context.Context, level Level) (int64, error) {
	return apiclient.FetchData[int64](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/count/level/" + string(level)})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: fmt.Sprintf("%s/%d", basePath, id)})
	return err
}

// Cleanup removes entries older than days; zero means DefaultCleanupDays.
func (s *Service) Cleanup(ctx context.Context, days int) error {
	if days < 0 {
		return errors.NewValidationFieldError("days", "days must not be negative", errors.ErrCodeValidationFailed)
	}
	if days == 0 {
		days = DefaultCleanupDays
	}
	if _, err := s.api.Do(ctx, &apiclient.Request{
		Method: http.MethodDelete,
		Path:   basePath + "/cleanup",
		Query:  url.Values{"days": {strconv.Itoa(days)}},
	}); err != nil {
		return err
	}
	s.logger.Info("system log cleaned up", "days", days)
	return nil
}

func (s *Service) CreateTest(ctx context.Context, dto TestLogDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: basePath + "/test", Body: dto})
	return err
}
