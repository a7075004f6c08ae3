// Package dashboard reads the summary figures shown on the console landing
// page.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/syslog"
)

const (
	basePath = "/dashboard"

	DefaultActivityLimit = 10
)

type Stats struct {
	TotalUsers       int64 `json:"totalUsers"`
	ActiveUsers      int64 `json:"activeUsers"`
	InactiveUsers    int64 `json:"inactiveUsers"`
	TotalRoles       int64 `json:"totalRoles"`
	ActiveRoles      int64 `json:"activeRoles"`
	TotalMenus       int64 `json:"totalMenus"`
	VisibleMenus     int64 `json:"visibleMenus"`
	TotalPermissions int64 `json:"totalPermissions"`
	TotalLogs        int64 `json:"totalLogs"`
	TodayLogs        int64 `json:"todayLogs"`
}

type ServiceAPI interface {
	Stats(ctx context.Context) (Stats, error)
	RecentActivities(ctx context.Context, limit int) ([]syslog.Entry, error)
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

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return apiclient.FetchData[Stats](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/stats"})
}

// RecentActivities returns the newest log entries; limit <= 0 means
// DefaultActivityLimit.
func (s *Service) RecentActivities(ctx context.Context, limit int) ([]syslog.Entry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	res, err := apiclient.FetchList[syslog.Entry](ctx, s.api, &apiclient.Request{
		Method: http.MethodGet,
		Path:   basePath + "/recent-activities",
		Query:  url.Values{"limit": {strconv.Itoa(limit)}},
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
