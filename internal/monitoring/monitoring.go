// Package monitoring reads the backend's request statistics and health.
package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/frahmantamala/admin-console/internal/apiclient"
)

const (
	basePath = "/monitoring"

	DefaultLimit = 10
)

type Overall struct {
	TotalRequests         int64   `json:"totalRequests"`
	TotalErrors           int64   `json:"totalErrors"`
	CurrentActiveRequests int64   `json:"currentActiveRequests"`
	ErrorRate             float64 `json:"errorRate"`
}

// EndpointStats are the counters of one API path. Which fields are set
// depends on the endpoint that produced them.
type EndpointStats struct {
	Path                string  `json:"-"`
	TotalRequests       int64   `json:"totalRequests"`
	SuccessCount        int64   `json:"successCount"`
	ErrorCount          int64   `json:"errorCount"`
	AverageResponseTime float64 `json:"averageResponseTime"`
	MaxResponseTime     float64 `json:"maxResponseTime"`
	MinResponseTime     float64 `json:"minResponseTime"`
	ErrorRate           float64 `json:"errorRate"`
}

type APIStatistics struct {
	Overall Overall                  `json:"overall"`
	APIs    map[string]EndpointStats `json:"apis"`
}

// Endpoints returns the per-path stats ordered by path.
func (s APIStatistics) Endpoints() []EndpointStats {
	return endpoints(s.APIs, func(a, b EndpointStats) bool { return a.Path < b.Path })
}

// SystemStatus is passed through as returned; its sections vary by backend
// runtime.
type SystemStatus struct {
	JVM         map[string]any `json:"jvm,omitempty"`
	System      map[string]any `json:"system,omitempty"`
	Application map[string]any `json:"application,omitempty"`
	Health      map[string]any `json:"health,omitempty"`
	Timestamp   int64          `json:"timestamp"`
}

type ServiceAPI interface {
	APIStatistics(ctx context.Context) (APIStatistics, error)
	SlowAPIs(ctx context.Context, limit int) ([]EndpointStats, error)
	ErrorAPIs(ctx context.Context, limit int) ([]EndpointStats, error)
	SystemStatus(ctx context.Context) (SystemStatus, error)
	ResetStatistics(ctx context.Context) error
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

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

func (s *Service) APIStatistics(ctx context.Context) (APIStatistics, error) {
	return apiclient.FetchData[APIStatistics](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/api-statistics"})
}

// SlowAPIs returns the slowest paths, slowest first.
func (s *Service) SlowAPIs(ctx context.Context, limit int) ([]EndpointStats, error) {
	res, err := apiclient.FetchData[struct {
		SlowAPIs map[string]EndpointStats `json:"slowApis"`
	}](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/slow-apis", Query: limitQuery(limit)})
	if err != nil {
		return nil, err
	}
	return endpoints(res.SlowAPIs, func(a, b EndpointStats) bool {
		return a.AverageResponseTime > b.AverageResponseTime
	}), nil
}

// ErrorAPIs returns the paths with the highest error rate first.
func (s *Service) ErrorAPIs(ctx context.Context, limit int) ([]EndpointStats, error) {
	res, err := apiclient.FetchData[struct {
		ErrorAPIs map[string]EndpointStats `json:"errorApis"`
	}](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/error-apis", Query: limitQuery(limit)})
	if err != nil {
		return nil, err
	}
	return endpoints(res.ErrorAPIs, func(a, b EndpointStats) bool {
		return a.ErrorRate > b.ErrorRate
	}), nil
}

func (s *Service) SystemStatus(ctx context.Context) (SystemStatus, error) {
	return apiclient.FetchData[SystemStatus](ctx, s.api, &apiclient.Request{Method: http.MethodGet, Path: basePath + "/system-status"})
}

func (s *Service) ResetStatistics(ctx context.Context) error {
	if _, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodPost, Path: basePath + "/reset-statistics"}); err != nil {
		return err
	}
	s.logger.Info("api statistics reset")
	return nil
}

func endpoints(m map[string]EndpointStats, less func(a, b EndpointStats) bool) []EndpointStats {
	out := make([]EndpointStats, 0, len(m))
	for path, st := range m {
		st.Path = path
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if less(out[i], out[j]) {
			return true
		}
		if less(out[j], out[i]) {
			return false
		}
		return out[i].Path < out[j].Path
	})
	return out
}
