package monitoring_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/frahmantamala/admin-console/internal/apiclient/apiclienttest"
	"github.com/frahmantamala/admin-console/internal/monitoring"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMonitoring(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Monitoring Suite")
}

var _ = Describe("Monitoring", func() {
	var (
		ctx context.Context
		api *apiclienttest.Requester
		svc *monitoring.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = apiclienttest.New()
		svc = monitoring.NewService(api, logger.Discard())
	})

	It("should order api statistics by path", func() {
		api.On(http.MethodGet, "/monitoring/api-statistics", http.StatusOK, apiclienttest.Wrap(map[string]any{
			"overall": map[string]any{"totalRequests": 30, "totalErrors": 3, "errorRate": 10.0},
			"apis": map[string]any{
				"GET /users": map[string]any{"totalRequests": 20, "errorCount": 1},
				"GET /menus": map[string]any{"totalRequests": 10, "errorCount": 2},
			},
		}))

		stats, err := svc.APIStatistics(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Overall.TotalErrors).To(Equal(int64(3)))
		eps := stats.Endpoints()
		Expect(eps).To(HaveLen(2))
		Expect(eps[0].Path).To(Equal("GET /menus"))
		Expect(eps[1].TotalRequests).To(Equal(int64(20)))
	})

	It("should order slow apis slowest first", func() {
		api.On(http.MethodGet, "/monitoring/slow-apis", http.StatusOK, apiclienttest.Wrap(map[string]any{
			"slowApis": map[string]any{
				"GET /a": map[string]any{"averageResponseTime": 12.5},
				"GET /b": map[string]any{"averageResponseTime": 250.0},
			},
			"limit": 5,
		}))

		slow, err := svc.SlowAPIs(ctx, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(slow).To(HaveLen(2))
		Expect(slow[0].Path).To(Equal("GET /b"))
		Expect(api.LastCall().Query.Get("limit")).To(Equal("5"))
	})

	It("should order error apis by error rate with a default limit", func() {
		api.On(http.MethodGet, "/monitoring/error-apis", http.StatusOK, apiclienttest.Wrap(map[string]any{
			"errorApis": map[string]any{
				"POST /x": map[string]any{"errorRate": 5.0},
				"POST /y": map[string]any{"errorRate": 50.0},
			},
		}))

		errs, err := svc.ErrorAPIs(ctx, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(errs[0].Path).To(Equal("POST /y"))
		Expect(api.LastCall().Query.Get("limit")).To(Equal("10"))
	})

	It("should pass system status sections through", func() {
		api.On(http.MethodGet, "/monitoring/system-status", http.StatusOK, apiclienttest.Wrap(map[string]any{
			"health":    map[string]any{"status": "UP"},
			"timestamp": 1700000000000,
		}))

		status, err := svc.SystemStatus(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(status.Health).To(HaveKeyWithValue("status", "UP"))
		Expect(status.Timestamp).To(Equal(int64(1700000000000)))
	})

	It("should reset statistics", func() {
		api.On(http.MethodPost, "/monitoring/reset-statistics", http.StatusOK, apiclienttest.Wrap(nil))

		Expect(svc.ResetStatistics(ctx)).To(Succeed())
		Expect(api.LastCall().Method).To(Equal(http.MethodPost))
	})
})
