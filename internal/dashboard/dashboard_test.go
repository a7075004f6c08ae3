package dashboard_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient/apiclienttest"
	"github.com/frahmantamala/admin-console/internal/dashboard"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDashboard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dashboard Suite")
}

var _ = Describe("Dashboard", func() {
	var (
		ctx context.Context
		api *apiclienttest.Requester
		svc *dashboard.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = apiclienttest.New()
		svc = dashboard.NewService(api, logger.Discard())
	})

	It("should read wrapped stats", func() {
		api.On(http.MethodGet, "/dashboard/stats", http.StatusOK, apiclienttest.Wrap(map[string]any{
			"totalUsers": 5, "activeUsers": 4, "inactiveUsers": 1, "totalLogs": 120, "todayLogs": 8,
		}))

		stats, err := svc.Stats(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalUsers).To(Equal(int64(5)))
		Expect(stats.InactiveUsers).To(Equal(int64(1)))
		Expect(stats.TodayLogs).To(Equal(int64(8)))
	})

	It("should ask for ten activities by default", func() {
		api.On(http.MethodGet, "/dashboard/recent-activities", http.StatusOK, `[{"id":1,"level":"INFO","message":"login"}]`)

		entries, err := svc.RecentActivities(ctx, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(api.LastCall().Query.Get("limit")).To(Equal("10"))
	})

	It("should propagate a network failure", func() {
		api.SetShouldFail(true, internal.NewNetworkError("backend unreachable", internal.ErrCodeConnectionFailed, nil))

		_, err := svc.Stats(ctx)

		Expect(internal.IsType(err, internal.ErrorTypeNetwork)).To(BeTrue())
	})
})
