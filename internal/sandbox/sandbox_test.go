package sandbox_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/apiclient"
	"github.com/frahmantamala/admin-console/internal/auth"
	"github.com/frahmantamala/admin-console/internal/core/events"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/dashboard"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/monitoring"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/internal/sandbox"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"
)

type memoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func sandboxConfig() internal.SandboxConfig {
	return internal.SandboxConfig{
		AllowedOrigins:  "*",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		AccessSecret:    "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		WrapResponses:   true,
		TokenField:      "token",
	}
}

// console is one signed-out client of the sandbox.
type console struct {
	client  *apiclient.Client
	storage *memoryStorage
	session *session.Store
}

func newConsole(baseURL string) *console {
	c := &console{storage: &memoryStorage{values: map[string]string{}}}
	c.client = apiclient.NewClient(apiclient.Config{BaseURL: baseURL + sandbox.APIPrefix, Timeout: 5 * time.Second}, logger.Discard())
	c.session = session.NewStore(c.storage, auth.NewService(c.client, logger.Discard()), events.NewEventBus(logger.Discard()), logger.Discard())
	c.client.SetTokenSource(c.session)
	return c
}

var _ = Describe("Sandbox", func() {
	var (
		ctx    context.Context
		cfg    internal.SandboxConfig
		srv    *sandbox.Server
		server *httptest.Server
		admin  *console
	)

	start := func() {
		var err error
		srv, err = sandbox.New(ctx, cfg, logger.Discard(), sandbox.WithBcryptCost(bcrypt.MinCost))
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(srv.Router())
		DeferCleanup(server.Close)
		admin = newConsole(server.URL)
	}

	login := func(c *console, username, password string) {
		s, err := c.session.Login(ctx, session.LoginDTO{Username: username, Password: password})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.IsAuthenticated).To(BeTrue())
	}

	BeforeEach(func() {
		ctx = context.Background()
		cfg = sandboxConfig()
	})

	Context("with wrapped responses", func() {
		BeforeEach(start)

		It("should serve a valid OpenAPI document", func() {
			_, err := sandbox.LoadOpenAPI(ctx)
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.Get(server.URL + "/openapi.yml")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("openapi: 3.0.3"))
		})

		It("should report healthy", func() {
			resp, err := http.Get(server.URL + "/health")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should log in the seeded admin and list users", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			Expect(admin.session.Snapshot().User.Username).To(Equal(sandbox.AdminUsername))

			res, err := user.NewService(admin.client, logger.Discard()).List(ctx, slice.Filter{})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Items).To(HaveLen(1))
			Expect(res.Items[0].Username).To(Equal(sandbox.AdminUsername))
			Expect(res.Pagination).NotTo(BeNil())
			Expect(res.Pagination.Total).To(Equal(int64(1)))
		})

		It("should turn a wrong password into invalid credentials", func() {
			_, err := admin.session.Login(ctx, session.LoginDTO{Username: sandbox.AdminUsername, Password: "wrong"})

			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			Expect(admin.session.Snapshot().IsAuthenticated).To(BeFalse())
		})

		It("should refresh a rejected access token and retry", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			admin.storage.values[session.KeyAccessToken] = "garbage"
			_, err := admin.session.Hydrate(ctx)
			Expect(err).NotTo(HaveOccurred())

			count, err := role.NewService(admin.client, logger.Discard()).Count(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
			Expect(admin.storage.values[session.KeyAccessToken]).NotTo(Equal("garbage"))
			Expect(admin.session.Snapshot().IsAuthenticated).To(BeTrue())
		})

		It("should reject a token after logout", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			token := admin.session.AccessToken()

			Expect(admin.session.Logout(ctx)).To(Succeed())

			req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should keep a registered USER out of user management", func() {
			_, err := auth.NewService(admin.client, logger.Discard()).Register(ctx, session.RegisterDTO{
				Username:        "jane",
				Email:           "jane@example.com",
				Password:        "secret1",
				ConfirmPassword: "secret1",
				FullName:        "Jane Doe",
			})
			Expect(err).NotTo(HaveOccurred())

			jane := newConsole(server.URL)
			login(jane, "jane", "secret1")

			_, err = user.NewService(jane.client, logger.Discard()).List(ctx, slice.Filter{})
			Expect(internal.IsType(err, internal.ErrorTypeForbidden)).To(BeTrue())

			menus, err := menu.NewService(jane.client, logger.Discard()).UserMenus(ctx)
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(menus))
			for _, m := range menus {
				names = append(names, m.MenuName)
				Expect(m.Permission).NotTo(BeNil())
				Expect(m.Permission.CanRead).To(BeTrue())
			}
			Expect(names).To(ConsistOf("Dashboard", "My Profile"))
		})

		It("should replace a role's grants and read them back with menu names", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			roles := role.NewService(admin.client, logger.Discard())
			perms := permission.NewService(admin.client, logger.Discard())

			auditor, err := roles.Create(ctx, role.RoleDTO{RoleName: "AUDITOR"})
			Expect(err).NotTo(HaveOccurred())

			menus, err := menu.NewService(admin.client, logger.Discard()).Search(ctx, "Log")
			Expect(err).NotTo(HaveOccurred())
			Expect(menus).NotTo(BeEmpty())

			Expect(perms.ReplaceForRole(ctx, auditor.ID, []permission.Permission{
				{MenuID: menus[0].ID, CanRead: true},
			})).To(Succeed())

			rows, err := perms.ByRoleWithMenus(ctx, auditor.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].MenuName).To(Equal(menus[0].MenuName))
			Expect(rows[0].RoleName).To(Equal("AUDITOR"))

			Expect(perms.ReplaceForRole(ctx, auditor.ID, nil)).To(Succeed())
			rows, err = perms.ByRole(ctx, auditor.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})

		It("should refuse to delete a role that is still assigned", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			roles := role.NewService(admin.client, logger.Discard())
			active, err := roles.Active(ctx)
			Expect(err).NotTo(HaveOccurred())

			var adminRole role.Role
			for _, r := range active {
				if r.RoleName == sandbox.RoleAdmin {
					adminRole = r
				}
			}
			err = roles.Delete(ctx, adminRole.ID)

			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
		})

		It("should record logins in the system log and on the dashboard", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)

			entries, err := syslog.NewService(admin.client, logger.Discard()).Search(ctx, syslog.SearchDTO{Action: "LOGIN"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries.Items).NotTo(BeEmpty())
			Expect(entries.Items[0].Username).To(Equal(sandbox.AdminUsername))

			stats, err := dashboard.NewService(admin.client, logger.Discard()).Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalUsers).To(Equal(int64(1)))
			Expect(stats.TotalLogs).To(BeNumerically(">=", 2))
		})

		It("should count requests in monitoring and prometheus", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			mon := monitoring.NewService(admin.client, logger.Discard())

			_, err := user.NewService(admin.client, logger.Discard()).Count(ctx)
			Expect(err).NotTo(HaveOccurred())

			// Counters are updated after the response is flushed.
			Eventually(func() (int64, error) {
				st, err := mon.APIStatistics(ctx)
				return st.Overall.TotalRequests, err
			}).Should(BeNumerically(">=", 2))

			Eventually(func() (int, error) {
				return testutil.GatherAndCount(srv.Registry(), "sandbox_http_requests_total")
			}).Should(BeNumerically(">", 0))

			Expect(mon.ResetStatistics(ctx)).To(Succeed())
			status, err := mon.SystemStatus(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Health).To(HaveKeyWithValue("status", "UP"))
		})
	})

	Context("with a fixed clock", func() {
		BeforeEach(func() {
			fixed := time.Date(2024, time.March, 9, 10, 30, 0, 0, time.UTC)
			var err error
			srv, err = sandbox.New(ctx, cfg, logger.Discard(), sandbox.WithBcryptCost(bcrypt.MinCost),
				sandbox.WithClock(func() time.Time { return fixed }))
			Expect(err).NotTo(HaveOccurred())
			server = httptest.NewServer(srv.Router())
			DeferCleanup(server.Close)
			admin = newConsole(server.URL)
		})

		It("should stamp log entries with the server clock", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)

			entries, err := syslog.NewService(admin.client, logger.Discard()).Search(ctx, syslog.SearchDTO{Action: "LOGIN"})

			Expect(err).NotTo(HaveOccurred())
			Expect(entries.Items).NotTo(BeEmpty())
			Expect(entries.Items[0].CreatedAt.Year()).To(Equal(2024))
			Expect(entries.Items[0].CreatedAt.Month()).To(Equal(time.March))
			Expect(entries.Items[0].CreatedAt.Day()).To(Equal(9))
		})
	})

	Context("with bare responses and an accessToken field", func() {
		BeforeEach(func() {
			cfg.WrapResponses = false
			cfg.TokenField = "accessToken"
			start()
		})

		It("should log in and read page objects", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)

			res, err := menu.NewService(admin.client, logger.Discard()).List(ctx, slice.Filter{"page": "0", "size": "3"})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Items).To(HaveLen(3))
			Expect(res.Pagination.PageSize).To(Equal(3))
			Expect(res.Pagination.Total).To(Equal(int64(10)))
		})

		It("should acknowledge commands with no content", func() {
			login(admin, sandbox.AdminUsername, sandbox.AdminPassword)
			users := user.NewService(admin.client, logger.Discard())

			created, err := users.Create(ctx, user.CreateUserDTO{
				Username: "ops",
				Password: "secret1",
				Email:    "ops@example.com",
				FullName: "Ops Person",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(users.Delete(ctx, created.ID)).To(Succeed())
			_, err = users.Get(ctx, created.ID)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})
})
