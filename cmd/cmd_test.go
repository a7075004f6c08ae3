package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/sandbox"
	"github.com/frahmantamala/admin-console/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func setenv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			os.Setenv(key, prev)
			return
		}
		os.Unsetenv(key)
	})
}

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should fall back to defaults without a config file", func() {
		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.BaseURL).To(Equal("http://localhost:8080/api"))
		Expect(cfg.API.Timeout).To(Equal(10 * time.Second))
		Expect(cfg.Storage.Driver).To(Equal("sqlite"))
		Expect(cfg.Storage.SessionBackend).To(Equal("sql"))
		Expect(cfg.Sandbox.TokenField).To(Equal("token"))
	})

	It("should read config.yml over the defaults", func() {
		yml := "logging:\n  level: debug\n  format: json\napi:\n  timeout: 3s\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Logging.Level).To(Equal("debug"))
		Expect(cfg.Logging.Format).To(Equal("json"))
		Expect(cfg.API.Timeout).To(Equal(3 * time.Second))
		Expect(cfg.App.Env).To(Equal("development"))
	})

	It("should take the API URL from the environment", func() {
		setenv("ADMIN_CONSOLE_API_URL", "https://admin.example.com/api")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.BaseURL).To(Equal("https://admin.example.com/api"))
	})

	It("should let prefixed variables override any key", func() {
		setenv("CONSOLE_STORAGE_SNAPSHOTS", "false")
		setenv("CONSOLE_SANDBOX_PORT", "9191")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Snapshots).To(BeFalse())
		Expect(cfg.Sandbox.Port).To(Equal(9191))
	})

	It("should reject invalid values", func() {
		yml := "storage:\n  session_backend: redis\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("RedisURL")))
	})

	It("should reject a malformed config file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte("api: [\n"), 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})

var _ = Describe("console commands", func() {
	var (
		out    *bytes.Buffer
		errOut *bytes.Buffer
		server *httptest.Server
	)

	execute := func(args ...string) error {
		out.Reset()
		errOut.Reset()
		rootCmd.SetOut(out)
		rootCmd.SetErr(io.MultiWriter(errOut, GinkgoWriter))
		rootCmd.SetIn(strings.NewReader(""))
		rootCmd.SetArgs(append([]string{"--config", GinkgoT().TempDir()}, args...))
		return rootCmd.ExecuteContext(context.Background())
	}

	BeforeEach(func() {
		cfg := internal.SandboxConfig{
			AllowedOrigins:  "*",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
			AccessSecret:    "cmd-access-secret",
			RefreshSecret:   "cmd-refresh-secret",
			WrapResponses:   true,
			TokenField:      "token",
		}
		srv, err := sandbox.New(context.Background(), cfg, logger.Discard(), sandbox.WithBcryptCost(bcrypt.MinCost))
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(srv.Router())
		DeferCleanup(server.Close)

		setenv("CONSOLE_API_BASE_URL", server.URL+sandbox.APIPrefix)
		setenv("CONSOLE_STORAGE_SOURCE", filepath.Join(GinkgoT().TempDir(), "console.db"))
		setenv("CONSOLE_LOGGING_LEVEL", "error")
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
	})

	It("should refuse authenticated commands before login", func() {
		err := execute("users", "list", "-o", "table")
		Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
	})

	It("should log in, keep the session across runs and log out", func() {
		Expect(execute("login", "-u", sandbox.AdminUsername, "-p", sandbox.AdminPassword, "-o", "table")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Logged in as admin"))

		Expect(execute("users", "list", "-o", "json")).To(Succeed())
		var users []map[string]any
		Expect(json.Unmarshal(out.Bytes(), &users)).To(Succeed())
		Expect(users).To(HaveLen(1))
		Expect(users[0]["username"]).To(Equal(sandbox.AdminUsername))

		Expect(execute("whoami", "-o", "table")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("ADMIN"))

		Expect(execute("menus", "tree", "-o", "table")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Dashboard"))

		Expect(execute("logout", "-o", "table")).To(Succeed())
		err := execute("roles", "list", "-o", "table")
		Expect(internal.IsType(err, internal.ErrorTypeUnauthorized)).To(BeTrue())
	})

	It("should print client metrics on request", func() {
		DeferCleanup(func() { showMetrics = false })
		Expect(execute("login", "-u", sandbox.AdminUsername, "-p", sandbox.AdminPassword, "-o", "table")).To(Succeed())

		Expect(execute("dashboard", "stats", "--metrics", "-o", "table")).To(Succeed())

		Expect(errOut.String()).To(ContainSubstring(`admin_console_client_requests_total{method="GET",status="2xx"}`))
		Expect(errOut.String()).To(ContainSubstring("admin_console_client_refresh_waiters 0"))
	})

	It("should create a role and grant it access", func() {
		Expect(execute("login", "-u", sandbox.AdminUsername, "-p", sandbox.AdminPassword, "-o", "table")).To(Succeed())

		Expect(execute("roles", "create", "--name", "AUDITOR", "--description", "read only", "-o", "json")).To(Succeed())
		var created map[string]any
		Expect(json.Unmarshal(out.Bytes(), &created)).To(Succeed())
		roleID := int64(created["id"].(float64))

		Expect(execute("permissions", "grant", strconv.FormatInt(roleID, 10), "--menu", "1", "--read", "-o", "table")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("read=true write=false delete=false"))

		Expect(execute("permissions", "tree", strconv.FormatInt(roleID, 10), "-o", "table")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Dashboard (#1)  [r--]"))
	})

	It("should print field errors for invalid input", func() {
		Expect(execute("login", "-u", sandbox.AdminUsername, "-p", sandbox.AdminPassword, "-o", "table")).To(Succeed())

		err := execute("roles", "create", "--name", "lower", "-o", "table")
		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())

		var buf bytes.Buffer
		printError(&buf, err)
		Expect(buf.String()).To(ContainSubstring("roleName"))
	})
})
