package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

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
	"github.com/frahmantamala/admin-console/internal/session"
	sessionpostgres "github.com/frahmantamala/admin-console/internal/session/postgres"
	sessionredis "github.com/frahmantamala/admin-console/internal/session/redis"
	"github.com/frahmantamala/admin-console/internal/snapshot"
	"github.com/frahmantamala/admin-console/internal/storage"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
	"github.com/frahmantamala/admin-console/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Dependencies is everything a console command needs, built once per run.
type Dependencies struct {
	Config    *internal.Config
	DB        *storage.DB
	Logger    *slog.Logger
	Bus       *events.EventBus
	Client    *apiclient.Client
	Session   *session.Store
	Snapshots snapshot.RepositoryAPI
	Registry  *prometheus.Registry

	Auth        *auth.Service
	Users       *user.Service
	Roles       *role.Service
	Menus       *menu.Service
	Permissions *permission.Service
	Logs        *syslog.Service
	Dashboard   *dashboard.Service
	Monitoring  *monitoring.Service

	closers []func() error
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitFormat(os.Stderr, cfg.Logging.Format, logger.ParseLevel(cfg.Logging.Level, cfg.App.Env))
	lg := logger.L()

	deps := &Dependencies{Config: cfg, Logger: lg}

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	deps.DB = db
	deps.closers = append(deps.closers, db.Close)

	if err := db.Migrate(ctx); err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to migrate local storage: %w", err)
	}

	store, err := openSessionStorage(ctx, cfg.Storage, db)
	if err != nil {
		deps.Close()
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		deps.closers = append(deps.closers, c.Close)
	}

	if cfg.Storage.Snapshots {
		deps.Snapshots = snapshot.NewRepository(db.SQL)
	}

	deps.Bus = events.NewEventBus(lg)
	deps.Bus.Subscribe(events.EventTypeSessionExpired, func(_ context.Context, _ events.Event) error {
		fmt.Fprintln(os.Stderr, "Session expired. Run `admin-console login` to sign in again.")
		return nil
	})

	deps.Registry = prometheus.NewRegistry()
	deps.Client = apiclient.NewClient(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		UserAgent: cfg.API.UserAgent,
	}, lg, apiclient.WithMetrics(apiclient.NewMetrics(deps.Registry)))

	deps.Auth = auth.NewService(deps.Client, lg)
	deps.Session = session.NewStore(store, deps.Auth, deps.Bus, lg)
	deps.Client.SetTokenSource(deps.Session)

	deps.Users = user.NewService(deps.Client, lg)
	deps.Roles = role.NewService(deps.Client, lg)
	deps.Menus = menu.NewService(deps.Client, lg)
	deps.Permissions = permission.NewService(deps.Client, lg)
	deps.Logs = syslog.NewService(deps.Client, lg)
	deps.Dashboard = dashboard.NewService(deps.Client, lg)
	deps.Monitoring = monitoring.NewService(deps.Client, lg)

	return deps, nil
}

func openSessionStorage(ctx context.Context, cfg internal.StorageConfig, db *storage.DB) (session.Storage, error) {
	switch cfg.SessionBackend {
	case "redis":
		s, err := sessionredis.Open(ctx, cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open session storage: %w", err)
		}
		return s, nil
	default:
		return sessionpostgres.NewStorage(db.Gorm), nil
	}
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.Warn("failed to close resource", "error", err)
		}
	}
	d.closers = nil
}

// requireLogin restores the saved session and refuses to go on without one.
func (d *Dependencies) requireLogin(ctx context.Context) error {
	st, err := d.Session.Hydrate(ctx)
	if err != nil {
		return err
	}
	if !st.IsAuthenticated {
		return internal.NewUnauthorizedError("Not logged in. Run `admin-console login` first.", internal.ErrCodeUnauthenticated)
	}
	return nil
}

type action func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error

// run wires dependencies for one command invocation and tears them down
// afterwards. Commands built with authenticated require a stored session.
// With --metrics the client collectors are printed to stderr once fn returns.
func run(fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		d, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		err = fn(ctx, cmd, d, args)
		if showMetrics {
			if derr := dumpMetrics(cmd.ErrOrStderr(), d.Registry); derr != nil {
				d.Logger.Warn("failed to write client metrics", "error", derr)
			}
		}
		return err
	}
}

func authenticated(fn action) func(*cobra.Command, []string) error {
	return run(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		if err := d.requireLogin(ctx); err != nil {
			return err
		}
		return fn(ctx, cmd, d, args)
	})
}

// fetchInto loads s through the snapshot cache when one is configured. A
// stale result is announced on stderr.
func fetchInto[T slice.Identifiable](ctx context.Context, d *Dependencies, s *slice.Slice[T], key string, list func(context.Context) (slice.ListResult[T], error)) error {
	return s.FetchAll(ctx, func(ctx context.Context) (slice.ListResult[T], error) {
		if d.Snapshots == nil {
			return list(ctx)
		}
		res, err := snapshot.Through(ctx, d.Snapshots, d.Logger, key, list)
		if err != nil {
			return slice.ListResult[T]{}, err
		}
		if res.Stale {
			fmt.Fprintf(os.Stderr, "Backend unreachable, showing %s saved at %s\n", s.Name(), res.FetchedAt.Format("2006-01-02 15:04:05"))
		}
		return res.Data, nil
	})
}
