package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/frahmantamala/admin-console/internal/dashboard"
	"github.com/frahmantamala/admin-console/internal/monitoring"
	"github.com/spf13/cobra"
)

var (
	activityLimit   int
	monitoringLimit int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Console overview",
}

var dashboardStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show user, role, menu, permission and log totals",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		stats, err := d.Dashboard.Stats(ctx)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		t := newTable(cmd.OutOrStdout(), "METRIC", "VALUE")
		t.row("users", stats.TotalUsers)
		t.row("active users", stats.ActiveUsers)
		t.row("inactive users", stats.InactiveUsers)
		t.row("roles", stats.TotalRoles)
		t.row("active roles", stats.ActiveRoles)
		t.row("menus", stats.TotalMenus)
		t.row("visible menus", stats.VisibleMenus)
		t.row("permissions", stats.TotalPermissions)
		t.row("log entries", stats.TotalLogs)
		t.row("log entries today", stats.TodayLogs)
		return t.flush()
	}),
}

var dashboardActivitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Show the most recent log entries",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		entries, err := d.Dashboard.RecentActivities(ctx, activityLimit)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), entries)
		}
		t := newTable(cmd.OutOrStdout(), "TIME", "LEVEL", "USER", "ACTION", "MESSAGE")
		for _, e := range entries {
			t.row(e.CreatedAt, string(e.Level), e.Username, e.Action, e.Message)
		}
		return t.flush()
	}),
}

var monitoringCmd = &cobra.Command{
	Use:   "monitoring",
	Short: "Backend request statistics and health",
}

var monitoringStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend system status",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		status, err := d.Monitoring.SystemStatus(ctx)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), status)
		}
		t := newTable(cmd.OutOrStdout(), "SECTION", "KEY", "VALUE")
		for _, section := range []struct {
			name   string
			values map[string]any
		}{
			{"health", status.Health},
			{"application", status.Application},
			{"system", status.System},
			{"jvm", status.JVM},
		} {
			for _, k := range sortedKeys(section.values) {
				t.row(section.name, k, section.values[k])
			}
		}
		return t.flush()
	}),
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var monitoringStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request statistics per API path",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		stats, err := d.Monitoring.APIStatistics(ctx)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		o := stats.Overall
		fmt.Fprintf(cmd.OutOrStdout(), "requests %d  errors %d  active %d  error rate %.2f%%\n\n",
			o.TotalRequests, o.TotalErrors, o.CurrentActiveRequests, o.ErrorRate)
		return printEndpoints(cmd, stats.Endpoints())
	}),
}

var monitoringSlowCmd = &cobra.Command{
	Use:   "slow",
	Short: "Show the slowest API paths",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		eps, err := d.Monitoring.SlowAPIs(ctx, monitoringLimit)
		if err != nil {
			return err
		}
		return printEndpoints(cmd, eps)
	}),
}

var monitoringErrorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show the API paths with the highest error rate",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		eps, err := d.Monitoring.ErrorAPIs(ctx, monitoringLimit)
		if err != nil {
			return err
		}
		return printEndpoints(cmd, eps)
	}),
}

var monitoringResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the backend's request statistics",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		if err := d.Monitoring.ResetStatistics(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Statistics reset")
		return nil
	}),
}

func printEndpoints(cmd *cobra.Command, eps []monitoring.EndpointStats) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), eps)
	}
	t := newTable(cmd.OutOrStdout(), "PATH", "REQUESTS", "ERRORS", "AVG MS", "MAX MS", "ERROR %")
	for _, e := range eps {
		t.row(e.Path, e.TotalRequests, e.ErrorCount, e.AverageResponseTime, e.MaxResponseTime, e.ErrorRate)
	}
	return t.flush()
}

func init() {
	dashboardActivitiesCmd.Flags().IntVarP(&activityLimit, "limit", "n", dashboard.DefaultActivityLimit, "number of entries")
	dashboardCmd.AddCommand(dashboardStatsCmd, dashboardActivitiesCmd)

	for _, c := range []*cobra.Command{monitoringSlowCmd, monitoringErrorsCmd} {
		c.Flags().IntVarP(&monitoringLimit, "limit", "n", monitoring.DefaultLimit, "number of paths")
	}
	monitoringCmd.AddCommand(monitoringStatusCmd, monitoringStatsCmd, monitoringSlowCmd,
		monitoringErrorsCmd, monitoringResetCmd)
}
