package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/jsontime"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/spf13/cobra"
)

var (
	logPage int
	logSize int

	logLevel    string
	logUsername string
	logAction   string
	logSearch   string
	logFrom     string
	logTo       string

	logCleanupDays int
	logMessage     string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Browse and maintain the system log",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List system log entries, newest first",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		filter := slice.Filter{
			"page": strconv.Itoa(logPage),
			"size": strconv.Itoa(logSize),
		}
		logs := syslog.NewSlice(d.Logs, d.Logger)
		err := fetchInto(ctx, d, logs.Slice, "logs", func(ctx context.Context) (slice.ListResult[syslog.Entry], error) {
			return d.Logs.List(ctx, filter)
		})
		if err != nil {
			return err
		}
		return printEntries(cmd, logs.State())
	}),
}

var logsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the system log by level, user, action, text and date range",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		dto := syslog.SearchDTO{
			Username: logUsername,
			Action:   logAction,
			Search:   logSearch,
			Page:     logPage,
			Size:     logSize,
		}
		if logLevel != "" {
			level, ok := syslog.ParseLevel(logLevel)
			if !ok {
				return internal.NewValidationFieldError("level", "level must be INFO, WARNING or ERROR", internal.ErrCodeValidationFailed)
			}
			dto.Level = level
		}
		if logFrom != "" {
			t, err := jsontime.Parse(logFrom)
			if err != nil {
				return internal.NewValidationFieldError("from", "from is not a valid date", internal.ErrCodeValidationFailed)
			}
			dto.StartDate = &t
		}
		if logTo != "" {
			t, err := jsontime.Parse(logTo)
			if err != nil {
				return internal.NewValidationFieldError("to", "to is not a valid date", internal.ErrCodeValidationFailed)
			}
			dto.EndDate = &t
		}

		logs := syslog.NewSlice(d.Logs, d.Logger)
		if err := logs.Search(ctx, dto); err != nil {
			return err
		}
		return printEntries(cmd, logs.State())
	}),
}

func printEntries(cmd *cobra.Command, state slice.State[syslog.Entry]) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), state.Items)
	}
	t := newTable(cmd.OutOrStdout(), "ID", "TIME", "LEVEL", "USER", "ACTION", "MESSAGE")
	for _, e := range state.Items {
		t.row(e.ID, e.CreatedAt, string(e.Level), e.Username, e.Action, e.Message)
	}
	if err := t.flush(); err != nil {
		return err
	}
	printPagination(cmd.OutOrStdout(), state.Pagination, len(state.Items))
	return nil
}

var logsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count log entries by level",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		stats, err := d.Logs.Stats(ctx)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		t := newTable(cmd.OutOrStdout(), "TOTAL", "INFO", "WARNING", "ERROR")
		t.row(stats.Total, stats.Info, stats.Warning, stats.Error)
		return t.flush()
	}),
}

var logsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one log entry",
	Args:  cobra.ExactArgs(1),
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := syslog.NewSlice(d.Logs, d.Logger).Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted log entry %d\n", id)
		return nil
	}),
}

var logsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete log entries older than --days",
	Args:  cobra.NoArgs,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		before, err := d.Logs.Count(ctx)
		if err != nil {
			return err
		}
		if err := d.Logs.Cleanup(ctx, logCleanupDays); err != nil {
			return err
		}
		after, err := d.Logs.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d log entries\n", before-after)
		return nil
	}),
}

var logsTestCmd = &cobra.Command{
	Use:    "test",
	Short:  "Write a test entry to the system log",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE: authenticated(func(ctx context.Context, cmd *cobra.Command, d *Dependencies, _ []string) error {
		level, ok := syslog.ParseLevel(logLevel)
		if !ok {
			level = syslog.LevelInfo
		}
		dto := syslog.TestLogDTO{Level: level, Action: logAction, Message: logMessage}
		if err := d.Logs.CreateTest(ctx, dto); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Test entry written")
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{logsListCmd, logsSearchCmd} {
		c.Flags().IntVar(&logPage, "page", 0, "page number, starting at 0")
		c.Flags().IntVar(&logSize, "size", syslog.DefaultPageSize, "page size")
	}
	logsSearchCmd.Flags().StringVar(&logLevel, "level", "", "INFO, WARNING or ERROR")
	logsSearchCmd.Flags().StringVar(&logUsername, "user", "", "username")
	logsSearchCmd.Flags().StringVar(&logAction, "action", "", "action such as LOGIN")
	logsSearchCmd.Flags().StringVarP(&logSearch, "search", "s", "", "text in the message")
	logsSearchCmd.Flags().StringVar(&logFrom, "from", "", "earliest entry, 2006-01-02 or RFC3339")
	logsSearchCmd.Flags().StringVar(&logTo, "to", "", "latest entry, 2006-01-02 or RFC3339")

	logsCleanupCmd.Flags().IntVar(&logCleanupDays, "days", syslog.DefaultCleanupDays, "keep entries newer than this many days")

	logsTestCmd.Flags().StringVar(&logLevel, "level", "INFO", "INFO, WARNING or ERROR")
	logsTestCmd.Flags().StringVar(&logAction, "action", "TEST", "action")
	logsTestCmd.Flags().StringVar(&logMessage, "message", "test log entry", "message")

	logsCmd.AddCommand(logsListCmd, logsSearchCmd, logsStatsCmd, logsDeleteCmd, logsCleanupCmd, logsTestCmd)
}
