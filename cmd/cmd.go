package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDir    string
	outputFormat string
	showMetrics  bool
)

var rootCmd = &cobra.Command{
	Use:           "admin-console",
	Short:         "Admin Console",
	Long:          `Command-line client for the admin console backend: users, roles, menus, permissions and logs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	v := viper.New()
	for key, value := range internal.Defaults() {
		v.SetDefault(key, value)
	}

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.base_url", "CONSOLE_API_BASE_URL", "ADMIN_CONSOLE_API_URL"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory holding config.yml")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print client request metrics to stderr when the command ends")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(menusCmd)
	rootCmd.AddCommand(permissionsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(monitoringCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sandboxCmd)
}
