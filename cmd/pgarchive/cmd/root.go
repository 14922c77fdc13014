// Package cmd implements the pgarchive command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wichert/pgarchive/dlogger"
)

var (
	cfgFile  string
	logLevel string

	// logger is configured before any subcommand runs.
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pgarchive",
	Short: "Inspect PostgreSQL custom-format dumps and publish releases",
	Long: `pgarchive inspects the contents of PostgreSQL backups made with
pg_dump -Fc (custom format) and gives direct access to raw table data,
without loading the dump into a database.

It also drives the tag-triggered release pipeline for packages: deriving the
version from a pushed tag, updating the package manifest, validating it,
committing the manifest and lock file, and publishing to an OCI registry.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = dlogger.New(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $XDG_CONFIG_HOME/pgarchive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", dlogger.LogLevelNone,
		"log level (debug, info, none)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "pgarchive"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PGARCHIVE")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}
