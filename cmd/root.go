// Package cmd wires the statsupdater command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hellominers/statsupdater/cmd/migrate"
	"github.com/hellominers/statsupdater/cmd/scan"
	"github.com/hellominers/statsupdater/internal/buildinfo"
	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/logger"
)

// RootCommand creates and returns the root command. Settings are loaded once
// flags are parsed and shared with every subcommand through settings.
func RootCommand(build *buildinfo.Context, settings *conf.Settings) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "statsupdater",
		Short:         "Migrate legacy player statistics files to the current format",
		Version:       build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml (default: search standard locations)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().String("statsdir", "", "Directory holding the per-player stats files")

	rootCmd.AddCommand(
		migrate.Command(build, settings),
		scan.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(rootCmd); err != nil {
			return err
		}
		if configFile != "" {
			viper.SetConfigFile(configFile)
		}

		loaded, err := conf.Load()
		if err != nil {
			return err
		}
		*settings = *loaded

		return initLogging(settings)
	}

	return rootCmd
}

// bindFlags maps the global flags onto their settings keys
func bindFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()
	bindings := map[string]string{
		"debug":              "debug",
		"migration.statsdir": "statsdir",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// initLogging replaces the console fallback with the configured logger
func initLogging(settings *conf.Settings) error {
	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = "debug"
		if cfg.Console != nil {
			cfg.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)
	return nil
}
