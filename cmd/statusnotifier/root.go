package main

import (
	"github.com/spf13/cobra"

	"github.com/hamed0406/statusnotifier/internal/config"
)

type rootFlags struct {
	envFiles []string
	services string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "statusnotifier",
		Short:         "Probe HTTP services, report their status and alert on failures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	root.PersistentFlags().StringVar(&flags.services, "services", "", "services file (overrides SERVICES_CONFIG_PATH)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug|info|warn|error (overrides LOG_LEVEL)")

	check := newCheckCmd(flags)
	root.RunE = check.RunE
	root.AddCommand(check, newServeCmd(flags), newPreflightCmd(flags))
	return root
}

// load reads dotenv files and the environment, then applies flag overrides.
func (f *rootFlags) load() config.Config {
	config.LoadDotEnv(f.envFiles...)
	cfg := config.FromEnv()
	if f.services != "" {
		cfg.ServicesPath = f.services
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg
}
