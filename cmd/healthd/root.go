package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	health "github.com/fableford/uptime-health-go"
	"github.com/fableford/uptime-health-go/internal/config"
	"github.com/fableford/uptime-health-go/internal/logging"
	"github.com/fableford/uptime-health-go/internal/version"
)

// app carries the state shared by every subcommand once the persistent
// pre-run has loaded configuration.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger

	// extra evaluator options, used by tests to pin uptime and time
	evalOpts []health.EvaluatorOption
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func newApp() *app {
	return &app{v: config.New()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "healthd",
		Short:             "Service health and readiness probe",
		Version:           version.Detailed(),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", "", "config file (yaml, json or toml)")
	flags.String("env-file", ".env", "dotenv file loaded before reading HEALTHD_* variables")
	flags.StringP("name", "n", health.DefaultServiceName, "default service name")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	_ = a.v.BindPFlag(config.KeyServiceName, flags.Lookup("name"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	root.AddCommand(
		a.serveCmd(),
		a.checkCmd(),
		a.probeCmd(),
		versionCmd(),
	)

	return root
}

func (a *app) load(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(a.v, configFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	slog.SetDefault(a.logger)

	return nil
}

func (a *app) newEvaluator() *health.Evaluator {
	opts := []health.EvaluatorOption{health.WithDefaultServiceName(a.cfg.Service.Name)}
	opts = append(opts, a.evalOpts...)
	return health.NewEvaluator(opts...)
}
