// Command voxrelay runs the transcription job service: the HTTP API, the
// dispatcher and its providers, and the optional mirrors and event sink.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/voxrelay/app"
	"github.com/kbukum/voxrelay/bootstrap"
	"github.com/kbukum/voxrelay/config"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/observability"
	"github.com/kbukum/voxrelay/version"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env-file", "", "path to a .env file")
	flag.Parse()

	if err := run(context.Background(), *configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "voxrelay: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, envFile string) error {
	var cfg app.Config
	if err := config.LoadConfig(app.ServiceName, &cfg, loaderOptions(configFile, envFile)...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.Get().Version, cfg.Environment)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	a.OnStop(func(ctx context.Context) error { return shutdown(ctx) })

	var metrics *observability.Metrics
	if cfg.Observability.Enabled {
		if metrics, err = observability.NewMetrics(observability.Meter(cfg.Name)); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	svc, err := app.Build(ctx, &cfg, a.Logger, metrics)
	if err != nil {
		return err
	}
	for _, c := range svc.Components() {
		if err := a.RegisterComponent(c); err != nil {
			return err
		}
	}
	a.Logger.Info("voxrelay configured", logger.Fields(
		"addr", fmt.Sprintf("%s:%d", cfg.Backend.Host, cfg.Backend.Port),
		"base_url", cfg.Backend.BaseURL,
		"storage", cfg.Storage.Provider,
		"auth", cfg.Auth.Enabled,
	))
	return a.Run(ctx)
}

func loaderOptions(configFile, envFile string) []config.LoaderOption {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	return opts
}
