// Command voxbot runs the Telegram bot that forwards voice and audio
// messages to a voxrelay service and replies with the transcription.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/voxrelay/app"
	"github.com/kbukum/voxrelay/bootstrap"
	"github.com/kbukum/voxrelay/config"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/telegram"
)

const botName = "voxbot"

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env-file", "", "path to a .env file")
	flag.Parse()

	if err := run(context.Background(), *configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "voxbot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, envFile string) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	var cfg app.Config
	if err := config.LoadConfig(app.ServiceName, &cfg, opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = botName
	}
	a, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	bot, err := app.BuildBot(&cfg, a.Logger)
	if errors.Is(err, telegram.ErrNoToken) {
		a.Logger.Warn("telegram token is not configured, bot disabled")
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.RegisterComponent(bot); err != nil {
		return err
	}
	a.Logger.Info("voxbot configured", logger.Fields("backend", cfg.Backend.BaseURL))
	return a.Run(ctx)
}
