package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"estatehub/internal/app"
	"estatehub/internal/config"
	"estatehub/internal/utils"
)

// @title       estatehub API
// @version     1.0
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in          header
// @name        Authorization
func main() {
	var (
		configPath string
		envFile    string
		logLevel   string
	)

	cmd := &cli.Command{
		Name:  "estatehub",
		Usage: "Run the marketplace API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ESTATEHUB_CONFIG"),
				Value:       "config/config.yaml",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "optional .env file with secrets",
				Value:       ".env",
				Destination: &envFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error); overrides the config file",
				Sources:     cli.EnvVars("ESTATEHUB_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			logger, err := utils.NewLogger(cfg.Log.Level, nil)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
