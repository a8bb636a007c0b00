package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/stub"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		articles   string
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local stub news service",
		Long: "Serves the news service API on top of a JSON article corpus. " +
			"Answers list the best matching articles. Use --offline to make /status report offline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Stub.Port = port
			}
			if articles != "" {
				cfg.Stub.ArticlesPath = articles
			}
			return runServe(cmd, cfg, offline)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to newschat config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	cmd.Flags().StringVar(&articles, "articles", "", "path to the article corpus JSON (default from config)")
	cmd.Flags().BoolVar(&offline, "offline", false, "report the service as offline")
	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config, offline bool) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return stub.Start(ctx, stub.StartOpts{
		Config:  cfg.Stub,
		Offline: offline,
		Out:     cmd.OutOrStdout(),
		Logger:  logger,
	})
}
