package main

import (
	"fmt"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/retry"
	"github.com/priyanshu2307/Newschat/internal/status"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the news service is ready",
		Long:  "Probes the news service once and prints whether it is ready to answer and how many articles it holds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to newschat config file")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.New(client.Opts{BaseURL: cfg.BaseURL, Timeout: cfg.RequestTimeout, Logger: logger})
	if err != nil {
		return err
	}
	monitor := status.NewMonitor(c, status.Opts{Retry: retry.FromConfig(cfg.Retry, logger), Logger: logger})
	st := monitor.Check(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Service:  %s\n", c.BaseURL())
	if !st.Ready {
		fmt.Fprintln(out, "Status:   offline")
		return nil
	}
	fmt.Fprintln(out, "Status:   online")
	fmt.Fprintf(out, "Articles: %d\n", st.ArticleCount)
	return nil
}
