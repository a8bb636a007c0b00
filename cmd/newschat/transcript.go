package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/transcript"
	"github.com/spf13/cobra"
)

func newTranscriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect the conversation journal",
		Long:  "Lists sessions and messages recorded when transcript.enabled is set. The journal is read-only here.",
	}

	cmd.AddCommand(newTranscriptListCmd())
	cmd.AddCommand(newTranscriptShowCmd())
	return cmd
}

func openJournal(configPath string) (*transcript.Journal, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := transcript.Open(cfg.Transcript)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	j, err := transcript.NewJournal(transcript.JournalOpts{DB: db, BaseURL: cfg.BaseURL})
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return j, closeDB, nil
}

func newTranscriptListCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, closeDB, err := openJournal(configPath)
			if err != nil {
				return err
			}
			defer closeDB()

			sessions, err := j.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tMESSAGES\tSERVICE\tLAST ACTIVE")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.SessionID, s.Entries, s.BaseURL, s.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to newschat config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to list (0 for all)")
	return cmd
}

func newTranscriptShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the messages of a journaled session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, closeDB, err := openJournal(configPath)
			if err != nil {
				return err
			}
			defer closeDB()

			entries, err := j.Entries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "[%d] %s %s\n%s\n\n", e.Sequence, e.CreatedAt.Format("15:04:05"), e.Role, e.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to newschat config file")
	return cmd
}
