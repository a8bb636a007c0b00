package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/conversation"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/retry"
	"github.com/priyanshu2307/Newschat/internal/session"
	"github.com/priyanshu2307/Newschat/internal/status"
	"github.com/priyanshu2307/Newschat/internal/surface"
	"github.com/priyanshu2307/Newschat/internal/transcript"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func newChatCmd() *cobra.Command {
	var (
		configPath string
		noColor    bool
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the news service",
		Long: "Checks the news service once, starts a session and reads questions line by line. " +
			"Type /help inside the chat for commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, noColor, plain)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to newschat config file")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&plain, "plain", false, "print answers verbatim instead of rendering markdown")
	return cmd
}

func runChat(cmd *cobra.Command, configPath string, noColor, plain bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if noColor {
		cfg.UI.NoColor = true
	}
	if plain {
		cfg.UI.PlainText = true
	}

	// Console logging would interleave with the conversation.
	logCfg := cfg.Log
	logCfg.Console = false
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newChatApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	renderer, err := surface.NewRenderer(rendererOpts(cfg.UI, out))
	if err != nil {
		return err
	}
	t, err := surface.NewTerminal(surface.TerminalOpts{
		Surface:  app.surface,
		Renderer: renderer,
		Updates:  app.updates,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	return t.Run(ctx, cmd.InOrStdin(), out)
}

// chatApp is the wired set of components behind one chat.
type chatApp struct {
	surface *surface.Surface
	updates chan struct{}
	closers []func() error
}

func newChatApp(cfg *config.Config, logger *zap.Logger) (*chatApp, error) {
	c, err := client.New(client.Opts{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	policy := retry.FromConfig(cfg.Retry, logger)
	app := &chatApp{updates: make(chan struct{}, 1)}

	var recorder conversation.Recorder
	if cfg.Transcript.Enabled {
		db, err := transcript.Open(cfg.Transcript)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("transcript: %w", err)
		}
		app.closers = append(app.closers, sqlDB.Close)
		journal, err := transcript.NewJournal(transcript.JournalOpts{DB: db, BaseURL: cfg.BaseURL})
		if err != nil {
			app.Close()
			return nil, err
		}
		recorder = journal
	}

	store, err := conversation.NewStore(conversation.Opts{
		Backend:  c,
		Retry:    policy,
		Recorder: recorder,
		OnUpdate: app.notify,
		Logger:   logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	ctrl, err := session.NewController(session.Opts{
		Creator:  c,
		OnChange: store.SessionChanged,
		Logger:   logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.surface, err = surface.New(surface.Opts{
		Monitor:    status.NewMonitor(c, status.Opts{Retry: policy, Logger: logger}),
		Controller: ctrl,
		Store:      store,
		Logger:     logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// notify coalesces store updates for the terminal loop.
func (a *chatApp) notify() {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}

func (a *chatApp) Close() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}

// rendererOpts turns colour off when out is not a terminal and narrows the
// wrap width to the terminal's.
func rendererOpts(ui config.UIConfig, out io.Writer) surface.RendererOpts {
	opts := surface.RendererOpts{NoColor: ui.NoColor, PlainText: ui.PlainText, Width: ui.Width}
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		opts.NoColor = true
		return opts
	}
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < opts.Width {
		opts.Width = w
	}
	return opts
}
