package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"zaptalk/handler"
	"zaptalk/internal/integrations/telegram"
	"zaptalk/internal/metrics"
	"zaptalk/internal/poller"
)

var botCommands = []telegram.Command{
	{Name: "start", Description: "Start the bot"},
	{Name: "help", Description: "Help and buttons"},
	{Name: "chatbot", Description: "Enable or disable chat"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("zaptalk failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "zaptalk",
		Short:         "Telegram persona chat-bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			if a.cfg.InLambda() {
				return a.serveLambda(cmd.Context())
			}
			return a.poll(cmd.Context())
		},
	}
	cmd.AddCommand(newRunCmd(), newLambdaCmd(), newMigrateCmd(), newSetCommandsCmd())
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Long-poll Telegram for updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return a.poll(cmd.Context())
		},
	}
}

func newLambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve the Telegram webhook behind API Gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return a.serveLambda(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or verify the chatbot status table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			store, closeStore, err := rt.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			slog.Info("status store schema ready")
			return nil
		},
	}
}

func newSetCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-commands",
		Short: "Register the bot command menu",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			bot, err := telegram.New(rt.cfg.BotToken)
			if err != nil {
				return err
			}
			if err := bot.SetCommands(ctx, botCommands); err != nil {
				return err
			}
			slog.Info("bot commands registered", "bot", bot.Username())
			return nil
		},
	}
}

func (a *app) poll(ctx context.Context) error {
	if err := a.bot.SetCommands(ctx, botCommands); err != nil {
		slog.Warn("failed to register bot commands", "err", err)
	}

	p, err := poller.New(a.bot, a.dispatcher, a.cfg.MaxConcurrency, a.cfg.PollTimeout)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("metrics listening", "addr", a.cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		slog.Info("polling for updates", "bot", a.bot.Username(), "max_concurrency", a.cfg.MaxConcurrency)
		return p.Run(gctx)
	})
	return g.Wait()
}

func (a *app) serveLambda(_ context.Context) error {
	h, err := handler.NewHandler(a.dispatcher, a.cfg.WebhookSecret)
	if err != nil {
		return err
	}
	lambda.Start(h.Handle)
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
