package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/db"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/logging"
	"github.com/stylenest/club/internal/payments"
	"github.com/stylenest/club/internal/subscription"
	"github.com/stylenest/club/internal/tasks"
	"github.com/stylenest/club/internal/wayforpay"
	"github.com/stylenest/club/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Init(cfg.LogLevel)

	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Error("db init", "error", err)
		os.Exit(1)
	}
	store := ledger.NewStore(db.Conn())

	tg := bot.NewClient(cfg.BotToken)
	gateway := wayforpay.NewClient(cfg.WayForPay)
	lifecycle := subscription.NewManager(logging.Component("subscription"), store, tg, cfg.ChannelID)
	processor := payments.NewProcessor(logging.Component("payments"), store, lifecycle, tg, cfg)
	dispatcher := bot.NewDispatcher(logging.Component("bot"), store, gateway, tg, cfg)

	router := web.Router(logging.Component("web"), processor, dispatcher, cfg.WebhookSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasksLog := logging.Component("tasks")
	reminders := tasks.NewReminders(tasksLog, store, tg, cfg.ReminderSlack, cfg.Tariffs)
	expiry := tasks.NewExpiry(tasksLog, store, tg, tg, cfg.ChannelID, cfg.Tariffs)
	winback := tasks.NewWinback(tasksLog, store, tg, cfg.Tariffs, cfg.WinbackPhoto)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks.Loop(ctx, tasksLog, "reminders", cfg.TickInterval, reminders.RunOnce)
		return nil
	})
	g.Go(func() error {
		tasks.Loop(ctx, tasksLog, "expiry", cfg.TickInterval, expiry.RunOnce)
		return nil
	})
	g.Go(func() error {
		tasks.Loop(ctx, tasksLog, "winback", cfg.TickInterval, winback.RunOnce)
		return nil
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
