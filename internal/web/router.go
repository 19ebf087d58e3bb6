package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/handlers"
	"github.com/stylenest/club/internal/payments"
)

func Router(log *slog.Logger, proc *payments.Processor, disp *bot.Dispatcher, webhookSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)

	// Some proxies deliver the callback with a trailing slash; register both.
	wfp := handlers.WFPCallback(log, proc)
	r.Post("/wfp/callback", wfp)
	r.Post("/wfp/callback/", wfp)

	r.Post("/tg/webhook/{secret}", handlers.TelegramWebhook(log, webhookSecret, disp))

	return r
}
