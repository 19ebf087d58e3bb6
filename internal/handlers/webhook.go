// Package handlers holds the HTTP endpoints: gateway callbacks, the
// Telegram webhook and the health check.
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/payments"
)

// WFPCallback accepts WayForPay server callbacks. The response is always
// HTTP 200 {"status":"accept"}: anything else makes the gateway retry the
// callback forever.
func WFPCallback(log *slog.Logger, p *payments.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		ref := ""
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			log.Warn("gateway callback: read body", "error", err)
		} else {
			ref = p.Process(r.Context(), body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":         "accept",
			"orderReference": ref,
		})
	}
}

// TelegramWebhook receives bot updates. The secret lives in the path; a
// mismatch is the one case where we do reject.
func TelegramWebhook(log *slog.Logger, secret string, d *bot.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "secret") != secret {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		defer r.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))

		var up bot.Update
		if err := json.Unmarshal(body, &up); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		d.Handle(r.Context(), &up)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}
