package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/models"
)

const winbackText = "Що вас чекає цього місяця 🍂\n\n" +
	"- 3 готових капсули сезону\n" +
	"- огляди ваших улюблених магазинів\n" +
	"- лекції та формули образів\n" +
	"- стильні прийоми в образах\n\n" +
	"Обирай тариф та приєднуйся 🖤"

// Winback runs the drip campaign for users who registered but never paid.
// Stages fire strictly in order: 7d only after 3d is sent, 30d only after
// 7d. A user past every threshold still advances one stage per scan.
type Winback struct {
	log       *slog.Logger
	store     *ledger.Store
	messenger Messenger
	tariffs   config.TariffConfig
	// Optional promo photo (Telegram file_id or URL); plain text when empty.
	photo string
	now   func() time.Time
}

func NewWinback(log *slog.Logger, store *ledger.Store, messenger Messenger, tariffs config.TariffConfig, photo string) *Winback {
	return &Winback{
		log:       log,
		store:     store,
		messenger: messenger,
		tariffs:   tariffs,
		photo:     photo,
		now:       time.Now,
	}
}

var winbackStages = []ledger.WinbackStage{ledger.Winback3d, ledger.Winback7d, ledger.Winback30d}

func (w *Winback) RunOnce(ctx context.Context) error {
	now := w.now().UTC()

	// Snapshot every stage before marking anything: stamping 3d must not make
	// the same user due for 7d within this scan.
	due := make(map[ledger.WinbackStage][]models.User, len(winbackStages))
	for _, stage := range winbackStages {
		users, err := w.store.WinbackDue(now, stage)
		if err != nil {
			return err
		}
		due[stage] = users
	}

	for _, stage := range winbackStages {
		for _, user := range due[stage] {
			if err := w.send(ctx, user.TgID); err != nil {
				w.log.Warn("send winback", "stage", stage, "tg_id", user.TgID, "error", err)
			}
			// Stamp on attempt: a failed delivery is not retried.
			if err := w.store.MarkWinbackSent(user.ID, stage, now); err != nil {
				w.log.Error("mark winback", "stage", stage, "tg_id", user.TgID, "error", err)
				continue
			}
			w.log.Info("winback sent", "stage", stage, "tg_id", user.TgID, "registered_at", user.CreatedAt)
		}
	}
	return nil
}

func (w *Winback) send(ctx context.Context, tgID int64) error {
	kb := bot.TariffsKeyboard(w.tariffs)
	if w.photo != "" {
		return w.messenger.SendPhoto(ctx, tgID, w.photo, winbackText, kb)
	}
	return w.messenger.SendMessage(ctx, tgID, winbackText, kb)
}
