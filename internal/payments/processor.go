// Package payments applies gateway callbacks to the ledger.
package payments

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/stylenest/club/internal/bot"
	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/models"
	"github.com/stylenest/club/internal/subscription"
	"github.com/stylenest/club/internal/wayforpay"
)

// Messenger delivers text to end users.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) error
}

// Processor handles gateway callbacks. Whatever happens inside, the caller
// must answer accept: a non-2xx or a reject body makes the gateway retry
// indefinitely. Internal failures are logged, never surfaced.
type Processor struct {
	log       *slog.Logger
	store     *ledger.Store
	lifecycle *subscription.Manager
	messenger Messenger
	cfg       *config.Config
	now       func() time.Time
}

func NewProcessor(log *slog.Logger, store *ledger.Store, lifecycle *subscription.Manager, messenger Messenger, cfg *config.Config) *Processor {
	return &Processor{
		log:       log,
		store:     store,
		lifecycle: lifecycle,
		messenger: messenger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Process applies one callback body and returns the order reference to echo
// in the accept response (empty when the payload had none).
func (p *Processor) Process(ctx context.Context, body []byte) string {
	cb, err := wayforpay.ParseCallback(body)
	if err != nil {
		p.log.Warn("gateway callback: unparseable body", "error", err)
		return ""
	}

	ref := cb.OrderReference()
	if ref == "" {
		p.log.Warn("gateway callback: missing orderReference")
		return ""
	}

	if !cb.VerifySignature(p.cfg.WayForPay.MerchantSecret) {
		p.log.Warn("gateway callback: signature mismatch", "order_reference", ref)
		return ref
	}

	payment, err := p.store.PaymentByOrderReference(ref)
	if err != nil {
		p.log.Error("gateway callback: payment lookup", "order_reference", ref, "error", err)
		return ref
	}
	if payment == nil {
		// Possibly another environment's invoice; accept and move on.
		p.log.Info("gateway callback: unknown order reference", "order_reference", ref)
		return ref
	}

	switch status := cb.Status(); status {
	case wayforpay.StatusApproved:
		p.approve(ctx, cb, ref)
	case wayforpay.StatusDeclined:
		p.setTerminal(ref, models.PaymentDeclined, cb)
	case wayforpay.StatusExpired:
		p.setTerminal(ref, models.PaymentExpired, cb)
	default:
		// InProcessing, WaitingAuthComplete and friends: accept, ignore.
		p.log.Debug("gateway callback: ignored status", "order_reference", ref)
	}
	return ref
}

// approve commits the payment transition first, then runs the subscription
// side effects. A callback redelivered after the commit finds the payment
// already approved and does nothing.
func (p *Processor) approve(ctx context.Context, cb *wayforpay.Callback, ref string) {
	applied, payment, err := p.store.ApprovePayment(ref, cb.PaidAt(p.now()), datatypes.JSON(cb.Raw))
	if err != nil {
		p.log.Error("approve payment", "order_reference", ref, "error", err)
		return
	}
	if !applied {
		p.log.Info("duplicate approval suppressed", "order_reference", ref)
		return
	}
	p.log.Info("payment approved",
		"order_reference", ref, "tg_id", payment.TgID, "tariff", payment.TariffCode)

	sub, err := p.lifecycle.EnsureActive(ctx, payment.TgID, payment.TariffCode)
	if err != nil {
		p.log.Error("ensure subscription", "order_reference", ref, "error", err)
		return
	}

	// Post-commit messaging is best-effort; the subscription already stands.
	if err := p.messenger.SendMessage(ctx, payment.TgID, "Дякуємо за оплату 🤍 Підписку активовано.", nil); err != nil {
		p.log.Warn("send payment confirmation", "tg_id", payment.TgID, "error", err)
	}
	if sub.InviteLink != "" {
		if err := p.messenger.SendMessage(ctx, payment.TgID, "Ваше запрошення:", bot.InviteKeyboard(sub.InviteLink)); err != nil {
			p.log.Warn("send invite", "tg_id", payment.TgID, "error", err)
		}
	} else {
		if err := p.messenger.SendMessage(ctx, payment.TgID, "Не вдалося створити запрошення автоматично. Напишіть нам, і ми допоможемо 🤍", nil); err != nil {
			p.log.Warn("send invite fallback", "tg_id", payment.TgID, "error", err)
		}
	}
}

func (p *Processor) setTerminal(ref string, status models.PaymentStatus, cb *wayforpay.Callback) {
	if err := p.store.SetPaymentStatus(ref, status, datatypes.JSON(cb.Raw)); err != nil {
		p.log.Error("set payment status", "order_reference", ref, "status", status, "error", err)
		return
	}
	p.log.Info("payment closed", "order_reference", ref, "status", status)
}
