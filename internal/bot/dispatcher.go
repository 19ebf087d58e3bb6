package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/ledger"
	"github.com/stylenest/club/internal/models"
)

// InvoiceCreator is the slice of the payment gateway the dispatcher needs.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, tgID int64, tariffCode string, amount int) (orderRef, invoiceID, invoiceURL string, err error)
}

// Dispatcher routes incoming Telegram updates: /start, the tariff picker and
// invoice creation.
type Dispatcher struct {
	log     *slog.Logger
	store   *ledger.Store
	gateway InvoiceCreator
	client  *Client
	cfg     *config.Config
	now     func() time.Time
}

func NewDispatcher(log *slog.Logger, store *ledger.Store, gateway InvoiceCreator, client *Client, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		log:     log,
		store:   store,
		gateway: gateway,
		client:  client,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, up *Update) {
	switch {
	case up.Message != nil:
		d.handleMessage(ctx, up.Message)
	case up.Callback != nil:
		d.handleCallback(ctx, up.Callback)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if err := d.store.EnsureUser(msg.From.ID, msg.From.Username, msg.From.LanguageCode); err != nil {
		d.log.Error("ensure user", "tg_id", msg.From.ID, "error", err)
	}

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		if err := d.client.SendMessage(ctx, msg.Chat.ID, "Вітаємо у STYLENEST CLUB 🤍", MainKeyboard()); err != nil {
			d.log.Warn("send greeting", "chat_id", msg.Chat.ID, "error", err)
		}
		d.sendTariffsBlock(ctx, msg.Chat.ID)
	case msg.Text == "💳 Тарифи":
		d.sendTariffsBlock(ctx, msg.Chat.ID)
	case msg.Text == "🧾 Моя підписка":
		d.sendSubscriptionStatus(ctx, msg.Chat.ID, msg.From.ID)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	if err := d.client.AnswerCallback(ctx, cb.ID); err != nil {
		d.log.Warn("answer callback", "error", err)
	}

	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(cb.Data, "tariff:"):
		d.sendTariffDetails(ctx, chatID, strings.TrimPrefix(cb.Data, "tariff:"))
	case strings.HasPrefix(cb.Data, "pay:"):
		d.startPayment(ctx, chatID, cb.From.ID, strings.TrimPrefix(cb.Data, "pay:"))
	case cb.Data == "back:tariffs":
		d.sendTariffsBlock(ctx, chatID)
	}
}

func (d *Dispatcher) sendTariffsBlock(ctx context.Context, chatID int64) {
	if err := d.client.SendMessage(ctx, chatID, "Виберіть бажаний для вас тариф 🤍", TariffsKeyboard(d.cfg.Tariffs)); err != nil {
		d.log.Warn("send tariffs", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) sendTariffDetails(ctx context.Context, chatID int64, code string) {
	if !models.ValidTariff(code) {
		return
	}
	text := fmt.Sprintf("%s - %d€ 💳\nЦіна: %d₴\nТривалість: %s\n\nВи отримаєте запрошення в канал 👇\n— STYLENEST CLUB",
		TariffTitle(code), eurPrice(d.cfg.Tariffs, code), localPrice(d.cfg.Tariffs, code), TariffTitle(code))
	if err := d.client.SendMessage(ctx, chatID, text, TariffDetailsKeyboard(code)); err != nil {
		d.log.Warn("send tariff details", "chat_id", chatID, "error", err)
	}
}

// startPayment mints the invoice first and only then records the pending
// payment, so every ledger row has a gateway-side counterpart.
func (d *Dispatcher) startPayment(ctx context.Context, chatID, tgID int64, code string) {
	if !models.ValidTariff(code) {
		return
	}
	amount := localPrice(d.cfg.Tariffs, code)

	orderRef, invoiceID, invoiceURL, err := d.gateway.CreateInvoice(ctx, tgID, code, amount)
	if err != nil {
		d.log.Error("create invoice", "tg_id", tgID, "tariff", code, "error", err)
		_ = d.client.SendMessage(ctx, chatID, "Не вдалося створити рахунок. Спробуйте, будь ласка, пізніше 🙏", nil)
		return
	}

	p := &models.Payment{
		TgID:           tgID,
		OrderReference: orderRef,
		InvoiceID:      invoiceID,
		InvoiceURL:     invoiceURL,
		TariffCode:     code,
		Amount:         amount,
		Currency:       d.cfg.WayForPay.Currency,
		Status:         models.PaymentPending,
	}
	if err := d.store.CreatePayment(p); err != nil {
		d.log.Error("record pending payment", "order_reference", orderRef, "error", err)
		return
	}
	d.log.Info("invoice created", "tg_id", tgID, "tariff", code, "order_reference", orderRef)

	kb := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "💳 Перейти до оплати", URL: invoiceURL}},
	}}
	if err := d.client.SendMessage(ctx, chatID, "Рахунок створено. Після оплати підписка активується автоматично ✨", kb); err != nil {
		d.log.Warn("send invoice link", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) sendSubscriptionStatus(ctx context.Context, chatID, tgID int64) {
	sub, err := d.store.ActiveSubscription(tgID, d.now())
	if err != nil {
		d.log.Error("load subscription", "tg_id", tgID, "error", err)
		return
	}
	if sub == nil {
		if err := d.client.SendMessage(ctx, chatID, "У вас немає активної підписки.", TariffsKeyboard(d.cfg.Tariffs)); err != nil {
			d.log.Warn("send status", "chat_id", chatID, "error", err)
		}
		return
	}
	text := fmt.Sprintf("Ваша підписка активна до %s (залишилось %s).",
		sub.EndsAt.UTC().Format("02.01.2006 15:04"), humanLeft(sub.EndsAt.Sub(d.now())))
	if err := d.client.SendMessage(ctx, chatID, text, nil); err != nil {
		d.log.Warn("send status", "chat_id", chatID, "error", err)
	}
}

func humanLeft(left time.Duration) string {
	if left <= 0 {
		return "закінчилась"
	}
	days := int(left.Hours()) / 24
	hours := int(left.Hours()) % 24
	mins := int(left.Minutes()) % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d дн", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d год", hours))
	}
	if mins > 0 && days == 0 {
		parts = append(parts, fmt.Sprintf("%d хв", mins))
	}
	if len(parts) == 0 {
		return "менше хвилини"
	}
	return strings.Join(parts, " ")
}
