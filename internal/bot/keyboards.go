package bot

import (
	"fmt"

	"github.com/stylenest/club/internal/config"
	"github.com/stylenest/club/internal/models"
)

var tariffTitles = map[string]string{
	models.Tariff1m: "1 місяць",
	models.Tariff2m: "2 місяці",
	models.Tariff3m: "3 місяці",
}

func TariffTitle(code string) string {
	return tariffTitles[code]
}

func eurPrice(t config.TariffConfig, code string) int {
	switch code {
	case models.Tariff2m:
		return t.PriceEUR2m
	case models.Tariff3m:
		return t.PriceEUR3m
	default:
		return t.PriceEUR1m
	}
}

func localPrice(t config.TariffConfig, code string) int {
	switch code {
	case models.Tariff2m:
		return t.PriceLocal2m
	case models.Tariff3m:
		return t.PriceLocal3m
	default:
		return t.PriceLocal1m
	}
}

// TariffsKeyboard is the tariff picker attached to the start screen and to
// every scheduler nudge.
func TariffsKeyboard(t config.TariffConfig) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, 3)
	for _, code := range []string{models.Tariff1m, models.Tariff2m, models.Tariff3m} {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s – %d€ 💳", TariffTitle(code), eurPrice(t, code)),
			CallbackData: "tariff:" + code,
		}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func TariffDetailsKeyboard(code string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "💳 Оплатити", CallbackData: "pay:" + code}},
		{{Text: "↩️ Назад", CallbackData: "back:tariffs"}},
	}}
}

func InviteKeyboard(inviteLink string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "🔗 Вступити", URL: inviteLink}},
	}}
}

func MainKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]KeyboardButton{
			{{Text: "💳 Тарифи"}, {Text: "🧾 Моя підписка"}},
		},
	}
}
