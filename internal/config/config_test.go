package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("WEBHOOK_SECRET", "hook-secret")
	t.Setenv("WFP_MERCHANT_ACCOUNT", "merchant")
	t.Setenv("WFP_MERCHANT_DOMAIN", "stylenest.club")
	t.Setenv("WFP_MERCHANT_SECRET", "gateway-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "stylenest.db", cfg.DatabasePath)
	assert.Equal(t, 60*time.Second, cfg.TickInterval)
	assert.Equal(t, time.Hour, cfg.ReminderSlack)
	assert.Equal(t, "UAH", cfg.WayForPay.Currency)
	assert.Equal(t, "https://api.wayforpay.com/api", cfg.WayForPay.APIURL)
	assert.Equal(t, 650, cfg.Tariffs.PriceLocal1m)
	assert.Equal(t, 40, cfg.Tariffs.PriceEUR3m)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADDR", ":9000")
	t.Setenv("TICK_INTERVAL", "30s")
	t.Setenv("REMINDER_SLACK", "45m")
	t.Setenv("TARIFFS_PRICE_LOCAL_1M", "700")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, 45*time.Minute, cfg.ReminderSlack)
	assert.Equal(t, 700, cfg.Tariffs.PriceLocal1m)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("WFP_MERCHANT_ACCOUNT", "")
	t.Setenv("WFP_MERCHANT_DOMAIN", "")
	t.Setenv("WFP_MERCHANT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		BotToken:      "123:abc",
		WebhookSecret: "hook-secret",
		TickInterval:  time.Minute,
		ReminderSlack: time.Hour,
		WayForPay: WayForPayConfig{
			MerchantAccount: "merchant",
			MerchantDomain:  "stylenest.club",
			MerchantSecret:  "gateway-secret",
			APIURL:          "https://api.wayforpay.com/api",
		},
	}
}

// A reminder window narrower than the scan interval lets ends_at pass
// through unseen; reject that at startup rather than silently drop nudges.
func TestValidate_SlackMustExceedTick(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.ReminderSlack = cfg.TickInterval
	require.Error(t, cfg.Validate())

	cfg.ReminderSlack = cfg.TickInterval + time.Second
	require.NoError(t, cfg.Validate())

	cfg.TickInterval = 0
	require.Error(t, cfg.Validate())
}
