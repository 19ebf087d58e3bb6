package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type WayForPayConfig struct {
	MerchantAccount string `mapstructure:"merchant_account" validate:"required"`
	MerchantDomain  string `mapstructure:"merchant_domain" validate:"required"`
	MerchantSecret  string `mapstructure:"merchant_secret" validate:"required"`
	Currency        string `mapstructure:"currency"`
	APIURL          string `mapstructure:"api_url" validate:"url"`
	ServiceURL      string `mapstructure:"service_url"`
	ReturnURL       string `mapstructure:"return_url"`
	// Overrides the invoice amount when > 0 (cheap end-to-end payment tests).
	ForceTestAmount int `mapstructure:"force_test_amount"`
}

type TariffConfig struct {
	PriceEUR1m   int `mapstructure:"price_eur_1m"`
	PriceEUR2m   int `mapstructure:"price_eur_2m"`
	PriceEUR3m   int `mapstructure:"price_eur_3m"`
	PriceLocal1m int `mapstructure:"price_local_1m"`
	PriceLocal2m int `mapstructure:"price_local_2m"`
	PriceLocal3m int `mapstructure:"price_local_3m"`
}

type Config struct {
	Addr          string `mapstructure:"addr"`
	DatabasePath  string `mapstructure:"database_path"`
	BotToken      string `mapstructure:"bot_token" validate:"required"`
	ChannelID     int64  `mapstructure:"channel_id"`
	WebhookSecret string `mapstructure:"webhook_secret" validate:"required"`

	LogLevel string `mapstructure:"log_level"`

	// Shared interval for the reminder, expiry and winback loops.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Width of the one-shot reminder windows. Must exceed TickInterval or a
	// subscription can slip between two scans unnoticed.
	ReminderSlack time.Duration `mapstructure:"reminder_slack"`

	// Promo photo for winback messages (Telegram file_id or URL); optional.
	WinbackPhoto string `mapstructure:"winback_photo"`

	WayForPay WayForPayConfig `mapstructure:"wfp"`
	Tariffs   TariffConfig    `mapstructure:"tariffs"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("database_path", "stylenest.db")
	v.SetDefault("bot_token", "")
	v.SetDefault("channel_id", 0)
	v.SetDefault("webhook_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("tick_interval", "60s")
	v.SetDefault("reminder_slack", "1h")
	v.SetDefault("winback_photo", "")

	v.SetDefault("wfp.merchant_account", "")
	v.SetDefault("wfp.merchant_domain", "")
	v.SetDefault("wfp.merchant_secret", "")
	v.SetDefault("wfp.currency", "UAH")
	v.SetDefault("wfp.api_url", "https://api.wayforpay.com/api")
	v.SetDefault("wfp.service_url", "")
	v.SetDefault("wfp.return_url", "")
	v.SetDefault("wfp.force_test_amount", 0)

	v.SetDefault("tariffs.price_eur_1m", 15)
	v.SetDefault("tariffs.price_eur_2m", 28)
	v.SetDefault("tariffs.price_eur_3m", 40)
	v.SetDefault("tariffs.price_local_1m", 650)
	v.SetDefault("tariffs.price_local_2m", 1200)
	v.SetDefault("tariffs.price_local_3m", 1700)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("club")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.ReminderSlack <= c.TickInterval {
		return fmt.Errorf("reminder_slack (%s) must exceed tick_interval (%s): otherwise a subscription can pass through a reminder window between two scans",
			c.ReminderSlack, c.TickInterval)
	}
	return nil
}
