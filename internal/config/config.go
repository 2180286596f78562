package config

import (
	"github.com/spf13/viper"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/pkg/config"
)

// ServiceConfig holds all configuration shared by the platform binaries. Each
// binary loads the same shape and uses the sections it needs.
type ServiceConfig struct {
	Port                string
	AppEnv              string
	DBConfig            config.DatabaseConfig
	JWTConfig           config.JWTConfig
	KafkaConfig         config.KafkaConfig
	RedisConfig         config.RedisConfig
	StripeConfig        adapter.StripeConfig
	VNPayConfig         adapter.VNPayConfig
	GoogleConfig        adapter.GoogleCalendarConfig
	StalePendingMinutes int
}

// Load reads configuration from environment variables for the named service.
func Load(service string) (*ServiceConfig, error) {
	v, err := config.Load(service)
	if err != nil {
		return nil, err
	}

	staleMinutes := v.GetInt("STALE_PENDING_MINUTES")
	if staleMinutes <= 0 {
		staleMinutes = 30
	}

	return &ServiceConfig{
		Port:                config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:              config.GetAppEnv(v),
		DBConfig:            config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:           config.LoadJWTConfig(v),
		KafkaConfig:         config.LoadKafkaConfig(v),
		RedisConfig:         config.LoadRedisConfig(v),
		StripeConfig:        loadStripeConfig(v),
		VNPayConfig:         loadVNPayConfig(v),
		GoogleConfig:        loadGoogleConfig(v),
		StalePendingMinutes: staleMinutes,
	}, nil
}

func loadStripeConfig(v *viper.Viper) adapter.StripeConfig {
	currency := v.GetString("STRIPE_CURRENCY")
	if currency == "" {
		currency = "usd"
	}
	return adapter.StripeConfig{
		SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Currency:      currency,
		SuccessURL:    v.GetString("STRIPE_SUCCESS_URL"),
		CancelURL:     v.GetString("STRIPE_CANCEL_URL"),
	}
}

func loadVNPayConfig(v *viper.Viper) adapter.VNPayConfig {
	payURL := v.GetString("VNPAY_PAY_URL")
	if payURL == "" {
		payURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	}
	return adapter.VNPayConfig{
		TmnCode:    v.GetString("VNPAY_TMN_CODE"),
		HashSecret: v.GetString("VNPAY_HASH_SECRET"),
		PayURL:     payURL,
		ReturnURL:  v.GetString("VNPAY_RETURN_URL"),
	}
}

func loadGoogleConfig(v *viper.Viper) adapter.GoogleCalendarConfig {
	return adapter.GoogleCalendarConfig{
		ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		TokenURL:     v.GetString("GOOGLE_TOKEN_URL"),
	}
}
