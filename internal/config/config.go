package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

type BillingConfig struct {
	VATAmount     decimal.Decimal
	Timezone      string
	Location      *time.Location
	Currency      string
	IssuerName    string
	IssuerAddress string
	IssuerTIN     string
	BillToName    string
	BillToAddress string
	BillToTIN     string
	PaymentTerms  string
	PaymentMethod string
}

type StorageConfig struct {
	Root          string
	MaxImageWidth int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Billing     BillingConfig
	Storage     StorageConfig
}

const defaultVATAmount = "6360.00"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Billing: BillingConfig{
			Timezone:      v.GetString("BILLING_TIMEZONE"),
			Currency:      v.GetString("BILLING_CURRENCY"),
			IssuerName:    v.GetString("BILLING_ISSUER_NAME"),
			IssuerAddress: v.GetString("BILLING_ISSUER_ADDRESS"),
			IssuerTIN:     v.GetString("BILLING_ISSUER_TIN"),
			BillToName:    v.GetString("BILLING_BILL_TO_NAME"),
			BillToAddress: v.GetString("BILLING_BILL_TO_ADDRESS"),
			BillToTIN:     v.GetString("BILLING_BILL_TO_TIN"),
			PaymentTerms:  v.GetString("BILLING_PAYMENT_TERMS"),
			PaymentMethod: v.GetString("BILLING_PAYMENT_METHOD"),
		},
		Storage: StorageConfig{
			Root:          v.GetString("STORAGE_ROOT"),
			MaxImageWidth: v.GetInt("STORAGE_MAX_IMAGE_WIDTH"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 10
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 5
	}
	if cfg.DB.ConnMaxLifetime == "" {
		cfg.DB.ConnMaxLifetime = "30m"
	}
	if cfg.Billing.Timezone == "" {
		cfg.Billing.Timezone = "Asia/Manila"
	}
	if cfg.Billing.Currency == "" {
		cfg.Billing.Currency = "PHP"
	}
	if cfg.Billing.PaymentTerms == "" {
		cfg.Billing.PaymentTerms = "30 DAYS"
	}
	if cfg.Billing.PaymentMethod == "" {
		cfg.Billing.PaymentMethod = "DOMESTIC FUNDS TRANSFER"
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "./data/blobs"
	}
	if cfg.Storage.MaxImageWidth == 0 {
		cfg.Storage.MaxImageWidth = 1600
	}

	rawVAT := strings.TrimSpace(v.GetString("BILLING_VAT_AMOUNT"))
	if rawVAT == "" {
		rawVAT = defaultVATAmount
	}
	vat, err := decimal.NewFromString(rawVAT)
	if err != nil {
		return nil, fmt.Errorf("BILLING_VAT_AMOUNT must be a number: %w", err)
	}
	cfg.Billing.VATAmount = vat

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Billing.VATAmount.IsNegative() {
		return fmt.Errorf("BILLING_VAT_AMOUNT must not be negative")
	}
	if _, err := time.ParseDuration(cfg.DB.ConnMaxLifetime); err != nil {
		return fmt.Errorf("DB_CONN_MAX_LIFETIME is invalid: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		return fmt.Errorf("BILLING_TIMEZONE is invalid: %w", err)
	}
	cfg.Billing.Location = loc
	if cfg.Storage.MaxImageWidth < 0 {
		return fmt.Errorf("STORAGE_MAX_IMAGE_WIDTH must not be negative")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
