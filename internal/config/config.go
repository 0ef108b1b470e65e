package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type HTTP struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

// ProductAPI points the order service at the product service.
type ProductAPI struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gte=0"`
}

type Scanner struct {
	Interval time.Duration `validate:"gt=0"`
	MaxAge   time.Duration `validate:"gt=0"`
}

type Cache struct {
	Capacity int           `validate:"gte=1"`
	TTL      time.Duration `validate:"gt=0"`
}

type Order struct {
	Env        string `validate:"required,oneof=development stage production"`
	HTTP       HTTP
	Cors       CORS       `validate:"required"`
	Postgres   Postgres   `validate:"required"`
	ProductAPI ProductAPI `validate:"required"`
	Scanner    Scanner    `validate:"required"`
	Cache      Cache      `validate:"required"`
}

func NewOrder() Order {
	return Order{
		Env: env("ENV", "development"),

		HTTP: HTTP{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "2021"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "*"), ","),
		},

		Postgres: newPostgres("orders"),

		ProductAPI: ProductAPI{
			BaseURL: env("PRODUCT_SERVICE_URL", "http://localhost:2020"),
			Timeout: envDuration("PRODUCT_SERVICE_TIMEOUT", 0),
		},

		Scanner: Scanner{
			Interval: envDuration("SCANNER_INTERVAL", 30*time.Second),
			MaxAge:   envDuration("SCANNER_MAX_AGE", 3*time.Minute),
		},

		Cache: Cache{
			Capacity: envInt("PRODUCT_NAME_CACHE_CAPACITY", 256),
			TTL:      envDuration("PRODUCT_NAME_CACHE_TTL", 5*time.Minute),
		},
	}
}

func (c Order) Validate() error {
	return validator.New().Struct(c)
}

type Product struct {
	Env      string `validate:"required,oneof=development stage production"`
	HTTP     HTTP
	Cors     CORS     `validate:"required"`
	Postgres Postgres `validate:"required"`
}

func NewProduct() Product {
	return Product{
		Env: env("ENV", "development"),

		HTTP: HTTP{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "2020"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "*"), ","),
		},

		Postgres: newPostgres("products"),
	}
}

func (c Product) Validate() error {
	return validator.New().Struct(c)
}

// Discord holds the chat webhook target. Empty URL disables the notifier.
type Discord struct {
	WebhookURL string `validate:"omitempty,url"`
}

// Twilio holds the WhatsApp messaging credentials. Empty SID disables
// the notifier.
type Twilio struct {
	BaseURL    string `validate:"required,url"`
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

type Poller struct {
	Interval time.Duration `validate:"gt=0"`
	Timeout  time.Duration `validate:"gt=0"`
}

type Admin struct {
	Env     string `validate:"required,oneof=development stage production"`
	HTTP    HTTP
	Cors    CORS   `validate:"required"`
	Poller  Poller `validate:"required"`
	Discord Discord
	Twilio  Twilio
}

func NewAdmin() Admin {
	return Admin{
		Env: env("ENV", "development"),

		HTTP: HTTP{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "2024"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "*"), ","),
		},

		Poller: Poller{
			Interval: envDuration("POLL_INTERVAL", 10*time.Second),
			Timeout:  envDuration("POLL_TIMEOUT", 5*time.Second),
		},

		Discord: Discord{
			WebhookURL: env("DISCORD_WEBHOOK_URL", ""),
		},

		Twilio: Twilio{
			BaseURL:    env("TWILIO_BASE_URL", "https://api.twilio.com/2010-04-01"),
			AccountSID: env("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  env("TWILIO_AUTH_TOKEN", ""),
			From:       env("TWILIO_WHATSAPP_FROM", ""),
			To:         env("TWILIO_WHATSAPP_TO", ""),
		},
	}
}

func (c Admin) Validate() error {
	return validator.New().Struct(c)
}

type AdminApp struct {
	Env  string `validate:"required,oneof=development stage production"`
	HTTP HTTP
	Cors CORS `validate:"required"`
}

func NewAdminApp() AdminApp {
	return AdminApp{
		Env: env("ENV", "development"),

		HTTP: HTTP{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "2023"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "*"), ","),
		},
	}
}

func (c AdminApp) Validate() error {
	return validator.New().Struct(c)
}

func newPostgres(defaultDB string) Postgres {
	return Postgres{
		Port:     envInt("POSTGRES_PORT", 5432),
		Host:     env("POSTGRES_HOST", "localhost"),
		DBName:   env("POSTGRES_DB", defaultDB),
		User:     env("POSTGRES_USER", ""),
		Password: env("POSTGRES_PASSWORD", ""),

		SSLMode: env("POSTGRES_SSL_MODE", "disable"),

		MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
