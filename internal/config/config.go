package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/booking/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKING"

// Settings is the subset of the configuration checked at startup.
type Settings struct {
	LogLevel                string  `validate:"oneof=debug info warn error"`
	HTTPPort                int     `validate:"gte=1,lte=65535"`
	RateLimitRPS            float64 `validate:"gte=0"`
	RateLimitBurst          int     `validate:"gte=0"`
	StoreDriver             string  `validate:"oneof=memory postgres firebase"`
	FirebaseDatabaseURL     string  `validate:"required_if=StoreDriver firebase,omitempty,url"`
	FirebaseCredentialsFile string  `validate:"required_if=StoreDriver firebase"`
	RabbitMQEnabled         bool
	OrderEventsQueue        string `validate:"required_if=RabbitMQEnabled true"`
	OutboxMaxRetries        int    `validate:"gte=1"`
}

// MustInit loads .env and config.yaml, validates the result and installs the default logger.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	setDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/booking-svc")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}

	settings, err := Load()
	if err != nil {
		panic(err.Error())
	}
	SetupLogger(settings.LogLevel)
}

// Load reads the settings from viper and validates them.
func Load() (Settings, error) {
	s := Settings{
		LogLevel:                strings.ToLower(viper.GetString("log.level")),
		HTTPPort:                viper.GetInt("server.http.port"),
		RateLimitRPS:            viper.GetFloat64("server.http.rate_limit.rps"),
		RateLimitBurst:          viper.GetInt("server.http.rate_limit.burst"),
		StoreDriver:             viper.GetString("store.driver"),
		FirebaseDatabaseURL:     viper.GetString("store.firebase.database_url"),
		FirebaseCredentialsFile: viper.GetString("store.firebase.credentials_file"),
		RabbitMQEnabled:         viper.GetBool("rabbitmq.enabled"),
		OrderEventsQueue:        viper.GetString("rabbitmq.queues.order_events"),
		OutboxMaxRetries:        viper.GetInt("rabbitmq.outbox.max_retries"),
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return s, nil
}

func setDefaults() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log.level", "info")
	viper.SetDefault("server.http.port", 8080)
	viper.SetDefault("server.http.read_header_timeout_seconds", 10)
	viper.SetDefault("server.http.shutdown_timeout_seconds", 10)
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PUT", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Content-Type", "X-Request-Id"})
	viper.SetDefault("server.http.rate_limit.rps", 0)
	viper.SetDefault("server.http.rate_limit.burst", 20)
	viper.SetDefault("server.http.rate_limit.trust_forwarded", false)
	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.firebase.poll_interval", "2s")
	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.migrations_path", "./migrations")
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.queues.order_events", "booking.order.events")
	viper.SetDefault("rabbitmq.outbox.max_retries", 5)
	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.jaeger.endpoint", "http://jaeger:14268/api/traces")
}

// SetupLogger installs the default JSON logger at the given level.
func SetupLogger(level string) {
	handler := logger.NewHandler(&slog.HandlerOptions{Level: parseLevel(level)})
	log := slog.New(handler)
	slog.SetDefault(log)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}

	return l
}
