package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"console"`
	}

	HTTPServer struct {
		Host           string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
		Port           int    `env:"HTTP_PORT" envDefault:"8080"`
		RequestTimeout int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	}

	Postgres struct {
		Host           string `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port           int    `env:"POSTGRES_PORT" envDefault:"5432"`
		User           string `env:"POSTGRES_USER" envDefault:"storefront"`
		Password       string `env:"POSTGRES_PASSWORD"`
		DBName         string `env:"POSTGRES_DB" envDefault:"storefront"`
		MigrationsPath string `env:"POSTGRES_MIGRATIONS_PATH" envDefault:"migrations"`
	}

	Catalog struct {
		DBPath         string `env:"CATALOG_DB_PATH" envDefault:"data/catalog.db"`
		MigrationsPath string `env:"CATALOG_MIGRATIONS_PATH" envDefault:"internal/catalog/migrations"`
	}

	GuestCartPath string `env:"GUEST_CART_PATH" envDefault:"data/guest-cart.json"`

	Redis struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
		Topic   string   `env:"KAFKA_ORDER_TOPIC" envDefault:"order-events"`
	}

	Auth struct {
		JWTSecret string `env:"JWT_SECRET,required"`
	}
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
