package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	// KafkaBrokers — список брокеров через запятую. Пустое значение отключает события.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	OrderNumberPrefix         string        `env:"ORDER_NUMBER_PREFIX" envDefault:"ORD"`
	ReservationTimeoutMinutes uint          `env:"RESERVATION_TIMEOUT_MINUTES" envDefault:"30"`
	CheckoutMaxRetries        int           `env:"CHECKOUT_MAX_RETRIES" envDefault:"3"`
	CheckoutTimeout           time.Duration `env:"CHECKOUT_TIMEOUT" envDefault:"30s"`
	ExpirySweepInterval       time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"1m"`
}

func LoadConfig() (*Config, error) {
	var envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	var flagsConfig Config
	loadFlags(&flagsConfig)

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadFlags(flagConfig *Config) {
	flag.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	flag.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	flag.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")

	flag.Parse()
}

// mergeConfig объединяет конфиги: значения из окружения имеют приоритет над флагами.
func mergeConfig(envConfig, flagsConfig *Config) *Config {
	merged := *envConfig
	merged.RunAddress = defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress)
	merged.DatabaseDSN = defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN)
	merged.MigrationsDir = defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir)
	return &merged
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
