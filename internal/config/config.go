package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Bot      BotConfig
	Logging  LoggingConfig
	Security SecurityConfig
}

// SecurityConfig - секреты, управляющие доступом к административному API и
// хранением учётных данных площадок.
type SecurityConfig struct {
	// EncryptionKey - 32-байтовый ключ AES-256-GCM, которым
	// repository.VenueCredentialRepository шифрует секретные ключи площадок
	// перед записью в БД. Пусто => шифрование секретов площадок отключено.
	EncryptionKey string

	// APIPasswordHash - bcrypt-хеш пароля административного API
	// (middleware.RequireBasicAuth). Если задан, побеждает обычное сравнение
	// пароля из API_PASSWORD.
	APIPasswordHash string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// BotConfig - параметры детектора арбитража.
type BotConfig struct {
	// Venues - список площадок, для которых запускается populator.
	Venues []string

	// StartCurrency/StartAmount - точка входа поиска циклов.
	StartCurrency string
	StartAmount   float64

	// ArbitrageThresholdPcent - минимальная прибыльность (0.01 = 1%).
	// cmd/detector это поле не читает: порог драйвера берётся из
	// repository.Settings.ArbitrageThreshold.
	ArbitrageThresholdPcent float64

	// MaxSearchSteps - глубина DFS перечислителя. cmd/detector это поле не
	// читает: глубина берётся из repository.Settings.MaxSearchSteps.
	MaxSearchSteps int

	// PopulateInterval - пауза между последовательными populate одной
	// площадки в режиме forever.
	PopulateInterval time.Duration

	// StatsUpdateFreq - периодичность публикации ranked-кандидатов в
	// forever-режиме; сводку pairwise diffs драйвер логирует на том же тике,
	// только если заданы оба driver.Options.DiffsFrom и DiffsTo.
	StatsUpdateFreq time.Duration

	// ExchangeCallTimeout - таймаут одного вызова ExchangeClient.
	ExchangeCallTimeout time.Duration

	// RetryCount - число попыток (включая первую) каждой фазы populate при
	// таймауте площадки.
	RetryCount int
	RetryBackoff time.Duration

	// SynonymSource - "default" для встроенного набора синонимов (XBT/BTC,
	// BCC/BCH) либо "none" для отключения синонимов.
	SynonymSource string
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "arbitrage"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Bot: BotConfig{
			// Площадки sharpshooter.py по умолчанию опрашивал именно этот
			// набор; реальные клиенты подключаются извне, здесь это просто
			// список имён для populator-ов.
			Venues: getEnvAsStringSlice("VENUES", []string{
				"bittrex", "gdax", "kraken", "poloniex",
				"bitmex", "cryptopia", "gemini", "binance",
			}),

			StartCurrency: getEnv("START_CURRENCY", "USD"),
			StartAmount:   getEnvAsFloat("START_AMOUNT", 1000),

			ArbitrageThresholdPcent: getEnvAsFloat("ARBITRAGE_THRESHOLD_PCENT", 0.01),
			MaxSearchSteps:          getEnvAsInt("MAX_SEARCH_STEPS", 3),

			PopulateInterval: getEnvAsDuration("POPULATE_INTERVAL", 5*time.Second),
			StatsUpdateFreq:  getEnvAsDuration("STATS_UPDATE_FREQ", 1*time.Second),

			ExchangeCallTimeout: getEnvAsDuration("EXCHANGE_CALL_TIMEOUT", 10*time.Second),
			RetryCount:          getEnvAsInt("RETRY_COUNT", 5),
			RetryBackoff:        getEnvAsDuration("RETRY_BACKOFF", 100*time.Millisecond),

			SynonymSource: getEnv("SYNONYM_SOURCE", "default"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EncryptionKey:   getEnv("ENCRYPTION_KEY", ""),
			APIPasswordHash: getEnv("API_PASSWORD_HASH", ""),
		},
	}

	return cfg, nil
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
