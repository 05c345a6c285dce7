package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config collects everything the server reads from the environment.
type Config struct {
	Port    string
	GinMode string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MarketAPIURL       string
	MarketServiceKey   string
	MarketStockCodes   []string
	MarketPollInterval time.Duration
}

// Load reads the environment with defaults suitable for local runs.
// godotenv.Load in main populates the environment from .env first.
func Load() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "trader"),
		DBPassword: getEnv("DB_PASSWORD", "trading123"),
		DBName:     getEnv("DB_NAME", "stocksim"),

		MarketAPIURL:     getEnv("MARKET_API_URL", "https://apis.data.go.kr/1160100/service/GetStockSecuritiesInfoService/getStockPriceInfo"),
		MarketServiceKey: getEnv("MARKET_SERVICE_KEY", ""),
	}

	cfg.MarketStockCodes = splitCodes(getEnv("MARKET_STOCK_CODES", "005930"))

	interval, err := time.ParseDuration(getEnv("MARKET_POLL_INTERVAL", "1h"))
	if err != nil {
		interval = time.Hour
	}
	cfg.MarketPollInterval = interval

	return cfg
}

// DBConnString builds the lib/pq connection string.
func (c *Config) DBConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func splitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
