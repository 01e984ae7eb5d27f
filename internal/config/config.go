// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MonolithConfig holds all configuration for monolith mode
type MonolithConfig struct {
	Game    GameConfig
	Gateway GatewayConfig
}

// LoadMonolithConfig loads all configurations for monolith mode. A .env
// file in the working directory is applied first when present.
func LoadMonolithConfig() *MonolithConfig {
	_ = godotenv.Load()

	return &MonolithConfig{
		Game:    *LoadGameConfig(),
		Gateway: *LoadGatewayConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}
