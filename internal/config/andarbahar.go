package config

import "time"

// GameConfig configures the Andar Bahar game service
type GameConfig struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	RepoType string // memory, redis, db
	// SessionID, when set, resumes the named session instead of opening a
	// fresh one; accepted bets are reloaded from the bet repository.
	SessionID string
	Settings  GameSettings
}

// GameSettings are the read-only game rule inputs
type GameSettings struct {
	MinBet int64 // currency minor units
	MaxBet int64
	// PayoutMultiplierX100 is the winning-side payout multiplier in
	// fixed-point hundredths: 200 means 2.00x.
	PayoutMultiplierX100  int64
	Round1BettingDuration time.Duration
	Round2BettingDuration time.Duration
}

// LoadGameConfig loads configuration for the game service
func LoadGameConfig() *GameConfig {
	return &GameConfig{
		Server: ServerConfig{
			Port:     getEnv("GAME_SERVER_PORT", "8080"),
			Name:     "andar-bahar-service",
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "game_user"),
			Password: getEnv("DB_PASSWORD", "game_pass"),
			Name:     getEnv("DB_NAME", "game_db"),
		},
		RepoType:  getEnv("GAME_REPO_TYPE", "memory"),
		SessionID: getEnv("GAME_SESSION_ID", ""),
		Settings: GameSettings{
			MinBet:                getEnvInt64("GAME_MIN_BET", 1000),    // Rs 10.00
			MaxBet:                getEnvInt64("GAME_MAX_BET", 5000000), // Rs 50,000.00
			PayoutMultiplierX100:  getEnvInt64("GAME_PAYOUT_MULTIPLIER_X100", 200),
			Round1BettingDuration: time.Duration(getEnvInt("GAME_ROUND1_BETTING_SECONDS", 30)) * time.Second,
			Round2BettingDuration: time.Duration(getEnvInt("GAME_ROUND2_BETTING_SECONDS", 20)) * time.Second,
		},
	}
}
