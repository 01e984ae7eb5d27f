package config

import "time"

// --- Shared Configs ---

type ServerConfig struct {
	Port     string // HTTP port
	Name     string // service name for logs
	LogLevel string // debug, info, warn, error
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN builds the Postgres connection string
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host + " port=" + d.Port + " user=" + d.User +
		" password=" + d.Password + " dbname=" + d.Name + " sslmode=disable"
}

type RedisConfig struct {
	Host string
	Port string
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret   string
	Duration time.Duration
}
