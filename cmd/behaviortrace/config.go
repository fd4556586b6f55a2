package main

import (
	"github.com/dmitrymomot/behaviortrace/pkg/httpserver"
	"github.com/dmitrymomot/behaviortrace/pkg/ratelimit"
)

const (
	driverMemory   = "memory"
	driverMongo    = "mongo"
	driverPostgres = "postgres"

	backendMemory = "memory"
	backendRedis  = "redis"
	backendOff    = "off"
)

type appConfig struct {
	Name             string   `env:"APP_NAME" envDefault:"behaviortrace"`
	Env              string   `env:"APP_ENV" envDefault:"development"`
	StorageDriver    string   `env:"STORAGE_DRIVER" envDefault:"memory"`
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitBackend string   `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`

	CollectLimit ratelimit.Config `envPrefix:"RATE_LIMIT_COLLECT_"`
	QueryLimit   ratelimit.Config `envPrefix:"RATE_LIMIT_QUERY_"`

	HTTP httpserver.Config
}
