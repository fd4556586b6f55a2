// Package config loads typed configuration sections from the process
// environment, optionally seeded from .env files.
//
// Parsing is delegated to github.com/caarlos0/env/v11 and .env loading to
// github.com/joho/godotenv. Each section is a plain struct with env tags:
//
//	type AppConfig struct {
//		Name string `env:"APP_NAME" envDefault:"behaviortrace"`
//	}
//
//	cfg, err := config.Load[AppConfig]()
//
// Values already present in the environment win over .env entries.
package config
