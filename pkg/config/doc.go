// Package config loads typed configuration structs from environment
// variables.
//
// Configuration is described by plain structs with `env` tags as defined by
// github.com/caarlos0/env. A local .env file is loaded once per process via
// godotenv so development setups work without exporting anything.
//
// Each configuration type is parsed once and cached; subsequent Load calls
// for the same type return the cached copy. This keeps configuration stable
// for the whole process lifetime regardless of later environment mutation.
//
// Usage:
//
//	type BrokerConfig struct {
//		RedisURL string `env:"QUEUE_REDIS_URL,required"`
//	}
//
//	var cfg BrokerConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
package config
