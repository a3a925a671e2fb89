// Package config loads typed configuration structs from environment
// variables (and an optional .env file) once per process.
//
//	type CacheConfig struct {
//		MaxSize int           `env:"TENANT_CACHE_MAX_SIZE" envDefault:"1000"`
//		TTL     time.Duration `env:"TENANT_CACHE_TTL" envDefault:"10m"`
//	}
//
//	var cfg CacheConfig
//	config.MustLoad(&cfg)
//
// Components receive their configuration structs explicitly at construction;
// there is no global mutable configuration.
package config
