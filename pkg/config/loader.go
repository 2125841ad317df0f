// Package config parses environment variables into tagged structs. Every
// component of the service reads its settings this way; nothing consults the
// environment directly.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the process environment using `env` struct tags:
//
//	type Config struct {
//	    PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
//	    HTTPPort     int    `env:"HTTP_PORT" envDefault:"8080"`
//	}
//
// cfg must be a pointer to a struct.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
