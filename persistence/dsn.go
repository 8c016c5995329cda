package persistence

import (
	"fmt"

	"github.com/wfunc/rmcs/config"
)

// DSN builds a libpq key/value connection string.
func DSN(c config.PostgresConfig) string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslmode)
}

// Open returns the store selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemory(), nil
	case config.DriverGorm:
		return NewGormPostgreSQL(DSN(cfg.Postgres))
	case config.DriverPostgres:
		return NewPostgreSQL(DSN(cfg.Postgres))
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
