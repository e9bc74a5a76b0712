package config

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// one webhook consumer; a small pool is plenty
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return db, nil
}
