package repository

import (
	"time"

	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Reference ReferenceRepository
}

func NewRepositories(db *sqlx.DB, storeTimeout time.Duration) *Repositories {
	return &Repositories{
		Reference: NewReferenceRepository(db, storeTimeout),
	}
}
