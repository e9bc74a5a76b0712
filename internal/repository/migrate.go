package repository

import "github.com/jmoiron/sqlx"

const schema = `
CREATE TABLE IF NOT EXISTS referencias (
	id BIGSERIAL PRIMARY KEY,
	media_group_id TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	user_id BIGINT NOT NULL,
	username TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pendiente',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS referencias_fotos (
	id BIGSERIAL PRIMARY KEY,
	referencia_id BIGINT NOT NULL REFERENCES referencias(id) ON DELETE CASCADE,
	file_id TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pendiente'
);

CREATE INDEX IF NOT EXISTS idx_referencias_user_id ON referencias(user_id);
CREATE INDEX IF NOT EXISTS idx_referencias_fotos_referencia_id ON referencias_fotos(referencia_id);
`

// Migrate creates the tables on startup if they do not exist yet.
func Migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}
