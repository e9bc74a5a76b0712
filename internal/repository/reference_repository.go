package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dresesc/winter-references-bot/internal/domain"
)

// ReferenceRepository is the persistence contract for references and their
// photos. It carries no review policy; status values are written as given.
// Every method maps a missing row to domain.ErrNotFound and any other
// persistence failure to domain.ErrStoreUnavailable, and bounds the call with
// the configured timeout so no caller blocks indefinitely.
type ReferenceRepository interface {
	Create(ctx context.Context, ref *domain.Reference) error
	AddPhoto(ctx context.Context, photo *domain.ReferencePhoto) error
	CreateWithPhotos(ctx context.Context, ref *domain.Reference, photos []domain.ReferencePhoto) error
	GetByID(ctx context.Context, id int64) (*domain.Reference, error)
	GetPhoto(ctx context.Context, photoID int64) (*domain.ReferencePhoto, error)
	ListPhotos(ctx context.Context, referenceID int64) ([]domain.ReferencePhoto, error)
	UpdateStatus(ctx context.Context, referenceID int64, status domain.ReferenceStatus) error
	UpdatePhotoStatus(ctx context.Context, photoID int64, status domain.ReferenceStatus) error
	UpdateAllPhotoStatuses(ctx context.Context, referenceID int64, status domain.ReferenceStatus) error
	CountPhotoStatuses(ctx context.Context, referenceID int64) (pending, approved, rejected int64, err error)
	CountApprovedForUser(ctx context.Context, userID int64) (int64, error)
	Ranking(ctx context.Context) ([]domain.RankingEntry, error)
	ResetAll(ctx context.Context) error
}

type referenceRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewReferenceRepository(db *sqlx.DB, timeout time.Duration) ReferenceRepository {
	return &referenceRepository{db: db, timeout: timeout}
}

func (r *referenceRepository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (r *referenceRepository) Create(ctx context.Context, ref *domain.Reference) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO referencias (media_group_id, caption, user_id, username, name, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		ref.MediaGroupID, ref.Caption, ref.UserID, ref.Username, ref.Name, ref.Status,
	).Scan(&ref.ID, &ref.CreatedAt)
	return wrapErr(err)
}

func (r *referenceRepository) AddPhoto(ctx context.Context, photo *domain.ReferencePhoto) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		INSERT INTO referencias_fotos (referencia_id, file_id, caption, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		photo.ReferenceID, photo.FileID, photo.Caption, photo.Status,
	).Scan(&photo.ID)
	return wrapErr(err)
}

// CreateWithPhotos inserts the reference and every photo in one transaction,
// so a hard failure mid-sequence never leaves a reference with only part of
// its photos.
func (r *referenceRepository) CreateWithPhotos(ctx context.Context, ref *domain.Reference, photos []domain.ReferencePhoto) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback()

	refQuery := `
		INSERT INTO referencias (media_group_id, caption, user_id, username, name, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	if err := tx.QueryRowxContext(ctx, refQuery,
		ref.MediaGroupID, ref.Caption, ref.UserID, ref.Username, ref.Name, ref.Status,
	).Scan(&ref.ID, &ref.CreatedAt); err != nil {
		return wrapErr(err)
	}

	photoQuery := `
		INSERT INTO referencias_fotos (referencia_id, file_id, caption, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	for i := range photos {
		photos[i].ReferenceID = ref.ID
		if err := tx.QueryRowxContext(ctx, photoQuery,
			photos[i].ReferenceID, photos[i].FileID, photos[i].Caption, photos[i].Status,
		).Scan(&photos[i].ID); err != nil {
			return wrapErr(err)
		}
	}

	return wrapErr(tx.Commit())
}

func (r *referenceRepository) GetByID(ctx context.Context, id int64) (*domain.Reference, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var ref domain.Reference
	query := `SELECT * FROM referencias WHERE id = $1`
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		return nil, wrapErr(err)
	}
	return &ref, nil
}

func (r *referenceRepository) GetPhoto(ctx context.Context, photoID int64) (*domain.ReferencePhoto, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var photo domain.ReferencePhoto
	query := `SELECT id, referencia_id, file_id, caption, status FROM referencias_fotos WHERE id = $1`
	if err := r.db.GetContext(ctx, &photo, query, photoID); err != nil {
		return nil, wrapErr(err)
	}
	return &photo, nil
}

func (r *referenceRepository) ListPhotos(ctx context.Context, referenceID int64) ([]domain.ReferencePhoto, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var photos []domain.ReferencePhoto
	query := `
		SELECT id, referencia_id, file_id, caption, status
		FROM referencias_fotos
		WHERE referencia_id = $1
		ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &photos, query, referenceID); err != nil {
		return nil, wrapErr(err)
	}
	return photos, nil
}

func (r *referenceRepository) UpdateStatus(ctx context.Context, referenceID int64, status domain.ReferenceStatus) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `UPDATE referencias SET status = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, referenceID)
	if err != nil {
		return wrapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *referenceRepository) UpdatePhotoStatus(ctx context.Context, photoID int64, status domain.ReferenceStatus) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `UPDATE referencias_fotos SET status = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, photoID)
	if err != nil {
		return wrapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *referenceRepository) UpdateAllPhotoStatuses(ctx context.Context, referenceID int64, status domain.ReferenceStatus) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `UPDATE referencias_fotos SET status = $1 WHERE referencia_id = $2`
	_, err := r.db.ExecContext(ctx, query, status, referenceID)
	return wrapErr(err)
}

func (r *referenceRepository) CountPhotoStatuses(ctx context.Context, referenceID int64) (pending, approved, rejected int64, err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pendiente'),
			COUNT(*) FILTER (WHERE status = 'aprobado'),
			COUNT(*) FILTER (WHERE status = 'rechazado')
		FROM referencias_fotos
		WHERE referencia_id = $1`
	err = wrapErr(r.db.QueryRowxContext(ctx, query, referenceID).Scan(&pending, &approved, &rejected))
	return pending, approved, rejected, err
}

func (r *referenceRepository) CountApprovedForUser(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var total int64
	query := `
		SELECT COUNT(*)
		FROM referencias r
		JOIN referencias_fotos f ON r.id = f.referencia_id
		WHERE r.user_id = $1 AND f.status = 'aprobado'`
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, wrapErr(err)
	}
	return total, nil
}

// Ranking orders submitters by approved photo count. Ties break on the
// earliest reference id, so repeated calls with no writes in between return
// the same order.
func (r *referenceRepository) Ranking(ctx context.Context) ([]domain.RankingEntry, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var entries []domain.RankingEntry
	query := `
		SELECT r.username, COUNT(f.id) AS total
		FROM referencias r
		JOIN referencias_fotos f ON r.id = f.referencia_id
		WHERE f.status = 'aprobado'
		GROUP BY r.username
		ORDER BY total DESC, MIN(r.id) ASC`
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, wrapErr(err)
	}
	return entries, nil
}

// ResetAll truncates both tables and restarts identifiers, inside one
// transaction: either everything is cleared or nothing is.
func (r *referenceRepository) ResetAll(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE referencias_fotos RESTART IDENTITY CASCADE`); err != nil {
		return wrapErr(err)
	}
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE referencias RESTART IDENTITY CASCADE`); err != nil {
		return wrapErr(err)
	}

	return wrapErr(tx.Commit())
}
