package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hasyx/internal/models"
)

type AttemptRepository interface {
	Create(ctx context.Context, a *models.VerificationAttempt) error
	// GetByID возвращает nil, nil если записи нет.
	GetByID(ctx context.Context, id string) (*models.VerificationAttempt, error)
	// Update пишет запись только если версия в БД совпадает с a.Version,
	// иначе ErrConflict. При успехе a.Version увеличивается.
	Update(ctx context.Context, a *models.VerificationAttempt) error
	CountRecent(ctx context.Context, provider models.VerificationProvider, identifier string, since time.Time) (int, error)
	DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error)
}

type attemptRepository struct {
	DB *sql.DB
}

func NewAttemptRepository(db *sql.DB) AttemptRepository {
	return &attemptRepository{DB: db}
}

func (r *attemptRepository) Create(ctx context.Context, a *models.VerificationAttempt) error {
	const q = `
		INSERT INTO verification_attempts
			(id, provider, identifier, code_hash, created_at, expires_at, attempts_remaining, status, verified_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.DB.ExecContext(ctx, q,
		a.ID, a.Provider, a.Identifier, a.CodeHash, a.CreatedAt, a.ExpiresAt,
		a.AttemptsRemaining, a.Status, a.VerifiedAt, a.Version,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("verification_attempt create: %w", err)
	}
	return nil
}

func (r *attemptRepository) GetByID(ctx context.Context, id string) (*models.VerificationAttempt, error) {
	const q = `
		SELECT id, provider, identifier, code_hash, created_at, expires_at,
		       attempts_remaining, status, verified_at, version
		FROM verification_attempts
		WHERE id = $1
	`
	var (
		a          models.VerificationAttempt
		verifiedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Provider, &a.Identifier, &a.CodeHash, &a.CreatedAt, &a.ExpiresAt,
		&a.AttemptsRemaining, &a.Status, &verifiedAt, &a.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification_attempt get: %w", err)
	}
	if verifiedAt.Valid {
		a.VerifiedAt = &verifiedAt.Time
	}
	return &a, nil
}

func (r *attemptRepository) Update(ctx context.Context, a *models.VerificationAttempt) error {
	const q = `
		UPDATE verification_attempts
		SET attempts_remaining = $1, status = $2, verified_at = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`
	res, err := r.DB.ExecContext(ctx, q, a.AttemptsRemaining, a.Status, a.VerifiedAt, a.ID, a.Version)
	if err != nil {
		return fmt.Errorf("verification_attempt update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("verification_attempt update: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	a.Version++
	return nil
}

// CountRecent: сколько попыток создано для пары за окно (для троттлинга).
func (r *attemptRepository) CountRecent(ctx context.Context, provider models.VerificationProvider, identifier string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM verification_attempts
		WHERE provider = $1 AND identifier = $2 AND created_at >= $3
	`
	var c int
	if err := r.DB.QueryRowContext(ctx, q, provider, identifier, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification_attempt count recent: %w", err)
	}
	return c, nil
}

func (r *attemptRepository) DeleteExpiredBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM verification_attempts WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("verification_attempt cleanup: %w", err)
	}
	return res.RowsAffected()
}
