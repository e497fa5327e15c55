package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"hasyx/internal/models"
)

type ActionFailureRepository interface {
	Create(ctx context.Context, f *models.ActionFailure) error
	List(ctx context.Context, limit, offset int) ([]*models.ActionFailure, error)
}

type actionFailureRepository struct {
	DB *sql.DB
}

func NewActionFailureRepository(db *sql.DB) ActionFailureRepository {
	return &actionFailureRepository{DB: db}
}

func (r *actionFailureRepository) Create(ctx context.Context, f *models.ActionFailure) error {
	const q = `
		INSERT INTO payment_action_failures (id, provider, external_id, state, action, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.DB.ExecContext(ctx, q,
		f.ID, f.Provider, f.ExternalID, f.State, f.Action, f.Error, f.CreatedAt,
	); err != nil {
		return fmt.Errorf("action failure create: %w", err)
	}
	return nil
}

func (r *actionFailureRepository) List(ctx context.Context, limit, offset int) ([]*models.ActionFailure, error) {
	const q = `
		SELECT id, provider, external_id, state, action, error, created_at
		FROM payment_action_failures
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("action failure list: %w", err)
	}
	defer rows.Close()

	var out []*models.ActionFailure
	for rows.Next() {
		var f models.ActionFailure
		if err := rows.Scan(&f.ID, &f.Provider, &f.ExternalID, &f.State, &f.Action, &f.Error, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("action failure scan: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
