package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hasyx/internal/models"
)

type SubscriptionRepository interface {
	Get(ctx context.Context, id string) (*models.Subscription, error)
	Activate(ctx context.Context, id string, at time.Time) error
	Cancel(ctx context.Context, id string, at time.Time) error
}

type subscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{DB: db}
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*models.Subscription, error) {
	const q = `SELECT id, status, activated_at, cancelled_at FROM subscriptions WHERE id = $1`
	var (
		s                    models.Subscription
		activated, cancelled sql.NullTime
	)
	if err := r.DB.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Status, &activated, &cancelled); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("subscription get: %w", err)
	}
	if activated.Valid {
		s.ActivatedAt = &activated.Time
	}
	if cancelled.Valid {
		s.CancelledAt = &cancelled.Time
	}
	return &s, nil
}

// Activate создаёт подписку, если её ещё нет.
func (r *subscriptionRepository) Activate(ctx context.Context, id string, at time.Time) error {
	const q = `
		INSERT INTO subscriptions (id, status, activated_at)
		VALUES ($1, 'active', $2)
		ON CONFLICT (id) DO UPDATE
		SET status = 'active', activated_at = COALESCE(subscriptions.activated_at, EXCLUDED.activated_at)
	`
	if _, err := r.DB.ExecContext(ctx, q, id, at); err != nil {
		return fmt.Errorf("subscription activate: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	const q = `
		INSERT INTO subscriptions (id, status, cancelled_at)
		VALUES ($1, 'cancelled', $2)
		ON CONFLICT (id) DO UPDATE SET status = 'cancelled', cancelled_at = EXCLUDED.cancelled_at
	`
	if _, err := r.DB.ExecContext(ctx, q, id, at); err != nil {
		return fmt.Errorf("subscription cancel: %w", err)
	}
	return nil
}
