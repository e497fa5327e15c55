package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"hasyx/internal/models"
)

type PaymentRepository interface {
	// GetByExternalID возвращает nil, nil если записи нет.
	GetByExternalID(ctx context.Context, provider, externalID string) (*models.PaymentRecord, error)
	// Create: ErrConflict, если (provider, external_id) уже есть.
	Create(ctx context.Context, p *models.PaymentRecord) error
	// Update только при совпадении p.Version, иначе ErrConflict.
	Update(ctx context.Context, p *models.PaymentRecord) error
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

func (r *paymentRepository) GetByExternalID(ctx context.Context, provider, externalID string) (*models.PaymentRecord, error) {
	const q = `
		SELECT id, provider, provider_type, external_id, subscription_id, amount, currency,
		       applied_state, raw_payload, processed_at, updated_at, version
		FROM payments
		WHERE provider = $1 AND external_id = $2
	`
	var p models.PaymentRecord
	err := r.DB.QueryRowContext(ctx, q, provider, externalID).Scan(
		&p.ID, &p.Provider, &p.ProviderType, &p.ExternalID, &p.SubscriptionID, &p.Amount, &p.Currency,
		&p.AppliedState, &p.RawPayload, &p.ProcessedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("payment get: %w", err)
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	const q = `
		INSERT INTO payments
			(provider, provider_type, external_id, subscription_id, amount, currency,
			 applied_state, raw_payload, processed_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, q,
		p.Provider, p.ProviderType, p.ExternalID, p.SubscriptionID, p.Amount, p.Currency,
		p.AppliedState, p.RawPayload, p.ProcessedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("payment create: %w", err)
	}
	p.Version = 0
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, p *models.PaymentRecord) error {
	const q = `
		UPDATE payments
		SET subscription_id = $1, amount = $2, currency = $3, applied_state = $4,
		    raw_payload = $5, updated_at = $6, version = version + 1
		WHERE provider = $7 AND external_id = $8 AND version = $9
	`
	res, err := r.DB.ExecContext(ctx, q,
		p.SubscriptionID, p.Amount, p.Currency, p.AppliedState, p.RawPayload, p.UpdatedAt,
		p.Provider, p.ExternalID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("payment update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("payment update: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	p.Version++
	return nil
}
