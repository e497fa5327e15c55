package models

import "time"

type ProviderType string

const (
	ProviderTypeCard         ProviderType = "card"
	ProviderTypeSubscription ProviderType = "subscription"
	ProviderTypeOneOff       ProviderType = "one_off"
)

type PaymentState string

const (
	PaymentNone      PaymentState = ""
	PaymentInitiated PaymentState = "initiated"
	PaymentSucceeded PaymentState = "succeeded"
	PaymentFailed    PaymentState = "failed"
	PaymentRefunded  PaymentState = "refunded"
)

// PaymentRecord: последнее применённое состояние транзакции провайдера.
// (Provider, ExternalID): ключ идемпотентности.
type PaymentRecord struct {
	ID             int64        `json:"id"`
	Provider       string       `json:"provider"`
	ProviderType   ProviderType `json:"provider_type"`
	ExternalID     string       `json:"external_transaction_id"`
	SubscriptionID string       `json:"subscription_id,omitempty"`
	Amount         int64        `json:"amount"` // в минимальных единицах валюты
	Currency       string       `json:"currency,omitempty"`
	AppliedState   PaymentState `json:"applied_state"`
	RawPayload     []byte       `json:"-"`
	ProcessedAt    time.Time    `json:"processed_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Version        int          `json:"-"`
}

// NormalizedEvent: событие провайдера, приведённое к общему виду.
type NormalizedEvent struct {
	ExternalID     string
	Kind           string // статус/тип события в терминах провайдера
	SubscriptionID string
	Amount         int64
	Currency       string
}
