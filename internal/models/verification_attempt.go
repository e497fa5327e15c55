package models

import "time"

type VerificationProvider string

const (
	ProviderEmail    VerificationProvider = "email"
	ProviderPhone    VerificationProvider = "phone"
	ProviderTelegram VerificationProvider = "telegram"
)

func (p VerificationProvider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderPhone, ProviderTelegram:
		return true
	}
	return false
}

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptVerified  AttemptStatus = "verified"
	AttemptExpired   AttemptStatus = "expired"
	AttemptExhausted AttemptStatus = "exhausted"
)

// VerificationAttempt: одна выданная одноразовая проверка для пары (provider, identifier).
// Храним только bcrypt-хэш кода; Code заполнен лишь в ответе на создание.
type VerificationAttempt struct {
	ID                string               `json:"attempt_id"`
	Provider          VerificationProvider `json:"provider"`
	Identifier        string               `json:"identifier"`
	Code              string               `json:"-"`
	CodeHash          string               `json:"-"`
	CreatedAt         time.Time            `json:"created_at"`
	ExpiresAt         time.Time            `json:"expires_at"`
	AttemptsRemaining int                  `json:"attempts_remaining"`
	Status            AttemptStatus        `json:"status"`
	VerifiedAt        *time.Time           `json:"verified_at,omitempty"`
	Version           int                  `json:"-"`
}

// Terminal: попытка больше не принимает коды.
func (a *VerificationAttempt) Terminal() bool {
	return a.Status != AttemptPending
}
