package models

import "time"

// ActionFailure: побочное действие, упавшее после сохранения состояния платежа.
// Разбирается внешней задачей сверки.
type ActionFailure struct {
	ID         string       `json:"id"`
	Provider   string       `json:"provider"`
	ExternalID string       `json:"external_transaction_id"`
	State      PaymentState `json:"state"`
	Action     string       `json:"action"`
	Error      string       `json:"error"`
	CreatedAt  time.Time    `json:"created_at"`
}
