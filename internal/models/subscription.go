package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID          string             `json:"id"`
	Status      SubscriptionStatus `json:"status"`
	ActivatedAt *time.Time         `json:"activated_at,omitempty"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
}
