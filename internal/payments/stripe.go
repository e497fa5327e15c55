package payments

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"hasyx/internal/models"
)

const KindStripe = "stripe"

var stripeStates = map[stripe.EventType]models.PaymentState{
	"payment_intent.created":        models.PaymentInitiated,
	"payment_intent.processing":     models.PaymentInitiated,
	"payment_intent.succeeded":      models.PaymentSucceeded,
	"payment_intent.payment_failed": models.PaymentFailed,
	"payment_intent.canceled":       models.PaymentFailed,
	"charge.refunded":               models.PaymentRefunded,
}

// Stripe: разовые платежи, ключ: id payment intent.
type Stripe struct {
	name   string
	secret string
}

func NewStripe(name, webhookSecret string) *Stripe {
	return &Stripe{name: name, secret: webhookSecret}
}

func (s *Stripe) Name() string              { return s.name }
func (s *Stripe) Type() models.ProviderType { return models.ProviderTypeOneOff }

func (s *Stripe) Ack() Ack {
	return Ack{ContentType: "application/json; charset=utf-8", Body: []byte(`{"received":true}`)}
}

func (s *Stripe) VerifySignature(body []byte, headers http.Header) bool {
	sig := headers.Get("Stripe-Signature")
	if sig == "" {
		return false
	}
	return webhook.ValidatePayload(body, sig, s.secret) == nil
}

func (s *Stripe) ParseEvent(body []byte) (*models.NormalizedEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	ev := &models.NormalizedEvent{Kind: string(event.Type)}
	if _, known := stripeStates[event.Type]; !known {
		return ev, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("stripe: event %s has no data object", event.ID)
	}

	if event.Type == "charge.refunded" {
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("stripe: charge: %w", err)
		}
		ev.ExternalID = ch.ID
		if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
			ev.ExternalID = ch.PaymentIntent.ID
		}
		ev.Amount = ch.Amount
		ev.Currency = string(ch.Currency)
		ev.SubscriptionID = ch.Metadata["subscription_id"]
	} else {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: payment intent: %w", err)
		}
		ev.ExternalID = pi.ID
		ev.Amount = pi.Amount
		ev.Currency = string(pi.Currency)
		ev.SubscriptionID = pi.Metadata["subscription_id"]
	}
	if ev.ExternalID == "" {
		return nil, fmt.Errorf("stripe: event %s has no object id", event.ID)
	}
	return ev, nil
}

func (s *Stripe) MapEventToState(ev *models.NormalizedEvent) (models.PaymentState, bool) {
	st, ok := stripeStates[stripe.EventType(ev.Kind)]
	return st, ok
}
