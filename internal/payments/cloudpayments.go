package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"hasyx/internal/models"
)

const KindCloudPayments = "cloudpayments"

var cloudPaymentsStates = map[string]models.PaymentState{
	"Authorized": models.PaymentInitiated,
	"Completed":  models.PaymentSucceeded,
	"Declined":   models.PaymentFailed,
	"Cancelled":  models.PaymentFailed,
	"Refunded":   models.PaymentRefunded,
}

// CloudPayments: form-encoded уведомления шлюза подписок, подпись:
// base64 HMAC-SHA256 от сырого тела.
type CloudPayments struct {
	name   string
	secret []byte
}

func NewCloudPayments(name, apiSecret string) *CloudPayments {
	return &CloudPayments{name: name, secret: []byte(apiSecret)}
}

func (p *CloudPayments) Name() string              { return p.name }
func (p *CloudPayments) Type() models.ProviderType { return models.ProviderTypeSubscription }

func (p *CloudPayments) Ack() Ack {
	return Ack{ContentType: "application/json; charset=utf-8", Body: []byte(`{"code":0}`)}
}

func (p *CloudPayments) Sign(body []byte) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *CloudPayments) VerifySignature(body []byte, headers http.Header) bool {
	got := headers.Get("Content-HMAC")
	if got == "" {
		got = headers.Get("X-Content-HMAC")
	}
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(got), []byte(p.Sign(body)))
}

func (p *CloudPayments) ParseEvent(body []byte) (*models.NormalizedEvent, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	ev := &models.NormalizedEvent{
		ExternalID:     form.Get("TransactionId"),
		Kind:           form.Get("Status"),
		SubscriptionID: form.Get("SubscriptionId"),
		Currency:       form.Get("Currency"),
	}
	// Возврат приходит отдельной транзакцией со ссылкой на исходную.
	if strings.EqualFold(form.Get("OperationType"), "Refund") {
		ev.Kind = "Refunded"
		if orig := form.Get("PaymentTransactionId"); orig != "" {
			ev.ExternalID = orig
		}
	}
	if ev.ExternalID == "" || ev.Kind == "" {
		return nil, fmt.Errorf("cloudpayments: TransactionId and Status are required")
	}
	if raw := form.Get("Amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("cloudpayments: Amount: %w", err)
		}
		// рубли с копейками -> копейки
		ev.Amount = amount.Shift(2).Round(0).IntPart()
	}
	return ev, nil
}

func (p *CloudPayments) MapEventToState(ev *models.NormalizedEvent) (models.PaymentState, bool) {
	st, ok := cloudPaymentsStates[ev.Kind]
	return st, ok
}
