package payments

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"hasyx/internal/models"
)

const KindTBank = "tbank"

var tbankStates = map[string]models.PaymentState{
	"NEW":              models.PaymentInitiated,
	"FORM_SHOWED":      models.PaymentInitiated,
	"AUTHORIZING":      models.PaymentInitiated,
	"AUTHORIZED":       models.PaymentInitiated,
	"CONFIRMING":       models.PaymentInitiated,
	"CONFIRMED":        models.PaymentSucceeded,
	"REJECTED":         models.PaymentFailed,
	"AUTH_FAIL":        models.PaymentFailed,
	"CANCELED":         models.PaymentFailed,
	"DEADLINE_EXPIRED": models.PaymentFailed,
	"REFUNDED":         models.PaymentRefunded,
	"PARTIAL_REFUNDED": models.PaymentRefunded,
}

// TBank: уведомления эквайринга Т-Банка. JSON, поле Token: SHA-256 от
// отсортированных корневых значений вместе с паролем терминала.
type TBank struct {
	name     string
	password string
}

func NewTBank(name, password string) *TBank {
	return &TBank{name: name, password: password}
}

func (t *TBank) Name() string              { return t.name }
func (t *TBank) Type() models.ProviderType { return models.ProviderTypeCard }

func (t *TBank) Ack() Ack {
	return Ack{ContentType: "text/plain; charset=utf-8", Body: []byte("OK")}
}

func decodeTBank(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// TBankToken считает токен уведомления. Вложенные объекты и само поле Token
// не участвуют.
func TBankToken(params map[string]any, password string) string {
	vals := map[string]string{"Password": password}
	for k, v := range params {
		if k == "Token" {
			continue
		}
		if s, ok := scalarString(v); ok {
			vals[k] = s
		}
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(vals[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (t *TBank) VerifySignature(body []byte, _ http.Header) bool {
	params, err := decodeTBank(body)
	if err != nil {
		return false
	}
	got, _ := params["Token"].(string)
	if got == "" {
		return false
	}
	want := TBankToken(params, t.password)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(got)), []byte(want)) == 1
}

func (t *TBank) ParseEvent(body []byte) (*models.NormalizedEvent, error) {
	params, err := decodeTBank(body)
	if err != nil {
		return nil, err
	}
	ev := &models.NormalizedEvent{Currency: "RUB"}
	ev.ExternalID, _ = scalarString(params["PaymentId"])
	ev.Kind, _ = scalarString(params["Status"])
	if ev.ExternalID == "" || ev.Kind == "" {
		return nil, fmt.Errorf("tbank: PaymentId and Status are required")
	}
	if amount, ok := params["Amount"].(json.Number); ok {
		if ev.Amount, err = amount.Int64(); err != nil {
			return nil, fmt.Errorf("tbank: Amount: %w", err)
		}
	}
	ev.SubscriptionID = tbankSubscriptionID(params)
	return ev, nil
}

// tbankSubscriptionID: DATA.subscription_id (вложенный объект в токен не входит),
// иначе для рекуррентного платежа OrderId.
func tbankSubscriptionID(params map[string]any) string {
	for _, key := range []string{"DATA", "Data"} {
		data, ok := params[key].(map[string]any)
		if !ok {
			continue
		}
		if id, _ := scalarString(data["subscription_id"]); id != "" {
			return id
		}
	}
	if rebill, _ := scalarString(params["RebillId"]); rebill != "" {
		id, _ := scalarString(params["OrderId"])
		return id
	}
	return ""
}

func (t *TBank) MapEventToState(ev *models.NormalizedEvent) (models.PaymentState, bool) {
	st, ok := tbankStates[strings.ToUpper(ev.Kind)]
	return st, ok
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
