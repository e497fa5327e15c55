// Package payments: вебхуки платёжных провайдеров. Проверка подписи, разбор
// тела и отображение статусов провайдера на внутренние состояния платежа.
package payments

import (
	"fmt"
	"net/http"
	"sort"

	"hasyx/internal/config"
	"hasyx/internal/models"
)

// Ack: тело ответа, которое провайдер ждёт после приёма уведомления.
type Ack struct {
	ContentType string
	Body        []byte
}

type Provider interface {
	Name() string
	Type() models.ProviderType
	VerifySignature(body []byte, headers http.Header) bool
	ParseEvent(body []byte) (*models.NormalizedEvent, error)
	// MapEventToState: false для событий без состояния платежа.
	MapEventToState(ev *models.NormalizedEvent) (models.PaymentState, bool)
	Ack() Ack
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig: по провайдеру на каждую запись конфига.
func NewRegistryFromConfig(cfgs []config.ProviderConfig) (*Registry, error) {
	r := NewRegistry()
	for _, c := range cfgs {
		if c.Secret == "" {
			return nil, fmt.Errorf("payment provider %q: secret is required", c.Name)
		}
		var p Provider
		switch c.Kind {
		case KindTBank:
			p = NewTBank(c.Name, c.Secret)
		case KindCloudPayments:
			p = NewCloudPayments(c.Name, c.Secret)
		case KindStripe:
			p = NewStripe(c.Name, c.Secret)
		default:
			return nil, fmt.Errorf("payment provider %q: unknown kind %q", c.Name, c.Kind)
		}
		if _, dup := r.providers[p.Name()]; dup {
			return nil, fmt.Errorf("payment provider %q configured twice", p.Name())
		}
		r.providers[p.Name()] = p
	}
	return r, nil
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
