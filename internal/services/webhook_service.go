package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hasyx/internal/metrics"
	"hasyx/internal/models"
	"hasyx/internal/payments"
	"hasyx/internal/repositories"
)

type ReconcileStatus string

const (
	ReconcileApplied   ReconcileStatus = "applied"
	ReconcileDuplicate ReconcileStatus = "duplicate"
	ReconcileIgnored   ReconcileStatus = "ignored"
)

type ReconcileResult struct {
	Provider   string
	ExternalID string
	Status     ReconcileStatus
	Previous   models.PaymentState
	State      models.PaymentState
	Ack        payments.Ack
}

// PaymentAction: побочное действие, привязанное к итоговому состоянию перехода.
// Пустой On срабатывает на любой применённый переход.
type PaymentAction struct {
	Name string
	On   models.PaymentState
	Run  func(ctx context.Context, rec *models.PaymentRecord) error
}

type WebhookService struct {
	Providers *payments.Registry
	Payments  repositories.PaymentRepository
	Failures  repositories.ActionFailureRepository
	Actions   []PaymentAction

	now func() time.Time
}

func NewWebhookService(
	providers *payments.Registry,
	paymentRepo repositories.PaymentRepository,
	failures repositories.ActionFailureRepository,
	actions ...PaymentAction,
) *WebhookService {
	return &WebhookService{
		Providers: providers,
		Payments:  paymentRepo,
		Failures:  failures,
		Actions:   actions,
		now:       time.Now,
	}
}

// Receive проверяет подпись, разбирает и применяет одно уведомление провайдера.
// nil-ошибка: уведомление можно подтвердить. ErrInvalidTransition приходит вместе
// с результатом, который тоже подтверждается; состояние не меняется.
func (s *WebhookService) Receive(ctx context.Context, providerName string, body []byte, headers http.Header) (*ReconcileResult, error) {
	started := s.now()
	res, err := s.receive(ctx, providerName, body, headers)
	metrics.WebhooksTotal.WithLabelValues(providerName, webhookOutcome(res, err)).Inc()
	metrics.WebhookDuration.WithLabelValues(providerName).Observe(s.now().Sub(started).Seconds())
	return res, err
}

func (s *WebhookService) receive(ctx context.Context, providerName string, body []byte, headers http.Header) (*ReconcileResult, error) {
	p, ok := s.Providers.Get(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	if !p.VerifySignature(body, headers) {
		log.Printf("[webhook][%s] signature mismatch, discarded (len=%d)", providerName, len(body))
		return nil, ErrUnauthorized
	}
	ev, err := p.ParseEvent(body)
	if err != nil {
		log.Printf("[webhook][%s] malformed payload: %v", providerName, err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	res := &ReconcileResult{Provider: providerName, ExternalID: ev.ExternalID, Ack: p.Ack()}
	target, ok := p.MapEventToState(ev)
	if !ok {
		res.Status = ReconcileIgnored
		log.Printf("[webhook][%s] event kind=%q carries no state, ignored", providerName, ev.Kind)
		return res, nil
	}
	if ev.ExternalID == "" {
		return nil, fmt.Errorf("%w: no transaction id", ErrMalformedPayload)
	}
	res.State = target

	for try := 0; ; try++ {
		rec, prev, err := s.apply(ctx, p, ev, target, body)
		res.Previous = prev
		switch {
		case errors.Is(err, repositories.ErrConflict) && try < maxConflictRetries:
			metrics.ConflictRetriesTotal.WithLabelValues("payment").Inc()
			log.Printf("[webhook][%s] conflict on tx=%s, re-reading", providerName, ev.ExternalID)
			continue
		case errors.Is(err, ErrInvalidTransition):
			res.Status = ReconcileIgnored
			log.Printf("[webhook][%s] tx=%s %q -> %q rejected", providerName, ev.ExternalID, prev, target)
			return res, err
		case err != nil:
			return nil, err
		case rec == nil:
			res.Status = ReconcileDuplicate
			log.Printf("[webhook][%s] tx=%s already %q, duplicate", providerName, ev.ExternalID, target)
			return res, nil
		}

		res.Status = ReconcileApplied
		log.Printf("[webhook][%s] tx=%s %q -> %q applied", providerName, ev.ExternalID, prev, target)
		s.runActions(ctx, rec)
		return res, nil
	}
}

// apply: одно чтение-проверка-запись. Для дубля возвращает nil-запись,
// ErrConflict, если другой писатель успел раньше.
func (s *WebhookService) apply(ctx context.Context, p payments.Provider, ev *models.NormalizedEvent, target models.PaymentState, body []byte) (*models.PaymentRecord, models.PaymentState, error) {
	rec, err := s.Payments.GetByExternalID(ctx, p.Name(), ev.ExternalID)
	if err != nil {
		return nil, models.PaymentNone, err
	}
	prev := models.PaymentNone
	if rec != nil {
		prev = rec.AppliedState
	}
	if prev == target {
		return nil, prev, nil
	}
	if !canTransition(prev, target) {
		return nil, prev, ErrInvalidTransition
	}

	now := s.now()
	if rec == nil {
		rec = &models.PaymentRecord{
			Provider:     p.Name(),
			ProviderType: p.Type(),
			ExternalID:   ev.ExternalID,
			ProcessedAt:  now,
		}
	}
	rec.AppliedState = target
	rec.RawPayload = body
	rec.UpdatedAt = now
	if ev.SubscriptionID != "" {
		rec.SubscriptionID = ev.SubscriptionID
	}
	if ev.Amount != 0 {
		rec.Amount = ev.Amount
	}
	if ev.Currency != "" {
		rec.Currency = ev.Currency
	}

	if prev == models.PaymentNone {
		err = s.Payments.Create(ctx, rec)
	} else {
		err = s.Payments.Update(ctx, rec)
	}
	if err != nil {
		return nil, prev, err
	}
	return rec, prev, nil
}

// runActions не роняет уведомление: сбои сохраняются для сверки.
func (s *WebhookService) runActions(ctx context.Context, rec *models.PaymentRecord) {
	for _, a := range s.Actions {
		if a.On != "" && a.On != rec.AppliedState {
			continue
		}
		err := a.Run(ctx, rec)
		if err == nil {
			continue
		}
		metrics.ActionFailuresTotal.WithLabelValues(a.Name).Inc()
		log.Printf("[webhook][%s] action %s failed for tx=%s: %v", rec.Provider, a.Name, rec.ExternalID, err)
		if s.Failures == nil {
			continue
		}
		f := &models.ActionFailure{
			ID:         uuid.NewString(),
			Provider:   rec.Provider,
			ExternalID: rec.ExternalID,
			State:      rec.AppliedState,
			Action:     a.Name,
			Error:      err.Error(),
			CreatedAt:  s.now(),
		}
		if ferr := s.Failures.Create(ctx, f); ferr != nil {
			log.Printf("[webhook][%s] record action failure: %v", rec.Provider, ferr)
		}
	}
}

func (s *WebhookService) GetPayment(ctx context.Context, provider, externalID string) (*models.PaymentRecord, error) {
	rec, err := s.Payments.GetByExternalID(ctx, provider, externalID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *WebhookService) ListActionFailures(ctx context.Context, limit, offset int) ([]*models.ActionFailure, error) {
	return s.Failures.List(ctx, limit, offset)
}

func webhookOutcome(res *ReconcileResult, err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, ErrUnknownProvider):
		return "unknown_provider"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case err != nil:
		return "error"
	case res != nil:
		return string(res.Status)
	}
	return "error"
}
