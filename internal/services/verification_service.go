package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hasyx/internal/metrics"
	"hasyx/internal/models"
	"hasyx/internal/repositories"
	"hasyx/internal/utils"
)

const (
	defaultVerificationTTL = 5 * time.Minute
	defaultMaxAttempts     = 5
	codeDigits             = 6
)

// ResendPolicy ограничивает число попыток для пары (provider, identifier)
// в пределах Window. MaxSends == 0 отключает ограничение.
type ResendPolicy struct {
	MaxSends int
	Window   time.Duration
}

type VerificationOptions struct {
	TTL          time.Duration
	MaxAttempts  int
	CodeHashCost int // 0: bcrypt.DefaultCost
	Resend       ResendPolicy
}

type VerificationService struct {
	Repo       repositories.AttemptRepository
	Dispatcher *Dispatcher // nil: коды не отправляются, только создаются

	ttl         time.Duration
	maxAttempts int
	hashCost    int
	resend      ResendPolicy

	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

func NewVerificationService(repo repositories.AttemptRepository, dispatcher *Dispatcher, opts VerificationOptions) *VerificationService {
	s := &VerificationService{
		Repo:        repo,
		Dispatcher:  dispatcher,
		ttl:         opts.TTL,
		maxAttempts: opts.MaxAttempts,
		hashCost:    opts.CodeHashCost,
		resend:      opts.Resend,
		now:         time.Now,
		newID:       uuid.NewString,
		newCode:     func() (string, error) { return utils.NewNumericCode(codeDigits) },
	}
	if s.ttl <= 0 {
		s.ttl = defaultVerificationTTL
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

// CreateAttempt выдаёт новый код для пары и сохраняет попытку. В ответе есть
// открытый код; доставка на стороне вызывающего.
func (s *VerificationService) CreateAttempt(ctx context.Context, provider models.VerificationProvider, identifier string) (*models.VerificationAttempt, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}

	now := s.now()
	if s.resend.MaxSends > 0 {
		cnt, err := s.Repo.CountRecent(ctx, provider, identifier, now.Add(-s.resend.Window))
		if err != nil {
			return nil, err
		}
		if cnt >= s.resend.MaxSends {
			return nil, ErrResendThrottled
		}
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt generate: %w", err)
	}

	a := &models.VerificationAttempt{
		ID:                s.newID(),
		Provider:          provider,
		Identifier:        identifier,
		Code:              code,
		CodeHash:          string(hash),
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl),
		AttemptsRemaining: s.maxAttempts,
		Status:            models.AttemptPending,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}
	metrics.AttemptsCreatedTotal.WithLabelValues(string(provider)).Inc()
	log.Printf("[verify][create] attempt_id=%s provider=%s", a.ID, provider)
	return a, nil
}

// StartVerification создаёт попытку и отправляет код по каналу провайдера.
// Ошибка доставки попытку не отменяет: она возвращается вместе с ErrDelivery.
func (s *VerificationService) StartVerification(ctx context.Context, provider models.VerificationProvider, identifier string) (*models.VerificationAttempt, error) {
	a, err := s.CreateAttempt(ctx, provider, identifier)
	if err != nil {
		return nil, err
	}
	if s.Dispatcher == nil {
		return a, fmt.Errorf("%w: %v", ErrDelivery, ErrNoSender)
	}
	text := fmt.Sprintf("Your verification code: %s. It expires in %d min.", a.Code, int(s.ttl.Minutes()))
	if err := s.Dispatcher.Send(ctx, provider, a.Identifier, text); err != nil {
		log.Printf("[verify][deliver] failed attempt_id=%s provider=%s err=%v", a.ID, provider, err)
		return a, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	log.Printf("[verify][deliver] ok attempt_id=%s provider=%s", a.ID, provider)
	return a, nil
}

// ValidateCode сверяет код с попыткой. После подтверждения любой вызов
// возвращает ErrAlreadyVerified.
func (s *VerificationService) ValidateCode(ctx context.Context, attemptID, submitted string) (*models.VerificationAttempt, error) {
	for try := 0; ; try++ {
		a, err := s.validateOnce(ctx, attemptID, submitted)
		if errors.Is(err, repositories.ErrConflict) && try < maxConflictRetries {
			metrics.ConflictRetriesTotal.WithLabelValues("attempt").Inc()
			continue
		}
		metrics.ValidationsTotal.WithLabelValues(validationOutcome(err)).Inc()
		return a, err
	}
}

func terminalError(st models.AttemptStatus) error {
	switch st {
	case models.AttemptVerified:
		return ErrAlreadyVerified
	case models.AttemptExpired:
		return ErrExpired
	default:
		return ErrExhausted
	}
}

func (s *VerificationService) validateOnce(ctx context.Context, attemptID, submitted string) (*models.VerificationAttempt, error) {
	a, err := s.Repo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}

	if a.Terminal() {
		return a, terminalError(a.Status)
	}

	now := s.now()
	if now.After(a.ExpiresAt) {
		a.Status = models.AttemptExpired
		if err := s.Repo.Update(ctx, a); err != nil {
			return nil, err
		}
		return a, ErrExpired
	}
	if a.AttemptsRemaining <= 0 {
		a.Status = models.AttemptExhausted
		if err := s.Repo.Update(ctx, a); err != nil {
			return nil, err
		}
		return a, ErrExhausted
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.CodeHash), []byte(submitted)); err != nil {
		a.AttemptsRemaining--
		if a.AttemptsRemaining <= 0 {
			a.AttemptsRemaining = 0
			a.Status = models.AttemptExhausted
		}
		if err := s.Repo.Update(ctx, a); err != nil {
			return nil, err
		}
		log.Printf("[verify][confirm] mismatch attempt_id=%s remaining=%d", a.ID, a.AttemptsRemaining)
		return a, &InvalidCodeError{Remaining: a.AttemptsRemaining}
	}

	a.Status = models.AttemptVerified
	a.VerifiedAt = &now
	if err := s.Repo.Update(ctx, a); err != nil {
		return nil, err
	}
	log.Printf("[verify][confirm] OK attempt_id=%s provider=%s", a.ID, a.Provider)
	return a, nil
}

// GetStatus возвращает попытку; по истечении TTL сохраняет ленивый
// переход pending -> expired.
func (s *VerificationService) GetStatus(ctx context.Context, attemptID string) (*models.VerificationAttempt, error) {
	for try := 0; ; try++ {
		a, err := s.Repo.GetByID(ctx, attemptID)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, ErrNotFound
		}
		if a.Terminal() || !s.now().After(a.ExpiresAt) {
			return a, nil
		}
		a.Status = models.AttemptExpired
		err = s.Repo.Update(ctx, a)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, repositories.ErrConflict) || try >= maxConflictRetries {
			return nil, err
		}
		metrics.ConflictRetriesTotal.WithLabelValues("attempt").Inc()
	}
}

// Cleanup удаляет попытки, истёкшие раньше чем olderThan назад.
func (s *VerificationService) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.Repo.DeleteExpiredBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[verify][cleanup] deleted=%d", n)
	}
	return n, nil
}

func validationOutcome(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, repositories.ErrConflict):
		return "conflict"
	}
	return "error"
}
