package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"hasyx/internal/models"
)

// MemoryStore: все записи в памяти процесса. Тот же контракт условных
// обновлений, что у PostgreSQL-репозиториев; для тестов и запуска без БД.
type MemoryStore struct {
	mu            sync.RWMutex
	attempts      map[string]models.VerificationAttempt
	payments      map[string]models.PaymentRecord
	subscriptions map[string]models.Subscription
	failures      []models.ActionFailure
	nextPaymentID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts:      make(map[string]models.VerificationAttempt),
		payments:      make(map[string]models.PaymentRecord),
		subscriptions: make(map[string]models.Subscription),
	}
}

func (s *MemoryStore) Attempts() AttemptRepository             { return memAttempts{s} }
func (s *MemoryStore) Payments() PaymentRepository             { return memPayments{s} }
func (s *MemoryStore) Subscriptions() SubscriptionRepository   { return memSubscriptions{s} }
func (s *MemoryStore) ActionFailures() ActionFailureRepository { return memFailures{s} }

type memAttempts struct{ s *MemoryStore }

func (m memAttempts) Create(_ context.Context, a *models.VerificationAttempt) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.attempts[a.ID]; ok {
		return ErrConflict
	}
	rec := *a
	rec.Code = ""
	m.s.attempts[a.ID] = rec
	return nil
}

func (m memAttempts) GetByID(_ context.Context, id string) (*models.VerificationAttempt, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	rec, ok := m.s.attempts[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m memAttempts) Update(_ context.Context, a *models.VerificationAttempt) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.attempts[a.ID]
	if !ok || cur.Version != a.Version {
		return ErrConflict
	}
	cur.AttemptsRemaining = a.AttemptsRemaining
	cur.Status = a.Status
	cur.VerifiedAt = a.VerifiedAt
	cur.Version++
	m.s.attempts[a.ID] = cur
	a.Version = cur.Version
	return nil
}

func (m memAttempts) CountRecent(_ context.Context, provider models.VerificationProvider, identifier string, since time.Time) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, a := range m.s.attempts {
		if a.Provider == provider && a.Identifier == identifier && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m memAttempts) DeleteExpiredBefore(_ context.Context, before time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, a := range m.s.attempts {
		if a.ExpiresAt.Before(before) {
			delete(m.s.attempts, id)
			n++
		}
	}
	return n, nil
}

type memPayments struct{ s *MemoryStore }

func paymentKey(provider, externalID string) string { return provider + "\x00" + externalID }

func (m memPayments) GetByExternalID(_ context.Context, provider, externalID string) (*models.PaymentRecord, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	rec, ok := m.s.payments[paymentKey(provider, externalID)]
	if !ok {
		return nil, nil
	}
	rec.RawPayload = append([]byte(nil), rec.RawPayload...)
	return &rec, nil
}

func (m memPayments) Create(_ context.Context, p *models.PaymentRecord) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := paymentKey(p.Provider, p.ExternalID)
	if _, ok := m.s.payments[key]; ok {
		return ErrConflict
	}
	m.s.nextPaymentID++
	p.ID = m.s.nextPaymentID
	p.Version = 0
	rec := *p
	rec.RawPayload = append([]byte(nil), p.RawPayload...)
	m.s.payments[key] = rec
	return nil
}

func (m memPayments) Update(_ context.Context, p *models.PaymentRecord) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := paymentKey(p.Provider, p.ExternalID)
	cur, ok := m.s.payments[key]
	if !ok || cur.Version != p.Version {
		return ErrConflict
	}
	cur.SubscriptionID = p.SubscriptionID
	cur.Amount = p.Amount
	cur.Currency = p.Currency
	cur.AppliedState = p.AppliedState
	cur.RawPayload = append([]byte(nil), p.RawPayload...)
	cur.UpdatedAt = p.UpdatedAt
	cur.Version++
	m.s.payments[key] = cur
	p.Version = cur.Version
	return nil
}

type memSubscriptions struct{ s *MemoryStore }

func (m memSubscriptions) Get(_ context.Context, id string) (*models.Subscription, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	sub, ok := m.s.subscriptions[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m memSubscriptions) Activate(_ context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sub := m.s.subscriptions[id]
	sub.ID = id
	sub.Status = models.SubscriptionActive
	if sub.ActivatedAt == nil {
		sub.ActivatedAt = &at
	}
	m.s.subscriptions[id] = sub
	return nil
}

func (m memSubscriptions) Cancel(_ context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	sub := m.s.subscriptions[id]
	sub.ID = id
	sub.Status = models.SubscriptionCancelled
	sub.CancelledAt = &at
	m.s.subscriptions[id] = sub
	return nil
}

type memFailures struct{ s *MemoryStore }

func (m memFailures) Create(_ context.Context, f *models.ActionFailure) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.failures = append(m.s.failures, *f)
	return nil
}

func (m memFailures) List(_ context.Context, limit, offset int) ([]*models.ActionFailure, error) {
	m.s.mu.RLock()
	all := make([]models.ActionFailure, len(m.s.failures))
	copy(all, m.s.failures)
	m.s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*models.ActionFailure, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out, nil
}
