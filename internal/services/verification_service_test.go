package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hasyx/internal/models"
	"hasyx/internal/repositories"
)

var t0 = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestVerification(repo repositories.AttemptRepository, d *Dispatcher, opts VerificationOptions) (*VerificationService, *testClock) {
	opts.CodeHashCost = bcrypt.MinCost
	s := NewVerificationService(repo, d, opts)
	clock := &testClock{now: t0}
	s.now = clock.Now
	s.newID = func() string { return "a1" }
	s.newCode = func() (string, error) { return "482913", nil }
	return s, clock
}

func TestCreateAttempt(t *testing.T) {
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})

	a, err := s.CreateAttempt(context.Background(), models.ProviderPhone, " +15551230000 ")
	if err != nil {
		t.Fatalf("CreateAttempt() error = %v", err)
	}
	if a.ID != "a1" || a.Code != "482913" || a.Identifier != "+15551230000" {
		t.Errorf("attempt = %+v", a)
	}
	if !a.ExpiresAt.Equal(t0.Add(300*time.Second)) || a.AttemptsRemaining != 5 || a.Status != models.AttemptPending {
		t.Errorf("attempt = %+v", a)
	}
	if a.CodeHash == "" || a.CodeHash == a.Code {
		t.Errorf("CodeHash = %q", a.CodeHash)
	}
}

func TestCreateAttemptRejectsBadInput(t *testing.T) {
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})
	ctx := context.Background()

	if _, err := s.CreateAttempt(ctx, "pigeon", "x"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider error = %v", err)
	}
	if _, err := s.CreateAttempt(ctx, models.ProviderEmail, "  "); !errors.Is(err, ErrEmptyIdentifier) {
		t.Errorf("empty identifier error = %v", err)
	}
}

func TestCreateAttemptAllowsParallelAttemptsPerIdentifier(t *testing.T) {
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})
	ids := []string{"a1", "a2"}
	s.newID = func() string { id := ids[0]; ids = ids[1:]; return id }
	ctx := context.Background()

	first, err := s.CreateAttempt(ctx, models.ProviderEmail, "x@example.com")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateAttempt(ctx, models.ProviderEmail, "x@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateCode(ctx, second.ID, "482913"); err != nil {
		t.Fatalf("ValidateCode(second) error = %v", err)
	}
	got, err := s.GetStatus(ctx, first.ID)
	if err != nil || got.Status != models.AttemptPending {
		t.Errorf("first attempt = %+v, %v; want independent pending", got, err)
	}
}

func TestResendThrottle(t *testing.T) {
	s, clock := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{
		Resend: ResendPolicy{MaxSends: 2, Window: 10 * time.Minute},
	})
	n := 0
	s.newID = func() string { n++; return string(rune('a' + n)) }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
			t.Fatalf("CreateAttempt #%d error = %v", i, err)
		}
	}
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); !errors.Is(err, ErrResendThrottled) {
		t.Fatalf("third CreateAttempt error = %v, want ErrResendThrottled", err)
	}
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+2"); err != nil {
		t.Errorf("other identifier throttled: %v", err)
	}
	clock.Advance(11 * time.Minute)
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Errorf("CreateAttempt after window error = %v", err)
	}
}

func TestValidateCodeScenario(t *testing.T) {
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+15551230000"); err != nil {
		t.Fatal(err)
	}

	a, err := s.ValidateCode(ctx, "a1", "000000")
	var invalid *InvalidCodeError
	if !errors.As(err, &invalid) || !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("wrong code error = %v, want InvalidCodeError", err)
	}
	if invalid.Remaining != 4 || a.AttemptsRemaining != 4 {
		t.Errorf("remaining = %d/%d, want 4", invalid.Remaining, a.AttemptsRemaining)
	}

	a, err = s.ValidateCode(ctx, "a1", "482913")
	if err != nil {
		t.Fatalf("correct code error = %v", err)
	}
	if a.Status != models.AttemptVerified || a.VerifiedAt == nil {
		t.Errorf("attempt = %+v", a)
	}

	for _, code := range []string{"482913", "000000"} {
		if _, err := s.ValidateCode(ctx, "a1", code); !errors.Is(err, ErrAlreadyVerified) {
			t.Errorf("ValidateCode(%s) after verify error = %v, want ErrAlreadyVerified", code, err)
		}
	}
	stored, _ := s.GetStatus(ctx, "a1")
	if stored.AttemptsRemaining != 4 {
		t.Errorf("AttemptsRemaining changed after verification: %d", stored.AttemptsRemaining)
	}
}

func TestValidateCodeExhausts(t *testing.T) {
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderEmail, "x@example.com"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		_, err := s.ValidateCode(ctx, "a1", "111111")
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCode", i, err)
		}
	}
	a, _ := s.GetStatus(ctx, "a1")
	if a.Status != models.AttemptExhausted || a.AttemptsRemaining != 0 {
		t.Fatalf("after 5 misses = %+v", a)
	}
	if _, err := s.ValidateCode(ctx, "a1", "482913"); !errors.Is(err, ErrExhausted) {
		t.Errorf("correct code after exhaustion error = %v, want ErrExhausted", err)
	}
}

func TestValidateCodeExpired(t *testing.T) {
	s, clock := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5*time.Minute + time.Second)

	a, err := s.ValidateCode(ctx, "a1", "482913")
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("error = %v, want ErrExpired", err)
	}
	if a.Status != models.AttemptExpired || a.AttemptsRemaining != 5 {
		t.Errorf("attempt = %+v", a)
	}
	if _, err := s.ValidateCode(ctx, "a1", "482913"); !errors.Is(err, ErrExpired) {
		t.Errorf("second call error = %v, want ErrExpired", err)
	}
}

func TestValidateCodeNotFound(t *testing.T) {
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), nil, VerificationOptions{})
	if _, err := s.ValidateCode(context.Background(), "nope", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetStatus(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetStatus error = %v, want ErrNotFound", err)
	}
}

func TestGetStatusLazyExpiry(t *testing.T) {
	store := repositories.NewMemoryStore()
	s, clock := newTestVerification(store.Attempts(), nil, VerificationOptions{TTL: time.Minute})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Fatal(err)
	}

	a, err := s.GetStatus(ctx, "a1")
	if err != nil || a.Status != models.AttemptPending {
		t.Fatalf("GetStatus() = %+v, %v", a, err)
	}
	clock.Advance(2 * time.Minute)
	a, err = s.GetStatus(ctx, "a1")
	if err != nil || a.Status != models.AttemptExpired || a.AttemptsRemaining != 5 {
		t.Fatalf("GetStatus() after TTL = %+v, %v", a, err)
	}
	stored, _ := store.Attempts().GetByID(ctx, "a1")
	if stored.Status != models.AttemptExpired {
		t.Errorf("expiry not persisted: %q", stored.Status)
	}
}

// conflictOnce: первый Update проигрывает гонку, будто другой запрос
// записал попытку между нашими чтением и записью.
type conflictOnce struct {
	repositories.AttemptRepository
	mu        sync.Mutex
	tripped   bool
	interpose func()
}

func (c *conflictOnce) Update(ctx context.Context, a *models.VerificationAttempt) error {
	c.mu.Lock()
	trip := !c.tripped
	c.tripped = true
	c.mu.Unlock()
	if trip {
		c.interpose()
	}
	return c.AttemptRepository.Update(ctx, a)
}

func TestValidateCodeRetriesOnConflict(t *testing.T) {
	store := repositories.NewMemoryStore()
	repo := &conflictOnce{AttemptRepository: store.Attempts()}
	s, _ := newTestVerification(repo, nil, VerificationOptions{})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Fatal(err)
	}
	// параллельная неверная попытка успела первой
	repo.interpose = func() {
		a, _ := store.Attempts().GetByID(ctx, "a1")
		a.AttemptsRemaining--
		_ = store.Attempts().Update(ctx, a)
	}

	_, err := s.ValidateCode(ctx, "a1", "000000")
	var invalid *InvalidCodeError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidCodeError", err)
	}
	if invalid.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3 (both guesses counted)", invalid.Remaining)
	}
}

type alwaysConflict struct {
	repositories.AttemptRepository
	calls int
}

func (c *alwaysConflict) Update(context.Context, *models.VerificationAttempt) error {
	c.calls++
	return repositories.ErrConflict
}

func TestValidateCodeSurfacesPersistentConflict(t *testing.T) {
	repo := &alwaysConflict{AttemptRepository: repositories.NewMemoryStore().Attempts()}
	s, _ := newTestVerification(repo, nil, VerificationOptions{})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateCode(ctx, "a1", "000000"); !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
	if repo.calls != maxConflictRetries+1 {
		t.Errorf("Update called %d times, want %d", repo.calls, maxConflictRetries+1)
	}
}

func TestConcurrentWrongCodesNeverLoseDecrements(t *testing.T) {
	store := repositories.NewMemoryStore()
	s, _ := newTestVerification(store.Attempts(), nil, VerificationOptions{MaxAttempts: 5})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		invalid int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ValidateCode(ctx, "a1", "000000")
			if errors.Is(err, ErrInvalidCode) {
				mu.Lock()
				invalid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	a, _ := store.Attempts().GetByID(ctx, "a1")
	if invalid > 5 {
		t.Fatalf("%d guesses accepted for evaluation, cap is 5", invalid)
	}
	if a.AttemptsRemaining != 5-invalid {
		t.Errorf("AttemptsRemaining = %d, want %d (one per evaluated guess)", a.AttemptsRemaining, 5-invalid)
	}
}

func TestStartVerificationDelivers(t *testing.T) {
	var gotDest, gotMsg string
	d := NewDispatcher()
	d.Register(models.ProviderPhone, SenderFunc(func(_ context.Context, dest, msg string) error {
		gotDest, gotMsg = dest, msg
		return nil
	}))
	s, _ := newTestVerification(repositories.NewMemoryStore().Attempts(), d, VerificationOptions{})

	a, err := s.StartVerification(context.Background(), models.ProviderPhone, "+15551230000")
	if err != nil {
		t.Fatalf("StartVerification() error = %v", err)
	}
	if a.ID != "a1" || gotDest != "+15551230000" {
		t.Errorf("attempt=%+v dest=%q", a, gotDest)
	}
	if want := "Your verification code: 482913. It expires in 5 min."; gotMsg != want {
		t.Errorf("message = %q", gotMsg)
	}
}

func TestStartVerificationDeliveryFailureKeepsAttempt(t *testing.T) {
	d := NewDispatcher()
	d.Register(models.ProviderEmail, SenderFunc(func(context.Context, string, string) error {
		return errors.New("smtp down")
	}))
	store := repositories.NewMemoryStore()
	s, _ := newTestVerification(store.Attempts(), d, VerificationOptions{})
	ctx := context.Background()

	a, err := s.StartVerification(ctx, models.ProviderEmail, "x@example.com")
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("error = %v, want ErrDelivery", err)
	}
	if a == nil {
		t.Fatal("attempt = nil on delivery failure")
	}
	if _, err := s.ValidateCode(ctx, a.ID, "482913"); err != nil {
		t.Errorf("attempt not usable after failed delivery: %v", err)
	}

	// для канала нет отправителя
	s.newID = func() string { return "a2" }
	if _, err := s.StartVerification(ctx, models.ProviderTelegram, "42"); !errors.Is(err, ErrDelivery) {
		t.Errorf("unregistered channel error = %v, want ErrDelivery", err)
	}
}

func TestCleanup(t *testing.T) {
	store := repositories.NewMemoryStore()
	s, clock := newTestVerification(store.Attempts(), nil, VerificationOptions{})
	ctx := context.Background()
	if _, err := s.CreateAttempt(ctx, models.ProviderPhone, "+1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Cleanup(ctx, time.Hour); n != 0 {
		t.Fatalf("Cleanup() removed live attempt")
	}
	clock.Advance(2 * time.Hour)
	if n, err := s.Cleanup(ctx, time.Hour); err != nil || n != 1 {
		t.Fatalf("Cleanup() = %d, %v; want 1", n, err)
	}
}
