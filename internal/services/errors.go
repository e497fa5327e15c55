package services

import (
	"errors"
	"fmt"

	"hasyx/internal/repositories"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrExpired         = errors.New("code expired")
	ErrExhausted       = errors.New("too many attempts")
	ErrInvalidCode     = errors.New("code invalid")
	ErrAlreadyVerified = errors.New("attempt already verified")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyIdentifier = errors.New("identifier is required")
	ErrResendThrottled = errors.New("resend throttled")
	ErrDelivery        = errors.New("code delivery failed")
	ErrNoSender        = errors.New("no sender for channel")

	ErrUnauthorized      = errors.New("webhook signature invalid")
	ErrMalformedPayload  = errors.New("malformed webhook payload")
	ErrInvalidTransition = errors.New("invalid payment state transition")

	ErrConflict = repositories.ErrConflict
)

// InvalidCodeError: сколько попыток осталось; совпадает с ErrInvalidCode.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("code invalid, %d attempts remaining", e.Remaining)
}

func (e *InvalidCodeError) Is(target error) bool { return target == ErrInvalidCode }

// maxConflictRetries: сколько раз перечитываем запись после проигранного conditional update.
const maxConflictRetries = 2
