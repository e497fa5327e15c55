package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hasyx/internal/models"
)

// NewNumericCode: криптослучайный числовой код с ведущими нулями.
func NewNumericCode(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// VerificationClaims подтверждают, что identifier прошёл проверку кодом.
type VerificationClaims struct {
	AttemptID  string `json:"attempt_id"`
	Provider   string `json:"provider"`
	Identifier string `json:"identifier"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

func (t *TokenIssuer) IssueVerificationToken(a *models.VerificationAttempt) (string, error) {
	now := t.now()
	claims := &VerificationClaims{
		AttemptID:  a.ID,
		Provider:   string(a.Provider),
		Identifier: a.Identifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Identifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}
