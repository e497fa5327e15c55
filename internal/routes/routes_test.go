package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"hasyx/internal/handlers"
	"hasyx/internal/middleware"
	"hasyx/internal/payments"
	"hasyx/internal/repositories"
	"hasyx/internal/services"
)

var secret = []byte("admin-secret")

func adminToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.Claims{
		UserID:           "ops-1",
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := repositories.NewMemoryStore()
	vs := services.NewVerificationService(store.Attempts(), nil, services.VerificationOptions{CodeHashCost: bcrypt.MinCost})
	ws := services.NewWebhookService(payments.NewRegistry(), store.Payments(), store.ActionFailures())

	r := gin.New()
	SetupRoutes(r, secret,
		handlers.NewVerifyHandler(vs, nil),
		handlers.NewPaymentHandler(ws),
		handlers.NewAdminHandler(ws, vs, time.Hour),
	)
	return r
}

func TestRoutes(t *testing.T) {
	r := newEngine()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"status is public", http.MethodGet, "/verify/nope/status", "", http.StatusNotFound},
		{"webhook is public", http.MethodPost, "/payments/tbank/webhook", "", http.StatusNotFound},
		{"admin needs token", http.MethodGet, "/admin/action-failures", "", http.StatusUnauthorized},
		{"admin reads", http.MethodGet, "/admin/action-failures", adminToken(t, "admin"), http.StatusOK},
		{"audit reads", http.MethodGet, "/admin/action-failures", adminToken(t, "audit"), http.StatusOK},
		{"audit cannot cleanup", http.MethodPost, "/admin/verify/cleanup", adminToken(t, "audit"), http.StatusForbidden},
		{"admin cleanup", http.MethodPost, "/admin/verify/cleanup", adminToken(t, "admin"), http.StatusOK},
		{"user forbidden", http.MethodGet, "/admin/payments/tbank/tx1", adminToken(t, "user"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}
