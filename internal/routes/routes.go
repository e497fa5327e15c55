package routes

import (
	"github.com/gin-gonic/gin"

	"hasyx/internal/authz"
	"hasyx/internal/handlers"
	"hasyx/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	verifyHandler *handlers.VerifyHandler,
	paymentHandler *handlers.PaymentHandler,
	adminHandler *handlers.AdminHandler,
) {
	// VERIFY (публичные)
	verify := r.Group("/verify")
	{
		verify.POST("/start", verifyHandler.Start)
		verify.POST("/confirm", verifyHandler.Confirm)
		verify.GET("/:id/status", verifyHandler.Status)
	}

	// PAYMENTS: провайдеры аутентифицируются подписью, не JWT
	r.POST("/payments/:provider/webhook", paymentHandler.Webhook)

	// ADMIN
	admin := r.Group("/admin",
		middleware.AuthMiddleware(jwtSecret),
		middleware.RequireRoles(authz.RoleAdmin, authz.RoleAudit),
		middleware.ReadOnlyGuard(),
	)
	{
		admin.GET("/payments/:provider/:external_id", adminHandler.GetPayment)
		admin.GET("/action-failures", adminHandler.ListActionFailures)
		admin.POST("/verify/cleanup", adminHandler.Cleanup)
	}
}
