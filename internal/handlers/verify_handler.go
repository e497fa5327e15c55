package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hasyx/internal/models"
	"hasyx/internal/services"
	"hasyx/internal/utils"
)

type VerifyHandler struct {
	Verification *services.VerificationService
	Tokens       *utils.TokenIssuer // nil: confirm отвечает без токена
}

func NewVerifyHandler(s *services.VerificationService, tokens *utils.TokenIssuer) *VerifyHandler {
	return &VerifyHandler{Verification: s, Tokens: tokens}
}

type StartRequest struct {
	Provider   string `json:"provider" binding:"required" example:"phone"`
	Identifier string `json:"identifier" binding:"required" example:"+77001234567"`
}

type StartResponse struct {
	AttemptID         string    `json:"attempt_id"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	Delivered         bool      `json:"delivered"`
}

type ConfirmRequest struct {
	AttemptID string `json:"attempt_id" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

type ConfirmResponse struct {
	Status models.AttemptStatus `json:"status"`
	Token  string               `json:"token,omitempty"`
}

type StatusResponse struct {
	AttemptID         string               `json:"attempt_id"`
	Status            models.AttemptStatus `json:"status"`
	ExpiresAt         time.Time            `json:"expires_at"`
	AttemptsRemaining int                  `json:"attempts_remaining"`
}

// Start godoc
// @Summary      Отправить код подтверждения
// @Tags         Verify
// @Accept       json
// @Produce      json
// @Param        body  body      StartRequest  true  "Канал и адрес"
// @Success      201   {object}  StartResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /verify/start [post]
func (h *VerifyHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	provider := models.VerificationProvider(req.Provider)
	if !provider.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider"})
		return
	}

	a, err := h.Verification.StartVerification(c.Request.Context(), provider, req.Identifier)
	delivered := err == nil
	if err != nil && !(errors.Is(err, services.ErrDelivery) && a != nil) {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, StartResponse{
		AttemptID:         a.ID,
		ExpiresAt:         a.ExpiresAt,
		AttemptsRemaining: a.AttemptsRemaining,
		Delivered:         delivered,
	})
}

// Confirm godoc
// @Summary      Проверить код
// @Tags         Verify
// @Accept       json
// @Produce      json
// @Param        body  body      ConfirmRequest  true  "Попытка и код"
// @Success      200   {object}  ConfirmResponse
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /verify/confirm [post]
func (h *VerifyHandler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.Verification.ValidateCode(c.Request.Context(), req.AttemptID, req.Code)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := ConfirmResponse{Status: a.Status}
	if h.Tokens != nil {
		token, err := h.Tokens.IssueVerificationToken(a)
		if err != nil {
			log.Printf("[verify][token] attempt_id=%s: %v", a.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		resp.Token = token
	}
	c.JSON(http.StatusOK, resp)
}

// Status godoc
// @Summary      Статус попытки
// @Tags         Verify
// @Produce      json
// @Param        id   path      string  true  "attempt_id"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  map[string]string
// @Router       /verify/{id}/status [get]
func (h *VerifyHandler) Status(c *gin.Context) {
	a, err := h.Verification.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{
		AttemptID:         a.ID,
		Status:            a.Status,
		ExpiresAt:         a.ExpiresAt,
		AttemptsRemaining: a.AttemptsRemaining,
	})
}
