package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hasyx/internal/models"
	"hasyx/internal/services"
)

type AdminHandler struct {
	Webhooks     *services.WebhookService
	Verification *services.VerificationService
	CleanupAfter time.Duration
}

func NewAdminHandler(w *services.WebhookService, v *services.VerificationService, cleanupAfter time.Duration) *AdminHandler {
	return &AdminHandler{Webhooks: w, Verification: v, CleanupAfter: cleanupAfter}
}

// GetPayment godoc
// @Summary      Платёж по внешнему идентификатору
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        provider     path      string  true  "провайдер"
// @Param        external_id  path      string  true  "id транзакции у провайдера"
// @Success      200  {object}  models.PaymentRecord
// @Failure      404  {object}  map[string]string
// @Router       /admin/payments/{provider}/{external_id} [get]
func (h *AdminHandler) GetPayment(c *gin.Context) {
	rec, err := h.Webhooks.GetPayment(c.Request.Context(), c.Param("provider"), c.Param("external_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListActionFailures godoc
// @Summary      Неудавшиеся действия после оплаты
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "по умолчанию 50"
// @Param        offset  query     int  false  "смещение"
// @Success      200  {array}   models.ActionFailure
// @Router       /admin/action-failures [get]
func (h *AdminHandler) ListActionFailures(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := h.Webhooks.ListActionFailures(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if list == nil {
		list = []*models.ActionFailure{}
	}
	c.JSON(http.StatusOK, list)
}

type CleanupRequest struct {
	OlderThan string `json:"older_than" example:"24h"`
}

// Cleanup godoc
// @Summary      Удалить просроченные попытки
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      CleanupRequest  false  "older_than: длительность Go, по умолчанию из конфига"
// @Success      200   {object}  map[string]int64
// @Failure      400   {object}  map[string]string
// @Router       /admin/verify/cleanup [post]
func (h *AdminHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	olderThan := h.CleanupAfter
	if req.OlderThan != "" {
		d, err := time.ParseDuration(req.OlderThan)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "older_than must be a non-negative duration"})
			return
		}
		olderThan = d
	}

	n, err := h.Verification.Cleanup(c.Request.Context(), olderThan)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	userID, role := getUserAndRole(c)
	log.Printf("[admin][cleanup] by user=%s role=%s deleted=%d", userID, role, n)
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
