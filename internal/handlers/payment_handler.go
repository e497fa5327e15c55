package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"hasyx/internal/services"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	Webhooks *services.WebhookService
}

func NewPaymentHandler(s *services.WebhookService) *PaymentHandler {
	return &PaymentHandler{Webhooks: s}
}

// Webhook godoc
// @Summary      Уведомление платёжного провайдера
// @Description  Ответ 200 с телом, которое ожидает провайдер, в том числе для дублей и игнорируемых событий.
// @Tags         Payments
// @Accept       json
// @Produce      plain
// @Param        provider  path  string  true  "имя провайдера из конфига"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /payments/{provider}/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}

	res, err := h.Webhooks.Receive(c.Request.Context(), c.Param("provider"), body, c.Request.Header)
	// недопустимый переход подтверждаем, иначе провайдер будет повторять доставку
	if err != nil && !(errors.Is(err, services.ErrInvalidTransition) && res != nil) {
		writeServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, res.Ack.ContentType, res.Ack.Body)
}
