package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hasyx/internal/services"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

func getUserAndRole(c *gin.Context) (userID, role string) {
	return c.GetString("user_id"), c.GetString("role")
}

// pageParams читает limit/offset из query, некорректные значения заменяются дефолтами.
func pageParams(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err = strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// writeServiceError: ошибки сервисов в HTTP-ответы.
func writeServiceError(c *gin.Context, err error) {
	var invalid *services.InvalidCodeError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code", "attempts_remaining": invalid.Remaining})
	case errors.Is(err, services.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "code expired, please start over"})
	case errors.Is(err, services.ErrExhausted):
		c.JSON(http.StatusGone, gin.H{"error": "too many attempts, please start over"})
	case errors.Is(err, services.ErrAlreadyVerified):
		c.JSON(http.StatusConflict, gin.H{"error": "already verified"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrResendThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try later"})
	case errors.Is(err, services.ErrUnknownProvider):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
	case errors.Is(err, services.ErrEmptyIdentifier):
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier is required"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
	case errors.Is(err, services.ErrMalformedPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent update, retry"})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
