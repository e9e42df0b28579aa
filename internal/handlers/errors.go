package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

var statusByCode = map[apperr.Code]int{
	apperr.Unauthenticated: http.StatusUnauthorized,
	apperr.BadUserInput:    http.StatusBadRequest,
	apperr.NotFound:        http.StatusNotFound,
	apperr.Conflict:        http.StatusConflict,
	apperr.Forbidden:       http.StatusForbidden,
	apperr.Downstream:      http.StatusBadGateway,
}

// respondError writes err as {"error", "code"}. Untyped errors are recorded
// on the context for the access log and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		_ = c.Error(err)
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": apperr.Public(err).Error(), "code": string(code)})
}
