package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mfallon/taskdesk/internal/domain"
)

// abortWithError renders the error taxonomy as structured JSON. The UI owns
// presentation; the server only classifies.
func abortWithError(c *gin.Context, err error) {
	status, code := classify(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameters):
		return http.StatusBadRequest, "invalid_parameters"
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusBadGateway, "delivery_failure"
	case errors.Is(err, domain.ErrDataFetch):
		return http.StatusInternalServerError, "data_fetch_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
