package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
	})
}

// respondError maps domain errors to HTTP statuses: validation failures to
// 422, missing entities to 404, everything else to 500.
func respondError(c *gin.Context, err error) {
	if verr, ok := domain.AsValidationError(err); ok {
		Error(c, http.StatusUnprocessableEntity, verr.Error())
		return
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrOrphanUpdate) {
		Error(c, http.StatusNotFound, err.Error())
		return
	}
	Error(c, http.StatusInternalServerError, err.Error())
}
