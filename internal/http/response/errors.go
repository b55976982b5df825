package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/lumenlearn/guidance-backend/internal/pkg/errors"
)

// RespondServiceError maps service-layer sentinel errors onto HTTP statuses
// and the standard error envelope.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, errs.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, errs.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, errs.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, errs.ErrUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
