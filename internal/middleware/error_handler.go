package middleware

import (
	"errors"
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached to the context as
// {success: false, error}. Server errors are logged with their detail and
// answered with a generic message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := classify(c.Errors.Last().Err)
		status := apperrors.ToHTTPStatus(err)
		ctx := c.Request.Context()

		if status >= http.StatusInternalServerError {
			logger.ErrorWithContext(ctx, "Request failed").
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				StatusCode(status).
				Err(err).
				Log()
		} else {
			logger.DebugWithContext(ctx, "Request rejected").
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				StatusCode(status).
				Err(err).
				Log()
		}

		c.AbortWithStatusJSON(status, constants.BuildErrorResponse(apperrors.PublicMessage(err)))
	}
}

// classify turns errors raised below the service layer into domain errors.
func classify(err error) error {
	if apperrors.IsDomainError(err) {
		return err
	}
	if errors.Is(err, query.ErrInvalidQuery) {
		return apperrors.InvalidInput(err)
	}
	return err
}
