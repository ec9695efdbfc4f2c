package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/service"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/validation"
	"github.com/gin-gonic/gin"
)

// requestContext tags the request context with the handler name.
func requestContext(c *gin.Context, function string) context.Context {
	return ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", function)
}

// bindJSON binds the body into dst, attaching a domain error on failure.
func bindJSON(ctx context.Context, c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.WarnWithContext(ctx, "Invalid request body").Err(err).Log()
		_ = c.Error(validation.BindError(err))
		return false
	}
	return true
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(constants.GinKeyUserID)
}

func currentActor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: currentUserID(c),
		Role:   c.GetString(constants.GinKeyRole),
	}
}

// sendList writes {success, count, data}; a nil slice is sent as [].
func sendList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, constants.BuildListResponse(len(items), items))
}
