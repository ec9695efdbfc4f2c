package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/Payphone-Digital/locatory/internal/constants"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/service"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/gin-gonic/gin"
)

// TokenAuthenticator validates an access token and returns its claims.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Claims, error)
}

type JWTMiddleware struct {
	auth       TokenAuthenticator
	cookieName string
}

func NewJWTMiddleware(auth TokenAuthenticator, cookieName string) *JWTMiddleware {
	return &JWTMiddleware{
		auth:       auth,
		cookieName: cookieName,
	}
}

// RequireAuth accepts a Bearer token or, failing that, the auth cookie.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := m.extractToken(c)
		if token == "" {
			logger.WarnWithContext(ctx, "Missing access token").
				Path(c.Request.URL.Path).
				Method(c.Request.Method).
				Log()
			_ = c.Error(apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			logger.WarnWithContext(ctx, "Invalid access token").
				Path(c.Request.URL.Path).
				Method(c.Request.Method).
				Err(err).
				Log()
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(constants.GinKeyUserID, claims.UserID)
		c.Set(constants.GinKeyEmail, claims.Email)
		c.Set(constants.GinKeyRole, claims.Role)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(ctx, claims.UserID))

		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *JWTMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(constants.GinKeyRole)
		if !slices.Contains(roles, role) {
			_ = c.Error(apperrors.Forbidden("User role %s is not authorized to access this route", role))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *JWTMiddleware) extractToken(c *gin.Context) string {
	if header := c.GetHeader(constants.HeaderAuthorization); strings.HasPrefix(header, constants.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
	}
	if m.cookieName != "" {
		if cookie, err := c.Cookie(m.cookieName); err == nil {
			return cookie
		}
	}
	return ""
}
