package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/dto"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AccountService is the account side of the auth routes.
type AccountService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, userID uint) error
	GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error)
	UpdateDetails(ctx context.Context, userID uint, req *dto.UpdateDetailsRequest) (*dto.UserResponse, error)
	UpdatePassword(ctx context.Context, userID uint, req *dto.UpdatePasswordRequest) (*dto.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*dto.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, resetToken string, req *dto.ResetPasswordRequest) (*dto.AuthResponse, error)
}

// NotificationReader serves the notification routes of the current user.
type NotificationReader interface {
	List(ctx context.Context, userID uint) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID uint, notificationID string) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uint) (int, error)
}

// CookieConfig controls the token cookie set on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	accounts      AccountService
	notifications NotificationReader
	cookie        CookieConfig
}

func NewAuthHandler(accounts AccountService, notifications NotificationReader, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		notifications: notifications,
		cookie:        cookie,
	}
}

// sendToken answers with the tokens and mirrors the access token in a
// cookie so browser clients can skip the Authorization header.
func (h *AuthHandler) sendToken(c *gin.Context, status int, resp *dto.AuthResponse) {
	if h.cookie.Name != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookie.Name, resp.Token, resp.ExpiresIn, "/", "", h.cookie.Secure, true)
	}
	c.JSON(status, gin.H{
		constants.ResponseFieldSuccess: true,
		constants.ResponseFieldToken:   resp.Token,
		"refresh_token":                resp.RefreshToken,
		"expires_in":                   resp.ExpiresIn,
		constants.ResponseFieldData:    resp.User,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	ctx := requestContext(c, "Register")

	var req dto.RegisterRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.accounts.Register(ctx, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logger.InfoWithContext(ctx, "User registered").Uint("user_id", resp.User.ID).Log()
	h.sendToken(c, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := requestContext(c, "Login")

	var req dto.LoginRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.accounts.Login(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").String("email", req.Email).Err(err).Log()
		_ = c.Error(err)
		return
	}

	h.sendToken(c, http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := requestContext(c, "RefreshToken")

	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.accounts.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").Err(err).Log()
		_ = c.Error(err)
		return
	}

	h.sendToken(c, http.StatusOK, resp)
}

// Logout invalidates every token of the user and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := requestContext(c, "Logout")

	if err := h.accounts.Logout(ctx, currentUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}

	if h.cookie.Name != "" {
		c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(gin.H{}))
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := requestContext(c, "Me")

	user, err := h.accounts.GetMe(ctx, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(user))
}

func (h *AuthHandler) UpdateDetails(c *gin.Context) {
	ctx := requestContext(c, "UpdateDetails")

	var req dto.UpdateDetailsRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	user, err := h.accounts.UpdateDetails(ctx, currentUserID(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(user))
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	ctx := requestContext(c, "UpdatePassword")

	var req dto.UpdatePasswordRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.accounts.UpdatePassword(ctx, currentUserID(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, resp)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := requestContext(c, "ForgotPassword")

	var req dto.ForgotPasswordRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.accounts.ForgotPassword(ctx, req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(resp))
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := requestContext(c, "ResetPassword")

	var req dto.ResetPasswordRequest
	if !bindJSON(ctx, c, &req) {
		return
	}

	resp, err := h.accounts.ResetPassword(ctx, c.Param("resettoken"), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, resp)
}

func (h *AuthHandler) Notifications(c *gin.Context) {
	ctx := requestContext(c, "Notifications")

	list, err := h.notifications.List(ctx, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendList(c, list)
}

func (h *AuthHandler) MarkAsRead(c *gin.Context) {
	ctx := requestContext(c, "MarkAsRead")

	list, err := h.notifications.MarkRead(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendList(c, list)
}

func (h *AuthHandler) NotificationAlert(c *gin.Context) {
	ctx := requestContext(c, "NotificationAlert")

	unread, err := h.notifications.UnreadCount(ctx, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, constants.BuildDataResponse(dto.NotificationAlertResponse{Unread: unread}))
}
