package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/dto"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/model"
	ctxutil "github.com/Payphone-Digital/locatory/pkg/context"
	"github.com/Payphone-Digital/locatory/pkg/geo"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStore is the persistence the user service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, id uint) error
	UpdateRefreshToken(ctx context.Context, id uint, refreshTokenHash string, expiresAt *time.Time) error
	SetResetToken(ctx context.Context, id uint, tokenHash string, expire time.Time) error
	IncrementTokenVersion(ctx context.Context, id uint) error
}

// Locator resolves a free-text address to a location.
type Locator interface {
	Resolve(ctx context.Context, query string) (*geo.Location, error)
}

type UserService struct {
	repoUser        UserStore
	jwtService      *JWTService
	locator         Locator
	refreshDuration time.Duration
	now             func() time.Time
}

func NewUserService(repo UserStore, jwtService *JWTService, locator Locator, refreshDuration time.Duration) *UserService {
	if refreshDuration <= 0 {
		refreshDuration = 7 * 24 * time.Hour
	}
	return &UserService{
		repoUser:        repo,
		jwtService:      jwtService,
		locator:         locator,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}
}

func (s *UserService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *UserService) checkPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// locate geocodes an address; failures only cost the user a location.
func (s *UserService) locate(ctx context.Context, address string) (datatypes.JSONType[geo.Point], bool) {
	if s.locator == nil || strings.TrimSpace(address) == "" {
		return datatypes.JSONType[geo.Point]{}, false
	}
	loc, err := s.locator.Resolve(ctx, address)
	if err != nil {
		logger.WarnWithContext(ctx, "Address geocoding failed, continuing without location").
			String("address", address).
			Err(err).
			Log()
		return datatypes.JSONType[geo.Point]{}, false
	}
	return datatypes.NewJSONType(geo.NewPoint(*loc)), true
}

func (s *UserService) emailTaken(ctx context.Context, email string, excludeID uint) error {
	existing, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if existing.ID != excludeID {
		return apperrors.ErrEmailExists
	}
	return nil
}

// Register creates a user and signs them in.
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Register")

	email := normalizeEmail(req.Email)
	logger.InfoWithContext(ctx, "Register user").String("email", email).Log()

	if err := s.emailTaken(ctx, email, 0); err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             email,
		Role:              constants.RoleUser,
		Password:          hashed,
		Address:           req.Address,
		Photo:             req.Photo,
		PreferredCategory: datatypes.JSONSlice[string](req.Preference),
		Notifications:     datatypes.JSONSlice[model.Notification]{},
	}
	if user.PreferredCategory == nil {
		user.PreferredCategory = datatypes.JSONSlice[string]{}
	}
	if loc, ok := s.locate(ctx, req.Address); ok {
		user.Location = loc
	}

	if err := s.repoUser.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.TokenVersion == 0 {
		user.TokenVersion = 1
	}

	logger.InfoWithContext(ctx, "User registered successfully").
		Uint("target_user_id", user.ID).
		Log()
	return s.issueTokens(ctx, user)
}

// Login authenticates by email and password.
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Login")

	email := normalizeEmail(req.Email)
	logger.InfoWithContext(ctx, "User login attempt").String("email", email).Log()

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !s.checkPassword(user.Password, req.Password) {
		logger.WarnWithContext(ctx, "Invalid password").
			Uint("target_user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.repoUser.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.WarnWithContext(ctx, "Failed to update last login").Err(err).Log()
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.InfoWithContext(ctx, "User logged in successfully").
		Uint("target_user_id", user.ID).
		Log()
	return resp, nil
}

// RefreshToken rotates the refresh token and issues a new access token.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "RefreshToken")

	userID, err := s.jwtService.RefreshTokenUserID(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.repoUser.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.RefreshTokenHash == "" || !s.jwtService.VerifyRefreshToken(refreshToken, user.RefreshTokenHash) {
		logger.WarnWithContext(ctx, "Invalid refresh token").
			Uint("target_user_id", userID).
			Log()
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if user.RefreshTokenExpires != nil && user.RefreshTokenExpires.Before(s.now()) {
		_ = s.repoUser.UpdateRefreshToken(ctx, user.ID, "", nil)
		return nil, apperrors.ErrTokenExpired
	}

	return s.issueTokens(ctx, user)
}

// Logout invalidates every outstanding token of the user.
func (s *UserService) Logout(ctx context.Context, userID uint) error {
	ctx = ctxutil.WithOperation(ctx, "service", "Logout")

	if err := s.repoUser.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	logger.InfoWithContext(ctx, "User logged out").Uint("target_user_id", userID).Log()
	return nil
}

// Authenticate validates an access token against the user's current token
// version.
func (s *UserService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrUnauthorized, err)
	}
	user, err := s.repoUser.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrUnauthorized, err)
	}
	if claims.TokenVersion != user.TokenVersion {
		return nil, apperrors.WrapError(apperrors.ErrUnauthorized, ErrTokenVersionMismatch)
	}
	claims.Role = user.Role
	return claims, nil
}

func (s *UserService) GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdateDetails changes profile fields; a new address is geocoded again.
func (s *UserService) UpdateDetails(ctx context.Context, userID uint, req *dto.UpdateDetailsRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "UpdateDetails")

	fields := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if req.Email != "" {
		email := normalizeEmail(req.Email)
		if err := s.emailTaken(ctx, email, userID); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Photo != "" {
		fields["photo"] = req.Photo
	}
	if req.Preference != nil {
		fields["preferred_category"] = datatypes.JSONSlice[string](req.Preference)
	}
	if req.Address != "" {
		fields["address"] = req.Address
		if loc, ok := s.locate(ctx, req.Address); ok {
			fields["location"] = loc
		}
	}

	if len(fields) > 0 {
		if err := s.repoUser.Update(ctx, userID, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrUserNotFound
			}
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrEmailExists
			}
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	logger.InfoWithContext(ctx, "User details updated").
		Uint("target_user_id", userID).
		Int("fields", len(fields)).
		Log()
	return s.GetMe(ctx, userID)
}

// UpdatePassword checks the current password, stores the new one and
// signs out every other session.
func (s *UserService) UpdatePassword(ctx context.Context, userID uint, req *dto.UpdatePasswordRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "UpdatePassword")

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.checkPassword(user.Password, req.CurrentPassword) {
		return nil, apperrors.ErrIncorrectPassword
	}
	return s.setPassword(ctx, user, req.NewPassword)
}

// ForgotPassword issues a one-time reset token valid for ten minutes. Only
// its hash is stored.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (*dto.ForgotPasswordResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "ForgotPassword")

	user, err := s.repoUser.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrUserNotFound, "There is no user with that email")
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	expire := s.now().Add(constants.ResetTokenExpiry)
	if err := s.repoUser.SetResetToken(ctx, user.ID, hashResetToken(token), expire); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Password reset token issued").
		Uint("target_user_id", user.ID).
		Log()
	return &dto.ForgotPasswordResponse{ResetToken: token, ExpiresAt: expire}, nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *UserService) ResetPassword(ctx context.Context, resetToken string, req *dto.ResetPasswordRequest) (*dto.AuthResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "ResetPassword")

	user, err := s.repoUser.GetByResetToken(ctx, hashResetToken(resetToken), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return s.setPassword(ctx, user, req.Password)
}

func (s *UserService) setPassword(ctx context.Context, user *model.User, password string) (*dto.AuthResponse, error) {
	hashed, err := s.hashPassword(password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.repoUser.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.repoUser.IncrementTokenVersion(ctx, user.ID); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	user.TokenVersion++

	logger.InfoWithContext(ctx, "Password updated").
		Uint("target_user_id", user.ID).
		Log()
	return s.issueTokens(ctx, user)
}

func (s *UserService) getUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.repoUser.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

// issueTokens signs an access token and stores a fresh refresh token hash.
func (s *UserService) issueTokens(ctx context.Context, user *model.User) (*dto.AuthResponse, error) {
	if s.jwtService == nil {
		logger.ErrorWithContext(ctx, "JWT service not initialized").Log()
		return nil, apperrors.ErrServiceUnavailable
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	refreshHash, err := s.jwtService.HashRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	expires := s.now().Add(s.refreshDuration)
	if err := s.repoUser.UpdateRefreshToken(ctx, user.ID, refreshHash, &expires); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token").
			Uint("target_user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtService.Expiration().Seconds()),
		User:         dto.NewUserResponse(user),
	}, nil
}
