package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTokenVersionMismatch = errors.New("token version mismatch")
	ErrMalformedRefresh     = errors.New("malformed refresh token")
)

// Claims are carried by access tokens.
type Claims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey  string
	expiration time.Duration
	now        func() time.Time
}

func NewJWTService(secretKey string, expiration time.Duration) *JWTService {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &JWTService{
		secretKey:  secretKey,
		expiration: expiration,
		now:        time.Now,
	}
}

// Expiration is the access token lifetime.
func (s *JWTService) Expiration() time.Duration {
	return s.expiration
}

// GenerateToken creates a signed access token for the user
func (s *JWTService) GenerateToken(userID uint, email, role string, tokenVersion int) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:       userID,
		Email:        email,
		Role:         role,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken validates the JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.secretKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateTokenWithVersion rejects tokens issued before the user's last
// logout.
func (s *JWTService) ValidateTokenWithVersion(tokenString string, expectedVersion int) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenVersion != expectedVersion {
		return nil, ErrTokenVersionMismatch
	}
	return claims, nil
}

// GenerateRefreshToken creates an opaque refresh token of the form
// "<user id>.<random>".
func (s *JWTService) GenerateRefreshToken(userID uint) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return strconv.FormatUint(uint64(userID), 10) + "." + base64.RawURLEncoding.EncodeToString(bytes), nil
}

// RefreshTokenUserID extracts the user id prefix of a refresh token.
func (s *JWTService) RefreshTokenUserID(refreshToken string) (uint, error) {
	idPart, secret, ok := strings.Cut(refreshToken, ".")
	if !ok || secret == "" {
		return 0, ErrMalformedRefresh
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrMalformedRefresh
	}
	return uint(id), nil
}

// HashRefreshToken securely hashes a refresh token
func (s *JWTService) HashRefreshToken(refreshToken string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(refreshToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash refresh token: %w", err)
	}
	return string(hash), nil
}

// VerifyRefreshToken verifies a refresh token against its hash
func (s *JWTService) VerifyRefreshToken(refreshToken, hashedToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(refreshToken)) == nil
}
